package config

import "errors"

// Sentinel errors for configuration validation.
var (
	// ErrInvalidTarget indicates a target quality outside 0-100.
	ErrInvalidTarget = errors.New("target quality out of range")

	// ErrInvalidThresholds indicates inconsistent merge/split thresholds.
	ErrInvalidThresholds = errors.New("invalid scene length thresholds")

	// ErrInvalidWorkers indicates a non-positive worker count.
	ErrInvalidWorkers = errors.New("invalid worker count")

	// ErrInvalidSampleFrames indicates a non-positive frame sample count.
	ErrInvalidSampleFrames = errors.New("invalid sample frame count")

	// ErrInvalidSVTPreset indicates an SVT-AV1 preset outside the valid -1..13 range.
	ErrInvalidSVTPreset = errors.New("SVT-AV1 preset out of range")

	// ErrInvalidSceneThreshold indicates a scene-change threshold outside (0, 1].
	ErrInvalidSceneThreshold = errors.New("scene threshold out of range")
)
