package processing

import (
	"context"
	"fmt"
	"slices"

	"github.com/five82/crfboost/internal/config"
	"github.com/five82/crfboost/internal/ffprobe"
	"github.com/five82/crfboost/internal/reporter"
	"github.com/five82/crfboost/internal/scene"
)

// SceneSet is the normalized scene partition of one video.
type SceneSet struct {
	Scenes  []scene.Scene
	Frames  int
	FPS     float64
	RawCuts int
	Source  string // "scene file" or the detector used
	MinLen  int
	MaxLen  int
}

// PrepareScenes loads or detects raw cuts for input and normalizes them with
// the configured length limits.
func PrepareScenes(ctx context.Context, cfg *config.Config, input string, info *ffprobe.VideoInfo, det scene.Detector) (*SceneSet, error) {
	fps := info.FPS()
	minLen, maxLen, err := cfg.SceneLengths(fps)
	if err != nil {
		return nil, err
	}

	set := &SceneSet{Frames: info.Frames, FPS: fps, MinLen: minLen, MaxLen: maxLen}

	var cuts []int
	if cfg.SceneFile != "" {
		list, err := scene.LoadList(cfg.SceneFile)
		if err != nil {
			return nil, err
		}
		if set.Frames == 0 {
			set.Frames = list.Frames
		}
		cuts = list.Cuts()
		set.Source = "scene file"
	} else {
		cuts, err = det.DetectCuts(ctx, input, fps)
		if err != nil {
			return nil, err
		}
		set.Source = detectorName(det)
	}
	set.RawCuts = len(cuts)

	if set.Frames <= 0 {
		return nil, fmt.Errorf("%s has no frames", input)
	}

	set.Scenes = scene.Normalize(cuts, set.Frames, minLen, maxLen)
	if err := scene.Validate(set.Scenes, set.Frames); err != nil {
		return nil, err
	}
	return set, nil
}

// Summary describes the set for reporters.
func (s *SceneSet) Summary(sceneFile string) reporter.SceneSummary {
	lens := make([]int, len(s.Scenes))
	for i, sc := range s.Scenes {
		lens[i] = sc.Len()
	}
	summary := reporter.SceneSummary{
		Source:    s.Source,
		RawCuts:   s.RawCuts,
		Scenes:    len(s.Scenes),
		MinLen:    s.MinLen,
		MaxLen:    s.MaxLen,
		SceneFile: sceneFile,
	}
	if len(lens) > 0 {
		summary.ShortestLen = slices.Min(lens)
		summary.LongestLen = slices.Max(lens)
	}
	return summary
}

func detectorName(det scene.Detector) string {
	switch d := det.(type) {
	case scene.FFmpegDetector:
		return "ffmpeg scene filter"
	case scene.ExternalDetector:
		return d.Binary
	default:
		return "detector"
	}
}
