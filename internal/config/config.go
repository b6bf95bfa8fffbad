// Package config provides configuration types, defaults and TOML loading
// for crfboost.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/five82/crfboost/internal/cache"
	"github.com/five82/crfboost/internal/crf"
	cerrors "github.com/five82/crfboost/internal/errors"
	"github.com/five82/crfboost/internal/ffmpeg"
	"github.com/five82/crfboost/internal/probe"
	"github.com/five82/crfboost/internal/sampler"
	"github.com/five82/crfboost/internal/scene"
	"github.com/five82/crfboost/internal/tq"
)

// Default constants
const (
	// DefaultTargetQuality is the minimum aggregated SSIMULACRA2 score.
	DefaultTargetQuality = 81.0

	// DefaultCRF is the candidate specification, cheapest first.
	DefaultCRF = "35,30,27,24,21"

	// DefaultSampleFrames is the number of frames sampled per scene.
	DefaultSampleFrames = 10

	// DefaultWorkers is the number of scenes searched in parallel.
	DefaultWorkers = 2

	// DefaultSVTAV1Preset is the SVT-AV1 preset used for sample encodes.
	DefaultSVTAV1Preset = 4

	// MaxSVTPreset is the maximum valid SVT-AV1 preset value.
	MaxSVTPreset = 13

	// DefaultExtraSplitSec is the maximum scene length in seconds.
	DefaultExtraSplitSec = 10.0

	// DefaultMinSceneLenSec is the minimum scene length in seconds.
	DefaultMinSceneLenSec = 1.0

	// DefaultOrchestratorParams are the av1an options the zone file is built for.
	DefaultOrchestratorParams = "--verbose --workers 2 --concat mkvmerge --chunk-method bestsource --encoder svt-av1 --no-defaults"

	// DefaultEncoderParams is the SVT-AV1 parameter template. --crf is set per zone.
	DefaultEncoderParams = "--tune 2 --keyint -1 --film-grain 0 --scm 0 --hbd-mds 1 --tile-columns 1 " +
		"--enable-qm 1 --qm-min 8 --luminance-qp-bias 20 --kf-tf-strength 0 --input-depth 10"
)

// Config holds all configuration for a run. Fields tagged for TOML can be
// set from a config file; CLI flags override them.
type Config struct {
	// Paths
	Output      string `toml:"output"`
	TempDir     string `toml:"temp_dir"`
	LogDir      string `toml:"log_dir"`
	CacheDir    string `toml:"cache_dir"`
	SceneFile   string `toml:"scene_file"`
	CRFDataFile string `toml:"crf_data_file"`
	MetricsFile string `toml:"metrics_file"`

	// Search
	TargetQuality    float64 `toml:"target_quality"`
	CRF              string  `toml:"crf"`
	Aggregation      string  `toml:"aggregation"`
	SampleFrames     int     `toml:"n_frames"`
	Distribution     string  `toml:"distribution"`
	FilterFrames     bool    `toml:"filter_frames"`
	Workers          int     `toml:"workers"`
	EvaluatorWorkers int     `toml:"evaluator_workers"`

	// Encoder
	Preset             int    `toml:"preset"`
	EncoderParams      string `toml:"encoder_params"`
	OrchestratorParams string `toml:"av1an_params"`

	// Backends
	Source string `toml:"source"`
	Cache  string `toml:"cache"`

	// Scene normalization. Frame values override the seconds values when
	// set; an explicit 0 disables the step.
	ExtraSplitSec     float64 `toml:"extra_split_sec"`
	ExtraSplitFrames  *int    `toml:"extra_split"`
	MinSceneLenSec    float64 `toml:"min_scene_len_sec"`
	MinSceneLenFrames *int    `toml:"min_scene_len"`
	SceneThreshold    float64 `toml:"scene_threshold"`
	SceneDetector     string  `toml:"scene_detector"` // empty uses ffmpeg

	// Behavior
	Force    bool `toml:"force"`
	KeepTemp bool `toml:"keep_temp"`
	Verbose  bool `toml:"verbose"`
	NoLog    bool `toml:"no_log"`
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		TargetQuality:      DefaultTargetQuality,
		CRF:                DefaultCRF,
		Aggregation:        "min",
		SampleFrames:       DefaultSampleFrames,
		Distribution:       string(sampler.Center),
		FilterFrames:       true,
		Workers:            DefaultWorkers,
		Preset:             DefaultSVTAV1Preset,
		EncoderParams:      DefaultEncoderParams,
		OrchestratorParams: DefaultOrchestratorParams,
		Source:             string(probe.BackendFFmpeg),
		Cache:              string(cache.KindSQLite),
		ExtraSplitSec:      DefaultExtraSplitSec,
		MinSceneLenSec:     DefaultMinSceneLenSec,
		SceneThreshold:     scene.DefaultSceneThreshold,
	}
}

// Load overlays the TOML file at path onto the defaults. A missing file is
// an error only when required is set.
func Load(path string, required bool) (*Config, error) {
	cfg := NewConfig()
	if path == "" {
		return cfg, nil
	}

	path, err := ExpandPath(path)
	if err != nil {
		return nil, cerrors.NewConfigError("resolve config path", err)
	}

	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && !required {
			return cfg, nil
		}
		return nil, cerrors.NewConfigError("open config", err)
	}
	defer file.Close()

	decoder := toml.NewDecoder(file)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(cfg); err != nil {
		return nil, cerrors.NewConfigError("parse config "+path, err)
	}
	return cfg, nil
}

// ExpandPath resolves a leading ~ and makes the path absolute.
func ExpandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && pathValue[1] == '/' {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	return filepath.Abs(filepath.Clean(pathValue))
}

// Validate checks the configuration for errors. Every failure is a
// ConfigError wrapping a sentinel.
func (c *Config) Validate() error {
	if err := c.validate(); err != nil {
		return cerrors.NewConfigError("invalid configuration", err)
	}
	return nil
}

func (c *Config) validate() error {
	if math.IsNaN(c.TargetQuality) || c.TargetQuality < 0 || c.TargetQuality > 100 {
		return fmt.Errorf("%w: must be 0-100, got %v", ErrInvalidTarget, c.TargetQuality)
	}
	if _, err := crf.Parse(c.CRF); err != nil {
		return err
	}
	if _, err := tq.ParseAggregation(c.Aggregation); err != nil {
		return err
	}
	if _, err := sampler.ParseDistribution(c.Distribution); err != nil {
		return err
	}
	if _, err := probe.ParseBackend(c.Source); err != nil {
		return err
	}
	if _, err := cache.ParseKind(c.Cache); err != nil {
		return err
	}
	if c.SampleFrames < 1 {
		return fmt.Errorf("%w: must be at least 1, got %d", ErrInvalidSampleFrames, c.SampleFrames)
	}
	if c.Workers < 1 {
		return fmt.Errorf("%w: workers must be at least 1, got %d", ErrInvalidWorkers, c.Workers)
	}
	if c.EvaluatorWorkers < 0 {
		return fmt.Errorf("%w: evaluator_workers must not be negative, got %d", ErrInvalidWorkers, c.EvaluatorWorkers)
	}
	if c.Preset < -1 || c.Preset > MaxSVTPreset {
		return fmt.Errorf("%w: must be -1-%d, got %d", ErrInvalidSVTPreset, MaxSVTPreset, c.Preset)
	}
	if c.SceneThreshold <= 0 || c.SceneThreshold > 1 {
		return fmt.Errorf("%w: must be in (0, 1], got %v", ErrInvalidSceneThreshold, c.SceneThreshold)
	}
	if c.ExtraSplitSec < 0 || c.MinSceneLenSec < 0 || negative(c.ExtraSplitFrames) || negative(c.MinSceneLenFrames) {
		return fmt.Errorf("%w: lengths must not be negative", ErrInvalidThresholds)
	}
	if c.ExtraSplitFrames == nil && c.MinSceneLenFrames == nil {
		return checkThresholds(c.MinSceneLenSec, c.ExtraSplitSec, "s")
	}
	return nil
}

func negative(v *int) bool {
	return v != nil && *v < 0
}

// checkThresholds requires room to split a long scene into parts that are
// all at least minLen long.
func checkThresholds(minLen, maxLen float64, unit string) error {
	if minLen > 0 && maxLen > 0 && maxLen < 2*minLen {
		return fmt.Errorf("%w: split length %v%s must be at least twice the minimum scene length %v%s",
			ErrInvalidThresholds, maxLen, unit, minLen, unit)
	}
	return nil
}

// SceneLengths converts the normalization thresholds to frames for a source
// running at fps. Explicit frame values win over seconds.
func (c *Config) SceneLengths(fps float64) (minLen, maxLen int, err error) {
	minLen = scene.FramesForSeconds(c.MinSceneLenSec, fps)
	if c.MinSceneLenFrames != nil {
		minLen = *c.MinSceneLenFrames
	}
	maxLen = scene.FramesForSeconds(c.ExtraSplitSec, fps)
	if c.ExtraSplitFrames != nil {
		maxLen = *c.ExtraSplitFrames
	}
	if err := checkThresholds(float64(minLen), float64(maxLen), " frames"); err != nil {
		return 0, 0, cerrors.NewConfigError("invalid configuration", err)
	}
	return minLen, maxLen, nil
}

// SampleParams returns the encoder parameters used for sample encodes.
func (c *Config) SampleParams() ffmpeg.Params {
	return ffmpeg.ParseParams(c.EncoderParams).With("--preset", strconv.Itoa(c.Preset))
}

// ZoneEncoderParams returns the encoder template written into zone files.
func (c *Config) ZoneEncoderParams() string {
	return c.SampleParams().String()
}
