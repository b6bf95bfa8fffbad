package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/five82/crfboost/internal/crf"
	cerrors "github.com/five82/crfboost/internal/errors"
	"github.com/five82/crfboost/internal/sampler"
	"github.com/five82/crfboost/internal/tq"
)

func TestNewConfig(t *testing.T) {
	cfg := NewConfig()

	if cfg.TargetQuality != DefaultTargetQuality {
		t.Errorf("expected TargetQuality=%v, got %v", DefaultTargetQuality, cfg.TargetQuality)
	}
	if cfg.CRF != "35,30,27,24,21" {
		t.Errorf("expected CRF spec 35,30,27,24,21, got %s", cfg.CRF)
	}
	if cfg.SampleFrames != 10 || cfg.Workers != 2 || cfg.Preset != 4 {
		t.Errorf("unexpected defaults: frames=%d workers=%d preset=%d", cfg.SampleFrames, cfg.Workers, cfg.Preset)
	}
	if !cfg.FilterFrames {
		t.Error("filter frames should default to on")
	}
	if cfg.Force {
		t.Error("overwrite protection should be on by default")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name         string
		modify       func(*Config)
		wantErr      bool
		wantSentinel error
	}{
		{
			name:    "default config is valid",
			modify:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:         "target above 100",
			modify:       func(c *Config) { c.TargetQuality = 101 },
			wantErr:      true,
			wantSentinel: ErrInvalidTarget,
		},
		{
			name:         "bad crf spec",
			modify:       func(c *Config) { c.CRF = "71" },
			wantErr:      true,
			wantSentinel: crf.ErrInvalidSpec,
		},
		{
			name:         "bad distribution",
			modify:       func(c *Config) { c.Distribution = "random" },
			wantErr:      true,
			wantSentinel: sampler.ErrInvalidDistribution,
		},
		{
			name:         "bad aggregation",
			modify:       func(c *Config) { c.Aggregation = "median" },
			wantErr:      true,
			wantSentinel: tq.ErrInvalidAggregation,
		},
		{
			name:         "zero workers",
			modify:       func(c *Config) { c.Workers = 0 },
			wantErr:      true,
			wantSentinel: ErrInvalidWorkers,
		},
		{
			name:         "zero sample frames",
			modify:       func(c *Config) { c.SampleFrames = 0 },
			wantErr:      true,
			wantSentinel: ErrInvalidSampleFrames,
		},
		{
			name:         "preset 14 is invalid",
			modify:       func(c *Config) { c.Preset = 14 },
			wantErr:      true,
			wantSentinel: ErrInvalidSVTPreset,
		},
		{
			name:    "preset -1 is valid",
			modify:  func(c *Config) { c.Preset = -1 },
			wantErr: false,
		},
		{
			name:         "split shorter than twice min",
			modify:       func(c *Config) { c.MinSceneLenSec = 6; c.ExtraSplitSec = 10 },
			wantErr:      true,
			wantSentinel: ErrInvalidThresholds,
		},
		{
			name:    "disabled split is valid",
			modify:  func(c *Config) { c.MinSceneLenSec = 6; c.ExtraSplitSec = 0 },
			wantErr: false,
		},
		{
			name:         "negative frames",
			modify:       func(c *Config) { c.MinSceneLenFrames = ptr(-1) },
			wantErr:      true,
			wantSentinel: ErrInvalidThresholds,
		},
		{
			name:         "threshold zero",
			modify:       func(c *Config) { c.SceneThreshold = 0 },
			wantErr:      true,
			wantSentinel: ErrInvalidSceneThreshold,
		},
		{
			name:    "unknown source",
			modify:  func(c *Config) { c.Source = "avisynth" },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig()
			tt.modify(cfg)
			err := cfg.Validate()

			if tt.wantErr && err == nil {
				t.Fatal("expected error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if err != nil && !cerrors.IsKind(err, cerrors.KindConfig) {
				t.Errorf("expected ConfigError, got %v", err)
			}
			if tt.wantSentinel != nil && !errors.Is(err, tt.wantSentinel) {
				t.Errorf("expected errors.Is(err, %v), got %v", tt.wantSentinel, err)
			}
		})
	}
}

func TestSceneLengths(t *testing.T) {
	cfg := NewConfig()

	minLen, maxLen, err := cfg.SceneLengths(24)
	if err != nil || minLen != 24 || maxLen != 240 {
		t.Errorf("SceneLengths(24) = %d, %d, %v, want 24, 240", minLen, maxLen, err)
	}

	cfg.MinSceneLenFrames = ptr(12)
	cfg.ExtraSplitFrames = ptr(120)
	minLen, maxLen, err = cfg.SceneLengths(24)
	if err != nil || minLen != 12 || maxLen != 120 {
		t.Errorf("explicit frames = %d, %d, %v, want 12, 120", minLen, maxLen, err)
	}

	cfg.ExtraSplitFrames = ptr(20)
	if _, _, err := cfg.SceneLengths(24); !errors.Is(err, ErrInvalidThresholds) {
		t.Errorf("expected ErrInvalidThresholds, got %v", err)
	}

	ntsc := NewConfig()
	minLen, maxLen, err = ntsc.SceneLengths(24000.0 / 1001.0)
	if err != nil || minLen != 24 || maxLen != 240 {
		t.Errorf("SceneLengths(23.976) = %d, %d, %v, want 24, 240", minLen, maxLen, err)
	}
}

func TestSceneLengthsExplicitZero(t *testing.T) {
	cfg := NewConfig()
	cfg.ExtraSplitFrames = ptr(0)
	cfg.MinSceneLenFrames = ptr(0)
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	minLen, maxLen, err := cfg.SceneLengths(24)
	if err != nil || minLen != 0 || maxLen != 0 {
		t.Errorf("SceneLengths(24) = %d, %d, %v, want both steps disabled", minLen, maxLen, err)
	}
}

func ptr(v int) *int { return &v }

func TestSampleParams(t *testing.T) {
	cfg := NewConfig()
	cfg.EncoderParams = "--tune 2 --keyint -1"
	cfg.Preset = 6

	if got := cfg.SampleParams().String(); got != "--tune 2 --keyint -1 --preset 6" {
		t.Errorf("SampleParams() = %q", got)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "crfboost.toml")
	content := `
target_quality = 85.5
crf = "40..20:5"
workers = 4
filter_frames = false
source = "bestsource"
extra_split = 0
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path, true)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.TargetQuality != 85.5 || cfg.CRF != "40..20:5" || cfg.Workers != 4 {
		t.Errorf("file values not applied: %+v", cfg)
	}
	if cfg.FilterFrames {
		t.Error("filter_frames = false not applied")
	}
	if cfg.SampleFrames != DefaultSampleFrames {
		t.Errorf("unset field lost its default: n_frames=%d", cfg.SampleFrames)
	}
	if cfg.ExtraSplitFrames == nil || *cfg.ExtraSplitFrames != 0 {
		t.Errorf("extra_split = 0 not kept as an explicit value: %v", cfg.ExtraSplitFrames)
	}
	if cfg.MinSceneLenFrames != nil {
		t.Errorf("unset min_scene_len = %v, want nil", *cfg.MinSceneLenFrames)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("loaded config invalid: %v", err)
	}
}

func TestLoadMissingAndInvalid(t *testing.T) {
	dir := t.TempDir()

	if _, err := Load(filepath.Join(dir, "missing.toml"), false); err != nil {
		t.Errorf("optional missing file: %v", err)
	}
	if _, err := Load(filepath.Join(dir, "missing.toml"), true); !cerrors.IsKind(err, cerrors.KindConfig) {
		t.Errorf("required missing file: got %v, want ConfigError", err)
	}

	bad := filepath.Join(dir, "bad.toml")
	if err := os.WriteFile(bad, []byte("no_such_key = 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(bad, true); !cerrors.IsKind(err, cerrors.KindConfig) {
		t.Errorf("unknown key: got %v, want ConfigError", err)
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	got, err := ExpandPath("~/x/config.toml")
	if err != nil || got != filepath.Join(home, "x", "config.toml") {
		t.Errorf("ExpandPath() = %q, %v", got, err)
	}
}
