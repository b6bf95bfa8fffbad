package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/pflag"

	"github.com/five82/crfboost/internal/config"
	cerrors "github.com/five82/crfboost/internal/errors"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"cancelled", cerrors.NewCancelledError(), 130},
		{"context", fmt.Errorf("search: %w", context.Canceled), 130},
		{"config", cerrors.NewConfigError("bad", nil), 2},
		{"io", cerrors.NewIOError("disk", nil), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := exitCode(tt.err); got != tt.want {
				t.Errorf("exitCode() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestVersionCommand(t *testing.T) {
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if got := out.String(); got != "crfboost version "+appVersion+"\n" {
		t.Errorf("output = %q", got)
	}
}

func TestConfigFlagsApplyOnlyChanged(t *testing.T) {
	d := config.NewConfig()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	f := newConfigFlags(fs)
	f.Float("target", "t", d.TargetQuality, "", func(c *config.Config) *float64 { return &c.TargetQuality })
	f.String("crf", "", d.CRF, "", func(c *config.Config) *string { return &c.CRF })
	f.NegBool("no-filter-frames", "", func(c *config.Config) *bool { return &c.FilterFrames })
	addSceneFlags(f, d)

	if err := fs.Parse([]string{"-t", "90", "--no-filter-frames", "--extra-split", "300"}); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	cfg := config.NewConfig()
	cfg.CRF = "40,30"
	cfg.SceneThreshold = 0.3
	f.Apply(cfg)

	if cfg.TargetQuality != 90 {
		t.Errorf("TargetQuality = %v, want 90", cfg.TargetQuality)
	}
	if cfg.FilterFrames {
		t.Error("FilterFrames = true, want false")
	}
	if cfg.ExtraSplitFrames == nil || *cfg.ExtraSplitFrames != 300 {
		t.Errorf("ExtraSplitFrames = %v, want 300", cfg.ExtraSplitFrames)
	}
	if cfg.MinSceneLenFrames != nil {
		t.Errorf("MinSceneLenFrames = %d, unset flag should stay nil", *cfg.MinSceneLenFrames)
	}
	if cfg.CRF != "40,30" {
		t.Errorf("CRF = %q, unset flag overwrote the loaded value", cfg.CRF)
	}
	if cfg.SceneThreshold != 0.3 {
		t.Errorf("SceneThreshold = %v, unset flag overwrote the loaded value", cfg.SceneThreshold)
	}
}

func TestExplicitZeroSceneLengthFlag(t *testing.T) {
	d := config.NewConfig()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	f := newConfigFlags(fs)
	addSceneFlags(f, d)
	if err := fs.Parse([]string{"--min-scene-len", "0"}); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	cfg := config.NewConfig()
	f.Apply(cfg)
	minLen, maxLen, err := cfg.SceneLengths(24)
	if err != nil {
		t.Fatalf("SceneLengths() error = %v", err)
	}
	if minLen != 0 || maxLen != 240 {
		t.Errorf("SceneLengths(24) = %d, %d, want merging disabled and 240", minLen, maxLen)
	}
}

func TestRunRejectsInvalidFlag(t *testing.T) {
	cmd := newRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"run", "--crf", "71", "--no-log", filepath.Join(t.TempDir(), "in.mkv")})
	err := cmd.Execute()
	if !cerrors.IsKind(err, cerrors.KindConfig) {
		t.Fatalf("Execute() error = %v, want config error", err)
	}
}

func TestRunRequiresConfigFileWhenNamed(t *testing.T) {
	cmd := newRootCommand()
	cmd.SetArgs([]string{"--config", filepath.Join(t.TempDir(), "missing.toml"), "run", "in.mkv"})
	if err := cmd.Execute(); !cerrors.IsKind(err, cerrors.KindConfig) {
		t.Fatalf("Execute() error = %v, want config error", err)
	}
}

func TestScenesRefusesOverwrite(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "in.mkv")
	output := filepath.Join(dir, "scenes.json")
	for _, p := range []string{input, output} {
		if err := os.WriteFile(p, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	cmd := newRootCommand()
	cmd.SetArgs([]string{"scenes", input, "-o", output})
	if err := cmd.Execute(); !cerrors.IsAlreadyExists(err) {
		t.Fatalf("Execute() error = %v, want already exists", err)
	}
}

func TestRenderTable(t *testing.T) {
	out := renderTable([]string{"CRF", "Entries"}, [][]string{{"30", "4"}, {"27"}}, 0, 1)
	for _, want := range []string{"CRF", "Entries", "30", "27"} {
		if !strings.Contains(out, want) {
			t.Errorf("table missing %q:\n%s", want, out)
		}
	}
	if renderTable(nil, nil) != "" {
		t.Error("renderTable with no headers should be empty")
	}
}
