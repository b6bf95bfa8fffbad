package crfboost

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/five82/crfboost/internal/crf"
	cerrors "github.com/five82/crfboost/internal/errors"
	"github.com/five82/crfboost/internal/ffprobe"
	"github.com/five82/crfboost/internal/probe"
	"github.com/five82/crfboost/internal/processing"
	"github.com/five82/crfboost/internal/zones"
)

// stubTools scores a frame by CRF only.
type stubTools struct {
	scores map[int]float64
}

func (s stubTools) DetectCuts(context.Context, string, float64) ([]int, error) {
	return []int{0, 60}, nil
}

func (s stubTools) Encode(_ context.Context, req probe.EncodeRequest) (*probe.Sample, error) {
	sample := &probe.Sample{CRF: req.CRF}
	for _, fr := range req.Frames {
		sample.Frames = append(sample.Frames, probe.Frame{Index: fr, Path: fmt.Sprint(req.CRF)})
	}
	return sample, nil
}

func (s stubTools) Score(_ context.Context, _, dist probe.Frame) (float64, error) {
	var c int
	_, err := fmt.Sscan(dist.Path, &c)
	return s.scores[c], err
}

func (s stubTools) Extract(_ context.Context, _ string, frames []int, _ string) ([]probe.Frame, error) {
	out := make([]probe.Frame, len(frames))
	for i, fr := range frames {
		out[i] = probe.Frame{Index: fr}
	}
	return out, nil
}

func withStubTools(s stubTools) Option {
	return func(b *Booster) {
		b.deps = &processing.Deps{
			Probe: func(context.Context, string) (*ffprobe.VideoInfo, error) {
				return &ffprobe.VideoInfo{Width: 1280, Height: 720, Frames: 120, FPSNum: 24, FPSDen: 1}, nil
			},
			Detector:  s,
			Encoder:   s,
			Evaluator: s,
			Extractor: s,
		}
	}
}

func writeVideo(t *testing.T, dir, name string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(name), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestNewValidates(t *testing.T) {
	tests := []struct {
		name    string
		opts    []Option
		wantErr bool
	}{
		{name: "defaults", opts: nil},
		{name: "custom search", opts: []Option{WithTarget(90), WithCRF("40..20:5"), WithAggregation("p10")}},
		{name: "bad crf", opts: []Option{WithCRF("0..99")}, wantErr: true},
		{name: "bad target", opts: []Option{WithTarget(-1)}, wantErr: true},
		{name: "bad workers", opts: []Option{WithWorkers(0)}, wantErr: true},
		{name: "bad cache", opts: []Option{WithCache("redis", "")}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.opts...)
			if (err != nil) != tt.wantErr {
				t.Fatalf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !cerrors.IsKind(err, cerrors.KindConfig) {
				t.Errorf("expected ConfigError, got %v", err)
			}
		})
	}
}

func TestNewCRFErrorIsSentinel(t *testing.T) {
	_, err := New(WithCRF("abc"))
	if err == nil || !cerrors.IsKind(err, cerrors.KindConfig) {
		t.Fatalf("New() error = %v", err)
	}
	if !errors.Is(err, crf.ErrInvalidSpec) {
		t.Errorf("expected errors.Is(err, crf.ErrInvalidSpec), got %v", err)
	}
}

func TestRunSingleFile(t *testing.T) {
	dir := t.TempDir()
	input := writeVideo(t, dir, "clip.mkv")
	zoneFile := filepath.Join(dir, "zones", "clip.json")

	b, err := New(
		WithCRF("35,28"),
		WithTarget(80),
		WithOutput(zoneFile),
		WithCache("json", filepath.Join(dir, "cache")),
		withStubTools(stubTools{scores: map[int]float64{35: 75, 28: 84}}),
	)
	if err != nil {
		t.Fatal(err)
	}

	results, err := b.Run(context.Background(), input, nil)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(results) != 1 || results[0].ZoneFile != zoneFile {
		t.Fatalf("results = %+v", results)
	}
	r := results[0]
	if r.Met != 2 || len(r.Scenes) != 2 {
		t.Errorf("met = %d, scenes = %d", r.Met, len(r.Scenes))
	}
	for _, s := range r.Scenes {
		if s.CRF != 28 || !s.MetTarget {
			t.Errorf("scene %d = %+v, want CRF 28 met", s.Scene, s)
		}
	}

	doc, err := zones.Load(zoneFile)
	if err != nil {
		t.Fatal(err)
	}
	if doc.Frames != 120 || len(doc.Scenes) != 2 {
		t.Errorf("zone document = %+v", doc)
	}
	if _, err := os.Stat(filepath.Join(dir, "cache", "metrics_28.json")); err != nil {
		t.Errorf("json cache not written: %v", err)
	}
}

func TestRunDirectory(t *testing.T) {
	dir := t.TempDir()
	writeVideo(t, dir, "a.mkv")
	writeVideo(t, dir, "b.mp4")
	writeVideo(t, dir, "notes.txt")
	out := filepath.Join(dir, "out")

	b, err := New(
		WithOutput(out),
		WithCache("none", ""),
		withStubTools(stubTools{scores: map[int]float64{35: 99}}),
	)
	if err != nil {
		t.Fatal(err)
	}

	results, err := b.Run(context.Background(), dir, nil)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	for _, name := range []string{"[BOOST]_a.json", "[BOOST]_b.json"} {
		if _, err := os.Stat(filepath.Join(out, name)); err != nil {
			t.Errorf("missing %s: %v", name, err)
		}
	}
}

func TestRunRejectsJSONOutputForDirectory(t *testing.T) {
	dir := t.TempDir()
	writeVideo(t, dir, "a.mkv")

	b, err := New(WithOutput(filepath.Join(dir, "zones.json")), WithCache("none", ""), withStubTools(stubTools{}))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := b.Run(context.Background(), dir, nil); !cerrors.IsKind(err, cerrors.KindConfig) {
		t.Errorf("Run() error = %v, want ConfigError", err)
	}
}

func TestRunMissingInput(t *testing.T) {
	b, err := New(WithCache("none", ""), withStubTools(stubTools{}))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := b.Run(context.Background(), filepath.Join(t.TempDir(), "nope.mkv"), nil); !cerrors.IsKind(err, cerrors.KindPath) {
		t.Errorf("Run() error = %v, want path error", err)
	}
}
