package processing

import (
	"context"
	"os/exec"

	"github.com/five82/crfboost/internal/cache"
	"github.com/five82/crfboost/internal/config"
	cerrors "github.com/five82/crfboost/internal/errors"
	"github.com/five82/crfboost/internal/ffmpeg"
	"github.com/five82/crfboost/internal/ffprobe"
	"github.com/five82/crfboost/internal/logging"
	"github.com/five82/crfboost/internal/metrics"
	"github.com/five82/crfboost/internal/probe"
	"github.com/five82/crfboost/internal/scene"
)

// Prober returns the facts of a source video.
type Prober func(ctx context.Context, path string) (*ffprobe.VideoInfo, error)

// Deps are the collaborators a run uses. Zero values fall back to the
// configured defaults where noted.
type Deps struct {
	Probe     Prober         // nil uses ffprobe with packet counting
	Detector  scene.Detector // nil builds one from the configuration
	Encoder   probe.Encoder
	Evaluator probe.Evaluator
	Extractor probe.FrameExtractor
	Cache     cache.Store // nil disables the resume cache
	Metrics   *metrics.Recorder
	Log       *logging.RunLog
	RunID     string
}

// DefaultDeps wires the external tools selected by cfg. It fails when a
// required executable is missing from PATH.
func DefaultDeps(cfg *config.Config) (Deps, error) {
	backend, err := probe.ParseBackend(cfg.Source)
	if err != nil {
		return Deps{}, cerrors.NewConfigError("invalid source backend", err)
	}
	src, err := probe.NewSource(backend, cfg.CacheDir)
	if err != nil {
		return Deps{}, cerrors.NewConfigError("invalid source backend", err)
	}

	tools := append([]string{"ffprobe", "ffmpeg"}, src.Capabilities().Tools()...)
	for _, tool := range tools {
		if !ffmpeg.IsAvailable(tool) {
			return Deps{}, cerrors.NewCommandStartError(tool, exec.ErrNotFound)
		}
	}
	if !probe.IsSvtAvailable() {
		return Deps{}, cerrors.NewCommandStartError("SvtAv1EncApp", exec.ErrNotFound)
	}
	if !probe.IsSsimulacra2Available() {
		return Deps{}, cerrors.NewCommandStartError("ssimulacra2", exec.ErrNotFound)
	}

	return Deps{
		Probe:     probeVideo,
		Encoder:   probe.SvtEncoder{Source: src},
		Evaluator: probe.Ssimulacra2Evaluator{},
		Extractor: probe.Extractor{Source: src},
	}, nil
}

func probeVideo(ctx context.Context, path string) (*ffprobe.VideoInfo, error) {
	return ffprobe.Probe(ctx, path, true)
}

// DetectorFor returns the raw cut detector configured by cfg. workDir holds
// files written by external helpers.
func DetectorFor(cfg *config.Config, workDir string) scene.Detector {
	switch cfg.SceneDetector {
	case "", "ffmpeg":
		return scene.FFmpegDetector{Threshold: cfg.SceneThreshold}
	default:
		return scene.ExternalDetector{Binary: cfg.SceneDetector, WorkDir: workDir}
	}
}
