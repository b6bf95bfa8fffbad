// Package crfboost searches per-scene CRF values that meet a SSIMULACRA2
// quality target and writes them as an av1an zone file.
//
// Basic usage:
//
//	booster, err := crfboost.New(
//	    crfboost.WithTarget(81),
//	    crfboost.WithCRF("35,30,27,24,21"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	results, err := booster.Run(ctx, "input.mkv", nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Printf("Zones: %s (%d scenes missed the target)\n",
//	    results[0].ZoneFile, results[0].Missed)
package crfboost

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/five82/crfboost/internal/cache"
	"github.com/five82/crfboost/internal/config"
	"github.com/five82/crfboost/internal/discovery"
	cerrors "github.com/five82/crfboost/internal/errors"
	"github.com/five82/crfboost/internal/logging"
	"github.com/five82/crfboost/internal/metrics"
	"github.com/five82/crfboost/internal/processing"
	"github.com/five82/crfboost/internal/reporter"
	"github.com/five82/crfboost/internal/util"
)

// Reporter receives progress events during a run.
type Reporter = reporter.Reporter

// Config is the full run configuration.
type Config = config.Config

// Booster is the main entry point for CRF searches.
type Booster struct {
	config *config.Config
	runID  string
	log    *logging.RunLog

	// deps replaces the external tools; nil uses the configured defaults.
	deps *processing.Deps
}

// SceneResult is the decision for one scene.
type SceneResult struct {
	Scene      int
	StartFrame int
	EndFrame   int
	CRF        int
	Score      float64
	MetTarget  bool
	Failed     bool
	Error      string
}

// Result contains the outcome of one video.
type Result struct {
	Input    string
	ZoneFile string
	DataFile string
	Scenes   []SceneResult
	Met      int
	Missed   int
	Failed   int
	Duration time.Duration
}

// Option configures the booster.
type Option func(*Booster)

// New creates a Booster from the defaults and opts. The configuration is
// validated before returning.
func New(opts ...Option) (*Booster, error) {
	b := &Booster{config: config.NewConfig()}
	for _, opt := range opts {
		opt(b)
	}
	if err := b.config.Validate(); err != nil {
		return nil, err
	}
	return b, nil
}

// WithConfig replaces the whole configuration. Later options still apply.
func WithConfig(cfg *Config) Option {
	return func(b *Booster) {
		c := *cfg
		b.config = &c
	}
}

// WithTarget sets the SSIMULACRA2 quality target.
func WithTarget(score float64) Option {
	return func(b *Booster) { b.config.TargetQuality = score }
}

// WithCRF sets the CRF candidate specification, e.g. "35,30,27" or "40..20:4".
func WithCRF(spec string) Option {
	return func(b *Booster) { b.config.CRF = spec }
}

// WithAggregation sets how frame scores combine: "min", "mean" or "pN".
func WithAggregation(mode string) Option {
	return func(b *Booster) { b.config.Aggregation = mode }
}

// WithSampleFrames sets the number of frames probed per scene.
func WithSampleFrames(n int) Option {
	return func(b *Booster) { b.config.SampleFrames = n }
}

// WithDistribution sets the sample frame distribution.
func WithDistribution(name string) Option {
	return func(b *Booster) { b.config.Distribution = name }
}

// WithFilterFrames controls whether frames that already passed are skipped
// at more expensive CRFs.
func WithFilterFrames(enable bool) Option {
	return func(b *Booster) { b.config.FilterFrames = enable }
}

// WithWorkers sets the number of scenes searched in parallel.
func WithWorkers(n int) Option {
	return func(b *Booster) { b.config.Workers = n }
}

// WithSource selects the frame source backend.
func WithSource(backend string) Option {
	return func(b *Booster) { b.config.Source = backend }
}

// WithSceneFile uses a scene list instead of running scene detection.
func WithSceneFile(path string) Option {
	return func(b *Booster) { b.config.SceneFile = path }
}

// WithOutput sets the zone file directory, or the zone file itself when it
// ends in .json and the input is a single video.
func WithOutput(path string) Option {
	return func(b *Booster) { b.config.Output = path }
}

// WithCache selects the resume cache backend ("sqlite", "json" or "none")
// and its directory.
func WithCache(kind, dir string) Option {
	return func(b *Booster) {
		b.config.Cache = kind
		b.config.CacheDir = dir
	}
}

// WithForce allows existing zone files to be overwritten.
func WithForce() Option {
	return func(b *Booster) { b.config.Force = true }
}

// WithKeepTemp keeps sample encodes and extracted frames.
func WithKeepTemp() Option {
	return func(b *Booster) { b.config.KeepTemp = true }
}

// WithRunID tags events, logs and the run history with id.
func WithRunID(id string) Option {
	return func(b *Booster) { b.runID = id }
}

// WithRunLog writes progress to a per-run log file.
func WithRunLog(l *logging.RunLog) Option {
	return func(b *Booster) { b.log = l }
}

// Run searches input, a video file or a directory of videos, and writes one
// zone file per video. rep may be nil.
func (b *Booster) Run(ctx context.Context, input string, rep Reporter) ([]Result, error) {
	if rep == nil {
		rep = reporter.NullReporter{}
	}
	cfg := *b.config

	files, override, err := b.inputs(input)
	if err != nil {
		return nil, err
	}

	deps, err := b.resolveDeps(&cfg)
	if err != nil {
		return nil, err
	}

	store, err := OpenCache(ctx, &cfg)
	if err != nil {
		return nil, err
	}
	if store != nil {
		defer func() { _ = store.Close() }()
	}
	deps.Cache = store
	deps.Metrics = metrics.New()
	deps.Log = b.log
	deps.RunID = b.runID

	fileResults, err := processing.ProcessVideos(ctx, &cfg, files, override, rep, deps)

	results := make([]Result, len(fileResults))
	for i, fr := range fileResults {
		results[i] = toResult(fr)
	}
	return results, err
}

// inputs expands a directory into its videos and splits a .json output
// into the zone file override.
func (b *Booster) inputs(input string) ([]string, string, error) {
	info, err := os.Stat(input)
	if err != nil {
		return nil, "", cerrors.NewPathError("input does not exist: " + input)
	}

	override := ""
	if filepath.Ext(b.config.Output) == ".json" {
		override = b.config.Output
	}

	if !info.IsDir() {
		return []string{input}, override, nil
	}
	if override != "" {
		return nil, "", cerrors.NewConfigError("output must be a directory when the input is a directory", nil)
	}
	found, err := discovery.FindVideoFiles(input, b.log)
	if err != nil {
		return nil, "", err
	}
	return found.Files, "", nil
}

func (b *Booster) resolveDeps(cfg *config.Config) (processing.Deps, error) {
	if b.deps != nil {
		return *b.deps, nil
	}
	return processing.DefaultDeps(cfg)
}

// OpenCache opens the configured store. The default directory is the user
// cache directory.
func OpenCache(ctx context.Context, cfg *config.Config) (cache.Store, error) {
	kind, err := cache.ParseKind(cfg.Cache)
	if err != nil {
		return nil, cerrors.NewConfigError("invalid cache backend", err)
	}
	if kind == cache.KindNone {
		return nil, nil
	}
	dir, err := CacheDir(cfg)
	if err != nil {
		return nil, err
	}
	if err := util.EnsureDirectory(dir); err != nil {
		return nil, cerrors.NewIOError("failed to create cache directory", err)
	}
	return cache.Open(ctx, kind, dir)
}

// CacheDir returns the resume cache directory for cfg.
func CacheDir(cfg *Config) (string, error) {
	if cfg.CacheDir != "" {
		return config.ExpandPath(cfg.CacheDir)
	}
	base, err := os.UserCacheDir()
	if err != nil {
		return "", cerrors.NewIOError("locate user cache directory", err)
	}
	return filepath.Join(base, "crfboost"), nil
}

func toResult(fr processing.FileResult) Result {
	r := Result{
		Input:    fr.Input,
		ZoneFile: fr.OutputFile,
		DataFile: fr.DataFile,
		Scenes:   make([]SceneResult, len(fr.Decisions)),
		Duration: fr.Duration,
	}
	if fr.Stats != nil {
		r.Met, r.Missed, r.Failed = fr.Stats.Met, fr.Stats.Missed, fr.Stats.Failed
	}
	for i, d := range fr.Decisions {
		r.Scenes[i] = SceneResult{
			Scene:      i,
			StartFrame: d.Scene.StartFrame,
			EndFrame:   d.Scene.EndFrame,
			CRF:        d.CRF,
			Score:      d.Score,
			MetTarget:  d.MetTarget,
			Failed:     d.Failed,
			Error:      d.Err,
		}
	}
	return r
}
