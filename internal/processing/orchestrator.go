// Package processing runs the per-video pipeline: probe, scenes, search,
// zone file and reports.
package processing

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/five82/crfboost/internal/cache"
	"github.com/five82/crfboost/internal/config"
	"github.com/five82/crfboost/internal/crf"
	cerrors "github.com/five82/crfboost/internal/errors"
	"github.com/five82/crfboost/internal/logging"
	"github.com/five82/crfboost/internal/report"
	"github.com/five82/crfboost/internal/reporter"
	"github.com/five82/crfboost/internal/sampler"
	"github.com/five82/crfboost/internal/tq"
	"github.com/five82/crfboost/internal/util"
	"github.com/five82/crfboost/internal/zones"
)

// FileResult contains the outcome of one video.
type FileResult struct {
	Input        string
	OutputFile   string
	DataFile     string
	Duration     time.Duration
	Decisions    []tq.Decision
	Stats        *tq.RunStats
	Distribution []report.Share
	Scores       report.ScoreStats
}

// runRecorder is implemented by stores that keep a run history.
type runRecorder interface {
	RecordRun(ctx context.Context, run cache.Run) error
}

// ProcessVideos searches every file in turn. Per-file failures are reported
// and the batch continues; configuration errors and cancellation stop it.
// outputOverride names the zone file and applies only to a single input.
func ProcessVideos(
	ctx context.Context,
	cfg *config.Config,
	filesToProcess []string,
	outputOverride string,
	rep reporter.Reporter,
	deps Deps,
) ([]FileResult, error) {
	if rep == nil {
		rep = reporter.NullReporter{}
	}
	if deps.Probe == nil {
		deps.Probe = probeVideo
	}

	sysInfo := util.GetSystemInfo()
	rep.Hardware(reporter.HardwareSummary{
		Hostname:      sysInfo.Hostname,
		LogicalCores:  sysInfo.LogicalCores,
		PhysicalCores: sysInfo.PhysicalCores,
	})

	batch := len(filesToProcess) > 1
	if batch {
		names := make([]string, len(filesToProcess))
		for i, f := range filesToProcess {
			names[i] = filepath.Base(f)
		}
		rep.BatchStarted(reporter.BatchStartInfo{
			TotalFiles: len(filesToProcess),
			FileList:   names,
			OutputDir:  outputDir(cfg),
		})
	}

	batchStart := time.Now()
	var results []FileResult
	var fileResults []reporter.FileResult
	var fatal error

	for fileIdx, inputPath := range filesToProcess {
		if ctx.Err() != nil {
			fatal = cerrors.NewCancelledError()
			break
		}
		if batch {
			rep.FileProgress(reporter.FileProgressContext{
				CurrentFile: fileIdx + 1,
				TotalFiles:  len(filesToProcess),
			})
		}

		override := ""
		if !batch {
			override = outputOverride
		}
		result, err := processFile(ctx, cfg, inputPath, override, batch, rep, deps)
		if err != nil {
			deps.Log.Error("%s: %v", inputPath, err)
			fileResults = append(fileResults, reporter.FileResult{Filename: filepath.Base(inputPath), Err: err.Error()})
			if cerrors.IsCancelled(err) || cerrors.IsKind(err, cerrors.KindConfig) || !batch {
				fatal = err
				break
			}
			rep.Error(fileError(inputPath, err))
			continue
		}

		results = append(results, *result)
		fileResults = append(fileResults, reporter.FileResult{
			Filename: filepath.Base(inputPath),
			Scenes:   result.Stats.Scenes,
			Missed:   result.Stats.Missed,
			Failed:   result.Stats.Failed,
		})
	}

	deps.Metrics.RunComplete(time.Now())
	if cfg.MetricsFile != "" {
		if err := deps.Metrics.WriteTextfile(cfg.MetricsFile); err != nil {
			rep.Warning(fmt.Sprintf("Could not write metrics file %s: %v", cfg.MetricsFile, err))
		}
	}

	if batch {
		rep.BatchComplete(reporter.BatchSummary{
			SuccessfulCount: len(results),
			TotalFiles:      len(filesToProcess),
			TotalDuration:   time.Since(batchStart),
			FileResults:     fileResults,
		})
	} else if len(results) == 1 {
		rep.OperationComplete(fmt.Sprintf("Wrote %s", filepath.Base(results[0].OutputFile)))
	}

	return results, fatal
}

func processFile(
	ctx context.Context,
	cfg *config.Config,
	inputPath, override string,
	batch bool,
	rep reporter.Reporter,
	deps Deps,
) (*FileResult, error) {
	start := time.Now()

	space, agg, dist, err := searchSettings(cfg)
	if err != nil {
		return nil, err
	}

	outputPath := util.ResolveOutputPath(inputPath, cfg.Output, override)
	if !cfg.Force && util.FileExists(outputPath) {
		return nil, cerrors.NewAlreadyExistsError(outputPath)
	}
	if err := util.EnsureDirectory(filepath.Dir(outputPath)); err != nil {
		return nil, cerrors.NewIOError("failed to create output directory", err)
	}
	if err := util.EnsureDirectoryWritable(filepath.Dir(outputPath)); err != nil {
		return nil, cerrors.NewIOError("output directory is not writable", err)
	}

	tempDir := util.ResolveTempDir(inputPath, cfg.TempDir)
	if err := util.EnsureDirectory(tempDir); err != nil {
		return nil, cerrors.NewIOError("failed to create temp directory", err)
	}
	if !cfg.KeepTemp {
		defer func() { _ = os.RemoveAll(tempDir) }()
	}
	util.CheckDiskSpace(tempDir, func(format string, args ...any) {
		rep.Warning(fmt.Sprintf(format, args...))
	})

	rep.StageProgress(reporter.StageProgress{Stage: "analysis", Message: "Probing source video"})
	info, err := deps.Probe(ctx, inputPath)
	if err != nil {
		return nil, err
	}

	rep.Initialization(reporter.InitializationSummary{
		RunID:        deps.RunID,
		InputFile:    filepath.Base(inputPath),
		OutputFile:   filepath.Base(outputPath),
		Frames:       info.Frames,
		FPS:          info.FPS(),
		Duration:     util.FormatDuration(info.DurationSecs),
		Resolution:   fmt.Sprintf("%dx%d", info.Width, info.Height),
		DynamicRange: dynamicRange(info.IsHDR),
	})

	det := deps.Detector
	if det == nil {
		det = DetectorFor(cfg, tempDir)
	}
	if cfg.SceneFile == "" {
		rep.StageProgress(reporter.StageProgress{Stage: "scenes", Message: "Detecting scene cuts"})
	}
	set, err := PrepareScenes(ctx, cfg, inputPath, info, det)
	if err != nil {
		if ctx.Err() != nil {
			return nil, cerrors.NewCancelledError()
		}
		return nil, err
	}
	rep.ScenesReady(set.Summary(cfg.SceneFile))
	deps.Log.Info("%s: %d scenes from %d raw cuts", filepath.Base(inputPath), len(set.Scenes), set.RawCuts)

	jobs := make([]tq.SceneJob, len(set.Scenes))
	for i, s := range set.Scenes {
		jobs[i] = tq.SceneJob{Scene: s, Frames: sampler.Sample(s, cfg.SampleFrames, dist)}
	}

	var fingerprint string
	if deps.Cache != nil {
		if fingerprint, err = cache.Fingerprint(inputPath); err != nil {
			return nil, cerrors.NewIOError("fingerprint source video", err)
		}
	}

	params := cfg.SampleParams()
	rep.SearchConfig(reporter.SearchConfigSummary{
		Target:        cfg.TargetQuality,
		CRFs:          space.String(),
		Aggregation:   agg.String(),
		SampleFrames:  cfg.SampleFrames,
		Distribution:  dist.String(),
		FilterFrames:  cfg.FilterFrames,
		Workers:       cfg.Workers,
		Source:        cfg.Source,
		EncoderParams: params.String(),
		Cache:         cacheLabel(cfg, deps.Cache),
	})

	sched := tq.NewScheduler(tq.Config{
		Space:            space,
		Target:           cfg.TargetQuality,
		Aggregation:      agg,
		FilterFrames:     cfg.FilterFrames,
		Workers:          cfg.Workers,
		EvaluatorWorkers: cfg.EvaluatorWorkers,
		Video:            inputPath,
		Fingerprint:      fingerprint,
		Params:           params,
		TempDir:          tempDir,
		KeepTemp:         cfg.KeepTemp,
	}, deps.Encoder, deps.Evaluator, deps.Extractor,
		tq.WithCache(deps.Cache),
		tq.WithReporter(rep),
		tq.WithMetrics(deps.Metrics),
		tq.WithLogger(logging.NewComponentLogger("tq").WithFile(filepath.Base(inputPath))),
	)

	result, err := sched.Run(ctx, jobs)
	if err != nil {
		return nil, err
	}

	rep.StageProgress(reporter.StageProgress{Stage: "output", Message: "Writing zone file"})
	assignments := make([]zones.Assignment, len(result.Decisions))
	for i, d := range result.Decisions {
		assignments[i] = zones.Assignment{Scene: d.Scene, CRF: d.CRF}
	}
	doc, err := zones.Build(assignments, zones.NewTemplate(cfg.OrchestratorParams, cfg.ZoneEncoderParams()), set.Frames)
	if err != nil {
		return nil, err
	}
	if err := (zones.Writer{Force: cfg.Force}).Write(outputPath, doc); err != nil {
		return nil, err
	}

	rows := report.RowsFromDecisions(result.Decisions)
	shares := report.Distribution(rows)
	scores := report.ComputeScoreStats(report.SceneScores(rows))

	dataFile := crfDataPath(cfg, outputPath, batch)
	if dataFile != "" {
		if err := report.WriteCRFDataFile(dataFile, inputPath, rows); err != nil {
			rep.Warning(fmt.Sprintf("Could not write CRF data file %s: %v", dataFile, err))
			dataFile = ""
		}
	}

	tq.OutputRunStats(result.Stats, rep, cfg.TargetQuality)
	rep.Verbose("Scene scores: " + scores.String())

	outcome := reporter.SearchOutcome{
		InputFile:    filepath.Base(inputPath),
		OutputFile:   outputPath,
		DataFile:     dataFile,
		Target:       cfg.TargetQuality,
		Scenes:       make([]reporter.SceneOutcome, len(result.Decisions)),
		Met:          result.Stats.Met,
		Missed:       result.Stats.Missed,
		Failed:       result.Stats.Failed,
		TrialsRun:    result.Stats.TrialsTotal - result.Stats.TrialsCached,
		TrialsCached: result.Stats.TrialsCached,
		MeanScore:    scores.Mean,
		TotalTime:    time.Since(start),
	}
	for i, d := range result.Decisions {
		outcome.Scenes[i] = tq.Outcome(d)
	}
	for _, s := range shares {
		outcome.Distribution = append(outcome.Distribution, reporter.CRFShare{CRF: s.CRF, Percent: s.Percent})
	}
	rep.SearchComplete(outcome)

	if rr, ok := deps.Cache.(runRecorder); ok && deps.RunID != "" {
		run := cache.Run{
			ID:          deps.RunID + ":" + util.GetFileStem(inputPath),
			Video:       inputPath,
			Fingerprint: fingerprint,
			StartedAt:   start,
			FinishedAt:  time.Now(),
			Scenes:      result.Stats.Scenes,
			Failed:      result.Stats.Failed,
		}
		if err := rr.RecordRun(ctx, run); err != nil {
			deps.Log.Warn("record run: %v", err)
		}
	}

	deps.Log.Info("%s: %d scenes, %d met, %d missed, %d failed in %s",
		filepath.Base(inputPath), result.Stats.Scenes, result.Stats.Met, result.Stats.Missed,
		result.Stats.Failed, util.FormatElapsed(outcome.TotalTime))

	return &FileResult{
		Input:        inputPath,
		OutputFile:   outputPath,
		DataFile:     dataFile,
		Duration:     outcome.TotalTime,
		Decisions:    result.Decisions,
		Stats:        result.Stats,
		Distribution: shares,
		Scores:       scores,
	}, nil
}

// searchSettings parses the search options of cfg.
func searchSettings(cfg *config.Config) (crf.Space, tq.Aggregation, sampler.Distribution, error) {
	space, err := crf.Parse(cfg.CRF)
	if err != nil {
		return crf.Space{}, tq.Aggregation{}, "", cerrors.NewConfigError("invalid CRF specification", err)
	}
	agg, err := tq.ParseAggregation(cfg.Aggregation)
	if err != nil {
		return crf.Space{}, tq.Aggregation{}, "", cerrors.NewConfigError("invalid aggregation", err)
	}
	dist, err := sampler.ParseDistribution(cfg.Distribution)
	if err != nil {
		return crf.Space{}, tq.Aggregation{}, "", cerrors.NewConfigError("invalid distribution", err)
	}
	return space, agg, dist, nil
}

// crfDataPath returns where the CRF data file goes. In batch mode a
// configured file becomes one file per video next to its zone file.
func crfDataPath(cfg *config.Config, outputPath string, batch bool) string {
	if cfg.CRFDataFile == "" {
		return ""
	}
	if !batch {
		return cfg.CRFDataFile
	}
	return strings.TrimSuffix(outputPath, filepath.Ext(outputPath)) + "_crf_data.txt"
}

func outputDir(cfg *config.Config) string {
	if cfg.Output == "" {
		return "(next to input)"
	}
	return cfg.Output
}

func cacheLabel(cfg *config.Config, store cache.Store) string {
	if store == nil {
		return "disabled"
	}
	if cfg.CacheDir != "" {
		return fmt.Sprintf("%s (%s)", cfg.Cache, cfg.CacheDir)
	}
	return cfg.Cache
}

func dynamicRange(isHDR bool) string {
	if isHDR {
		return "HDR"
	}
	return "SDR"
}

// fileError describes a per-file failure for reporters.
func fileError(inputPath string, err error) reporter.ReporterError {
	re := reporter.ReporterError{
		Title:   "Search Error",
		Message: err.Error(),
		Context: fmt.Sprintf("File: %s", inputPath),
	}
	var ce *cerrors.CoreError
	if errors.As(err, &ce) {
		switch ce.Kind {
		case cerrors.KindAlreadyExists:
			re.Title = "Output Exists"
			re.Suggestion = "Use --force to overwrite the zone file"
		case cerrors.KindCommand:
			re.Title = "Tool Error"
			re.Suggestion = "Check that ffmpeg, SvtAv1EncApp and ssimulacra2 are installed"
		case cerrors.KindJSONParse:
			re.Suggestion = "Check the scene file format"
		}
	}
	return re
}
