package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/five82/crfboost"
	"github.com/five82/crfboost/internal/config"
	"github.com/five82/crfboost/internal/logging"
	"github.com/five82/crfboost/internal/probe"
	"github.com/five82/crfboost/internal/reporter"
	"github.com/five82/crfboost/internal/sampler"
)

func newRunCommand(opts *globalOptions) *cobra.Command {
	var jsonOutput bool
	d := config.NewConfig()

	cmd := &cobra.Command{
		Use:   "run INPUT",
		Short: "Search CRFs for a video file or a directory of videos",
		Args:  cobra.ExactArgs(1),
	}

	f := newConfigFlags(cmd.Flags())
	f.String("output", "o", "", "Zone file directory, or zone file path for a single input",
		func(c *config.Config) *string { return &c.Output })
	f.Float("target", "t", d.TargetQuality, "Target SSIMULACRA2 score",
		func(c *config.Config) *float64 { return &c.TargetQuality })
	f.String("crf", "", d.CRF, `CRF candidates, e.g. "35,30,27" or "40..20:4"`,
		func(c *config.Config) *string { return &c.CRF })
	f.String("aggregation", "", d.Aggregation, `Frame score aggregation: "min", "mean" or "pN"`,
		func(c *config.Config) *string { return &c.Aggregation })
	f.Int("n-frames", "n", d.SampleFrames, "Frames sampled per scene",
		func(c *config.Config) *int { return &c.SampleFrames })
	f.String("distribution", "", d.Distribution, "Sample distribution: "+joinNames(sampler.Distributions()),
		func(c *config.Config) *string { return &c.Distribution })
	f.NegBool("no-filter-frames", "Re-encode frames that already passed at cheaper CRFs",
		func(c *config.Config) *bool { return &c.FilterFrames })
	f.Int("workers", "w", d.Workers, "Scenes searched in parallel",
		func(c *config.Config) *int { return &c.Workers })
	f.Int("evaluator-workers", "", 0, "Concurrent SSIMULACRA2 evaluations (default: workers)",
		func(c *config.Config) *int { return &c.EvaluatorWorkers })
	f.Int("preset", "p", d.Preset, "SVT-AV1 preset for sample encodes (-1 to 13)",
		func(c *config.Config) *int { return &c.Preset })
	f.String("encoder-params", "", d.EncoderParams, "SVT-AV1 parameter template",
		func(c *config.Config) *string { return &c.EncoderParams })
	f.String("av1an-params", "", d.OrchestratorParams, "av1an options the zone file is written for",
		func(c *config.Config) *string { return &c.OrchestratorParams })
	f.String("source", "", d.Source, "Frame source: "+joinNames(probe.Backends()),
		func(c *config.Config) *string { return &c.Source })
	f.String("cache", "", d.Cache, "Resume cache: sqlite, json, none",
		func(c *config.Config) *string { return &c.Cache })
	f.String("cache-dir", "", "", "Resume cache directory",
		func(c *config.Config) *string { return &c.CacheDir })
	f.String("temp-dir", "", "", "Working directory for samples (default: next to input)",
		func(c *config.Config) *string { return &c.TempDir })
	f.String("log-dir", "l", "", "Log directory",
		func(c *config.Config) *string { return &c.LogDir })
	f.String("crf-data-file", "", "", "Write per-scene CRF data to this file",
		func(c *config.Config) *string { return &c.CRFDataFile })
	f.String("metrics-file", "", "", "Write Prometheus metrics to this textfile",
		func(c *config.Config) *string { return &c.MetricsFile })
	addSceneFlags(f, d)
	f.Bool("force", "f", false, "Overwrite existing zone files",
		func(c *config.Config) *bool { return &c.Force })
	f.Bool("keep-temp", "", false, "Keep sample encodes and extracted frames",
		func(c *config.Config) *bool { return &c.KeepTemp })
	f.Bool("no-log", "", false, "Disable the run log file",
		func(c *config.Config) *bool { return &c.NoLog })
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit NDJSON progress events on stdout")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		cfg, err := opts.loadConfig()
		if err != nil {
			return err
		}
		f.Apply(cfg)
		if err := cfg.Validate(); err != nil {
			return err
		}

		input, err := filepath.Abs(args[0])
		if err != nil {
			return fmt.Errorf("invalid input path: %w", err)
		}

		runID := uuid.NewString()
		var logDir string
		if !cfg.NoLog {
			if logDir, err = resolveLogDir(cfg); err != nil {
				return err
			}
		}
		runLog, err := logging.Setup(logDir, runID, cfg.Verbose, cfg.NoLog)
		if err != nil {
			return err
		}
		defer func() { _ = runLog.Close() }()

		level := slog.LevelInfo
		if cfg.Verbose {
			level = slog.LevelDebug
		}
		logging.Init(level, runLog.Writer())
		logging.Info("run started", logging.RunID(runID), logging.File(input))

		var rep reporter.Reporter
		if jsonOutput || !(isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())) {
			rep = reporter.NewJSONReporter(runID)
		} else {
			rep = reporter.NewTerminalReporter(cfg.Verbose)
		}
		if runLog != nil {
			rep = reporter.NewCompositeReporter(rep, newLogReporter(runLog))
		}

		booster, err := crfboost.New(
			crfboost.WithConfig(cfg),
			crfboost.WithRunID(runID),
			crfboost.WithRunLog(runLog),
		)
		if err != nil {
			return err
		}

		_, err = booster.Run(cmd.Context(), input, rep)
		if err != nil {
			logging.Error("run failed", logging.Err(err))
		}
		return err
	}

	return cmd
}

func joinNames[T ~string](names []T) string {
	parts := make([]string, len(names))
	for i, n := range names {
		parts[i] = string(n)
	}
	return strings.Join(parts, ", ")
}

// resolveLogDir returns the configured log directory, or "logs" under the
// cache directory.
func resolveLogDir(cfg *config.Config) (string, error) {
	if cfg.LogDir != "" {
		return config.ExpandPath(cfg.LogDir)
	}
	dir, err := crfboost.CacheDir(cfg)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "logs"), nil
}
