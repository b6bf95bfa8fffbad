package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/five82/crfboost/internal/config"
	cerrors "github.com/five82/crfboost/internal/errors"
	"github.com/five82/crfboost/internal/ffprobe"
	"github.com/five82/crfboost/internal/processing"
	"github.com/five82/crfboost/internal/scene"
	"github.com/five82/crfboost/internal/util"
)

func newScenesCommand(opts *globalOptions) *cobra.Command {
	var output string
	var force bool
	d := config.NewConfig()

	cmd := &cobra.Command{
		Use:   "scenes INPUT",
		Short: "Detect and normalize scenes and write them as a scene list",
		Long: "Detect scene cuts, apply the minimum and maximum scene lengths and write\n" +
			"the result as a scene list that run --scene-file accepts.",
		Args: cobra.ExactArgs(1),
	}

	f := newConfigFlags(cmd.Flags())
	addSceneFlags(f, d)
	cmd.Flags().StringVarP(&output, "output", "o", "", "Scene list path (default: <input stem>_scenes.json next to the input)")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing scene list")

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
		if !util.FileExists(input) {
			return cerrors.NewPathError("input file does not exist: " + input)
		}
		if output == "" {
			output = filepath.Join(filepath.Dir(input), util.GetFileStem(input)+"_scenes.json")
		}
		if util.FileExists(output) && !force {
			return cerrors.NewAlreadyExistsError(output)
		}

		ctx := cmd.Context()
		info, err := ffprobe.Probe(ctx, input, true)
		if err != nil {
			return err
		}
		set, err := processing.PrepareScenes(ctx, cfg, input, info, processing.DetectorFor(cfg, filepath.Dir(output)))
		if err != nil {
			return err
		}

		data, err := scene.NewList(set.Scenes, set.Frames).Marshal()
		if err != nil {
			return err
		}
		if err := util.WriteFileAtomic(output, data, 0o644); err != nil {
			return cerrors.NewIOError("failed to write scene list", err)
		}

		summary := set.Summary(output)
		fmt.Fprintf(cmd.OutOrStdout(), "%d cuts from %s -> %d scenes (%d-%d frames)\n",
			summary.RawCuts, summary.Source, summary.Scenes, summary.ShortestLen, summary.LongestLen)
		fmt.Fprintf(cmd.OutOrStdout(), "Saved to %s\n", output)
		return nil
	}

	return cmd
}
