package main

import (
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/five82/crfboost"
	"github.com/five82/crfboost/internal/cache"
)

func newCacheCommand(opts *globalOptions) *cobra.Command {
	var cacheDir, backend string

	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or clear the resume cache",
	}
	cmd.PersistentFlags().StringVar(&cacheDir, "cache-dir", "", "Resume cache directory")
	cmd.PersistentFlags().StringVar(&backend, "cache", "", "Cache backend: sqlite, json")

	open := func(cmd *cobra.Command) (cache.Store, string, error) {
		cfg, err := opts.loadConfig()
		if err != nil {
			return nil, "", err
		}
		if cacheDir != "" {
			cfg.CacheDir = cacheDir
		}
		if backend != "" {
			cfg.Cache = backend
		}
		dir, err := crfboost.CacheDir(cfg)
		if err != nil {
			return nil, "", err
		}
		store, err := crfboost.OpenCache(cmd.Context(), cfg)
		if err != nil {
			return nil, "", err
		}
		if store == nil {
			return nil, "", fmt.Errorf("cache backend %q has no stored entries", cfg.Cache)
		}
		return store, dir, nil
	}

	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "Show cached trial counts per CRF",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, dir, err := open(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			stats, err := store.Stats(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Cache: %s\n", dir)
			if len(stats) == 0 {
				fmt.Fprintln(out, "No cached trials.")
				return nil
			}
			rows := make([][]string, 0, len(stats))
			var entries, frames int
			for _, s := range stats {
				rows = append(rows, []string{strconv.Itoa(s.CRF), strconv.Itoa(s.Entries), strconv.Itoa(s.Frames)})
				entries += s.Entries
				frames += s.Frames
			}
			rows = append(rows, []string{"total", strconv.Itoa(entries), strconv.Itoa(frames)})
			fmt.Fprintln(out, renderTable([]string{"CRF", "Entries", "Frames"}, rows, 0, 1, 2))
			return nil
		},
	}

	var limit int
	runsCmd := &cobra.Command{
		Use:   "runs",
		Short: "List recorded runs (sqlite backend)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, _, err := open(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			db, ok := store.(*cache.SQLiteStore)
			if !ok {
				return fmt.Errorf("run history requires the sqlite cache backend")
			}
			runs, err := db.Runs(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No recorded runs.")
				return nil
			}
			rows := make([][]string, 0, len(runs))
			for _, r := range runs {
				rows = append(rows, []string{
					r.StartedAt.Local().Format(time.DateTime),
					filepath.Base(r.Video),
					strconv.Itoa(r.Scenes),
					strconv.Itoa(r.Failed),
					runDuration(r),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Started", "Video", "Scenes", "Failed", "Duration"}, rows, 2, 3))
			return nil
		},
	}
	runsCmd.Flags().IntVar(&limit, "limit", 20, "Maximum runs to list")

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete all cached trials",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, dir, err := open(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := store.Clear(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Cleared cache in %s\n", dir)
			return nil
		},
	}

	cmd.AddCommand(statsCmd, runsCmd, clearCmd)
	return cmd
}

func runDuration(r cache.Run) string {
	if r.FinishedAt.IsZero() {
		return "unfinished"
	}
	return r.FinishedAt.Sub(r.StartedAt).Round(time.Second).String()
}
