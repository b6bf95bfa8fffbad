package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/five82/crfboost/internal/config"
)

// globalOptions are flags shared by every command.
type globalOptions struct {
	configPath string
	verbose    bool
}

func (g *globalOptions) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(g.configPath, g.configPath != "")
	if err != nil {
		return nil, err
	}
	if g.verbose {
		cfg.Verbose = true
	}
	return cfg, nil
}

func newRootCommand() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:           appName,
		Short:         "Per-scene CRF search for SVT-AV1 zone files",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Configuration file path (TOML)")
	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable verbose output")

	rootCmd.AddCommand(newRunCommand(opts))
	rootCmd.AddCommand(newScenesCommand(opts))
	rootCmd.AddCommand(newCacheCommand(opts))
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s version %s\n", appName, appVersion)
		},
	})

	return rootCmd
}
