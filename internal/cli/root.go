// Package cli provides the command-line interface for chauffeur.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/chauffeur/internal/cli/commands"
	"github.com/leapstack-labs/chauffeur/internal/cli/config"
)

// Version information (set at build time).
var (
	Version = "0.1.0"
)

var (
	inputFile string
	verbose   bool
)

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "chauffeur",
		Short: "chauffeur - parameter sweep orchestrator",
		Long: `chauffeur expands a declared parameter space into concrete run
instances and drives each one through a bounded worker pool: working
directories are materialized, templated files are rendered by
resolving layered parameter references, and external commands run in
a fixed per-instance order.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" || cmd.Name() == "version" {
				return nil
			}

			level := slog.LevelInfo
			if verbose {
				level = slog.LevelDebug
			}
			logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))

			cfg, err := config.Load(inputFile, cmd.Root().PersistentFlags())
			if err != nil {
				return err
			}

			ctx := config.WithConfig(cmd.Context(), cfg)
			ctx = config.WithLogger(ctx, logger)
			cmd.SetContext(ctx)

			if cfg.Verbose {
				fmt.Fprintf(os.Stderr, "Using config file: %s\n", cfg.Path)
			}

			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&inputFile, "input", "i", "", "input YAML file (default: ./input.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().Bool("dry-run", false, "Resolve paths and log actions without filesystem writes or subprocesses")
	rootCmd.PersistentFlags().Int("workers", 0, "Number of pool workers (overrides the driver section)")
	rootCmd.PersistentFlags().String("state", "", "Path to the run-history database")

	rootCmd.AddCommand(commands.NewRunCommand())
	rootCmd.AddCommand(commands.NewExpandCommand())
	rootCmd.AddCommand(commands.NewRenderCommand())
	rootCmd.AddCommand(commands.NewRunsCommand())
	rootCmd.AddCommand(commands.NewConfigCommand())
	rootCmd.AddCommand(commands.NewVersionCommand(Version))

	return rootCmd
}

// Execute runs the root command. The first error encountered
// terminates the process with a non-zero status.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
