package commands

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/chauffeur/internal/cli/config"
	"github.com/leapstack-labs/chauffeur/internal/dispatch"
	"github.com/leapstack-labs/chauffeur/internal/expr"
	"github.com/leapstack-labs/chauffeur/internal/fsutil"
	"github.com/leapstack-labs/chauffeur/internal/param"
	"github.com/leapstack-labs/chauffeur/internal/state"
	"github.com/leapstack-labs/chauffeur/pkg/core"
)

// RunOptions holds options for the run command.
type RunOptions struct {
	KeepGoing bool
}

// NewRunCommand creates the run command.
func NewRunCommand() *cobra.Command {
	opts := &RunOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Expand the run space and dispatch every instance",
		Long: `Expand the declared run groups into concrete instances and drive each
one through the worker pool: materialize its working directory, render
its files, and invoke the configured commands in order.

The first failing instance aborts the run unless --keep-going is set,
in which case failures are recorded per instance and siblings continue.`,
		Example: `  # Execute the sweep declared in input.yaml
  chauffeur run

  # Resolve paths and log actions without touching the filesystem
  chauffeur run --dry-run

  # Record failures per instance instead of aborting
  chauffeur run --keep-going`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRun(cmd, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.KeepGoing, "keep-going", false, "Record instance failures without aborting sibling instances")

	return cmd
}

func runRun(cmd *cobra.Command, opts *RunOptions) error {
	ctx := cmd.Context()
	cfg := config.FromContext(ctx)
	logger := config.GetLogger(ctx)

	instances, err := expandRunSpace(cfg)
	if err != nil {
		return err
	}
	logger.Info("expanded run space",
		slog.Int("groups", len(cfg.Runs)),
		slog.Int("instances", len(instances)))

	store := state.NewSQLiteStore(logger)
	if err := store.Open(cfg.StatePath); err != nil {
		return err
	}
	defer store.Close()
	if err := store.Migrate(); err != nil {
		return err
	}

	run, err := store.CreateRun(cfg.Path, cfg.Driver.Workers, cfg.Driver.DryRun)
	if err != nil {
		return err
	}

	dispatchOpts := dispatchOptions(cfg)
	dispatchOpts.KeepGoing = opts.KeepGoing
	dispatchOpts.Store = store
	dispatchOpts.RunID = run.ID
	dispatchOpts.Logger = logger

	interp := param.NewInterpolator(expr.New())
	d := dispatch.New(interp, dispatchOpts)

	started := time.Now()
	runErr := d.Run(ctx, instances)

	if runErr != nil {
		_ = store.CompleteRun(run.ID, core.RunStatusFailed, runErr.Error())
		logger.Error("run failed", slog.String("run_id", run.ID), slog.String("error", runErr.Error()))
		return runErr
	}

	if err := writeBatchScript(cfg, interp, d); err != nil {
		_ = store.CompleteRun(run.ID, core.RunStatusFailed, err.Error())
		return err
	}

	if err := store.CompleteRun(run.ID, core.RunStatusCompleted, ""); err != nil {
		return err
	}

	logger.Info("run completed",
		slog.String("run_id", run.ID),
		slog.Int("instances", len(instances)),
		slog.Duration("elapsed", time.Since(started).Round(time.Millisecond)))
	fmt.Fprintf(cmd.OutOrStdout(), "Run %s: %d instance(s) completed\n", run.ID, len(instances))

	return nil
}

// writeBatchScript aggregates the batch-tagged outputs into one
// submission script, when any were recorded.
func writeBatchScript(cfg *config.Config, interp *param.Interpolator, d *dispatch.Dispatcher) error {
	outputs := d.BatchOutputs()
	if len(outputs) == 0 {
		return nil
	}

	scriptPath, err := interp.Render(cfg.Driver.BatchScript, baseChain(cfg), nil)
	if err != nil {
		return fmt.Errorf("batch script path: %w", err)
	}
	scriptPath, err = fsutil.ResolveAbs(scriptPath)
	if err != nil {
		return err
	}

	return dispatch.WriteBatchScript(scriptPath, cfg.Driver.BatchCommand, outputs)
}
