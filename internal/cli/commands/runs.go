package commands

import (
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/chauffeur/internal/cli/config"
	"github.com/leapstack-labs/chauffeur/internal/state"
)

// NewRunsCommand creates the runs command.
func NewRunsCommand() *cobra.Command {
	var limit int
	var runID string

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Show run history from the state database",
		Example: `  # Recent runs
  chauffeur runs

  # Per-instance detail of one run
  chauffeur runs --id 4f7c...`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRuns(cmd, limit, runID)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of runs to show")
	cmd.Flags().StringVar(&runID, "id", "", "Show per-instance detail for one run")

	return cmd
}

func runRuns(cmd *cobra.Command, limit int, runID string) error {
	ctx := cmd.Context()
	cfg := config.FromContext(ctx)

	store := state.NewSQLiteStore(config.GetLogger(ctx))
	if err := store.Open(cfg.StatePath); err != nil {
		return err
	}
	defer store.Close()
	if err := store.Migrate(); err != nil {
		return err
	}

	if runID != "" {
		return showInstanceRuns(cmd, store, runID)
	}

	runs, err := store.ListRuns(limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded")
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.AppendHeader(table.Row{"ID", "Config", "Workers", "Dry run", "Status", "Started", "Duration"})
	for _, run := range runs {
		duration := ""
		if run.CompletedAt != nil {
			duration = run.CompletedAt.Sub(run.StartedAt).Round(time.Millisecond).String()
		}
		t.AppendRow(table.Row{
			run.ID, run.ConfigPath, run.Workers, run.DryRun,
			string(run.Status), run.StartedAt.Format(time.RFC3339), duration,
		})
	}
	t.Render()

	return nil
}

func showInstanceRuns(cmd *cobra.Command, store *state.SQLiteStore, runID string) error {
	run, err := store.GetRun(runID)
	if err != nil {
		return err
	}

	instanceRuns, err := store.GetInstanceRunsForRun(run.ID)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), headerStyle.Render(fmt.Sprintf("Run %s (%s)", run.ID, run.Status)))

	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.AppendHeader(table.Row{"Group", "Index", "Status", "Duration", "Working dir", "Error"})
	for _, ir := range instanceRuns {
		t.AppendRow(table.Row{
			ir.Group, ir.Index, string(ir.Status),
			(time.Duration(ir.DurationMS) * time.Millisecond).String(),
			ir.WorkDir, ir.Error,
		})
	}
	t.Render()

	return nil
}
