package commands

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/chauffeur/internal/cli/config"
	"github.com/leapstack-labs/chauffeur/internal/dispatch"
	"github.com/leapstack-labs/chauffeur/internal/expr"
	"github.com/leapstack-labs/chauffeur/internal/param"
)

// NewRenderCommand creates the render command.
func NewRenderCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Materialize directories and render files without running commands",
		Long: `Run the setup half of the pipeline for every instance: create working
directories, copy the template directory, and render every declared
file. No external command is invoked, regardless of the configured
driver type or dry-run flag.`,
		Example: `  # Render everything the run would render
  chauffeur render`,
		RunE: runRender,
	}

	return cmd
}

func runRender(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	cfg := config.FromContext(ctx)
	logger := config.GetLogger(ctx)

	instances, err := expandRunSpace(cfg)
	if err != nil {
		return err
	}
	logger.Info("rendering instances", slog.Int("instances", len(instances)))

	opts := dispatchOptions(cfg)
	opts.DriverType = dispatch.SetupDriverType
	opts.DryRun = false
	opts.Logger = logger

	d := dispatch.New(param.NewInterpolator(expr.New()), opts)
	if err := d.Run(ctx, instances); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Rendered %d instance(s)\n", len(instances))
	return nil
}
