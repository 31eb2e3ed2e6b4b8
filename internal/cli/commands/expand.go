package commands

import (
	"encoding/json"
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/chauffeur/internal/cli/config"
)

var headerStyle = lipgloss.NewStyle().Bold(true)

// NewExpandCommand creates the expand command.
func NewExpandCommand() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "expand",
		Short: "Print the expanded run space without executing",
		Long: `Expand every run group into its concrete instances and print them in
enumeration order: the first variable in each group's order changes
fastest, and groups are concatenated in lexicographic name order.`,
		Example: `  # Inspect the run space
  chauffeur expand

  # Machine-readable output
  chauffeur expand --json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runExpand(cmd, jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

func runExpand(cmd *cobra.Command, jsonOutput bool) error {
	cfg := config.FromContext(cmd.Context())

	instances, err := expandRunSpace(cfg)
	if err != nil {
		return err
	}

	if jsonOutput {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		type instanceJSON struct {
			Group  string         `json:"group"`
			Index  int            `json:"index"`
			Params map[string]any `json:"params"`
		}
		out := make([]instanceJSON, len(instances))
		for i, inst := range instances {
			params := make(map[string]any, len(inst.Params))
			for k, v := range inst.Params {
				params[k] = v
			}
			out[i] = instanceJSON{Group: inst.Group, Index: inst.Index, Params: params}
		}
		return enc.Encode(out)
	}

	fmt.Fprintln(cmd.OutOrStdout(), headerStyle.Render(fmt.Sprintf("Run space (%d instances)", len(instances))))

	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.AppendHeader(table.Row{"Group", "Index", "Parameters"})
	for _, inst := range instances {
		t.AppendRow(table.Row{inst.Group, inst.Index, sortedParams(inst)})
	}
	t.Render()

	return nil
}
