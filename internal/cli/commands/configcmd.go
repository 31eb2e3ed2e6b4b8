package commands

import (
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/leapstack-labs/chauffeur/internal/cli/config"
)

// NewConfigCommand creates the config command group.
func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the effective configuration",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "print",
		Short: "Print the effective configuration as YAML",
		RunE:  runConfigPrint,
	})

	return cmd
}

func runConfigPrint(cmd *cobra.Command, _ []string) error {
	cfg := config.FromContext(cmd.Context())

	doc := map[string]any{
		"driver": map[string]any{
			"executable":   cfg.Driver.Executable,
			"rundir":       cfg.Driver.RunDir,
			"templatefile": cfg.Driver.TemplateFile,
			"paramfile":    cfg.Driver.ParamFile,
			"templatedir":  cfg.Driver.TemplateDir,
			"type":         cfg.Driver.Type,
			"dryrun":       cfg.Driver.DryRun,
			"workers":      cfg.Driver.Workers,
			"precommand":   cfg.Driver.PreCommand,
			"execcommand":  cfg.Driver.ExecCommand,
			"postcommand":  cfg.Driver.PostCommand,
			"intfmtlong":   cfg.Driver.IntFmtLong,
			"fltfmtlong":   cfg.Driver.FltFmtLong,
			"intfmtshort":  cfg.Driver.IntFmtShort,
			"fltfmtshort":  cfg.Driver.FltFmtShort,
			"batchcommand": cfg.Driver.BatchCommand,
			"batchscript":  cfg.Driver.BatchScript,
		},
		"userdef": cfg.UserDef,
	}
	for name, group := range cfg.Runs {
		doc[name] = map[string]any{
			"variables":     group.Variables,
			"variableorder": group.Order,
			"parameters":    group.Parameters,
		}
	}
	if len(cfg.Files) > 0 {
		doc["files"] = cfg.Files
	}

	enc := yaml.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent(2)
	defer enc.Close()
	return enc.Encode(doc)
}
