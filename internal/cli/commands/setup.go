// Package commands implements the chauffeur subcommands.
package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/leapstack-labs/chauffeur/internal/cli/config"
	"github.com/leapstack-labs/chauffeur/internal/dispatch"
	"github.com/leapstack-labs/chauffeur/internal/expand"
	"github.com/leapstack-labs/chauffeur/internal/param"
	"github.com/leapstack-labs/chauffeur/pkg/core"
)

// baseChain builds the two always-present namespace layers,
// user-defined above driver, both frozen before any worker starts.
func baseChain(cfg *config.Config) param.Chain {
	return param.Chain{userNamespace(cfg), driverNamespace(cfg.Driver)}
}

// driverNamespace exposes every driver setting, plus the ambient cwd
// and scriptdir entries, for resolution.
func driverNamespace(d config.DriverConfig) *param.Namespace {
	ns := param.NewNamespace("driver")

	cwd, err := os.Getwd()
	if err == nil {
		ns.Set("cwd", core.TextValue(cwd))
	}
	if exe, err := os.Executable(); err == nil {
		ns.Set("scriptdir", core.TextValue(filepath.Dir(exe)))
	}

	for key, val := range map[string]string{
		"executable":   d.Executable,
		"rundir":       d.RunDir,
		"templatefile": d.TemplateFile,
		"paramfile":    d.ParamFile,
		"templatedir":  d.TemplateDir,
		"type":         d.Type,
		"precommand":   d.PreCommand,
		"execcommand":  d.ExecCommand,
		"postcommand":  d.PostCommand,
		"batchcommand": d.BatchCommand,
		"batchscript":  d.BatchScript,
	} {
		if val != "" {
			ns.Set(key, core.TextValue(val))
		}
	}
	ns.Set("workers", core.IntValue(int64(d.Workers)))

	return ns.Freeze()
}

func userNamespace(cfg *config.Config) *param.Namespace {
	return param.FromMap("userdef", cfg.UserDef)
}

// expandRunSpace expands every configured run group into the flat
// instance sequence, groups concatenated in lexicographic name order.
func expandRunSpace(cfg *config.Config) ([]expand.Instance, error) {
	groups := make(map[string]expand.Group, len(cfg.Runs))
	for name, g := range cfg.Runs {
		groups[name] = expand.Group{
			Variables:  g.Variables,
			Order:      g.Order,
			Parameters: g.Parameters,
		}
	}

	instances, err := expand.ExpandAll(groups)
	if err != nil {
		return nil, fmt.Errorf("expanding run space: %w", err)
	}
	return instances, nil
}

// dispatchOptions converts the loaded configuration into dispatcher
// options.
func dispatchOptions(cfg *config.Config) dispatch.Options {
	files := make([]dispatch.FileDef, len(cfg.Files))
	for i, f := range cfg.Files {
		files[i] = dispatch.FileDef{
			Input:      f.Input,
			Output:     f.Output,
			Type:       f.Type,
			Parameters: f.Parameters,
		}
	}

	return dispatch.Options{
		Workers:      cfg.Driver.Workers,
		DryRun:       cfg.Driver.DryRun,
		RunDir:       cfg.Driver.RunDir,
		TemplateDir:  cfg.Driver.TemplateDir,
		DriverType:   cfg.Driver.Type,
		Executable:   cfg.Driver.Executable,
		PreCommand:   cfg.Driver.PreCommand,
		ExecCommand:  cfg.Driver.ExecCommand,
		PostCommand:  cfg.Driver.PostCommand,
		Files:        files,
		LongFormats:  param.LongFormats(cfg.Driver.IntFmtLong, cfg.Driver.FltFmtLong),
		ShortFormats: param.ShortFormats(cfg.Driver.IntFmtShort, cfg.Driver.FltFmtShort),
		Base:         baseChain(cfg),
	}
}

// sortedParams renders an instance's parameters as "k=v" pairs in
// name order.
func sortedParams(inst expand.Instance) string {
	names := make([]string, 0, len(inst.Params))
	for name := range inst.Params {
		names = append(names, name)
	}
	sort.Strings(names)

	pairs := make([]string, 0, len(names))
	for _, name := range names {
		pairs = append(pairs, fmt.Sprintf("%s=%s", name, inst.Params[name].String()))
	}
	return strings.Join(pairs, " ")
}
