package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/chauffeur/internal/param"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "input.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const minimalConfig = `
driver:
  rundir: /tmp/sweep/n%(runindex)
run1:
  variables:
    a: [1, 2]
`

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalConfig), nil)
	require.NoError(t, err)

	assert.Equal(t, "exec", cfg.Driver.Type)
	assert.True(t, cfg.Driver.DryRun, "runs are dry unless the document says otherwise")
	assert.Equal(t, 1, cfg.Driver.Workers)
	assert.Equal(t, DefaultStatePath, cfg.StatePath)
	assert.Equal(t, param.DefaultIntFmtLong, cfg.Driver.IntFmtLong)
	assert.Equal(t, param.DefaultFltFmtLong, cfg.Driver.FltFmtLong)
	assert.Equal(t, param.DefaultIntFmtShort, cfg.Driver.IntFmtShort)
	assert.Equal(t, param.DefaultFltFmtShort, cfg.Driver.FltFmtShort)
	assert.Equal(t, "submit_batch.sh", cfg.Driver.BatchScript)
	assert.False(t, cfg.Verbose)
}

func TestLoad_FullDocument(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
driver:
  executable: /opt/sim/bin/solver
  rundir: /scratch/%(rungroup)/n%(runindex)
  templatedir: /opt/sim/template
  templatefile: params.in.tmpl
  paramfile: params.in
  type: exec
  dryrun: false
  workers: 4
  precommand: ./prepare.sh
  execcommand: "%(executable) params.in"
  postcommand: ./collect.sh
  batchcommand: qsub
userdef:
  Site: cluster-a
  budget: 100
run_coarse:
  variables:
    nx: [16, 32]
    dt: [0.1, 0.01]
  variableorder: [nx, dt]
  parameters:
    solver: implicit
files:
  - input: job.pbs.tmpl
    output: job.pbs
    type: batch
`), nil)
	require.NoError(t, err)

	assert.Equal(t, "/opt/sim/bin/solver", cfg.Driver.Executable)
	assert.False(t, cfg.Driver.DryRun)
	assert.Equal(t, 4, cfg.Driver.Workers)
	assert.Equal(t, "qsub", cfg.Driver.BatchCommand)

	// User-defined keys are lowercased.
	require.Contains(t, cfg.UserDef, "site")
	assert.Equal(t, "cluster-a", cfg.UserDef["site"].Text())
	assert.Equal(t, int64(100), cfg.UserDef["budget"].Int64())

	require.Contains(t, cfg.Runs, "run_coarse")
	group := cfg.Runs["run_coarse"]
	assert.Equal(t, []string{"nx", "dt"}, group.Order)
	require.Len(t, group.Variables["nx"], 2)
	assert.Equal(t, int64(16), group.Variables["nx"][0].Int64())
	assert.Equal(t, 0.1, group.Variables["dt"][0].Float64())
	assert.Equal(t, "implicit", group.Parameters["solver"].Text())

	// The templatefile/paramfile pair becomes the first file definition.
	require.Len(t, cfg.Files, 2)
	assert.Equal(t, "params.in.tmpl", cfg.Files[0].Input)
	assert.Equal(t, "params.in", cfg.Files[0].Output)
	assert.Equal(t, "job.pbs.tmpl", cfg.Files[1].Input)
	assert.Equal(t, "batch", cfg.Files[1].Type)
}

func TestLoad_BareScalarCandidate(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
driver:
  rundir: /tmp/out
run1:
  variables:
    fixed: 42
    swept: [1, 2, 3]
`), nil)
	require.NoError(t, err)

	group := cfg.Runs["run1"]
	require.Len(t, group.Variables["fixed"], 1)
	assert.Equal(t, int64(42), group.Variables["fixed"][0].Int64())
	assert.Len(t, group.Variables["swept"], 3)

	// Default order is the sorted variable names.
	assert.Equal(t, []string{"fixed", "swept"}, group.Order)
}

func TestLoad_UnknownDriverKey(t *testing.T) {
	_, err := Load(writeConfig(t, `
driver:
  rundir: /tmp/out
  nthreads: 4
run1:
  variables:
    a: [1]
`), nil)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Msg, `"nthreads" not accepted`)
	assert.Contains(t, verr.Msg, "workers")
}

func TestLoad_VariableOrderMismatch(t *testing.T) {
	_, err := Load(writeConfig(t, `
driver:
  rundir: /tmp/out
run1:
  variables:
    a: [1]
    b: [2]
  variableorder: [a]
`), nil)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Msg, "variable order and parsed variables are not the same")
}

func TestLoad_NoRunSections(t *testing.T) {
	_, err := Load(writeConfig(t, `
driver:
  rundir: /tmp/out
`), nil)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Msg, "no run sections")
}

func TestLoad_MissingRunDir(t *testing.T) {
	_, err := Load(writeConfig(t, `
driver:
  type: setup
run1:
  variables:
    a: [1]
`), nil)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Msg, "rundir is required")
}

func TestLoad_BadDriverType(t *testing.T) {
	_, err := Load(writeConfig(t, `
driver:
  rundir: /tmp/out
  type: interactive
run1:
  variables:
    a: [1]
`), nil)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Msg, "type must be exec or setup")
}

func TestLoad_BatchFileNeedsBatchCommand(t *testing.T) {
	_, err := Load(writeConfig(t, `
driver:
  rundir: /tmp/out
run1:
  variables:
    a: [1]
files:
  - input: job.tmpl
    output: job.pbs
    type: batch
`), nil)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Msg, "batchcommand is required")
}

func TestLoad_FlagsOverrideFile(t *testing.T) {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Int("workers", 1, "")
	flags.Bool("dry-run", false, "")
	require.NoError(t, flags.Set("workers", "8"))
	require.NoError(t, flags.Set("dry-run", "false"))

	cfg, err := Load(writeConfig(t, `
driver:
  rundir: /tmp/out
  workers: 2
  dryrun: true
run1:
  variables:
    a: [1]
`), flags)
	require.NoError(t, err)

	assert.Equal(t, 8, cfg.Driver.Workers)
	assert.False(t, cfg.Driver.DryRun)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	t.Setenv("CHAUFFEUR_STATE_PATH", "/var/lib/chauffeur/state.db")

	cfg, err := Load(writeConfig(t, minimalConfig), nil)
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/chauffeur/state.db", cfg.StatePath)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), nil)
	require.Error(t, err)
}

func TestLoad_RunGroupKeyMatching(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
driver:
  rundir: /tmp/out
coarse_run:
  variables:
    a: [1]
fine_run:
  variables:
    b: [2]
`), nil)
	require.NoError(t, err)

	assert.Len(t, cfg.Runs, 2)
	assert.Contains(t, cfg.Runs, "coarse_run")
	assert.Contains(t, cfg.Runs, "fine_run")
}
