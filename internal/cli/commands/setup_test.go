package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/chauffeur/internal/cli/config"
	"github.com/leapstack-labs/chauffeur/internal/expand"
	"github.com/leapstack-labs/chauffeur/pkg/core"
)

func testConfig() *config.Config {
	return &config.Config{
		Driver: config.DriverConfig{
			Executable: "/opt/solver",
			RunDir:     "/scratch/%(rungroup)/n%(runindex)",
			Type:       "exec",
			Workers:    4,
		},
		UserDef: map[string]core.Value{
			"site": core.TextValue("cluster-a"),
		},
		Runs: map[string]config.RunGroup{
			"run1": {
				Variables: map[string][]core.Value{
					"a": {core.IntValue(1), core.IntValue(2)},
				},
				Order: []string{"a"},
			},
		},
	}
}

func TestBaseChain_Precedence(t *testing.T) {
	cfg := testConfig()
	// A user-defined entry shadows the driver entry of the same name.
	cfg.UserDef["executable"] = core.TextValue("/home/user/override")

	chain := baseChain(cfg)

	v, ok := chain.Lookup("executable")
	require.True(t, ok)
	assert.Equal(t, "/home/user/override", v.Text())

	v, ok = chain.Lookup("site")
	require.True(t, ok)
	assert.Equal(t, "cluster-a", v.Text())
}

func TestDriverNamespace(t *testing.T) {
	cfg := testConfig()
	ns := driverNamespace(cfg.Driver)

	v, ok := ns.Get("executable")
	require.True(t, ok)
	assert.Equal(t, "/opt/solver", v.Text())

	v, ok = ns.Get("workers")
	require.True(t, ok)
	assert.Equal(t, int64(4), v.Int64())

	// Empty driver settings have no entry at all.
	_, ok = ns.Get("precommand")
	assert.False(t, ok)

	// Ambient entries.
	_, ok = ns.Get("cwd")
	assert.True(t, ok)
	_, ok = ns.Get("scriptdir")
	assert.True(t, ok)
}

func TestExpandRunSpace(t *testing.T) {
	instances, err := expandRunSpace(testConfig())
	require.NoError(t, err)
	require.Len(t, instances, 2)
	assert.Equal(t, "run1", instances[0].Group)
	assert.Equal(t, int64(1), instances[0].Params["a"].Int64())
	assert.Equal(t, int64(2), instances[1].Params["a"].Int64())
}

func TestDispatchOptions(t *testing.T) {
	cfg := testConfig()
	cfg.Driver.IntFmtShort = "%03d"
	cfg.Files = []config.FileConfig{
		{Input: "in.tmpl", Output: "out.txt", Type: "batch"},
	}

	opts := dispatchOptions(cfg)

	assert.Equal(t, 4, opts.Workers)
	assert.Equal(t, "exec", opts.DriverType)
	assert.Equal(t, "/scratch/%(rungroup)/n%(runindex)", opts.RunDir)
	require.Len(t, opts.Files, 1)
	assert.Equal(t, "batch", opts.Files[0].Type)
	assert.Equal(t, "%03d", opts.ShortFormats[core.KindInt])
	require.Len(t, opts.Base, 2)
}

func TestSortedParams(t *testing.T) {
	inst := expand.Instance{
		Group: "g",
		Index: 0,
		Params: map[string]core.Value{
			"zeta":  core.IntValue(3),
			"alpha": core.TextValue("x"),
			"mid":   core.FloatValue(0.5),
		},
	}

	assert.Equal(t, "alpha=x mid=0.5 zeta=3", sortedParams(inst))
}
