package expand

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/chauffeur/pkg/core"
)

func ints(ns ...int64) []core.Value {
	vals := make([]core.Value, len(ns))
	for i, n := range ns {
		vals[i] = core.IntValue(n)
	}
	return vals
}

func TestExpand_OdometerOrder(t *testing.T) {
	g := Group{
		Variables: map[string][]core.Value{
			"a": ints(1, 2),
			"b": ints(10, 20),
		},
		Order: []string{"a", "b"},
	}

	instances, err := Expand("sweep", g)
	require.NoError(t, err)
	require.Len(t, instances, 4)

	// First variable in the order varies fastest.
	expected := [][2]int64{{1, 10}, {2, 10}, {1, 20}, {2, 20}}
	for i, want := range expected {
		assert.Equal(t, "sweep", instances[i].Group)
		assert.Equal(t, i, instances[i].Index)
		assert.Equal(t, want[0], instances[i].Params["a"].Int64(), "instance %d a", i)
		assert.Equal(t, want[1], instances[i].Params["b"].Int64(), "instance %d b", i)
	}
}

func TestExpand_ProductSize(t *testing.T) {
	g := Group{
		Variables: map[string][]core.Value{
			"x": ints(1, 2, 3),
			"y": ints(1, 2, 3, 4),
			"z": ints(1, 2),
		},
		Order: []string{"x", "y", "z"},
	}

	instances, err := Expand("big", g)
	require.NoError(t, err)
	assert.Len(t, instances, 24)
}

func TestExpand_SingleVariable(t *testing.T) {
	g := Group{
		Variables: map[string][]core.Value{"only": ints(7)},
		Order:     []string{"only"},
	}

	instances, err := Expand("one", g)
	require.NoError(t, err)
	require.Len(t, instances, 1)
	assert.Equal(t, int64(7), instances[0].Params["only"].Int64())
}

func TestExpand_ParametersOverride(t *testing.T) {
	g := Group{
		Variables: map[string][]core.Value{"a": ints(1, 2)},
		Order:     []string{"a"},
		Parameters: map[string]core.Value{
			"a":     core.IntValue(99),
			"fixed": core.TextValue("always"),
		},
	}

	instances, err := Expand("over", g)
	require.NoError(t, err)
	require.Len(t, instances, 2)
	for _, inst := range instances {
		assert.Equal(t, int64(99), inst.Params["a"].Int64())
		assert.Equal(t, "always", inst.Params["fixed"].Text())
	}
}

func TestExpand_Validation(t *testing.T) {
	tests := []struct {
		name string
		g    Group
	}{
		{"no variables", Group{}},
		{"order too short", Group{
			Variables: map[string][]core.Value{"a": ints(1), "b": ints(2)},
			Order:     []string{"a"},
		}},
		{"unknown name in order", Group{
			Variables: map[string][]core.Value{"a": ints(1)},
			Order:     []string{"c"},
		}},
		{"duplicate name in order", Group{
			Variables: map[string][]core.Value{"a": ints(1), "b": ints(2)},
			Order:     []string{"a", "a"},
		}},
		{"empty candidates", Group{
			Variables: map[string][]core.Value{"a": {}},
			Order:     []string{"a"},
		}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Expand("bad", tc.g)
			assert.Error(t, err)
		})
	}
}

func TestExpandAll_LexicographicConcat(t *testing.T) {
	groups := map[string]Group{
		"zeta": {
			Variables: map[string][]core.Value{"z": ints(1, 2)},
			Order:     []string{"z"},
		},
		"alpha": {
			Variables: map[string][]core.Value{"a": ints(1)},
			Order:     []string{"a"},
		},
	}

	instances, err := ExpandAll(groups)
	require.NoError(t, err)
	require.Len(t, instances, 3)
	assert.Equal(t, "alpha", instances[0].Group)
	assert.Equal(t, "zeta", instances[1].Group)
	assert.Equal(t, "zeta", instances[2].Group)

	// Indexes restart per group.
	assert.Equal(t, 0, instances[0].Index)
	assert.Equal(t, 0, instances[1].Index)
	assert.Equal(t, 1, instances[2].Index)
}

func TestExpandAll_PropagatesError(t *testing.T) {
	groups := map[string]Group{
		"bad": {Variables: map[string][]core.Value{}},
	}

	_, err := ExpandAll(groups)
	assert.Error(t, err)
}
