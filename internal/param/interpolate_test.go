package param

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/chauffeur/pkg/core"
)

func testChain(vals map[string]core.Value) Chain {
	return Chain{FromMap("test", vals)}
}

func TestRender_PlainText(t *testing.T) {
	ip := NewInterpolator(nil)

	out, err := ip.Render("no references here", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "no references here", out)
}

func TestRender_SimpleReference(t *testing.T) {
	ip := NewInterpolator(nil)
	chain := testChain(map[string]core.Value{"name": core.TextValue("world")})

	out, err := ip.Render("hello %(name)!", chain, nil)
	require.NoError(t, err)
	assert.Equal(t, "hello world!", out)
}

func TestRender_InlineFormat(t *testing.T) {
	ip := NewInterpolator(nil)
	chain := testChain(map[string]core.Value{"n": core.IntValue(7)})

	out, err := ip.Render("n%(n:%03d)", chain, nil)
	require.NoError(t, err)
	assert.Equal(t, "n007", out)
}

func TestRender_FormatTablePriority(t *testing.T) {
	ip := NewInterpolator(nil)
	chain := testChain(map[string]core.Value{
		"i": core.IntValue(3),
		"f": core.FloatValue(0.5),
		"s": core.TextValue("plain"),
	})
	formats := FormatTable{core.KindInt: "%05d", core.KindFloat: "%.2f"}

	out, err := ip.Render("%(i) %(f) %(s)", chain, formats)
	require.NoError(t, err)
	assert.Equal(t, "00003 0.50 plain", out)

	// Inline spec wins over the table.
	out, err = ip.Render("%(i:%d)", chain, formats)
	require.NoError(t, err)
	assert.Equal(t, "3", out)
}

func TestRender_Unresolved(t *testing.T) {
	ip := NewInterpolator(nil)

	_, err := ip.Render("%(missing)", testChain(nil), nil)

	var unresolved *UnresolvedError
	require.ErrorAs(t, err, &unresolved)
	assert.Equal(t, "missing", unresolved.Name)
}

func TestRender_MalformedTemplate(t *testing.T) {
	ip := NewInterpolator(nil)
	chain := testChain(map[string]core.Value{"x": core.IntValue(1)})

	_, err := ip.Render("abc %(x", chain, nil)

	var malformed *MalformedTemplateError
	require.ErrorAs(t, err, &malformed)
}

func TestRender_PrecedenceStable(t *testing.T) {
	ip := NewInterpolator(nil)
	high := FromMap("instance", map[string]core.Value{"key": core.TextValue("high")})
	low := FromMap("driver", map[string]core.Value{"key": core.TextValue("low")})
	chain := Chain{high, low}

	for i := 0; i < 100; i++ {
		out, err := ip.Render("%(key)", chain, nil)
		require.NoError(t, err)
		assert.Equal(t, "high", out)
	}
}

func TestRender_RecursiveResolution(t *testing.T) {
	ip := NewInterpolator(nil)
	chain := testChain(map[string]core.Value{
		"rundir": core.TextValue("%(base)/n%(n:%03d)"),
		"base":   core.TextValue("/scratch/sweeps"),
		"n":      core.IntValue(42),
	})

	out, err := ip.Render("%(rundir)", chain, nil)
	require.NoError(t, err)
	assert.Equal(t, "/scratch/sweeps/n042", out)
}

// chainOfDepth builds v1 -> v2 -> ... -> vN where vN is a literal.
func chainOfDepth(n int) Chain {
	vals := make(map[string]core.Value, n)
	for i := 1; i < n; i++ {
		vals[fmt.Sprintf("v%d", i)] = core.TextValue(fmt.Sprintf("%%(v%d)", i+1))
	}
	vals[fmt.Sprintf("v%d", n)] = core.TextValue("end")
	return testChain(vals)
}

func TestRender_RecursionBoundary(t *testing.T) {
	ip := NewInterpolator(nil)

	out, err := ip.Render("%(v1)", chainOfDepth(10), nil)
	require.NoError(t, err)
	assert.Equal(t, "end", out)

	_, err = ip.Render("%(v1)", chainOfDepth(11), nil)
	var recursion *RecursionError
	require.ErrorAs(t, err, &recursion)
	assert.Equal(t, MaxRecursionDepth, recursion.Limit)
}

func TestRender_Idempotent(t *testing.T) {
	ip := NewInterpolator(nil)
	chain := testChain(map[string]core.Value{
		"a": core.TextValue("alpha"),
		"b": core.IntValue(2),
	})

	out, err := ip.Render("a=%(a) b=%(b:%02d) done", chain, nil)
	require.NoError(t, err)
	assert.NotContains(t, out, refOpen)

	again, err := ip.Render(out, chain, nil)
	require.NoError(t, err)
	assert.Equal(t, out, again)
}

func TestResolve_SingleName(t *testing.T) {
	ip := NewInterpolator(nil)
	chain := testChain(map[string]core.Value{
		"indirect": core.TextValue("%(direct)"),
		"direct":   core.IntValue(9),
	})

	v, err := ip.Resolve("direct", chain)
	require.NoError(t, err)
	assert.Equal(t, core.KindInt, v.Kind())
	assert.Equal(t, int64(9), v.Int64())

	// Indirection renders to text.
	v, err = ip.Resolve("indirect", chain)
	require.NoError(t, err)
	assert.Equal(t, "9", v.String())

	_, err = ip.Resolve("absent", chain)
	var unresolved *UnresolvedError
	require.ErrorAs(t, err, &unresolved)
}

type failingEvaluator struct{ err error }

func (f failingEvaluator) Eval(v core.Value) (core.Value, error) {
	return core.Value{}, f.err
}

func TestRender_EvaluatorErrorPropagates(t *testing.T) {
	wantErr := errors.New("boom")
	ip := NewInterpolator(failingEvaluator{err: wantErr})
	chain := testChain(map[string]core.Value{"x": core.TextValue("v")})

	_, err := ip.Render("%(x)", chain, nil)
	require.ErrorIs(t, err, wantErr)
}

func TestNamespace_FreezePanics(t *testing.T) {
	ns := NewNamespace("test")
	ns.Set("a", core.IntValue(1))
	ns.Freeze()

	assert.Panics(t, func() {
		ns.Set("b", core.IntValue(2))
	})
}
