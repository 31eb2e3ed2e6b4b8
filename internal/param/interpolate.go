package param

import (
	"strings"

	"github.com/leapstack-labs/chauffeur/pkg/core"
)

// MaxRecursionDepth bounds how deeply resolved values may reference
// further parameters.
const MaxRecursionDepth = 10

// Evaluator evaluates expressions embedded in resolved values.
type Evaluator interface {
	Eval(v core.Value) (core.Value, error)
}

// Interpolator renders templates by resolving %(name) references
// against a namespace chain. It is stateless with respect to any
// single render and safe for concurrent use once its namespaces are
// frozen.
type Interpolator struct {
	eval     Evaluator
	maxDepth int
}

// NewInterpolator creates an interpolator using eval for embedded
// expressions. A nil eval disables expression evaluation.
func NewInterpolator(eval Evaluator) *Interpolator {
	return &Interpolator{eval: eval, maxDepth: MaxRecursionDepth}
}

// Render interpolates every reference in tmpl against chain,
// formatting resolved values with formats. Rendering the returned
// string again yields the identical string as long as no resolved
// value itself produced a new reference marker.
func (ip *Interpolator) Render(tmpl string, chain Chain, formats FormatTable) (string, error) {
	return ip.render(tmpl, chain, formats, 0)
}

// Resolve resolves a single name against chain, including recursive
// interpolation of the resolved value and expression evaluation.
func (ip *Interpolator) Resolve(name string, chain Chain) (core.Value, error) {
	v, ok := chain.Lookup(name)
	if !ok {
		return core.Value{}, &UnresolvedError{Name: name}
	}
	return ip.finish(v, chain, nil, 0)
}

func (ip *Interpolator) render(tmpl string, chain Chain, formats FormatTable, depth int) (string, error) {
	if depth >= ip.maxDepth {
		return "", &RecursionError{Name: tmpl, Limit: ip.maxDepth}
	}

	tokens, err := tokenize(tmpl)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	for _, tok := range tokens {
		if tok.typ == tokenLiteral {
			b.WriteString(tok.text)
			continue
		}

		v, ok := chain.Lookup(tok.name)
		if !ok {
			return "", &UnresolvedError{Name: tok.name}
		}

		resolved, err := ip.finish(v, chain, formats, depth)
		if err != nil {
			return "", err
		}

		b.WriteString(formats.format(resolved, tok.format))
	}

	return b.String(), nil
}

// finish completes resolution of a looked-up value: recursive
// interpolation of embedded references, then expression evaluation.
func (ip *Interpolator) finish(v core.Value, chain Chain, formats FormatTable, depth int) (core.Value, error) {
	if v.Kind() == core.KindText && strings.Contains(v.Text(), refOpen) {
		rendered, err := ip.render(v.Text(), chain, formats, depth+1)
		if err != nil {
			return core.Value{}, err
		}
		v = core.TextValue(rendered)
	}

	if ip.eval == nil {
		return v, nil
	}
	return ip.eval.Eval(v)
}
