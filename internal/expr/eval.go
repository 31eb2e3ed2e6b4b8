// Package expr evaluates arithmetic expressions embedded in resolved
// parameter values. Expressions are delimited by one pair of backtick
// characters and run in a Starlark environment restricted to an
// allow-listed set of math functions.
package expr

import (
	"strings"
	"sync"

	"go.starlark.net/lib/math"
	"go.starlark.net/starlark"
	"go.starlark.net/syntax"

	"github.com/leapstack-labs/chauffeur/pkg/core"
)

const delimiter = "`"

// allowedFunctions are the math module members exposed to
// expressions. Everything else from the module stays hidden; the
// Starlark universe additionally provides abs, min, max, int, and
// float.
var allowedFunctions = []string{
	"sqrt", "pow", "exp", "log",
	"floor", "ceil", "round", "fabs",
	"pi", "e",
}

// Evaluator evaluates backtick expressions. It is safe for concurrent
// use; threads are pooled across evaluations.
type Evaluator struct {
	globals starlark.StringDict
	opts    *syntax.FileOptions

	mu      sync.Mutex
	threads []*starlark.Thread
}

// New creates an evaluator with the allow-listed globals.
func New() *Evaluator {
	globals := make(starlark.StringDict, len(allowedFunctions))
	for _, name := range allowedFunctions {
		if member, ok := math.Module.Members[name]; ok {
			globals[name] = member
		}
	}
	return &Evaluator{
		globals: globals,
		opts:    &syntax.FileOptions{},
	}
}

// Eval scans v for backtick delimiters and substitutes the evaluated
// result. Zero pairs returns v unchanged; one pair evaluates the
// enclosed text; an odd delimiter count or more than one pair is an
// error.
func (e *Evaluator) Eval(v core.Value) (core.Value, error) {
	if v.Kind() != core.KindText {
		return v, nil
	}

	text := v.Text()
	switch n := strings.Count(text, delimiter); {
	case n == 0:
		return v, nil
	case n%2 != 0:
		return core.Value{}, &MalformedExpressionError{Value: text}
	case n > 2:
		return core.Value{}, &NestingError{Value: text}
	}

	open := strings.Index(text, delimiter)
	closing := strings.Index(text[open+1:], delimiter) + open + 1
	inner := text[open+1 : closing]

	result, err := e.evalExpr(inner)
	if err != nil {
		return core.Value{}, err
	}

	// A pair spanning the whole value yields the typed result so that
	// kind-keyed format tables still apply. A pair embedded in literal
	// text splices the stringified result back in.
	if strings.TrimSpace(text[:open]) == "" && strings.TrimSpace(text[closing+1:]) == "" {
		return result, nil
	}
	return core.TextValue(text[:open] + result.String() + text[closing+1:]), nil
}

// evalExpr runs one expression through Starlark.
func (e *Evaluator) evalExpr(src string) (core.Value, error) {
	thread := e.getThread()
	defer e.putThread(thread)

	val, err := starlark.EvalOptions(e.opts, thread, "expression", src, e.globals)
	if err != nil {
		return core.Value{}, &EvalError{Expr: src, Cause: err}
	}

	switch result := val.(type) {
	case starlark.Int:
		if i, ok := result.Int64(); ok {
			return core.IntValue(i), nil
		}
		return core.TextValue(result.String()), nil
	case starlark.Float:
		return core.FloatValue(float64(result)), nil
	case starlark.String:
		return core.TextValue(string(result)), nil
	case starlark.Bool:
		return core.TextValue(result.String()), nil
	default:
		return core.TextValue(val.String()), nil
	}
}

func (e *Evaluator) getThread() *starlark.Thread {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.threads) > 0 {
		thread := e.threads[len(e.threads)-1]
		e.threads = e.threads[:len(e.threads)-1]
		return thread
	}
	return &starlark.Thread{
		Name:  "expr",
		Print: func(_ *starlark.Thread, _ string) {},
	}
}

func (e *Evaluator) putThread(thread *starlark.Thread) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.threads) < 8 {
		e.threads = append(e.threads, thread)
	}
}
