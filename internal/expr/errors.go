package expr

import "fmt"

// MalformedExpressionError indicates an odd number of backtick
// delimiters in a value.
type MalformedExpressionError struct {
	Value string
}

func (e *MalformedExpressionError) Error() string {
	return fmt.Sprintf("malformed expression: unbalanced backticks in %q", e.Value)
}

// NestingError indicates more than one backtick pair in a value.
// Multiple pairs are rejected rather than guessed at.
type NestingError struct {
	Value string
}

func (e *NestingError) Error() string {
	return fmt.Sprintf("unsupported expression nesting: multiple backtick pairs in %q", e.Value)
}

// EvalError wraps a failure inside the expression engine.
type EvalError struct {
	Expr  string
	Cause error
}

func (e *EvalError) Error() string {
	return fmt.Sprintf("evaluating %q: %v", e.Expr, e.Cause)
}

func (e *EvalError) Unwrap() error { return e.Cause }
