package param

import "fmt"

// UnresolvedError indicates a name absent from every namespace layer.
type UnresolvedError struct {
	Name string
}

func (e *UnresolvedError) Error() string {
	return fmt.Sprintf("unable to resolve parameter %q", e.Name)
}

// RecursionError indicates a reference chain deeper than the resolver limit.
type RecursionError struct {
	Name  string
	Limit int
}

func (e *RecursionError) Error() string {
	return fmt.Sprintf("resolving %q exceeded the recursion limit (%d)", e.Name, e.Limit)
}

// MalformedTemplateError indicates a reference marker with no closing
// character.
type MalformedTemplateError struct {
	Template string
	Offset   int
}

func (e *MalformedTemplateError) Error() string {
	return fmt.Sprintf("malformed template: unterminated reference at offset %d in %q", e.Offset, e.Template)
}
