package param

import "strings"

// Reference marker characters. A reference is %(name) or
// %(name:format). The first close character always terminates the
// reference: nested markers inside one token are not part of the
// grammar.
const (
	refOpen  = "%("
	refClose = ")"
)

// tokenType identifies a template token.
type tokenType int

const (
	tokenLiteral tokenType = iota // literal text
	tokenRef                      // %(name[:format]) reference
)

// token is one lexical unit of a template string.
type token struct {
	typ    tokenType
	text   string // literal text (tokenLiteral)
	name   string // referenced name (tokenRef)
	format string // optional inline format spec (tokenRef)
	offset int    // byte offset in the input, for errors
}

// tokenize splits a template into literal and reference tokens with a
// strict left-to-right scan.
func tokenize(input string) ([]token, error) {
	var tokens []token
	pos := 0

	for pos < len(input) {
		rel := strings.Index(input[pos:], refOpen)
		if rel < 0 {
			tokens = append(tokens, token{typ: tokenLiteral, text: input[pos:], offset: pos})
			break
		}

		open := pos + rel
		if open > pos {
			tokens = append(tokens, token{typ: tokenLiteral, text: input[pos:open], offset: pos})
		}

		body := open + len(refOpen)
		end := strings.Index(input[body:], refClose)
		if end < 0 {
			return nil, &MalformedTemplateError{Template: input, Offset: open}
		}

		name := input[body : body+end]
		format := ""
		if i := strings.Index(name, ":"); i >= 0 {
			format = name[i+1:]
			name = name[:i]
		}
		tokens = append(tokens, token{typ: tokenRef, name: name, format: format, offset: open})

		pos = body + end + len(refClose)
	}

	return tokens, nil
}
