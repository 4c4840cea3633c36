package ops

import (
	"io"
	"strconv"

	"github.com/ava12/packrat"
)

// Render error codes.
const (
	WriteError = packrat.RenderErrors + iota
	UnknownStatementError
	SourceFormatError
)

// Renderer converts program to parser source.
//
// Rendered parser must evaluate subexpressions in statement order, must not expose
// nodes built by failed attempts, must consult and populate the memo table around
// every rule invocation, and must abort parsing on action error.
type Renderer interface {
	Render(w io.Writer, p *Program) error
}

// Escaper quotes literal text for target language.
type Escaper interface {
	Quote(s string) string
}

// EscaperFunc is a function implementing Escaper.
type EscaperFunc func(s string) string

func (f EscaperFunc) Quote(s string) string {
	return f(s)
}

// GoEscaper quotes strings as Go string literals.
var GoEscaper Escaper = EscaperFunc(strconv.Quote)

// Walk visits statements of b depth-first in order.
// Nested blocks of a statement are skipped if visitor returns false.
func Walk(b Block, visitor func(Stmt) bool) {
	for _, s := range b {
		if !visitor(s) {
			continue
		}

		switch x := s.(type) {
		case *If:
			Walk(x.Then, visitor)
			Walk(x.Else, visitor)
		case *Loop:
			Walk(x.Body, visitor)
		}
	}
}

func unknownStatementError(s any) *packrat.Error {
	return packrat.FormatError(UnknownStatementError, "unknown statement type %T", s)
}

func writeError(e error) *packrat.Error {
	return packrat.FormatError(WriteError, "cannot write output: %s", e.Error())
}
