/*
Package packrat is a parsing expression grammar (PEG) compiler producing memoizing
recursive-descent ("packrat") parsers.

Consists of subpackages:
  - grammar: expression IR (the closed set of PEG expression kinds) and grammar definition;
  - langdef: converts textual PEG description to grammar definition;
  - lexer: lexical analyzer used by langdef;
  - source: defines source text and line/column lookup;
  - compiler: compiles grammar definition to a program of abstract emission operations;
  - ops: the emission operations, program listing and renderer contract;
  - parser: packrat runtime executing compiled programs;
  - tree: parse tree nodes and helper functions;
  - render/golang: renders compiled programs as standalone Go parsers;
  - metrics: Prometheus counters for parser statistics;
  - cmd/peggen: console utility converting grammar description to Go source file.

Typical usage is:

1. Describe grammar in PEG language. Description does not contain Go code,
actions and node types are referenced by name only.

2. Parse grammar description using langdef subpackage and compile it with compiler subpackage.

3. Either create a parser.Parser for the compiled program and supply action functions and
type extensions, or render the program as Go source using peggen utility.
*/
package packrat

import (
	"errors"
	"fmt"
)

// Error classes used by subpackages, each class contains up to 99 error codes:
const (
	GrammarErrors = 1   // used by grammar and compiler
	LangDefErrors = 101 // used by langdef and lexer
	SyntaxErrors  = 201 // used by parser for input that does not match grammar
	ParserErrors  = 301 // used by parser for setup errors
	RenderErrors  = 401 // used by renderers
	LoadErrors    = 501 // used by grammar document loader
)

// Error is the error type used by packrat subpackages.
type Error struct {
	// Code contains non-zero error code.
	Code int

	// Message contains non-empty error message including source name and position information if provided.
	Message string

	// SourceName contains source name that caused this error or empty string.
	SourceName string

	// Line contains line number in source file or 0.
	Line int

	// Col contains column number in source file or 0.
	Col int
}

// SourcePos is used to retrieve source name and position information when constructing an error;
// source.Pos and lexer.Token implement this interface.
type SourcePos interface {
	// SourceName returns source file name or empty string.
	SourceName() string
	// Line returns line number or 0.
	Line() int
	// Col returns column number or 0.
	Col() int
}

// NewError creates new Error structure.
// name, line, and col will be added to error message if provided (non-zero).
func NewError(code int, msg, name string, line, col int) *Error {
	if name != "" && line != 0 && col != 0 {
		msg += fmt.Sprintf(" in %s at line %d col %d", name, line, col)
	} else if line != 0 && col != 0 {
		msg += fmt.Sprintf(" at line %d col %d", line, col)
	}
	return &Error{code, msg, name, line, col}
}

// Error simply returns Error.Message.
func (e *Error) Error() string {
	return e.Message
}

// FormatError creates Error structure with no source and position information.
// params will be added to error message using fmt.Sprintf function.
func FormatError(code int, msg string, params ...any) *Error {
	if len(params) > 0 {
		msg = fmt.Sprintf(msg, params...)
	}
	return NewError(code, msg, "", 0, 0)
}

// FormatErrorPos creates Error structure with source and position information.
// pos must not be nil.
// params will be added to error message using fmt.Sprintf function.
func FormatErrorPos(pos SourcePos, code int, msg string, params ...any) *Error {
	if len(params) > 0 {
		msg = fmt.Sprintf(msg, params...)
	}
	return NewError(code, msg, pos.SourceName(), pos.Line(), pos.Col())
}

// HasCode reports whether e is or wraps an *Error with given code.
func HasCode(e error, code int) bool {
	var pe *Error
	return errors.As(e, &pe) && pe.Code == code
}
