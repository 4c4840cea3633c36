package parser

import (
	"strings"

	"github.com/ava12/packrat"
	"github.com/ava12/packrat/source"
)

// Parse error codes.
const (
	UnexpectedInputError = packrat.SyntaxErrors + iota
	UnexpectedEofError
)

// Parser setup and runtime error codes.
const (
	MissingActionError = packrat.ParserErrors + iota
	UnknownRuleError
	InvalidPatternError
	NilActionResultError
	UnknownStatementError
	NilExtensionResultError
)

// EofLabel is the expected label recorded when input remains after a successful match.
const EofLabel = "<EOF>"

// Expectation is an element of the furthest failure record.
type Expectation struct {
	Rule  string
	Label string
}

func (ex Expectation) String() string {
	return ex.Label + " from " + ex.Rule
}

// ParseError is returned when input does not match grammar.
// It wraps *packrat.Error, so packrat.HasCode can be used with it.
type ParseError struct {
	// Offset is the furthest failure position in codepoints.
	Offset int
	// Line and Col are 1-based, Col is counted in codepoints.
	Line, Col  int
	SourceName string
	// Expected lists expectations recorded at Offset in order of recording.
	Expected []Expectation
	err      *packrat.Error
}

func newParseError(src *source.Source, offset int, expected []Expectation) *ParseError {
	code := UnexpectedInputError
	if offset >= src.Len() {
		code = UnexpectedEofError
	}

	var msg string
	if len(expected) == 0 {
		msg = "unexpected input"
	} else {
		parts := make([]string, len(expected))
		for i, ex := range expected {
			parts[i] = ex.String()
		}
		msg = "expected " + strings.Join(parts, " or ")
	}

	pos := source.NewPos(src, offset)
	return &ParseError{
		Offset:     offset,
		Line:       pos.Line(),
		Col:        pos.Col(),
		SourceName: src.Name(),
		Expected:   expected,
		err:        packrat.FormatErrorPos(pos, code, "%s", msg),
	}
}

func (pe *ParseError) Error() string {
	return pe.err.Message
}

func (pe *ParseError) Unwrap() error {
	return pe.err
}

// Code returns error code.
func (pe *ParseError) Code() int {
	return pe.err.Code
}

func missingActionError(name string) *packrat.Error {
	return packrat.FormatError(MissingActionError, "no implementation for action %q", name)
}

func unknownRuleError(rule, caller string) *packrat.Error {
	return packrat.FormatError(UnknownRuleError, "unknown rule %q called from %q", rule, caller)
}

func patternError(pattern string, e error) *packrat.Error {
	return packrat.FormatError(InvalidPatternError, "cannot compile pattern %q: %s", pattern, e.Error())
}

func nilActionResultError(name string) *packrat.Error {
	return packrat.FormatError(NilActionResultError, "action %q returned nil node", name)
}

func nilExtensionResultError(typ string) *packrat.Error {
	return packrat.FormatError(NilExtensionResultError, "extension for type %q returned nil node", typ)
}

func unknownStatementError(s any) *packrat.Error {
	return packrat.FormatError(UnknownStatementError, "unknown statement type %T", s)
}
