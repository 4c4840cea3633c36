// Package source defines source text used by lexer and parser.
// All positions are codepoint offsets, not byte offsets.
package source

import (
	"sort"
	"unicode/utf8"
)

// Source holds named source text decoded into codepoints.
// Source is immutable and safe for concurrent use.
type Source struct {
	name       string
	text       string
	runes      []rune
	lineStarts []int
}

// New creates new Source. Invalid UTF-8 sequences are decoded as utf8.RuneError, one codepoint per byte.
func New(name string, content []byte) *Source {
	return NewString(name, string(content))
}

// NewString creates new Source from string content.
func NewString(name, content string) *Source {
	s := &Source{name: name, text: content}
	s.runes = make([]rune, 0, utf8.RuneCountInString(content))
	s.lineStarts = []int{0}
	for _, r := range content {
		s.runes = append(s.runes, r)
		if r == '\n' {
			s.lineStarts = append(s.lineStarts, len(s.runes))
		}
	}

	return s
}

// Name returns source name, may be empty.
func (s *Source) Name() string {
	return s.name
}

// Text returns source content as it was passed to constructor.
func (s *Source) Text() string {
	return s.text
}

// Runes returns decoded source content. The slice must not be modified.
func (s *Source) Runes() []rune {
	return s.runes
}

// Len returns source length in codepoints.
func (s *Source) Len() int {
	return len(s.runes)
}

// Slice returns text between start and end codepoint offsets, both are clamped to source bounds.
func (s *Source) Slice(start, end int) string {
	l := len(s.runes)
	if end > l {
		end = l
	}
	if start < 0 {
		start = 0
	}
	if start >= end {
		return ""
	}

	return string(s.runes[start:end])
}

// LineCol returns 1-based line and column numbers for codepoint offset.
// Offsets outside source bounds are clamped.
func (s *Source) LineCol(pos int) (line, col int) {
	if pos < 0 {
		pos = 0
	} else if pos > len(s.runes) {
		pos = len(s.runes)
	}

	lineIndex := s.findLineIndex(pos)
	return lineIndex + 1, pos - s.lineStarts[lineIndex] + 1
}

// Pos returns codepoint offset for 1-based line and column numbers.
// Returns 0 for non-positive arguments, source length if position is beyond the end of source.
func (s *Source) Pos(line, col int) int {
	if line <= 0 || col <= 0 {
		return 0
	}

	l := len(s.runes)
	if line > len(s.lineStarts) {
		return l
	}

	res := s.lineStarts[line-1] + col - 1
	if res > l {
		return l
	} else {
		return res
	}
}

func (s *Source) findLineIndex(pos int) int {
	return sort.Search(len(s.lineStarts), func(i int) bool {
		return s.lineStarts[i] > pos
	}) - 1
}

// Pos describes a position in source, it implements packrat.SourcePos.
type Pos struct {
	src            *Source
	pos, line, col int
}

// NewPos creates position descriptor for given codepoint offset.
func NewPos(src *Source, pos int) Pos {
	res := Pos{src: src, pos: pos}
	if src != nil {
		res.line, res.col = src.LineCol(pos)
	}
	return res
}

// Source returns source or nil.
func (p Pos) Source() *Source {
	return p.src
}

// SourceName returns source name or empty string.
func (p Pos) SourceName() string {
	if p.src == nil {
		return ""
	}
	return p.src.Name()
}

// Pos returns codepoint offset.
func (p Pos) Pos() int {
	return p.pos
}

// Line returns 1-based line number or 0 if source is unknown.
func (p Pos) Line() int {
	return p.line
}

// Col returns 1-based column number or 0 if source is unknown.
func (p Pos) Col() int {
	return p.col
}
