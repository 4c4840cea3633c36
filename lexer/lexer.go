// Package lexer defines regexp-based lexical analyzer used by grammar description parser.
package lexer

import (
	"fmt"
	"regexp"
	"unicode/utf8"

	"github.com/ava12/packrat"
	"github.com/ava12/packrat/source"
)

const (
	// ErrorTokenType is the type for fake tokens capturing broken lexemes (e.g. incorrect string literals).
	// The purpose of these tokens is to generate more informative error messages.
	// Lexer will never return a token of this type, an error with message containing token text will be returned instead.
	ErrorTokenType = EofTokenType - 1

	// ErrorTokenName is the type name for ErrorTokenType.
	ErrorTokenName = "-error-"
)

// Error codes used by lexer:
const (
	// WrongCharError indicates that lexer cannot fetch any token at current position.
	// Error message contains the rune at current source position.
	WrongCharError = packrat.LangDefErrors + 50 + iota

	// BadTokenError indicates that lexer has fetched a token of ErrorTokenType.
	BadTokenError
)

// TokenType describes token type for specific capturing group of regular expression.
type TokenType struct {
	// Type contains token type, non-negative value or ErrorTokenType.
	Type int

	// TypeName contains token type name, may be any value.
	TypeName string
}

// Lexer performs lexical analysis of sources using regexp.Regexp.
// Lexer itself is immutable and safe for concurrent use, all scanning state is kept by Scanner.
// Each token type that may be returned by lexer maps to its own regexp capturing group index.
// A match containing no captured groups is treated as insignificant lexeme (e.g. whitespace),
// in this case lexer tries to fetch a token again at new position.
// Every char of source must belong to some lexeme.
type Lexer struct {
	types []TokenType
	re    *regexp.Regexp
}

// New creates new Lexer.
// Each n-th element of types describes token type for (n+1)-th regexp capturing group.
// A group that has no description or that has negative token type is treated as ErrorTokenType.
func New(re *regexp.Regexp, types []TokenType) *Lexer {
	ts := make([]TokenType, len(types))
	for i, t := range types {
		ts[i].TypeName = t.TypeName
		if t.Type >= 0 {
			ts[i].Type = t.Type
		} else {
			ts[i].Type = ErrorTokenType
		}
	}
	return &Lexer{types: ts, re: re}
}

// Scanner fetches tokens from a single source.
type Scanner struct {
	lexer   *Lexer
	src     *source.Source
	text    string
	bytePos int
	pos     int
}

// Scan creates scanner for src starting at the beginning of source.
func (l *Lexer) Scan(src *source.Source) *Scanner {
	return &Scanner{lexer: l, src: src, text: src.Text()}
}

func wrongCharError(src *source.Source, content string, pos int) *packrat.Error {
	r, _ := utf8.DecodeRuneInString(content)
	return packrat.FormatErrorPos(source.NewPos(src, pos), WrongCharError, "wrong char \"%c\" (u+%x)", r, r)
}

func wrongTokenError(t *Token) *packrat.Error {
	return packrat.FormatErrorPos(t, BadTokenError, "bad token %q", t.Text())
}

func (s *Scanner) skip(byteLen int) {
	s.pos += utf8.RuneCountInString(s.text[s.bytePos : s.bytePos+byteLen])
	s.bytePos += byteLen
}

func (s *Scanner) matchToken() (*Token, error) {
	l := s.lexer
	content := s.text[s.bytePos:]
	match := l.re.FindStringSubmatchIndex(content)
	if len(match) == 0 || match[0] != 0 || match[1] <= match[0] {
		return nil, wrongCharError(s.src, content, s.pos)
	}

	for i := 2; i < len(match); i += 2 {
		if match[i] < 0 || match[i+1] < 0 {
			continue
		}

		tokenType := ErrorTokenType
		typeName := ErrorTokenName
		if len(l.types) >= (i >> 1) {
			tokenType = l.types[(i>>1)-1].Type
			typeName = l.types[(i>>1)-1].TypeName
		}
		offset := s.pos + utf8.RuneCountInString(content[:match[i]])
		token := NewToken(tokenType, typeName, content[match[i]:match[i+1]], source.NewPos(s.src, offset))
		if tokenType == ErrorTokenType {
			return nil, wrongTokenError(token)
		}

		s.skip(match[1])
		return token, nil
	}

	s.skip(match[1])
	return nil, nil
}

// Next fetches token starting at current source position and advances current position.
// Returns nil token and *packrat.Error and does not make any changes if there is a lexical error.
// Returns EoF token if current position is at the end of source.
func (s *Scanner) Next() (*Token, error) {
	for {
		if s.bytePos >= len(s.text) {
			return EofToken(s.src), nil
		}

		t, e := s.matchToken()
		if t != nil || e != nil {
			return t, e
		}
	}
}

// Pos returns current codepoint offset.
func (s *Scanner) Pos() int {
	return s.pos
}

func (t *Token) String() string {
	if t.text == "" {
		return t.typeName
	}
	return fmt.Sprintf("%s %q", t.typeName, t.text)
}
