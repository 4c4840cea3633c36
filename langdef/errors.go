package langdef

import (
	"github.com/ava12/packrat"
	"github.com/ava12/packrat/lexer"
)

const (
	UnexpectedEofError = packrat.LangDefErrors + iota
	UnexpectedTokenError
	InvalidEscapeError
	InvalidRuneError
	MalformedClassError
	RepetitionBoundsError
)

func eofError(token *lexer.Token) *packrat.Error {
	return packrat.FormatErrorPos(token, UnexpectedEofError, "unexpected EoF")
}

func unexpectedTokenError(token *lexer.Token) *packrat.Error {
	return packrat.FormatErrorPos(token, UnexpectedTokenError, "unexpected %s", token.String())
}

func invalidEscapeError(token *lexer.Token, seq string) *packrat.Error {
	return packrat.FormatErrorPos(token, InvalidEscapeError, "invalid escape sequence %q", seq)
}

func invalidRuneError(token *lexer.Token, hex string) *packrat.Error {
	return packrat.FormatErrorPos(token, InvalidRuneError, "invalid code point u+%s", hex)
}

func malformedClassError(token *lexer.Token, msg string) *packrat.Error {
	return packrat.FormatErrorPos(token, MalformedClassError, "malformed character class %s: %s", token.Text(), msg)
}

func repetitionBoundsError(token *lexer.Token) *packrat.Error {
	return packrat.FormatErrorPos(token, RepetitionBoundsError, "incorrect repetition bounds %s", token.Text())
}
