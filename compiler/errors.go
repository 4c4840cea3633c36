package compiler

import (
	"github.com/ava12/packrat"
)

const (
	InvalidPatternError = packrat.GrammarErrors + 50 + iota
	CacheSizeError
)

func patternError(pattern string, e error) *packrat.Error {
	return packrat.FormatError(InvalidPatternError, "cannot compile pattern %q: %s", pattern, e.Error())
}

func cacheSizeError(size int) *packrat.Error {
	return packrat.FormatError(CacheSizeError, "invalid cache size %d", size)
}
