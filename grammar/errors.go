package grammar

import (
	"strings"

	"github.com/ava12/packrat"
)

// Grammar validation error codes.
const (
	EmptyGrammarError = packrat.GrammarErrors + iota
	EmptyNameError
	DuplicateRuleError
	UndefinedRuleError
	UndefinedRootError
	NilExpressionError
	EmptyExpressionError
	MalformedClassError
	RepetitionBoundsError
	MuteFlagsError
	LeftRecursionError
	NullableRepetitionError
)

func emptyGrammarError() *packrat.Error {
	return packrat.FormatError(EmptyGrammarError, "grammar contains no rules")
}

func emptyNameError(rule, what string) *packrat.Error {
	return packrat.FormatError(EmptyNameError, "empty %s name in rule %q", what, rule)
}

func duplicateRuleError(name string) *packrat.Error {
	return packrat.FormatError(DuplicateRuleError, "rule %q already defined", name)
}

func undefinedRuleError(rule, name string, suggestions []string) *packrat.Error {
	msg := "undefined rule %q referenced in rule %q"
	if len(suggestions) > 0 {
		msg += " (did you mean " + strings.Join(suggestions, " or ") + "?)"
	}
	return packrat.FormatError(UndefinedRuleError, msg, name, rule)
}

func undefinedRootError(name string) *packrat.Error {
	return packrat.FormatError(UndefinedRootError, "root rule %q is not defined", name)
}

func nilExpressionError(rule string) *packrat.Error {
	return packrat.FormatError(NilExpressionError, "missing expression in rule %q", rule)
}

func emptyExpressionError(rule string, kind Kind) *packrat.Error {
	return packrat.FormatError(EmptyExpressionError, "empty %s in rule %q", kind, rule)
}

func malformedClassError(rule, class, reason string) *packrat.Error {
	return packrat.FormatError(MalformedClassError, "malformed character class %s in rule %q: %s", class, rule, reason)
}

func repetitionBoundsError(rule string, min, max int) *packrat.Error {
	return packrat.FormatError(RepetitionBoundsError, "invalid repetition bounds {%d,%d} in rule %q", min, max, rule)
}

func muteFlagsError(rule string) *packrat.Error {
	return packrat.FormatError(MuteFlagsError, "mute flags do not match sequence items in rule %q", rule)
}

func leftRecursionError(names []string) *packrat.Error {
	return packrat.FormatError(LeftRecursionError, "found left-recursive rules: %s", strings.Join(names, ", "))
}

func nullableRepetitionError(rule string, e Expr) *packrat.Error {
	return packrat.FormatError(NullableRepetitionError, "unbounded repetition of expression matching empty input in rule %q: %s", rule, e)
}
