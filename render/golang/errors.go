package golang

import (
	"github.com/ava12/packrat"
	"github.com/ava12/packrat/ops"
)

// Go renderer error codes.
const (
	PackageNameError = packrat.RenderErrors + 10 + iota
	ActionNameError
	MethodCollisionError
	UnknownRuleError
)

func packageNameError(name string) *packrat.Error {
	return packrat.FormatError(PackageNameError, "invalid package name %q", name)
}

func actionNameError(name string) *packrat.Error {
	return packrat.FormatError(ActionNameError, "cannot make Go method name for action %q", name)
}

func methodCollisionError(first, second, method string) *packrat.Error {
	return packrat.FormatError(MethodCollisionError, "actions %q and %q both map to method %s", first, second, method)
}

func unknownRuleError(name string) *packrat.Error {
	return packrat.FormatError(UnknownRuleError, "call of unknown rule %q", name)
}

func unknownStatementError(s any) *packrat.Error {
	return packrat.FormatError(ops.UnknownStatementError, "unknown statement type %T", s)
}

func writeError(e error) *packrat.Error {
	return packrat.FormatError(ops.WriteError, "cannot write output: %s", e.Error())
}

func sourceFormatError(e error) *packrat.Error {
	return packrat.FormatError(ops.SourceFormatError, "generated source is malformed: %s", e.Error())
}
