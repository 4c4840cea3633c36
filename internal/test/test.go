package test

import (
	"fmt"
	"runtime"
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/multierr"

	"github.com/ava12/packrat"
)

func fatalf(t *testing.T, message string, params ...any) {
	t.Helper()
	if len(params) > 0 {
		message = fmt.Sprintf(message, params...)
	}
	_, thisFile, _, _ := runtime.Caller(0)
	file := thisFile
	line := 0
	for i := 2; file == thisFile; i++ {
		_, file, line, _ = runtime.Caller(i)
	}
	t.Fatalf("%s at %s:%d", message, file, line)
}

func Assert(t *testing.T, cond bool, message string, params ...any) {
	if !cond {
		fatalf(t, message, params...)
	}
}

func Expect(t *testing.T, cond bool, expected, got any) {
	if !cond {
		fatalf(t, "expecting %v, got %v", expected, got)
	}
}

func ExpectBool(t *testing.T, expected, got bool) {
	Expect(t, expected == got, expected, got)
}

func ExpectInt(t *testing.T, expected, got int) {
	Expect(t, expected == got, expected, got)
}

func ExpectString(t *testing.T, expected, got string) {
	if expected != got {
		fatalf(t, "expecting %q, got %q", expected, got)
	}
}

// ExpectEqual compares values with cmp.Diff.
func ExpectEqual(t *testing.T, expected, got any, opts ...cmp.Option) {
	if diff := cmp.Diff(expected, got, opts...); diff != "" {
		fatalf(t, "unexpected result (-want +got):\n%s", diff)
	}
}

func ExpectNoError(t *testing.T, e error) {
	if e != nil {
		fatalf(t, "unexpected error: %s", e.Error())
	}
}

// ExpectErrorCode succeeds if e (or one of combined errors) is *packrat.Error with expected code.
func ExpectErrorCode(t *testing.T, expected int, e error) {
	for _, ee := range multierr.Errors(e) {
		if packrat.HasCode(ee, expected) {
			return
		}
	}

	fatalf(t, "expecting error code %d, got %v", expected, e)
}

// ErrorCodes returns codes of all *packrat.Error values combined in e.
func ErrorCodes(e error) []int {
	var res []int
	for _, ee := range multierr.Errors(e) {
		if pe, f := ee.(*packrat.Error); f {
			res = append(res, pe.Code)
		}
	}
	return res
}
