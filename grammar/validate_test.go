package grammar

import (
	"strings"
	"testing"

	"go.uber.org/multierr"

	"github.com/ava12/packrat"
	"github.com/ava12/packrat/internal/test"
)

func checkValidation(t *testing.T, code int, samples ...*Grammar) {
	t.Helper()
	for i, g := range samples {
		e := g.Validate()
		if code == 0 {
			if e != nil {
				t.Errorf("sample #%d: unexpected error: %s", i, e.Error())
			}
			continue
		}

		found := false
		for _, c := range test.ErrorCodes(e) {
			found = found || c == code
		}
		if !found {
			t.Errorf("sample #%d: expecting error code %d, got %v", i, code, e)
		}
	}
}

func rules(pairs ...any) *Grammar {
	g := &Grammar{}
	for i := 0; i < len(pairs); i += 2 {
		var e Expr
		if pairs[i+1] != nil {
			e = pairs[i+1].(Expr)
		}
		g.Rules = append(g.Rules, Rule{pairs[i].(string), e})
	}
	return g
}

func TestValidGrammars(t *testing.T) {
	checkValidation(t, 0,
		rules("root", seq(lit("foo"), lit("bar"))),
		rules("list", seq(ref("item"), &Repetition{Expr: seq(lit(","), ref("item")), Max: Unbounded}), "item", &Class{Ranges: []Range{{'a', 'z'}}}),
		rules("expr", alt(seq(lit("("), ref("expr"), lit(")")), lit("x"))),
		rules("opt", &Repetition{Expr: &Repetition{Expr: lit("a"), Max: Unbounded}, Max: 1}),
		rules("la", seq(&Lookahead{Expr: ref("la2")}, ref("la2")), "la2", lit("x")),
	)
}

func TestEmptyGrammar(t *testing.T) {
	checkValidation(t, EmptyGrammarError, &Grammar{})
}

func TestDuplicateRule(t *testing.T) {
	checkValidation(t, DuplicateRuleError, rules("a", lit("a"), "a", lit("b")))
}

func TestUndefinedRule(t *testing.T) {
	checkValidation(t, UndefinedRuleError,
		rules("a", ref("b")),
		rules("a", seq(lit("x"), &Labeled{Label: "l", Expr: ref("c")})),
	)
}

func TestUndefinedRoot(t *testing.T) {
	g := rules("a", lit("a"))
	g.Root = "start"
	checkValidation(t, UndefinedRootError, g)
}

func TestEmptyNames(t *testing.T) {
	checkValidation(t, EmptyNameError,
		rules("", lit("a")),
		rules("a", ref("")),
		rules("a", &Labeled{Expr: lit("a")}),
		rules("a", &Action{Expr: lit("a")}),
		rules("a", &Extension{Expr: lit("a")}),
	)
}

func TestNilAndEmptyExpressions(t *testing.T) {
	checkValidation(t, NilExpressionError,
		rules("a", nil),
		rules("a", seq(lit("a"), nil)),
		rules("a", &Repetition{Max: Unbounded}),
	)
	checkValidation(t, EmptyExpressionError,
		rules("a", seq()),
		rules("a", alt()),
	)
	checkValidation(t, MuteFlagsError, rules("a", &Sequence{Items: []Expr{lit("a")}, Muted: []bool{true, false}}))
}

func TestMalformedClass(t *testing.T) {
	checkValidation(t, MalformedClassError,
		rules("a", &Class{}),
		rules("a", &Class{Ranges: []Range{{'z', 'a'}}}),
		rules("a", &Class{Ranges: []Range{{-1, 'a'}}}),
		rules("a", &Class{Ranges: []Range{{0xd800, 0xd800}}}),
	)
}

func TestRepetitionBounds(t *testing.T) {
	checkValidation(t, RepetitionBoundsError,
		rules("a", &Repetition{Expr: lit("a"), Min: -1, Max: Unbounded}),
		rules("a", &Repetition{Expr: lit("a"), Min: 3, Max: 2}),
		rules("a", &Repetition{Expr: lit("a"), Min: 0, Max: 0}),
	)
}

func TestLeftRecursion(t *testing.T) {
	checkValidation(t, LeftRecursionError,
		rules("a", seq(ref("a"), lit("x"))),
		rules("a", alt(lit("x"), seq(ref("b"), lit("y"))), "b", ref("a")),
		rules("a", seq(&Repetition{Expr: lit("x"), Max: Unbounded}, ref("a"))),
		rules("a", seq(&Lookahead{Expr: lit("x")}, ref("a"))),
		rules("a", &Lookahead{Expr: ref("a"), Negative: true}),
	)

	g := rules("a", ref("b"), "b", seq(ref("c"), lit("x")), "c", alt(ref("b"), lit("y")), "d", lit("d"))
	lr := Analyze(g).LeftRecursive()
	test.ExpectString(t, "b c", strings.Join(lr, " "))
}

func TestNullableRepetition(t *testing.T) {
	checkValidation(t, NullableRepetitionError,
		rules("a", &Repetition{Expr: lit(""), Max: Unbounded}),
		rules("a", &Repetition{Expr: ref("b"), Min: 1, Max: Unbounded}, "b", &Repetition{Expr: lit("x"), Max: 1}),
		rules("a", &Repetition{Expr: &Lookahead{Expr: lit("x")}, Max: Unbounded}),
	)
}

func TestNullable(t *testing.T) {
	g := rules(
		"a", seq(ref("b"), ref("c")),
		"b", &Repetition{Expr: lit("x"), Max: Unbounded},
		"c", alt(lit("y"), &Lookahead{Expr: lit("z")}),
		"d", seq(ref("a"), &Any{}),
	)
	a := Analyze(g)
	test.ExpectBool(t, true, a.NullableRule("a"))
	test.ExpectBool(t, true, a.NullableRule("b"))
	test.ExpectBool(t, true, a.NullableRule("c"))
	test.ExpectBool(t, false, a.NullableRule("d"))
	test.ExpectString(t, "a", strings.Join(a.LeftCalls(g.Rules[3].Expr), " "))
	test.ExpectString(t, "b c", strings.Join(a.LeftCalls(g.Rules[0].Expr), " "))
}

func TestAllErrorsReported(t *testing.T) {
	g := rules("a", seq(ref("bb"), &Class{}), "a", ref("c"), "bbb", lit("x"))
	e := g.Validate()
	errs := multierr.Errors(e)
	test.ExpectInt(t, 4, len(errs))
	test.ExpectInt(t, DuplicateRuleError, errs[0].(*packrat.Error).Code)
	test.ExpectErrorCode(t, UndefinedRuleError, e)
	test.ExpectErrorCode(t, MalformedClassError, e)
	test.Assert(t, strings.Contains(e.Error(), "did you mean bbb?"), "no suggestion in %q", e.Error())
}
