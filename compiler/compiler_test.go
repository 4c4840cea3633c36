package compiler

import (
	"bytes"
	"strings"
	"testing"

	"github.com/ava12/packrat/grammar"
	"github.com/ava12/packrat/internal/logging"
	"github.com/ava12/packrat/internal/test"
	"github.com/ava12/packrat/ops"
)

func lit(text string) *grammar.Literal {
	return &grammar.Literal{Text: text}
}

func ref(name string) *grammar.Reference {
	return &grammar.Reference{Name: name}
}

func seq(items ...grammar.Expr) *grammar.Sequence {
	return &grammar.Sequence{Items: items}
}

func TestLiteralListing(t *testing.T) {
	g := &grammar.Grammar{Name: "g", Rules: []grammar.Rule{{"a", lit("x")}}}
	p, e := Compile(g)
	test.ExpectNoError(t, e)

	expected := `grammar g
root a

proc a {
  var c1 cursor
  var n2 node
  var s3 chunk
  c1 = cursor
  n2 = failure
  memo.lookup a at c1 -> n2
  s3 = chunk 1
  if s3 == "x" {
    n2 = node cursor +1
  } else {
    n2 = fail "\"x\""
  }
  memo.store a at c1 <- n2
  return n2
}
`
	test.ExpectString(t, expected, ops.String(p))
}

func TestSequenceEmission(t *testing.T) {
	g := &grammar.Grammar{Rules: []grammar.Rule{
		{"pair", &grammar.Sequence{
			Items: []grammar.Expr{lit("("), ref("key"), &grammar.Labeled{Label: "v", Expr: ref("key")}, ref("sep"), lit(")")},
			Muted: []bool{true, false, false, false, true},
		}},
		{"key", &grammar.Class{Ranges: []grammar.Range{{'a', 'z'}}}},
		{"sep", lit(",")},
	}}
	p, e := Compile(g)
	test.ExpectNoError(t, e)

	var node *ops.MakeNode
	var listSize, sets, calls int
	ops.Walk(p.Proc("pair").Body, func(s ops.Stmt) bool {
		switch x := s.(type) {
		case *ops.MakeNode:
			node = x
		case *ops.Alloc:
			if x.Init == ops.InitList {
				listSize = x.N
			}
		case *ops.ListSet:
			sets++
		case *ops.Call:
			calls++
		}
		return true
	})

	test.ExpectInt(t, 3, listSize)
	test.ExpectInt(t, 3, sets)
	test.ExpectInt(t, 3, calls)
	test.Assert(t, node != nil, "no node statement")
	test.ExpectEqual(t, []ops.Label{{Name: "key", Index: 0}, {Name: "v", Index: 1}, {Name: "sep", Index: 2}}, node.Labels)
}

func TestImplicitLabels(t *testing.T) {
	samples := []struct {
		s        *grammar.Sequence
		expected []ops.Label
	}{
		{seq(ref("a"), ref("a")), nil},
		{seq(ref("a"), &grammar.Labeled{Label: "a", Expr: lit("x")}), []ops.Label{{Name: "a", Index: 1}}},
		{seq(ref("a"), ref("b")), []ops.Label{{Name: "a", Index: 0}, {Name: "b", Index: 1}}},
		{&grammar.Sequence{Items: []grammar.Expr{ref("a"), ref("b")}, Muted: []bool{true, false}}, []ops.Label{{Name: "b", Index: 0}}},
	}

	for _, s := range samples {
		test.ExpectEqual(t, s.expected, sequenceLabels(s.s))
	}
}

func TestTablesOrder(t *testing.T) {
	digit := &grammar.Class{Ranges: []grammar.Range{{'0', '9'}}}
	g := &grammar.Grammar{Rules: []grammar.Rule{
		{"a", seq(
			&grammar.Extension{Type: "T2", Expr: &grammar.Action{Name: "z", Expr: ref("b")}},
			&grammar.Action{Name: "y", Expr: digit},
			&grammar.Class{Ranges: []grammar.Range{{'a', 'a'}}},
		)},
		{"b", &grammar.Extension{Type: "T1", Expr: &grammar.Action{Name: "z", Expr: seq(digit, &grammar.Any{})}}},
	}}

	p, e := Compile(g)
	test.ExpectNoError(t, e)
	test.ExpectEqual(t, []string{"z", "y"}, p.Actions)
	test.ExpectEqual(t, []string{"T2", "T1"}, p.Types)
	test.ExpectEqual(t, []string{`^[\x{30}-\x{39}]`, `^[\x{61}]`}, p.Patterns)
}

func TestActionFolding(t *testing.T) {
	g := &grammar.Grammar{Rules: []grammar.Rule{
		{"a", &grammar.Choice{Alternatives: []grammar.Expr{
			&grammar.Action{Name: "lit", Expr: lit("x")},
			&grammar.Action{Name: "ref", Expr: ref("b")},
		}}},
		{"b", lit("y")},
	}}
	p, e := Compile(g)
	test.ExpectNoError(t, e)

	actions := map[string]int{}
	ops.Walk(p.Proc("a").Body, func(s ops.Stmt) bool {
		if n, f := s.(*ops.MakeNode); f {
			actions[n.Action]++
			if n.Action == "ref" {
				test.Assert(t, n.Children.Valid(), "wrapped reference has no children")
			}
			if n.Action == "lit" {
				test.ExpectInt(t, 1, n.Advance)
			}
		}
		return true
	})
	test.ExpectEqual(t, map[string]int{"lit": 1, "ref": 1}, actions)
}

func TestDeterminism(t *testing.T) {
	build := func() *grammar.Grammar {
		return &grammar.Grammar{Name: "d", Rules: []grammar.Rule{
			{"list", seq(ref("item"), &grammar.Repetition{Expr: seq(lit(","), ref("item")), Max: grammar.Unbounded})},
			{"item", &grammar.Choice{Alternatives: []grammar.Expr{
				&grammar.Repetition{Expr: &grammar.Class{Ranges: []grammar.Range{{'0', '9'}}}, Min: 1, Max: 3},
				&grammar.Sequence{Items: []grammar.Expr{&grammar.Lookahead{Expr: lit("x"), Negative: true}, &grammar.Any{}}},
			}}},
		}}
	}

	p1, e := Compile(build())
	test.ExpectNoError(t, e)
	p2, e := Compile(build())
	test.ExpectNoError(t, e)
	test.ExpectString(t, ops.String(p1), ops.String(p2))
	test.Assert(t, ops.Fingerprint(p1) == ops.Fingerprint(p2), "fingerprints differ")

	d1, e := ops.Dump(p1)
	test.ExpectNoError(t, e)
	d2, _ := ops.Dump(p2)
	test.Assert(t, bytes.Equal(d1, d2), "dumps differ")
}

func TestRepetitionEmission(t *testing.T) {
	g := &grammar.Grammar{Rules: []grammar.Rule{
		{"r", &grammar.Repetition{Expr: lit("a"), Min: 3, Max: 5}},
	}}
	p, e := Compile(g)
	test.ExpectNoError(t, e)
	listing := ops.String(p)
	for _, frag := range []string{"loop {", "if len l4 == 5 {", "break", "if len l4 >= 3 {", "cursor = c3"} {
		test.Assert(t, strings.Contains(listing, frag), "%q not found in listing:\n%s", frag, listing)
	}
}

func TestValidationErrors(t *testing.T) {
	g := &grammar.Grammar{Rules: []grammar.Rule{{"a", ref("b")}, {"a", lit("x")}}}
	_, e := Compile(g)
	test.ExpectErrorCode(t, grammar.UndefinedRuleError, e)
	test.ExpectErrorCode(t, grammar.DuplicateRuleError, e)
}

func TestLogger(t *testing.T) {
	buf := &bytes.Buffer{}
	l, _ := logging.New(buf, "debug", "text")
	g := &grammar.Grammar{Rules: []grammar.Rule{{"a", lit("x")}}}
	_, e := Compile(g, WithLogger(l))
	test.ExpectNoError(t, e)
	test.Assert(t, strings.Contains(buf.String(), "rule=a"), "no rule entry in log: %q", buf.String())
}

func TestCache(t *testing.T) {
	c, e := NewCache(2)
	test.ExpectNoError(t, e)

	g := func(text string) *grammar.Grammar {
		return &grammar.Grammar{Rules: []grammar.Rule{{"a", lit(text)}}}
	}

	p1, hit, e := c.Compile(g("x"))
	test.ExpectNoError(t, e)
	test.ExpectBool(t, false, hit)
	p2, hit, _ := c.Compile(g("x"))
	test.ExpectBool(t, true, hit)
	test.Assert(t, p1 == p2, "cached program expected")

	c.Compile(g("y"))
	c.Compile(g("z"))
	test.ExpectInt(t, 2, c.Len())
	_, hit, _ = c.Compile(g("x"))
	test.ExpectBool(t, false, hit)

	_, _, e = c.Compile(&grammar.Grammar{})
	test.ExpectErrorCode(t, grammar.EmptyGrammarError, e)

	_, e = NewCache(0)
	test.ExpectErrorCode(t, CacheSizeError, e)
}

func TestCacheDistinguishesStructure(t *testing.T) {
	class := func(r rune) grammar.Expr {
		return &grammar.Class{Ranges: []grammar.Range{{Low: r, High: r}}, Source: "[a]"}
	}
	pairs := [][2]*grammar.Grammar{
		{
			{Rules: []grammar.Rule{{"a", seq(lit("x"))}}},
			{Rules: []grammar.Rule{{"a", lit("x")}}},
		},
		{
			{Rules: []grammar.Rule{{"a", class('a')}}},
			{Rules: []grammar.Rule{{"a", class('b')}}},
		},
	}

	for i, pair := range pairs {
		c, e := NewCache(4)
		test.ExpectNoError(t, e)

		p1, _, e := c.Compile(pair[0])
		test.ExpectNoError(t, e)
		p2, hit, e := c.Compile(pair[1])
		test.ExpectNoError(t, e)
		if hit {
			t.Fatalf("pair #%d: unexpected cache hit", i)
		}
		if ops.String(p1) == ops.String(p2) {
			t.Errorf("pair #%d: expecting different programs, got:\n%s", i, ops.String(p1))
		}
		test.ExpectInt(t, 2, c.Len())
	}
}
