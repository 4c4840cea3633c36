package golang

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/ava12/packrat/internal/test"
	"github.com/ava12/packrat/parser"
	"github.com/ava12/packrat/tree"
)

const listGrammar = `
	grammar List

	list <- item (@"," @_ item)*
	item <- num / word / bad
	num  <- [0-9]+ %number
	word <- ([a-z] / "ä")+ <Word>
	bad  <- "!" %fail / "?" ("?" / "x")
	_    <- [ \n]*
`

// driverSource is compiled together with generated parser, it reads JSON array of inputs
// from stdin and writes parse results to stdout.
const driverSource = `package main

import (
	"encoding/json"
	"errors"
	"os"
)

type actions struct{}

func (actions) Number(input string, start, end int, elements []TreeNode) (TreeNode, error) {
	return &Node{text: string([]rune(input)[start:end]), offset: start, end: end, children: elements}, nil
}

func (actions) Fail(string, int, int, []TreeNode) (TreeNode, error) {
	return nil, errors.New("boom")
}

type outcome struct {
	Start, End        int
	Failed            bool
	Offset, Line, Col int
	Expected          []Expectation
	ActionError       string
}

type results struct {
	Outcomes     []outcome
	NilActions   string
	NilExtension string
}

func errorText(e error) string {
	if e == nil {
		return ""
	}
	return e.Error()
}

func main() {
	var inputs []string
	if e := json.NewDecoder(os.Stdin).Decode(&inputs); e != nil {
		panic(e)
	}

	var res results
	for _, input := range inputs {
		var o outcome
		root, e := Parse(input, actions{}, nil)
		var pe *ParseError
		switch {
		case e == nil:
			o.Start, o.End = root.Offset(), root.End()
		case errors.As(e, &pe):
			o.Failed, o.Offset, o.Line, o.Col, o.Expected = true, pe.Offset, pe.Line, pe.Col, pe.Expected
		default:
			o.ActionError = e.Error()
		}
		res.Outcomes = append(res.Outcomes, o)
	}

	_, e := Parse("1", nil, nil)
	res.NilActions = errorText(e)
	_, e = Parse("ab", actions{}, map[string]func(TreeNode) TreeNode{"Word": func(TreeNode) TreeNode { return nil }})
	res.NilExtension = errorText(e)

	if e = json.NewEncoder(os.Stdout).Encode(res); e != nil {
		panic(e)
	}
}
`

type expectation struct {
	Rule, Label string
}

type outcome struct {
	Start, End        int
	Failed            bool
	Offset, Line, Col int
	Expected          []expectation
	ActionError       string
}

type results struct {
	Outcomes     []outcome
	NilActions   string
	NilExtension string
}

var listActions = parser.Actions{
	"number": func(input string, start, end int, elements []tree.Node) (tree.Node, error) {
		return tree.New(string([]rune(input)[start:end]), start, end, elements, nil), nil
	},
	"fail": func(string, int, int, []tree.Node) (tree.Node, error) {
		return nil, errors.New("boom")
	},
}

func parseOutcome(p *parser.Parser, input string) outcome {
	var o outcome
	root, e := p.Parse(input)
	var pe *parser.ParseError
	switch {
	case e == nil:
		o.Start, o.End = root.Offset(), root.End()
	case errors.As(e, &pe):
		o.Failed, o.Offset, o.Line, o.Col = true, pe.Offset, pe.Line, pe.Col
		for _, ex := range pe.Expected {
			o.Expected = append(o.Expected, expectation{ex.Rule, ex.Label})
		}
	default:
		o.ActionError = e.Error()
	}
	return o
}

// runGenerated builds generated parser with driver and returns driver output.
func runGenerated(t *testing.T, src []byte, inputs []string) results {
	t.Helper()
	goBin, e := exec.LookPath("go")
	if e != nil {
		t.Skip("go command not found")
	}

	dir := t.TempDir()
	test.ExpectNoError(t, os.WriteFile(filepath.Join(dir, "parser.go"), src, 0o644))
	test.ExpectNoError(t, os.WriteFile(filepath.Join(dir, "main.go"), []byte(driverSource), 0o644))

	data, e := json.Marshal(inputs)
	test.ExpectNoError(t, e)

	stderr := &bytes.Buffer{}
	cmd := exec.Command(goBin, "run", "main.go", "parser.go")
	cmd.Dir = dir
	cmd.Stdin = bytes.NewReader(data)
	cmd.Stderr = stderr
	out, e := cmd.Output()
	if e != nil {
		t.Fatalf("cannot run generated parser: %s\n%s", e, stderr)
	}

	var res results
	if e = json.Unmarshal(out, &res); e != nil {
		t.Fatalf("malformed driver output: %s\n%s", e, out)
	}
	return res
}

func TestGeneratedParserMatchesRuntime(t *testing.T) {
	if testing.Short() {
		t.Skip("building generated parser is slow")
	}

	prog := compile(t, listGrammar)
	src, e := New("main").Source(prog)
	test.ExpectNoError(t, e)

	inputs := []string{
		"12",
		"12, ab",
		"",
		"12,",
		"1x",
		"ab,!",
		"?x, 3",
		"12,\n ab,??",
		"äb,\n\n$",
		"12,ab?",
		"?y",
	}
	got := runGenerated(t, src, inputs)

	rt, e := parser.New(prog, &parser.Hooks{Actions: listActions})
	test.ExpectNoError(t, e)
	expected := make([]outcome, len(inputs))
	for i, input := range inputs {
		expected[i] = parseOutcome(rt, input)
	}
	test.ExpectString(t, "boom", expected[5].ActionError)
	test.ExpectBool(t, true, expected[8].Failed)
	test.ExpectEqual(t, expected, got.Outcomes, cmpopts.EquateEmpty())

	test.ExpectString(t, `no actions for grammar "List"`, got.NilActions)

	rt, e = parser.New(prog, &parser.Hooks{
		Actions:    listActions,
		Extensions: parser.Extensions{"Word": func(tree.Node) tree.Node { return nil }},
	})
	test.ExpectNoError(t, e)
	_, e = rt.Parse("ab")
	test.Assert(t, e != nil, "nil extension result accepted")
	test.ExpectString(t, e.Error(), got.NilExtension)
}
