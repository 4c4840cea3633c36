package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ava12/packrat/compiler"
	"github.com/ava12/packrat/internal/test"
)

const greetGrammar = `grammar Greeting
root <- "hello" @" "+ name:[a-z]+
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	name = filepath.Join(dir, name)
	if e := os.WriteFile(name, []byte(content), 0o666); e != nil {
		t.Fatal(e)
	}
	return name
}

func expectContains(t *testing.T, text string, fragments ...string) {
	t.Helper()
	for _, f := range fragments {
		if !strings.Contains(text, f) {
			t.Errorf("expecting %q in output:\n%s", f, text)
		}
	}
}

func TestGenerate(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "greet.peg", greetGrammar)
	params := &generateParams{pkg: "greet", format: formatGo}
	out := &bytes.Buffer{}

	test.ExpectNoError(t, generate(in, params, nil, out))
	content, e := os.ReadFile(filepath.Join(dir, "greet.go"))
	test.ExpectNoError(t, e)
	expectContains(t, string(content),
		"// Code generated by peggen from grammar \"Greeting\". DO NOT EDIT.",
		"package greet",
		"func Parse(input string",
	)

	params.check = true
	test.ExpectNoError(t, generate(in, params, nil, out))
	test.ExpectString(t, "", out.String())

	writeFile(t, dir, "greet.peg", strings.Replace(greetGrammar, `"hello"`, `"hi"`, 1))
	e = generate(in, params, nil, out)
	test.Assert(t, errors.Is(e, errMismatch), "expecting mismatch, got %v", e)
	expectContains(t, out.String(), "greet.go is out of date:", `-`, `+`, `"hi"`)
	test.ExpectInt(t, exitFailure, exitCode(e))
}

func TestGenerateStdout(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "greet.peg", greetGrammar)
	out := &bytes.Buffer{}

	test.ExpectNoError(t, generate(in, &generateParams{output: "-", format: formatGo}, nil, out))
	expectContains(t, out.String(), "package parser")
	_, e := os.Stat(filepath.Join(dir, "greet.go"))
	test.Assert(t, errors.Is(e, os.ErrNotExist), "unexpected output file")
}

func TestGenerateDocument(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "greet.peg", greetGrammar)
	test.ExpectNoError(t, generate(in, &generateParams{format: formatIR}, nil, &bytes.Buffer{}))

	orig, e := loadGrammar(in)
	test.ExpectNoError(t, e)
	loaded, e := loadGrammar(filepath.Join(dir, "greet.yaml"))
	test.ExpectNoError(t, e)
	test.ExpectString(t, orig.String(), loaded.String())
}

func TestGenerateCache(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "greet.peg", greetGrammar)
	cache, e := compiler.NewCache(4)
	test.ExpectNoError(t, e)
	params := &generateParams{output: "-", format: formatGo}

	first, second := &bytes.Buffer{}, &bytes.Buffer{}
	test.ExpectNoError(t, generate(in, params, cache, first))
	test.ExpectNoError(t, generate(in, params, cache, second))
	test.ExpectInt(t, 1, cache.Len())
	test.ExpectString(t, first.String(), second.String())
}

func TestGenerateErrors(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "bad.peg", `root <- missing`)
	e := generate(in, &generateParams{output: "-", format: formatGo}, nil, &bytes.Buffer{})
	test.Assert(t, e != nil, "expecting error")
	test.ExpectInt(t, exitError, exitCode(e))

	in = writeFile(t, dir, "good.peg", greetGrammar)
	e = generate(in, &generateParams{output: "-", format: "json"}, nil, &bytes.Buffer{})
	test.Assert(t, e != nil, "expecting unknown format error")
}

func TestOps(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "greet.peg", greetGrammar)

	out := &bytes.Buffer{}
	test.ExpectNoError(t, printOps(in, &opsParams{format: formatListing}, out))
	expectContains(t, out.String(), "root")

	out.Reset()
	test.ExpectNoError(t, printOps(in, &opsParams{format: formatYAML}, out))
	expectContains(t, out.String(), "procs:")
}

func TestInspect(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "greet.peg", greetGrammar)
	out := &bytes.Buffer{}

	test.ExpectNoError(t, inspect(in, out))
	expectContains(t, out.String(),
		"grammar:     Greeting",
		"root:        root",
		"fingerprint: ",
		"patterns:    ^[",
		"RULE",
		"NULLABLE",
		"false",
	)
}

func TestParse(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "greet.peg", greetGrammar)

	out := &bytes.Buffer{}
	test.ExpectNoError(t, parseInput(in, "", &parseParams{tree: true}, strings.NewReader("hello  bob"), out))
	expectContains(t, out.String(), `"hello"`, `name:("b" "o" "b")`)

	out.Reset()
	test.ExpectNoError(t, parseInput(in, "-", &parseParams{stats: true, noMemo: true}, strings.NewReader("hello bob"), out))
	expectContains(t, out.String(), "ok", "COUNTER", "calls", "memo hits")

	out.Reset()
	e := parseInput(in, "", &parseParams{}, strings.NewReader("hello"), out)
	test.Assert(t, errors.Is(e, errMismatch), "expecting mismatch, got %v", e)
	expectContains(t, out.String(), `expected " " from root at line 1 col 6`)
}

func TestParseMetrics(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "greet.peg", greetGrammar)

	out := &bytes.Buffer{}
	test.ExpectNoError(t, parseInput(in, "", &parseParams{metrics: true}, strings.NewReader("hello bob"), out))
	expectContains(t, out.String(),
		"METRIC",
		"packrat_parses_total",
		"grammar=Greeting,result=success",
		"packrat_rule_calls_total",
		"packrat_input_codepoints_count",
		"packrat_input_codepoints_sum",
	)

	out.Reset()
	unnamed := writeFile(t, dir, "unnamed.peg", `root <- "x"`)
	e := parseInput(unnamed, "", &parseParams{metrics: true}, strings.NewReader("y"), out)
	test.Assert(t, errors.Is(e, errMismatch), "expecting mismatch, got %v", e)
	expectContains(t, out.String(), "grammar=unnamed.peg,result=failure")
}

func TestParseActions(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "list.peg", `root <- item ("," item)* %list
item <- [0-9]+ %number`)
	input := writeFile(t, dir, "input.txt", "1,22,333")

	out := &bytes.Buffer{}
	test.ExpectNoError(t, parseInput(in, input, &parseParams{tree: true}, nil, out))
	expectContains(t, out.String(), `","`, `"3"`)
}

func TestEnvironment(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "greet.peg", greetGrammar)
	input := writeFile(t, dir, "input.txt", "hello world")
	t.Setenv("PEGGEN_PARSE_TREE", "true")
	t.Setenv("PEGGEN_LOG_LEVEL", "debug")

	params := &rootParams{logLevel: "info", logFormat: "text"}
	cmd := newRootCommand(params)
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs([]string{"parse", in, input})

	test.ExpectNoError(t, cmd.Execute())
	test.ExpectString(t, "debug", params.logLevel)
	expectContains(t, out.String(), `name:("w" "o" "r" "l" "d")`)
}

func TestBadEnvironment(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "greet.peg", greetGrammar)
	t.Setenv("PEGGEN_PARSE_NO_MEMO", "maybe")

	cmd := newRootCommand(&rootParams{logLevel: "info", logFormat: "text"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"parse", in})
	e := cmd.Execute()
	test.Assert(t, e != nil, "expecting environment mapping error")
	expectContains(t, e.Error(), "environment variables")
}
