package ops_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/ava12/packrat/internal/test"
	"github.com/ava12/packrat/ops"
)

var (
	c1 = ops.Var{ID: 1, Kind: ops.CursorVar}
	n2 = ops.Var{ID: 2, Kind: ops.NodeVar}
	s3 = ops.Var{ID: 3, Kind: ops.ChunkVar}
)

func sampleProgram() *ops.Program {
	return &ops.Program{
		Grammar:  "G",
		Root:     "r",
		Patterns: []string{"^[a]"},
		Actions:  []string{"act"},
		Procs: []*ops.Proc{{
			Rule: "r",
			Vars: []ops.Var{c1, n2, s3},
			Body: ops.Block{
				&ops.Alloc{Var: c1, Init: ops.InitCursor},
				&ops.Alloc{Var: n2, Init: ops.InitFailure},
				&ops.MemoLookup{Rule: "r", At: c1, Result: n2},
				&ops.Alloc{Var: s3, Init: ops.InitChunk, N: 1},
				&ops.If{
					Cond: &ops.MatchPattern{Chunk: s3, Pattern: 0},
					Then: ops.Block{&ops.MakeNode{Result: n2, Advance: 1, Action: "act"}},
					Else: ops.Block{&ops.Fail{Result: n2, Label: "[a]"}},
				},
				&ops.MemoStore{Rule: "r", At: c1, Result: n2},
				&ops.Return{Result: n2},
			},
		}},
	}
}

const sampleListing = `grammar G
root r
pattern 0 "^[a]"
action act

proc r {
  var c1 cursor
  var n2 node
  var s3 chunk
  c1 = cursor
  n2 = failure
  memo.lookup r at c1 -> n2
  s3 = chunk 1
  if s3 =~ pattern 0 {
    n2 = node cursor +1 %act
  } else {
    n2 = fail "[a]"
  }
  memo.store r at c1 <- n2
  return n2
}
`

func TestListing(t *testing.T) {
	test.ExpectString(t, sampleListing, ops.String(sampleProgram()))

	buf := &bytes.Buffer{}
	quote := ops.EscaperFunc(func(s string) string { return "<" + s + ">" })
	test.ExpectNoError(t, ops.Listing{Escaper: quote}.Render(buf, sampleProgram()))
	test.Assert(t, strings.Contains(buf.String(), `n2 = fail <[a]>`), "custom escaper not used:\n%s", buf.String())
}

func TestVarNames(t *testing.T) {
	test.ExpectString(t, "c1", c1.Name())
	test.ExpectString(t, "n2", n2.String())
	test.ExpectString(t, "_", ops.NoVar.Name())
	test.ExpectBool(t, false, ops.NoVar.Valid())
	test.ExpectString(t, "list", ops.ListVar.String())
	test.ExpectString(t, "VarKind(9)", ops.VarKind(9).String())
}

func TestWalk(t *testing.T) {
	body := sampleProgram().Procs[0].Body

	count := 0
	ops.Walk(body, func(ops.Stmt) bool {
		count++
		return true
	})
	test.ExpectInt(t, 9, count)

	count = 0
	ops.Walk(body, func(s ops.Stmt) bool {
		count++
		_, isIf := s.(*ops.If)
		return !isIf
	})
	test.ExpectInt(t, 7, count)
}

func TestDump(t *testing.T) {
	content, e := ops.Dump(sampleProgram())
	test.ExpectNoError(t, e)
	text := string(content)
	for _, f := range []string{
		"grammar: G",
		"root: r",
		"op: memo-lookup",
		"test: match-pattern",
		"action: act",
		"op: fail",
	} {
		test.Assert(t, strings.Contains(text, f), "expecting %q in dump:\n%s", f, text)
	}
}

func TestFingerprint(t *testing.T) {
	p := sampleProgram()
	test.Expect(t, ops.Fingerprint(p) == ops.Fingerprint(sampleProgram()), ops.Fingerprint(p), ops.Fingerprint(sampleProgram()))

	p.Patterns[0] = "^[b]"
	test.Assert(t, ops.Fingerprint(p) != ops.Fingerprint(sampleProgram()), "fingerprints of different programs are equal")
}

func TestProcLookup(t *testing.T) {
	p := sampleProgram()
	test.Assert(t, p.Proc("r") == p.Procs[0], "wrong procedure")
	test.Assert(t, p.Proc("x") == nil, "unexpected procedure")
}

func TestBadStatement(t *testing.T) {
	p := sampleProgram()
	p.Procs[0].Body[0] = &ops.Alloc{Var: c1}

	_, e := ops.Dump(p)
	test.ExpectErrorCode(t, ops.UnknownStatementError, e)

	e = ops.Listing{}.Render(&bytes.Buffer{}, p)
	test.ExpectErrorCode(t, ops.UnknownStatementError, e)
}
