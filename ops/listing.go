package ops

import (
	"bytes"
	"fmt"
	"io"
	"strings"
)

// Listing renders program as human readable text. Output is deterministic.
type Listing struct {
	// Escaper quotes literal text, GoEscaper is used if nil.
	Escaper Escaper
}

// Render implements Renderer.
func (l Listing) Render(w io.Writer, p *Program) (e error) {
	esc := l.Escaper
	if esc == nil {
		esc = GoEscaper
	}

	defer func() {
		if r := recover(); r != nil {
			re, f := r.(error)
			if !f {
				panic(r)
			}
			e = re
		}
	}()

	lw := &listingWriter{esc: esc}
	lw.program(p)
	_, e = w.Write(lw.buffer.Bytes())
	if e != nil {
		e = writeError(e)
	}
	return
}

// String returns program listing.
func String(p *Program) string {
	sb := &strings.Builder{}
	e := Listing{}.Render(sb, p)
	if e != nil {
		return e.Error()
	}
	return sb.String()
}

type listingWriter struct {
	esc    Escaper
	buffer bytes.Buffer
	depth  int
}

func (lw *listingWriter) line(format string, params ...any) {
	lw.buffer.WriteString(strings.Repeat("  ", lw.depth))
	fmt.Fprintf(&lw.buffer, format, params...)
	lw.buffer.WriteByte('\n')
}

func (lw *listingWriter) program(p *Program) {
	lw.line("grammar %s", p.Grammar)
	lw.line("root %s", p.Root)
	for i, pat := range p.Patterns {
		lw.line("pattern %d %s", i, lw.esc.Quote(pat))
	}
	for _, a := range p.Actions {
		lw.line("action %s", a)
	}
	for _, t := range p.Types {
		lw.line("type %s", t)
	}

	for _, proc := range p.Procs {
		lw.buffer.WriteByte('\n')
		lw.line("proc %s {", proc.Rule)
		lw.depth++
		for _, v := range proc.Vars {
			lw.line("var %s %s", v.Name(), v.Kind)
		}
		lw.block(proc.Body)
		lw.depth--
		lw.line("}")
	}
}

func (lw *listingWriter) block(b Block) {
	for _, s := range b {
		lw.stmt(s)
	}
}

func (lw *listingWriter) stmt(s Stmt) {
	switch x := s.(type) {
	case *Alloc:
		lw.line("%s = %s", x.Var, lw.init(x))
	case *MemoLookup:
		lw.line("memo.lookup %s at %s -> %s", x.Rule, x.At, x.Result)
	case *MemoStore:
		lw.line("memo.store %s at %s <- %s", x.Rule, x.At, x.Result)
	case *Call:
		lw.line("%s = call %s", x.Result, x.Rule)
	case *If:
		lw.line("if %s {", lw.cond(x.Cond))
		lw.depth++
		lw.block(x.Then)
		lw.depth--
		if len(x.Else) > 0 {
			lw.line("} else {")
			lw.depth++
			lw.block(x.Else)
			lw.depth--
		}
		lw.line("}")
	case *Loop:
		lw.line("loop {")
		lw.depth++
		lw.block(x.Body)
		lw.depth--
		lw.line("}")
	case *Break:
		lw.line("break")
	case *Restore:
		lw.line("cursor = %s", x.From)
	case *MakeNode:
		lw.line("%s = %s", x.Result, lw.node(x))
	case *Extend:
		lw.line("%s = extend %s %s", x.Var, x.Type, x.Var)
	case *Fail:
		lw.line("%s = fail %s", x.Result, lw.esc.Quote(x.Label))
	case *Reject:
		lw.line("%s = failure", x.Result)
	case *ListSet:
		lw.line("%s[%d] = %s", x.List, x.Index, x.Value)
	case *ListAppend:
		lw.line("%s += %s", x.List, x.Value)
	case *ListReset:
		lw.line("%s = nil", x.List)
	case *Return:
		lw.line("return %s", x.Result)
	default:
		panic(unknownStatementError(s))
	}
}

func (lw *listingWriter) init(a *Alloc) string {
	switch a.Init {
	case InitFailure:
		return "failure"
	case InitCursor:
		return "cursor"
	case InitChunk:
		return fmt.Sprintf("chunk %d", a.N)
	case InitList:
		return fmt.Sprintf("list %d", a.N)
	case InitNilList:
		return "nil"
	default:
		panic(unknownStatementError(a))
	}
}

func (lw *listingWriter) cond(c Cond) string {
	switch x := c.(type) {
	case *MatchText:
		op := "=="
		if x.CaseInsensitive {
			op = "~="
		}
		return fmt.Sprintf("%s %s %s", x.Chunk, op, lw.esc.Quote(x.Text))
	case *MatchPattern:
		return fmt.Sprintf("%s =~ pattern %d", x.Chunk, x.Pattern)
	case *HasInput:
		return "cursor < len"
	case *IsNode:
		return fmt.Sprintf("node %s", x.Var)
	case *IsFailure:
		return fmt.Sprintf("failure %s", x.Var)
	case *IsNilList:
		return fmt.Sprintf("nil %s", x.List)
	case *CountAtLeast:
		return fmt.Sprintf("len %s >= %d", x.List, x.N)
	case *CountReached:
		return fmt.Sprintf("len %s == %d", x.List, x.N)
	default:
		panic(unknownStatementError(c))
	}
}

func (lw *listingWriter) node(n *MakeNode) string {
	sb := &strings.Builder{}
	sb.WriteString("node ")
	if n.From.Valid() {
		sb.WriteString(n.From.Name())
	} else {
		sb.WriteString("cursor")
	}
	if n.Advance > 0 {
		fmt.Fprintf(sb, " +%d", n.Advance)
	}
	if n.Children.Valid() {
		sb.WriteString(" " + n.Children.Name())
	}
	for _, l := range n.Labels {
		fmt.Fprintf(sb, " %s:%d", l.Name, l.Index)
	}
	if n.Action != "" {
		sb.WriteString(" %" + n.Action)
	}
	return sb.String()
}
