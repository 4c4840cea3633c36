// Package golang renders compiled programs as standalone Go parser packages.
//
// Generated package has no dependencies outside the standard library. It exports
// TreeNode and Node types, Failure marker, ParseError, Actions interface containing
// one method per program action, and the entry point:
//
//	func Parse(input string, actions Actions, types map[string]func(TreeNode) TreeNode) (TreeNode, error)
package golang

import (
	"bytes"
	"fmt"
	"go/format"
	"io"
	"regexp"
	"strings"
	"unicode"

	"github.com/ava12/packrat/ops"
)

// DefaultPackage is used when Renderer.Package is empty.
const DefaultPackage = "parser"

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z_0-9]*$`)

// Renderer implements ops.Renderer producing gofmt-ed Go source.
type Renderer struct {
	// Package is the generated package name.
	Package string
	// Escaper quotes string literals, ops.GoEscaper is used if nil.
	Escaper ops.Escaper
}

// New creates renderer for given package name.
func New(pkg string) *Renderer {
	return &Renderer{Package: pkg}
}

// Render writes Go source of parser for p.
func (r *Renderer) Render(w io.Writer, p *ops.Program) error {
	src, e := r.Source(p)
	if e != nil {
		return e
	}

	if _, e = w.Write(src); e != nil {
		return writeError(e)
	}
	return nil
}

// Source returns formatted Go source of parser for p.
func (r *Renderer) Source(p *ops.Program) ([]byte, error) {
	pkg := r.Package
	if pkg == "" {
		pkg = DefaultPackage
	}
	if !identRe.MatchString(pkg) {
		return nil, packageNameError(pkg)
	}

	esc := r.Escaper
	if esc == nil {
		esc = ops.GoEscaper
	}

	g := &generator{
		buf:     &bytes.Buffer{},
		prog:    p,
		esc:     esc,
		rules:   make(map[string]int, len(p.Procs)),
		methods: make(map[string]string, len(p.Actions)),
		labels:  make(map[*ops.MakeNode]string),
	}
	for i, proc := range p.Procs {
		g.rules[proc.Rule] = i
	}
	if e := g.assignMethods(); e != nil {
		return nil, e
	}

	e := g.generate(pkg)
	if e != nil {
		return nil, e
	}

	res, e := format.Source(g.buf.Bytes())
	if e != nil {
		return nil, sourceFormatError(e)
	}
	return res, nil
}

type generator struct {
	prog      *ops.Program
	esc       ops.Escaper
	buf       *bytes.Buffer
	indent    int
	rules     map[string]int
	methods   map[string]string
	labels    map[*ops.MakeNode]string
	labelDefs []string
	proc      *ops.Proc
}

// ActionMethod converts action name to exported Go method name: "make_sum" becomes "MakeSum".
// Returns empty string if name contains no letters or digits.
func ActionMethod(name string) string {
	sb := &strings.Builder{}
	upper := true
	for _, r := range name {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			upper = true
			continue
		}
		if r > unicode.MaxASCII {
			upper = false
			sb.WriteRune(r)
			continue
		}
		if upper {
			r = unicode.ToUpper(r)
			upper = false
		}
		sb.WriteRune(r)
	}

	res := sb.String()
	if !identRe.MatchString(res) {
		return ""
	}
	return res
}

func (g *generator) assignMethods() error {
	used := make(map[string]string, len(g.prog.Actions))
	for _, a := range g.prog.Actions {
		m := ActionMethod(a)
		if m == "" {
			return actionNameError(a)
		}
		if prev, has := used[m]; has {
			return methodCollisionError(prev, a, m)
		}
		used[m] = a
		g.methods[a] = m
	}
	return nil
}

func (g *generator) line(pattern string, params ...any) {
	g.buf.WriteString(strings.Repeat("\t", g.indent))
	if len(params) > 0 {
		fmt.Fprintf(g.buf, pattern, params...)
	} else {
		g.buf.WriteString(pattern)
	}
	g.buf.WriteByte('\n')
}

func (g *generator) generate(pkg string) (e error) {
	defer func() {
		if r := recover(); r != nil {
			re, f := r.(error)
			if !f {
				panic(r)
			}
			e = re
		}
	}()

	p := g.prog
	g.line("// Code generated by peggen from grammar %s. DO NOT EDIT.", g.esc.Quote(p.Grammar))
	g.line("")
	g.line("package %s", pkg)
	g.line("")
	g.line("import (")
	g.line("\t\"fmt\"")
	if len(p.Patterns) > 0 {
		g.line("\t\"regexp\"")
	}
	g.line("\t\"strings\"")
	g.line(")")
	g.buf.WriteString(prelude)

	g.actionsInterface()
	g.entryPoint()

	head := g.buf
	g.buf = &bytes.Buffer{}
	for i, proc := range p.Procs {
		g.procedure(i, proc)
	}
	body := g.buf
	g.buf = head

	g.tables()
	g.buf.Write(body.Bytes())
	return nil
}

func (g *generator) actionsInterface() {
	g.line("")
	g.line("// Actions contains semantic actions called for matched expressions.")
	g.line("// An action error aborts parsing and is returned by Parse.")
	if len(g.prog.Actions) == 0 {
		g.line("type Actions interface{}")
		return
	}

	g.line("type Actions interface {")
	g.indent++
	for _, a := range g.prog.Actions {
		g.line("%s(input string, start, end int, elements []TreeNode) (TreeNode, error)", g.methods[a])
	}
	g.indent--
	g.line("}")
}

func (g *generator) entryPoint() {
	p := g.prog
	g.line("")
	g.line("// Parse parses whole input. types maps node type names to extension functions, it may be nil.")
	g.line("// Returns *ParseError if input does not match grammar or action error.")
	g.line("func Parse(input string, actions Actions, types map[string]func(TreeNode) TreeNode) (root TreeNode, e error) {")
	g.indent++
	if len(p.Actions) > 0 {
		g.line("if actions == nil {")
		g.line("\treturn nil, fmt.Errorf(\"no actions for grammar %%q\", %s)", g.esc.Quote(p.Grammar))
		g.line("}")
	}
	g.line("p := &parser{")
	g.line("\ttext:    input,")
	g.line("\tinput:   []rune(input),")
	g.line("\tmemo:    make([]map[int]memoEntry, %d),", len(p.Procs))
	g.line("\tfailure: -1,")
	g.line("\tactions: actions,")
	g.line("\ttypes:   types,")
	g.line("}")
	g.line("defer func() {")
	g.line("\tif r := recover(); r != nil {")
	g.line("\t\tae, f := r.(actionError)")
	g.line("\t\tif !f {")
	g.line("\t\t\tpanic(r)")
	g.line("\t\t}")
	g.line("\t\troot, e = nil, ae.err")
	g.line("\t}")
	g.line("}()")
	g.line("")
	g.line("root = p.rule%d()", g.rules[p.Root])
	g.line("if root != Failure && p.cursor == len(p.input) {")
	g.line("\treturn root, nil")
	g.line("}")
	g.line("if root != Failure {")
	g.line("\tp.fail(%s, %s)", g.esc.Quote(p.Root), g.esc.Quote("<EOF>"))
	g.line("}")
	g.line("return nil, p.parseError()")
	g.indent--
	g.line("}")
}

func (g *generator) tables() {
	p := g.prog
	if len(p.Patterns) > 0 {
		g.line("")
		g.line("var patterns = [...]*regexp.Regexp{")
		for _, pat := range p.Patterns {
			g.line("\tregexp.MustCompile(%s),", g.esc.Quote(pat))
		}
		g.line("}")
	}

	if len(g.labelDefs) > 0 {
		g.line("")
		g.line("var (")
		for _, def := range g.labelDefs {
			g.line("\t%s", def)
		}
		g.line(")")
	}
}

func varName(v ops.Var) string {
	return v.Name()
}

func okName(v ops.Var) string {
	return v.Name() + "ok"
}

func (g *generator) procedure(index int, proc *ops.Proc) {
	g.proc = proc
	g.line("")
	g.line("// rule%d parses %s.", index, proc.Rule)
	g.line("func (p *parser) rule%d() TreeNode {", index)
	g.indent++

	if len(proc.Vars) > 0 {
		g.line("var (")
		for _, v := range proc.Vars {
			switch v.Kind {
			case ops.NodeVar:
				g.line("\t%s TreeNode", varName(v))
			case ops.CursorVar:
				g.line("\t%s int", varName(v))
			case ops.ChunkVar:
				g.line("\t%s string", varName(v))
				g.line("\t%s bool", okName(v))
			case ops.ListVar:
				g.line("\t%s []TreeNode", varName(v))
			default:
				panic(unknownStatementError(v))
			}
		}
		g.line(")")
	}

	read := readVars(proc.Body)
	for _, v := range proc.Vars {
		if !read[v] {
			g.line("_ = %s", varName(v))
			if v.Kind == ops.ChunkVar {
				g.line("_ = %s", okName(v))
			}
		}
	}

	g.block(proc.Body)
	if len(proc.Body) == 0 {
		g.line("return Failure")
	} else if _, f := proc.Body[len(proc.Body)-1].(*ops.Return); !f {
		g.line("return Failure")
	}
	g.indent--
	g.line("}")
}

// readVars returns variables whose values are used by statements.
func readVars(b ops.Block) map[ops.Var]bool {
	res := make(map[ops.Var]bool)
	mark := func(vs ...ops.Var) {
		for _, v := range vs {
			if v.Valid() {
				res[v] = true
			}
		}
	}

	ops.Walk(b, func(s ops.Stmt) bool {
		switch x := s.(type) {
		case *ops.MemoLookup:
			mark(x.At)
		case *ops.MemoStore:
			mark(x.At, x.Result)
		case *ops.If:
			switch c := x.Cond.(type) {
			case *ops.MatchText:
				mark(c.Chunk)
			case *ops.MatchPattern:
				mark(c.Chunk)
			case *ops.IsNode:
				mark(c.Var)
			case *ops.IsFailure:
				mark(c.Var)
			case *ops.IsNilList:
				mark(c.List)
			case *ops.CountAtLeast:
				mark(c.List)
			case *ops.CountReached:
				mark(c.List)
			}
		case *ops.Restore:
			mark(x.From)
		case *ops.MakeNode:
			mark(x.From, x.Children)
		case *ops.Extend:
			mark(x.Var)
		case *ops.ListSet:
			mark(x.List, x.Value)
		case *ops.ListAppend:
			mark(x.List, x.Value)
		case *ops.Return:
			mark(x.Result)
		}
		return true
	})
	return res
}

func (g *generator) block(b ops.Block) {
	for _, s := range b {
		g.stmt(s)
	}
}

func (g *generator) stmt(s ops.Stmt) {
	q := g.esc.Quote
	switch x := s.(type) {
	case *ops.Alloc:
		v := varName(x.Var)
		switch x.Init {
		case ops.InitFailure:
			g.line("%s = Failure", v)
		case ops.InitCursor:
			g.line("%s = p.cursor", v)
		case ops.InitChunk:
			g.line("%s, %s = p.chunk(%d)", v, okName(x.Var), x.N)
		case ops.InitList:
			g.line("%s = make([]TreeNode, %d)", v, x.N)
		case ops.InitNilList:
			g.line("%s = nil", v)
		default:
			panic(unknownStatementError(x))
		}

	case *ops.MemoLookup:
		g.line("if m, has := p.memo[%d][%s]; has {", g.rules[x.Rule], varName(x.At))
		g.line("\tp.cursor = m.end")
		g.line("\treturn m.node")
		g.line("}")

	case *ops.MemoStore:
		g.line("p.store(%d, %s, %s)", g.rules[x.Rule], varName(x.At), varName(x.Result))

	case *ops.Call:
		index, has := g.rules[x.Rule]
		if !has {
			panic(unknownRuleError(x.Rule))
		}
		g.line("%s = p.rule%d()", varName(x.Result), index)

	case *ops.If:
		g.line("if %s {", g.cond(x.Cond))
		g.indent++
		g.block(x.Then)
		g.indent--
		if len(x.Else) > 0 {
			g.line("} else {")
			g.indent++
			g.block(x.Else)
			g.indent--
		}
		g.line("}")

	case *ops.Loop:
		g.line("for {")
		g.indent++
		g.block(x.Body)
		g.indent--
		g.line("}")

	case *ops.Break:
		g.line("break")

	case *ops.Restore:
		g.line("p.cursor = %s", varName(x.From))

	case *ops.MakeNode:
		from := "p.cursor"
		if x.From.Valid() {
			from = varName(x.From)
		}
		children := "nil"
		if x.Children.Valid() {
			children = varName(x.Children)
		}
		if x.Action != "" {
			g.line("%s = p.act(p.actions.%s, %s, %s, %d, %s)",
				varName(x.Result), g.methods[x.Action], q(x.Action), from, x.Advance, children)
		} else {
			g.line("%s = p.node(%s, %d, %s, %s)", varName(x.Result), from, x.Advance, children, g.labelTable(x))
		}

	case *ops.Extend:
		g.line("%s = p.extend(%s, %s)", varName(x.Var), q(x.Type), varName(x.Var))

	case *ops.Fail:
		g.line("%s = Failure", varName(x.Result))
		g.line("p.fail(%s, %s)", q(g.proc.Rule), q(x.Label))

	case *ops.Reject:
		g.line("%s = Failure", varName(x.Result))

	case *ops.ListSet:
		g.line("%s[%d] = %s", varName(x.List), x.Index, varName(x.Value))

	case *ops.ListAppend:
		g.line("%s = append(%s, %s)", varName(x.List), varName(x.List), varName(x.Value))

	case *ops.ListReset:
		g.line("%s = nil", varName(x.List))

	case *ops.Return:
		g.line("return %s", varName(x.Result))

	default:
		panic(unknownStatementError(s))
	}
}

func (g *generator) cond(c ops.Cond) string {
	switch x := c.(type) {
	case *ops.MatchText:
		if x.CaseInsensitive {
			return fmt.Sprintf("%s && strings.EqualFold(%s, %s)", okName(x.Chunk), varName(x.Chunk), g.esc.Quote(x.Text))
		}
		return fmt.Sprintf("%s && %s == %s", okName(x.Chunk), varName(x.Chunk), g.esc.Quote(x.Text))
	case *ops.MatchPattern:
		return fmt.Sprintf("%s && patterns[%d].MatchString(%s)", okName(x.Chunk), x.Pattern, varName(x.Chunk))
	case *ops.HasInput:
		return "p.cursor < len(p.input)"
	case *ops.IsNode:
		return varName(x.Var) + " != Failure"
	case *ops.IsFailure:
		return varName(x.Var) + " == Failure"
	case *ops.IsNilList:
		return varName(x.List) + " == nil"
	case *ops.CountAtLeast:
		return fmt.Sprintf("len(%s) >= %d", varName(x.List), x.N)
	case *ops.CountReached:
		return fmt.Sprintf("len(%s) == %d", varName(x.List), x.N)
	default:
		panic(unknownStatementError(c))
	}
}

// labelTable returns name of package variable holding label map of node or "nil".
func (g *generator) labelTable(mn *ops.MakeNode) string {
	if len(mn.Labels) == 0 {
		return "nil"
	}
	if name, has := g.labels[mn]; has {
		return name
	}

	name := fmt.Sprintf("labels%d", len(g.labelDefs))
	parts := make([]string, len(mn.Labels))
	for i, l := range mn.Labels {
		parts[i] = fmt.Sprintf("%s: %d", g.esc.Quote(l.Name), l.Index)
	}
	g.labelDefs = append(g.labelDefs, fmt.Sprintf("%s = map[string]int{%s}", name, strings.Join(parts, ", ")))
	g.labels[mn] = name
	return name
}
