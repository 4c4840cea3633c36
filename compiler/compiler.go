// Package compiler converts grammar definitions to programs of abstract operations.
//
// Compilation is a single pass over validated grammar. All tables and variables are
// numbered in order of first use, so compiling the same grammar always yields
// the same program.
package compiler

import (
	"regexp"
	"unicode/utf8"

	"github.com/ava12/packrat/grammar"
	"github.com/ava12/packrat/internal/logging"
	"github.com/ava12/packrat/ops"
)

// Option configures compilation.
type Option func(*compiler)

// WithLogger sets logger receiving per-rule debug messages.
func WithLogger(l logging.Logger) Option {
	return func(c *compiler) {
		c.log = l
	}
}

type compiler struct {
	g        *grammar.Grammar
	log      logging.Logger
	prog     *ops.Program
	patterns map[string]int
	actions  map[string]bool
	types    map[string]bool
}

// Compile validates grammar and compiles it to a program.
// Validation errors are returned combined, see grammar.Validate.
func Compile(g *grammar.Grammar, opts ...Option) (*ops.Program, error) {
	if e := g.Validate(); e != nil {
		return nil, e
	}

	c := &compiler{
		g:        g,
		log:      logging.NewNoOpLogger(),
		patterns: make(map[string]int),
		actions:  make(map[string]bool),
		types:    make(map[string]bool),
	}
	for _, opt := range opts {
		opt(c)
	}

	c.prog = &ops.Program{
		Grammar: g.Name,
		Root:    g.RootName(),
		Procs:   make([]*ops.Proc, 0, len(g.Rules)),
	}
	for _, r := range g.Rules {
		proc := c.compileRule(r)
		c.prog.Procs = append(c.prog.Procs, proc)
		c.log.WithFields(logging.Fields{"rule": r.Name}).Debug("compiled rule, %d variables", len(proc.Vars))
	}

	for _, p := range c.prog.Patterns {
		if _, e := regexp.Compile(p); e != nil {
			return nil, patternError(p, e)
		}
	}

	c.log.Debug("compiled grammar %q: %d rules, %d patterns, %d actions, %d types",
		g.Name, len(c.prog.Procs), len(c.prog.Patterns), len(c.prog.Actions), len(c.prog.Types))
	return c.prog, nil
}

func (c *compiler) pattern(p string) int {
	index, has := c.patterns[p]
	if !has {
		index = len(c.prog.Patterns)
		c.patterns[p] = index
		c.prog.Patterns = append(c.prog.Patterns, p)
	}
	return index
}

func (c *compiler) action(name string) string {
	if name != "" && !c.actions[name] {
		c.actions[name] = true
		c.prog.Actions = append(c.prog.Actions, name)
	}
	return name
}

func (c *compiler) typ(name string) string {
	if !c.types[name] {
		c.types[name] = true
		c.prog.Types = append(c.prog.Types, name)
	}
	return name
}

type procBuilder struct {
	c    *compiler
	proc *ops.Proc
}

func (c *compiler) compileRule(r grammar.Rule) *ops.Proc {
	pb := &procBuilder{c: c, proc: &ops.Proc{Rule: r.Name}}
	start := pb.newVar(ops.CursorVar)
	result := pb.newVar(ops.NodeVar)

	body := ops.Block{
		&ops.Alloc{Var: start, Init: ops.InitCursor},
		&ops.Alloc{Var: result, Init: ops.InitFailure},
		&ops.MemoLookup{Rule: r.Name, At: start, Result: result},
	}
	body = append(body, pb.compile(r.Expr, result, "")...)
	body = append(body,
		&ops.MemoStore{Rule: r.Name, At: start, Result: result},
		&ops.Return{Result: result},
	)
	pb.proc.Body = body
	return pb.proc
}

func (pb *procBuilder) newVar(kind ops.VarKind) ops.Var {
	v := ops.Var{ID: len(pb.proc.Vars) + 1, Kind: kind}
	pb.proc.Vars = append(pb.proc.Vars, v)
	return v
}

// compile emits statements storing the result of e in target.
// Non-empty action is applied to the resulting node.
func (pb *procBuilder) compile(e grammar.Expr, target ops.Var, action string) ops.Block {
	switch x := e.(type) {
	case *grammar.Literal:
		chunk := pb.newVar(ops.ChunkVar)
		n := utf8.RuneCountInString(x.Text)
		return ops.Block{
			&ops.Alloc{Var: chunk, Init: ops.InitChunk, N: n},
			&ops.If{
				Cond: &ops.MatchText{Chunk: chunk, Text: x.Text, CaseInsensitive: x.CaseInsensitive},
				Then: ops.Block{pb.terminal(target, n, action)},
				Else: ops.Block{&ops.Fail{Result: target, Label: grammar.Label(x)}},
			},
		}

	case *grammar.Class:
		chunk := pb.newVar(ops.ChunkVar)
		return ops.Block{
			&ops.Alloc{Var: chunk, Init: ops.InitChunk, N: 1},
			&ops.If{
				Cond: &ops.MatchPattern{Chunk: chunk, Pattern: pb.c.pattern(x.Pattern())},
				Then: ops.Block{pb.terminal(target, 1, action)},
				Else: ops.Block{&ops.Fail{Result: target, Label: grammar.Label(x)}},
			},
		}

	case *grammar.Any:
		return ops.Block{
			&ops.If{
				Cond: &ops.HasInput{},
				Then: ops.Block{pb.terminal(target, 1, action)},
				Else: ops.Block{&ops.Fail{Result: target, Label: grammar.Label(x)}},
			},
		}

	case *grammar.Reference:
		if action != "" {
			return pb.wrap(x, target, action)
		}
		return ops.Block{&ops.Call{Rule: x.Name, Result: target}}

	case *grammar.Sequence:
		return pb.sequence(x, target, action)

	case *grammar.Choice:
		if action != "" {
			return pb.wrap(x, target, action)
		}
		return pb.choice(x, target)

	case *grammar.Repetition:
		return pb.repetition(x, target, action)

	case *grammar.Lookahead:
		return pb.lookahead(x, target, action)

	case *grammar.Labeled:
		return pb.compile(x.Expr, target, action)

	case *grammar.Action:
		if action != "" {
			return pb.wrap(x, target, action)
		}
		return pb.compile(x.Expr, target, pb.c.action(x.Name))

	case *grammar.Extension:
		if action != "" {
			return pb.wrap(x, target, action)
		}
		res := pb.compile(x.Expr, target, "")
		return append(res, &ops.If{
			Cond: &ops.IsNode{Var: target},
			Then: ops.Block{&ops.Extend{Var: target, Type: pb.c.typ(x.Type)}},
		})

	default:
		panic("unknown expression type")
	}
}

func (pb *procBuilder) terminal(target ops.Var, advance int, action string) ops.Stmt {
	return &ops.MakeNode{Result: target, Advance: advance, Action: action}
}

// wrap applies action to the result of e passed as the only element.
func (pb *procBuilder) wrap(e grammar.Expr, target ops.Var, action string) ops.Block {
	start := pb.newVar(ops.CursorVar)
	inner := pb.newVar(ops.NodeVar)
	elements := pb.newVar(ops.ListVar)

	res := ops.Block{
		&ops.Alloc{Var: start, Init: ops.InitCursor},
		&ops.Alloc{Var: inner, Init: ops.InitFailure},
	}
	res = append(res, pb.compile(e, inner, "")...)
	return append(res, &ops.If{
		Cond: &ops.IsNode{Var: inner},
		Then: ops.Block{
			&ops.Alloc{Var: elements, Init: ops.InitList, N: 1},
			&ops.ListSet{List: elements, Index: 0, Value: inner},
			&ops.MakeNode{Result: target, From: start, Children: elements, Action: action},
		},
		Else: ops.Block{&ops.Reject{Result: target}},
	})
}

func (pb *procBuilder) sequence(s *grammar.Sequence, target ops.Var, action string) ops.Block {
	start := pb.newVar(ops.CursorVar)
	elements := pb.newVar(ops.ListVar)

	size := 0
	for i := range s.Items {
		if !s.IsMuted(i) {
			size++
		}
	}

	res := ops.Block{
		&ops.Alloc{Var: start, Init: ops.InitCursor},
		&ops.Alloc{Var: elements, Init: ops.InitList, N: size},
	}

	onFailure := func() ops.Block {
		return ops.Block{
			&ops.ListReset{List: elements},
			&ops.Restore{From: start},
		}
	}

	// Items are nested: each next item is evaluated only if the previous one succeeded.
	tail := &res
	index := 0
	for i, item := range s.Items {
		v := pb.newVar(ops.NodeVar)
		*tail = append(*tail, &ops.Alloc{Var: v, Init: ops.InitFailure})
		*tail = append(*tail, pb.compile(item, v, "")...)

		then := ops.Block{}
		if !s.IsMuted(i) {
			then = append(then, &ops.ListSet{List: elements, Index: index, Value: v})
			index++
		}
		cond := &ops.If{Cond: &ops.IsNode{Var: v}, Then: then, Else: onFailure()}
		*tail = append(*tail, cond)
		tail = &cond.Then
	}

	return append(res, &ops.If{
		Cond: &ops.IsNilList{List: elements},
		Then: ops.Block{&ops.Reject{Result: target}},
		Else: ops.Block{&ops.MakeNode{
			Result:   target,
			From:     start,
			Children: elements,
			Labels:   sequenceLabels(s),
			Action:   action,
		}},
	})
}

// sequenceLabels returns explicit labels and implicit labels of references.
// Reference is labeled with rule name if it is the only unlabeled reference to that rule
// and the name is not used as explicit label.
func sequenceLabels(s *grammar.Sequence) []ops.Label {
	explicit := map[string]bool{}
	refs := map[string]int{}
	for i, item := range s.Items {
		if s.IsMuted(i) {
			continue
		}
		switch x := item.(type) {
		case *grammar.Labeled:
			explicit[x.Label] = true
		case *grammar.Reference:
			refs[x.Name]++
		}
	}

	var res []ops.Label
	index := 0
	for i, item := range s.Items {
		if s.IsMuted(i) {
			continue
		}
		switch x := item.(type) {
		case *grammar.Labeled:
			res = append(res, ops.Label{Name: x.Label, Index: index})
		case *grammar.Reference:
			if refs[x.Name] == 1 && !explicit[x.Name] {
				res = append(res, ops.Label{Name: x.Name, Index: index})
			}
		}
		index++
	}
	return res
}

func (pb *procBuilder) choice(ch *grammar.Choice, target ops.Var) ops.Block {
	start := pb.newVar(ops.CursorVar)
	res := ops.Block{&ops.Alloc{Var: start, Init: ops.InitCursor}}
	res = append(res, pb.compile(ch.Alternatives[0], target, "")...)

	tail := &res
	for _, alt := range ch.Alternatives[1:] {
		then := ops.Block{&ops.Restore{From: start}}
		then = append(then, pb.compile(alt, target, "")...)
		cond := &ops.If{Cond: &ops.IsFailure{Var: target}, Then: then}
		*tail = append(*tail, cond)
		tail = &cond.Then
	}
	return res
}

func (pb *procBuilder) repetition(r *grammar.Repetition, target ops.Var, action string) ops.Block {
	start := pb.newVar(ops.CursorVar)
	elements := pb.newVar(ops.ListVar)
	item := pb.newVar(ops.NodeVar)

	var body ops.Block
	if r.Max != grammar.Unbounded {
		body = append(body, &ops.If{
			Cond: &ops.CountReached{List: elements, N: r.Max},
			Then: ops.Block{&ops.Break{}},
		})
	}
	body = append(body, &ops.Alloc{Var: item, Init: ops.InitFailure})
	body = append(body, pb.compile(r.Expr, item, "")...)
	body = append(body, &ops.If{
		Cond: &ops.IsNode{Var: item},
		Then: ops.Block{&ops.ListAppend{List: elements, Value: item}},
		Else: ops.Block{&ops.Break{}},
	})

	return ops.Block{
		&ops.Alloc{Var: start, Init: ops.InitCursor},
		&ops.Alloc{Var: elements, Init: ops.InitList, N: 0},
		&ops.Loop{Body: body},
		&ops.If{
			Cond: &ops.CountAtLeast{List: elements, N: r.Min},
			Then: ops.Block{&ops.MakeNode{Result: target, From: start, Children: elements, Action: action}},
			Else: ops.Block{
				&ops.Restore{From: start},
				&ops.Reject{Result: target},
			},
		},
	}
}

func (pb *procBuilder) lookahead(l *grammar.Lookahead, target ops.Var, action string) ops.Block {
	start := pb.newVar(ops.CursorVar)
	probe := pb.newVar(ops.NodeVar)

	res := ops.Block{
		&ops.Alloc{Var: start, Init: ops.InitCursor},
		&ops.Alloc{Var: probe, Init: ops.InitFailure},
	}
	res = append(res, pb.compile(l.Expr, probe, "")...)
	res = append(res, &ops.Restore{From: start})

	var cond ops.Cond = &ops.IsNode{Var: probe}
	if l.Negative {
		cond = &ops.IsFailure{Var: probe}
	}
	return append(res, &ops.If{
		Cond: cond,
		Then: ops.Block{&ops.MakeNode{Result: target, Action: action}},
		Else: ops.Block{&ops.Reject{Result: target}},
	})
}
