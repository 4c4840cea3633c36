// Package parser executes compiled grammar programs.
//
// Parser is created once per program and may be used by concurrent goroutines,
// every Parse call keeps its own cursor, memo table and failure record.
package parser

import (
	"regexp"
	"strings"

	"github.com/ava12/packrat/ops"
	"github.com/ava12/packrat/source"
	"github.com/ava12/packrat/tree"
)

// ActionFunc builds node for matched input span.
// input is the whole input, start and end are codepoint offsets,
// elements are child nodes of the match.
// Returned error aborts parsing and is returned by Parse as is.
type ActionFunc func(input string, start, end int, elements []tree.Node) (tree.Node, error)

// Extender replaces node produced by an expression tagged with node type.
type Extender func(n tree.Node) tree.Node

// Actions maps action names to implementations.
type Actions map[string]ActionFunc

// Extensions maps node type names to extenders, missing types leave nodes unchanged.
type Extensions map[string]Extender

// Hooks contains host functions referenced by program.
type Hooks struct {
	Actions    Actions
	Extensions Extensions
}

// Option configures Parser.
type Option func(*Parser)

// WithoutMemo disables memoization. Results are the same, parsing may take exponential time.
func WithoutMemo() Option {
	return func(p *Parser) {
		p.memo = false
	}
}

// WithObserver registers function receiving statistics of every Parse call.
// The function may be called concurrently.
func WithObserver(f func(Stats)) Option {
	return func(p *Parser) {
		p.observers = append(p.observers, f)
	}
}

type procRec struct {
	proc  *ops.Proc
	index int
	calls []int
}

// Parser executes a program. Parser is immutable and safe for concurrent use.
type Parser struct {
	prog       *ops.Program
	procs      []procRec
	root       int
	patterns   []*regexp.Regexp
	actions    []ActionFunc
	actionMap  map[string]int
	extensions Extensions
	labels     map[*ops.MakeNode]map[string]int
	calls      map[*ops.Call]int
	memo       bool
	observers  []func(Stats)
}

// New creates parser for program. All program actions must be implemented,
// hs may be nil if program uses no actions.
func New(prog *ops.Program, hs *Hooks, opts ...Option) (*Parser, error) {
	if hs == nil {
		hs = &Hooks{}
	}

	p := &Parser{
		prog:       prog,
		procs:      make([]procRec, len(prog.Procs)),
		root:       -1,
		patterns:   make([]*regexp.Regexp, len(prog.Patterns)),
		actions:    make([]ActionFunc, len(prog.Actions)),
		actionMap:  make(map[string]int, len(prog.Actions)),
		extensions: hs.Extensions,
		labels:     make(map[*ops.MakeNode]map[string]int),
		calls:      make(map[*ops.Call]int),
		memo:       true,
	}
	for _, opt := range opts {
		opt(p)
	}

	for i, pat := range prog.Patterns {
		re, e := regexp.Compile(pat)
		if e != nil {
			return nil, patternError(pat, e)
		}
		p.patterns[i] = re
	}

	for i, name := range prog.Actions {
		f := hs.Actions[name]
		if f == nil {
			return nil, missingActionError(name)
		}
		p.actions[i] = f
		p.actionMap[name] = i
	}

	index := make(map[string]int, len(prog.Procs))
	for i, proc := range prog.Procs {
		index[proc.Rule] = i
		p.procs[i] = procRec{proc: proc, index: i}
	}
	root, has := index[prog.Root]
	if !has {
		return nil, unknownRuleError(prog.Root, "")
	}
	p.root = root

	for _, proc := range prog.Procs {
		var e error
		ops.Walk(proc.Body, func(s ops.Stmt) bool {
			switch x := s.(type) {
			case *ops.Call:
				i, has := index[x.Rule]
				if !has && e == nil {
					e = unknownRuleError(x.Rule, proc.Rule)
				}
				p.calls[x] = i
			case *ops.MakeNode:
				if len(x.Labels) > 0 {
					labels := make(map[string]int, len(x.Labels))
					for _, l := range x.Labels {
						labels[l.Name] = l.Index
					}
					p.labels[x] = labels
				}
			}
			return true
		})
		if e != nil {
			return nil, e
		}
	}

	return p, nil
}

// Program returns parser program.
func (p *Parser) Program() *ops.Program {
	return p.prog
}

// Parse parses input string. Returns root node spanning whole input,
// *ParseError if input does not match grammar, or action error.
func (p *Parser) Parse(input string) (tree.Node, error) {
	return p.ParseSource(source.NewString("", input))
}

// ParseSource parses named source, source name is used in error messages.
func (p *Parser) ParseSource(src *source.Source) (tree.Node, error) {
	pc := newParseContext(p, src)
	res, e := pc.parse()
	for _, f := range p.observers {
		f(pc.stats)
	}
	return res, e
}

// Stats contains counters of a single Parse call.
type Stats struct {
	// Input is input length in codepoints.
	Input int
	// Calls is the number of rule procedure invocations.
	Calls int
	// MemoHits is the number of invocations answered from memo table.
	MemoHits int
	// MemoStores is the number of memo table entries stored.
	MemoStores int
	// Backtracks is the number of cursor restorations that moved cursor back.
	Backtracks int
	// MaxDepth is the maximum depth of rule invocations.
	MaxDepth int
	// Actions is the number of host action calls.
	Actions int
	// Success is set if input matched grammar.
	Success bool
}

type memoEntry struct {
	node tree.Node
	end  int
}

type slot struct {
	node     tree.Node
	cursor   int
	chunk    string
	hasChunk bool
	list     []tree.Node
}

type control int

const (
	ctlNext control = iota
	ctlBreak
	ctlReturn
)

type parseContext struct {
	parser      *Parser
	src         *source.Source
	input       []rune
	cursor      int
	memo        []map[int]memoEntry
	failure     int
	expected    []Expectation
	expectedSet map[Expectation]bool
	stack       *frameStack
	stats       Stats
}

func newParseContext(p *Parser, src *source.Source) *parseContext {
	return &parseContext{
		parser:      p,
		src:         src,
		input:       src.Runes(),
		memo:        make([]map[int]memoEntry, len(p.procs)),
		failure:     -1,
		expectedSet: make(map[Expectation]bool),
		stack:       newFrameStack(),
		stats:       Stats{Input: src.Len()},
	}
}

func (pc *parseContext) parse() (tree.Node, error) {
	root, e := pc.call(pc.parser.root)
	if e != nil {
		return nil, e
	}

	if root != nil && pc.cursor == len(pc.input) {
		pc.stats.Success = true
		return root, nil
	}

	if root != nil {
		pc.record(pc.parser.prog.Root, EofLabel)
	}
	offset := pc.failure
	if offset < 0 {
		offset = 0
	}
	return nil, newParseError(pc.src, offset, pc.expected)
}

func (pc *parseContext) record(rule, label string) {
	if pc.cursor < pc.failure {
		return
	}

	if pc.cursor > pc.failure {
		pc.failure = pc.cursor
		pc.expected = nil
		clear(pc.expectedSet)
	}

	ex := Expectation{rule, label}
	if !pc.expectedSet[ex] {
		pc.expectedSet[ex] = true
		pc.expected = append(pc.expected, ex)
	}
}

func (pc *parseContext) call(index int) (tree.Node, error) {
	pc.stats.Calls++
	pr := &pc.parser.procs[index]
	pc.stack.Push(&frame{proc: pr, slots: make([]slot, len(pr.proc.Vars)+1)})
	defer pc.stack.Drop()
	if pc.stack.Len() > pc.stats.MaxDepth {
		pc.stats.MaxDepth = pc.stack.Len()
	}

	_, e := pc.exec(pr.proc.Body)
	return pc.stack.Top().result, e
}

func (pc *parseContext) exec(b ops.Block) (control, error) {
	f := pc.stack.Top()
	for _, s := range b {
		switch x := s.(type) {
		case *ops.Alloc:
			pc.alloc(&f.slots[x.Var.ID], x)

		case *ops.MemoLookup:
			if !pc.parser.memo {
				continue
			}
			at := f.slots[x.At.ID].cursor
			entry, has := pc.memo[f.proc.index][at]
			if has {
				pc.stats.MemoHits++
				f.slots[x.Result.ID].node = entry.node
				pc.cursor = entry.end
				f.result = entry.node
				return ctlReturn, nil
			}

		case *ops.MemoStore:
			if !pc.parser.memo {
				continue
			}
			m := pc.memo[f.proc.index]
			if m == nil {
				m = make(map[int]memoEntry)
				pc.memo[f.proc.index] = m
			}
			m[f.slots[x.At.ID].cursor] = memoEntry{f.slots[x.Result.ID].node, pc.cursor}
			pc.stats.MemoStores++

		case *ops.Call:
			n, e := pc.call(pc.parser.calls[x])
			if e != nil {
				return ctlReturn, e
			}
			f.slots[x.Result.ID].node = n

		case *ops.If:
			block := x.Else
			if pc.test(f, x.Cond) {
				block = x.Then
			}
			ctl, e := pc.exec(block)
			if ctl != ctlNext || e != nil {
				return ctl, e
			}

		case *ops.Loop:
			for {
				ctl, e := pc.exec(x.Body)
				if e != nil || ctl == ctlReturn {
					return ctl, e
				}
				if ctl == ctlBreak {
					break
				}
			}

		case *ops.Break:
			return ctlBreak, nil

		case *ops.Restore:
			to := f.slots[x.From.ID].cursor
			if to < pc.cursor {
				pc.stats.Backtracks++
			}
			pc.cursor = to

		case *ops.MakeNode:
			n, e := pc.makeNode(f, x)
			if e != nil {
				return ctlReturn, e
			}
			f.slots[x.Result.ID].node = n

		case *ops.Extend:
			ext := pc.parser.extensions[x.Type]
			sl := &f.slots[x.Var.ID]
			if ext != nil && sl.node != nil {
				sl.node = ext(sl.node)
				if sl.node == nil {
					return ctlReturn, nilExtensionResultError(x.Type)
				}
			}

		case *ops.Fail:
			f.slots[x.Result.ID].node = nil
			pc.record(f.proc.proc.Rule, x.Label)

		case *ops.Reject:
			f.slots[x.Result.ID].node = nil

		case *ops.ListSet:
			f.slots[x.List.ID].list[x.Index] = f.slots[x.Value.ID].node

		case *ops.ListAppend:
			sl := &f.slots[x.List.ID]
			sl.list = append(sl.list, f.slots[x.Value.ID].node)

		case *ops.ListReset:
			f.slots[x.List.ID].list = nil

		case *ops.Return:
			f.result = f.slots[x.Result.ID].node
			return ctlReturn, nil

		default:
			return ctlReturn, unknownStatementError(s)
		}
	}

	return ctlNext, nil
}

func (pc *parseContext) alloc(sl *slot, a *ops.Alloc) {
	switch a.Init {
	case ops.InitFailure:
		sl.node = nil
	case ops.InitCursor:
		sl.cursor = pc.cursor
	case ops.InitChunk:
		sl.hasChunk = pc.cursor+a.N <= len(pc.input)
		if sl.hasChunk {
			sl.chunk = string(pc.input[pc.cursor : pc.cursor+a.N])
		} else {
			sl.chunk = ""
		}
	case ops.InitList:
		sl.list = make([]tree.Node, a.N)
	case ops.InitNilList:
		sl.list = nil
	default:
		panic(unknownStatementError(a))
	}
}

func (pc *parseContext) test(f *frame, c ops.Cond) bool {
	switch x := c.(type) {
	case *ops.MatchText:
		sl := &f.slots[x.Chunk.ID]
		if !sl.hasChunk {
			return false
		}
		if x.CaseInsensitive {
			return strings.EqualFold(sl.chunk, x.Text)
		}
		return sl.chunk == x.Text
	case *ops.MatchPattern:
		sl := &f.slots[x.Chunk.ID]
		return sl.hasChunk && pc.parser.patterns[x.Pattern].MatchString(sl.chunk)
	case *ops.HasInput:
		return pc.cursor < len(pc.input)
	case *ops.IsNode:
		return f.slots[x.Var.ID].node != nil
	case *ops.IsFailure:
		return f.slots[x.Var.ID].node == nil
	case *ops.IsNilList:
		return f.slots[x.List.ID].list == nil
	case *ops.CountAtLeast:
		return len(f.slots[x.List.ID].list) >= x.N
	case *ops.CountReached:
		return len(f.slots[x.List.ID].list) == x.N
	default:
		panic(unknownStatementError(c))
	}
}

func (pc *parseContext) makeNode(f *frame, mn *ops.MakeNode) (tree.Node, error) {
	start := pc.cursor
	if mn.From.Valid() {
		start = f.slots[mn.From.ID].cursor
	}
	end := pc.cursor + mn.Advance

	var children []tree.Node
	if mn.Children.Valid() {
		children = f.slots[mn.Children.ID].list
	}

	pc.cursor = end
	if mn.Action == "" {
		return tree.New(string(pc.input[start:end]), start, end, children, pc.parser.labels[mn]), nil
	}

	pc.stats.Actions++
	n, e := pc.parser.actions[pc.parser.actionMap[mn.Action]](pc.src.Text(), start, end, children)
	if e != nil {
		return nil, e
	}
	if n == nil {
		return nil, nilActionResultError(mn.Action)
	}
	return n, nil
}
