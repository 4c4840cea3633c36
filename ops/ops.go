// Package ops defines the abstract operations emitted by the grammar compiler.
//
// A Program holds one procedure per grammar rule. Procedure body is a tree of statements
// operating on the parser cursor, the memo table, the furthest failure record
// and typed scratch variables. Renderers translate programs to parser source code,
// parser package executes them directly.
//
// Statement and condition sets are closed: every renderer handles every type
// listed here and panics on anything else.
package ops

import (
	"fmt"
)

// VarKind is a scratch variable type.
type VarKind int

const (
	// NodeVar holds a node or the failure marker.
	NodeVar VarKind = iota + 1
	// CursorVar holds a saved cursor position.
	CursorVar
	// ChunkVar holds input text at cursor or nothing if input is too short.
	ChunkVar
	// ListVar holds a list of nodes or nil list.
	ListVar
)

var varPrefixes = [...]string{
	NodeVar:   "n",
	CursorVar: "c",
	ChunkVar:  "s",
	ListVar:   "l",
}

var varKindNames = [...]string{
	NodeVar:   "node",
	CursorVar: "cursor",
	ChunkVar:  "chunk",
	ListVar:   "list",
}

func (k VarKind) String() string {
	if k <= 0 || int(k) >= len(varKindNames) {
		return fmt.Sprintf("VarKind(%d)", int(k))
	}
	return varKindNames[k]
}

// Var is a procedure scratch variable. IDs are unique within a procedure and start with 1,
// zero Var means no variable.
type Var struct {
	ID   int
	Kind VarKind
}

// NoVar is used where variable is optional.
var NoVar = Var{}

// Valid reports whether v refers to a variable.
func (v Var) Valid() bool {
	return v.ID > 0
}

// Name returns variable name unique within procedure, e.g. "n1" or "c2".
func (v Var) Name() string {
	if !v.Valid() || int(v.Kind) >= len(varPrefixes) {
		return "_"
	}
	return varPrefixes[v.Kind] + fmt.Sprint(v.ID)
}

func (v Var) String() string {
	return v.Name()
}

// InitKind selects initial variable value.
type InitKind int

const (
	// InitFailure sets node variable to the failure marker.
	InitFailure InitKind = iota + 1
	// InitCursor saves current cursor position.
	InitCursor
	// InitChunk takes next N characters of input if that many remain.
	InitChunk
	// InitList creates empty list of N elements.
	InitList
	// InitNilList sets list variable to nil list.
	InitNilList
)

// Block is a sequence of statements.
type Block []Stmt

// Stmt is a procedure statement.
type Stmt interface {
	isStmt()
}

// Alloc assigns initial value to scratch variable.
type Alloc struct {
	Var  Var
	Init InitKind
	N    int
}

// MemoLookup checks memo table for the current rule at position At.
// On hit Result and cursor are set from memo entry and procedure returns Result.
type MemoLookup struct {
	Rule   string
	At     Var
	Result Var
}

// MemoStore saves Result and current cursor in memo table for the current rule at position At.
type MemoStore struct {
	Rule   string
	At     Var
	Result Var
}

// Call invokes rule procedure and stores returned value in Result.
type Call struct {
	Rule   string
	Result Var
}

// If executes Then block if Cond holds, Else block otherwise. Else may be empty.
type If struct {
	Cond Cond
	Then Block
	Else Block
}

// Loop executes Body until Break.
type Loop struct {
	Body Block
}

// Break exits innermost Loop.
type Break struct{}

// Restore sets cursor to saved position.
type Restore struct {
	From Var
}

// Label binds sequence node child index to a label.
type Label struct {
	Name  string
	Index int
}

// MakeNode creates node and stores it in Result.
// Node spans from saved position From (or current cursor if From is NoVar)
// to cursor+Advance, then cursor is moved to the end of node.
// Children is either a list variable or NoVar.
// If Action is not empty, node is created by host action called with node span and children;
// action error aborts parsing.
type MakeNode struct {
	Result   Var
	From     Var
	Advance  int
	Children Var
	Labels   []Label
	Action   string
}

// Extend replaces node in Var with the result of host extension for Type.
// Var must hold a node.
type Extend struct {
	Var  Var
	Type string
}

// Fail stores failure marker in Result and records expected Label at current cursor
// for the current rule in furthest failure record.
type Fail struct {
	Result Var
	Label  string
}

// Reject stores failure marker in Result.
type Reject struct {
	Result Var
}

// ListSet stores node in list element Index.
type ListSet struct {
	List  Var
	Index int
	Value Var
}

// ListAppend appends node to list.
type ListAppend struct {
	List  Var
	Value Var
}

// ListReset sets list variable to nil list.
type ListReset struct {
	List Var
}

// Return exits procedure returning Result.
type Return struct {
	Result Var
}

func (*Alloc) isStmt()      {}
func (*MemoLookup) isStmt() {}
func (*MemoStore) isStmt()  {}
func (*Call) isStmt()       {}
func (*If) isStmt()         {}
func (*Loop) isStmt()       {}
func (*Break) isStmt()      {}
func (*Restore) isStmt()    {}
func (*MakeNode) isStmt()   {}
func (*Extend) isStmt()     {}
func (*Fail) isStmt()       {}
func (*Reject) isStmt()     {}
func (*ListSet) isStmt()    {}
func (*ListAppend) isStmt() {}
func (*ListReset) isStmt()  {}
func (*Return) isStmt()     {}

// Cond is If statement condition.
type Cond interface {
	isCond()
}

// MatchText holds if chunk is present and equals Text, ignoring case if CaseInsensitive is set.
type MatchText struct {
	Chunk           Var
	Text            string
	CaseInsensitive bool
}

// MatchPattern holds if chunk is present and matches Program.Patterns[Pattern].
type MatchPattern struct {
	Chunk   Var
	Pattern int
}

// HasInput holds if cursor is before the end of input.
type HasInput struct{}

// IsNode holds if variable holds a node.
type IsNode struct {
	Var Var
}

// IsFailure holds if variable holds the failure marker.
type IsFailure struct {
	Var Var
}

// IsNilList holds if list variable holds nil list.
type IsNilList struct {
	List Var
}

// CountAtLeast holds if list contains at least N elements.
type CountAtLeast struct {
	List Var
	N    int
}

// CountReached holds if list contains exactly N elements.
type CountReached struct {
	List Var
	N    int
}

func (*MatchText) isCond()    {}
func (*MatchPattern) isCond() {}
func (*HasInput) isCond()     {}
func (*IsNode) isCond()       {}
func (*IsFailure) isCond()    {}
func (*IsNilList) isCond()    {}
func (*CountAtLeast) isCond() {}
func (*CountReached) isCond() {}

// Proc is a rule procedure.
type Proc struct {
	Rule string
	Vars []Var
	Body Block
}

// Program is a compiled grammar.
// Patterns, Actions and Types are listed in order of first use.
type Program struct {
	Grammar  string
	Root     string
	Procs    []*Proc
	Patterns []string
	Actions  []string
	Types    []string
}

// Proc returns procedure for named rule or nil.
func (p *Program) Proc(rule string) *Proc {
	for _, proc := range p.Procs {
		if proc.Rule == rule {
			return proc
		}
	}
	return nil
}
