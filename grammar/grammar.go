// Package grammar defines the expression IR of parsing expression grammars.
//
// Expression kinds form a closed set: every expression is one of
// *Literal, *Class, *Any, *Reference, *Sequence, *Choice, *Repetition,
// *Lookahead, *Labeled, *Action, or *Extension.
// Expr cannot be implemented outside this package.
// Grammar and expressions must not be modified after validation,
// compiled programs and running parsers share them.
package grammar

import (
	"strconv"
	"strings"
)

// Kind identifies expression variant.
type Kind int

const (
	LiteralKind Kind = iota
	ClassKind
	AnyKind
	ReferenceKind
	SequenceKind
	ChoiceKind
	RepetitionKind
	LookaheadKind
	LabeledKind
	ActionKind
	ExtensionKind
)

var kindNames = [...]string{
	LiteralKind:    "literal",
	ClassKind:      "class",
	AnyKind:        "any",
	ReferenceKind:  "reference",
	SequenceKind:   "sequence",
	ChoiceKind:     "choice",
	RepetitionKind: "repetition",
	LookaheadKind:  "lookahead",
	LabeledKind:    "labeled",
	ActionKind:     "action",
	ExtensionKind:  "extension",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
	return kindNames[k]
}

// Unbounded is the Repetition.Max value for repetitions with no upper limit.
const Unbounded = -1

// AnyCharLabel is the expected label reported when Any fails.
const AnyCharLabel = "<any char>"

// Expr is a grammar expression.
type Expr interface {
	// Kind returns expression variant.
	Kind() Kind
	// String returns expression in PEG notation.
	String() string
	isExpr()
}

// Literal matches exact text.
type Literal struct {
	Text            string
	CaseInsensitive bool
}

// Range is an inclusive range of codepoints, Low == High for a single character.
type Range struct {
	Low, High rune
}

// Class matches a single character belonging (or not belonging if Negated) to one of Ranges.
// Source holds original class notation used in diagnostics, it is optional.
type Class struct {
	Ranges  []Range
	Negated bool
	Source  string
}

// Any matches any single character.
type Any struct{}

// Reference invokes named rule.
type Reference struct {
	Name string
}

// Sequence matches all items in order.
// Muted items are matched but not included in resulting node's children;
// Muted is either nil or has the same length as Items.
type Sequence struct {
	Items []Expr
	Muted []bool
}

// Choice matches the first matching alternative.
type Choice struct {
	Alternatives []Expr
}

// Repetition greedily matches Expr from Min to Max times, Max may be Unbounded.
type Repetition struct {
	Expr     Expr
	Min, Max int
}

// Lookahead tests Expr without consuming input.
type Lookahead struct {
	Expr     Expr
	Negative bool
}

// Labeled binds Expr result to Label in enclosing sequence node.
type Labeled struct {
	Label string
	Expr  Expr
}

// Action passes Expr match to host action Name.
type Action struct {
	Expr Expr
	Name string
}

// Extension passes Expr result through host extension registered for Type.
type Extension struct {
	Expr Expr
	Type string
}

func (*Literal) Kind() Kind    { return LiteralKind }
func (*Class) Kind() Kind      { return ClassKind }
func (*Any) Kind() Kind        { return AnyKind }
func (*Reference) Kind() Kind  { return ReferenceKind }
func (*Sequence) Kind() Kind   { return SequenceKind }
func (*Choice) Kind() Kind     { return ChoiceKind }
func (*Repetition) Kind() Kind { return RepetitionKind }
func (*Lookahead) Kind() Kind  { return LookaheadKind }
func (*Labeled) Kind() Kind    { return LabeledKind }
func (*Action) Kind() Kind     { return ActionKind }
func (*Extension) Kind() Kind  { return ExtensionKind }

func (*Literal) isExpr()    {}
func (*Class) isExpr()      {}
func (*Any) isExpr()        {}
func (*Reference) isExpr()  {}
func (*Sequence) isExpr()   {}
func (*Choice) isExpr()     {}
func (*Repetition) isExpr() {}
func (*Lookahead) isExpr()  {}
func (*Labeled) isExpr()    {}
func (*Action) isExpr()     {}
func (*Extension) isExpr()  {}

// IsMuted reports whether i-th item is excluded from node children.
func (s *Sequence) IsMuted(i int) bool {
	return s.Muted != nil && i < len(s.Muted) && s.Muted[i]
}

// Rule is a named expression.
type Rule struct {
	Name string
	Expr Expr
}

// Grammar is an ordered rule table with designated root rule.
// Empty Root means the first rule.
type Grammar struct {
	Name  string
	Root  string
	Rules []Rule
}

// RootName returns root rule name.
func (g *Grammar) RootName() string {
	if g.Root != "" || len(g.Rules) == 0 {
		return g.Root
	}
	return g.Rules[0].Name
}

// Lookup returns expression of named rule or nil.
func (g *Grammar) Lookup(name string) Expr {
	for _, r := range g.Rules {
		if r.Name == name {
			return r.Expr
		}
	}
	return nil
}

// String returns grammar in PEG notation accepted by langdef.
func (g *Grammar) String() string {
	sb := &strings.Builder{}
	if g.Name != "" {
		sb.WriteString("grammar " + g.Name + "\n\n")
	}
	for _, r := range g.Rules {
		sb.WriteString(r.Name)
		sb.WriteString(" <- ")
		if r.Expr != nil {
			sb.WriteString(r.Expr.String())
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// Children returns direct subexpressions of e.
func Children(e Expr) []Expr {
	switch x := e.(type) {
	case *Literal, *Class, *Any, *Reference:
		return nil
	case *Sequence:
		return x.Items
	case *Choice:
		return x.Alternatives
	case *Repetition:
		return []Expr{x.Expr}
	case *Lookahead:
		return []Expr{x.Expr}
	case *Labeled:
		return []Expr{x.Expr}
	case *Action:
		return []Expr{x.Expr}
	case *Extension:
		return []Expr{x.Expr}
	default:
		panic("unknown expression type")
	}
}

// Walk visits e and its subexpressions depth-first, left to right.
// Children of an expression are skipped if visitor returns false.
func Walk(e Expr, visitor func(Expr) bool) {
	if e == nil || !visitor(e) {
		return
	}

	for _, c := range Children(e) {
		Walk(c, visitor)
	}
}

// Label returns expected label reported when terminal expression e fails to match.
// Returns e.String() for non-terminal expressions.
func Label(e Expr) string {
	switch x := e.(type) {
	case *Literal:
		if x.CaseInsensitive {
			return "`" + x.Text + "`"
		}
		return strconv.Quote(x.Text)
	case *Any:
		return AnyCharLabel
	default:
		return e.String()
	}
}
