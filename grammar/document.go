package grammar

import (
	"github.com/cespare/xxhash/v2"
	"sigs.k8s.io/yaml"

	"github.com/ava12/packrat"
)

// Grammar document error codes.
const (
	DocumentSyntaxError = packrat.LoadErrors + iota
	UnknownKindError
	MalformedRangeError
	MissingExpressionError
)

// Document is a YAML or JSON representation of a grammar.
type Document struct {
	Name  string         `json:"name,omitempty"`
	Root  string         `json:"root,omitempty"`
	Rules []RuleDocument `json:"rules"`
}

// RuleDocument is a YAML or JSON representation of a rule.
type RuleDocument struct {
	Name string        `json:"name"`
	Expr *ExprDocument `json:"expr"`
}

// ExprDocument is a YAML or JSON representation of an expression.
// Kind holds Kind.String() value, the other fields are used depending on kind.
// Character ranges are written either as a single character or as "a-z".
// Missing Max means unbounded repetition.
type ExprDocument struct {
	Kind            string          `json:"kind"`
	Text            string          `json:"text,omitempty"`
	CaseInsensitive bool            `json:"ci,omitempty"`
	Ranges          []string        `json:"ranges,omitempty"`
	Negated         bool            `json:"negated,omitempty"`
	Name            string          `json:"name,omitempty"`
	Label           string          `json:"label,omitempty"`
	Type            string          `json:"type,omitempty"`
	Items           []*ExprDocument `json:"items,omitempty"`
	Mute            []bool          `json:"mute,omitempty"`
	Expr            *ExprDocument   `json:"expr,omitempty"`
	Min             int             `json:"min,omitempty"`
	Max             *int            `json:"max,omitempty"`
	Negative        bool            `json:"negative,omitempty"`
}

// Load decodes YAML or JSON grammar document. Returned grammar is not validated.
func Load(data []byte) (*Grammar, error) {
	doc := &Document{}
	if e := yaml.UnmarshalStrict(data, doc); e != nil {
		return nil, packrat.FormatError(DocumentSyntaxError, "malformed grammar document: %s", e.Error())
	}

	return doc.Grammar()
}

// Marshal encodes grammar as YAML document.
func Marshal(g *Grammar) ([]byte, error) {
	return yaml.Marshal(NewDocument(g))
}

// Fingerprint returns a hash of grammar document including root rule name.
// Class source notation does not affect the hash, class ranges do.
func (g *Grammar) Fingerprint() uint64 {
	doc := NewDocument(g)
	doc.Root = g.RootName()
	data, e := yaml.Marshal(doc)
	if e != nil {
		panic(e)
	}
	return xxhash.Sum64(data)
}

// NewDocument converts grammar to document.
func NewDocument(g *Grammar) *Document {
	doc := &Document{Name: g.Name, Root: g.Root, Rules: make([]RuleDocument, len(g.Rules))}
	for i, r := range g.Rules {
		doc.Rules[i] = RuleDocument{Name: r.Name, Expr: exprDocument(r.Expr)}
	}
	return doc
}

func exprDocument(e Expr) *ExprDocument {
	if e == nil {
		return nil
	}

	res := &ExprDocument{Kind: e.Kind().String()}
	switch x := e.(type) {
	case *Literal:
		res.Text = x.Text
		res.CaseInsensitive = x.CaseInsensitive
	case *Class:
		res.Negated = x.Negated
		res.Ranges = make([]string, len(x.Ranges))
		for i, r := range x.Ranges {
			if r.Low == r.High {
				res.Ranges[i] = string(r.Low)
			} else {
				res.Ranges[i] = string([]rune{r.Low, '-', r.High})
			}
		}
	case *Any:
	case *Reference:
		res.Name = x.Name
	case *Sequence:
		res.Items = exprDocuments(x.Items)
		res.Mute = x.Muted
	case *Choice:
		res.Items = exprDocuments(x.Alternatives)
	case *Repetition:
		res.Expr = exprDocument(x.Expr)
		res.Min = x.Min
		if x.Max != Unbounded {
			res.Max = &x.Max
		}
	case *Lookahead:
		res.Expr = exprDocument(x.Expr)
		res.Negative = x.Negative
	case *Labeled:
		res.Expr = exprDocument(x.Expr)
		res.Label = x.Label
	case *Action:
		res.Expr = exprDocument(x.Expr)
		res.Name = x.Name
	case *Extension:
		res.Expr = exprDocument(x.Expr)
		res.Type = x.Type
	default:
		panic("unknown expression type")
	}
	return res
}

func exprDocuments(es []Expr) []*ExprDocument {
	res := make([]*ExprDocument, len(es))
	for i, e := range es {
		res[i] = exprDocument(e)
	}
	return res
}

// Grammar converts document to grammar.
func (d *Document) Grammar() (*Grammar, error) {
	g := &Grammar{Name: d.Name, Root: d.Root, Rules: make([]Rule, len(d.Rules))}
	for i, r := range d.Rules {
		e, err := r.Expr.expr(r.Name)
		if err != nil {
			return nil, err
		}
		g.Rules[i] = Rule{Name: r.Name, Expr: e}
	}
	return g, nil
}

func (d *ExprDocument) expr(rule string) (Expr, error) {
	if d == nil {
		return nil, packrat.FormatError(MissingExpressionError, "missing expression in rule %q", rule)
	}

	var (
		child Expr
		e     error
	)
	switch d.Kind {
	case "repetition", "lookahead", "labeled", "action", "extension":
		child, e = d.Expr.expr(rule)
		if e != nil {
			return nil, e
		}
	}

	switch d.Kind {
	case "literal":
		return &Literal{Text: d.Text, CaseInsensitive: d.CaseInsensitive}, nil
	case "class":
		return d.class(rule)
	case "any":
		return &Any{}, nil
	case "reference":
		return &Reference{Name: d.Name}, nil
	case "sequence":
		items, e := exprs(rule, d.Items)
		if e != nil {
			return nil, e
		}
		return &Sequence{Items: items, Muted: d.Mute}, nil
	case "choice":
		alts, e := exprs(rule, d.Items)
		if e != nil {
			return nil, e
		}
		return &Choice{Alternatives: alts}, nil
	case "repetition":
		max := Unbounded
		if d.Max != nil {
			max = *d.Max
		}
		return &Repetition{Expr: child, Min: d.Min, Max: max}, nil
	case "lookahead":
		return &Lookahead{Expr: child, Negative: d.Negative}, nil
	case "labeled":
		return &Labeled{Label: d.Label, Expr: child}, nil
	case "action":
		return &Action{Expr: child, Name: d.Name}, nil
	case "extension":
		return &Extension{Expr: child, Type: d.Type}, nil
	default:
		return nil, packrat.FormatError(UnknownKindError, "unknown expression kind %q in rule %q", d.Kind, rule)
	}
}

func exprs(rule string, docs []*ExprDocument) ([]Expr, error) {
	res := make([]Expr, len(docs))
	for i, d := range docs {
		e, err := d.expr(rule)
		if err != nil {
			return nil, err
		}
		res[i] = e
	}
	return res, nil
}

func (d *ExprDocument) class(rule string) (*Class, error) {
	c := &Class{Negated: d.Negated, Ranges: make([]Range, len(d.Ranges))}
	for i, s := range d.Ranges {
		rs := []rune(s)
		switch {
		case len(rs) == 1:
			c.Ranges[i] = Range{rs[0], rs[0]}
		case len(rs) == 3 && rs[1] == '-':
			c.Ranges[i] = Range{rs[0], rs[2]}
		default:
			return nil, packrat.FormatError(MalformedRangeError, "malformed character range %q in rule %q", s, rule)
		}
	}
	return c, nil
}
