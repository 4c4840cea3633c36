package grammar

import (
	"slices"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
	"go.uber.org/multierr"
)

// maxSuggestionDistance limits edit distance of "did you mean" suggestions.
const maxSuggestionDistance = 3

// Validate checks grammar consistency. All detected problems are returned at once,
// combined with multierr; use multierr.Errors to get separate *packrat.Error values.
func (g *Grammar) Validate() error {
	if len(g.Rules) == 0 {
		return emptyGrammarError()
	}

	var result error
	names := make(map[string]bool, len(g.Rules))
	for _, r := range g.Rules {
		if r.Name == "" {
			result = multierr.Append(result, emptyNameError(r.Name, "rule"))
			continue
		}
		if names[r.Name] {
			result = multierr.Append(result, duplicateRuleError(r.Name))
		}
		names[r.Name] = true
	}

	root := g.RootName()
	if !names[root] {
		result = multierr.Append(result, undefinedRootError(root))
	}

	for _, r := range g.Rules {
		result = multierr.Append(result, g.validateExpr(r.Name, r.Expr, names))
	}
	if result != nil {
		return result
	}

	a := Analyze(g)
	if lr := a.LeftRecursive(); len(lr) > 0 {
		result = multierr.Append(result, leftRecursionError(lr))
	}
	for _, r := range g.Rules {
		Walk(r.Expr, func(e Expr) bool {
			rep, f := e.(*Repetition)
			if f && rep.Max == Unbounded && a.Nullable(rep.Expr) {
				result = multierr.Append(result, nullableRepetitionError(r.Name, rep.Expr))
			}
			return true
		})
	}

	return result
}

func (g *Grammar) validateExpr(rule string, e Expr, names map[string]bool) error {
	if e == nil {
		return nilExpressionError(rule)
	}

	var result error
	Walk(e, func(e Expr) bool {
		var err error
		switch x := e.(type) {
		case *Literal, *Any:
		case *Class:
			err = validateClass(rule, x)
		case *Reference:
			if x.Name == "" {
				err = emptyNameError(rule, "reference")
			} else if !names[x.Name] {
				err = undefinedRuleError(rule, x.Name, g.suggest(x.Name))
			}
		case *Sequence:
			if len(x.Items) == 0 {
				err = emptyExpressionError(rule, x.Kind())
			} else if x.Muted != nil && len(x.Muted) != len(x.Items) {
				err = muteFlagsError(rule)
			}
		case *Choice:
			if len(x.Alternatives) == 0 {
				err = emptyExpressionError(rule, x.Kind())
			}
		case *Repetition:
			if x.Min < 0 || (x.Max != Unbounded && (x.Max < x.Min || x.Max == 0)) {
				err = repetitionBoundsError(rule, x.Min, x.Max)
			}
		case *Labeled:
			if x.Label == "" {
				err = emptyNameError(rule, "label")
			}
		case *Action:
			if x.Name == "" {
				err = emptyNameError(rule, "action")
			}
		case *Extension:
			if x.Type == "" {
				err = emptyNameError(rule, "type")
			}
		case *Lookahead:
		default:
			panic("unknown expression type")
		}
		result = multierr.Append(result, err)

		for _, c := range Children(e) {
			if c == nil {
				result = multierr.Append(result, nilExpressionError(rule))
				return false
			}
		}
		return true
	})

	return result
}

func validateClass(rule string, c *Class) error {
	if len(c.Ranges) == 0 {
		return malformedClassError(rule, c.String(), "no characters")
	}

	for _, r := range c.Ranges {
		if !utf8.ValidRune(r.Low) || !utf8.ValidRune(r.High) {
			return malformedClassError(rule, c.String(), "invalid character")
		}
		if r.Low > r.High {
			return malformedClassError(rule, c.String(), "inverted range")
		}
	}

	return nil
}

func (g *Grammar) suggest(name string) []string {
	minDistance := maxSuggestionDistance + 1
	var res []string
	for _, r := range g.Rules {
		d := levenshtein.ComputeDistance(name, r.Name)
		switch {
		case d < minDistance:
			res = []string{r.Name}
			minDistance = d
		case d == minDistance:
			res = append(res, r.Name)
		}
	}
	slices.Sort(res)
	return slices.Compact(res)
}

// Analysis holds nullability and left-call information of a grammar.
// Grammar must have all references resolved.
type Analysis struct {
	g        *Grammar
	nullable map[string]bool
}

// Analyze computes rule nullability using fixpoint iteration.
func Analyze(g *Grammar) *Analysis {
	a := &Analysis{g: g, nullable: make(map[string]bool, len(g.Rules))}
	for changed := true; changed; {
		changed = false
		for _, r := range g.Rules {
			if !a.nullable[r.Name] && a.Nullable(r.Expr) {
				a.nullable[r.Name] = true
				changed = true
			}
		}
	}
	return a
}

// NullableRule reports whether named rule can succeed without consuming input.
func (a *Analysis) NullableRule(name string) bool {
	return a.nullable[name]
}

// Nullable reports whether e can succeed without consuming input.
func (a *Analysis) Nullable(e Expr) bool {
	switch x := e.(type) {
	case *Literal:
		return x.Text == ""
	case *Class, *Any:
		return false
	case *Reference:
		return a.nullable[x.Name]
	case *Sequence:
		for _, item := range x.Items {
			if !a.Nullable(item) {
				return false
			}
		}
		return true
	case *Choice:
		for _, alt := range x.Alternatives {
			if a.Nullable(alt) {
				return true
			}
		}
		return false
	case *Repetition:
		return x.Min == 0 || a.Nullable(x.Expr)
	case *Lookahead:
		return true
	case *Labeled:
		return a.Nullable(x.Expr)
	case *Action:
		return a.Nullable(x.Expr)
	case *Extension:
		return a.Nullable(x.Expr)
	default:
		panic("unknown expression type")
	}
}

// LeftCalls returns names of rules that e may invoke before consuming any input,
// in order of appearance.
func (a *Analysis) LeftCalls(e Expr) []string {
	var res []string
	a.leftCalls(e, &res)
	return res
}

func (a *Analysis) leftCalls(e Expr, res *[]string) {
	switch x := e.(type) {
	case *Literal, *Class, *Any:
	case *Reference:
		if !slices.Contains(*res, x.Name) {
			*res = append(*res, x.Name)
		}
	case *Sequence:
		for _, item := range x.Items {
			a.leftCalls(item, res)
			if !a.Nullable(item) {
				break
			}
		}
	case *Choice:
		for _, alt := range x.Alternatives {
			a.leftCalls(alt, res)
		}
	case *Repetition:
		a.leftCalls(x.Expr, res)
	case *Lookahead:
		a.leftCalls(x.Expr, res)
	case *Labeled:
		a.leftCalls(x.Expr, res)
	case *Action:
		a.leftCalls(x.Expr, res)
	case *Extension:
		a.leftCalls(x.Expr, res)
	default:
		panic("unknown expression type")
	}
}

// LeftRecursive returns names of rules that can invoke themselves without consuming input,
// in rule order.
func (a *Analysis) LeftRecursive() []string {
	calls := make(map[string][]string, len(a.g.Rules))
	for _, r := range a.g.Rules {
		calls[r.Name] = a.LeftCalls(r.Expr)
	}

	var res []string
	for _, r := range a.g.Rules {
		visited := map[string]bool{}
		queue := slices.Clone(calls[r.Name])
		for len(queue) > 0 {
			name := queue[0]
			queue = queue[1:]
			if name == r.Name {
				res = append(res, r.Name)
				break
			}
			if visited[name] {
				continue
			}
			visited[name] = true
			queue = append(queue, calls[name]...)
		}
	}
	return res
}
