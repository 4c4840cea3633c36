package grammar

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	choicePrec = iota
	taggedPrec
	sequencePrec
	prefixPrec
	postfixPrec
	primaryPrec
)

func precedence(e Expr) int {
	switch x := e.(type) {
	case *Choice:
		if len(x.Alternatives) == 0 {
			return primaryPrec
		}
		if len(x.Alternatives) == 1 {
			return precedence(x.Alternatives[0])
		}
		return choicePrec
	case *Action, *Extension:
		return taggedPrec
	case *Sequence:
		if len(x.Items) == 0 {
			return primaryPrec
		}
		if len(x.Items) == 1 && !x.IsMuted(0) {
			return precedence(x.Items[0])
		}
		return sequencePrec
	case *Lookahead, *Labeled:
		return prefixPrec
	case *Repetition:
		return postfixPrec
	default:
		return primaryPrec
	}
}

func writeExpr(sb *strings.Builder, e Expr, minPrec int) {
	if e == nil {
		sb.WriteString("()")
		return
	}

	wrap := precedence(e) < minPrec
	if wrap {
		sb.WriteByte('(')
	}

	switch x := e.(type) {
	case *Literal, *Class, *Any, *Reference:
		sb.WriteString(e.String())

	case *Sequence:
		if len(x.Items) == 0 {
			sb.WriteString("()")
		}
		for i, item := range x.Items {
			if i > 0 {
				sb.WriteByte(' ')
			}
			if x.IsMuted(i) {
				sb.WriteByte('@')
			}
			writeExpr(sb, item, prefixPrec)
		}

	case *Choice:
		if len(x.Alternatives) == 0 {
			sb.WriteString("()")
		}
		for i, alt := range x.Alternatives {
			if i > 0 {
				sb.WriteString(" / ")
			}
			writeExpr(sb, alt, taggedPrec)
		}

	case *Repetition:
		writeExpr(sb, x.Expr, primaryPrec)
		sb.WriteString(repetitionSuffix(x.Min, x.Max))

	case *Lookahead:
		if x.Negative {
			sb.WriteByte('!')
		} else {
			sb.WriteByte('&')
		}
		writeExpr(sb, x.Expr, prefixPrec)

	case *Labeled:
		sb.WriteString(x.Label)
		sb.WriteByte(':')
		writeExpr(sb, x.Expr, prefixPrec)

	case *Action:
		writeExpr(sb, x.Expr, sequencePrec)
		sb.WriteString(" %")
		sb.WriteString(x.Name)

	case *Extension:
		writeExpr(sb, x.Expr, taggedPrec)
		sb.WriteString(" <")
		sb.WriteString(x.Type)
		sb.WriteByte('>')

	default:
		panic(fmt.Sprintf("unknown expression type %T", e))
	}

	if wrap {
		sb.WriteByte(')')
	}
}

func repetitionSuffix(min, max int) string {
	switch {
	case min == 0 && max == Unbounded:
		return "*"
	case min == 1 && max == Unbounded:
		return "+"
	case min == 0 && max == 1:
		return "?"
	case max == Unbounded:
		return fmt.Sprintf("{%d,}", min)
	case min == max:
		return fmt.Sprintf("{%d}", min)
	default:
		return fmt.Sprintf("{%d,%d}", min, max)
	}
}

func exprString(e Expr) string {
	sb := &strings.Builder{}
	writeExpr(sb, e, choicePrec)
	return sb.String()
}

func (l *Literal) String() string {
	if l.CaseInsensitive {
		return "`" + l.Text + "`"
	}
	return strconv.Quote(l.Text)
}

func (c *Class) String() string {
	if c.Source != "" {
		return c.Source
	}
	return ClassSource(c.Ranges, c.Negated)
}

func (*Any) String() string {
	return "."
}

func (r *Reference) String() string {
	return r.Name
}

func (s *Sequence) String() string   { return exprString(s) }
func (c *Choice) String() string     { return exprString(c) }
func (r *Repetition) String() string { return exprString(r) }
func (l *Lookahead) String() string  { return exprString(l) }
func (l *Labeled) String() string    { return exprString(l) }
func (a *Action) String() string     { return exprString(a) }
func (e *Extension) String() string  { return exprString(e) }

// ClassSource returns character class notation for given ranges.
func ClassSource(ranges []Range, negated bool) string {
	sb := &strings.Builder{}
	sb.WriteByte('[')
	if negated {
		sb.WriteByte('^')
	}
	for _, r := range ranges {
		writeClassChar(sb, r.Low)
		if r.High != r.Low {
			sb.WriteByte('-')
			writeClassChar(sb, r.High)
		}
	}
	sb.WriteByte(']')
	return sb.String()
}

func writeClassChar(sb *strings.Builder, r rune) {
	switch r {
	case ']', '[', '\\', '-', '^':
		sb.WriteByte('\\')
		sb.WriteRune(r)
	case '\n':
		sb.WriteString(`\n`)
	case '\r':
		sb.WriteString(`\r`)
	case '\t':
		sb.WriteString(`\t`)
	default:
		if strconv.IsPrint(r) && r != ' ' {
			sb.WriteRune(r)
		} else {
			fmt.Fprintf(sb, `\x{%x}`, r)
		}
	}
}

// Pattern returns anchored regular expression matching a single character of the class.
func (c *Class) Pattern() string {
	if len(c.Ranges) == 0 {
		if c.Negated {
			return `^(?s:.)`
		}
		return `^[^\x{0}-\x{10ffff}]`
	}

	sb := &strings.Builder{}
	sb.WriteString("^[")
	if c.Negated {
		sb.WriteByte('^')
	}
	for _, r := range c.Ranges {
		fmt.Fprintf(sb, `\x{%x}`, r.Low)
		if r.High != r.Low {
			fmt.Fprintf(sb, `-\x{%x}`, r.High)
		}
	}
	sb.WriteByte(']')
	return sb.String()
}

// Contains reports whether r matches the class.
func (c *Class) Contains(r rune) bool {
	in := false
	for _, rr := range c.Ranges {
		if r >= rr.Low && r <= rr.High {
			in = true
			break
		}
	}
	return in != c.Negated
}
