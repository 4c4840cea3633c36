package test

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/ava12/packrat/tree"
)

// Tree expressions describe a node as either a leaf text ('text' or "text" with Go escapes)
// or a parenthesized list of children. "*" matches any single node,
// "label:" prefix requires the next child to be bound to label.
// Example: ("(" key:'a' ("," 'b')* ")").
var exprRe = regexp.MustCompile(`\(|\)|'[^']*'|"(?:[^"\\]|\\.)*"|[A-Za-z_][\w-]*:|\*|\S`)

type TreeValidator struct {
	root  tree.Node
	cmds  []string
	index int
	path  []int
}

func NewTreeValidator(n tree.Node, expr string) *TreeValidator {
	return &TreeValidator{root: n, cmds: exprRe.FindAllString(expr, -1)}
}

func (tv *TreeValidator) newError(message string, params ...any) error {
	if len(params) > 0 {
		message = fmt.Sprintf(message, params...)
	}
	return errors.New(fmt.Sprintf("path %v: ", tv.path) + message)
}

func (tv *TreeValidator) exprError(msg string) error {
	return tv.newError("error in validator expression: " + msg)
}

func (tv *TreeValidator) next() string {
	if tv.index >= len(tv.cmds) {
		return ""
	}
	tv.index++
	return tv.cmds[tv.index-1]
}

func (tv *TreeValidator) peek() string {
	if tv.index >= len(tv.cmds) {
		return ""
	}
	return tv.cmds[tv.index]
}

func unquote(cmd string) (string, bool) {
	switch cmd[0] {
	case '\'':
		return cmd[1 : len(cmd)-1], true
	case '"':
		s, e := strconv.Unquote(cmd)
		return s, e == nil
	default:
		return "", false
	}
}

// Validate checks whole tree against expression.
func (tv *TreeValidator) Validate() error {
	if e := tv.match(tv.root); e != nil {
		return e
	}
	if tv.peek() != "" {
		return tv.exprError("excessive " + tv.peek())
	}
	return nil
}

func (tv *TreeValidator) match(n tree.Node) error {
	cmd := tv.next()
	switch {
	case cmd == "":
		return tv.exprError("unexpected end of expression")

	case cmd == "*":
		if n == nil {
			return tv.newError("expecting node, got nil")
		}
		return nil

	case cmd == "(":
		if n == nil {
			return tv.newError("expecting node, got nil")
		}
		return tv.matchChildren(n)

	default:
		text, f := unquote(cmd)
		if !f {
			return tv.exprError("unexpected " + cmd)
		}
		if n == nil {
			return tv.newError("expecting %q, got nil", text)
		}
		if !tree.IsLeaf(n) {
			return tv.newError("expecting leaf %q, got node %q", text, n.Text())
		}
		if n.Text() != text {
			return tv.newError("expecting %q, got %q", text, n.Text())
		}
		return nil
	}
}

func (tv *TreeValidator) matchChildren(n tree.Node) error {
	children := n.Children()
	i := 0
	for {
		cmd := tv.peek()
		if cmd == ")" {
			tv.next()
			if i < len(children) {
				return tv.newError("expecting end of node, got %q", children[i].Text())
			}
			return nil
		}

		label := ""
		if strings.HasSuffix(cmd, ":") {
			label = cmd[:len(cmd)-1]
			tv.next()
		}
		if i >= len(children) {
			if tv.peek() == "" {
				return tv.exprError("unexpected end of expression")
			}
			return tv.newError("expecting child node, got end of node")
		}

		tv.path = append(tv.path, i)
		if label != "" && tree.Label(n, label) != children[i] {
			return tv.newError("expecting child labeled %s", label)
		}
		if e := tv.match(children[i]); e != nil {
			return e
		}
		tv.path = tv.path[:len(tv.path)-1]
		i++
	}
}

// ExpectTree fails the test if tree does not match expression.
func ExpectTree(t *testing.T, n tree.Node, expr string) {
	if e := NewTreeValidator(n, expr).Validate(); e != nil {
		fatalf(t, "%s\ngot tree: %s", e.Error(), tree.Dump(n))
	}
}

// BuildTree creates tree from expression, "*" is not allowed.
// Offsets are counted from 0, node text is the concatenation of leaf texts.
func BuildTree(expr string) (tree.Node, error) {
	tv := NewTreeValidator(nil, expr)
	n, e := tv.build(0)
	if e == nil && tv.peek() != "" {
		e = tv.exprError("excessive " + tv.peek())
	}
	return n, e
}

func (tv *TreeValidator) build(offset int) (tree.Node, error) {
	cmd := tv.next()
	if cmd == "(" {
		var (
			children []tree.Node
			labels   map[string]int
			sb       strings.Builder
		)
		end := offset
		for tv.peek() != ")" {
			if tv.peek() == "" {
				return nil, tv.exprError("unexpected end of expression")
			}
			if l := tv.peek(); strings.HasSuffix(l, ":") {
				tv.next()
				if labels == nil {
					labels = map[string]int{}
				}
				labels[l[:len(l)-1]] = len(children)
			}
			c, e := tv.build(end)
			if e != nil {
				return nil, e
			}
			children = append(children, c)
			sb.WriteString(c.Text())
			end = c.End()
		}
		tv.next()
		return tree.New(sb.String(), offset, end, children, labels), nil
	}

	if cmd == "" {
		return nil, tv.exprError("unexpected end of expression")
	}
	text, f := unquote(cmd)
	if !f {
		return nil, tv.exprError("unexpected " + cmd)
	}
	return tree.NewLeaf(text, offset, offset+utf8.RuneCountInString(text)), nil
}
