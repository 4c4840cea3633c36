package golang

// prelude contains runtime support of generated parser.
const prelude = `
// TreeNode is a parse tree node spanning [Offset, End) of input, offsets are in codepoints.
type TreeNode interface {
	Text() string
	Offset() int
	End() int
	Children() []TreeNode
}

// Node is the default TreeNode implementation.
type Node struct {
	text        string
	offset, end int
	children    []TreeNode
	labels      map[string]int
}

func (n *Node) Text() string {
	return n.text
}

func (n *Node) Offset() int {
	return n.offset
}

func (n *Node) End() int {
	return n.end
}

func (n *Node) Children() []TreeNode {
	return n.children
}

// Get returns child bound to label or nil.
func (n *Node) Get(label string) TreeNode {
	i, has := n.labels[label]
	if !has {
		return nil
	}
	return n.children[i]
}

// Failure is the failed match marker, it is never returned by Parse.
var Failure TreeNode = &Node{offset: -1, end: -1}

// Expectation is an element of the furthest failure record.
type Expectation struct {
	Rule  string
	Label string
}

// ParseError is returned when input does not match grammar.
// Line and Col are 1-based, Col is counted in codepoints.
type ParseError struct {
	Offset   int
	Line     int
	Col      int
	Expected []Expectation
}

func (pe *ParseError) Error() string {
	msg := "unexpected input"
	if len(pe.Expected) > 0 {
		parts := make([]string, len(pe.Expected))
		for i, ex := range pe.Expected {
			parts[i] = ex.Label + " from " + ex.Rule
		}
		msg = "expected " + strings.Join(parts, " or ")
	}
	return fmt.Sprintf("%s at line %d col %d", msg, pe.Line, pe.Col)
}

type actionError struct {
	err error
}

type memoEntry struct {
	node TreeNode
	end  int
}

type parser struct {
	text     string
	input    []rune
	cursor   int
	memo     []map[int]memoEntry
	failure  int
	expected []Expectation
	actions  Actions
	types    map[string]func(TreeNode) TreeNode
}

func (p *parser) parseError() *ParseError {
	offset := p.failure
	if offset < 0 {
		offset = 0
	}

	line, col := 1, 1
	for _, r := range p.input[:offset] {
		if r == '\n' {
			line++
			col = 1
		} else {
			col++
		}
	}
	return &ParseError{offset, line, col, p.expected}
}

func (p *parser) chunk(n int) (string, bool) {
	if p.cursor+n > len(p.input) {
		return "", false
	}
	return string(p.input[p.cursor : p.cursor+n]), true
}

func (p *parser) fail(rule, label string) {
	if p.cursor < p.failure {
		return
	}

	if p.cursor > p.failure {
		p.failure = p.cursor
		p.expected = nil
	}
	for _, ex := range p.expected {
		if ex.Rule == rule && ex.Label == label {
			return
		}
	}
	p.expected = append(p.expected, Expectation{rule, label})
}

func (p *parser) store(rule, at int, node TreeNode) {
	m := p.memo[rule]
	if m == nil {
		m = make(map[int]memoEntry)
		p.memo[rule] = m
	}
	m[at] = memoEntry{node, p.cursor}
}

func (p *parser) node(start, advance int, children []TreeNode, labels map[string]int) TreeNode {
	end := p.cursor + advance
	p.cursor = end
	return &Node{string(p.input[start:end]), start, end, children, labels}
}

func (p *parser) act(action func(string, int, int, []TreeNode) (TreeNode, error), name string, start, advance int, children []TreeNode) TreeNode {
	end := p.cursor + advance
	p.cursor = end
	n, e := action(p.text, start, end, children)
	if e != nil {
		panic(actionError{e})
	}
	if n == nil {
		panic(actionError{fmt.Errorf("action %q returned nil node", name)})
	}
	return n
}

func (p *parser) extend(typ string, n TreeNode) TreeNode {
	f := p.types[typ]
	if f == nil {
		return n
	}
	if n = f(n); n == nil {
		panic(actionError{fmt.Errorf("extension for type %q returned nil node", typ)})
	}
	return n
}
`
