// Package tree defines parse tree nodes and helper functions for tree traversal.
//
// Nodes are immutable. A parser builds a node only for a successful match,
// nil Node value is used as the failure marker.
package tree

import (
	"slices"
	"sort"
	"strconv"
	"strings"
)

// Node is a parse tree node spanning [Offset, End) of input, offsets are in codepoints.
type Node interface {
	Text() string
	Offset() int
	End() int
	Children() []Node
}

// LabeledNode is a node with named children.
type LabeledNode interface {
	Node
	// Get returns labeled child or nil.
	Get(label string) Node
	// Labels returns sorted child labels.
	Labels() []string
}

// Base is the default Node implementation, it also implements LabeledNode.
// Host actions may embed Base into their own node types.
type Base struct {
	text        string
	offset, end int
	children    []Node
	labels      map[string]int
}

// New creates node. labels maps label names to child indexes, it is not copied and must not be modified.
func New(text string, offset, end int, children []Node, labels map[string]int) *Base {
	return &Base{text, offset, end, children, labels}
}

// NewLeaf creates node with no children.
func NewLeaf(text string, offset, end int) *Base {
	return &Base{text: text, offset: offset, end: end}
}

func (b *Base) Text() string {
	return b.text
}

func (b *Base) Offset() int {
	return b.offset
}

func (b *Base) End() int {
	return b.end
}

func (b *Base) Children() []Node {
	return b.children
}

func (b *Base) Get(label string) Node {
	i, has := b.labels[label]
	if !has || i < 0 || i >= len(b.children) {
		return nil
	}
	return b.children[i]
}

func (b *Base) Labels() []string {
	res := make([]string, 0, len(b.labels))
	for l := range b.labels {
		res = append(res, l)
	}
	sort.Strings(res)
	return res
}

// Label returns labeled child of n or nil if n has no such label.
func Label(n Node, label string) Node {
	ln, f := n.(LabeledNode)
	if !f {
		return nil
	}
	return ln.Get(label)
}

// NthChild returns i-th child of n, negative index counts from the last child (-1).
// Returns nil if there is no such child.
func NthChild(n Node, i int) Node {
	if n == nil {
		return nil
	}

	cs := n.Children()
	if i < 0 {
		i += len(cs)
	}
	if i < 0 || i >= len(cs) {
		return nil
	}
	return cs[i]
}

// AllLevels makes NumOfChildren count all descendants.
const AllLevels = -1

// NumOfChildren returns the number of descendants of parent down to levels deep,
// 0 levels means direct children only.
func NumOfChildren(parent Node, levels int) int {
	if parent == nil {
		return 0
	}

	i := 0
	for _, c := range parent.Children() {
		i++
		if levels != 0 {
			i += NumOfChildren(c, levels-1)
		}
	}
	return i
}

// IsLeaf reports whether n has no children.
func IsLeaf(n Node) bool {
	return n != nil && len(n.Children()) == 0
}

// FirstLeaf returns the first non-empty leaf of n, n itself if it is a leaf, or nil.
func FirstLeaf(n Node) Node {
	if n == nil || IsLeaf(n) {
		return n
	}

	for _, c := range n.Children() {
		if IsLeaf(c) {
			if !IsEmpty(c) {
				return c
			}
		} else if l := FirstLeaf(c); l != nil {
			return l
		}
	}
	return nil
}

// LastLeaf returns the last non-empty leaf of n, n itself if it is a leaf, or nil.
func LastLeaf(n Node) Node {
	if n == nil || IsLeaf(n) {
		return n
	}

	cs := n.Children()
	for i := len(cs) - 1; i >= 0; i-- {
		c := cs[i]
		if IsLeaf(c) {
			if !IsEmpty(c) {
				return c
			}
		} else if l := LastLeaf(c); l != nil {
			return l
		}
	}
	return nil
}

// Leaves returns all leaves of n in order.
func Leaves(n Node) []Node {
	var res []Node
	Walk(n, WalkLtr, func(ws WalkStat) (bool, bool) {
		if IsLeaf(ws.Node) {
			res = append(res, ws.Node)
		}
		return true, true
	})
	return res
}

// WalkStat describes visited node.
type WalkStat struct {
	Node   Node
	Parent Node
	// Index is the index of node in parent's children, 0 for root.
	Index int
	// Level is node depth, 0 for root.
	Level int
}

// NodeVisitor is called for every visited node.
type NodeVisitor func(ws WalkStat) (walkChildren, walkSiblings bool)

type WalkMode int

const (
	WalkLtr WalkMode = 0
	WalkRtl WalkMode = 1
)

// Walk visits n and its descendants depth-first.
func Walk(n Node, mode WalkMode, visitor NodeVisitor) {
	if n != nil {
		visitNode(WalkStat{Node: n}, visitor, (mode&WalkRtl) != 0)
	}
}

func visitNode(ws WalkStat, v NodeVisitor, rtl bool) (visitSiblings bool) {
	vc, vs := v(ws)
	if !vc {
		return vs
	}

	cs := ws.Node.Children()
	for j := range cs {
		i := j
		if rtl {
			i = len(cs) - j - 1
		}
		if cs[i] == nil {
			continue
		}
		if !visitNode(WalkStat{cs[i], ws.Node, i, ws.Level + 1}, v, rtl) {
			break
		}
	}
	return vs
}

// Dump returns s-expression representation of n.
// Leaves are quoted texts, other nodes are lists of children in parens,
// labeled children are prefixed with "label:".
func Dump(n Node) string {
	sb := &strings.Builder{}
	dumpNode(sb, n)
	return sb.String()
}

func dumpNode(sb *strings.Builder, n Node) {
	if n == nil {
		sb.WriteString("nil")
		return
	}
	if IsLeaf(n) {
		sb.WriteString(strconv.Quote(n.Text()))
		return
	}

	labels := map[int]string{}
	if ln, f := n.(LabeledNode); f {
		for _, l := range ln.Labels() {
			c := ln.Get(l)
			for i, cc := range n.Children() {
				if cc == c {
					if _, has := labels[i]; !has {
						labels[i] = l
					}
					break
				}
			}
		}
	}

	sb.WriteByte('(')
	for i, c := range n.Children() {
		if i > 0 {
			sb.WriteByte(' ')
		}
		if l, has := labels[i]; has {
			sb.WriteString(l + ":")
		}
		dumpNode(sb, c)
	}
	sb.WriteByte(')')
}

// NodeFilter selects nodes.
type NodeFilter func(n Node) bool

// NodeExtractor returns nodes related to n.
type NodeExtractor func(n Node) []Node

// NodeSelector transforms a node into a list of nodes.
type NodeSelector func(n Node) []Node

// Selector is a chain of node selectors applied in order.
type Selector struct {
	selectors []NodeSelector
}

func NewSelector() *Selector {
	return &Selector{}
}

// Apply runs selector chain for each input node and returns resulting nodes without duplicates.
func (s *Selector) Apply(input ...Node) []Node {
	res := make([]Node, 0)
	index := make(map[Node]bool)

	for i, n := range input {
		if n == nil {
			continue
		}

		ns := input[i : i+1]
		if len(s.selectors) > 0 {
			ns = selectNodes(ns, s.selectors)
		}

		for _, tn := range ns {
			if !index[tn] {
				index[tn] = true
				res = append(res, tn)
			}
		}
	}

	return res
}

func selectNodes(ns []Node, nss []NodeSelector) []Node {
	res := make([]Node, 0)
	s := nss[0]
	nss = nss[1:]
	for _, n := range ns {
		if len(nss) > 0 {
			res = append(res, selectNodes(s(n), nss)...)
		} else {
			res = append(res, s(n)...)
		}
	}
	return res
}

func (s *Selector) Use(ns NodeSelector) *Selector {
	if ns != nil {
		s.selectors = append(s.selectors, ns)
	}
	return s
}

func (s *Selector) Filter(nf NodeFilter) *Selector {
	return s.Use(func(n Node) []Node {
		if nf(n) {
			return []Node{n}
		}
		return nil
	})
}

func (s *Selector) Extract(ne NodeExtractor) *Selector {
	return s.Use(func(n Node) []Node {
		return ne(n)
	})
}

// Search selects matching descendants of a node (including the node itself).
// Descendants of matching nodes are searched only if deepSearch is set.
func (s *Selector) Search(nf NodeFilter, deepSearch bool) *Selector {
	return s.Use(func(n Node) []Node {
		res := make([]Node, 0)
		Walk(n, WalkLtr, func(ws WalkStat) (bool, bool) {
			if nf(ws.Node) {
				res = append(res, ws.Node)
				return deepSearch, true
			}
			return true, true
		})
		return res
	})
}

func IsNot(f NodeFilter) NodeFilter {
	return func(n Node) bool {
		return !f(n)
	}
}

func IsAny(fs ...NodeFilter) NodeFilter {
	return func(n Node) bool {
		for _, f := range fs {
			if f(n) {
				return true
			}
		}
		return false
	}
}

func IsAll(fs ...NodeFilter) NodeFilter {
	return func(n Node) bool {
		for _, f := range fs {
			if !f(n) {
				return false
			}
		}
		return true
	}
}

// HasText matches nodes with one of given texts.
func HasText(texts ...string) NodeFilter {
	return func(n Node) bool {
		return slices.Contains(texts, n.Text())
	}
}

// IsEmpty matches nodes spanning no input.
func IsEmpty(n Node) bool {
	return n.End() == n.Offset()
}

// Any returns the result of the first extractor returning non-empty list.
func Any(nss ...NodeExtractor) NodeExtractor {
	return func(n Node) (res []Node) {
		for _, ns := range nss {
			res = ns(n)
			if len(res) > 0 {
				break
			}
		}
		return
	}
}

// All returns combined results of all extractors.
func All(nss ...NodeExtractor) NodeExtractor {
	return func(n Node) (res []Node) {
		for _, ns := range nss {
			res = append(res, ns(n)...)
		}
		return
	}
}

func NthChildren(indexes ...int) NodeExtractor {
	return func(n Node) []Node {
		res := make([]Node, 0)
		for _, i := range indexes {
			nn := NthChild(n, i)
			if nn != nil {
				res = append(res, nn)
			}
		}
		return res
	}
}

// Labeled extracts labeled children.
func Labeled(labels ...string) NodeExtractor {
	return func(n Node) []Node {
		res := make([]Node, 0)
		for _, l := range labels {
			nn := Label(n, l)
			if nn != nil {
				res = append(res, nn)
			}
		}
		return res
	}
}
