package tree_test

import (
	"strings"
	"testing"

	"github.com/ava12/packrat/internal/test"
	"github.com/ava12/packrat/tree"
)

func buildTree(t *testing.T, expr string) tree.Node {
	t.Helper()
	n, e := test.BuildTree(expr)
	if e != nil {
		t.Fatal(e)
	}
	return n
}

func texts(ns []tree.Node) string {
	res := make([]string, len(ns))
	for i, n := range ns {
		if n == nil {
			res[i] = "nil"
		} else {
			res[i] = n.Text()
		}
	}
	return strings.Join(res, " ")
}

func TestBase(t *testing.T) {
	root := buildTree(t, `('ab' key:('c' 'd') 'e')`)
	test.ExpectString(t, "abcde", root.Text())
	test.ExpectInt(t, 0, root.Offset())
	test.ExpectInt(t, 5, root.End())
	test.ExpectString(t, "cd", tree.Label(root, "key").Text())
	test.ExpectInt(t, 2, tree.Label(root, "key").Offset())
	test.Assert(t, tree.Label(root, "foo") == nil, "unexpected label")
	test.Assert(t, tree.Label(tree.NthChild(root, 0), "key") == nil, "unexpected label on leaf")
	test.ExpectEqual(t, []string{"key"}, root.(tree.LabeledNode).Labels())
}

func TestNthChild(t *testing.T) {
	root := buildTree(t, `('a' 'b' 'c')`)
	test.ExpectString(t, "a", tree.NthChild(root, 0).Text())
	test.ExpectString(t, "c", tree.NthChild(root, -1).Text())
	test.ExpectString(t, "b", tree.NthChild(root, -2).Text())
	test.Assert(t, tree.NthChild(root, 3) == nil, "child #3 exists")
	test.Assert(t, tree.NthChild(root, -4) == nil, "child #-4 exists")
	test.Assert(t, tree.NthChild(nil, 0) == nil, "child of nil exists")
}

func TestNumOfChildren(t *testing.T) {
	root := buildTree(t, `('a' ('b' ('c' 'd')) 'e')`)
	test.ExpectInt(t, 3, tree.NumOfChildren(root, 0))
	test.ExpectInt(t, 5, tree.NumOfChildren(root, 1))
	test.ExpectInt(t, 7, tree.NumOfChildren(root, tree.AllLevels))
	test.ExpectInt(t, 0, tree.NumOfChildren(nil, tree.AllLevels))
}

func TestLeaves(t *testing.T) {
	root := buildTree(t, `(() ('' ('a' 'b')) ('c' '') ())`)
	test.ExpectString(t, "a", tree.FirstLeaf(root).Text())
	test.ExpectString(t, "c", tree.LastLeaf(root).Text())
	test.Assert(t, tree.FirstLeaf(buildTree(t, `(() (''))`)) == nil, "unexpected first leaf")
	test.ExpectString(t, "x", tree.FirstLeaf(buildTree(t, `'x'`)).Text())
	test.ExpectInt(t, 7, len(tree.Leaves(root)))
}

func TestWalk(t *testing.T) {
	root := buildTree(t, `('a' ('b' 'c') ('d' 'e' 'g') 'f')`)

	var visited []string
	tree.Walk(root, tree.WalkLtr, func(ws tree.WalkStat) (bool, bool) {
		visited = append(visited, strings.Repeat("-", ws.Level)+ws.Node.Text())
		return ws.Node.Text() != "bc", ws.Node.Text() != "e"
	})
	test.ExpectString(t, "abcdegf -a -bc -deg --d --e -f", strings.Join(visited, " "))

	visited = nil
	tree.Walk(root, tree.WalkRtl, func(ws tree.WalkStat) (bool, bool) {
		if tree.IsLeaf(ws.Node) {
			visited = append(visited, ws.Node.Text())
		}
		return true, ws.Node.Text() != "e"
	})
	test.ExpectString(t, "f g e c b a", strings.Join(visited, " "))
}

func TestWalkStat(t *testing.T) {
	root := buildTree(t, `('a' ('b' 'c'))`)
	tree.Walk(root, tree.WalkLtr, func(ws tree.WalkStat) (bool, bool) {
		if ws.Node.Text() == "c" {
			test.ExpectInt(t, 1, ws.Index)
			test.ExpectInt(t, 2, ws.Level)
			test.ExpectString(t, "bc", ws.Parent.Text())
		}
		return true, true
	})
}

func TestDump(t *testing.T) {
	samples := []string{
		`"x"`,
		`("a" key:("b" "c") "d")`,
		`(("a") "" "\n")`,
	}
	for _, s := range samples {
		test.ExpectString(t, s, tree.Dump(buildTree(t, s)))
	}
	test.ExpectString(t, "nil", tree.Dump(nil))
}

func TestSelector(t *testing.T) {
	root := buildTree(t, `('a' ('b' 'a') x:('a' 'c') 'd')`)

	res := tree.NewSelector().Search(tree.HasText("a"), false).Apply(root)
	test.ExpectString(t, "a a a", texts(res))

	res = tree.NewSelector().Extract(tree.NthChildren(1, 2, -1, 7)).Apply(root)
	test.ExpectString(t, "ba ac d", texts(res))

	res = tree.NewSelector().
		Extract(tree.All(tree.Labeled("x"), tree.NthChildren(2))).
		Extract(tree.NthChildren(-1)).
		Apply(root)
	test.ExpectString(t, "c", texts(res))

	res = tree.NewSelector().
		Extract(tree.Any(tree.Labeled("y"), tree.NthChildren(1))).
		Filter(tree.IsNot(tree.IsLeaf)).
		Apply(root)
	test.ExpectString(t, "ba", texts(res))

	res = tree.NewSelector().
		Search(tree.IsAll(tree.IsLeaf, tree.IsAny(tree.HasText("c"), tree.HasText("d"))), true).
		Apply(root)
	test.ExpectString(t, "c d", texts(res))
}

func TestValidator(t *testing.T) {
	root := buildTree(t, `('(' key:'a' (',' 'b') ')')`)
	test.ExpectTree(t, root, `('(' key:'a' * ")")`)

	fails := []string{
		`('(' 'a' (',' 'b'))`,
		`('(' x:'a' * ')')`,
		`('(' 'b' * ')')`,
		`('(' 'a' (',') ')')`,
		`'(a,b)'`,
	}
	for _, f := range fails {
		if test.NewTreeValidator(root, f).Validate() == nil {
			t.Errorf("expression %s expected to fail", f)
		}
	}
}
