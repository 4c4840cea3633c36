package packrat_test

import (
	"fmt"

	"github.com/ava12/packrat/compiler"
	"github.com/ava12/packrat/langdef"
	"github.com/ava12/packrat/parser"
	"github.com/ava12/packrat/tree"
)

func Example() {
	input := `foo = hello
bar = world
[sec]
baz =
[sec.subsec]
qux = !
`
	grammar := `
grammar Config
config  <- (section / value / nl)*
section <- @"[" name @"]" @nl
value   <- key:name @_ @"=" @_ text:[^\n]* @nl
name    <- [a-z]+ ("." [a-z]+)*
_       <- [ \t]*
nl      <- "\n"
`
	configGrammar, e := langdef.ParseString("example grammar", grammar)
	if e != nil {
		fmt.Println(e)
		return
	}

	prog, e := compiler.Compile(configGrammar)
	if e != nil {
		fmt.Println(e)
		return
	}

	configParser, e := parser.New(prog, nil)
	if e != nil {
		panic(e)
	}

	root, e := configParser.Parse(input)
	if e != nil {
		fmt.Println(e)
		return
	}

	result := make(map[string]string)
	prefix := ""
	for _, n := range root.Children() {
		if sec := tree.Label(n, "name"); sec != nil {
			prefix = sec.Text() + "."
		} else if key := tree.Label(n, "key"); key != nil {
			result[prefix+key.Text()] = tree.Label(n, "text").Text()
		}
	}
	fmt.Println(result)

	// Output:
	// map[bar:world foo:hello sec.baz: sec.subsec.qux:!]
}

func Example_error() {
	g, _ := langdef.ParseString("", `root <- "foo" "bar"`)
	prog, _ := compiler.Compile(g)
	p, _ := parser.New(prog, nil)

	_, e := p.Parse("foobaz")
	fmt.Println(e)

	// Output:
	// expected "bar" from root at line 1 col 4
}
