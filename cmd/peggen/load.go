package main

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/ava12/packrat/compiler"
	"github.com/ava12/packrat/grammar"
	"github.com/ava12/packrat/langdef"
	"github.com/ava12/packrat/ops"
)

func isDocument(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml", ".json":
		return true
	default:
		return false
	}
}

// loadGrammar reads grammar definition or grammar document.
func loadGrammar(name string) (*grammar.Grammar, error) {
	src, e := os.ReadFile(name)
	if e != nil {
		return nil, e
	}

	if isDocument(name) {
		return grammar.Load(src)
	}
	return langdef.ParseBytes(name, src)
}

func loadProgram(name string) (*grammar.Grammar, *ops.Program, error) {
	g, e := loadGrammar(name)
	if e != nil {
		return nil, nil, e
	}

	prog, e := compiler.Compile(g, compiler.WithLogger(logger))
	if e != nil {
		return nil, nil, e
	}
	return g, prog, nil
}
