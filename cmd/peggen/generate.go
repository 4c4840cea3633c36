package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
	"github.com/spf13/cobra"

	"github.com/ava12/packrat/compiler"
	"github.com/ava12/packrat/grammar"
	"github.com/ava12/packrat/internal/logging"
	"github.com/ava12/packrat/render/golang"
)

// Output formats of generate command.
const (
	formatGo = "go"
	formatIR = "ir"
)

const defaultCacheSize = 16

type generateParams struct {
	output    string
	pkg       string
	format    string
	check     bool
	watch     bool
	cacheSize int
}

func newGenerateCommand(params *generateParams) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate <file>",
		Short: "Generate Go parser from grammar",
		Long: "Generate Go parser package source (or grammar document with --format ir) " +
			"from grammar definition.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if params.watch {
				ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
				defer stop()
				return watch(ctx, args[0], params, cmd.OutOrStdout())
			}
			return generate(args[0], params, nil, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&params.output, "output", "o", params.output,
		"output file name, default is the name of input file with .go or .yaml suffix, - is stdout")
	cmd.Flags().StringVarP(&params.pkg, "package", "p", params.pkg, "Go package name, default is dir name of output file")
	cmd.Flags().StringVarP(&params.format, "format", "f", params.format, "output format: go or ir")
	cmd.Flags().BoolVar(&params.check, "check", params.check, "compare existing output with generated one instead of writing")
	cmd.Flags().BoolVar(&params.watch, "watch", params.watch, "regenerate output on every grammar file change")
	cmd.Flags().IntVar(&params.cacheSize, "cache-size", params.cacheSize, "number of compiled programs kept in watch mode")
	return cmd
}

func (p *generateParams) outputName(inName string) string {
	if p.output != "" {
		return p.output
	}

	ext := filepath.Ext(inName)
	name := inName[:len(inName)-len(ext)]
	if p.format == formatIR {
		return name + ".yaml"
	}
	return name + ".go"
}

func (p *generateParams) packageName(outName string) (string, error) {
	if p.pkg != "" {
		return p.pkg, nil
	}
	if outName == "-" {
		return golang.DefaultPackage, nil
	}

	dir, e := filepath.Abs(outName)
	if e != nil {
		return "", e
	}
	return filepath.Base(filepath.Dir(dir)), nil
}

// generate renders grammar file, cache is used if not nil.
func generate(inName string, params *generateParams, cache *compiler.Cache, stdout io.Writer) error {
	log := logger.WithFields(logging.Fields{"grammar": inName})
	outName := params.outputName(inName)

	g, e := loadGrammar(inName)
	if e != nil {
		return e
	}

	var content []byte
	switch params.format {
	case formatIR:
		if e = g.Validate(); e == nil {
			content, e = grammar.Marshal(g)
		}
	case formatGo:
		content, e = renderGo(g, params, outName, cache, log)
	default:
		e = fmt.Errorf("unknown output format: %s", params.format)
	}
	if e != nil {
		return e
	}

	if params.check {
		return check(outName, content, stdout)
	}

	if outName == "-" {
		_, e = stdout.Write(content)
		return e
	}
	if e = os.WriteFile(outName, content, 0o666); e != nil {
		return e
	}
	log.Info("written %s", outName)
	return nil
}

func renderGo(g *grammar.Grammar, params *generateParams, outName string, cache *compiler.Cache, log logging.Logger) ([]byte, error) {
	pkg, e := params.packageName(outName)
	if e != nil {
		return nil, e
	}

	if cache == nil {
		prog, e := compiler.Compile(g, compiler.WithLogger(log))
		if e != nil {
			return nil, e
		}
		return golang.New(pkg).Source(prog)
	}

	prog, hit, e := cache.Compile(g, compiler.WithLogger(log))
	if e != nil {
		return nil, e
	}
	if hit {
		log.Debug("using cached program")
	}
	return golang.New(pkg).Source(prog)
}

// check compares file content with expected one and prints line diff.
func check(name string, expected []byte, stdout io.Writer) error {
	got, e := os.ReadFile(name)
	if e != nil && !errors.Is(e, os.ErrNotExist) {
		return e
	}
	if bytes.Equal(got, expected) {
		return nil
	}

	dmp := diffmatchpatch.New()
	oldText, newText, lines := dmp.DiffLinesToChars(string(got), string(expected))
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(oldText, newText, false), lines)
	fmt.Fprintf(stdout, "%s is out of date:\n", name)
	for _, d := range diffs {
		var prefix string
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			prefix = "-"
		case diffmatchpatch.DiffInsert:
			prefix = "+"
		default:
			continue
		}
		for _, line := range strings.Split(strings.TrimSuffix(d.Text, "\n"), "\n") {
			fmt.Fprintln(stdout, prefix+line)
		}
	}
	return errMismatch
}

// watch regenerates output every time grammar file is written until ctx is done.
func watch(ctx context.Context, inName string, params *generateParams, stdout io.Writer) error {
	cache, e := compiler.NewCache(params.cacheSize)
	if e != nil {
		return e
	}

	w, e := newWatcher(inName)
	if e != nil {
		return e
	}
	defer w.Close()

	regenerate := func() {
		if e := generate(inName, params, cache, stdout); e != nil {
			if errors.Is(e, errMismatch) {
				logger.Warn("%s: output is out of date", inName)
			} else {
				logger.Error("%s", e.Error())
			}
		}
	}

	regenerate()
	return w.Run(ctx, regenerate)
}
