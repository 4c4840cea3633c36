package main

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/ava12/packrat/internal/logging"
	"github.com/ava12/packrat/metrics"
	"github.com/ava12/packrat/ops"
	"github.com/ava12/packrat/parser"
	"github.com/ava12/packrat/source"
	"github.com/ava12/packrat/tree"
)

type parseParams struct {
	stats   bool
	metrics bool
	noMemo  bool
	tree    bool
}

func newParseCommand(params *parseParams) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "parse <file> [<input>]",
		Short: "Parse input using grammar",
		Long: "Parse input file (stdin if omitted) using grammar. " +
			"Grammar actions build plain nodes, node types are ignored.",
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var inName string
			if len(args) > 1 {
				inName = args[1]
			}
			return parseInput(args[0], inName, params, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	cmd.Flags().BoolVar(&params.stats, "stats", params.stats, "print parse statistics")
	cmd.Flags().BoolVar(&params.metrics, "metrics", params.metrics, "print collected Prometheus metrics")
	cmd.Flags().BoolVar(&params.noMemo, "no-memo", params.noMemo, "disable memoization")
	cmd.Flags().BoolVar(&params.tree, "tree", params.tree, "print parse tree")
	return cmd
}

// plainActions binds every program action to a function building plain node.
func plainActions(prog *ops.Program, src *source.Source, log logging.Logger) parser.Actions {
	res := make(parser.Actions, len(prog.Actions))
	for _, name := range prog.Actions {
		name := name
		res[name] = func(_ string, start, end int, elements []tree.Node) (tree.Node, error) {
			log.Debug("action %s at %d-%d", name, start, end)
			return tree.New(src.Slice(start, end), start, end, elements, nil), nil
		}
	}
	return res
}

func parseInput(grammarName, inName string, params *parseParams, stdin io.Reader, stdout io.Writer) error {
	_, prog, e := loadProgram(grammarName)
	if e != nil {
		return e
	}

	content, e := readInput(stdin, inName)
	if e != nil {
		return e
	}
	src := source.New(inName, content)

	var stats parser.Stats
	opts := []parser.Option{parser.WithObserver(func(s parser.Stats) { stats = s })}
	if params.noMemo {
		opts = append(opts, parser.WithoutMemo())
	}
	var reg *prometheus.Registry
	if params.metrics {
		reg = prometheus.NewRegistry()
		collector, e := metrics.New(reg)
		if e != nil {
			return e
		}
		opts = append(opts, collector.Option(grammarLabel(prog, grammarName)))
	}
	log := logger.WithFields(logging.Fields{"grammar": grammarName})
	p, e := parser.New(prog, &parser.Hooks{Actions: plainActions(prog, src, log)}, opts...)
	if e != nil {
		return e
	}

	root, e := p.ParseSource(src)
	if params.stats {
		printStats(stdout, stats)
	}
	if reg != nil {
		if me := printMetrics(stdout, reg); me != nil {
			return me
		}
	}

	var pe *parser.ParseError
	if errors.As(e, &pe) {
		fmt.Fprintln(stdout, pe.Error())
		return errMismatch
	}
	if e != nil {
		return e
	}

	if params.tree {
		fmt.Fprintln(stdout, tree.Dump(root))
	} else {
		fmt.Fprintln(stdout, "ok")
	}
	return nil
}

func printStats(w io.Writer, s parser.Stats) {
	table := generateTableWithKeys(w, "counter", "value")
	rows := []struct {
		name  string
		value int
	}{
		{"input", s.Input},
		{"calls", s.Calls},
		{"memo hits", s.MemoHits},
		{"memo stores", s.MemoStores},
		{"backtracks", s.Backtracks},
		{"max depth", s.MaxDepth},
		{"actions", s.Actions},
	}
	for _, r := range rows {
		table.Append([]string{r.name, strconv.Itoa(r.value)})
	}
	table.Render()
}

// grammarLabel returns grammar name or grammar file name if grammar is unnamed.
func grammarLabel(prog *ops.Program, fileName string) string {
	if prog.Grammar != "" {
		return prog.Grammar
	}
	return filepath.Base(fileName)
}

func printMetrics(w io.Writer, reg prometheus.Gatherer) error {
	families, e := reg.Gather()
	if e != nil {
		return e
	}

	table := generateTableWithKeys(w, "metric", "labels", "value")
	for _, f := range families {
		for _, m := range f.GetMetric() {
			pairs := make([]string, len(m.GetLabel()))
			for i, l := range m.GetLabel() {
				pairs[i] = l.GetName() + "=" + l.GetValue()
			}
			labels := strings.Join(pairs, ",")

			if c := m.GetCounter(); c != nil {
				table.Append([]string{f.GetName(), labels, formatFloat(c.GetValue())})
			}
			if h := m.GetHistogram(); h != nil {
				table.Append([]string{f.GetName() + "_count", labels, strconv.FormatUint(h.GetSampleCount(), 10)})
				table.Append([]string{f.GetName() + "_sum", labels, formatFloat(h.GetSampleSum())})
			}
		}
	}
	table.Render()
	return nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
