package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/ava12/packrat/grammar"
	"github.com/ava12/packrat/ops"
)

func newInspectCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <file>",
		Short: "Print grammar summary",
		Long:  "Print compiled grammar summary: root rule, fingerprint, tables and per-rule statistics.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return inspect(args[0], cmd.OutOrStdout())
		},
	}
}

func inspect(name string, stdout io.Writer) error {
	g, prog, e := loadProgram(name)
	if e != nil {
		return e
	}

	grammarName := prog.Grammar
	if grammarName == "" {
		grammarName = "-"
	}
	fmt.Fprintf(stdout, "grammar:     %s\n", grammarName)
	fmt.Fprintf(stdout, "root:        %s\n", prog.Root)
	fmt.Fprintf(stdout, "fingerprint: %016x\n", ops.Fingerprint(prog))
	printList(stdout, "patterns", prog.Patterns)
	printList(stdout, "actions", prog.Actions)
	printList(stdout, "types", prog.Types)

	a := grammar.Analyze(g)
	table := generateTableWithKeys(stdout, "rule", "nullable", "vars", "statements", "calls")
	for _, proc := range prog.Procs {
		stmts, calls := 0, 0
		ops.Walk(proc.Body, func(s ops.Stmt) bool {
			stmts++
			if _, f := s.(*ops.Call); f {
				calls++
			}
			return true
		})
		table.Append([]string{
			proc.Rule,
			strconv.FormatBool(a.NullableRule(proc.Rule)),
			strconv.Itoa(len(proc.Vars)),
			strconv.Itoa(stmts),
			strconv.Itoa(calls),
		})
	}
	table.Render()
	return nil
}

func printList(w io.Writer, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(w, "%-12s %s\n", title+":", strings.Join(items, ", "))
}

func generateTableWithKeys(w io.Writer, keys ...string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	aligns := make([]int, len(keys))
	for i := range keys {
		aligns[i] = tablewriter.ALIGN_LEFT
	}
	table.SetHeader(keys)
	table.SetAlignment(tablewriter.ALIGN_CENTER)
	table.SetColumnAlignment(aligns)
	table.SetRowLine(false)
	table.SetAutoWrapText(false)
	return table
}
