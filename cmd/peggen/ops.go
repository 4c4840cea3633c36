package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/ava12/packrat/ops"
)

// Output formats of ops command.
const (
	formatListing = "listing"
	formatYAML    = "yaml"
)

type opsParams struct {
	format string
}

func newOpsCommand(params *opsParams) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ops <file>",
		Short: "Print compiled operation stream",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return printOps(args[0], params, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&params.format, "format", "f", params.format, "output format: listing or yaml")
	return cmd
}

func printOps(name string, params *opsParams, stdout io.Writer) error {
	_, prog, e := loadProgram(name)
	if e != nil {
		return e
	}

	switch params.format {
	case formatListing:
		return ops.Listing{}.Render(stdout, prog)
	case formatYAML:
		content, e := ops.Dump(prog)
		if e == nil {
			_, e = stdout.Write(content)
		}
		return e
	default:
		return fmt.Errorf("unknown output format: %s", params.format)
	}
}
