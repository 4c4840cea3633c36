/*
peggen is a console utility compiling PEG grammars. Usage is

	peggen generate [-o <name>] [-p <name>] [-f go|ir] [--check] [--watch] <file>
	peggen ops [-f listing|yaml] <file>
	peggen inspect <file>
	peggen parse [--stats] [--no-memo] [--tree] <file> [<input>]

<file> is either grammar definition parsable by langdef.Parse() or grammar document
(files with .yaml, .yml or .json suffix) parsable by grammar.Load().

generate writes Go parser package (or grammar document) next to grammar file,
--check compares existing output with generated one and prints the difference,
--watch regenerates output every time grammar file changes.

ops prints compiled operation stream, inspect prints per-rule summary,
parse parses input file (stdin if omitted) and prints result.

Every flag may be set using environment variable PEGGEN_<COMMAND>_<FLAG> or PEGGEN_<FLAG>,
e.g. PEGGEN_GENERATE_PACKAGE or PEGGEN_LOG_LEVEL.
*/
package main

import (
	"os"
)

func main() {
	if e := rootCommand.Execute(); e != nil {
		os.Exit(exitCode(e))
	}
}
