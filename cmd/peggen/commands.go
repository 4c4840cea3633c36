package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/ava12/packrat/internal/logging"
)

const envPrefix = "peggen"

// Exit codes.
const (
	exitFailure = 1
	exitError   = 3
)

// errMismatch signals failed check or parse, details are already printed.
var errMismatch = errors.New("mismatch")

func exitCode(e error) int {
	if errors.Is(e, errMismatch) {
		return exitFailure
	}
	return exitError
}

type rootParams struct {
	logLevel  string
	logFormat string
}

var (
	configuredRootParams = rootParams{logLevel: "info", logFormat: "text"}
	logger               logging.Logger = logging.NewNoOpLogger()
)

var rootCommand = newRootCommand(&configuredRootParams)

func newRootCommand(params *rootParams) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "peggen",
		Short:         "PEG parser generator",
		Long:          "Compile PEG grammars to Go parsers, inspect compiled programs and parse input.",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if e := checkEnvironmentVariables(cmd); e != nil {
				return e
			}
			l, e := logging.New(cmd.ErrOrStderr(), params.logLevel, params.logFormat)
			if e != nil {
				return e
			}
			logger = l
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&params.logLevel, "log-level", params.logLevel, "log level: debug, info, warn or error")
	cmd.PersistentFlags().StringVar(&params.logFormat, "log-format", params.logFormat, "log format: text, json or json-pretty")

	cmd.AddCommand(
		newGenerateCommand(&generateParams{format: formatGo, cacheSize: defaultCacheSize}),
		newOpsCommand(&opsParams{format: formatListing}),
		newInspectCommand(),
		newParseCommand(&parseParams{}),
	)
	return cmd
}

// checkEnvironmentVariables sets unchanged flags of command from environment.
// Command specific variables take precedence over global ones.
func checkEnvironmentVariables(cmd *cobra.Command) error {
	prefixes := []string{envPrefix}
	if cmd.Name() != envPrefix {
		prefixes = []string{envPrefix + "_" + cmd.Name(), envPrefix}
	}

	vs := make([]*viper.Viper, len(prefixes))
	for i, prefix := range prefixes {
		v := viper.New()
		v.SetEnvPrefix(prefix)
		v.AutomaticEnv()
		vs[i] = v
	}

	var errs []string
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if f.Changed {
			return
		}
		configName := strings.ReplaceAll(f.Name, "-", "_")
		for _, v := range vs {
			if !v.IsSet(configName) {
				continue
			}
			if e := cmd.Flags().Set(f.Name, fmt.Sprintf("%v", v.Get(configName))); e != nil {
				errs = append(errs, e.Error())
			}
			return
		}
	})

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("error mapping environment variables to command flags: %s", strings.Join(errs, "; "))
}

func readInput(stdin io.Reader, name string) ([]byte, error) {
	if name == "" || name == "-" {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(name)
}
