// Command listingctl inspects product drafts offline: it computes variant
// combinations, runs step contracts, assembles submission payloads and
// prints the OpenAPI description of the submission body.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// errValidationFailed makes the process exit non-zero after the failures
// were already printed.
var errValidationFailed = errors.New("draft failed validation")

type app struct {
	out    io.Writer
	in     io.Reader
	logger *zap.Logger

	verbose       bool
	draftPath     string
	contractsPath string
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "listingctl",
		Short: "Inspect and validate product listing drafts",
		Long: `listingctl works on product drafts stored as JSON or YAML.

Drafts are read from --file (or stdin with "-"). Inventory and pricing rows
are reconciled against the variant combinations before any command runs.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if a.logger != nil {
				return nil
			}
			config := zap.NewProductionConfig()
			config.OutputPaths = []string{"stderr"}
			if a.verbose {
				config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
			}
			logger, err := config.Build()
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			a.logger = logger
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}
	root.SetOut(a.out)
	root.SetIn(a.in)

	flags := root.PersistentFlags()
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "log rule evaluations at debug level")
	flags.StringVarP(&a.draftPath, "file", "f", "-", "draft file (.json, .yaml or - for stdin)")
	flags.StringVar(&a.contractsPath, "contracts", "", "YAML contract config extending the built-in rules")

	root.AddCommand(
		newCombosCmd(a),
		newValidateCmd(a),
		newAssembleCmd(a),
		newFieldsCmd(a),
		newSchemaCmd(a),
		newWalkCmd(a),
	)
	return root
}

func main() {
	a := &app{out: os.Stdout, in: os.Stdin}
	if err := newRootCmd(a).Execute(); err != nil {
		if !errors.Is(err, errValidationFailed) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}
