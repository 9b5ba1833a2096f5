package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	listing "github.com/goliatone/go-listing"
	"github.com/goliatone/go-listing/pkg/activity"
	"github.com/goliatone/go-listing/pkg/logging/zaplog"
	"github.com/goliatone/go-listing/pkg/state"
	"github.com/goliatone/go-listing/schema/openapi"
)

func newCombosCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "combos",
		Short: "Print the variant combination keys of a draft",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			draft, err := a.loadDraft()
			if err != nil {
				return err
			}
			for _, key := range listing.ComputeCombinations(draft.Variants) {
				fmt.Fprintln(a.out, key)
			}
			return nil
		},
	}
}

type stepReport struct {
	Step   string              `json:"step"`
	Valid  bool                `json:"valid"`
	Errors listing.FieldErrors `json:"errors,omitempty"`
}

func newValidateCmd(a *app) *cobra.Command {
	var stepName string
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Run step contracts against a draft",
		Long: `Runs the contract of one step (--step) or of every step and prints a JSON
report. The command exits non-zero when any step fails.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			draft, err := a.loadDraft()
			if err != nil {
				return err
			}
			registry, evaluator, err := a.loadContracts()
			if err != nil {
				return err
			}

			steps := listing.Steps()
			if stepName != "" {
				step, err := parseStepFlag(stepName)
				if err != nil {
					return err
				}
				steps = []listing.Step{step}
			}

			logger := zaplog.New(a.logger)
			reports := make([]stepReport, 0, len(steps))
			failed := false
			for _, step := range steps {
				fields, err := registry.Validate(step, &draft, evaluator, logger)
				if err != nil {
					return fmt.Errorf("validate %s: %w", step, err)
				}
				report := stepReport{Step: step.String(), Valid: fields.Empty()}
				if !report.Valid {
					report.Errors = fields
					failed = true
				}
				reports = append(reports, report)
			}
			if err := a.writeJSON(reports); err != nil {
				return err
			}
			if failed {
				return errValidationFailed
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&stepName, "step", "", "validate a single step (basics, info, ..., tags)")
	return cmd
}

func newAssembleCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "assemble",
		Short: "Print the submission payload for a draft without validating it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			draft, err := a.loadDraft()
			if err != nil {
				return err
			}
			return a.writeJSON(listing.Assemble(draft))
		},
	}
}

func newFieldsCmd(a *app) *cobra.Command {
	var stepName string
	cmd := &cobra.Command{
		Use:   "fields",
		Short: "List the field paths a step owns in a draft",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			step, err := parseStepFlag(stepName)
			if err != nil {
				return err
			}
			draft, err := a.loadDraft()
			if err != nil {
				return err
			}
			fields, err := listing.DescribeStep(draft, step)
			if err != nil {
				return err
			}
			for _, field := range fields {
				fmt.Fprintf(a.out, "%s\t%s\n", field.Path, field.Type)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&stepName, "step", "basics", "step to describe")
	return cmd
}

func newSchemaCmd(a *app) *cobra.Command {
	var (
		format  string
		path    string
		version string
	)
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Print the OpenAPI document for the submission payload",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := openapi.ProductDocument(
				openapi.WithOperation(path, "", ""),
				openapi.WithInfo("", version),
			)
			if err != nil {
				return err
			}
			switch strings.ToLower(format) {
			case "json":
				return a.writeJSON(doc)
			case "yaml", "yml":
				encoder := yaml.NewEncoder(a.out)
				encoder.SetIndent(2)
				if err := encoder.Encode(doc); err != nil {
					return err
				}
				return encoder.Close()
			default:
				return fmt.Errorf("unknown format %q (want json or yaml)", format)
			}
		},
	}
	cmd.Flags().StringVar(&format, "format", "json", "output format: json or yaml")
	cmd.Flags().StringVar(&path, "path", "", "override the operation path (default /products)")
	cmd.Flags().StringVar(&version, "api-version", "", "override info.version")
	return cmd
}

func newWalkCmd(a *app) *cobra.Command {
	var (
		submit bool
		owner  string
	)
	cmd := &cobra.Command{
		Use:   "walk",
		Short: "Advance a wizard through every step of a draft",
		Long: `Starts a wizard from the draft and advances until a step blocks or the
terminal step is reached. With --submit the assembled payload is printed
once every contract passes.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			draft, err := a.loadDraft()
			if err != nil {
				return err
			}
			registry, evaluator, err := a.loadContracts()
			if err != nil {
				return err
			}

			store := state.NewMemoryStore(state.WithCopier(listing.Snapshot.Clone))
			logHook := activity.HookFunc(func(_ context.Context, event activity.Event) error {
				a.logger.Debug("activity",
					zap.String("verb", event.Verb),
					zap.String("object", event.ObjectID),
				)
				return nil
			})
			opts := append(zaplog.New(a.logger).Options(),
				listing.WithDraft(draft),
				listing.WithRegistry(registry),
				listing.WithEvaluator(evaluator),
				listing.WithActivityHooks(activity.Hooks{logHook}),
				listing.WithCheckpointStore(store, state.Ref{Domain: "listingctl", OwnerID: owner}),
			)
			wizard, err := listing.NewWizard(opts...)
			if err != nil {
				return err
			}

			for {
				step := wizard.Progress().ActiveStep
				if step == listing.LastStep {
					break
				}
				fields, err := wizard.Advance(ctx)
				if err != nil {
					return err
				}
				if !fields.Empty() {
					fmt.Fprintf(a.out, "blocked at %s\n", step)
					for _, path := range fields.Paths() {
						for _, fieldErr := range fields[path] {
							fmt.Fprintf(a.out, "  %s: %s (%s)\n", path, fieldErr.Message, fieldErr.Rule)
						}
					}
					meta, err := wizard.Checkpoint(ctx)
					if err != nil {
						return err
					}
					a.logger.Debug("checkpoint saved",
						zap.String("draft", wizard.ID()),
						zap.String("etag", meta.ETag),
					)
					return errValidationFailed
				}
				fmt.Fprintf(a.out, "completed %s\n", step)
			}

			if !submit {
				return nil
			}
			_, err = wizard.Submit(ctx, listing.SubmitterFunc(func(_ context.Context, payload listing.SubmissionPayload) error {
				return a.writeJSON(payload)
			}))
			return err
		},
	}
	cmd.Flags().BoolVar(&submit, "submit", false, "print the payload after reaching the terminal step")
	cmd.Flags().StringVar(&owner, "owner", "cli", "owner id recorded on the checkpoint of a blocked draft")
	return cmd
}
