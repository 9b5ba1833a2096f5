package listing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-listing/pkg/activity"
)

func newCompleteWizard(t *testing.T, opts ...Option) *Wizard {
	t.Helper()
	draft := loadDraftFixture(t, "draft_complete.json")
	wizard, err := NewWizard(append([]Option{WithDraft(draft), WithDraftID("draft-1")}, opts...)...)
	if err != nil {
		t.Fatalf("NewWizard: %v", err)
	}
	return wizard
}

func TestNewWizardDefaults(t *testing.T) {
	wizard, err := NewWizard()
	if err != nil {
		t.Fatalf("NewWizard: %v", err)
	}
	if wizard.ID() == "" {
		t.Fatalf("expected generated id")
	}
	progress := wizard.Progress()
	if progress.ActiveStep != StepBasics || len(progress.CompletedSteps()) != 0 {
		t.Fatalf("unexpected initial progress %+v", progress)
	}
	if diff := cmp.Diff([]string{"N/A"}, keyStrings(wizard.Combinations())); diff != "" {
		t.Fatalf("combinations mismatch (-want +got):\n%s", diff)
	}
	draft := wizard.Draft()
	if len(draft.Inventories) != 1 || len(draft.Pricing) != 1 {
		t.Fatalf("expected placeholder rows, got %+v", draft)
	}
}

func TestAdvanceBlocksAndStays(t *testing.T) {
	capture := &activity.CaptureHook{}
	wizard, err := NewWizard(WithDraftID("d-1"), WithActivityHooks(activity.Hooks{capture}))
	if err != nil {
		t.Fatalf("NewWizard: %v", err)
	}

	fields, err := wizard.Advance(context.Background())
	if err != nil {
		t.Fatalf("Advance: %v", err)
	}
	if !fields.Has("basics.name", "required") {
		t.Fatalf("expected basics.name required, got %v", fields)
	}
	if wizard.Progress().ActiveStep != StepBasics {
		t.Fatalf("blocked advance must not move")
	}
	if wizard.Progress().IsCompleted(StepBasics) {
		t.Fatalf("blocked step must not be completed")
	}

	if diff := cmp.Diff([]string{activity.VerbStepBlocked}, capture.Verbs()); diff != "" {
		t.Fatalf("verbs mismatch (-want +got):\n%s", diff)
	}
	event := capture.Events[0]
	if event.ObjectID != "d-1" || event.ObjectType != activity.ObjectTypeDraft || event.Channel != activity.DefaultChannel {
		t.Fatalf("unexpected event identity %+v", event)
	}
	if diff := cmp.Diff([]string{"basics.name"}, event.Metadata["failed_paths"]); diff != "" {
		t.Fatalf("failed paths mismatch (-want +got):\n%s", diff)
	}
}

func TestAdvanceWalksToTerminalStep(t *testing.T) {
	ctx := context.Background()
	capture := &activity.CaptureHook{}
	wizard := newCompleteWizard(t, WithActivityHooks(activity.Hooks{capture}))

	for step := StepBasics; step < StepPublish; step++ {
		fields, err := wizard.Advance(ctx)
		if err != nil {
			t.Fatalf("Advance from %s: %v", step, err)
		}
		if !fields.Empty() {
			t.Fatalf("Advance from %s blocked: %v", step, fields.Err(step))
		}
	}
	progress := wizard.Progress()
	if progress.ActiveStep != StepPublish || !progress.IsLast() {
		t.Fatalf("expected terminal step, got %s", progress.ActiveStep)
	}
	if got := len(progress.CompletedSteps()); got != 8 {
		t.Fatalf("expected 8 completed steps, got %d", got)
	}

	fields, err := wizard.Advance(ctx)
	if err != nil || !fields.Empty() {
		t.Fatalf("advance on terminal step: %v %v", fields, err)
	}
	if wizard.Progress().ActiveStep != StepPublish {
		t.Fatalf("advance must stop at the terminal step")
	}
	if got := len(capture.Events); got != 9 {
		t.Fatalf("expected 9 advanced events, got %d", got)
	}
	last := capture.Events[8]
	if last.Metadata["from"] != "publish" || last.Metadata["to"] != "publish" {
		t.Fatalf("unexpected terminal advance metadata %v", last.Metadata)
	}
}

func TestRetreatAndJump(t *testing.T) {
	ctx := context.Background()
	capture := &activity.CaptureHook{}
	wizard := newCompleteWizard(t, WithActivityHooks(activity.Hooks{capture}))

	if err := wizard.Retreat(ctx); err != nil {
		t.Fatalf("Retreat: %v", err)
	}
	if wizard.Progress().ActiveStep != StepBasics {
		t.Fatalf("retreat must stop at the first step")
	}

	if _, err := wizard.Advance(ctx); err != nil {
		t.Fatalf("Advance: %v", err)
	}
	if err := wizard.JumpTo(ctx, StepShipping); err != nil {
		t.Fatalf("JumpTo: %v", err)
	}
	if err := wizard.Retreat(ctx); err != nil {
		t.Fatalf("Retreat: %v", err)
	}
	progress := wizard.Progress()
	if progress.ActiveStep != StepPricing {
		t.Fatalf("expected pricing after retreat, got %s", progress.ActiveStep)
	}
	if !progress.IsCompleted(StepBasics) || progress.IsCompleted(StepShipping) {
		t.Fatalf("jump must not change completion: %v", progress.CompletedSteps())
	}

	if err := wizard.JumpTo(ctx, Step(StepCount)); !errors.Is(err, ErrStepOutOfRange) {
		t.Fatalf("expected ErrStepOutOfRange, got %v", err)
	}

	want := []string{activity.VerbStepAdvanced, activity.VerbStepJumped}
	if diff := cmp.Diff(want, capture.Verbs()); diff != "" {
		t.Fatalf("verbs mismatch (-want +got):\n%s", diff)
	}
}

func TestSubmitRequiresTerminalStep(t *testing.T) {
	wizard := newCompleteWizard(t)
	noop := SubmitterFunc(func(context.Context, SubmissionPayload) error { return nil })
	if _, err := wizard.Submit(context.Background(), noop); !errors.Is(err, ErrNotTerminalStep) {
		t.Fatalf("expected ErrNotTerminalStep, got %v", err)
	}
}

func TestSubmitReportsEveryFailingStep(t *testing.T) {
	ctx := context.Background()
	wizard, err := NewWizard()
	if err != nil {
		t.Fatalf("NewWizard: %v", err)
	}
	if err := wizard.JumpTo(ctx, StepPublish); err != nil {
		t.Fatalf("JumpTo: %v", err)
	}

	called := false
	_, err = wizard.Submit(ctx, SubmitterFunc(func(context.Context, SubmissionPayload) error {
		called = true
		return nil
	}))
	var submitErr *SubmitError
	if !errors.As(err, &submitErr) {
		t.Fatalf("expected SubmitError, got %v", err)
	}
	if !errors.Is(err, ErrIncomplete) {
		t.Fatalf("SubmitError must unwrap to ErrIncomplete")
	}
	want := []Step{StepBasics, StepInfo, StepMedia, StepInventory, StepPricing, StepShipping}
	if diff := cmp.Diff(want, submitErr.FailedSteps()); diff != "" {
		t.Fatalf("failed steps mismatch (-want +got):\n%s", diff)
	}
	if called {
		t.Fatalf("submitter must not run on validation failure")
	}
	if wizard.Closed() {
		t.Fatalf("wizard must stay open after a failed submit")
	}
}

func TestSubmitSuccessClosesWizard(t *testing.T) {
	ctx := context.Background()
	capture := &activity.CaptureHook{}
	clock := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	wizard := newCompleteWizard(t,
		WithActivityHooks(activity.Hooks{capture}),
		WithActor(Actor{ActorID: "actor-1", TenantID: "tenant-1"}),
		WithClock(func() time.Time { return clock }),
	)
	if err := wizard.JumpTo(ctx, StepPublish); err != nil {
		t.Fatalf("JumpTo: %v", err)
	}

	var received SubmissionPayload
	payload, err := wizard.Submit(ctx, SubmitterFunc(func(_ context.Context, p SubmissionPayload) error {
		received = p
		return nil
	}))
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if diff := cmp.Diff(payload, received); diff != "" {
		t.Fatalf("returned payload differs from submitted (-returned +submitted):\n%s", diff)
	}
	if payload.Name != "Linen Shirt" || len(payload.VariantPricing) != 4 {
		t.Fatalf("unexpected payload %+v", payload)
	}
	if !wizard.Closed() {
		t.Fatalf("expected wizard closed")
	}
	if len(wizard.Draft().Variants) != 0 {
		t.Fatalf("expected draft discarded after submit")
	}

	verbs := capture.Verbs()
	if verbs[len(verbs)-1] != activity.VerbSubmitted {
		t.Fatalf("expected submitted event last, got %v", verbs)
	}
	submitted := capture.Events[len(capture.Events)-1]
	if submitted.ActorID != "actor-1" || submitted.TenantID != "tenant-1" || !submitted.OccurredAt.Equal(clock) {
		t.Fatalf("unexpected submitted event %+v", submitted)
	}
	if submitted.Metadata["combinations"] != 4 || submitted.Metadata["variants"] != 2 {
		t.Fatalf("unexpected submitted metadata %v", submitted.Metadata)
	}

	if _, err := wizard.Advance(ctx); !errors.Is(err, ErrWizardClosed) {
		t.Fatalf("expected ErrWizardClosed, got %v", err)
	}
	if err := wizard.Abandon(ctx); !errors.Is(err, ErrWizardClosed) {
		t.Fatalf("expected ErrWizardClosed on abandon, got %v", err)
	}
}

func TestSubmitterFailureKeepsDraft(t *testing.T) {
	ctx := context.Background()
	wizard := newCompleteWizard(t)
	if err := wizard.JumpTo(ctx, StepPublish); err != nil {
		t.Fatalf("JumpTo: %v", err)
	}
	backendDown := errors.New("backend down")
	_, err := wizard.Submit(ctx, SubmitterFunc(func(context.Context, SubmissionPayload) error {
		return backendDown
	}))
	if !errors.Is(err, backendDown) {
		t.Fatalf("expected wrapped submitter error, got %v", err)
	}
	if wizard.Closed() || wizard.Draft().Basics.Name != "Linen Shirt" {
		t.Fatalf("draft must survive a failed submit")
	}
	if _, err := wizard.Submit(ctx, nil); err == nil {
		t.Fatalf("expected error for nil submitter")
	}
}

func TestAbandon(t *testing.T) {
	ctx := context.Background()
	capture := &activity.CaptureHook{}
	wizard := newCompleteWizard(t, WithActivityHooks(activity.Hooks{capture}))
	if err := wizard.JumpTo(ctx, StepMedia); err != nil {
		t.Fatalf("JumpTo: %v", err)
	}
	if err := wizard.Abandon(ctx); err != nil {
		t.Fatalf("Abandon: %v", err)
	}
	if !wizard.Closed() {
		t.Fatalf("expected closed wizard")
	}
	last := capture.Events[len(capture.Events)-1]
	if last.Verb != activity.VerbAbandoned || last.Metadata["step"] != "media" {
		t.Fatalf("unexpected abandon event %+v", last)
	}
	if _, err := wizard.AddVariantOption(ctx, "Fit"); !errors.Is(err, ErrWizardClosed) {
		t.Fatalf("expected ErrWizardClosed, got %v", err)
	}
}

func TestActivityVerbFilter(t *testing.T) {
	ctx := context.Background()
	capture := &activity.CaptureHook{}
	wizard := newCompleteWizard(t,
		WithActivityHooks(activity.Hooks{capture}),
		WithActivityVerbs(activity.VerbAbandoned),
	)
	if err := wizard.JumpTo(ctx, StepMedia); err != nil {
		t.Fatalf("JumpTo: %v", err)
	}
	if err := wizard.Abandon(ctx); err != nil {
		t.Fatalf("Abandon: %v", err)
	}
	if diff := cmp.Diff([]string{activity.VerbAbandoned}, capture.Verbs()); diff != "" {
		t.Fatalf("verbs mismatch (-want +got):\n%s", diff)
	}
}

func TestHookFailuresAreLoggedNotReturned(t *testing.T) {
	ctx := context.Background()
	hookErr := errors.New("sink unavailable")
	var logged []WizardLogEvent
	wizard := newCompleteWizard(t,
		WithActivityHooks(activity.Hooks{&activity.CaptureHook{Err: hookErr}}),
		WithWizardLogger(WizardLoggerFunc(func(event WizardLogEvent) {
			logged = append(logged, event)
		})),
	)

	if _, err := wizard.Advance(ctx); err != nil {
		t.Fatalf("hook failure leaked into Advance: %v", err)
	}
	var activityErrs int
	for _, event := range logged {
		if event.Action == "activity" && errors.Is(event.Err, hookErr) {
			activityErrs++
		}
	}
	if activityErrs != 1 {
		t.Fatalf("expected one logged activity failure, got %d (%+v)", activityErrs, logged)
	}
}

func TestValidateAll(t *testing.T) {
	wizard := newCompleteWizard(t)
	failures, err := wizard.ValidateAll()
	if err != nil {
		t.Fatalf("ValidateAll: %v", err)
	}
	if len(failures) != 0 {
		t.Fatalf("expected no failures, got %v", failures)
	}
	if _, err := wizard.Validate(Step(-1)); !errors.Is(err, ErrStepOutOfRange) {
		t.Fatalf("expected ErrStepOutOfRange, got %v", err)
	}
}

func TestWizardOptions(t *testing.T) {
	registry := DefaultRegistry()
	wizard, err := NewWizard(
		WithRegistry(registry),
		WithContractConfig(ContractConfig{
			Engine: "cel",
			Steps: map[string]StepConfig{
				"basics": {Rules: []Rule{{Name: "brand_safe", Path: "name", Assert: "!name.contains('acme')"}}},
			},
		}),
		WithDraft(ProductDraft{Basics: Basics{Name: "acme shirt"}}),
		WithDraftDefaults(ProductDraft{
			Basics:   Basics{Name: "ignored", Description: "from defaults"},
			Shipping: Shipping{WeightUnit: "kg", DimensionUnit: "cm"},
		}),
	)
	if err != nil {
		t.Fatalf("NewWizard: %v", err)
	}
	draft := wizard.Draft()
	if draft.Basics.Name != "acme shirt" || draft.Basics.Description != "from defaults" {
		t.Fatalf("defaults layered incorrectly: %+v", draft.Basics)
	}
	if draft.Shipping.WeightUnit != "kg" {
		t.Fatalf("expected shipping default, got %+v", draft.Shipping)
	}

	fields, err := wizard.Validate(StepBasics)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if !fields.Has("basics.name", "brand_safe") {
		t.Fatalf("expected config rule to run on the cel engine, got %v", fields)
	}
	if len(registry.SchemaFor(StepBasics).Rules) != 0 {
		t.Fatalf("WithRegistry must not mutate the caller's registry")
	}

	if _, err := NewWizard(WithContractConfig(ContractConfig{Engine: "lua"})); !errors.Is(err, ErrNoEvaluator) {
		t.Fatalf("expected ErrNoEvaluator, got %v", err)
	}
}

func sameText(args ...any) (any, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("sameText expects 2 args")
	}
	a, _ := args[0].(string)
	b, _ := args[1].(string)
	return strings.EqualFold(a, b), nil
}

func TestCustomFunctionsAcrossEvaluators(t *testing.T) {
	cases := []struct {
		engine  string
		reserve string
		present string
	}{
		{"expr", `!call("sameText", name, "ACME SHIRT")`, `!blank(name)`},
		{"cel", `call("sameText", [name, "ACME SHIRT"]) == false`, `call("blank", [name]) == false`},
		{"js", `!call("sameText", name, "ACME SHIRT")`, `!blank(name)`},
	}
	for _, tc := range cases {
		t.Run(tc.engine, func(t *testing.T) {
			if tc.engine == "js" && !jsEvaluatorAvailable() {
				t.Skip("js evaluator requires the js_eval build tag")
			}
			wizard, err := NewWizard(
				WithContractConfig(ContractConfig{
					Engine: tc.engine,
					Steps: map[string]StepConfig{
						"basics": {Rules: []Rule{
							{Name: "reserved", Path: "name", Assert: tc.reserve},
							{Name: "present", Path: "name", Assert: tc.present},
						}},
					},
				}),
				WithCustomFunction("sameText", sameText),
				WithDraft(ProductDraft{Basics: Basics{Name: "Acme Shirt"}}),
			)
			if err != nil {
				t.Fatalf("NewWizard: %v", err)
			}
			fields, err := wizard.Validate(StepBasics)
			if err != nil {
				t.Fatalf("Validate: %v", err)
			}
			if !fields.Has("basics.name", "reserved") {
				t.Fatalf("expected custom function to fail reserved, got %v", fields)
			}
			if fields.Has("basics.name", "present") {
				t.Fatalf("default helpers must survive a custom function, got %v", fields)
			}
		})
	}
}

func TestCustomFunctionRegistrationErrors(t *testing.T) {
	cases := []struct {
		name string
		opts []Option
	}{
		{"shadows default", []Option{WithCustomFunction("blank", sameText)}},
		{"case-insensitive duplicate", []Option{
			WithCustomFunction("sameText", sameText),
			WithCustomFunction("SAMETEXT", sameText),
		}},
		{"empty name", []Option{WithCustomFunction("", sameText)}},
		{"nil function", []Option{WithCustomFunction("noop", nil)}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			wizard, err := NewWizard(tc.opts...)
			if err == nil {
				t.Fatalf("expected registration error")
			}
			if wizard != nil {
				t.Fatalf("expected no wizard on error")
			}
		})
	}

	registry := NewFunctionRegistry()
	if _, err := NewWizard(WithFunctionRegistry(registry), WithCustomFunction("blank", sameText)); err != nil {
		t.Fatalf("a supplied registry replaces the defaults: %v", err)
	}
}
