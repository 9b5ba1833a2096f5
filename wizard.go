package listing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goliatone/go-listing/layering"
	"github.com/goliatone/go-listing/pkg/activity"
	"github.com/google/uuid"
)

// Wizard drives one product draft through the ordered steps. It owns the
// draft exclusively and is not safe for concurrent use.
type Wizard struct {
	id        string
	cfg       wizardConfig
	registry  *Registry
	evaluator Evaluator
	evalLog   EvaluatorLogger
	logger    WizardLogger
	emitter   *activity.Emitter

	draft    ProductDraft
	progress WizardProgress
	keys     []CombinationKey
	closed   bool
	etag     string
}

// NewWizard returns a wizard on the first step with an empty (or supplied)
// draft whose inventory and pricing rows already match its combinations.
func NewWizard(opts ...Option) (*Wizard, error) {
	cfg := applyOptions(opts)
	if cfg.err != nil {
		return nil, cfg.err
	}

	registry, err := cfg.resolveRegistry()
	if err != nil {
		return nil, err
	}
	evaluator, err := cfg.resolveEvaluator()
	if err != nil {
		return nil, err
	}

	w := &Wizard{
		id:        cfg.id,
		cfg:       cfg,
		registry:  registry,
		evaluator: evaluator,
		evalLog:   cfg.evaluatorLogger,
		logger:    cfg.wizardLogger,
		emitter:   cfg.resolveEmitter(),
		progress:  newProgress(),
		etag:      cfg.etag,
	}
	if w.id == "" {
		w.id = uuid.NewString()
	}
	if w.evalLog == nil {
		w.evalLog = noopEvaluatorLogger{}
	}
	if w.logger == nil {
		w.logger = noopWizardLogger{}
	}
	if cfg.draft != nil {
		w.draft = *cfg.draft
	}
	if len(cfg.defaults) > 0 {
		layers := append([]ProductDraft{w.draft}, cfg.defaults...)
		w.draft = layering.MergeLayers(layers...)
	}
	if cfg.progress != nil {
		if !cfg.progress.ActiveStep.Valid() {
			return nil, fmt.Errorf("%w: %d", ErrStepOutOfRange, int(cfg.progress.ActiveStep))
		}
		w.progress = cfg.progress.clone()
	}
	w.keys = w.draft.Sync()
	return w, nil
}

// ID returns the draft identifier used for activity and checkpoints.
func (w *Wizard) ID() string {
	return w.id
}

// Draft returns a deep copy of the current draft.
func (w *Wizard) Draft() ProductDraft {
	return w.draft.Clone()
}

// Progress returns a copy of the navigation state.
func (w *Wizard) Progress() WizardProgress {
	return w.progress.clone()
}

// Combinations returns the current combination keys.
func (w *Wizard) Combinations() []CombinationKey {
	return append([]CombinationKey(nil), w.keys...)
}

// Closed reports whether the wizard was submitted or abandoned.
func (w *Wizard) Closed() bool {
	return w.closed
}

// Validate runs step's contract against the draft without moving.
func (w *Wizard) Validate(step Step) (FieldErrors, error) {
	if !step.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrStepOutOfRange, int(step))
	}
	return w.registry.Validate(step, &w.draft, w.evaluator, w.evalLog)
}

// ValidateAll runs every contract and returns the failing steps only.
func (w *Wizard) ValidateAll() (map[Step]FieldErrors, error) {
	failures := map[Step]FieldErrors{}
	for _, step := range Steps() {
		fields, err := w.Validate(step)
		if err != nil {
			return nil, err
		}
		if !fields.Empty() {
			failures[step] = fields
		}
	}
	return failures, nil
}

// Advance validates the active step. On success the step is marked completed
// and the wizard moves forward, stopping at the terminal step. On failure
// the wizard stays and the field errors are returned with a nil error.
func (w *Wizard) Advance(ctx context.Context) (FieldErrors, error) {
	if w.closed {
		return nil, ErrWizardClosed
	}
	start := time.Now()
	from := w.progress.ActiveStep

	fields, err := w.Validate(from)
	if err != nil {
		w.logTransition("advance", from, from, 0, start, err)
		return nil, err
	}
	if !fields.Empty() {
		w.logTransition("advance", from, from, fields.Len(), start, nil)
		w.emit(ctx, activity.BuildStepBlockedEvent(w.draftContext(), transition(from, from, fields)))
		return fields, nil
	}

	w.progress.markCompleted(from)
	to := from
	if from < LastStep {
		to = from + 1
	}
	w.progress.ActiveStep = to
	w.logTransition("advance", from, to, 0, start, nil)
	w.emit(ctx, activity.BuildStepAdvancedEvent(w.draftContext(), transition(from, to, nil)))
	return fields, nil
}

// Retreat moves back one step without validation. Completion is kept.
func (w *Wizard) Retreat(ctx context.Context) error {
	if w.closed {
		return ErrWizardClosed
	}
	start := time.Now()
	from := w.progress.ActiveStep
	if from > StepBasics {
		w.progress.ActiveStep = from - 1
	}
	w.logTransition("retreat", from, w.progress.ActiveStep, 0, start, nil)
	return nil
}

// JumpTo moves to any step without validation.
func (w *Wizard) JumpTo(ctx context.Context, step Step) error {
	if w.closed {
		return ErrWizardClosed
	}
	if !step.Valid() {
		return fmt.Errorf("%w: %d", ErrStepOutOfRange, int(step))
	}
	start := time.Now()
	from := w.progress.ActiveStep
	w.progress.ActiveStep = step
	w.logTransition("jump", from, step, 0, start, nil)
	w.emit(ctx, activity.BuildStepJumpedEvent(w.draftContext(), transition(from, step, nil)))
	return nil
}

// Submit validates every step, assembles the payload and hands it to
// submitter. Only allowed on the terminal step. A failing contract returns
// *SubmitError and a failing submitter returns its wrapped error; in both
// cases the wizard stays open with the draft intact. On success the wizard
// closes and the draft is discarded.
func (w *Wizard) Submit(ctx context.Context, submitter Submitter) (SubmissionPayload, error) {
	if w.closed {
		return SubmissionPayload{}, ErrWizardClosed
	}
	if submitter == nil {
		return SubmissionPayload{}, errors.New("listing: submitter is nil")
	}
	step := w.progress.ActiveStep
	if step != LastStep {
		return SubmissionPayload{}, fmt.Errorf("%w: active step is %s", ErrNotTerminalStep, step)
	}
	start := time.Now()

	failures, err := w.ValidateAll()
	if err != nil {
		w.logTransition("submit", step, step, 0, start, err)
		return SubmissionPayload{}, err
	}
	if len(failures) > 0 {
		submitErr := &SubmitError{Steps: failures}
		total := 0
		for _, fields := range failures {
			total += fields.Len()
		}
		w.logTransition("submit", step, step, total, start, submitErr)
		return SubmissionPayload{}, submitErr
	}

	payload := Assemble(w.draft)
	if err := submitter.Submit(ctx, payload); err != nil {
		err = fmt.Errorf("listing: submit draft %s: %w", w.id, err)
		w.logTransition("submit", step, step, 0, start, err)
		return SubmissionPayload{}, err
	}

	summary := activity.SubmissionSummary{
		Name:         payload.Name,
		Variants:     len(payload.Variants),
		Combinations: len(w.keys),
	}
	w.close()
	w.logTransition("submit", step, step, 0, start, nil)
	w.emit(ctx, activity.BuildSubmittedEvent(w.draftContext(), summary))
	return payload, nil
}

// Abandon closes the wizard without submitting.
func (w *Wizard) Abandon(ctx context.Context) error {
	if w.closed {
		return ErrWizardClosed
	}
	step := w.progress.ActiveStep
	w.close()
	w.logTransition("abandon", step, step, 0, time.Now(), nil)
	w.emit(ctx, activity.BuildAbandonedEvent(w.draftContext(), step.String()))
	return nil
}

func (w *Wizard) close() {
	w.closed = true
	w.draft = ProductDraft{}
	w.keys = nil
}

// resync recomputes combinations and reconciles inventory and pricing. It
// runs after every variant tree mutation.
func (w *Wizard) resync(ctx context.Context) {
	start := time.Now()
	before := w.draft.Inventories
	previous := w.keys
	w.keys = w.draft.Sync()
	stats := diffKeys(before, w.keys)

	w.logger.LogWizard(WizardLogEvent{
		DraftID:  w.id,
		Action:   "resync",
		From:     w.progress.ActiveStep,
		To:       w.progress.ActiveStep,
		Keys:     len(w.keys),
		Duration: time.Since(start),
	})
	if sameKeys(previous, w.keys) {
		return
	}
	w.emit(ctx, activity.BuildVariantsResyncedEvent(w.draftContext(), activity.ResyncSummary{
		Keys:    stats.Keys,
		Kept:    stats.Kept,
		Added:   stats.Added,
		Dropped: stats.Dropped,
	}))
}

func (w *Wizard) logTransition(action string, from, to Step, errCount int, start time.Time, err error) {
	w.logger.LogWizard(WizardLogEvent{
		DraftID:  w.id,
		Action:   action,
		From:     from,
		To:       to,
		Keys:     len(w.keys),
		Errors:   errCount,
		Duration: time.Since(start),
		Err:      err,
	})
}
