package listing

import (
	"context"
	"time"

	"github.com/goliatone/go-listing/pkg/activity"
)

// WithActivityHooks forwards wizard lifecycle events to hooks. Nil entries
// are dropped.
func WithActivityHooks(hooks activity.Hooks) Option {
	normalized := activity.CloneHooks(hooks)
	return func(cfg *wizardConfig) {
		cfg.activityHooks = normalized
	}
}

// WithActivityEmitter uses a preconfigured emitter instead of hooks.
func WithActivityEmitter(emitter *activity.Emitter) Option {
	return func(cfg *wizardConfig) {
		cfg.emitter = emitter
	}
}

// WithActivityChannel sets the channel stamped on emitted events.
func WithActivityChannel(channel string) Option {
	return func(cfg *wizardConfig) {
		cfg.channel = channel
	}
}

// WithActivityVerbs limits emitted events to verbs. Without it every verb is
// emitted.
func WithActivityVerbs(verbs ...string) Option {
	return func(cfg *wizardConfig) {
		cfg.activityVerbs = append(cfg.activityVerbs, verbs...)
	}
}

func (cfg wizardConfig) resolveEmitter() *activity.Emitter {
	if cfg.emitter != nil {
		return cfg.emitter
	}
	return activity.NewEmitter(cfg.activityHooks, activity.Config{
		Enabled: len(cfg.activityHooks) > 0,
		Channel: cfg.channel,
		Verbs:   cfg.activityVerbs,
	})
}

// ActivityHooks returns a copy of the hooks configured on the wizard.
func (w *Wizard) ActivityHooks() activity.Hooks {
	return activity.CloneHooks(w.cfg.activityHooks)
}

func (w *Wizard) draftContext() activity.DraftContext {
	return activity.DraftContext{
		DraftID:    w.id,
		ActorID:    w.cfg.actor.ActorID,
		UserID:     w.cfg.actor.UserID,
		TenantID:   w.cfg.actor.TenantID,
		OccurredAt: w.cfg.clock(),
	}
}

func transition(from, to Step, fields FieldErrors) activity.StepTransition {
	return activity.StepTransition{
		From:      from.String(),
		FromIndex: int(from),
		To:        to.String(),
		ToIndex:   int(to),
		Paths:     fields.Paths(),
	}
}

// emit forwards event to the emitter. Hook failures are logged, never
// returned.
func (w *Wizard) emit(ctx context.Context, event activity.Event) {
	if !w.emitter.Enabled() {
		return
	}
	start := time.Now()
	if err := w.emitter.Emit(ctx, event); err != nil {
		w.logger.LogWizard(WizardLogEvent{
			DraftID:  w.id,
			Action:   "activity",
			From:     w.progress.ActiveStep,
			To:       w.progress.ActiveStep,
			Duration: time.Since(start),
			Err:      err,
		})
	}
}
