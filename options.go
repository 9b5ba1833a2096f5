package listing

import (
	"errors"
	"fmt"
	"time"

	"github.com/goliatone/go-listing/pkg/activity"
	"github.com/goliatone/go-listing/pkg/state"
)

// Option configures a Wizard.
type Option func(*wizardConfig)

// Actor identifies who drives the wizard. IDs are forwarded to activity
// events unchanged.
type Actor struct {
	ActorID  string
	UserID   string
	TenantID string
}

type wizardConfig struct {
	id              string
	registry        *Registry
	contractConfig  *ContractConfig
	evaluator       Evaluator
	programCache    ProgramCache
	functions       *FunctionRegistry
	evaluatorLogger EvaluatorLogger
	wizardLogger    WizardLogger
	activityHooks   activity.Hooks
	activityVerbs   []string
	emitter         *activity.Emitter
	channel         string
	actor           Actor
	draft           *ProductDraft
	defaults        []ProductDraft
	progress        *WizardProgress
	store           state.Store[Snapshot]
	ref             state.Ref
	etag            string
	err             error
	now             func() time.Time
}

func applyOptions(opts []Option) wizardConfig {
	cfg := wizardConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

// WithDraftID fixes the wizard identifier. A random UUID is used otherwise.
func WithDraftID(id string) Option {
	return func(cfg *wizardConfig) {
		cfg.id = id
	}
}

// WithRegistry replaces the default contract registry. The registry is
// cloned so later changes by the caller do not leak into the wizard.
func WithRegistry(registry *Registry) Option {
	return func(cfg *wizardConfig) {
		cfg.registry = registry.Clone()
	}
}

// WithContractConfig extends the registry from a decoded YAML config. When
// the config names an engine and no evaluator is set, that engine is used.
func WithContractConfig(contracts ContractConfig) Option {
	return func(cfg *wizardConfig) {
		cfg.contractConfig = &contracts
	}
}

// WithEvaluator configures the rule evaluator. The expr engine is used when
// none is set.
func WithEvaluator(e Evaluator) Option {
	return func(cfg *wizardConfig) {
		cfg.evaluator = e
	}
}

// WithProgramCache shares compiled programs across wizards.
func WithProgramCache(cache ProgramCache) Option {
	return func(cfg *wizardConfig) {
		cfg.programCache = cache
	}
}

// WithFunctionRegistry exposes registry functions to contract rules.
func WithFunctionRegistry(registry *FunctionRegistry) Option {
	return func(cfg *wizardConfig) {
		if registry == nil {
			return
		}
		cfg.functions = registry.Clone()
	}
}

// WithCustomFunction registers fn under name for the wizard's rules, on top
// of DefaultFunctions unless a registry was supplied. Registration errors are
// returned by NewWizard.
func WithCustomFunction(name string, fn Function) Option {
	return func(cfg *wizardConfig) {
		if cfg.functions == nil {
			cfg.functions = DefaultFunctions()
		}
		if err := cfg.functions.Register(name, fn); err != nil {
			cfg.err = errors.Join(cfg.err, fmt.Errorf("custom function: %w", err))
		}
	}
}

// WithEvaluatorLogger records every rule evaluation.
func WithEvaluatorLogger(logger EvaluatorLogger) Option {
	return func(cfg *wizardConfig) {
		if logger == nil {
			cfg.evaluatorLogger = noopEvaluatorLogger{}
			return
		}
		cfg.evaluatorLogger = logger
	}
}

// WithWizardLogger records navigation, resyncs and submissions.
func WithWizardLogger(logger WizardLogger) Option {
	return func(cfg *wizardConfig) {
		if logger == nil {
			cfg.wizardLogger = noopWizardLogger{}
			return
		}
		cfg.wizardLogger = logger
	}
}

// WithActor attributes activity events to actor.
func WithActor(actor Actor) Option {
	return func(cfg *wizardConfig) {
		cfg.actor = actor
	}
}

// WithDraft starts the wizard from an existing draft. The draft is copied
// and resynced.
func WithDraft(draft ProductDraft) Option {
	return func(cfg *wizardConfig) {
		cloned := draft.Clone()
		cfg.draft = &cloned
	}
}

// WithDraftDefaults fills fields left unset on the starting draft. Earlier
// defaults win over later ones; slices replace wholesale.
func WithDraftDefaults(defaults ...ProductDraft) Option {
	return func(cfg *wizardConfig) {
		cfg.defaults = append(cfg.defaults, defaults...)
	}
}

// WithCheckpointStore enables Checkpoint. ref.DraftID defaults to the wizard
// ID.
func WithCheckpointStore(store state.Store[Snapshot], ref state.Ref) Option {
	return func(cfg *wizardConfig) {
		cfg.store = store
		cfg.ref = ref
	}
}

// WithClock overrides the clock used for activity timestamps.
func WithClock(now func() time.Time) Option {
	return func(cfg *wizardConfig) {
		cfg.now = now
	}
}

func withProgress(progress WizardProgress) Option {
	return func(cfg *wizardConfig) {
		cloned := progress.clone()
		cfg.progress = &cloned
	}
}

func withETag(etag string) Option {
	return func(cfg *wizardConfig) {
		cfg.etag = etag
	}
}

func (cfg wizardConfig) resolveEvaluator() (Evaluator, error) {
	if cfg.evaluator != nil {
		return cfg.evaluator, nil
	}
	functions := cfg.functions
	if functions == nil {
		functions = DefaultFunctions()
	}
	engine := ""
	if cfg.contractConfig != nil {
		engine = cfg.contractConfig.Engine
	}
	return NewEvaluator(engine, cfg.programCache, functions)
}

func (cfg wizardConfig) resolveRegistry() (*Registry, error) {
	registry := cfg.registry
	if registry == nil {
		registry = DefaultRegistry()
	}
	if cfg.contractConfig != nil {
		registry = registry.Clone()
		if err := registry.Extend(*cfg.contractConfig); err != nil {
			return nil, err
		}
	}
	return registry, nil
}

func (cfg wizardConfig) clock() time.Time {
	if cfg.now != nil {
		return cfg.now()
	}
	return time.Now()
}
