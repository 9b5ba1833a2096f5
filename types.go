package listing

import "time"

// RuleContext is what a contract expression sees: Snapshot is a row for row
// rules and the step sub-state for step rules.
type RuleContext struct {
	Snapshot any
	Step     Step
	Path     string
	Now      *time.Time
	Args     map[string]any
	Metadata map[string]any
}

// reservedBindings are always bound and cannot be shadowed by snapshot keys.
var reservedBindings = map[string]struct{}{
	"now":      {},
	"args":     {},
	"metadata": {},
	"step":     {},
}

// bindings flattens ctx into the variable set shared by every engine.
func (ctx RuleContext) bindings() map[string]any {
	now := time.Now()
	if ctx.Now != nil {
		now = *ctx.Now
	}
	args, metadata := ctx.Args, ctx.Metadata
	if args == nil {
		args = map[string]any{}
	}
	if metadata == nil {
		metadata = map[string]any{}
	}

	snapshot, _ := ctx.Snapshot.(map[string]any)
	out := make(map[string]any, len(snapshot)+len(reservedBindings))
	for key, value := range snapshot {
		if _, reserved := reservedBindings[key]; !reserved {
			out[key] = value
		}
	}
	out["now"] = now
	out["args"] = args
	out["metadata"] = metadata
	out["step"] = map[string]any{
		"index": int(ctx.Step),
		"name":  ctx.Step.String(),
		"path":  ctx.Path,
	}
	return out
}

// snapshotKeys returns the non-reserved snapshot keys.
func (ctx RuleContext) snapshotKeys() []string {
	snapshot, _ := ctx.Snapshot.(map[string]any)
	keys := make([]string, 0, len(snapshot))
	for key := range snapshot {
		if _, reserved := reservedBindings[key]; !reserved {
			keys = append(keys, key)
		}
	}
	return keys
}

func (ctx RuleContext) stepLabel() string {
	if ctx.Path != "" {
		return ctx.Step.String() + ":" + ctx.Path
	}
	return ctx.Step.String()
}

// Evaluator compiles contract expressions. Evaluate is a convenience for
// one-off expressions; contracts go through Compile so engines can cache.
type Evaluator interface {
	Evaluate(ctx RuleContext, expr string) (any, error)
	Compile(expr string) (CompiledRule, error)
}

// CompiledRule is a reusable program.
type CompiledRule interface {
	Evaluate(ctx RuleContext) (any, error)
}

// evaluatorEngineName names e in logs and errors. Custom evaluators can
// implement Engine() string.
func evaluatorEngineName(e Evaluator) string {
	switch e.(type) {
	case nil:
		return "unknown"
	case *exprEvaluator:
		return "expr"
	case *celEvaluator:
		return "cel"
	}
	if named, ok := e.(interface{ Engine() string }); ok {
		return named.Engine()
	}
	return "custom"
}

// evaluateOnce compiles and runs expression with e.
func evaluateOnce(e Evaluator, ctx RuleContext, expression string) (any, error) {
	rule, err := e.Compile(expression)
	if err != nil {
		return nil, err
	}
	return rule.Evaluate(ctx)
}
