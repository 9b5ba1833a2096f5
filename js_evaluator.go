//go:build js_eval

package listing

import (
	"fmt"

	"github.com/dop251/goja"
)

// jsEvaluator runs rules in goja. Programs are shared through the cache but
// every evaluation gets its own runtime, so rules cannot leak globals.
type jsEvaluator struct {
	cache    ProgramCache
	registry *FunctionRegistry
}

// NewJSEvaluator constructs an Evaluator backed by goja.
func NewJSEvaluator(opts ...JSEvaluatorOption) Evaluator {
	cfg := applyJSEvaluatorOptions(opts)
	return &jsEvaluator{cache: cfg.cache, registry: cfg.registry}
}

func (e *jsEvaluator) Engine() string { return "js" }

func (e *jsEvaluator) Evaluate(ctx RuleContext, expression string) (any, error) {
	return evaluateOnce(e, ctx, expression)
}

func (e *jsEvaluator) Compile(expression string) (CompiledRule, error) {
	if expression == "" {
		return nil, wrapEvaluatorError("js", fmt.Errorf("expression must not be empty"))
	}
	key := "js:" + expression
	if e.cache != nil {
		if cached, ok := e.cache.Get(key); ok {
			if program, ok := cached.(*goja.Program); ok {
				return jsRule{evaluator: e, program: program, expression: expression}, nil
			}
		}
	}
	source := fmt.Sprintf("(function(){ return (%s); })()", expression)
	program, err := goja.Compile("rule", source, true)
	if err != nil {
		return nil, wrapEvaluationError("js", expression, "", err)
	}
	if e.cache != nil {
		e.cache.Set(key, program)
	}
	return jsRule{evaluator: e, program: program, expression: expression}, nil
}

type jsRule struct {
	evaluator  *jsEvaluator
	program    *goja.Program
	expression string
}

func (r jsRule) Evaluate(ctx RuleContext) (any, error) {
	vm := goja.New()
	for name, value := range ctx.bindings() {
		if err := vm.Set(name, value); err != nil {
			return nil, wrapEvaluationError("js", r.expression, ctx.stepLabel(), err)
		}
	}
	if registry := r.evaluator.registry; registry != nil {
		_ = vm.Set("call", func(name string, args ...any) (any, error) {
			return registry.Call(name, args...)
		})
		for _, name := range registry.Names() {
			name := name
			_ = vm.Set(name, func(args ...any) (any, error) {
				return registry.Call(name, args...)
			})
		}
	}
	value, err := vm.RunProgram(r.program)
	if err != nil {
		return nil, wrapEvaluationError("js", r.expression, ctx.stepLabel(), err)
	}
	return value.Export(), nil
}

func jsEvaluatorAvailable() bool { return true }
