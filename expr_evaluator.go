package listing

import (
	"fmt"

	exprlang "github.com/expr-lang/expr"
	exprvm "github.com/expr-lang/expr/vm"
)

// ExprEvaluatorOption configures the expr engine.
type ExprEvaluatorOption func(*exprEvaluator)

// ExprWithProgramCache shares compiled programs through cache.
func ExprWithProgramCache(cache ProgramCache) ExprEvaluatorOption {
	return func(e *exprEvaluator) {
		e.cache = cache
	}
}

// ExprWithFunctionRegistry exposes the registry's functions by name and
// through call(name, args...).
func ExprWithFunctionRegistry(registry *FunctionRegistry) ExprEvaluatorOption {
	return func(e *exprEvaluator) {
		e.registry = registry.Clone()
	}
}

// exprEvaluator is the default engine, backed by github.com/expr-lang/expr.
// Variables are untyped at compile time, so a rule may name any key of the
// row or step snapshot; keys missing at run time read as nil.
type exprEvaluator struct {
	cache    ProgramCache
	registry *FunctionRegistry
}

func NewExprEvaluator(opts ...ExprEvaluatorOption) Evaluator {
	e := &exprEvaluator{}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

func (e *exprEvaluator) Evaluate(ctx RuleContext, expression string) (any, error) {
	return evaluateOnce(e, ctx, expression)
}

func (e *exprEvaluator) Compile(expression string) (CompiledRule, error) {
	if expression == "" {
		return nil, wrapEvaluatorError("expr", fmt.Errorf("expression must not be empty"))
	}
	key := "expr:" + expression
	if e.cache != nil {
		if program, ok := e.cache.Get(key); ok {
			if program, ok := program.(*exprvm.Program); ok {
				return exprRule{program: program, expression: expression}, nil
			}
		}
	}

	program, err := exprlang.Compile(expression, e.compileOptions()...)
	if err != nil {
		return nil, wrapEvaluationError("expr", expression, "", err)
	}
	if e.cache != nil {
		e.cache.Set(key, program)
	}
	return exprRule{program: program, expression: expression}, nil
}

func (e *exprEvaluator) compileOptions() []exprlang.Option {
	options := []exprlang.Option{
		exprlang.Env(map[string]any{}),
		exprlang.AllowUndefinedVariables(),
	}
	if e.registry == nil {
		return options
	}
	registry := e.registry
	options = append(options, exprlang.Function("call", func(params ...any) (any, error) {
		if len(params) == 0 {
			return nil, fmt.Errorf("call expects a function name")
		}
		name, ok := params[0].(string)
		if !ok {
			return nil, fmt.Errorf("call name must be a string, got %T", params[0])
		}
		return registry.Call(name, params[1:]...)
	}))
	for _, name := range registry.Names() {
		name := name
		options = append(options, exprlang.Function(name, func(params ...any) (any, error) {
			return registry.Call(name, params...)
		}))
	}
	return options
}

type exprRule struct {
	program    *exprvm.Program
	expression string
}

func (r exprRule) Evaluate(ctx RuleContext) (any, error) {
	result, err := exprlang.Run(r.program, ctx.bindings())
	if err != nil {
		return nil, wrapEvaluationError("expr", r.expression, ctx.stepLabel(), err)
	}
	return result, nil
}
