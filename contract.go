package listing

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// RuleScope selects what an expression rule reads.
type RuleScope string

const (
	// RuleScopeStep evaluates once against the whole step sub-state.
	RuleScopeStep RuleScope = "step"
	// RuleScopeRows evaluates once per element of a collection step.
	RuleScopeRows RuleScope = "rows"
)

// Rule is an expression constraint. When, if set, gates the rule; Assert must
// then evaluate to true or a FieldError is recorded at Path.
//
// For step scope Path is relative to the step root ("name" on basics becomes
// "basics.name"). For row scope it is relative to the row ("tax" becomes
// "pricing[2].tax"). Collection steps expose their elements to step rules as
// `items` and `count`; scalar rows are exposed as `value`.
type Rule struct {
	Name    string    `yaml:"name" json:"name"`
	Path    string    `yaml:"path" json:"path"`
	Scope   RuleScope `yaml:"scope" json:"scope"`
	When    string    `yaml:"when" json:"when,omitempty"`
	Assert  string    `yaml:"assert" json:"assert"`
	Message string    `yaml:"message" json:"message"`
}

func (r Rule) validate() error {
	if strings.TrimSpace(r.Assert) == "" {
		return fmt.Errorf("listing: rule %q: assert must not be empty", r.Name)
	}
	switch r.Scope {
	case "", RuleScopeStep, RuleScopeRows:
		return nil
	default:
		return fmt.Errorf("listing: rule %q: unknown scope %q", r.Name, r.Scope)
	}
}

func (r Rule) ruleName() string {
	if r.Name != "" {
		return r.Name
	}
	return "assert"
}

func (r Rule) message() string {
	if r.Message != "" {
		return r.Message
	}
	return "is invalid"
}

// Check is a Go-coded constraint over the draft.
type Check func(draft *ProductDraft) FieldErrors

// Contract is the validation gate for one step. Struct tags on the step's
// types run first, then expression rules, then checks.
type Contract struct {
	Step     Step
	SkipTags bool
	Rules    []Rule
	Checks   []Check
}

func (c *Contract) clone() *Contract {
	if c == nil {
		return nil
	}
	return &Contract{
		Step:     c.Step,
		SkipTags: c.SkipTags,
		Rules:    append([]Rule(nil), c.Rules...),
		Checks:   append([]Check(nil), c.Checks...),
	}
}

// Validate runs the contract against draft's sub-state for c.Step. A nil
// evaluator selects the expr engine; a nil logger discards events. The error
// is reserved for misconfigured rules.
func (c *Contract) Validate(draft *ProductDraft, evaluator Evaluator, logger EvaluatorLogger) (FieldErrors, error) {
	fields := FieldErrors{}
	if c == nil || draft == nil {
		return fields, nil
	}
	state := draft.stepState(c.Step)
	if state == nil {
		return fields, nil
	}
	root := c.Step.Root()

	if !c.SkipTags {
		tagErrs, err := validateTags(root, state)
		if err != nil {
			return nil, err
		}
		fields.Merge(tagErrs)
	}

	if len(c.Rules) > 0 {
		if evaluator == nil {
			evaluator = NewExprEvaluator()
		}
		if logger == nil {
			logger = noopEvaluatorLogger{}
		}
		ruleErrs, err := c.evaluateRules(root, state, evaluator, logger)
		if err != nil {
			return nil, err
		}
		fields.Merge(ruleErrs)
	}

	for _, check := range c.Checks {
		if check == nil {
			continue
		}
		fields.Merge(check(draft))
	}
	return fields, nil
}

func (c *Contract) evaluateRules(root string, state any, evaluator Evaluator, logger EvaluatorLogger) (FieldErrors, error) {
	generic, err := toGeneric(state)
	if err != nil {
		return nil, fmt.Errorf("listing: snapshot %s: %w", c.Step, err)
	}
	items, isCollection := generic.([]any)

	fields := FieldErrors{}
	for _, rule := range c.Rules {
		if err := rule.validate(); err != nil {
			return nil, err
		}
		if rule.Scope == RuleScopeRows {
			if !isCollection {
				return nil, fmt.Errorf("listing: rule %q: step %s has no rows", rule.Name, c.Step)
			}
			for i, item := range items {
				rowRoot := fmt.Sprintf("%s[%d]", root, i)
				row, ok := item.(map[string]any)
				if !ok {
					row = map[string]any{"value": item}
				}
				if err := c.applyRule(rule, rowRoot, row, evaluator, logger, fields); err != nil {
					return nil, err
				}
			}
			continue
		}
		snapshot, ok := generic.(map[string]any)
		if !ok {
			snapshot = map[string]any{"items": items, "count": len(items)}
		}
		if err := c.applyRule(rule, root, snapshot, evaluator, logger, fields); err != nil {
			return nil, err
		}
	}
	return fields, nil
}

func (c *Contract) applyRule(rule Rule, base string, snapshot map[string]any, evaluator Evaluator, logger EvaluatorLogger, fields FieldErrors) error {
	path := joinFieldPath(base, rule.Path)
	ctx := RuleContext{Snapshot: snapshot, Step: c.Step, Path: path}

	if rule.When != "" {
		gate, err := evaluateBool(evaluator, logger, ctx, rule.When)
		if err != nil {
			return err
		}
		if !gate {
			return nil
		}
	}
	ok, err := evaluateBool(evaluator, logger, ctx, rule.Assert)
	if err != nil {
		return err
	}
	if !ok {
		fields.Add(FieldError{Path: path, Rule: rule.ruleName(), Message: rule.message()})
	}
	return nil
}

func evaluateBool(evaluator Evaluator, logger EvaluatorLogger, ctx RuleContext, expression string) (bool, error) {
	engine := evaluatorEngineName(evaluator)
	start := time.Now()
	var result any
	compiled, err := evaluator.Compile(expression)
	if err == nil {
		result, err = compiled.Evaluate(ctx)
	}
	err = wrapEvaluationError(engine, expression, ctx.stepLabel(), err)
	logger.LogEvaluation(EvaluatorLogEvent{
		Engine:   engine,
		Expr:     expression,
		Step:     ctx.stepLabel(),
		Duration: time.Since(start),
		Err:      err,
	})
	if err != nil {
		return false, err
	}
	b, ok := result.(bool)
	if !ok {
		return false, wrapEvaluationError(engine, expression, ctx.stepLabel(), fmt.Errorf("rule must evaluate to bool, got %T", result))
	}
	return b, nil
}

var structValidator = newStructValidator()

func newStructValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		switch name {
		case "-":
			return ""
		case "":
			return field.Name
		default:
			return name
		}
	})
	return v
}

// validateTags runs struct-tag validation on a step sub-state. Collection
// states are validated element by element so paths carry the row index.
func validateTags(root string, state any) (FieldErrors, error) {
	fields := FieldErrors{}
	rv := reflect.ValueOf(state)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return fields, nil
		}
		rv = rv.Elem()
	}

	switch rv.Kind() {
	case reflect.Struct:
		if err := collectTagErrors(root, rv.Interface(), fields); err != nil {
			return nil, err
		}
	case reflect.Slice:
		for i := 0; i < rv.Len(); i++ {
			elem := rv.Index(i)
			if elem.Kind() != reflect.Struct {
				continue
			}
			if err := collectTagErrors(fmt.Sprintf("%s[%d]", root, i), elem.Interface(), fields); err != nil {
				return nil, err
			}
		}
	}
	return fields, nil
}

func collectTagErrors(base string, value any, fields FieldErrors) error {
	err := structValidator.Struct(value)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("listing: validate %s: %w", base, err)
	}
	for _, fe := range verrs {
		fields.Add(FieldError{
			Path:    joinFieldPath(base, trimNamespaceRoot(fe.Namespace())),
			Rule:    fe.Tag(),
			Message: messageForTag(fe.Tag(), fe.Param(), fe.Kind()),
		})
	}
	return nil
}

// trimNamespaceRoot drops the leading type name validator prefixes to every
// namespace ("Basics.name" -> "name").
func trimNamespaceRoot(namespace string) string {
	if i := strings.Index(namespace, "."); i >= 0 {
		return namespace[i+1:]
	}
	return ""
}

func messageForTag(tag, param string, kind reflect.Kind) string {
	switch tag {
	case "required":
		return "is required"
	case "gt":
		return "must be greater than " + param
	case "gte":
		return "must be at least " + param
	case "min":
		if kind == reflect.Slice || kind == reflect.Array || kind == reflect.Map {
			return "must contain at least " + param + " item(s)"
		}
		return "must be at least " + param
	case "hexcolor":
		return "must be a hex color"
	default:
		return "is invalid"
	}
}

func joinFieldPath(base, field string) string {
	switch {
	case field == "":
		return base
	case base == "":
		return field
	case strings.HasPrefix(field, "["):
		return base + field
	default:
		return base + "." + field
	}
}

func toGeneric(value any) (any, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	if out == nil {
		// nil slices marshal to null; treat them as empty collections.
		rv := reflect.ValueOf(value)
		for rv.Kind() == reflect.Pointer && !rv.IsNil() {
			rv = rv.Elem()
		}
		if rv.Kind() == reflect.Slice {
			return []any{}, nil
		}
	}
	return out, nil
}
