package listing

import (
	"errors"
	"fmt"
	"strings"
)

// EvaluationError reports a contract rule that failed to compile or run.
// Step is the step name, optionally suffixed with ":<path>" for row rules.
type EvaluationError struct {
	Engine string
	Expr   string
	Step   string
	Err    error
}

func (e *EvaluationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	var b strings.Builder
	b.WriteString("listing: ")
	b.WriteString(e.Engine)
	b.WriteString(" rule")
	if e.Step != "" {
		b.WriteString(" at ")
		b.WriteString(e.Step)
	}
	if e.Expr == "" {
		b.WriteString(" <empty>")
	} else {
		fmt.Fprintf(&b, " %q", e.Expr)
	}
	b.WriteString(": ")
	if e.Err != nil {
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *EvaluationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// wrapEvaluatorError prefixes engine setup errors. Errors that already carry
// the package prefix or an *EvaluationError pass through.
func wrapEvaluatorError(engine string, err error) error {
	if err == nil || strings.HasPrefix(err.Error(), "listing:") {
		return err
	}
	if _, ok := asEvaluationError(err); ok {
		return err
	}
	return fmt.Errorf("listing: %s evaluator: %w", engine, err)
}

// wrapEvaluationError attaches rule metadata to err. An *EvaluationError
// already in the chain is completed in place rather than wrapped twice.
func wrapEvaluationError(engine, expr, step string, err error) error {
	if err == nil {
		return nil
	}
	evalErr, ok := asEvaluationError(err)
	if !ok {
		return &EvaluationError{Engine: engine, Expr: expr, Step: step, Err: err}
	}
	fill := func(dst *string, value string) {
		if *dst == "" {
			*dst = value
		}
	}
	fill(&evalErr.Engine, engine)
	fill(&evalErr.Expr, expr)
	fill(&evalErr.Step, step)
	return evalErr
}

func asEvaluationError(err error) (*EvaluationError, bool) {
	var evalErr *EvaluationError
	if errors.As(err, &evalErr) {
		return evalErr, true
	}
	return nil, false
}
