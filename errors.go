package listing

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrWizardClosed       = errors.New("listing: wizard is closed")
	ErrStepOutOfRange     = errors.New("listing: step out of range")
	ErrNotTerminalStep    = errors.New("listing: submit requires the terminal step")
	ErrIncomplete         = errors.New("listing: draft does not satisfy every step contract")
	ErrUnknownOption      = errors.New("listing: unknown variant option")
	ErrUnknownValue       = errors.New("listing: unknown variant value")
	ErrDuplicateValue     = errors.New("listing: duplicate variant value")
	ErrInvalidValueText   = errors.New("listing: variant value text contains the combination delimiter")
	ErrUnknownCombination = errors.New("listing: unknown combination")
	ErrIndexOutOfRange    = errors.New("listing: index out of range")
	ErrFieldOutsideStep   = errors.New("listing: field does not belong to step")
	ErrReadOnlyField      = errors.New("listing: field is read-only")
	ErrUnknownCollection  = errors.New("listing: unknown collection")
	ErrNoEvaluator        = errors.New("listing: evaluator not configured")
)

// FieldError is a single failed constraint attached to a draft field path.
type FieldError struct {
	Path    string `json:"path"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// FieldErrors groups field errors by path.
type FieldErrors map[string][]FieldError

// Add records err under its path.
func (fe FieldErrors) Add(err FieldError) {
	fe[err.Path] = append(fe[err.Path], err)
}

// Merge copies every error from other into fe.
func (fe FieldErrors) Merge(other FieldErrors) {
	for _, errs := range other {
		for _, err := range errs {
			fe.Add(err)
		}
	}
}

// Empty reports whether no errors were recorded.
func (fe FieldErrors) Empty() bool {
	return len(fe) == 0
}

// Len returns the total number of errors across all paths.
func (fe FieldErrors) Len() int {
	total := 0
	for _, errs := range fe {
		total += len(errs)
	}
	return total
}

// Paths returns the failing paths sorted.
func (fe FieldErrors) Paths() []string {
	paths := make([]string, 0, len(fe))
	for path := range fe {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}

// Has reports whether path failed the given rule. An empty rule matches any.
func (fe FieldErrors) Has(path, rule string) bool {
	for _, err := range fe[path] {
		if rule == "" || err.Rule == rule {
			return true
		}
	}
	return false
}

// Err returns a *GateError wrapping fe, or nil when fe is empty.
func (fe FieldErrors) Err(step Step) error {
	if fe.Empty() {
		return nil
	}
	return &GateError{Step: step, Fields: fe}
}

// GateError describes a step whose contract failed.
type GateError struct {
	Step   Step
	Fields FieldErrors
}

func (e *GateError) Error() string {
	if e == nil {
		return "<nil>"
	}
	parts := make([]string, 0, len(e.Fields))
	for _, path := range e.Fields.Paths() {
		for _, err := range e.Fields[path] {
			parts = append(parts, err.Error())
		}
	}
	return fmt.Sprintf("listing: step %s blocked: %s", e.Step, strings.Join(parts, "; "))
}

// SubmitError lists every step that failed its contract on submit.
type SubmitError struct {
	Steps map[Step]FieldErrors
}

func (e *SubmitError) Error() string {
	if e == nil {
		return "<nil>"
	}
	steps := e.FailedSteps()
	names := make([]string, len(steps))
	for i, step := range steps {
		names[i] = fmt.Sprintf("%s(%d)", step, e.Steps[step].Len())
	}
	return fmt.Sprintf("%v: %s", ErrIncomplete, strings.Join(names, ", "))
}

func (e *SubmitError) Unwrap() error {
	return ErrIncomplete
}

// FailedSteps returns the failing steps in wizard order.
func (e *SubmitError) FailedSteps() []Step {
	if e == nil {
		return nil
	}
	steps := make([]Step, 0, len(e.Steps))
	for step := range e.Steps {
		steps = append(steps, step)
	}
	sort.Slice(steps, func(i, j int) bool { return steps[i] < steps[j] })
	return steps
}
