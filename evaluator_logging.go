package listing

import "time"

// EvaluatorLogEvent describes a contract rule evaluation.
type EvaluatorLogEvent struct {
	Engine   string
	Expr     string
	Step     string
	Duration time.Duration
	Err      error
}

// EvaluatorLogger records evaluator events.
type EvaluatorLogger interface {
	LogEvaluation(EvaluatorLogEvent)
}

// EvaluatorLoggerFunc adapts a function to EvaluatorLogger.
type EvaluatorLoggerFunc func(EvaluatorLogEvent)

// LogEvaluation implements EvaluatorLogger.
func (f EvaluatorLoggerFunc) LogEvaluation(event EvaluatorLogEvent) {
	if f != nil {
		f(event)
	}
}

type noopEvaluatorLogger struct{}

func (noopEvaluatorLogger) LogEvaluation(EvaluatorLogEvent) {}

// WizardLogEvent describes a wizard state change: a navigation attempt, a
// variant resync, a submission or an abandon.
type WizardLogEvent struct {
	DraftID  string
	Action   string
	From     Step
	To       Step
	Keys     int
	Errors   int
	Duration time.Duration
	Err      error
}

// WizardLogger records wizard events.
type WizardLogger interface {
	LogWizard(WizardLogEvent)
}

// WizardLoggerFunc adapts a function to WizardLogger.
type WizardLoggerFunc func(WizardLogEvent)

// LogWizard implements WizardLogger.
func (f WizardLoggerFunc) LogWizard(event WizardLogEvent) {
	if f != nil {
		f(event)
	}
}

type noopWizardLogger struct{}

func (noopWizardLogger) LogWizard(WizardLogEvent) {}
