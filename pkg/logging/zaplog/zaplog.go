// Package zaplog routes wizard and evaluator log events to a zap.Logger.
package zaplog

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	listing "github.com/goliatone/go-listing"
)

// Logger implements listing.EvaluatorLogger and listing.WizardLogger.
// Failed events are logged at warn level, evaluations at debug and wizard
// actions at info.
type Logger struct {
	log *zap.Logger
}

var (
	_ listing.EvaluatorLogger = (*Logger)(nil)
	_ listing.WizardLogger    = (*Logger)(nil)
)

// New wraps log. A nil logger is replaced with zap.NewNop.
func New(log *zap.Logger) *Logger {
	if log == nil {
		log = zap.NewNop()
	}
	return &Logger{log: log.Named("listing")}
}

// Options wires l as both the evaluator and the wizard logger.
func (l *Logger) Options() []listing.Option {
	return []listing.Option{
		listing.WithEvaluatorLogger(l),
		listing.WithWizardLogger(l),
	}
}

// LogEvaluation implements listing.EvaluatorLogger.
func (l *Logger) LogEvaluation(event listing.EvaluatorLogEvent) {
	fields := []zap.Field{
		zap.String("engine", event.Engine),
		zap.String("expr", event.Expr),
		zap.String("step", event.Step),
		zap.Duration("duration", event.Duration),
	}
	level := zapcore.DebugLevel
	if event.Err != nil {
		fields = append(fields, zap.Error(event.Err))
		level = zapcore.WarnLevel
	}
	l.log.Log(level, "rule evaluated", fields...)
}

// LogWizard implements listing.WizardLogger.
func (l *Logger) LogWizard(event listing.WizardLogEvent) {
	fields := []zap.Field{
		zap.String("draft", event.DraftID),
		zap.String("action", event.Action),
		zap.Stringer("from", event.From),
		zap.Stringer("to", event.To),
	}
	if event.Keys > 0 {
		fields = append(fields, zap.Int("keys", event.Keys))
	}
	if event.Errors > 0 {
		fields = append(fields, zap.Int("errors", event.Errors))
	}
	if event.Duration > 0 {
		fields = append(fields, zap.Duration("duration", event.Duration))
	}
	level := zapcore.InfoLevel
	if event.Err != nil {
		fields = append(fields, zap.Error(event.Err))
		level = zapcore.WarnLevel
	}
	l.log.Log(level, "wizard "+event.Action, fields...)
}
