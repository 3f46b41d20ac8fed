package choices

import (
	"time"

	"go.uber.org/zap"
)

// EvaluatorLogEvent describes an evaluation attempt for logging.
type EvaluatorLogEvent struct {
	Engine   string
	Expr     string
	Source   string
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

// ZapEvaluatorLogger writes evaluations at debug level and failures at warn.
func ZapEvaluatorLogger(logger *zap.Logger) EvaluatorLogger {
	if logger == nil {
		return noopEvaluatorLogger{}
	}
	return EvaluatorLoggerFunc(func(event EvaluatorLogEvent) {
		fields := []zap.Field{
			zap.String("engine", event.Engine),
			zap.String("expr", event.Expr),
			zap.String("source", event.Source),
			zap.Duration("duration", event.Duration),
		}
		if event.Err != nil {
			logger.Warn("rule evaluation failed", append(fields, zap.Error(event.Err))...)
			return
		}
		logger.Debug("rule evaluated", fields...)
	})
}
