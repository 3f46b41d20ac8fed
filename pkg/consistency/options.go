package consistency

import (
	"time"

	"github.com/goliatone/go-choices"
	"github.com/goliatone/go-choices/pkg/activity"
	"go.uber.org/zap"
)

// Option configures a Service.
type Option func(*Service)

// WithEmitter publishes data-updated on emitter when a loaded dataset
// belongs to a declared relationship.
func WithEmitter(emitter *activity.Emitter) Option {
	return func(s *Service) {
		s.emitter = emitter
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithRelationships replaces the default relationship set.
func WithRelationships(rels ...Relationship) Option {
	return func(s *Service) {
		s.initial = append([]Relationship{}, rels...)
	}
}

// WithEvaluator sets the evaluator used for relationship filters.
func WithEvaluator(evaluator choices.Evaluator) Option {
	return func(s *Service) {
		s.evaluator = evaluator
	}
}

func WithEvaluatorLogger(logger choices.EvaluatorLogger) Option {
	return func(s *Service) {
		s.evalLogger = logger
	}
}

func WithMetrics(metrics *Metrics) Option {
	return func(s *Service) {
		s.metrics = metrics
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}
