package dropdown

import (
	"time"

	"github.com/goliatone/go-choices/pkg/activity"
	"go.uber.org/zap"
)

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithEmitter publishes dropdown notifications on emitter and subscribes the
// service to option and loader notifications delivered on it.
func WithEmitter(emitter *activity.Emitter) ServiceOption {
	return func(s *Service) {
		s.emitter = emitter
	}
}

func WithLogger(logger *zap.Logger) ServiceOption {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock overrides the time source used for LastUpdated.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}
