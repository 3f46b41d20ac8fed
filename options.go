package choices

import (
	"time"

	"github.com/goliatone/go-choices/pkg/activity"
	"go.uber.org/zap"
)

// Option configures a Service.
type Option func(*serviceConfig)

type serviceConfig struct {
	emitter      *activity.Emitter
	logger       *zap.Logger
	evalLogger   EvaluatorLogger
	evaluator    Evaluator
	engine       string
	programCache ProgramCache
	functions    *FunctionRegistry
	cache        *Cache
	cacheTTL     time.Duration
	cacheEntries int
	minQuality   DataQuality
	sources      []Source
	metrics      *Metrics
	now          func() time.Time
}

func applyOptions(opts []Option) serviceConfig {
	cfg := serviceConfig{
		logger:       zap.NewNop(),
		engine:       EngineExpr,
		cacheTTL:     DefaultCacheTTL,
		cacheEntries: DefaultCacheEntries,
		minQuality:   QualityFair,
		now:          time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

// WithEmitter publishes category notifications on emitter and subscribes the
// service to the loader notifications delivered on it.
func WithEmitter(emitter *activity.Emitter) Option {
	return func(cfg *serviceConfig) {
		cfg.emitter = emitter
	}
}

// WithLogger sets the service logger.
func WithLogger(logger *zap.Logger) Option {
	return func(cfg *serviceConfig) {
		if logger != nil {
			cfg.logger = logger
		}
	}
}

// WithEvaluatorLogger attaches an evaluator logger. By default rule
// evaluations go to the service logger at debug level.
func WithEvaluatorLogger(logger EvaluatorLogger) Option {
	return func(cfg *serviceConfig) {
		if logger == nil {
			cfg.evalLogger = noopEvaluatorLogger{}
			return
		}
		cfg.evalLogger = logger
	}
}

// WithEvaluator sets the evaluator used for availability rules, overriding
// WithEngine.
func WithEvaluator(e Evaluator) Option {
	return func(cfg *serviceConfig) {
		cfg.evaluator = e
	}
}

// WithEngine selects the rule engine (expr, cel or js). The built-in sources
// use rules written for it.
func WithEngine(engine string) Option {
	return func(cfg *serviceConfig) {
		if engine != "" {
			cfg.engine = engine
		}
	}
}

// WithProgramCache stores compiled rules in cache.
func WithProgramCache(cache ProgramCache) Option {
	return func(cfg *serviceConfig) {
		cfg.programCache = cache
	}
}

// WithCache replaces the option set cache, ignoring WithCacheTTL and
// WithCacheEntries.
func WithCache(cache *Cache) Option {
	return func(cfg *serviceConfig) {
		cfg.cache = cache
	}
}

// WithCacheTTL sets how long generated option sets are served from cache.
func WithCacheTTL(ttl time.Duration) Option {
	return func(cfg *serviceConfig) {
		if ttl >= 0 {
			cfg.cacheTTL = ttl
		}
	}
}

// WithCacheEntries bounds the number of cached option sets.
func WithCacheEntries(n int) Option {
	return func(cfg *serviceConfig) {
		if n >= 0 {
			cfg.cacheEntries = n
		}
	}
}

// WithMinQuality discards options below min.
func WithMinQuality(min DataQuality) Option {
	return func(cfg *serviceConfig) {
		if min.Rank() >= 0 {
			cfg.minQuality = min
		}
	}
}

// WithSources replaces the built-in sources.
func WithSources(sources ...Source) Option {
	return func(cfg *serviceConfig) {
		cfg.sources = append([]Source(nil), sources...)
	}
}

// WithMetrics records cache, generation and validation metrics.
func WithMetrics(metrics *Metrics) Option {
	return func(cfg *serviceConfig) {
		cfg.metrics = metrics
	}
}

// WithClock overrides the time source used for timestamps and cache expiry.
func WithClock(now func() time.Time) Option {
	return func(cfg *serviceConfig) {
		if now != nil {
			cfg.now = now
		}
	}
}
