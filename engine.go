package choices

import (
	"errors"
	"strings"
)

// EngineOption configures a rule engine built by NewExprEvaluator,
// NewCELEvaluator or NewJSEvaluator.
type EngineOption func(*engineConfig)

type engineConfig struct {
	cache     ProgramCache
	functions *FunctionRegistry
}

// WithRuleCache keeps compiled programs in cache, keyed by engine and
// expression.
func WithRuleCache(cache ProgramCache) EngineOption {
	return func(cfg *engineConfig) {
		cfg.cache = cache
	}
}

// WithRuleFunctions exposes a snapshot of registry to rules.
func WithRuleFunctions(registry *FunctionRegistry) EngineOption {
	return func(cfg *engineConfig) {
		if registry != nil {
			cfg.functions = registry.Clone()
		}
	}
}

func applyEngineOptions(opts []EngineOption) engineConfig {
	var cfg engineConfig
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

// engine turns a compile step and a run step into an Evaluator. P is the
// compiled program type of the underlying library.
type engine[P any] struct {
	name    string
	cfg     engineConfig
	compile func(expr string) (P, error)
	run     func(program P, env map[string]any) (any, error)
}

// Engine names the expression language.
func (e *engine[P]) Engine() string {
	return e.name
}

func (e *engine[P]) Evaluate(ctx RuleContext, expr string) (any, error) {
	if strings.TrimSpace(expr) == "" {
		return nil, wrapEvaluatorError(e.name, errors.New("expression must not be empty"))
	}
	program, err := e.program(expr)
	if err != nil {
		return nil, wrapEvaluationError(e.name, expr, "", err)
	}
	ctx = ctx.withDefaults()
	out, err := e.run(program, ctx.bindings())
	if err != nil {
		return nil, wrapEvaluationError(e.name, expr, ctx.sourceLabel(), err)
	}
	return out, nil
}

func (e *engine[P]) program(expr string) (P, error) {
	key := e.name + ":" + expr
	if e.cfg.cache != nil {
		if cached, ok := e.cfg.cache.Get(key); ok {
			if program, ok := cached.(P); ok {
				return program, nil
			}
		}
	}
	program, err := e.compile(expr)
	if err != nil {
		return program, err
	}
	if e.cfg.cache != nil {
		e.cfg.cache.Set(key, program)
	}
	return program, nil
}
