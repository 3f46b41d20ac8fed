package choices

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrNoEvaluator = errors.New("choices: evaluator not configured")
	// ErrNonBoolRule is returned when a rule does not produce a boolean.
	ErrNonBoolRule = errors.New("choices: rule result is not a boolean")
)

// Evaluator engine names accepted by NewEvaluator.
const (
	EngineExpr = "expr"
	EngineCEL  = "cel"
	EngineJS   = "js"
)

// EvaluatorSettings are the shared dependencies handed to an engine.
type EvaluatorSettings struct {
	Cache     ProgramCache
	Functions *FunctionRegistry
}

func (s EvaluatorSettings) options() []EngineOption {
	return []EngineOption{WithRuleCache(s.Cache), WithRuleFunctions(s.Functions)}
}

// NewEvaluator builds the evaluator for engine. The js engine needs the
// js_eval build tag.
func NewEvaluator(engine string, settings EvaluatorSettings) (Evaluator, error) {
	switch strings.ToLower(strings.TrimSpace(engine)) {
	case "", EngineExpr:
		return NewExprEvaluator(settings.options()...), nil
	case EngineCEL:
		return NewCELEvaluator(settings.options()...), nil
	case EngineJS:
		evaluator := NewJSEvaluator(settings.options()...)
		if evaluator == nil {
			return nil, fmt.Errorf("choices: js evaluator requires the js_eval build tag: %w", ErrNoEvaluator)
		}
		return evaluator, nil
	default:
		return nil, fmt.Errorf("choices: unknown evaluator engine %q", engine)
	}
}

// ruleRunner evaluates boolean rules and reports every attempt to the
// evaluator logger.
type ruleRunner struct {
	evaluator Evaluator
	logger    EvaluatorLogger
}

func (r ruleRunner) allows(ctx RuleContext, expr string) (bool, error) {
	if strings.TrimSpace(expr) == "" {
		return true, nil
	}
	if r.evaluator == nil {
		return false, ErrNoEvaluator
	}
	ctx = ctx.withDefaults()
	engine := evaluatorEngineName(r.evaluator)
	start := time.Now()
	value, evalErr := r.evaluator.Evaluate(ctx, expr)
	if evalErr == nil {
		if _, ok := value.(bool); !ok {
			evalErr = fmt.Errorf("%w: got %T", ErrNonBoolRule, value)
		}
	}
	evalErr = wrapEvaluationError(engine, expr, ctx.sourceLabel(), evalErr)
	if r.logger != nil {
		r.logger.LogEvaluation(EvaluatorLogEvent{
			Engine:   engine,
			Expr:     expr,
			Source:   ctx.sourceLabel(),
			Duration: time.Since(start),
			Err:      evalErr,
		})
	}
	if evalErr != nil {
		return false, evalErr
	}
	return value.(bool), nil
}

// EvaluateRule runs a boolean rule with evaluator. An empty rule allows
// everything.
func EvaluateRule(evaluator Evaluator, logger EvaluatorLogger, ctx RuleContext, expr string) (bool, error) {
	return ruleRunner{evaluator: evaluator, logger: logger}.allows(ctx, expr)
}

func evaluatorEngineName(e Evaluator) string {
	if e == nil {
		return "unknown"
	}
	if named, ok := e.(interface{ Engine() string }); ok {
		return named.Engine()
	}
	return "custom"
}
