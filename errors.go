package choices

import (
	"errors"
	"fmt"
	"strings"
)

// ErrConfiguration matches every ConfigurationError via errors.Is.
var ErrConfiguration = errors.New("choices: configuration error")

// ConfigurationError reports misuse of a synchronous API: an unknown id or an
// invalid registration.
type ConfigurationError struct {
	Kind   string
	ID     string
	Reason string
}

func (e *ConfigurationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Reason != "" {
		return fmt.Sprintf("choices: %s %q: %s", e.Kind, e.ID, e.Reason)
	}
	return fmt.Sprintf("choices: unknown %s %q", e.Kind, e.ID)
}

func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}

// UnknownID builds the ConfigurationError for an unregistered id of kind.
func UnknownID(kind, id string) error {
	return &ConfigurationError{Kind: kind, ID: id}
}

// InvalidConfig builds the ConfigurationError for a rejected registration.
func InvalidConfig(kind, id, reason string) error {
	return &ConfigurationError{Kind: kind, ID: id, Reason: reason}
}

// LoadError wraps a Data Loader failure for a dataset key.
type LoadError struct {
	Key string
	Err error
}

func (e *LoadError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("choices: load dataset %q: %v", e.Key, e.Err)
}

func (e *LoadError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// EvaluationError captures evaluator metadata alongside the originating error.
type EvaluationError struct {
	Engine string
	Expr   string
	Source string
	Err    error
}

func (e *EvaluationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("choices: %s evaluator %s source=%s: %v", e.Engine, describeExpression(e.Expr), e.Source, e.Err)
}

func (e *EvaluationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func describeExpression(expr string) string {
	if expr == "" {
		return "expr=<empty>"
	}
	return fmt.Sprintf("expr=%q", expr)
}

func wrapEvaluatorError(engine string, err error) error {
	if err == nil {
		return nil
	}
	var evalErr *EvaluationError
	if errors.As(err, &evalErr) {
		return err
	}
	if strings.HasPrefix(err.Error(), "choices:") {
		return err
	}
	return fmt.Errorf("choices: %s evaluator: %w", engine, err)
}

func wrapEvaluationError(engine, expr, source string, err error) error {
	if err == nil {
		return nil
	}
	var evalErr *EvaluationError
	if errors.As(err, &evalErr) {
		if evalErr.Engine == "" {
			evalErr.Engine = engine
		}
		if evalErr.Expr == "" {
			evalErr.Expr = expr
		}
		if evalErr.Source == "" {
			evalErr.Source = source
		}
		return evalErr
	}
	return &EvaluationError{
		Engine: engine,
		Expr:   expr,
		Source: source,
		Err:    err,
	}
}
