package choices

import (
	"errors"
	"fmt"
	"testing"
)

func TestWrapEvaluationErrorCreatesMetadata(t *testing.T) {
	base := errors.New("boom")
	err := wrapEvaluationError("expr", "metadata.isActive && missing", "politicians", base)

	var evalErr *EvaluationError
	if !errors.As(err, &evalErr) {
		t.Fatalf("expected EvaluationError, got %T", err)
	}
	if evalErr.Engine != "expr" || evalErr.Source != "politicians" {
		t.Fatalf("unexpected metadata %+v", evalErr)
	}
	if evalErr.Expr != "metadata.isActive && missing" {
		t.Fatalf("expected expression metadata, got %q", evalErr.Expr)
	}
	if !errors.Is(err, base) {
		t.Fatalf("wrapped error should unwrap to base error")
	}
}

func TestWrapEvaluationErrorAugmentsExisting(t *testing.T) {
	base := errors.New("compile failure")
	existing := &EvaluationError{Engine: "expr", Err: base}

	err := wrapEvaluationError("cel", "rule", "parties", existing)
	if !errors.Is(err, base) {
		t.Fatalf("expected base error to unwrap")
	}
	if existing.Engine != "expr" {
		t.Fatalf("existing engine should not be overwritten, got %q", existing.Engine)
	}
	if existing.Expr != "rule" || existing.Source != "parties" {
		t.Fatalf("expected missing metadata filled, got %+v", existing)
	}
}

func TestConfigurationErrorMatchesSentinel(t *testing.T) {
	err := fmt.Errorf("register: %w", UnknownID("category", "weather"))
	if !errors.Is(err, ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration match, got %v", err)
	}
	var cfgErr *ConfigurationError
	if !errors.As(err, &cfgErr) || cfgErr.ID != "weather" || cfgErr.Kind != "category" {
		t.Fatalf("unexpected configuration error %#v", cfgErr)
	}
	if got := InvalidConfig("dropdown", "d1", "empty data source").Error(); got != `choices: dropdown "d1": empty data source` {
		t.Fatalf("unexpected message %q", got)
	}
}

func TestLoadErrorUnwraps(t *testing.T) {
	base := errors.New("timeout")
	err := error(&LoadError{Key: "parties", Err: base})
	if !errors.Is(err, base) {
		t.Fatalf("expected load error to unwrap")
	}
}
