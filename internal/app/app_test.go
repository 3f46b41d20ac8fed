package app

import (
	"context"
	"errors"
	"testing"

	"github.com/goliatone/go-choices"
	"github.com/goliatone/go-choices/pkg/activity"
	"github.com/goliatone/go-choices/pkg/config"
	"github.com/goliatone/go-choices/pkg/consistency"
	"github.com/goliatone/go-choices/pkg/dropdown"
	"github.com/goliatone/go-choices/pkg/loader"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

func memorySource() *loader.MemorySource {
	source := loader.NewMemorySource()
	source.Set("parties", loader.Dataset{"parties": []any{
		map[string]any{"id": "P1", "name": "Unity Party", "abbreviation": "UP",
			"colors": map[string]any{"primary": "#d00000"}, "metadata": map[string]any{"status": "active"}},
	}})
	source.Set("states", loader.Dataset{"states": []any{
		map[string]any{"id": "NG-LA", "name": "Lagos", "code": "LA", "capital": "Ikeja", "region": "South West",
			"population": 15000000, "coordinates": map[string]any{"latitude": 6.5, "longitude": 3.4}},
	}})
	source.Set("politicians", loader.Dataset{"politicians": []any{
		map[string]any{"id": "X1", "firstName": "Ada", "lastName": "Obi", "partyId": "P1", "stateOfOriginId": "NG-LA",
			"currentPositionId": "senator", "gender": "female", "metadata": map[string]any{"verificationStatus": "verified"}},
		map[string]any{"id": "X2", "fullName": "Bola Ade", "partyId": "P9", "stateOfOriginId": "NG-LA",
			"currentPositionId": "governor", "gender": "male", "metadata": map[string]any{"verificationStatus": "pending"}},
	}})
	return source
}

func newTestApp(t *testing.T, cfg config.Config, opts ...Option) *App {
	t.Helper()
	opts = append([]Option{WithLogger(zap.NewNop())}, opts...)
	a, err := New(context.Background(), cfg, opts...)
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	t.Cleanup(a.Close)
	return a
}

func TestNewWiresServicesThroughOneBus(t *testing.T) {
	cfg := config.Defaults()
	cfg.Activity.Enabled = true
	cfg.Dropdowns = []dropdown.Config{{ID: "party-picker", DataSource: "parties"}}

	audit := &activity.CaptureHook{}
	source := memorySource()
	a := newTestApp(t, cfg,
		WithFetch(source.Fetch),
		WithHooks(audit),
		WithRegisterer(prometheus.NewRegistry()),
	)
	ctx := context.Background()

	st, err := a.Dropdowns.State("party-picker")
	if err != nil || st.LoadingState != choices.StateSuccess || len(st.Options) != 1 {
		t.Fatalf("expected configured dropdown loaded, got %+v %v", st, err)
	}

	a.Loader.Put(ctx, "parties", loader.Dataset{"parties": []any{
		map[string]any{"id": "P1", "name": "Unity Party", "abbreviation": "UP",
			"colors": map[string]any{"primary": "#d00000"}, "metadata": map[string]any{"status": "active"}},
		map[string]any{"id": "P9", "name": "New Dawn", "abbreviation": "ND",
			"colors": map[string]any{"primary": "#00ff00"}, "metadata": map[string]any{"status": "active"}},
	}})

	st, _ = a.Dropdowns.State("party-picker")
	if len(st.Options) != 2 {
		t.Fatalf("expected dropdown refreshed from the new dataset, got %d options", len(st.Options))
	}
	cat, err := a.Options.Category("parties")
	if err != nil || len(cat.Options) != 2 {
		t.Fatalf("expected category refreshed, got %+v %v", cat, err)
	}
	for _, name := range []string{
		loader.EventLoadSuccess,
		choices.EventCategoryUpdated,
		choices.EventFiltersUpdated,
		dropdown.EventLoaded,
		consistency.EventDataUpdated,
	} {
		if len(audit.Named(name)) == 0 {
			t.Fatalf("expected %s forwarded to the audit hook", name)
		}
	}

	report := a.Consistency.GenerateReport(ctx, a.ReportOptions()...)
	if report.BrokenRelationships != 0 || report.ValidRelationships != 2 {
		t.Fatalf("expected P9 to resolve after the update, got %+v", report)
	}
}

func TestNewUsesConfiguredRelationships(t *testing.T) {
	cfg := config.Defaults()
	cfg.Relationships = []consistency.Relationship{consistency.DefaultRelationships()[0]}
	a := newTestApp(t, cfg, WithFetch(memorySource().Fetch))

	if rels := a.Consistency.Relationships(); len(rels) != 1 {
		t.Fatalf("expected configured relationships only, got %v", rels)
	}
	res, err := a.Consistency.ValidateRelationship(context.Background(), "politician-party")
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if len(res.BrokenRelationships) != 1 || res.BrokenRelationships[0].SourceID != "X2" {
		t.Fatalf("expected X2 broken, got %+v", res.BrokenRelationships)
	}
}

func TestNewRejectsBadConfiguration(t *testing.T) {
	cfg := config.Defaults()
	cfg.Dropdowns = []dropdown.Config{{ID: "weather", DataSource: "weather"}}
	_, err := New(context.Background(), cfg, WithLogger(zap.NewNop()), WithFetch(memorySource().Fetch))
	if !errors.Is(err, choices.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}

	cfg = config.Defaults()
	cfg.MinQuality = "great"
	if _, err := New(context.Background(), cfg, WithLogger(zap.NewNop())); err == nil {
		t.Fatalf("expected invalid quality rejected")
	}
}
