package consistency

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/goliatone/go-choices"
	"github.com/goliatone/go-choices/pkg/activity"
	"github.com/goliatone/go-choices/pkg/datasets"
	"github.com/goliatone/go-choices/pkg/loader"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Service checks declared relationships between datasets. It never returns
// load failures; they become warnings on the result so it can be polled.
type Service struct {
	loader     loader.Loader
	fetch      loader.FetchFunc
	emitter    *activity.Emitter
	logger     *zap.Logger
	evaluator  choices.Evaluator
	evalLogger choices.EvaluatorLogger
	metrics    *Metrics
	now        func() time.Time
	initial    []Relationship

	mu            sync.RWMutex
	relationships map[string]Relationship
	order         []string

	unsubscribe func()
	closeOnce   sync.Once
}

// NewService builds the consistency service over ld. Without
// WithRelationships it checks DefaultRelationships.
func NewService(ld loader.Loader, fetch loader.FetchFunc, opts ...Option) (*Service, error) {
	if ld == nil {
		return nil, errors.New("consistency: loader is required")
	}
	s := &Service{
		loader:        ld,
		fetch:         fetch,
		logger:        zap.NewNop(),
		now:           time.Now,
		initial:       DefaultRelationships(),
		relationships: map[string]Relationship{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.evaluator == nil {
		evaluator, err := choices.NewEvaluator(choices.EngineExpr, choices.EvaluatorSettings{
			Cache: choices.NewCache(0, choices.DefaultCacheEntries),
		})
		if err != nil {
			return nil, err
		}
		s.evaluator = evaluator
	}
	if s.evalLogger == nil {
		s.evalLogger = choices.ZapEvaluatorLogger(s.logger)
	}
	for _, rel := range s.initial {
		if err := s.Register(rel); err != nil {
			return nil, err
		}
	}
	if s.emitter != nil {
		s.unsubscribe = activity.On(s.emitter, loader.EventLoadSuccess, s.onLoadSuccess)
	}
	return s, nil
}

// Register declares an additional relationship.
func (s *Service) Register(rel Relationship) error {
	if err := rel.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.relationships[rel.ID]; exists {
		return choices.InvalidConfig("relationship", rel.ID, "already registered")
	}
	s.relationships[rel.ID] = rel
	s.order = append(s.order, rel.ID)
	return nil
}

func (s *Service) Relationship(id string) (Relationship, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rel, ok := s.relationships[id]
	return rel, ok
}

// Relationships lists the declared relationships in declaration order.
func (s *Service) Relationships() []Relationship {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Relationship, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.relationships[id])
	}
	return out
}

// ValidateOption configures a single validation.
type ValidateOption func(*validateConfig)

type validateConfig struct {
	orphans bool
}

// WithOrphans also reports target records no source record references.
func WithOrphans() ValidateOption {
	return func(cfg *validateConfig) {
		cfg.orphans = true
	}
}

// WithOrphanCheck toggles orphan detection.
func WithOrphanCheck(enabled bool) ValidateOption {
	return func(cfg *validateConfig) {
		cfg.orphans = enabled
	}
}

// ValidateRelationship checks relationship id against the current datasets.
// Only an unknown id is returned as an error.
func (s *Service) ValidateRelationship(ctx context.Context, id string, opts ...ValidateOption) (Result, error) {
	rel, ok := s.Relationship(id)
	if !ok {
		return Result{}, choices.UnknownID("relationship", id)
	}
	return s.check(ctx, rel, applyValidateOptions(opts)), nil
}

// GenerateReport validates every relationship and aggregates the results.
// The report is recomputed on every call.
func (s *Service) GenerateReport(ctx context.Context, opts ...ValidateOption) Report {
	cfg := applyValidateOptions(opts)
	rels := s.Relationships()
	report := Report{
		ID:                 uuid.NewString(),
		TotalRelationships: len(rels),
		LastChecked:        s.now(),
		Results:            make([]Result, 0, len(rels)),
	}
	for _, rel := range rels {
		res := s.check(ctx, rel, cfg)
		report.Results = append(report.Results, res)
		if res.IsValid {
			report.ValidRelationships++
		}
		report.BrokenRelationships += len(res.BrokenRelationships)
		report.OrphanedRecords += len(res.OrphanedRecords)
		report.DuplicateKeys += len(res.DuplicateKeys)
		if rec := recommend(rel, res); rec != "" {
			report.Recommendations = append(report.Recommendations, rec)
		}
	}
	s.logger.Info("consistency report generated",
		zap.String("report", report.ID),
		zap.Int("relationships", report.TotalRelationships),
		zap.Int("valid", report.ValidRelationships),
		zap.Int("broken", report.BrokenRelationships),
		zap.Int("orphaned", report.OrphanedRecords),
		zap.Int("duplicates", report.DuplicateKeys),
	)
	return report
}

// Poll generates a report immediately and then every interval, handing each
// one to fn, until ctx is done. An error from fn stops polling and is
// returned.
func (s *Service) Poll(ctx context.Context, interval time.Duration, fn func(Report) error, opts ...ValidateOption) error {
	if interval <= 0 {
		return fmt.Errorf("consistency: poll interval must be positive, got %s", interval)
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		report := s.GenerateReport(ctx, opts...)
		if fn != nil {
			if err := fn(report); err != nil {
				return err
			}
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Close unsubscribes the service from the bus.
func (s *Service) Close() {
	s.closeOnce.Do(func() {
		if s.unsubscribe != nil {
			s.unsubscribe()
		}
	})
}

func (s *Service) check(ctx context.Context, rel Relationship, cfg validateConfig) Result {
	now := s.now()
	res := Result{RelationshipID: rel.ID, CheckedAt: now, OrphansChecked: cfg.orphans}

	source, err := s.records(ctx, rel.SourceEntity)
	if err != nil {
		res.Warnings = append(res.Warnings, fmt.Sprintf("%s: %v", rel.SourceEntity, err))
	}
	target, err := s.records(ctx, rel.TargetEntity)
	if err != nil {
		res.Warnings = append(res.Warnings, fmt.Sprintf("%s: %v", rel.TargetEntity, err))
	}
	if len(res.Warnings) > 0 {
		s.logger.Warn("relationship check skipped", zap.String("relationship", rel.ID), zap.Strings("warnings", res.Warnings))
		s.metrics.observe(res)
		return res
	}

	occurrences := make(map[string]int, len(target))
	keys := make([]string, 0, len(target))
	for _, record := range target {
		key, ok := field(record, rel.TargetField)
		if !ok {
			continue
		}
		if occurrences[key] == 0 {
			keys = append(keys, key)
		}
		occurrences[key]++
	}
	for _, key := range keys {
		if n := occurrences[key]; n > 1 {
			res.DuplicateKeys = append(res.DuplicateKeys, DuplicateKey{
				RelationshipID: rel.ID,
				Entity:         rel.TargetEntity,
				Key:            key,
				Occurrences:    n,
			})
		}
	}

	referenced := make(map[string]struct{}, len(source))
	for i, record := range source {
		value, ok := field(record, rel.SourceField)
		if !ok {
			continue
		}
		if rel.Filter != "" {
			allowed, err := choices.EvaluateRule(s.evaluator, s.evalLogger, choices.RuleContext{
				Record: record,
				Source: rel.ID,
				Now:    &now,
			}, rel.Filter)
			if err != nil {
				res.Warnings = append(res.Warnings, fmt.Sprintf("%s %s: %v", rel.SourceEntity, recordID(record, i), err))
				continue
			}
			if !allowed {
				continue
			}
		}
		referenced[value] = struct{}{}
		if occurrences[value] == 0 {
			res.BrokenRelationships = append(res.BrokenRelationships, BrokenRelationship{
				RelationshipID: rel.ID,
				SourceEntity:   rel.SourceEntity,
				SourceID:       recordID(record, i),
				Field:          rel.SourceField,
				Value:          value,
			})
		}
	}

	if cfg.orphans {
		for _, key := range keys {
			if _, ok := referenced[key]; !ok {
				res.OrphanedRecords = append(res.OrphanedRecords, OrphanedRecord{
					RelationshipID: rel.ID,
					Entity:         rel.TargetEntity,
					ID:             key,
				})
			}
		}
	}

	res.IsValid = res.Findings() == 0 && len(res.Warnings) == 0
	if !res.IsValid {
		s.logger.Debug("relationship has findings",
			zap.String("relationship", rel.ID),
			zap.Int("broken", len(res.BrokenRelationships)),
			zap.Int("orphaned", len(res.OrphanedRecords)),
			zap.Int("duplicates", len(res.DuplicateKeys)),
		)
	}
	s.metrics.observe(res)
	return res
}

func (s *Service) records(ctx context.Context, key string) ([]map[string]any, error) {
	data, err := s.loader.Load(ctx, key, s.fetch)
	if err != nil {
		return nil, &choices.LoadError{Key: key, Err: err}
	}
	return datasets.Records(key, data)
}

func applyValidateOptions(opts []ValidateOption) validateConfig {
	var cfg validateConfig
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

// field returns the non-empty string form of the value at path.
func field(record map[string]any, path string) (string, bool) {
	value, ok := datasets.Lookup(record, path)
	if !ok {
		return "", false
	}
	key := datasets.KeyString(value)
	return key, key != ""
}

func recordID(record map[string]any, index int) string {
	if id, ok := field(record, "id"); ok {
		return id
	}
	return "#" + strconv.Itoa(index)
}
