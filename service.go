package choices

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/goliatone/go-choices/pkg/activity"
	"github.com/goliatone/go-choices/pkg/datasets"
	"github.com/goliatone/go-choices/pkg/loader"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Service generates filter options from raw datasets, keeps one filter
// category per source and validates selections against them.
type Service struct {
	loader loader.Loader
	fetch  loader.FetchFunc
	cfg    serviceConfig
	logger *zap.Logger
	cache  *Cache
	rules  ruleRunner

	mu         sync.RWMutex
	sources    map[string]Source
	order      []string
	categories map[string]FilterCategory
	inflight   map[string]int
	generation map[string]uint64

	flight      singleflight.Group
	unsubscribe []func()
	closeOnce   sync.Once
}

// NewService builds the option service. Datasets are read through ld using
// fetch.
func NewService(ld loader.Loader, fetch loader.FetchFunc, opts ...Option) (*Service, error) {
	if ld == nil {
		return nil, errors.New("choices: loader is required")
	}
	cfg := applyOptions(opts)

	s := &Service{
		loader:     ld,
		fetch:      fetch,
		cfg:        cfg,
		logger:     cfg.logger,
		sources:    map[string]Source{},
		categories: map[string]FilterCategory{},
		inflight:   map[string]int{},
		generation: map[string]uint64{},
	}

	s.cache = cfg.cache
	if s.cache == nil {
		s.cache = NewCache(cfg.cacheTTL, cfg.cacheEntries,
			CacheWithClock(cfg.now),
			CacheWithEvictHook(func(key string) {
				cfg.metrics.cacheEvicted()
				s.logger.Debug("option set evicted", zap.String("key", key))
			}),
		)
	}

	evaluator := cfg.evaluator
	if evaluator == nil {
		programs := cfg.programCache
		if programs == nil {
			programs = NewCache(0, DefaultCacheEntries)
		}
		var err error
		evaluator, err = NewEvaluator(cfg.engine, EvaluatorSettings{Cache: programs, Functions: cfg.functions})
		if err != nil {
			return nil, err
		}
	}
	evalLogger := cfg.evalLogger
	if evalLogger == nil {
		evalLogger = ZapEvaluatorLogger(s.logger)
	}
	s.rules = ruleRunner{evaluator: evaluator, logger: evalLogger}

	sources := cfg.sources
	if sources == nil {
		sources = DefaultSources(cfg.engine)
	}
	for _, src := range sources {
		if err := s.RegisterCategory(src); err != nil {
			return nil, err
		}
	}

	if cfg.emitter != nil {
		s.unsubscribe = append(s.unsubscribe,
			activity.On(cfg.emitter, loader.EventLoadSuccess, s.onLoadSuccess),
			activity.On(cfg.emitter, loader.EventCacheCleared, s.onCacheCleared),
		)
	}
	return s, nil
}

// RegisterCategory adds a source and creates its idle category.
func (s *Service) RegisterCategory(src Source) error {
	if err := src.validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.sources[src.ID]; exists {
		return InvalidConfig("category", src.ID, "already registered")
	}
	src = src.clone()
	s.sources[src.ID] = src
	s.order = append(s.order, src.ID)
	s.categories[src.ID] = FilterCategory{
		ID:            src.ID,
		Name:          src.Name,
		Description:   src.Description,
		IsMultiSelect: src.MultiSelect,
		IsRequired:    src.Required,
		Dependencies:  append([]string(nil), src.Dependencies...),
		LoadingState:  StateIdle,
		DataSource:    src.DataKey,
	}
	return nil
}

// Source returns the registered source id.
func (s *Service) Source(id string) (Source, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	src, ok := s.sources[id]
	if !ok {
		return Source{}, false
	}
	return src.clone(), true
}

// Sources lists the registered sources in registration order.
func (s *Service) Sources() []Source {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Source, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.sources[id].clone())
	}
	return out
}

// SourcesForKey returns the ids of the sources reading dataset key.
func (s *Service) SourcesForKey(key string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var ids []string
	for _, id := range s.order {
		if s.sources[id].DataKey == key {
			ids = append(ids, id)
		}
	}
	return ids
}

// Category returns a snapshot of category id.
func (s *Service) Category(id string) (FilterCategory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cat, ok := s.categories[id]
	if !ok {
		return FilterCategory{}, UnknownID("category", id)
	}
	return cat.clone(), nil
}

// GeneratePartyOptions returns the party options.
func (s *Service) GeneratePartyOptions(ctx context.Context) ([]FilterOption, error) {
	return s.GenerateOptions(ctx, datasets.KeyParties)
}

// GenerateStateOptions returns the state options.
func (s *Service) GenerateStateOptions(ctx context.Context) ([]FilterOption, error) {
	return s.GenerateOptions(ctx, datasets.KeyStates)
}

// GeneratePoliticianOptions returns the politician options.
func (s *Service) GeneratePoliticianOptions(ctx context.Context) ([]FilterOption, error) {
	return s.GenerateOptions(ctx, datasets.KeyPoliticians)
}

// GeneratePlatformOptions returns the platform options.
func (s *Service) GeneratePlatformOptions(ctx context.Context) ([]FilterOption, error) {
	return s.GenerateOptions(ctx, datasets.KeyPlatforms)
}

// GenerateSentimentOptions returns the sentiment options.
func (s *Service) GenerateSentimentOptions(ctx context.Context) ([]FilterOption, error) {
	return s.GenerateOptions(ctx, datasets.KeySentiment)
}

// GenerateTopicOptions returns the topic options.
func (s *Service) GenerateTopicOptions(ctx context.Context) ([]FilterOption, error) {
	return s.GenerateOptions(ctx, datasets.KeyTopics)
}

// GenerateOptions returns the options of source id. Results are cached per
// source until the cache TTL elapses or the dataset changes; a cache hit
// does not touch the loader.
func (s *Service) GenerateOptions(ctx context.Context, id string) ([]FilterOption, error) {
	src, ok := s.Source(id)
	if !ok {
		return nil, UnknownID("category", id)
	}
	key := cacheKey(id)
	if cached, ok := s.cache.Get(key); ok {
		if options, ok := cached.([]FilterOption); ok {
			s.cfg.metrics.cacheHit()
			s.logger.Debug("options served from cache", zap.String("source", id), zap.Int("options", len(options)))
			return CloneOptions(options), nil
		}
	}
	s.cfg.metrics.cacheMiss()

	gen := s.generationOf(id)
	data, err := s.loader.Load(s.withOwnLoad(ctx, id), src.DataKey, s.fetch)
	if err != nil {
		err = &LoadError{Key: src.DataKey, Err: err}
		s.cfg.metrics.generated(id, err)
		return nil, err
	}
	options, err := s.derive(src, data)
	s.cfg.metrics.generated(id, err)
	if err != nil {
		return nil, err
	}
	// Data that changed while loading must not be cached as current.
	if s.generationOf(id) == gen {
		s.cache.Set(key, options)
	}
	s.logger.Debug("options generated", zap.String("source", id), zap.Int("options", len(options)))
	return CloneOptions(options), nil
}

// Derive maps data through source id without caching. The result is owned by
// the caller.
func (s *Service) Derive(id string, data loader.Dataset) ([]FilterOption, error) {
	src, ok := s.Source(id)
	if !ok {
		return nil, UnknownID("category", id)
	}
	return s.derive(src, data)
}

func (s *Service) derive(src Source, data loader.Dataset) ([]FilterOption, error) {
	records, err := datasets.Records(src.DataKey, data)
	if err != nil {
		return nil, fmt.Errorf("choices: source %q: %w", src.ID, err)
	}
	options := make([]FilterOption, 0, len(records))
	seen := make(map[string]struct{}, len(records))
	for i, record := range records {
		opt, completeness, err := src.Map(i, record)
		if err != nil {
			s.logger.Warn("record skipped", zap.String("source", src.ID), zap.Int("index", i), zap.Error(err))
			continue
		}
		opt.DataQuality = AssessQuality(completeness)
		if opt.Value == "" || !opt.DataQuality.AtLeast(s.cfg.minQuality) {
			continue
		}
		if _, dup := seen[opt.Value]; dup {
			s.logger.Debug("duplicate option value skipped", zap.String("source", src.ID), zap.String("value", opt.Value))
			continue
		}
		seen[opt.Value] = struct{}{}

		available, err := s.rules.allows(RuleContext{Record: record, Source: src.ID, Now: s.now()}, src.Rule)
		if err != nil {
			available = false
		}
		opt.IsAvailable = available
		options = append(options, opt)
	}
	return options, nil
}

// Categories generates every category and returns a snapshot keyed by id. A
// failing source marks only its own category as errored.
func (s *Service) Categories(ctx context.Context) map[string]FilterCategory {
	ids := s.categoryIDs()
	for _, id := range ids {
		_ = s.update(ctx, id, false)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]FilterCategory, len(ids))
	for _, id := range ids {
		out[id] = s.categories[id].clone()
	}
	return out
}

// RefreshCategory regenerates category id from the current dataset. Load
// failures are recorded on the category and published as category-error;
// only an unknown id is returned as an error. Concurrent refreshes of one
// id share a single regeneration, which runs again when the dataset changes
// underneath it.
func (s *Service) RefreshCategory(ctx context.Context, id string) error {
	if _, ok := s.Source(id); !ok {
		return UnknownID("category", id)
	}
	s.trackInflight(id, 1)
	defer s.trackInflight(id, -1)
	for {
		gen := s.generationOf(id)
		_, _, _ = s.flight.Do(id, func() (any, error) {
			s.cache.Delete(cacheKey(id))
			return nil, s.update(ctx, id, true)
		})
		if s.generationOf(id) == gen {
			return nil
		}
		s.logger.Debug("dataset changed during refresh", zap.String("category", id))
	}
}

// update regenerates one category. On failure the previous options are kept.
func (s *Service) update(ctx context.Context, id string, notify bool) error {
	s.setState(id, func(cat *FilterCategory) {
		cat.LoadingState = StateLoading
	})
	if notify {
		s.publish(ctx, EventCategoryUpdating, id, CategoryUpdating{CategoryID: id})
	}

	options, err := s.GenerateOptions(ctx, id)
	if err != nil {
		s.logger.Warn("category refresh failed", zap.String("category", id), zap.Error(err))
		s.setState(id, func(cat *FilterCategory) {
			cat.LoadingState = StateError
			cat.Err = err
		})
		if notify {
			s.publish(ctx, EventCategoryError, id, CategoryFailed{CategoryID: id, Err: err})
		}
		return err
	}

	s.setState(id, func(cat *FilterCategory) {
		cat.Options = CloneOptions(options)
		cat.LoadingState = StateSuccess
		cat.LastUpdated = *s.now()
		cat.Err = nil
	})
	if notify {
		s.publish(ctx, EventCategoryUpdated, id, CategoryUpdated{CategoryID: id, Options: options})
	}
	return nil
}

func (s *Service) onLoadSuccess(ctx context.Context, payload loader.LoadSuccess) error {
	affected := s.SourcesForKey(payload.Key)
	if len(affected) == 0 {
		return nil
	}
	for _, id := range affected {
		s.cache.Delete(cacheKey(id))
	}
	for _, id := range affected {
		// The load running for id fetched this data itself.
		if s.ownsLoad(ctx, id) {
			continue
		}
		if inflight := s.markStale(id); inflight {
			// The running refresh sees the bump and regenerates again.
			continue
		}
		_ = s.RefreshCategory(ctx, id)
	}
	s.publish(ctx, EventFiltersUpdated, payload.Key, FiltersUpdated{
		DataKey:            payload.Key,
		AffectedCategories: affected,
	})
	return nil
}

func (s *Service) onCacheCleared(ctx context.Context, _ loader.CacheCleared) error {
	s.cache.Clear()
	s.publish(ctx, EventFiltersUpdated, "", FiltersUpdated{AffectedCategories: s.categoryIDs()})
	return nil
}

// Close unsubscribes the service from the bus.
func (s *Service) Close() {
	s.closeOnce.Do(func() {
		for _, unsubscribe := range s.unsubscribe {
			unsubscribe()
		}
	})
}

func (s *Service) categoryIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.order...)
}

func (s *Service) setState(id string, mutate func(*FilterCategory)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cat, ok := s.categories[id]
	if !ok {
		return
	}
	mutate(&cat)
	s.categories[id] = cat
}

func (s *Service) trackInflight(id string, delta int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inflight[id] += delta
	if s.inflight[id] <= 0 {
		delete(s.inflight, id)
	}
}

// markStale bumps the generation of id and reports whether a refresh of id
// is running.
func (s *Service) markStale(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation[id]++
	return s.inflight[id] > 0
}

func (s *Service) generationOf(id string) uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.generation[id]
}

type ownLoadKey struct{}

// ownLoad marks a context as belonging to a load the service started for a
// category. Nested loads chain to their parent.
type ownLoad struct {
	svc    *Service
	id     string
	parent *ownLoad
}

func (s *Service) withOwnLoad(ctx context.Context, id string) context.Context {
	parent, _ := ctx.Value(ownLoadKey{}).(*ownLoad)
	return context.WithValue(ctx, ownLoadKey{}, &ownLoad{svc: s, id: id, parent: parent})
}

func (s *Service) ownsLoad(ctx context.Context, id string) bool {
	for l, _ := ctx.Value(ownLoadKey{}).(*ownLoad); l != nil; l = l.parent {
		if l.svc == s && l.id == id {
			return true
		}
	}
	return false
}

func (s *Service) now() *time.Time {
	now := s.cfg.now()
	return &now
}

func cacheKey(id string) string {
	return "options:" + id
}
