package dropdown

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/goliatone/go-choices"
	"github.com/goliatone/go-choices/pkg/activity"
	"github.com/goliatone/go-choices/pkg/loader"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Generator derives filter options from a raw dataset. *choices.Service
// satisfies it.
type Generator interface {
	Source(id string) (choices.Source, bool)
	Derive(id string, data loader.Dataset) ([]choices.FilterOption, error)
}

type dropdown struct {
	cfg     Config
	dataKey string
	state   State
	usage   map[string]int
}

// Service keeps presentation-ready dropdown state for registered configs and
// reloads it when the underlying options change.
type Service struct {
	gen     Generator
	loader  loader.Loader
	fetch   loader.FetchFunc
	emitter *activity.Emitter
	logger  *zap.Logger
	now     func() time.Time

	mu        sync.RWMutex
	dropdowns map[string]*dropdown
	order     []string
	inflight  map[string]int
	stale     map[string]uint64

	flight      singleflight.Group
	unsubscribe []func()
	closeOnce   sync.Once
}

// NewService builds the dropdown service over gen, reading datasets through ld
// with fetch.
func NewService(gen Generator, ld loader.Loader, fetch loader.FetchFunc, opts ...ServiceOption) (*Service, error) {
	if gen == nil {
		return nil, errors.New("dropdown: option generator is required")
	}
	if ld == nil {
		return nil, errors.New("dropdown: loader is required")
	}
	s := &Service{
		gen:       gen,
		loader:    ld,
		fetch:     fetch,
		logger:    zap.NewNop(),
		now:       time.Now,
		dropdowns: map[string]*dropdown{},
		inflight:  map[string]int{},
		stale:     map[string]uint64{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.emitter != nil {
		s.unsubscribe = append(s.unsubscribe,
			activity.On(s.emitter, choices.EventCategoryUpdated, func(ctx context.Context, p choices.CategoryUpdated) error {
				s.reloadSource(ctx, p.CategoryID)
				return nil
			}),
			activity.On(s.emitter, choices.EventCategoryError, func(ctx context.Context, p choices.CategoryFailed) error {
				s.reloadSource(ctx, p.CategoryID)
				return nil
			}),
			activity.On(s.emitter, loader.EventLoadSuccess, func(ctx context.Context, p loader.LoadSuccess) error {
				s.reloadKey(ctx, p.Key)
				return nil
			}),
		)
	}
	return s, nil
}

// Register validates cfg, stores the dropdown in the idle state and loads it.
// Only configuration problems are returned; load failures end up in the
// dropdown state.
func (s *Service) Register(ctx context.Context, cfg Config) error {
	cfg = cfg.normalized()
	if err := cfg.Validate(); err != nil {
		return choices.InvalidConfig("dropdown", cfg.ID, err.Error())
	}
	src, ok := s.gen.Source(cfg.DataSource)
	if !ok {
		return choices.InvalidConfig("dropdown", cfg.ID, "unknown data source "+cfg.DataSource)
	}

	s.mu.Lock()
	if _, exists := s.dropdowns[cfg.ID]; exists {
		s.mu.Unlock()
		return choices.InvalidConfig("dropdown", cfg.ID, "already registered")
	}
	s.dropdowns[cfg.ID] = &dropdown{
		cfg:     cfg,
		dataKey: src.DataKey,
		state:   State{LoadingState: choices.StateIdle, Message: cfg.Text.Placeholder},
		usage:   map[string]int{},
	}
	s.order = append(s.order, cfg.ID)
	s.mu.Unlock()

	s.logger.Debug("dropdown registered", zap.String("dropdown", cfg.ID), zap.String("source", cfg.DataSource))
	return s.Load(ctx, cfg.ID)
}

// Unregister drops the dropdown, its state and its usage counters.
func (s *Service) Unregister(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.dropdowns[id]; !ok {
		return choices.UnknownID("dropdown", id)
	}
	delete(s.dropdowns, id)
	delete(s.stale, id)
	for i, existing := range s.order {
		if existing == id {
			s.order = append(s.order[:i:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// IDs lists the registered dropdowns in registration order.
func (s *Service) IDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.order...)
}

// Config returns the normalized config of dropdown id.
func (s *Service) Config(id string) (Config, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.dropdowns[id]
	if !ok {
		return Config{}, choices.UnknownID("dropdown", id)
	}
	cfg := d.cfg
	cfg.Order = append([]string(nil), d.cfg.Order...)
	return cfg, nil
}

// State returns a snapshot of dropdown id.
func (s *Service) State(id string) (State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.dropdowns[id]
	if !ok {
		return State{}, choices.UnknownID("dropdown", id)
	}
	return d.state.clone(), nil
}

// Load regenerates the options of dropdown id. Concurrent loads of one id
// share a single regeneration, which runs again when the options change
// underneath it.
func (s *Service) Load(ctx context.Context, id string) error {
	if _, err := s.Config(id); err != nil {
		return err
	}
	s.trackInflight(id, 1)
	defer s.trackInflight(id, -1)
	for {
		gen := s.generationOf(id)
		_, _, _ = s.flight.Do(id, func() (any, error) {
			s.load(withOwnLoad(ctx, s, id), id)
			return nil, nil
		})
		if s.generationOf(id) == gen {
			return nil
		}
		s.logger.Debug("options changed during load", zap.String("dropdown", id))
	}
}

func (s *Service) load(ctx context.Context, id string) {
	var (
		cfg     Config
		dataKey string
	)
	if !s.mutate(id, func(d *dropdown) {
		cfg = d.cfg
		dataKey = d.dataKey
		d.state.LoadingState = choices.StateLoading
		d.state.Message = d.cfg.Text.Loading
	}) {
		return
	}
	s.publish(ctx, EventLoading, id, Loading{DropdownID: id})

	data, err := s.loader.Load(ctx, dataKey, s.fetch)
	if err != nil {
		s.fail(ctx, id, cfg, &choices.LoadError{Key: dataKey, Err: err})
		return
	}
	generated, err := s.gen.Derive(cfg.DataSource, data)
	if err != nil {
		s.fail(ctx, id, cfg, err)
		return
	}

	options := make([]Option, 0, len(generated))
	for _, opt := range generated {
		options = append(options, decorate(opt))
	}

	var loaded Loaded
	if !s.mutate(id, func(d *dropdown) {
		sortOptions(options, d.cfg, d.usage)
		if d.cfg.MaxOptions > 0 && len(options) > d.cfg.MaxOptions {
			options = options[:d.cfg.MaxOptions]
		}
		var groups []Group
		if d.cfg.Grouped {
			groups = groupOptions(d.cfg.DataSource, options)
		}
		d.state.Options = options
		d.state.Groups = groups
		d.state.FilteredOptions = filter(options, d.state.SearchQuery)
		d.state.LoadingState = choices.StateSuccess
		d.state.Err = nil
		d.state.Message = d.cfg.Text.Placeholder
		if len(options) == 0 {
			d.state.Message = d.cfg.Text.Empty
		}
		d.state.LastUpdated = s.now()
		loaded = Loaded{DropdownID: id, Options: cloneOptions(options), Groups: cloneGroups(groups)}
	}) {
		return
	}
	s.logger.Debug("dropdown loaded", zap.String("dropdown", id), zap.Int("options", len(options)))
	s.publish(ctx, EventLoaded, id, loaded)
}

// fail records err on the dropdown. The previous options stay in place.
func (s *Service) fail(ctx context.Context, id string, cfg Config, err error) {
	s.logger.Warn("dropdown load failed", zap.String("dropdown", id), zap.Error(err))
	s.mutate(id, func(d *dropdown) {
		d.state.LoadingState = choices.StateError
		d.state.Err = err
		d.state.Message = d.cfg.Text.Error
	})
	s.publish(ctx, EventError, id, Failed{DropdownID: id, Err: err, Message: cfg.Text.Error})
}

// Search filters the options of dropdown id by a case-insensitive substring
// of label, description or search terms. An empty query returns every
// option.
func (s *Service) Search(ctx context.Context, id, query string) ([]Option, error) {
	query = strings.TrimSpace(query)
	var (
		results []Option
		err     error
	)
	found := s.mutate(id, func(d *dropdown) {
		if query != "" && !d.cfg.Searchable {
			err = choices.InvalidConfig("dropdown", id, "not searchable")
			return
		}
		d.state.SearchQuery = query
		d.state.FilteredOptions = filter(d.state.Options, query)
		results = cloneOptions(d.state.FilteredOptions)
	})
	if !found {
		return nil, choices.UnknownID("dropdown", id)
	}
	if err != nil {
		return nil, err
	}
	s.publish(ctx, EventSearched, id, Searched{DropdownID: id, Query: query, Results: cloneOptions(results)})
	return results, nil
}

// Select adds values to the selection and counts their usage. A single
// select dropdown keeps only the last value.
func (s *Service) Select(ctx context.Context, id string, values ...string) ([]string, error) {
	values = compact(values)
	var changed SelectionChanged
	found := s.mutate(id, func(d *dropdown) {
		applied := values
		if !d.cfg.MultiSelect && len(values) > 1 {
			applied = values[len(values)-1:]
		}
		added := make([]string, 0, len(applied))
		for _, v := range applied {
			d.usage[v]++
			if !contains(d.state.SelectedValues, v) && !contains(added, v) {
				added = append(added, v)
			}
		}
		if d.cfg.MultiSelect {
			d.state.SelectedValues = append(d.state.SelectedValues, added...)
		} else if len(applied) == 1 {
			d.state.SelectedValues = []string{applied[0]}
		}
		changed = SelectionChanged{
			DropdownID:     id,
			SelectedValues: append([]string(nil), d.state.SelectedValues...),
			NewValues:      added,
		}
	})
	if !found {
		return nil, choices.UnknownID("dropdown", id)
	}
	s.publish(ctx, EventSelectionChanged, id, changed)
	return append([]string(nil), changed.SelectedValues...), nil
}

// Deselect removes values from the selection.
func (s *Service) Deselect(ctx context.Context, id string, values ...string) ([]string, error) {
	values = compact(values)
	return s.removeSelected(ctx, id, func(v string) bool { return contains(values, v) })
}

// Clear empties the selection.
func (s *Service) Clear(ctx context.Context, id string) error {
	_, err := s.removeSelected(ctx, id, func(string) bool { return true })
	return err
}

func (s *Service) removeSelected(ctx context.Context, id string, drop func(string) bool) ([]string, error) {
	var changed SelectionChanged
	found := s.mutate(id, func(d *dropdown) {
		kept := make([]string, 0, len(d.state.SelectedValues))
		var removed []string
		for _, v := range d.state.SelectedValues {
			if drop(v) {
				removed = append(removed, v)
				continue
			}
			kept = append(kept, v)
		}
		d.state.SelectedValues = kept
		changed = SelectionChanged{
			DropdownID:     id,
			SelectedValues: append([]string(nil), kept...),
			RemovedValues:  removed,
		}
	})
	if !found {
		return nil, choices.UnknownID("dropdown", id)
	}
	s.publish(ctx, EventSelectionChanged, id, changed)
	return append([]string(nil), changed.SelectedValues...), nil
}

// Usage returns the selection counters of dropdown id.
func (s *Service) Usage(id string) (map[string]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.dropdowns[id]
	if !ok {
		return nil, choices.UnknownID("dropdown", id)
	}
	out := make(map[string]int, len(d.usage))
	for k, v := range d.usage {
		out[k] = v
	}
	return out, nil
}

// ResetUsage zeroes the selection counters of dropdown id.
func (s *Service) ResetUsage(id string) error {
	if !s.mutate(id, func(d *dropdown) { d.usage = map[string]int{} }) {
		return choices.UnknownID("dropdown", id)
	}
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

func (s *Service) reloadSource(ctx context.Context, source string) {
	s.reload(ctx, func(d *dropdown) bool { return d.cfg.DataSource == source })
}

func (s *Service) reloadKey(ctx context.Context, key string) {
	s.reload(ctx, func(d *dropdown) bool { return d.dataKey == key })
}

func (s *Service) reload(ctx context.Context, match func(*dropdown) bool) {
	s.mu.Lock()
	var ids []string
	for _, id := range s.order {
		// Notifications raised by a load of id itself carry nothing new.
		if !match(s.dropdowns[id]) || ownsLoad(ctx, s, id) {
			continue
		}
		s.stale[id]++
		// A running load sees the bump and loads again.
		if s.inflight[id] == 0 {
			ids = append(ids, id)
		}
	}
	s.mu.Unlock()
	for _, id := range ids {
		_ = s.Load(ctx, id)
	}
}

// mutate runs fn on dropdown id under the write lock and reports whether the
// dropdown exists.
func (s *Service) mutate(id string, fn func(*dropdown)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.dropdowns[id]
	if !ok {
		return false
	}
	fn(d)
	return true
}

func (s *Service) trackInflight(id string, delta int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inflight[id] += delta
	if s.inflight[id] <= 0 {
		delete(s.inflight, id)
	}
}

func (s *Service) generationOf(id string) uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stale[id]
}

type ownLoadKey struct{}

// ownLoad marks a context as belonging to a load of one dropdown.
type ownLoad struct {
	svc    *Service
	id     string
	parent *ownLoad
}

func withOwnLoad(ctx context.Context, s *Service, id string) context.Context {
	parent, _ := ctx.Value(ownLoadKey{}).(*ownLoad)
	return context.WithValue(ctx, ownLoadKey{}, &ownLoad{svc: s, id: id, parent: parent})
}

func ownsLoad(ctx context.Context, s *Service, id string) bool {
	for l, _ := ctx.Value(ownLoadKey{}).(*ownLoad); l != nil; l = l.parent {
		if l.svc == s && l.id == id {
			return true
		}
	}
	return false
}

func compact(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func contains(values []string, v string) bool {
	for _, existing := range values {
		if existing == v {
			return true
		}
	}
	return false
}
