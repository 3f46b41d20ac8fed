package loader

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/goliatone/go-choices/pkg/activity"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Notification names published by the loader.
const (
	EventLoadSuccess  = "load-success"
	EventCacheCleared = "cache-cleared"
)

// ErrNoFetch is returned when Load is called without a fetch function.
var ErrNoFetch = errors.New("loader: fetch function is required")

// Dataset is a decoded raw dataset: the root object holding the record list.
type Dataset = map[string]any

// FetchFunc retrieves the raw dataset for key from its backing source.
type FetchFunc func(ctx context.Context, key string) (Dataset, error)

// Loader is the Data Loader contract consumed by the services.
type Loader interface {
	Load(ctx context.Context, key string, fetch FetchFunc, opts ...LoadOption) (Dataset, error)
}

// LoadSuccess is the payload of load-success.
type LoadSuccess struct {
	Key  string
	Data Dataset
}

// CacheCleared is the payload of cache-cleared.
type CacheCleared struct{}

// LoadOption configures a single Load call.
type LoadOption func(*loadConfig)

type loadConfig struct {
	force bool
}

// WithForceRefresh bypasses the memoized value and fetches again.
func WithForceRefresh() LoadOption {
	return func(cfg *loadConfig) {
		cfg.force = true
	}
}

// Option configures a Memo loader.
type Option func(*Memo)

// WithEmitter publishes load notifications on emitter.
func WithEmitter(emitter *activity.Emitter) Option {
	return func(m *Memo) {
		m.emitter = emitter
	}
}

// WithLogger sets the logger used for fetch failures and notifications.
func WithLogger(logger *zap.Logger) Option {
	return func(m *Memo) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithTTL expires memoized datasets after ttl. Zero keeps them until
// invalidated.
func WithTTL(ttl time.Duration) Option {
	return func(m *Memo) {
		m.ttl = ttl
	}
}

// WithClock overrides the time source, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(m *Memo) {
		if now != nil {
			m.now = now
		}
	}
}

// Memo memoizes datasets per key. Concurrent loads of the same key share a
// single fetch.
type Memo struct {
	mu      sync.RWMutex
	entries map[string]memoEntry
	flight  singleflight.Group
	emitter *activity.Emitter
	logger  *zap.Logger
	ttl     time.Duration
	now     func() time.Time
}

type memoEntry struct {
	data     Dataset
	loadedAt time.Time
}

var _ Loader = (*Memo)(nil)

// New constructs a memoizing loader.
func New(opts ...Option) *Memo {
	m := &Memo{
		entries: map[string]memoEntry{},
		logger:  zap.NewNop(),
		now:     time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}
	return m
}

// Load returns the memoized dataset for key, fetching it when absent,
// expired or when WithForceRefresh is given. Every successful fetch
// publishes load-success.
func (m *Memo) Load(ctx context.Context, key string, fetch FetchFunc, opts ...LoadOption) (Dataset, error) {
	cfg := loadConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if !cfg.force {
		if data, ok := m.Cached(key); ok {
			return data, nil
		}
	}
	if fetch == nil {
		return nil, ErrNoFetch
	}

	result, err, _ := m.flight.Do(key, func() (any, error) {
		data, err := fetch(ctx, key)
		if err != nil {
			m.logger.Warn("dataset fetch failed", zap.String("key", key), zap.Error(err))
			return nil, fmt.Errorf("loader: fetch %q: %w", key, err)
		}
		m.store(key, data)
		m.publish(ctx, EventLoadSuccess, key, LoadSuccess{Key: key, Data: data})
		return data, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(Dataset), nil
}

// Cached returns the memoized dataset for key when present and fresh.
func (m *Memo) Cached(key string) (Dataset, bool) {
	m.mu.RLock()
	entry, ok := m.entries[key]
	m.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if m.ttl > 0 && m.now().Sub(entry.loadedAt) >= m.ttl {
		return nil, false
	}
	return entry.data, true
}

// Put stores data for key as if it had been fetched and publishes
// load-success. It is the entry point for pushed dataset updates.
func (m *Memo) Put(ctx context.Context, key string, data Dataset) {
	m.store(key, data)
	m.publish(ctx, EventLoadSuccess, key, LoadSuccess{Key: key, Data: data})
}

// Invalidate drops the memoized dataset for key.
func (m *Memo) Invalidate(key string) {
	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()
}

// Clear drops every memoized dataset and publishes cache-cleared.
func (m *Memo) Clear(ctx context.Context) {
	m.mu.Lock()
	m.entries = map[string]memoEntry{}
	m.mu.Unlock()
	m.publish(ctx, EventCacheCleared, "", CacheCleared{})
}

func (m *Memo) store(key string, data Dataset) {
	m.mu.Lock()
	m.entries[key] = memoEntry{data: data, loadedAt: m.now()}
	m.mu.Unlock()
}

func (m *Memo) publish(ctx context.Context, name, key string, payload any) {
	if m.emitter == nil {
		return
	}
	event := activity.Build(name, activity.EventInput{
		ObjectType: "dataset",
		ObjectID:   key,
		Payload:    payload,
	})
	if err := m.emitter.Emit(ctx, event); err != nil {
		m.logger.Warn("loader notification subscriber failed",
			zap.String("event", name),
			zap.String("key", key),
			zap.Error(err),
		)
	}
}
