// Package app constructs the services and wires them to one event bus.
package app

import (
	"context"
	"fmt"

	"github.com/goliatone/go-choices"
	"github.com/goliatone/go-choices/pkg/activity"
	"github.com/goliatone/go-choices/pkg/config"
	"github.com/goliatone/go-choices/pkg/consistency"
	"github.com/goliatone/go-choices/pkg/dropdown"
	"github.com/goliatone/go-choices/pkg/loader"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// App holds one instance of every service, built from a Config.
type App struct {
	Config      config.Config
	Logger      *zap.Logger
	Emitter     *activity.Emitter
	Files       *loader.FileSource
	Loader      *loader.Memo
	Options     *choices.Service
	Dropdowns   *dropdown.Service
	Consistency *consistency.Service

	fetch loader.FetchFunc
}

// Option configures New.
type Option func(*settings)

type settings struct {
	logger     *zap.Logger
	hooks      activity.Hooks
	fetch      loader.FetchFunc
	registerer prometheus.Registerer
}

// WithLogger replaces the logger built from the log section.
func WithLogger(logger *zap.Logger) Option {
	return func(s *settings) {
		s.logger = logger
	}
}

// WithHooks adds external activity hooks (audit sinks) to the bus.
func WithHooks(hooks ...activity.ActivityHook) Option {
	return func(s *settings) {
		s.hooks = append(s.hooks, hooks...)
	}
}

// WithFetch reads datasets through fetch instead of the data directory.
func WithFetch(fetch loader.FetchFunc) Option {
	return func(s *settings) {
		s.fetch = fetch
	}
}

// WithRegisterer registers service metrics on reg.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(s *settings) {
		s.registerer = reg
	}
}

// New builds every service from cfg and registers the configured dropdowns.
func New(ctx context.Context, cfg config.Config, opts ...Option) (*App, error) {
	var set settings
	for _, opt := range opts {
		if opt != nil {
			opt(&set)
		}
	}

	logger := set.logger
	if logger == nil {
		var err error
		logger, err = config.NewLogger(cfg.Log)
		if err != nil {
			return nil, err
		}
	}

	a := &App{
		Config: cfg,
		Logger: logger,
		Emitter: activity.NewEmitter(set.hooks, activity.Config{
			Enabled: cfg.Activity.Enabled,
			Channel: cfg.Activity.Channel,
		}),
		Files: loader.NewFileSource(cfg.DataDir),
	}
	a.fetch = set.fetch
	if a.fetch == nil {
		a.fetch = a.Files.Fetch
	}
	a.Loader = loader.New(loader.WithEmitter(a.Emitter), loader.WithLogger(logger.Named("loader")))

	minQuality, err := choices.ParseQuality(cfg.MinQuality)
	if err != nil {
		return nil, fmt.Errorf("app: %w", err)
	}
	var (
		optionMetrics      *choices.Metrics
		consistencyMetrics *consistency.Metrics
	)
	if set.registerer != nil {
		optionMetrics = choices.NewMetrics(set.registerer)
		consistencyMetrics = consistency.NewMetrics(set.registerer)
	}

	a.Options, err = choices.NewService(a.Loader, a.fetch,
		choices.WithEmitter(a.Emitter),
		choices.WithLogger(logger.Named("options")),
		choices.WithEngine(cfg.Evaluator),
		choices.WithCacheTTL(cfg.Cache.TTL),
		choices.WithCacheEntries(cfg.Cache.MaxEntries),
		choices.WithMinQuality(minQuality),
		choices.WithMetrics(optionMetrics),
	)
	if err != nil {
		return nil, err
	}

	a.Dropdowns, err = dropdown.NewService(a.Options, a.Loader, a.fetch,
		dropdown.WithEmitter(a.Emitter),
		dropdown.WithLogger(logger.Named("dropdown")),
	)
	if err != nil {
		a.Close()
		return nil, err
	}

	consistencyOpts := []consistency.Option{
		consistency.WithEmitter(a.Emitter),
		consistency.WithLogger(logger.Named("consistency")),
		consistency.WithMetrics(consistencyMetrics),
	}
	if len(cfg.Relationships) > 0 {
		consistencyOpts = append(consistencyOpts, consistency.WithRelationships(cfg.Relationships...))
	}
	a.Consistency, err = consistency.NewService(a.Loader, a.fetch, consistencyOpts...)
	if err != nil {
		a.Close()
		return nil, err
	}

	for _, d := range cfg.Dropdowns {
		if err := a.Dropdowns.Register(ctx, d); err != nil {
			a.Close()
			return nil, err
		}
	}
	return a, nil
}

// ReportOptions returns the validation options configured for reports.
func (a *App) ReportOptions() []consistency.ValidateOption {
	return []consistency.ValidateOption{consistency.WithOrphanCheck(a.Config.Consistency.Orphans)}
}

// Watch starts a watcher that reloads datasets when their files in the data
// directory change. Stop it before closing the app.
func (a *App) Watch(ctx context.Context) (*loader.Watcher, error) {
	watcher, err := loader.NewWatcher(a.Files, a.Loader,
		loader.WithDebounce(a.Config.Watch.Debounce),
		loader.WithWatcherLogger(a.Logger.Named("watcher")),
	)
	if err != nil {
		return nil, err
	}
	if err := watcher.Start(ctx); err != nil {
		return nil, err
	}
	return watcher, nil
}

// Close detaches every service from the bus and flushes the logger.
func (a *App) Close() {
	if a.Dropdowns != nil {
		a.Dropdowns.Close()
	}
	if a.Consistency != nil {
		a.Consistency.Close()
	}
	if a.Options != nil {
		a.Options.Close()
	}
	if a.Logger != nil {
		// Syncing a console logger fails on some platforms; nothing to recover.
		_ = a.Logger.Sync()
	}
}
