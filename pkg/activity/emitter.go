package activity

import (
	"context"
	"errors"
	"strings"
	"sync"
)

// AnyEvent subscribes a hook to every event name.
const AnyEvent = "*"

// Config controls emitter defaults supplied by DI/config.
type Config struct {
	// Enabled forwards events to the external hooks. Subscribers registered
	// with Subscribe are always notified.
	Enabled bool
	Channel string
}

// Emitter is the in-process event bus shared by the services. Subscribers
// register a callback by event name; external hooks (audit sinks) receive
// every event when the emitter is enabled.
type Emitter struct {
	mu      sync.RWMutex
	hooks   Hooks
	subs    map[string][]subscription
	nextID  uint64
	enabled bool
	channel string
}

type subscription struct {
	id   uint64
	hook ActivityHook
}

// NewEmitter constructs an emitter from hooks and configuration.
func NewEmitter(hooks Hooks, cfg Config) *Emitter {
	channel := strings.TrimSpace(cfg.Channel)
	if channel == "" {
		channel = "choices"
	}
	normalizedHooks := cloneHooks(hooks)
	return &Emitter{
		hooks:   normalizedHooks,
		subs:    map[string][]subscription{},
		enabled: cfg.Enabled && len(normalizedHooks) > 0,
		channel: channel,
	}
}

// Enabled reports whether events are forwarded to external hooks.
func (e *Emitter) Enabled() bool {
	return e != nil && e.enabled && len(e.hooks) > 0
}

// Subscribe registers hook for events named name (or AnyEvent). The returned
// function unregisters it and is safe to call more than once.
func (e *Emitter) Subscribe(name string, hook ActivityHook) func() {
	name = strings.TrimSpace(name)
	if e == nil || hook == nil || name == "" {
		return func() {}
	}

	e.mu.Lock()
	e.nextID++
	id := e.nextID
	if e.subs == nil {
		e.subs = map[string][]subscription{}
	}
	e.subs[name] = append(e.subs[name], subscription{id: id, hook: hook})
	e.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { e.unsubscribe(name, id) })
	}
}

func (e *Emitter) unsubscribe(name string, id uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	current := e.subs[name]
	for i, sub := range current {
		if sub.id != id {
			continue
		}
		next := make([]subscription, 0, len(current)-1)
		next = append(next, current[:i]...)
		next = append(next, current[i+1:]...)
		if len(next) == 0 {
			delete(e.subs, name)
		} else {
			e.subs[name] = next
		}
		return
	}
}

// Subscribers returns the number of callbacks registered for name.
func (e *Emitter) Subscribers(name string) int {
	if e == nil {
		return 0
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.subs[name])
}

// Emit delivers the event to named subscribers, wildcard subscribers and,
// when enabled, the external hooks. Delivery is synchronous and in
// registration order; a failing subscriber does not stop the others.
func (e *Emitter) Emit(ctx context.Context, event Event) error {
	if e == nil {
		return nil
	}
	if strings.TrimSpace(event.Channel) == "" {
		event.Channel = e.channel
	}
	event = NormalizeEvent(event)
	if event.Name == "" {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	e.mu.RLock()
	targets := make([]ActivityHook, 0, len(e.subs[event.Name])+len(e.subs[AnyEvent]))
	for _, sub := range e.subs[event.Name] {
		targets = append(targets, sub.hook)
	}
	for _, sub := range e.subs[AnyEvent] {
		targets = append(targets, sub.hook)
	}
	e.mu.RUnlock()

	var errs []error
	for _, hook := range targets {
		if err := hook.Notify(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	if e.Enabled() {
		if err := e.hooks.Notify(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return errors.Join(errs...)
}

func cloneHooks(hooks Hooks) Hooks {
	if len(hooks) == 0 {
		return nil
	}
	normalized := make([]ActivityHook, 0, len(hooks))
	for _, hook := range hooks {
		if hook == nil {
			continue
		}
		normalized = append(normalized, hook)
	}
	return Hooks(normalized)
}
