package choices

import (
	"fmt"
	"sort"
	"sync"
)

// Function is a helper callable from availability and filter rules.
type Function func(args ...any) (any, error)

// FunctionRegistry holds the helpers exposed to rules, keyed by the name
// rules call them with.
type FunctionRegistry struct {
	mu  sync.RWMutex
	fns map[string]Function
}

func NewFunctionRegistry() *FunctionRegistry {
	return &FunctionRegistry{fns: map[string]Function{}}
}

// Register adds fn under name. Names are unique.
func (r *FunctionRegistry) Register(name string, fn Function) error {
	switch {
	case name == "":
		return fmt.Errorf("choices: function name must not be empty")
	case fn == nil:
		return fmt.Errorf("choices: function %q is nil", name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fns == nil {
		r.fns = map[string]Function{}
	}
	if _, dup := r.fns[name]; dup {
		return fmt.Errorf("choices: function %q already registered", name)
	}
	r.fns[name] = fn
	return nil
}

// Clone snapshots the registry so later registrations do not reach engines
// that were already built.
func (r *FunctionRegistry) Clone() *FunctionRegistry {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := &FunctionRegistry{fns: make(map[string]Function, len(r.fns))}
	for name, fn := range r.fns {
		out.fns[name] = fn
	}
	return out
}

func (r *FunctionRegistry) Call(name string, args ...any) (any, error) {
	if r == nil {
		return nil, fmt.Errorf("choices: no functions registered")
	}
	r.mu.RLock()
	fn, ok := r.fns[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("choices: function %q not registered", name)
	}
	return fn(args...)
}

// Names lists the registered names in sorted order.
func (r *FunctionRegistry) Names() []string {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.fns))
	for name := range r.fns {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// WithFunctionRegistry exposes the functions of registry to availability
// rules.
func WithFunctionRegistry(registry *FunctionRegistry) Option {
	return func(cfg *serviceConfig) {
		if registry != nil {
			cfg.functions = registry.Clone()
		}
	}
}

// WithCustomFunction exposes fn to availability rules under name.
func WithCustomFunction(name string, fn Function) Option {
	return func(cfg *serviceConfig) {
		if cfg.functions == nil {
			cfg.functions = NewFunctionRegistry()
		}
		_ = cfg.functions.Register(name, fn)
	}
}
