package loader

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrNotFound is returned by sources that have no dataset for a key.
var ErrNotFound = errors.New("loader: dataset not found")

// MemorySource is an in-memory dataset source intended for tests, examples
// and pushed data. Fetch counts are tracked per key.
type MemorySource struct {
	mu       sync.RWMutex
	datasets map[string]Dataset
	failures map[string]error
	fetches  map[string]int
}

func NewMemorySource() *MemorySource {
	return &MemorySource{
		datasets: map[string]Dataset{},
		failures: map[string]error{},
		fetches:  map[string]int{},
	}
}

// Set stores data under key, clearing any configured failure.
func (s *MemorySource) Set(key string, data Dataset) {
	s.mu.Lock()
	s.datasets[key] = data
	delete(s.failures, key)
	s.mu.Unlock()
}

// Fail makes every fetch of key return err until Set is called again.
func (s *MemorySource) Fail(key string, err error) {
	s.mu.Lock()
	s.failures[key] = err
	s.mu.Unlock()
}

// Delete removes key from the source.
func (s *MemorySource) Delete(key string) {
	s.mu.Lock()
	delete(s.datasets, key)
	delete(s.failures, key)
	s.mu.Unlock()
}

// Fetch implements FetchFunc.
func (s *MemorySource) Fetch(_ context.Context, key string) (Dataset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fetches[key]++
	if err := s.failures[key]; err != nil {
		return nil, err
	}
	data, ok := s.datasets[key]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, key)
	}
	return data, nil
}

// Fetches reports how many times key has been fetched.
func (s *MemorySource) Fetches(key string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fetches[key]
}
