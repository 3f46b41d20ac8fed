package choices

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goliatone/go-choices/pkg/loader"
)

// countingLoader fetches on every call and counts calls per key.
type countingLoader struct {
	mu    sync.Mutex
	calls map[string]int
}

func (l *countingLoader) Load(ctx context.Context, key string, fetch loader.FetchFunc, _ ...loader.LoadOption) (loader.Dataset, error) {
	l.mu.Lock()
	if l.calls == nil {
		l.calls = map[string]int{}
	}
	l.calls[key]++
	l.mu.Unlock()
	return fetch(ctx, key)
}

func (l *countingLoader) Calls(key string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.calls[key]
}

// gatedLoader delegates to next. Once armed, the next load parks after
// reading its data until release is closed.
type gatedLoader struct {
	next    loader.Loader
	armed   atomic.Bool
	parked  chan struct{}
	release chan struct{}
}

func newGatedLoader(next loader.Loader) *gatedLoader {
	l := &gatedLoader{next: next, parked: make(chan struct{}), release: make(chan struct{})}
	l.armed.Store(true)
	return l
}

func (l *gatedLoader) Load(ctx context.Context, key string, fetch loader.FetchFunc, opts ...loader.LoadOption) (loader.Dataset, error) {
	data, err := l.next.Load(ctx, key, fetch, opts...)
	if l.armed.CompareAndSwap(true, false) {
		close(l.parked)
		<-l.release
	}
	return data, err
}

// blockingFetch wraps fetch so every call waits for release and is counted.
type blockingFetch struct {
	fetch   loader.FetchFunc
	release chan struct{}
	calls   atomic.Int32
}

func (f *blockingFetch) Fetch(ctx context.Context, key string) (loader.Dataset, error) {
	f.calls.Add(1)
	<-f.release
	return f.fetch(ctx, key)
}

// waitInflight blocks until n refreshes of id have started.
func waitInflight(t *testing.T, svc *Service, id string, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for {
		svc.mu.RLock()
		got := svc.inflight[id]
		svc.mu.RUnlock()
		if got == n {
			// Let the last caller reach the shared flight.
			time.Sleep(20 * time.Millisecond)
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("expected %d refreshes of %s in flight, got %d", n, id, got)
		}
		time.Sleep(time.Millisecond)
	}
}

func records(items ...map[string]any) []any {
	out := make([]any, 0, len(items))
	for _, item := range items {
		out = append(out, item)
	}
	return out
}

func testSource() *loader.MemorySource {
	source := loader.NewMemorySource()
	source.Set("parties", loader.Dataset{"parties": records(
		map[string]any{
			"id": "P1", "name": "Unity Party", "abbreviation": "UP",
			"colors":   map[string]any{"primary": "#d00000"},
			"metadata": map[string]any{"status": "active"},
		},
		map[string]any{
			"id": "P2", "name": "Progress Alliance", "abbreviation": "PA",
			"colors":   map[string]any{"primary": "#0040ff"},
			"metadata": map[string]any{"status": "inactive"},
		},
		map[string]any{"id": "P3", "name": "Minor Party"},
	)})
	source.Set("states", loader.Dataset{"states": records(
		map[string]any{
			"id": "NG-LA", "name": "Lagos", "code": "LA", "capital": "Ikeja", "region": "South West",
			"population": 15000000, "coordinates": map[string]any{"latitude": 6.52, "longitude": 3.37},
		},
		map[string]any{
			"id": "NG-KN", "name": "Kano", "code": "KN", "capital": "Kano", "region": "North West",
			"population": 13000000, "coordinates": map[string]any{"latitude": 12.0, "longitude": 8.52},
		},
		map[string]any{"id": "NG-FC", "name": "Federal Capital Territory", "code": "FC", "capital": "Abuja", "region": "North Central"},
	)})
	source.Set("politicians", loader.Dataset{"politicians": records(
		map[string]any{
			"id": "X1", "firstName": "Ada", "lastName": "Obi", "partyId": "P1", "stateOfOriginId": "NG-LA",
			"currentPositionId": "senator", "gender": "female",
			"metadata": map[string]any{"isActive": true, "verificationStatus": "verified"},
		},
		map[string]any{
			"id": "X2", "fullName": "Bola Ade", "partyId": "P2", "stateOfOriginId": "NG-KN", "gender": "male",
			"metadata": map[string]any{"isActive": false},
		},
	)})
	source.Set("topics", loader.Dataset{"topicTrends": records(
		map[string]any{
			"id": "T1", "topicName": "Fuel subsidy", "mentions": 120, "category": "economy",
			"keywords": []any{"fuel", "subsidy"}, "trendDirection": "up", "urgencyLevel": "high",
		},
		map[string]any{
			"id": "T2", "topicName": "Flooding", "mentions": 40, "category": "environment",
			"keywords": []any{"flood"}, "trendDirection": "up", "urgencyLevel": "critical", "isActive": false,
		},
	)})
	source.Set("platforms", loader.Dataset{"platforms": records(
		map[string]any{"id": "twitter", "name": "X", "description": "Microblogging", "color": "#000000", "url": "https://x.com"},
		map[string]any{"id": "facebook", "name": "Facebook", "description": "Social network", "color": "#1877f2", "url": "https://facebook.com"},
	)})
	source.Set("sentiment", loader.Dataset{"sentimentLabels": records(
		map[string]any{"id": "positive", "name": "Positive", "description": "Favourable", "color": "#00a000", "polarity": "positive"},
		map[string]any{"id": "negative", "name": "Negative", "description": "Unfavourable", "color": "#a00000", "polarity": "negative"},
	)})
	return source
}
