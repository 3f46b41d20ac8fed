package choices

import (
	"container/list"
	"sync"
	"time"
)

// ProgramCache stores compiled expression programs keyed by expression
// strings.
type ProgramCache interface {
	Get(key string) (any, bool)
	Set(key string, value any)
}

// DefaultCacheTTL and DefaultCacheEntries are the option cache defaults.
const (
	DefaultCacheTTL     = 5 * time.Minute
	DefaultCacheEntries = 256
)

// CacheOption configures a Cache.
type CacheOption func(*Cache)

// CacheWithClock overrides the time source used for expiry.
func CacheWithClock(now func() time.Time) CacheOption {
	return func(c *Cache) {
		if now != nil {
			c.now = now
		}
	}
}

// CacheWithEvictHook is called with the key of every entry dropped to make
// room for a new one. Expired entries are not reported.
func CacheWithEvictHook(fn func(key string)) CacheOption {
	return func(c *Cache) {
		c.onEvict = fn
	}
}

// Cache is a key/value cache with lazy time-to-live expiry checked on read
// and least-recently-used eviction once maxEntries is reached. A zero ttl
// never expires; a zero maxEntries is unbounded.
type Cache struct {
	mu         sync.Mutex
	ttl        time.Duration
	maxEntries int
	items      map[string]*list.Element
	order      *list.List
	now        func() time.Time
	onEvict    func(key string)
}

type cacheEntry struct {
	key      string
	value    any
	storedAt time.Time
}

var _ ProgramCache = (*Cache)(nil)

func NewCache(ttl time.Duration, maxEntries int, opts ...CacheOption) *Cache {
	c := &Cache{
		ttl:        ttl,
		maxEntries: maxEntries,
		items:      map[string]*list.Element{},
		order:      list.New(),
		now:        time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// Get returns the value stored under key unless it has expired. Expired
// entries are removed on read.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	elem, ok := c.items[key]
	if !ok {
		return nil, false
	}
	entry := elem.Value.(*cacheEntry)
	if c.ttl > 0 && c.now().Sub(entry.storedAt) >= c.ttl {
		c.removeElement(elem)
		return nil, false
	}
	c.order.MoveToFront(elem)
	return entry.value, true
}

// Set stores value under key, evicting the least recently used entry when
// the cache is full.
func (c *Cache) Set(key string, value any) {
	var evicted []string
	c.mu.Lock()
	if elem, ok := c.items[key]; ok {
		entry := elem.Value.(*cacheEntry)
		entry.value = value
		entry.storedAt = c.now()
		c.order.MoveToFront(elem)
		c.mu.Unlock()
		return
	}
	c.items[key] = c.order.PushFront(&cacheEntry{key: key, value: value, storedAt: c.now()})
	for c.maxEntries > 0 && c.order.Len() > c.maxEntries {
		oldest := c.order.Back()
		evicted = append(evicted, oldest.Value.(*cacheEntry).key)
		c.removeElement(oldest)
	}
	onEvict := c.onEvict
	c.mu.Unlock()

	if onEvict != nil {
		for _, k := range evicted {
			onEvict(k)
		}
	}
}

// Delete removes key.
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if elem, ok := c.items[key]; ok {
		c.removeElement(elem)
	}
}

// Clear removes every entry.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = map[string]*list.Element{}
	c.order.Init()
}

// Len returns the number of stored entries, expired ones included.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

func (c *Cache) removeElement(elem *list.Element) {
	entry := elem.Value.(*cacheEntry)
	delete(c.items, entry.key)
	c.order.Remove(elem)
}
