package backend

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/radiance-dashboard/internal/domain"
	"github.com/couchcryptid/radiance-dashboard/internal/observability"
)

// CachedSource wraps a RadianceSource with in-memory LRU caches for series and
// comparison responses. Health, municipality, year and download calls pass
// straight through.
type CachedSource struct {
	domain.RadianceSource

	series      *lruCache[[]domain.Record]
	comparisons *lruCache[[]domain.RankEntry]
	metrics     *observability.Metrics
}

// NewCachedSource creates a cache decorator around inner. Entries expire after
// ttl according to clock; a ttl of zero keeps them until evicted.
func NewCachedSource(inner domain.RadianceSource, maxEntries int, ttl time.Duration, clock clockwork.Clock, metrics *observability.Metrics) *CachedSource {
	return &CachedSource{
		RadianceSource: inner,
		series:         newLRUCache[[]domain.Record](maxEntries, ttl, clock),
		comparisons:    newLRUCache[[]domain.RankEntry](maxEntries, ttl, clock),
		metrics:        metrics,
	}
}

func (c *CachedSource) MunicipalitySeries(ctx context.Context, name string, year *int) ([]domain.Record, error) {
	key := name + "|" + yearKey(year)
	if records, ok := c.series.get(key); ok {
		c.metrics.Cache.WithLabelValues("series", "hit").Inc()
		return slices.Clone(records), nil
	}
	c.metrics.Cache.WithLabelValues("series", "miss").Inc()

	records, err := c.RadianceSource.MunicipalitySeries(ctx, name, year)
	if err != nil {
		return nil, err
	}
	c.series.put(key, slices.Clone(records))
	return records, nil
}

func (c *CachedSource) Comparison(ctx context.Context, q domain.ComparisonQuery) ([]domain.RankEntry, error) {
	key := fmt.Sprintf("%s|%d|%s", q.Metric, q.Top, yearKey(q.Year))
	if entries, ok := c.comparisons.get(key); ok {
		c.metrics.Cache.WithLabelValues("comparison", "hit").Inc()
		return slices.Clone(entries), nil
	}
	c.metrics.Cache.WithLabelValues("comparison", "miss").Inc()

	entries, err := c.RadianceSource.Comparison(ctx, q)
	if err != nil {
		return nil, err
	}
	c.comparisons.put(key, slices.Clone(entries))
	return entries, nil
}

// Purge drops every cached response.
func (c *CachedSource) Purge() {
	c.series.purge()
	c.comparisons.purge()
}

func yearKey(year *int) string {
	if year == nil {
		return "all"
	}
	return strconv.Itoa(*year)
}

// lruCache is a thread-safe LRU cache whose entries also expire after ttl.
type lruCache[V any] struct {
	maxEntries int
	ttl        time.Duration
	clock      clockwork.Clock

	mu      sync.Mutex
	entries map[string]*entry[V]
	head    *entry[V] // most recently used
	tail    *entry[V] // least recently used
}

type entry[V any] struct {
	key     string
	value   V
	expires time.Time
	prev    *entry[V]
	next    *entry[V]
}

func newLRUCache[V any](maxEntries int, ttl time.Duration, clock clockwork.Clock) *lruCache[V] {
	return &lruCache[V]{
		maxEntries: maxEntries,
		ttl:        ttl,
		clock:      clock,
		entries:    make(map[string]*entry[V]),
	}
}

func (c *lruCache[V]) get(key string) (V, bool) {
	var zero V
	if c.maxEntries <= 0 {
		return zero, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return zero, false
	}
	if c.ttl > 0 && !c.clock.Now().Before(e.expires) {
		delete(c.entries, key)
		c.remove(e)
		return zero, false
	}
	c.moveToFront(e)
	return e.value, true
}

func (c *lruCache[V]) put(key string, value V) {
	if c.maxEntries <= 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	expires := c.clock.Now().Add(c.ttl)
	if e, ok := c.entries[key]; ok {
		e.value = value
		e.expires = expires
		c.moveToFront(e)
		return
	}

	e := &entry[V]{key: key, value: value, expires: expires}
	c.entries[key] = e
	c.addToFront(e)

	if len(c.entries) > c.maxEntries {
		c.evictTail()
	}
}

func (c *lruCache[V]) size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *lruCache[V]) purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*entry[V])
	c.head, c.tail = nil, nil
}

func (c *lruCache[V]) moveToFront(e *entry[V]) {
	if e == c.head {
		return
	}
	c.remove(e)
	c.addToFront(e)
}

func (c *lruCache[V]) addToFront(e *entry[V]) {
	e.next = c.head
	e.prev = nil
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
	if c.tail == nil {
		c.tail = e
	}
}

func (c *lruCache[V]) remove(e *entry[V]) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		c.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		c.tail = e.prev
	}
}

func (c *lruCache[V]) evictTail() {
	if c.tail == nil {
		return
	}
	delete(c.entries, c.tail.key)
	c.remove(c.tail)
}
