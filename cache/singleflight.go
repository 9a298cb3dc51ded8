package cache

import (
	"container/list"
	"context"
	"sync"
	"sync/atomic"

	"github.com/hupe1980/exdcache/async"
)

// Stats reports cache activity.
type Stats struct {
	Hits      int64
	Misses    int64
	Evictions int64
	Len       int
}

// SingleFlight is a keyed, memoizing cache of asynchronous computations with
// bounded LRU eviction.
//
// Concurrent requests for the same key share one computation. Successes and
// failures are memoized identically until the entry is evicted.
type SingleFlight[K comparable, V any] struct {
	mu       sync.Mutex
	capacity int
	items    map[K]*list.Element
	lru      *list.List
	onEvict  func(K, *async.Future[V])

	hits      atomic.Int64
	misses    atomic.Int64
	evictions atomic.Int64
}

type sfEntry[K comparable, V any] struct {
	key K
	fut *async.Future[V]
}

// Option configures a SingleFlight.
type Option[K comparable, V any] func(*SingleFlight[K, V])

// WithOnEvict registers a callback invoked (without the cache lock held) for
// every entry removed by capacity pressure, Evict or Purge.
func WithOnEvict[K comparable, V any](fn func(K, *async.Future[V])) Option[K, V] {
	return func(c *SingleFlight[K, V]) {
		c.onEvict = fn
	}
}

// NewSingleFlight returns a cache holding at most capacity entries.
// A capacity below 1 is treated as 1.
func NewSingleFlight[K comparable, V any](capacity int, opts ...Option[K, V]) *SingleFlight[K, V] {
	c := &SingleFlight[K, V]{
		capacity: max(capacity, 1),
		items:    make(map[K]*list.Element),
		lru:      list.New(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetOrCreate returns the Future memoized under key, starting compute in the
// background on a miss. compute runs with a context detached from ctx's
// cancellation; callers bound their own wait with Future.Wait.
func (c *SingleFlight[K, V]) GetOrCreate(ctx context.Context, key K, compute func(context.Context) (V, error)) *async.Future[V] {
	c.mu.Lock()
	if el, ok := c.items[key]; ok {
		c.lru.MoveToFront(el)
		c.mu.Unlock()
		c.hits.Add(1)
		return el.Value.(*sfEntry[K, V]).fut
	}

	c.misses.Add(1)
	fut := async.Go(ctx, compute)
	c.items[key] = c.lru.PushFront(&sfEntry[K, V]{key: key, fut: fut})
	evicted := c.evictLocked()
	c.mu.Unlock()

	c.notify(evicted)
	return fut
}

// Get returns the Future memoized under key without starting a computation.
// A hit marks the key as most recently used.
func (c *SingleFlight[K, V]) Get(key K) (*async.Future[V], bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	el, ok := c.items[key]
	if !ok {
		return nil, false
	}
	c.lru.MoveToFront(el)
	return el.Value.(*sfEntry[K, V]).fut, true
}

// Peek returns the successfully computed value memoized under key. It does
// not touch recency or counters.
func (c *SingleFlight[K, V]) Peek(key K) (V, bool) {
	var zero V
	c.mu.Lock()
	el, ok := c.items[key]
	c.mu.Unlock()
	if !ok {
		return zero, false
	}

	fut := el.Value.(*sfEntry[K, V]).fut
	if !fut.Ready() {
		return zero, false
	}
	v, err := fut.Wait(context.Background())
	if err != nil {
		return zero, false
	}
	return v, true
}

// Evict drops the entry for key. Waiters already holding its Future still
// observe its result; the next GetOrCreate starts a fresh computation.
func (c *SingleFlight[K, V]) Evict(key K) bool {
	c.mu.Lock()
	el, ok := c.items[key]
	if ok {
		c.removeLocked(el)
	}
	c.mu.Unlock()

	if ok {
		c.notify([]*sfEntry[K, V]{el.Value.(*sfEntry[K, V])})
	}
	return ok
}

// Purge drops every entry.
func (c *SingleFlight[K, V]) Purge() {
	c.mu.Lock()
	var evicted []*sfEntry[K, V]
	for el := c.lru.Back(); el != nil; el = c.lru.Back() {
		evicted = append(evicted, el.Value.(*sfEntry[K, V]))
		c.removeLocked(el)
	}
	c.mu.Unlock()

	c.notify(evicted)
}

// Keys returns the cached keys from most to least recently used.
func (c *SingleFlight[K, V]) Keys() []K {
	c.mu.Lock()
	defer c.mu.Unlock()
	keys := make([]K, 0, c.lru.Len())
	for el := c.lru.Front(); el != nil; el = el.Next() {
		keys = append(keys, el.Value.(*sfEntry[K, V]).key)
	}
	return keys
}

// Len returns the number of entries.
func (c *SingleFlight[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}

// Capacity returns the maximum number of entries.
func (c *SingleFlight[K, V]) Capacity() int {
	return c.capacity
}

// Stats returns a snapshot of the cache counters.
func (c *SingleFlight[K, V]) Stats() Stats {
	return Stats{
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Evictions: c.evictions.Load(),
		Len:       c.Len(),
	}
}

func (c *SingleFlight[K, V]) evictLocked() []*sfEntry[K, V] {
	var evicted []*sfEntry[K, V]
	for c.lru.Len() > c.capacity {
		el := c.lru.Back()
		evicted = append(evicted, el.Value.(*sfEntry[K, V]))
		c.removeLocked(el)
	}
	return evicted
}

func (c *SingleFlight[K, V]) removeLocked(el *list.Element) {
	c.lru.Remove(el)
	delete(c.items, el.Value.(*sfEntry[K, V]).key)
	c.evictions.Add(1)
}

func (c *SingleFlight[K, V]) notify(evicted []*sfEntry[K, V]) {
	if c.onEvict == nil {
		return
	}
	for _, e := range evicted {
		c.onEvict(e.key, e.fut)
	}
}
