// Package cache provides the shared request gating and memoization used by the external lookups.
package cache

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/codeGROOVE-dev/sfcache"
)

// DefaultTTL is how long memoized external lookups stay fresh.
const DefaultTTL = time.Hour

// Stats holds cache hit/miss statistics.
type Stats struct {
	Hits   int64
	Misses int64
}

// HitRate returns the cache hit rate as a percentage (0-100).
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total) * 100
}

type entry[V any] struct {
	storedAt time.Time
	value    V
}

// Memo memoizes the results of expensive lookups by key.
// An entry is stale once now-storedAt reaches the TTL; a TTL <= 0 never expires.
// Concurrent misses for the same key share a single fetch.
type Memo[V any] struct {
	store  memoStore[V]
	now    func() time.Time
	logger *slog.Logger
	ttl    time.Duration
	hits   atomic.Int64
	misses atomic.Int64
}

// memoStore is the part of the sfcache memory cache a Memo uses.
type memoStore[V any] struct {
	get    func(string) (entry[V], bool)
	set    func(string, entry[V])
	del    func(string)
	getSet func(string, func() (entry[V], error)) (entry[V], error)
	flush  func()
}

func newMemoStore[V any]() memoStore[V] {
	c := sfcache.New[string, entry[V]]()
	return memoStore[V]{
		get: func(k string) (entry[V], bool) { return c.Get(k) },
		set: func(k string, e entry[V]) { c.Set(k, e) },
		del: func(k string) { c.Delete(k) },
		getSet: func(k string, load func() (entry[V], error)) (entry[V], error) {
			return c.GetSet(k, load)
		},
		flush: func() { c.Flush() },
	}
}

// MemoOption configures a Memo.
type MemoOption func(*memoConfig)

type memoConfig struct {
	now    func() time.Time
	logger *slog.Logger
}

// WithClock overrides the time source used for staleness checks.
func WithClock(now func() time.Time) MemoOption {
	return func(c *memoConfig) { c.now = now }
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) MemoOption {
	return func(c *memoConfig) { c.logger = logger }
}

// NewMemo creates an empty in-memory Memo.
func NewMemo[V any](ttl time.Duration, opts ...MemoOption) *Memo[V] {
	cfg := &memoConfig{now: time.Now, logger: slog.Default()}
	for _, opt := range opts {
		opt(cfg)
	}
	return &Memo[V]{
		store:  newMemoStore[V](),
		ttl:    ttl,
		now:    cfg.now,
		logger: cfg.logger,
	}
}

func (m *Memo[V]) fresh(e entry[V]) bool {
	return m.ttl <= 0 || m.now().Sub(e.storedAt) < m.ttl
}

// Peek returns the fresh cached value for key without fetching.
func (m *Memo[V]) Peek(key string) (V, bool) {
	e, ok := m.store.get(key)
	if !ok || !m.fresh(e) {
		var zero V
		return zero, false
	}
	return e.value, true
}

// Store records value for key, replacing any existing entry.
func (m *Memo[V]) Store(key string, value V) {
	m.store.set(key, entry[V]{value: value, storedAt: m.now()})
}

// Get returns the fresh cached value for key, or calls fetch and caches its result.
// Errors from fetch are returned and nothing is cached.
func (m *Memo[V]) Get(ctx context.Context, key string, fetch func(context.Context) (V, error)) (V, error) {
	if e, ok := m.store.get(key); ok {
		if m.fresh(e) {
			m.hits.Add(1)
			m.logger.DebugContext(ctx, "cache hit", "key", key)
			return e.value, nil
		}
		m.store.del(key)
	}

	e, err := m.store.getSet(key, func() (entry[V], error) {
		m.misses.Add(1)
		m.logger.DebugContext(ctx, "cache miss", "key", key)
		v, err := fetch(ctx)
		if err != nil {
			return entry[V]{}, err
		}
		return entry[V]{value: v, storedAt: m.now()}, nil
	})
	if err != nil {
		var zero V
		return zero, err
	}
	return e.value, nil
}

// Clear drops every entry.
func (m *Memo[V]) Clear() {
	m.store.flush()
}

// Stats returns hit/miss counters since construction.
func (m *Memo[V]) Stats() Stats {
	return Stats{Hits: m.hits.Load(), Misses: m.misses.Load()}
}
