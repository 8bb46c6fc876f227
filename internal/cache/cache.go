// Package cache is an in-memory response cache with stale-while-revalidate
// semantics and optional write-through persistence.
//
// An entry moves through three phases:
//
//	fresh   now < StaleAfter              served, no upstream call
//	stale   StaleAfter <= now < EvictAfter served, one background refresh scheduled
//	evicted now >= EvictAfter             dropped, next read is a miss
package cache

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"
)

const defaultRefreshTimeout = 30 * time.Second

// Key identifies a cached response by operation and parameters.
type Key string

// NewKey builds a key from an operation name and its parameters, in order.
func NewKey(op string, params ...any) Key {
	if len(params) == 0 {
		return Key(op)
	}
	parts := make([]string, 0, len(params)+1)
	parts = append(parts, op)
	for _, p := range params {
		parts = append(parts, fmt.Sprint(p))
	}
	return Key(strings.Join(parts, ":"))
}

// NewSetKey builds a key whose parameters form a set: order and duplicates
// do not change the key.
func NewSetKey(op string, params ...string) Key {
	set := make([]string, 0, len(params))
	seen := make(map[string]struct{}, len(params))
	for _, p := range params {
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		set = append(set, p)
	}
	sort.Strings(set)

	args := make([]any, len(set))
	for i, p := range set {
		args[i] = p
	}
	return NewKey(op, args...)
}

// Policy controls how long an entry stays fresh and how long it is retained.
type Policy struct {
	Name       string
	StaleAfter time.Duration
	EvictAfter time.Duration
}

// Default policies. Volatile covers entity and list reads; Reference covers
// slow-moving data such as type tables, species and evolution chains.
var (
	Volatile  = Policy{Name: "volatile", StaleAfter: 5 * time.Minute, EvictAfter: 24 * time.Hour}
	Reference = Policy{Name: "reference", StaleAfter: 10 * time.Minute, EvictAfter: 24 * time.Hour}
)

// State is the freshness of a looked-up key.
type State int

const (
	Miss State = iota
	Fresh
	Stale
)

func (s State) String() string {
	switch s {
	case Fresh:
		return "fresh"
	case Stale:
		return "stale"
	default:
		return "miss"
	}
}

// Entry is one cached response.
type Entry struct {
	Key        Key       `json:"key"`
	Value      []byte    `json:"value"`
	CreatedAt  time.Time `json:"created_at"`
	StaleAfter time.Time `json:"stale_after"`
	EvictAfter time.Time `json:"evict_after"`
}

func (e *Entry) state(now time.Time) State {
	switch {
	case !now.Before(e.EvictAfter):
		return Miss
	case now.Before(e.StaleAfter):
		return Fresh
	default:
		return Stale
	}
}

// Persister stores entries across process restarts.
type Persister interface {
	LoadEntries() ([]Entry, error)
	SaveEntry(e Entry) error
	DeleteEntry(key Key) error
}

// Stats is a snapshot of cache counters.
type Stats struct {
	Entries   int   `json:"entries"`
	Hits      int64 `json:"hits"`
	StaleHits int64 `json:"stale_hits"`
	Misses    int64 `json:"misses"`
	Refreshes int64 `json:"refreshes"`
	Evictions int64 `json:"evictions"`
}

// FetchFunc produces the value for a key from upstream.
type FetchFunc func(ctx context.Context) ([]byte, error)

// Options configures a Cache.
type Options struct {
	Persister      Persister
	Logger         *slog.Logger
	Now            func() time.Time
	RefreshTimeout time.Duration
	// SweepInterval enables a janitor that drops evicted entries. Zero disables it.
	SweepInterval time.Duration
}

// Cache is safe for concurrent use.
type Cache struct {
	mu         sync.RWMutex
	entries    map[Key]*Entry
	refreshing map[Key]struct{}
	closed     bool

	group singleflight.Group
	wg    sync.WaitGroup
	done  chan struct{}

	persister      Persister
	logger         *slog.Logger
	now            func() time.Time
	refreshTimeout time.Duration

	hits, staleHits, misses, refreshes, evictions atomic.Int64
}

// New creates a cache. When opts.Persister is set, retained entries are
// restored from it; a restore failure is logged and the cache starts cold.
func New(opts Options) *Cache {
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.RefreshTimeout <= 0 {
		opts.RefreshTimeout = defaultRefreshTimeout
	}

	c := &Cache{
		entries:        make(map[Key]*Entry),
		refreshing:     make(map[Key]struct{}),
		done:           make(chan struct{}),
		persister:      opts.Persister,
		logger:         opts.Logger,
		now:            opts.Now,
		refreshTimeout: opts.RefreshTimeout,
	}

	if c.persister != nil {
		c.restore()
	}

	if opts.SweepInterval > 0 {
		c.wg.Add(1)
		go c.sweepLoop(opts.SweepInterval)
	}

	return c
}

func (c *Cache) restore() {
	entries, err := c.persister.LoadEntries()
	if err != nil {
		c.logger.Warn("failed to restore cache, starting cold", "error", err)
		return
	}

	now := c.now()
	restored := 0
	for i := range entries {
		e := entries[i]
		if e.state(now) == Miss {
			continue
		}
		c.entries[e.Key] = &e
		restored++
	}
	c.logger.Info("cache restored", "entries", restored, "skipped", len(entries)-restored)
}

// Get returns the cached value for key and its state. Evicted entries are
// removed and reported as a Miss.
func (c *Cache) Get(key Key) ([]byte, State) {
	value, state := c.lookup(key)
	switch state {
	case Fresh:
		c.hits.Add(1)
	case Stale:
		c.staleHits.Add(1)
	default:
		c.misses.Add(1)
	}
	return value, state
}

func (c *Cache) lookup(key Key) ([]byte, State) {
	now := c.now()

	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, Miss
	}

	state := e.state(now)
	if state == Miss {
		c.evict(key, e)
		return nil, Miss
	}
	return e.Value, state
}

func (c *Cache) evict(key Key, e *Entry) {
	c.mu.Lock()
	current, ok := c.entries[key]
	if !ok || current != e {
		c.mu.Unlock()
		return
	}
	delete(c.entries, key)
	c.mu.Unlock()

	c.evictions.Add(1)
	if c.persister != nil {
		if err := c.persister.DeleteEntry(key); err != nil {
			c.logger.Warn("failed to delete persisted entry", "key", key, "error", err)
		}
	}
}

// Set stores value under key with the given policy, replacing any entry.
func (c *Cache) Set(key Key, value []byte, policy Policy) {
	now := c.now()
	e := &Entry{
		Key:        key,
		Value:      value,
		CreatedAt:  now,
		StaleAfter: now.Add(policy.StaleAfter),
		EvictAfter: now.Add(policy.EvictAfter),
	}

	c.mu.Lock()
	c.entries[key] = e
	c.mu.Unlock()

	if c.persister != nil {
		if err := c.persister.SaveEntry(*e); err != nil {
			c.logger.Warn("failed to persist cache entry", "key", key, "error", err)
		}
	}
}

// Fetch returns the value for key, calling fn only when needed.
//
// A fresh entry is returned without calling fn. A stale entry is returned
// immediately and one background refresh per key is started. On a miss,
// concurrent callers for the same key share a single fn call.
func (c *Cache) Fetch(ctx context.Context, key Key, policy Policy, fn FetchFunc) ([]byte, error) {
	value, state := c.Get(key)
	switch state {
	case Fresh:
		c.logger.Debug("cache hit", "key", key)
		return value, nil
	case Stale:
		c.logger.Debug("cache stale hit", "key", key)
		c.refresh(ctx, key, policy, fn)
		return value, nil
	}

	c.logger.Debug("cache miss", "key", key)
	v, err, _ := c.group.Do(string(key), func() (any, error) {
		// Another caller may have filled the entry while we queued.
		if value, state := c.lookup(key); state != Miss {
			return value, nil
		}
		b, err := fn(ctx)
		if err != nil {
			return nil, err
		}
		c.Set(key, b, policy)
		return b, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

// refresh re-fetches key in the background. The refresh is detached from
// ctx cancellation and keeps the stale entry if it fails.
func (c *Cache) refresh(ctx context.Context, key Key, policy Policy, fn FetchFunc) {
	c.mu.Lock()
	if _, busy := c.refreshing[key]; busy || c.closed {
		c.mu.Unlock()
		return
	}
	c.refreshing[key] = struct{}{}
	c.wg.Add(1)
	c.mu.Unlock()

	c.refreshes.Add(1)

	go func() {
		defer c.wg.Done()
		defer func() {
			c.mu.Lock()
			delete(c.refreshing, key)
			c.mu.Unlock()
		}()

		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.refreshTimeout)
		defer cancel()

		b, err := fn(rctx)
		if err != nil {
			c.logger.Warn("background refresh failed, keeping stale entry", "key", key, "error", err)
			return
		}
		c.Set(key, b, policy)
		c.logger.Debug("cache refreshed", "key", key)
	}()
}

// Refreshing reports whether a background refresh for key is in flight.
func (c *Cache) Refreshing(key Key) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.refreshing[key]
	return ok
}

// Sweep drops every evicted entry and returns how many were removed.
func (c *Cache) Sweep() int {
	now := c.now()

	c.mu.RLock()
	var expired []*Entry
	for _, e := range c.entries {
		if e.state(now) == Miss {
			expired = append(expired, e)
		}
	}
	c.mu.RUnlock()

	for _, e := range expired {
		c.evict(e.Key, e)
	}
	return len(expired)
}

func (c *Cache) sweepLoop(interval time.Duration) {
	defer c.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n := c.Sweep(); n > 0 {
				c.logger.Debug("cache sweep", "evicted", n)
			}
		case <-c.done:
			return
		}
	}
}

// Len returns the number of retained entries, including stale ones.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Stats returns a snapshot of the cache counters.
func (c *Cache) Stats() Stats {
	return Stats{
		Entries:   c.Len(),
		Hits:      c.hits.Load(),
		StaleHits: c.staleHits.Load(),
		Misses:    c.misses.Load(),
		Refreshes: c.refreshes.Load(),
		Evictions: c.evictions.Load(),
	}
}

// Close stops new background refreshes and waits for running ones.
func (c *Cache) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.done)
	c.mu.Unlock()

	c.wg.Wait()
}
