// Package nodecache is a bounded, concurrently-accessed LRU cache for
// materialized file-tree nodes, keyed by canonical path.
//
// The cache exists so a browser pane does not re-scan and re-build the
// filesystem tree on every navigation, expansion or refresh. It is bounded
// two ways at once: by entry count and by an approximate memory footprint.
// When either ceiling is reached, the least-recently-used entry is evicted
// before a new one is inserted.
//
// Keys compare ordinal case-insensitively, matching the filesystem this
// targets. Values are opaque to the cache; only the size estimator reads
// node fields.
package nodecache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-kit/log"
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/fsbrowse/nodecache/eviction"
	"github.com/fsbrowse/nodecache/notify"
	"github.com/fsbrowse/nodecache/order"
	"github.com/fsbrowse/nodecache/sizing"
	"github.com/fsbrowse/nodecache/types"
)

var (
	// ErrClosed reports use of a cache after Close. Operations whose
	// signature carries no error panic with this value instead: using a
	// disposed cache is a programming error in the collaborator, never
	// silently absorbed.
	ErrClosed = errors.New("nodecache: cache is closed")

	// ErrInvalidCapacity reports a non-positive entry-count ceiling.
	ErrInvalidCapacity = errors.New("nodecache: capacity must be positive")

	// ErrInvalidMemoryLimit reports a non-positive memory ceiling.
	ErrInvalidMemoryLimit = errors.New("nodecache: memory limit must be positive")

	// ErrInvalidPercentage reports a TrimToPercentage argument outside
	// [0, 100]. The argument is never clamped.
	ErrInvalidPercentage = errors.New("nodecache: percentage must be between 0 and 100")

	// ErrNilScanner reports a GetOrScan call without a scanner.
	ErrNilScanner = errors.New("nodecache: scanner must not be nil")
)

// Cache is the store orchestrator. It owns the key→entry map and the recency
// tracker, applies the eviction policy, and owns the concurrency discipline:
// one non-reentrant reader/writer lock guards all mutable state, so the map,
// the order and the running memory total are only ever mutated together.
//
// Eviction events are buffered inside the critical section and published
// after the lock is released; handlers may call back into the cache.
type Cache struct {
	mu sync.RWMutex

	// entries and tracker are keyed by the case-folded key. Both always
	// hold the same key set; entries retain the caller's spelling.
	entries map[string]*types.Entry
	tracker *order.Tracker

	totalMemory int64
	closed      bool

	capacity  int
	maxMemory int64

	policy   eviction.Policy
	notifier *notify.Notifier
	metrics  types.Metrics
	logger   log.Logger

	// scans deduplicates concurrent read-through misses per folded key.
	scans singleflight.Group
}

// Option configures optional collaborators at construction.
type Option func(*Cache)

// WithLogger sets the logger used for recovered handler panics.
func WithLogger(logger log.Logger) Option {
	return func(c *Cache) { c.logger = logger }
}

// WithMetrics sets the metrics sink. Defaults to NoopMetrics.
func WithMetrics(m types.Metrics) Option {
	return func(c *Cache) { c.metrics = m }
}

// WithPolicy replaces the default bounds policy.
func WithPolicy(p eviction.Policy) Option {
	return func(c *Cache) { c.policy = p }
}

// New creates a cache bounded by capacity entries and maxMemoryMB megabytes
// of approximate footprint. Both bounds must be positive; invalid arguments
// fail construction immediately.
func New(capacity, maxMemoryMB int, opts ...Option) (*Cache, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("%w, got %d", ErrInvalidCapacity, capacity)
	}
	if maxMemoryMB <= 0 {
		return nil, fmt.Errorf("%w, got %d MB", ErrInvalidMemoryLimit, maxMemoryMB)
	}

	c := &Cache{
		entries:   make(map[string]*types.Entry),
		tracker:   order.NewTracker(),
		capacity:  capacity,
		maxMemory: int64(maxMemoryMB) * 1024 * 1024,
		policy:    eviction.NewBoundsPolicy(),
		metrics:   types.NoopMetrics{},
		logger:    log.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.notifier = notify.NewNotifier(c.logger)

	return c, nil
}

// MustNew is New, panicking on invalid arguments. For wiring code whose
// bounds are compile-time constants.
func MustNew(capacity, maxMemoryMB int, opts ...Option) *Cache {
	c, err := New(capacity, maxMemoryMB, opts...)
	if err != nil {
		panic(err)
	}
	return c
}

// foldKey gives the case-insensitive identity of a key.
func foldKey(key string) string {
	return strings.ToLower(key)
}

// Get returns the cached node for key. An empty key is a guaranteed miss.
//
// The read phase runs under the shared lock, so concurrent Gets on distinct
// keys do not serialize against each other; only the recency promotion on a
// hit takes the exclusive lock briefly.
func (c *Cache) Get(key string) (*types.Node, bool) {
	if key == "" {
		c.metrics.Miss()
		return nil, false
	}
	fk := foldKey(key)

	c.mu.RLock()
	if c.closed {
		c.mu.RUnlock()
		panic(ErrClosed)
	}
	_, found := c.entries[fk]
	c.mu.RUnlock()

	if !found {
		c.metrics.Miss()
		return nil, false
	}

	c.mu.Lock()
	// Re-check: the entry may have been evicted between the two locks.
	ent, ok := c.entries[fk]
	if !ok {
		c.mu.Unlock()
		c.metrics.Miss()
		return nil, false
	}
	c.tracker.Touch(fk)
	ent.LastAccessedAt = time.Now()
	node := ent.Node
	c.mu.Unlock()

	c.metrics.Hit()
	return node, true
}

// Set inserts or replaces the node for key. An empty key or nil node is a
// no-op.
//
// Inserting a new key first evicts from the recency tail until the bounds
// policy is satisfied, so both ceilings hold when Set returns. Overwriting
// an existing key skips the eviction loop (the size delta may net out),
// promotes the key and fires one Replaced event carrying the old node.
// A single node whose estimate alone exceeds the memory ceiling is still
// inserted after everything else has been evicted: the policy prevents
// growth, not single-entry overflow.
func (c *Cache) Set(key string, node *types.Node) {
	if key == "" || node == nil {
		return
	}
	fk := foldKey(key)
	size := sizing.Estimate(node)
	now := time.Now()

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		panic(ErrClosed)
	}

	if ent, ok := c.entries[fk]; ok {
		old := ent.Node
		c.totalMemory += size - ent.EstimatedSize
		ent.Key = key
		ent.Node = node
		ent.EstimatedSize = size
		ent.LastAccessedAt = now
		c.tracker.Touch(fk)
		c.mu.Unlock()

		c.notifier.Publish([]notify.Event{{Key: key, Node: old, Reason: eviction.Replaced}})
		return
	}

	// The incoming estimate counts toward the memory check so the ceiling
	// still holds once the entry is in. Count is checked as-is: evicting
	// down to capacity-1 leaves room for exactly this insert.
	var evicted []notify.Event
	for c.policy.ShouldEvict(len(c.entries), c.totalMemory+size, c.capacity, c.maxMemory) {
		victim, ok := c.tracker.PeekTail()
		if !ok {
			break
		}
		evicted = append(evicted, c.deleteLocked(victim, eviction.CapacityExceeded))
		c.metrics.Eviction()
	}

	c.entries[fk] = &types.Entry{
		Key:            key,
		Node:           node,
		LastAccessedAt: now,
		EstimatedSize:  size,
	}
	c.tracker.Touch(fk)
	c.totalMemory += size
	c.mu.Unlock()

	c.notifier.Publish(evicted)
}

// Remove deletes key from the cache. It reports whether an entry was
// removed; removing an absent key changes nothing and returns false.
func (c *Cache) Remove(key string) bool {
	if key == "" {
		return false
	}
	fk := foldKey(key)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		panic(ErrClosed)
	}
	if _, ok := c.entries[fk]; !ok {
		c.mu.Unlock()
		return false
	}
	ev := c.deleteLocked(fk, eviction.Removed)
	c.metrics.Removal()
	c.mu.Unlock()

	c.notifier.Publish([]notify.Event{ev})
	return true
}

// Contains reports whether key is cached. Unlike Get it does not promote
// the key, so probing never perturbs the recency order.
func (c *Cache) Contains(key string) bool {
	if key == "" {
		return false
	}
	fk := foldKey(key)

	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		panic(ErrClosed)
	}
	_, ok := c.entries[fk]
	return ok
}

// Clear drops every entry, firing one Cleared event per entry. The snapshot
// is taken before the state is reset, so handlers observe the entries that
// actually existed, delivered after the lock is released.
func (c *Cache) Clear() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		panic(ErrClosed)
	}

	events := make([]notify.Event, 0, len(c.entries))
	for _, ent := range c.entries {
		events = append(events, notify.Event{Key: ent.Key, Node: ent.Node, Reason: eviction.Cleared})
		c.metrics.Removal()
	}
	c.entries = make(map[string]*types.Entry)
	c.tracker.Clear()
	c.totalMemory = 0
	c.mu.Unlock()

	c.notifier.Publish(events)
}

// RemoveWhere removes every entry matching pred and returns how many were
// removed. The predicate sees the caller's original key spelling and the
// live node; each removal fires a Removed event.
//
// The directory coordinator uses this with PathPrefixPredicate to invalidate
// a whole subtree after a rename, move or delete.
func (c *Cache) RemoveWhere(pred func(key string, node *types.Node) bool) int {
	if pred == nil {
		return 0
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		panic(ErrClosed)
	}

	var matched []string
	for fk, ent := range c.entries {
		if pred(ent.Key, ent.Node) {
			matched = append(matched, fk)
		}
	}
	events := make([]notify.Event, 0, len(matched))
	for _, fk := range matched {
		events = append(events, c.deleteLocked(fk, eviction.Removed))
		c.metrics.Removal()
	}
	c.mu.Unlock()

	c.notifier.Publish(events)
	return len(events)
}

// TrimToPercentage evicts cold entries from the recency tail until at most
// floor(len*pct/100) remain. Victims fire CapacityExceeded events. A pct
// outside [0, 100] is a contract violation and is reported, never clamped.
//
// Callers use this to shed memory opportunistically under outside pressure
// signals.
func (c *Cache) TrimToPercentage(pct int) error {
	if pct < 0 || pct > 100 {
		return fmt.Errorf("%w, got %d", ErrInvalidPercentage, pct)
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}

	target := len(c.entries) * pct / 100
	var events []notify.Event
	for len(c.entries) > target {
		victim, ok := c.tracker.PeekTail()
		if !ok {
			break
		}
		events = append(events, c.deleteLocked(victim, eviction.CapacityExceeded))
		c.metrics.Eviction()
	}
	c.mu.Unlock()

	c.notifier.Publish(events)
	return nil
}

// Resize re-runs the size estimator for key's current node and adjusts the
// memory total by the delta. It reports whether the key was found.
//
// The cache computes an entry's footprint once, at insertion. A collaborator
// that mutates a cached node in place afterwards (say, materializing the
// children of an expanded directory) calls Resize so the accounting catches
// up. Resize is bookkeeping, not an access: it does not promote the key. Any
// resulting overshoot of the memory ceiling is shed by the next insert.
func (c *Cache) Resize(key string) bool {
	if key == "" {
		return false
	}
	fk := foldKey(key)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		panic(ErrClosed)
	}

	ent, ok := c.entries[fk]
	if !ok {
		return false
	}
	size := sizing.Estimate(ent.Node)
	c.totalMemory += size - ent.EstimatedSize
	ent.EstimatedSize = size
	return true
}

// GetOrScan returns the cached node for key, or asks scanner to materialize
// it on a miss and caches the result. Concurrent misses for the same key are
// deduplicated: the path is scanned once and every caller receives the same
// node. A scanner returning (nil, nil) is treated as a miss and cached
// nothing.
func (c *Cache) GetOrScan(ctx context.Context, key string, scanner types.Scanner) (*types.Node, error) {
	if scanner == nil {
		return nil, ErrNilScanner
	}
	if key == "" {
		return nil, nil
	}
	if c.isClosed() {
		return nil, ErrClosed
	}

	if node, ok := c.Get(key); ok {
		return node, nil
	}

	v, err, _ := c.scans.Do(foldKey(key), func() (any, error) {
		// A racing flight may have filled the entry already.
		if node, ok := c.Get(key); ok {
			return node, nil
		}
		node, err := scanner.Scan(ctx, key)
		if err != nil {
			return nil, err
		}
		if node != nil {
			c.Set(key, node)
		}
		return node, nil
	})
	if err != nil {
		return nil, err
	}
	node, _ := v.(*types.Node)
	return node, nil
}

// OnEvicted subscribes h to eviction events and returns the token that
// detaches it again via Unsubscribe. Handlers run synchronously on the
// mutating goroutine, after the cache lock has been released; a handler may
// call back into the cache.
func (c *Cache) OnEvicted(h notify.Handler) uuid.UUID {
	return c.notifier.Subscribe(h)
}

// Unsubscribe detaches the handler registered under id.
func (c *Cache) Unsubscribe(id uuid.UUID) {
	c.notifier.Unsubscribe(id)
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// MemoryUsage returns the accumulated approximate footprint in bytes.
func (c *Cache) MemoryUsage() int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.totalMemory
}

// Capacity returns the configured entry-count ceiling.
func (c *Cache) Capacity() int { return c.capacity }

// MaxMemoryBytes returns the configured memory ceiling in bytes.
func (c *Cache) MaxMemoryBytes() int64 { return c.maxMemory }

// Keys returns the cached keys ordered most- to least-recently used, in the
// caller's original spelling. Diagnostic; the snapshot is stale the moment
// it returns.
func (c *Cache) Keys() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	folded := c.tracker.Keys()
	keys := make([]string, 0, len(folded))
	for _, fk := range folded {
		if ent, ok := c.entries[fk]; ok {
			keys = append(keys, ent.Key)
		}
	}
	return keys
}

// Stats is a point-in-time snapshot of the cache's occupancy.
type Stats struct {
	Len            int
	Capacity       int
	MemoryUsage    int64
	MaxMemoryBytes int64
}

// Stats returns the current occupancy snapshot.
func (c *Cache) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Stats{
		Len:            len(c.entries),
		Capacity:       c.capacity,
		MemoryUsage:    c.totalMemory,
		MaxMemoryBytes: c.maxMemory,
	}
}

// Close transitions the cache from live to disposed. Subscribers are
// detached first, then every entry is drained without firing events, so
// disposal never notifies into a torn-down observer. Close is idempotent;
// every other operation on a closed cache fails fast.
func (c *Cache) Close() {
	c.notifier.DetachAll()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.entries = make(map[string]*types.Entry)
	c.tracker.Clear()
	c.totalMemory = 0
	c.closed = true
}

func (c *Cache) isClosed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.closed
}

// deleteLocked removes the entry for folded key fk from the map, the order
// and the memory total, atomically with respect to the held write lock, and
// returns the event describing the departure. fk must exist.
func (c *Cache) deleteLocked(fk string, reason eviction.Reason) notify.Event {
	ent := c.entries[fk]
	delete(c.entries, fk)
	c.tracker.Remove(fk)
	c.totalMemory -= ent.EstimatedSize
	return notify.Event{Key: ent.Key, Node: ent.Node, Reason: reason}
}

// PathPrefixPredicate returns a RemoveWhere predicate matching every key
// whose path starts with prefix, compared case-insensitively. This is the
// subtree-invalidation predicate used after a rename, move or delete.
func PathPrefixPredicate(prefix string) func(key string, node *types.Node) bool {
	folded := foldKey(prefix)
	return func(key string, _ *types.Node) bool {
		return strings.HasPrefix(foldKey(key), folded)
	}
}
