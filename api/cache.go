// Package api declares the public contract of the node cache, as consumed by
// the directory coordinator and the UI-facing layer. Implementation details
// (recency tracking, eviction policy, locking, read-through deduplication)
// stay behind this interface.
package api

import (
	"context"

	"github.com/google/uuid"

	"github.com/fsbrowse/nodecache/notify"
	"github.com/fsbrowse/nodecache/types"
)

// Cache is a bounded, concurrency-safe LRU cache of materialized file-tree
// nodes keyed by canonical path, case-insensitively.
//
// Absence is never an error: Get and Contains on an unknown or empty key
// simply report a miss, Remove on an unknown key returns false, and Set with
// an empty key or nil node is a no-op. Using a cache after Close is a
// programming error and fails fast.
type Cache interface {

	// Get returns the cached node for key and promotes it to
	// most-recently-used.
	Get(key string) (*types.Node, bool)

	// Set inserts or replaces the node for key, evicting from the
	// least-recently-used end first when either the entry-count or the
	// memory ceiling would otherwise be exceeded. Replacing an existing
	// key fires a Replaced event carrying the previous node.
	Set(key string, node *types.Node)

	// GetOrScan returns the cached node or materializes it through
	// scanner on a miss, deduplicating concurrent misses per key.
	GetOrScan(ctx context.Context, key string, scanner types.Scanner) (*types.Node, error)

	// Remove deletes key, reporting whether an entry existed.
	Remove(key string) bool

	// Contains reports whether key is cached without promoting it.
	Contains(key string) bool

	// Clear drops every entry, firing one Cleared event per entry.
	Clear()

	// RemoveWhere removes every entry matching pred and returns the
	// number removed. Used to invalidate a subtree after a rename, move
	// or delete.
	RemoveWhere(pred func(key string, node *types.Node) bool) int

	// TrimToPercentage sheds entries from the cold end until at most
	// pct percent of the current count remains. pct outside [0, 100] is
	// rejected, never clamped.
	TrimToPercentage(pct int) error

	// Resize re-estimates the footprint of key's node after an in-place
	// mutation, reporting whether the key was found.
	Resize(key string) bool

	// OnEvicted subscribes a handler to eviction events; the returned
	// token detaches it via Unsubscribe.
	OnEvicted(h notify.Handler) uuid.UUID
	Unsubscribe(id uuid.UUID)

	// Len returns the number of cached entries; MemoryUsage the
	// accumulated approximate footprint in bytes.
	Len() int
	MemoryUsage() int64

	// Close disposes the cache: subscribers are detached, entries are
	// drained without events, and all further use fails fast.
	Close()
}
