// Package eviction decides when the cache must shrink, and tags why an entry
// left the cache.
package eviction

// Reason describes why an entry left the cache. It travels with every
// eviction event so subscribers can distinguish capacity pressure from
// administrative removal.
type Reason string

const (
	// Replaced: Set on an existing key; the event carries the old node.
	Replaced Reason = "replaced"

	// Removed: explicit Remove or RemoveWhere.
	Removed Reason = "removed"

	// Cleared: Clear dropped the whole cache.
	Cleared Reason = "cleared"

	// CapacityExceeded: the entry was the least-recently-used victim of
	// the capacity/memory ceiling, including percentage trims.
	CapacityExceeded Reason = "capacity_exceeded"
)

func (r Reason) String() string { return string(r) }

// Policy decides, given the cache's current occupancy against its configured
// ceilings, whether an eviction must happen before an insert may proceed.
//
// The store evaluates the policy in a loop before inserting a NEW key, never
// when overwriting an existing one (an overwrite's size delta may net out).
// The loop stops when the policy is satisfied or the cache is empty, so a
// pathologically small ceiling cannot loop forever.
type Policy interface {
	ShouldEvict(count int, memory int64, capacity int, maxMemory int64) bool
}

// BoundsPolicy is the default Policy: evict while either the entry count or
// the accumulated approximate memory has reached its ceiling. It is pure and
// stateless; recency itself lives in the order tracker, not here.
type BoundsPolicy struct{}

func NewBoundsPolicy() BoundsPolicy { return BoundsPolicy{} }

func (BoundsPolicy) ShouldEvict(count int, memory int64, capacity int, maxMemory int64) bool {
	return count >= capacity || memory >= maxMemory
}
