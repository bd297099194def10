package types

import "time"

// Entry is the cache's record for one key. Entry is intentionally mutable:
// the store refreshes LastAccessedAt in place under its write lock.
type Entry struct {
	// Key keeps the caller's original spelling. Lookup identity is
	// case-insensitive; the store folds keys separately.
	Key string

	Node *Node

	LastAccessedAt time.Time

	// EstimatedSize is computed by the size estimator when the entry is
	// inserted or replaced. It is NOT recomputed when the caller mutates
	// the node in place; collaborators report such changes via Resize.
	EstimatedSize int64
}
