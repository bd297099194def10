// Package sizing estimates the in-memory footprint of a cached tree node.
//
// The estimate is deliberately approximate. Its only job is to exert
// *relative* pressure on the cache's memory ceiling: a node with longer
// strings or more children must always weigh at least as much as a smaller
// one. Nobody should read these numbers as real allocator bytes.
package sizing

import "github.com/fsbrowse/nodecache/types"

const (
	// baseOverheadBytes covers the entry record, map slot and order-list
	// node that every cached key pays for regardless of content.
	baseOverheadBytes = 96

	// bytesPerChar weighs the node's display strings. Paths on the target
	// filesystem are compared case-insensitively and mostly fit in the
	// basic plane, so two bytes per character is close enough.
	bytesPerChar = 2

	// childPointerBytes is the cost attributed to each materialized child:
	// one pointer slot in the parent's slice.
	childPointerBytes = 8
)

// Estimate returns the approximate byte footprint of a node. It is pure,
// never fails, and returns baseOverheadBytes for a nil node.
func Estimate(n *types.Node) int64 {
	size := int64(baseOverheadBytes)
	if n == nil {
		return size
	}

	chars := len(n.Name) + len(n.Path) + len(n.TypeLabel)
	size += int64(chars) * bytesPerChar
	size += int64(len(n.Children)) * childPointerBytes

	return size
}
