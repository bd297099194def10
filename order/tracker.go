// Package order maintains the recency ordering of cache keys, independent of
// the key→entry map that owns the values.
package order

// node is one key's position in the recency list.
type node struct {
	key  string
	prev *node // toward the head (more recently used)
	next *node // toward the tail (less recently used)
}

// Tracker is a doubly-linked recency list with a key index. The head is the
// most-recently-used key, the tail the least-recently-used. Every tracked key
// has exactly one position.
//
// All operations are O(1). None of them fail: touching an unknown key inserts
// it, removing an unknown key is a no-op. Tracker is not safe for concurrent
// use; the owning store serializes access under its own lock.
type Tracker struct {
	nodes map[string]*node
	head  *node
	tail  *node
}

func NewTracker() *Tracker {
	return &Tracker{nodes: make(map[string]*node)}
}

// Touch marks key as most recently used: an already-tracked key moves to the
// head, an unknown key is inserted there.
func (t *Tracker) Touch(key string) {
	if n, ok := t.nodes[key]; ok {
		t.unlink(n)
		t.pushFront(n)
		return
	}
	n := &node{key: key}
	t.nodes[key] = n
	t.pushFront(n)
}

// Remove drops key from the order. Removing an untracked key is a no-op.
func (t *Tracker) Remove(key string) {
	n, ok := t.nodes[key]
	if !ok {
		return
	}
	t.unlink(n)
	delete(t.nodes, key)
}

// PeekTail returns the least-recently-used key without touching the order.
// ok is false when the tracker is empty.
func (t *Tracker) PeekTail() (key string, ok bool) {
	if t.tail == nil {
		return "", false
	}
	return t.tail.key, true
}

// Len returns the number of tracked keys.
func (t *Tracker) Len() int {
	return len(t.nodes)
}

// Clear drops every tracked key.
func (t *Tracker) Clear() {
	t.nodes = make(map[string]*node)
	t.head = nil
	t.tail = nil
}

// Keys returns the tracked keys ordered head to tail (MRU first).
func (t *Tracker) Keys() []string {
	keys := make([]string, 0, len(t.nodes))
	for n := t.head; n != nil; n = n.next {
		keys = append(keys, n.key)
	}
	return keys
}

func (t *Tracker) pushFront(n *node) {
	n.prev = nil
	n.next = t.head
	if t.head != nil {
		t.head.prev = n
	}
	t.head = n
	if t.tail == nil {
		t.tail = n
	}
}

// unlink detaches n from the list, fixing head and tail as needed. The node
// stays in the index; callers either re-push it or delete it.
func (t *Tracker) unlink(n *node) {
	if n.prev != nil {
		n.prev.next = n.next
	} else {
		t.head = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	} else {
		t.tail = n.prev
	}
	n.prev = nil
	n.next = nil
}
