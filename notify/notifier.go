// Package notify delivers reason-tagged eviction events to subscribers.
//
// The store never calls handlers while holding its lock: mutating operations
// buffer events inside the critical section and publish the buffer after the
// lock is released. A handler may therefore call back into the cache without
// deadlocking.
package notify

import (
	"sync"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/google/uuid"

	"github.com/fsbrowse/nodecache/eviction"
	"github.com/fsbrowse/nodecache/types"
)

// Event is one entry leaving the cache (or, for Replaced, its old value
// being superseded).
type Event struct {
	Key    string
	Node   *types.Node
	Reason eviction.Reason
}

// Handler receives eviction events. Handlers run synchronously on the
// goroutine that performed the mutation; keep them fast.
type Handler func(key string, node *types.Node, reason eviction.Reason)

// Notifier is a multicast registry of eviction handlers. A misbehaving
// handler must never corrupt or abort a cache mutation that has already
// committed, so panics raised by handlers are recovered and logged, never
// propagated.
type Notifier struct {
	mu       sync.RWMutex
	handlers map[uuid.UUID]Handler
	logger   log.Logger
}

func NewNotifier(logger log.Logger) *Notifier {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &Notifier{
		handlers: make(map[uuid.UUID]Handler),
		logger:   logger,
	}
}

// Subscribe registers a handler and returns the token that detaches it.
func (n *Notifier) Subscribe(h Handler) uuid.UUID {
	id := uuid.New()

	n.mu.Lock()
	n.handlers[id] = h
	n.mu.Unlock()

	return id
}

// Unsubscribe detaches the handler registered under id. Unknown tokens are
// ignored.
func (n *Notifier) Unsubscribe(id uuid.UUID) {
	n.mu.Lock()
	delete(n.handlers, id)
	n.mu.Unlock()
}

// DetachAll drops every handler. Called by the store during Close so that
// draining the cache fires into nobody.
func (n *Notifier) DetachAll() {
	n.mu.Lock()
	n.handlers = make(map[uuid.UUID]Handler)
	n.mu.Unlock()
}

// Len returns the number of registered handlers.
func (n *Notifier) Len() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.handlers)
}

// Publish delivers each event to every handler, in event order. Delivery is
// synchronous and happens outside the cache's lock.
func (n *Notifier) Publish(events []Event) {
	if len(events) == 0 {
		return
	}

	n.mu.RLock()
	handlers := make([]Handler, 0, len(n.handlers))
	for _, h := range n.handlers {
		handlers = append(handlers, h)
	}
	n.mu.RUnlock()

	for _, ev := range events {
		for _, h := range handlers {
			n.deliver(h, ev)
		}
	}
}

func (n *Notifier) deliver(h Handler, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			level.Error(n.logger).Log(
				"msg", "eviction handler panicked",
				"key", ev.Key,
				"reason", ev.Reason,
				"panic", r,
			)
		}
	}()
	h(ev.Key, ev.Node, ev.Reason)
}
