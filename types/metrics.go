package types

// Metrics is the set of events the cache wants measured. The store calls
// these on its own goroutine, under no lock guarantees; implementations must
// be safe for concurrent use.
type Metrics interface {

	// Hit is called when Get returns a cached node.
	Hit()

	// Miss is called when Get finds nothing for the key.
	Miss()

	// Eviction is called once per entry removed to satisfy the capacity
	// or memory ceiling, including trim victims.
	Eviction()

	// Removal is called once per entry removed explicitly (Remove,
	// RemoveWhere, Clear).
	Removal()
}

// NoopMetrics is the default Metrics implementation. It lets the store call
// metrics unconditionally instead of nil-checking on every hot-path event.
type NoopMetrics struct{}

func (NoopMetrics) Hit()      {}
func (NoopMetrics) Miss()     {}
func (NoopMetrics) Eviction() {}
func (NoopMetrics) Removal()  {}
