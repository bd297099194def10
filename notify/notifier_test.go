package notify

import (
	"testing"

	"github.com/go-kit/log"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/fsbrowse/nodecache/eviction"
	"github.com/fsbrowse/nodecache/types"
)

func TestPublishDeliversToAllSubscribers(t *testing.T) {
	n := NewNotifier(log.NewNopLogger())

	var first, second []Event
	n.Subscribe(func(key string, node *types.Node, reason eviction.Reason) {
		first = append(first, Event{key, node, reason})
	})
	n.Subscribe(func(key string, node *types.Node, reason eviction.Reason) {
		second = append(second, Event{key, node, reason})
	})

	node := &types.Node{Name: "a", Path: "/a"}
	n.Publish([]Event{
		{Key: "/a", Node: node, Reason: eviction.CapacityExceeded},
		{Key: "/b", Node: nil, Reason: eviction.Removed},
	})

	require.Len(t, first, 2)
	require.Len(t, second, 2)
	require.Equal(t, "/a", first[0].Key)
	require.Same(t, node, first[0].Node)
	require.Equal(t, eviction.CapacityExceeded, first[0].Reason)
	require.Equal(t, eviction.Removed, first[1].Reason)
}

func TestPublishEmptyIsNoop(t *testing.T) {
	n := NewNotifier(nil)

	called := false
	n.Subscribe(func(string, *types.Node, eviction.Reason) { called = true })

	n.Publish(nil)
	n.Publish([]Event{})

	require.False(t, called)
}

func TestUnsubscribe(t *testing.T) {
	n := NewNotifier(nil)

	calls := 0
	id := n.Subscribe(func(string, *types.Node, eviction.Reason) { calls++ })
	require.Equal(t, 1, n.Len())

	n.Publish([]Event{{Key: "/a", Reason: eviction.Removed}})
	require.Equal(t, 1, calls)

	n.Unsubscribe(id)
	require.Zero(t, n.Len())

	n.Publish([]Event{{Key: "/b", Reason: eviction.Removed}})
	require.Equal(t, 1, calls)
}

func TestUnsubscribeUnknownTokenIsNoop(t *testing.T) {
	n := NewNotifier(nil)
	n.Subscribe(func(string, *types.Node, eviction.Reason) {})

	n.Unsubscribe(uuid.New())

	require.Equal(t, 1, n.Len())
}

func TestDetachAll(t *testing.T) {
	n := NewNotifier(nil)

	calls := 0
	n.Subscribe(func(string, *types.Node, eviction.Reason) { calls++ })
	n.Subscribe(func(string, *types.Node, eviction.Reason) { calls++ })

	n.DetachAll()
	require.Zero(t, n.Len())

	n.Publish([]Event{{Key: "/a", Reason: eviction.Cleared}})
	require.Zero(t, calls)
}

func TestHandlerPanicIsRecovered(t *testing.T) {
	n := NewNotifier(log.NewNopLogger())

	survived := 0
	n.Subscribe(func(string, *types.Node, eviction.Reason) {
		panic("misbehaving observer")
	})
	n.Subscribe(func(string, *types.Node, eviction.Reason) { survived++ })

	require.NotPanics(t, func() {
		n.Publish([]Event{
			{Key: "/a", Reason: eviction.CapacityExceeded},
			{Key: "/b", Reason: eviction.CapacityExceeded},
		})
	})

	// The well-behaved subscriber still saw every event.
	require.Equal(t, 2, survived)
}
