package eviction

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBoundsPolicyShouldEvict(t *testing.T) {
	p := NewBoundsPolicy()

	tests := []struct {
		name      string
		count     int
		memory    int64
		capacity  int
		maxMemory int64
		want      bool
	}{
		{"under both ceilings", 5, 100, 10, 1000, false},
		{"count at capacity", 10, 100, 10, 1000, true},
		{"count over capacity", 11, 100, 10, 1000, true},
		{"memory at ceiling", 5, 1000, 10, 1000, true},
		{"memory over ceiling", 5, 2000, 10, 1000, true},
		{"both at ceiling", 10, 1000, 10, 1000, true},
		{"empty cache under ceilings", 0, 0, 10, 1000, false},
		{"zero capacity always evicts", 0, 0, 0, 1000, true},
		{"one below capacity", 9, 999, 10, 1000, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := p.ShouldEvict(tt.count, tt.memory, tt.capacity, tt.maxMemory)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestReasonString(t *testing.T) {
	require.Equal(t, "replaced", Replaced.String())
	require.Equal(t, "removed", Removed.String())
	require.Equal(t, "cleared", Cleared.String())
	require.Equal(t, "capacity_exceeded", CapacityExceeded.String())
}
