package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestCountersIncrement(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.Hit()
	m.Hit()
	m.Miss()
	m.Eviction()
	m.Removal()
	m.Removal()
	m.Removal()

	require.Equal(t, 2.0, testutil.ToFloat64(m.hits))
	require.Equal(t, 1.0, testutil.ToFloat64(m.misses))
	require.Equal(t, 1.0, testutil.ToFloat64(m.evictions))
	require.Equal(t, 3.0, testutil.ToFloat64(m.removals))
}

func TestRegistersWithRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg)

	families, err := reg.Gather()
	require.NoError(t, err)

	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	require.ElementsMatch(t, []string{
		"nodecache_hits_total",
		"nodecache_misses_total",
		"nodecache_evictions_total",
		"nodecache_removals_total",
	}, names)
}
