package observability

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetricsForTesting_Unregistered(t *testing.T) {
	m := NewMetricsForTesting()
	m.FeedFetches.WithLabelValues("earthquakes", "success").Inc()
	m.FeaturesSkipped.Add(2)
	m.Markers.Set(7)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.FeedFetches.WithLabelValues("earthquakes", "success")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.FeaturesSkipped))
	assert.Equal(t, 7.0, testutil.ToFloat64(m.Markers))

	// a second instance must not collide
	other := NewMetricsForTesting()
	assert.Equal(t, 0.0, testutil.ToFloat64(other.Markers))
}

func TestCollectors_RegisterCleanly(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetricsForTesting()
	for _, c := range m.collectors() {
		require.NoError(t, reg.Register(c))
	}

	m.TileCache.WithLabelValues("hit").Inc()
	m.PlateBoundaries.Set(3)

	n, err := testutil.GatherAndCount(reg, "quakemap_tile_cache_total", "quakemap_plate_boundaries")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}
