package loader

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/woozymasta/quakemap/internal/config"
	"github.com/woozymasta/quakemap/internal/geo"
	"github.com/woozymasta/quakemap/internal/observability"

	"github.com/jonboulle/clockwork"
	"github.com/paulmach/orb"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockSource struct {
	mu        sync.Mutex
	quakes    [][]geo.Earthquake // one entry per call, last one repeats
	quakeErr  error
	calls     atomic.Int64
	plates    []geo.PlateBoundary
	platesErr error
	release   chan struct{} // when set, Plates blocks until closed or ctx done
}

func (m *mockSource) Earthquakes(_ context.Context) ([]geo.Earthquake, error) {
	i := int(m.calls.Add(1) - 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.quakeErr != nil && i > 0 {
		return nil, m.quakeErr
	}
	if m.quakeErr != nil && len(m.quakes) == 0 {
		return nil, m.quakeErr
	}
	if i >= len(m.quakes) {
		i = len(m.quakes) - 1
	}
	return m.quakes[i], nil
}

func (m *mockSource) Plates(ctx context.Context) ([]geo.PlateBoundary, error) {
	if m.release != nil {
		select {
		case <-m.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return m.plates, m.platesErr
}

func quakes(n int) []geo.Earthquake {
	out := make([]geo.Earthquake, 0, n)
	for i := range n {
		out = append(out, geo.Earthquake{
			Magnitude: float64(i),
			Place:     "Somewhere",
			Time:      time.UnixMilli(1700000000000),
		})
	}
	return out
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load("")
	require.NoError(t, err)
	return cfg
}

// --- tests ---

func TestLoader_Run_ComposesAndAttachesPlates(t *testing.T) {
	src := &mockSource{
		quakes: [][]geo.Earthquake{quakes(3)},
		plates: []geo.PlateBoundary{{Name: "NA-PA", Line: orb.LineString{{0, 0}, {1, 1}}}},
	}
	metrics := observability.NewMetricsForTesting()
	l, err := New(testConfig(t), src, metrics, nil)
	require.NoError(t, err)

	require.ErrorIs(t, l.CheckReadiness(context.Background()), ErrNotReady)

	require.NoError(t, l.Run(context.Background()))
	require.True(t, l.WaitPlates(time.Second))

	m, ok := l.Map()
	require.True(t, ok)
	require.NoError(t, l.CheckReadiness(context.Background()))

	assert.Len(t, m.EarthquakesGeoJSON().Features, 3)
	assert.True(t, m.FaultLinesAttached())
	assert.Len(t, m.FaultLinesGeoJSON().Features, 1)
	assert.Equal(t, 3.0, testutil.ToFloat64(metrics.Markers))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.PlateBoundaries))
}

func TestLoader_Run_EarthquakeFailureLeavesMapUninitialized(t *testing.T) {
	src := &mockSource{quakeErr: errors.New("boom")}
	l, err := New(testConfig(t), src, observability.NewMetricsForTesting(), nil)
	require.NoError(t, err)

	require.Error(t, l.Run(context.Background()))

	_, ok := l.Map()
	assert.False(t, ok)
	assert.ErrorIs(t, l.CheckReadiness(context.Background()), ErrNotReady)
}

func TestLoader_Run_EmptyFeed(t *testing.T) {
	src := &mockSource{quakes: [][]geo.Earthquake{{}}}
	l, err := New(testConfig(t), src, observability.NewMetricsForTesting(), nil)
	require.NoError(t, err)

	require.NoError(t, l.Run(context.Background()))

	m, ok := l.Map()
	require.True(t, ok)
	assert.Empty(t, m.EarthquakesGeoJSON().Features)
}

func TestLoader_PlatesNeverResolve(t *testing.T) {
	src := &mockSource{
		quakes:  [][]geo.Earthquake{quakes(2)},
		release: make(chan struct{}),
	}
	l, err := New(testConfig(t), src, observability.NewMetricsForTesting(), nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, l.Run(ctx))
	assert.False(t, l.WaitPlates(50*time.Millisecond))

	m, ok := l.Map()
	require.True(t, ok)
	assert.Len(t, m.EarthquakesGeoJSON().Features, 2)
	assert.Len(t, m.Snapshot().BaseLayers, 4)
	assert.False(t, m.FaultLinesAttached())
	assert.Empty(t, m.FaultLinesGeoJSON().Features)

	cancel()
	assert.True(t, l.WaitPlates(time.Second))
	assert.False(t, m.FaultLinesAttached())
}

func TestLoader_PlatesFailureLeavesOverlayEmpty(t *testing.T) {
	src := &mockSource{
		quakes:    [][]geo.Earthquake{quakes(1)},
		platesErr: errors.New("unreachable"),
	}
	l, err := New(testConfig(t), src, observability.NewMetricsForTesting(), nil)
	require.NoError(t, err)

	require.NoError(t, l.Run(context.Background()))
	require.True(t, l.WaitPlates(time.Second))

	m, _ := l.Map()
	assert.False(t, m.FaultLinesAttached())
	assert.False(t, m.Snapshot().Overlays[1].Ready)
}

func TestLoader_Refresh(t *testing.T) {
	cfg := testConfig(t)
	cfg.RefreshInterval = time.Minute

	src := &mockSource{quakes: [][]geo.Earthquake{quakes(1), quakes(4)}}
	clock := clockwork.NewFakeClock()
	l, err := New(cfg, src, observability.NewMetricsForTesting(), clock)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- l.Run(ctx) }()

	require.NoError(t, clock.BlockUntilContext(ctx, 1))

	m, ok := l.Map()
	require.True(t, ok)
	rev := m.Revision()
	assert.Len(t, m.EarthquakesGeoJSON().Features, 1)

	clock.Advance(time.Minute)
	require.Eventually(t, func() bool {
		return len(m.EarthquakesGeoJSON().Features) == 4
	}, time.Second, 5*time.Millisecond)
	assert.Greater(t, m.Revision(), rev)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("loader did not stop")
	}
}

func TestLoader_RefreshFailureKeepsLayer(t *testing.T) {
	cfg := testConfig(t)
	cfg.RefreshInterval = time.Minute

	src := &mockSource{quakes: [][]geo.Earthquake{quakes(2)}, quakeErr: errors.New("flaky")}
	clock := clockwork.NewFakeClock()
	l, err := New(cfg, src, observability.NewMetricsForTesting(), clock)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = l.Run(ctx) }()

	require.NoError(t, clock.BlockUntilContext(ctx, 1))
	clock.Advance(time.Minute)

	require.Eventually(t, func() bool { return src.calls.Load() >= 2 }, time.Second, 5*time.Millisecond)

	m, ok := l.Map()
	require.True(t, ok)
	assert.Len(t, m.EarthquakesGeoJSON().Features, 2)
}
