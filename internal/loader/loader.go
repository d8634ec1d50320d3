// Package loader drives the two feed fetches and the map composition.
package loader

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/woozymasta/quakemap/internal/composer"
	"github.com/woozymasta/quakemap/internal/config"
	"github.com/woozymasta/quakemap/internal/feature"
	"github.com/woozymasta/quakemap/internal/geo"
	"github.com/woozymasta/quakemap/internal/observability"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// ErrNotReady is reported until the first earthquake fetch succeeds.
var ErrNotReady = errors.New("map not composed yet")

// Source provides both feeds.
type Source interface {
	Earthquakes(ctx context.Context) ([]geo.Earthquake, error)
	Plates(ctx context.Context) ([]geo.PlateBoundary, error)
}

// Loader owns the composed map once the earthquake feed has been fetched.
type Loader struct {
	cfg     *config.Config
	source  Source
	metrics *observability.Metrics
	clock   clockwork.Clock
	opts    feature.Options

	mu     sync.RWMutex
	m      *composer.Map
	plates sync.WaitGroup
}

// New creates a loader. A nil clock means the real clock.
func New(cfg *config.Config, source Source, metrics *observability.Metrics, clock clockwork.Clock) (*Loader, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	return &Loader{
		cfg:     cfg,
		source:  source,
		metrics: metrics,
		clock:   clock,
		opts:    feature.Options{Location: loc},
	}, nil
}

// Run fetches the earthquakes, composes the map and starts the independent
// plates fetch. When the earthquake fetch fails the map is never composed and
// Run returns the error. With a refresh interval Run keeps refreshing the
// earthquake layer until ctx is done.
func (l *Loader) Run(ctx context.Context) error {
	quakes, err := l.source.Earthquakes(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Earthquake feed failed, map not initialized")
		return err
	}

	layer := feature.Build(quakes, l.opts)
	m := composer.Compose(l.cfg, layer)
	l.metrics.Markers.Set(float64(layer.Len()))

	l.mu.Lock()
	l.m = m
	l.mu.Unlock()

	log.Info().
		Int("markers", layer.Len()).
		Strs("base_layers", m.BaseLayers()).
		Str("active_base", l.cfg.DefaultBase).
		Msg("Map composed")

	l.plates.Add(1)
	go func() {
		defer l.plates.Done()
		l.loadPlates(ctx, m)
	}()

	if l.cfg.RefreshInterval <= 0 {
		return nil
	}

	return l.refresh(ctx, m)
}

func (l *Loader) loadPlates(ctx context.Context, m *composer.Map) {
	boundaries, err := l.source.Plates(ctx)
	if err != nil {
		// overlay stays empty
		log.Error().Err(err).Msg("Plates feed failed, fault lines left empty")
		return
	}

	m.AttachFaultLines(boundaries, composer.FaultLineStyle)
	l.metrics.PlateBoundaries.Set(float64(len(boundaries)))

	log.Info().
		Int("boundaries", len(boundaries)).
		Msg("Fault lines attached")
}

func (l *Loader) refresh(ctx context.Context, m *composer.Map) error {
	ticker := l.clock.NewTicker(l.cfg.RefreshInterval)
	defer ticker.Stop()

	log.Debug().Dur("interval", l.cfg.RefreshInterval).Msg("Earthquake refresh started")

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.Chan():
			start := l.clock.Now()
			quakes, err := l.source.Earthquakes(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				log.Warn().Err(err).Msg("Earthquake refresh failed, keeping previous layer")
				continue
			}

			layer := feature.Build(quakes, l.opts)
			m.ReplaceEarthquakes(layer)
			l.metrics.Markers.Set(float64(layer.Len()))

			log.Debug().
				Int("markers", layer.Len()).
				Dur("duration", l.clock.Since(start)).
				Msg("Earthquake layer refreshed")
		}
	}
}

// Map returns the composed map, if any.
func (l *Loader) Map() (*composer.Map, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.m, l.m != nil
}

// CheckReadiness reports ErrNotReady until the map is composed.
func (l *Loader) CheckReadiness(_ context.Context) error {
	if _, ok := l.Map(); !ok {
		return ErrNotReady
	}
	return nil
}

// WaitPlates blocks until the plates fetch has finished or timeout elapses.
// It reports whether the fetch finished.
func (l *Loader) WaitPlates(timeout time.Duration) bool {
	done := make(chan struct{})
	go func() {
		l.plates.Wait()
		close(done)
	}()

	select {
	case <-done:
		return true
	case <-time.After(timeout):
		return false
	}
}
