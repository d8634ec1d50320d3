package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/woozymasta/quakemap/internal/composer"
	"github.com/woozymasta/quakemap/internal/config"
	"github.com/woozymasta/quakemap/internal/observability"
	"github.com/woozymasta/quakemap/internal/page"
	"github.com/woozymasta/quakemap/internal/tiles"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

// MapProvider exposes the composed map once it exists.
type MapProvider interface {
	Map() (*composer.Map, bool)
	CheckReadiness(ctx context.Context) error
}

// TileSource serves proxied base layer tiles.
type TileSource interface {
	Tile(ctx context.Context, layerID string, c tiles.Coordinate) ([]byte, error)
}

// ServerContext holds dependencies for request handlers.
type ServerContext struct {
	Config    *config.Config
	Maps      MapProvider
	Tiles     TileSource // nil when the tile proxy is disabled
	Metrics   *observability.Metrics
	IndexHTML []byte
	Favicon   []byte
}

// NewServerContext renders the page assets and wires the handlers' dependencies.
func NewServerContext(cfg *config.Config, maps MapProvider, tileSource TileSource, metrics *observability.Metrics) (*ServerContext, error) {
	index, err := page.Render(page.Options{MapAPI: "/api/map"})
	if err != nil {
		return nil, fmt.Errorf("render page: %w", err)
	}

	favicon, err := page.Favicon()
	if err != nil {
		return nil, fmt.Errorf("render favicon: %w", err)
	}

	log.Info().
		Int("index_bytes", len(index)).
		Bool("tile_proxy", tileSource != nil).
		Msg("Server context initialized successfully")

	return &ServerContext{
		Config:    cfg,
		Maps:      maps,
		Tiles:     tileSource,
		Metrics:   metrics,
		IndexHTML: index,
		Favicon:   favicon,
	}, nil
}

// Handler returns the routed handler wrapped in the request logger.
func (s *ServerContext) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/map", s.HandleMap)
	mux.HandleFunc("GET /api/earthquakes", s.HandleEarthquakes)
	mux.HandleFunc("GET /api/plates", s.HandlePlates)
	mux.HandleFunc("GET /tiles/{id}/{z}/{x}/{y}", s.HandleTile)
	mux.HandleFunc("GET /favicon.svg", s.HandleFavicon)
	mux.HandleFunc("GET /healthz", s.HandleHealth)
	mux.HandleFunc("GET /readyz", s.HandleReady)
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /", s.HandleIndex)

	return RequestLogger(mux, s.Metrics)
}
