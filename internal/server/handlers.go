// Package server handles HTTP requests and middleware.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/woozymasta/quakemap/internal/tiles"

	"github.com/rs/zerolog/log"
)

const contentTypeGeoJSON = "application/geo+json"

// HandleIndex serves the main HTML application.
func (s *ServerContext) HandleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" && strings.Contains(r.URL.Path, ".") {
		http.NotFound(w, r)
		return
	}

	etag := fmt.Sprintf(`"%x"`, len(s.IndexHTML))

	if match := r.Header.Get("If-None-Match"); match == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "public, no-cache")
	_, _ = w.Write(s.IndexHTML)
}

// HandleFavicon serves the site favicon.
func (s *ServerContext) HandleFavicon(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	_, _ = w.Write(s.Favicon)
}

// HandleMap serves the composed map snapshot. The ETag follows the map
// revision so pollers only download changes.
func (s *ServerContext) HandleMap(w http.ResponseWriter, r *http.Request) {
	m, ok := s.Maps.Map()
	if !ok {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "map not ready"})
		return
	}

	snap := m.Snapshot()
	etag := fmt.Sprintf(`"rev-%d"`, snap.Revision)
	if match := r.Header.Get("If-None-Match"); match == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "no-cache")
	writeJSON(w, http.StatusOK, snap)
}

// HandleEarthquakes serves the earthquake overlay as GeoJSON.
func (s *ServerContext) HandleEarthquakes(w http.ResponseWriter, _ *http.Request) {
	m, ok := s.Maps.Map()
	if !ok {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "map not ready"})
		return
	}

	w.Header().Set("Content-Type", contentTypeGeoJSON)
	w.Header().Set("Cache-Control", "no-cache")
	// Ignoring error as we cannot handle client disconnects
	_ = json.NewEncoder(w).Encode(m.EarthquakesGeoJSON())
}

// HandlePlates serves the fault-line overlay; an empty collection until the
// plates feed has landed.
func (s *ServerContext) HandlePlates(w http.ResponseWriter, _ *http.Request) {
	m, ok := s.Maps.Map()
	if !ok {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "map not ready"})
		return
	}

	w.Header().Set("Content-Type", contentTypeGeoJSON)
	w.Header().Set("Cache-Control", "no-cache")
	_ = json.NewEncoder(w).Encode(m.FaultLinesGeoJSON())
}

// HandleTile serves a proxied base layer tile as WebP.
func (s *ServerContext) HandleTile(w http.ResponseWriter, r *http.Request) {
	if s.Tiles == nil {
		http.NotFound(w, r)
		return
	}

	c, err := tiles.ParseCoordinate(r.PathValue("z"), r.PathValue("x"), r.PathValue("y"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	data, err := s.Tiles.Tile(r.Context(), r.PathValue("id"), c)
	switch {
	case errors.Is(err, tiles.ErrBadRequest):
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	case errors.Is(err, tiles.ErrNotFound):
		http.NotFound(w, r)
		return
	case err != nil:
		log.Warn().
			Err(err).
			Str("layer", r.PathValue("id")).
			Msg("Tile proxy failed")
		http.Error(w, "tile provider unavailable", http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "image/webp")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	_, _ = w.Write(data)
}

// HandleHealth reports liveness.
func (s *ServerContext) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// HandleReady reports whether the map has been composed.
func (s *ServerContext) HandleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.Maps.CheckReadiness(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
