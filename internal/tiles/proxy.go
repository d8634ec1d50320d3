// Package tiles proxies base layer tiles from the tile provider so the access
// token never reaches the browser.
package tiles

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/woozymasta/quakemap/internal/config"
	"github.com/woozymasta/quakemap/internal/observability"

	"github.com/chai2010/webp"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// CacheTTL bounds how long an encoded tile is served from memory.
const CacheTTL = 6 * time.Hour

var (
	// ErrBadRequest is returned for unknown layers or out of range coordinates.
	ErrBadRequest = errors.New("invalid tile request")
	// ErrNotFound is returned when the provider has no tile.
	ErrNotFound = errors.New("tile not found")
)

// Coordinate addresses a single tile.
type Coordinate struct {
	Z, X, Y int
}

// Proxy fetches provider tiles and re-encodes them as WebP.
type Proxy struct {
	cfg     *config.Config
	client  *http.Client
	cache   *lruCache
	metrics *observability.Metrics
	clock   clockwork.Clock
}

// NewProxy creates a tile proxy. A nil clock means the real clock.
func NewProxy(cfg *config.Config, client *http.Client, metrics *observability.Metrics, clock clockwork.Clock) *Proxy {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	return &Proxy{
		cfg:     cfg,
		client:  client,
		cache:   newLRUCache(cfg.TileCacheSize),
		metrics: metrics,
		clock:   clock,
	}
}

// ParseCoordinate parses z/x/y path segments. A trailing extension on y is
// ignored.
func ParseCoordinate(z, x, y string) (Coordinate, error) {
	if i := strings.IndexByte(y, '.'); i >= 0 {
		y = y[:i]
	}

	var c Coordinate
	var err error
	if c.Z, err = strconv.Atoi(z); err != nil {
		return c, fmt.Errorf("%w: zoom %q", ErrBadRequest, z)
	}
	if c.X, err = strconv.Atoi(x); err != nil {
		return c, fmt.Errorf("%w: x %q", ErrBadRequest, x)
	}
	if c.Y, err = strconv.Atoi(y); err != nil {
		return c, fmt.Errorf("%w: y %q", ErrBadRequest, y)
	}

	return c, nil
}

// Tile returns the WebP-encoded tile of a base layer.
func (p *Proxy) Tile(ctx context.Context, layerID string, c Coordinate) ([]byte, error) {
	if _, ok := p.cfg.BaseLayerByID(layerID); !ok {
		return nil, fmt.Errorf("%w: unknown layer %q", ErrBadRequest, layerID)
	}
	if c.Z < 0 || c.Z > p.cfg.MaxZoom || c.Z > config.MaxZoomLimit {
		return nil, fmt.Errorf("%w: zoom %d outside 0..%d", ErrBadRequest, c.Z, p.cfg.MaxZoom)
	}
	if n := 1 << c.Z; c.X < 0 || c.Y < 0 || c.X >= n || c.Y >= n {
		return nil, fmt.Errorf("%w: %d/%d/%d outside grid", ErrBadRequest, c.Z, c.X, c.Y)
	}

	key := fmt.Sprintf("%s/%d/%d/%d", layerID, c.Z, c.X, c.Y)
	if data, ok := p.cache.get(key, p.clock.Now()); ok {
		p.metrics.TileCache.WithLabelValues("hit").Inc()
		return data, nil
	}
	p.metrics.TileCache.WithLabelValues("miss").Inc()

	data, err := p.fetch(ctx, layerID, c)
	switch {
	case errors.Is(err, ErrNotFound):
		p.metrics.TileUpstreams.WithLabelValues("not_found").Inc()
		return nil, err
	case err != nil:
		p.metrics.TileUpstreams.WithLabelValues("error").Inc()
		return nil, err
	}
	p.metrics.TileUpstreams.WithLabelValues("success").Inc()

	p.cache.put(key, data, p.clock.Now().Add(CacheTTL))
	return data, nil
}

func (p *Proxy) fetch(ctx context.Context, layerID string, c Coordinate) ([]byte, error) {
	url := buildURL(p.cfg.TileURL, layerID, p.cfg.AccessToken, c)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tile request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tile provider status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read tile: %w", err)
	}

	img, format, err := image.Decode(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("decode tile: %w", err)
	}

	// providers answer out-of-bounds requests with 1px placeholders
	if img.Bounds().Dx() <= 1 {
		log.Trace().Str("layer", layerID).Int("z", c.Z).Int("x", c.X).Int("y", c.Y).Msg("Filtered empty tile")
		return nil, ErrNotFound
	}

	var buf bytes.Buffer
	if err := webp.Encode(&buf, img, &webp.Options{Lossless: false, Quality: 80}); err != nil {
		return nil, fmt.Errorf("encode webp: %w", err)
	}

	log.Trace().
		Str("layer", layerID).
		Str("format", format).
		Int("z", c.Z).Int("x", c.X).Int("y", c.Y).
		Int("bytes", buf.Len()).
		Msg("Tile transcoded")

	return buf.Bytes(), nil
}

func buildURL(tpl, id, token string, c Coordinate) string {
	return strings.NewReplacer(
		"{id}", id,
		"{z}", strconv.Itoa(c.Z),
		"{x}", strconv.Itoa(c.X),
		"{y}", strconv.Itoa(c.Y),
		"{accessToken}", token,
	).Replace(tpl)
}
