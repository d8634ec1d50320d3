// Package feed downloads the earthquake and plate boundary GeoJSON feeds.
package feed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/woozymasta/quakemap/internal/geo"
	"github.com/woozymasta/quakemap/internal/observability"

	"github.com/paulmach/orb/geojson"
	"github.com/rs/zerolog/log"
)

const (
	feedEarthquakes = "earthquakes"
	feedPlates      = "plates"
)

// ErrStatus is returned when a feed answers with a non-200 status.
var ErrStatus = errors.New("unexpected status")

// Client fetches both feeds. It never retries.
type Client struct {
	httpClient     *http.Client
	metrics        *observability.Metrics
	earthquakesURL string
	platesURL      string
}

// NewClient creates a feed client with a per-request timeout.
func NewClient(earthquakesURL, platesURL string, timeout time.Duration, metrics *observability.Metrics) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		metrics:        metrics,
		earthquakesURL: earthquakesURL,
		platesURL:      platesURL,
	}
}

// Earthquakes fetches feed A and returns its typed records.
func (c *Client) Earthquakes(ctx context.Context) ([]geo.Earthquake, error) {
	fc, err := c.fetch(ctx, feedEarthquakes, c.earthquakesURL)
	if err != nil {
		return nil, err
	}

	quakes, skipped := geo.Earthquakes(fc)
	if skipped > 0 {
		c.metrics.FeaturesSkipped.Add(float64(skipped))
		log.Warn().
			Int("skipped", skipped).
			Int("kept", len(quakes)).
			Msg("Earthquake features without magnitude or point geometry dropped")
	}

	return quakes, nil
}

// Plates fetches feed B and returns its line segments.
func (c *Client) Plates(ctx context.Context) ([]geo.PlateBoundary, error) {
	fc, err := c.fetch(ctx, feedPlates, c.platesURL)
	if err != nil {
		return nil, err
	}

	return geo.PlateBoundaries(fc), nil
}

func (c *Client) fetch(ctx context.Context, name, url string) (*geojson.FeatureCollection, error) {
	start := time.Now()
	fc, err := c.do(ctx, url)
	c.metrics.FeedFetchDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())

	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	c.metrics.FeedFetches.WithLabelValues(name, outcome).Inc()

	if err != nil {
		return nil, fmt.Errorf("%s feed: %w", name, err)
	}

	log.Debug().
		Str("feed", name).
		Int("features", len(fc.Features)).
		Dur("duration", time.Since(start)).
		Msg("Feed fetched")

	return fc, nil
}

func (c *Client) do(ctx context.Context, url string) (*geojson.FeatureCollection, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/geo+json, application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w %d: %s", ErrStatus, resp.StatusCode, body)
	}

	return geo.DecodeCollection(resp.Body)
}
