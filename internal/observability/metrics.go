// Package observability holds the Prometheus metrics of the map service.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "quakemap"

// Metrics holds the Prometheus counters, histograms, and gauges for the service.
type Metrics struct {
	// labels: feed={earthquakes,plates}, outcome={success,error}
	FeedFetches       *prometheus.CounterVec
	FeedFetchDuration *prometheus.HistogramVec // labels: feed
	FeaturesSkipped   prometheus.Counter
	Markers           prometheus.Gauge
	PlateBoundaries   prometheus.Gauge

	// labels: result={hit,miss}
	TileCache     *prometheus.CounterVec
	TileUpstreams *prometheus.CounterVec // labels: outcome={success,not_found,error}

	// labels: method, code
	HTTPRequests *prometheus.HistogramVec
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(m.collectors()...)
	return m
}

// NewMetricsForTesting creates unregistered Metrics so tests can build as
// many as they like.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		FeedFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "feed_fetches_total",
			Help:      "Feed fetches by feed and outcome.",
		}, []string{"feed", "outcome"}),
		FeedFetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "feed_fetch_duration_seconds",
			Help:      "Duration of a feed fetch including decoding.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"feed"}),
		FeaturesSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "features_skipped_total",
			Help:      "Earthquake features dropped for lacking a magnitude or point geometry.",
		}),
		Markers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "earthquake_markers",
			Help:      "Markers in the current earthquake layer.",
		}),
		PlateBoundaries: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "plate_boundaries",
			Help:      "Line segments attached to the fault-line overlay.",
		}),
		TileCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tile_cache_total",
			Help:      "Tile cache lookups by result.",
		}, []string{"result"}),
		TileUpstreams: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tile_upstream_requests_total",
			Help:      "Upstream tile requests by outcome.",
		}, []string{"outcome"}),
		HTTPRequests: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration by method and status code.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "code"}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.FeedFetches,
		m.FeedFetchDuration,
		m.FeaturesSkipped,
		m.Markers,
		m.PlateBoundaries,
		m.TileCache,
		m.TileUpstreams,
		m.HTTPRequests,
	}
}
