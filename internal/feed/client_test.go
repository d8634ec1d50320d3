package feed

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/woozymasta/quakemap/internal/observability"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	contentTypeGeoJSON = "application/geo+json"
	headerContentType  = "Content-Type"
)

const quakes = `{"type":"FeatureCollection","features":[
 {"type":"Feature","id":"a","properties":{"mag":2.5,"place":"Here","time":1700000000000},"geometry":{"type":"Point","coordinates":[-100,40,5]}},
 {"type":"Feature","id":"b","properties":{"mag":null,"place":"There","time":1700000000000},"geometry":{"type":"Point","coordinates":[-101,41,5]}}
]}`

const plates = `{"type":"FeatureCollection","features":[
 {"type":"Feature","properties":{"Name":"NA-PA"},"geometry":{"type":"LineString","coordinates":[[-125,40],[-124,41]]}}
]}`

func serveBody(t *testing.T, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		w.Header().Set(headerContentType, contentTypeGeoJSON)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_Earthquakes_Success(t *testing.T) {
	srv := serveBody(t, quakes)
	metrics := observability.NewMetricsForTesting()
	c := NewClient(srv.URL, srv.URL, 5*time.Second, metrics)

	got, err := c.Earthquakes(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "a", got[0].ID)
	assert.Equal(t, 2.5, got[0].Magnitude)

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.FeaturesSkipped))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.FeedFetches.WithLabelValues("earthquakes", "success")))
}

func TestClient_Plates_Success(t *testing.T) {
	srv := serveBody(t, plates)
	c := NewClient(srv.URL, srv.URL, 5*time.Second, observability.NewMetricsForTesting())

	got, err := c.Plates(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "NA-PA", got[0].Name)
}

func TestClient_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("maintenance"))
	}))
	defer srv.Close()

	metrics := observability.NewMetricsForTesting()
	c := NewClient(srv.URL, srv.URL, 5*time.Second, metrics)

	_, err := c.Earthquakes(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrStatus))
	assert.Contains(t, err.Error(), "503")
	assert.Contains(t, err.Error(), "earthquakes feed")
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.FeedFetches.WithLabelValues("earthquakes", "error")))
}

func TestClient_BadJSON(t *testing.T) {
	srv := serveBody(t, `{"type":"FeatureCollection","features":[`)
	c := NewClient(srv.URL, srv.URL, 5*time.Second, observability.NewMetricsForTesting())

	_, err := c.Plates(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "plates feed")
}

func TestClient_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, srv.URL, 50*time.Millisecond, observability.NewMetricsForTesting())

	_, err := c.Plates(context.Background())
	require.Error(t, err)
}

func TestClient_ContextCanceled(t *testing.T) {
	srv := serveBody(t, plates)
	c := NewClient(srv.URL, srv.URL, 5*time.Second, observability.NewMetricsForTesting())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Earthquakes(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}
