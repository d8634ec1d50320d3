package server

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/woozymasta/quakemap/internal/observability"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// RequestLogger is a middleware to log HTTP requests.
// Tile and metrics requests are logged at debug level.
func RequestLogger(next http.Handler, metrics *observability.Metrics) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := &responseWriterWrapper{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(ww, r)

		elapsed := time.Since(start)
		if metrics != nil {
			metrics.HTTPRequests.
				WithLabelValues(r.Method, strconv.Itoa(ww.statusCode)).
				Observe(elapsed.Seconds())
		}

		level := zerolog.InfoLevel
		if isNoisy(r.URL.Path) || ww.statusCode == http.StatusNotModified {
			level = zerolog.DebugLevel
		}

		log.WithLevel(level).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.statusCode).
			Str("ip", r.RemoteAddr).
			Dur("duration", elapsed).
			Msg("Request processed")
	})
}

func isNoisy(path string) bool {
	return path == "/metrics" || path == "/healthz" || strings.HasPrefix(path, "/tiles/")
}

type responseWriterWrapper struct {
	http.ResponseWriter
	statusCode int
}

// WriteHeader captures the status code before writing to the underlying response writer.
func (w *responseWriterWrapper) WriteHeader(code int) {
	w.statusCode = code
	w.ResponseWriter.WriteHeader(code)
}
