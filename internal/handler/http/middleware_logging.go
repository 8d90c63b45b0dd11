package http

import (
	"net/http"
	"time"

	"github.com/MKhiriev/go-ledger-sync/internal/logger"
)

// withLogging emits one structured entry per completed request. Runs after
// withTraceID so every entry carries the trace id of the sync pass that
// issued the request.
func (h *Handler) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		lw := &responseWriter{ResponseWriter: w}
		next.ServeHTTP(lw, r)

		logger.FromRequest(r).Info().
			Str("method", r.Method).
			Str("uri", r.RequestURI).
			Int("status", lw.status).
			Int("size", lw.size).
			Dur("duration", time.Since(start)).
			Msg("request served")
	})
}
