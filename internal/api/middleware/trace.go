// Package middleware provides HTTP middleware shared by the API handlers.
package middleware

import (
	"log/slog"
	"net/http"

	"github.com/phrazzld/queue-api/internal/api/shared"
)

// NewTraceMiddleware returns middleware that adds a trace ID to the request
// context and logs the start of every request. Apply it early in the chain
// so all subsequent handlers have access to the trace ID.
func NewTraceMiddleware(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := shared.SetTraceID(r.Context())

			logger.Debug("request started",
				slog.String("trace_id", shared.GetTraceID(ctx)),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.String("remote_addr", r.RemoteAddr))

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
