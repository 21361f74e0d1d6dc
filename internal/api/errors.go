package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/phrazzld/queue-api/internal/queue"
)

// MapErrorToStatusCode maps internal errors to appropriate HTTP status codes
// based on the error type. This prevents leaking internal error types to
// clients while keeping the mapping in one place.
func MapErrorToStatusCode(err error) int {
	switch {
	// Admission rejected: the queue is throttling
	case errors.Is(err, queue.ErrQueueFull):
		return http.StatusTooManyRequests

	// Queue shutting down or already closed
	case errors.Is(err, queue.ErrQueueClosed),
		errors.Is(err, queue.ErrTaskCancelled):
		return http.StatusServiceUnavailable

	// Per-task timeout elapsed before the work finished
	case errors.Is(err, queue.ErrTaskTimeout):
		return http.StatusGatewayTimeout

	// The caller went away while waiting
	case errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return http.StatusRequestTimeout

	default:
		return http.StatusInternalServerError
	}
}
