package api

import (
	"context"
	"log/slog"

	"github.com/go-chi/chi/v5/middleware"
)

// GetRequestID returns the request ID set by chi's RequestID middleware,
// or "" when there is none.
func GetRequestID(ctx context.Context) string {
	return middleware.GetReqID(ctx)
}

// loggerFromContext returns the default logger annotated with the request ID.
func loggerFromContext(ctx context.Context) *slog.Logger {
	if id := GetRequestID(ctx); id != "" {
		return slog.Default().With("request_id", id)
	}
	return slog.Default()
}
