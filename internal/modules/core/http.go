package core

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type contextKey string

const (
	CorrelationIDHeader                = "Correlation-Id"
	CorrelationIDContextKey contextKey = "correlation_id"
)

func CorrelationIDHTTPMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		correlationID := r.Header.Get(CorrelationIDHeader)
		if correlationID == "" {
			correlationID = uuid.NewString()
		}

		w.Header().Set(CorrelationIDHeader, correlationID)

		ctx = context.WithValue(ctx, CorrelationIDContextKey, correlationID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// LoggerHTTPMiddleware stores a request scoped logger in the context.
// It has to run after CorrelationIDHTTPMiddleware.
func LoggerHTTPMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			l := logger.With(zap.String("method", r.Method), zap.String("path", r.URL.Path))
			if correlationID, ok := ctx.Value(CorrelationIDContextKey).(string); ok {
				l = l.With(zap.String("correlation_id", correlationID))
			}

			next.ServeHTTP(w, r.WithContext(WithLogger(ctx, l)))
		})
	}
}
