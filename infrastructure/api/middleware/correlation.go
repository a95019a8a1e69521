package middleware

import (
	"context"
	"net/http"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/helixml/fileserve/internal/log"
)

// CorrelationIDHeader is the header used to propagate correlation IDs.
const CorrelationIDHeader = "X-Correlation-ID"

// CorrelationID returns a middleware that adds a correlation ID to the
// request context and echoes it in the response. The incoming
// X-Correlation-ID header wins; otherwise chi's request ID is used.
// Both IDs are attached to the context so log records carry them.
func CorrelationID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := chimiddleware.GetReqID(r.Context())

		correlationID := r.Header.Get(CorrelationIDHeader)
		if correlationID == "" {
			correlationID = requestID
		}

		w.Header().Set(CorrelationIDHeader, correlationID)

		ctx := log.WithCorrelationID(r.Context(), correlationID)
		if requestID != "" {
			ctx = log.WithRequestID(ctx, requestID)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetCorrelationID retrieves the correlation ID from the context.
func GetCorrelationID(ctx context.Context) string {
	return log.CorrelationID(ctx)
}
