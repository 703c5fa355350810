package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/snapvec/snapvec/internal/log"
)

// CorrelationIDHeader carries the correlation ID across service boundaries.
const CorrelationIDHeader = "X-Correlation-ID"

// CorrelationID attaches a correlation ID to the request context and echoes
// it in the response. An incoming header value is reused so callers can trace
// a request across services; otherwise a new ID is generated.
func CorrelationID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(CorrelationIDHeader)
		if id == "" {
			id = uuid.New().String()
		}

		ctx := log.WithCorrelationID(r.Context(), id)
		w.Header().Set(CorrelationIDHeader, id)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
