package middleware

import (
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/aleysapc/docsearch/internal/log"
)

// CorrelationHeader carries the correlation id in requests and responses.
const CorrelationHeader = "X-Correlation-ID"

// CorrelationID stores the request's correlation id and chi request id in
// its context so log records written with that context carry both. The
// correlation id is taken from the X-Correlation-ID header when present and
// otherwise falls back to the request id.
func CorrelationID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := middleware.GetReqID(r.Context())
		correlationID := r.Header.Get(CorrelationHeader)
		if correlationID == "" {
			correlationID = requestID
		}

		w.Header().Set(CorrelationHeader, correlationID)

		ctx := log.WithCorrelationID(r.Context(), correlationID)
		if requestID != "" {
			ctx = log.WithRequestID(ctx, requestID)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
