package middleware

import (
	"net/http"

	"github.com/opexhub/expense-approval/pkg/logger"

	"github.com/google/uuid"
)

// RequestID propagates an inbound X-Trace-ID or mints one, and attaches it
// to the request-scoped logger.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID := r.Header.Get("X-Trace-ID")
		if traceID == "" {
			traceID = uuid.NewString()
		}

		ctx := logger.With(r.Context(), "traceID", traceID)

		w.Header().Set("X-Trace-ID", traceID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
