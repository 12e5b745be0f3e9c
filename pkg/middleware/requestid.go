// Package middleware provides reusable HTTP middleware: request IDs,
// Prometheus metrics, request timeouts and per-client rate limiting.
package middleware

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"net/http"

	"github.com/Adithya-Monish-Kumar-K/Batch-Retrieval-Engine/pkg/logger"
)

const RequestIDHeader = "X-Request-ID"

// RequestID reuses an incoming X-Request-ID or generates one, stores it in the
// request context and echoes it in the response.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = newRequestID()
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(logger.WithRequestID(r.Context(), id)))
	})
}

// GetRequestID returns the ID set by RequestID, or "".
func GetRequestID(ctx context.Context) string {
	return logger.RequestID(ctx)
}

func newRequestID() string {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "unknown"
	}
	return hex.EncodeToString(b[:])
}
