package middleware

import (
	"log/slog"
	"net/http"

	"github.com/Gangoo91/Elec-Mate-Merge-sub265/pkg/logger"
)

// SessionIDHeader carries the client's search session ID. Every keystroke
// request from one input box shares it.
const SessionIDHeader = "X-Session-ID"

const maxSessionIDLen = 64

// RequestLogger stores a request-scoped logger in the context, tagged with
// the correlation, session, trace and span IDs. Mount it after
// RequestLogging and Tracing so those IDs exist.
func RequestLogger(base *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if id := r.Header.Get(SessionIDHeader); id != "" && logger.SessionIDFromContext(ctx) == "" {
				ctx = logger.WithSessionID(ctx, truncate(id, maxSessionIDLen))
			}
			ctx = logger.NewContext(ctx, logger.WithContext(ctx, base))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
