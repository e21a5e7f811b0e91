// Package auth guards the crm-mcp HTTP endpoint with a static bearer token.
package auth

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// HealthPath is served without authentication for orchestrator health
// checks.
const HealthPath = "/healthz"

// NewAuthMiddleware returns middleware that requires
//
//	Authorization: Bearer <token>
//
// on every request except HealthPath. The scheme is case-sensitive and must
// be followed by exactly one space. An empty token disables authentication.
// Rejected requests get 401 and are logged to logger, which may be nil.
func NewAuthMiddleware(token string, logger *zap.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	want := []byte(token)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token == "" || r.URL.Path == HealthPath {
				next.ServeHTTP(w, r)
				return
			}

			const prefix = "Bearer "
			header := r.Header.Get("Authorization")
			provided, ok := strings.CutPrefix(header, prefix)
			if !ok || provided == "" || subtle.ConstantTimeCompare([]byte(provided), want) != 1 {
				logger.Warn("rejected unauthenticated request",
					zap.String("remote_addr", r.RemoteAddr),
					zap.String("path", r.URL.Path),
					zap.Bool("header_present", header != ""),
				)
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
