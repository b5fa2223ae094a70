// Package middleware provides HTTP middleware components.
package middleware

import (
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/yasinhessnawi1/HeartRisk_Backend/internal/constants"
	"github.com/yasinhessnawi1/HeartRisk_Backend/internal/utils"
	"github.com/yasinhessnawi1/HeartRisk_Backend/internal/utils/ratelimit"
)

// RateLimit limits requests per client IP within category.
//
// Parameters:
//   - store: The token buckets shared by all routes
//   - category: The endpoint category to apply limits for (e.g., "auth", "predict")
//
// Returns:
//   - A middleware function that can be used with an HTTP handler
func RateLimit(store *ratelimit.Store, category string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isExemptedPath(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			clientIP := utils.ClientIP(r)

			if !store.Allow(clientIP, category) {
				log.Warn().
					Str("client_ip", clientIP).
					Str("path", r.URL.Path).
					Str("method", r.Method).
					Str("category", category).
					Msg("Rate limit exceeded")

				utils.TooManyRequests(w, constants.RateLimitRetryAfter)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// isExemptedPath reports whether path is never rate limited.
func isExemptedPath(path string) bool {
	exemptPrefixes := []string{
		constants.HealthPath,
		constants.VersionPath,
		"/favicon.ico",
	}

	for _, prefix := range exemptPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}

	return false
}
