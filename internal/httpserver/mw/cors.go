package mw

import (
	"net/http"
	"strings"

	"github.com/go-chi/cors"
)

// CORS allows the extension and side panel origins to call the API.
// With no origins configured every origin is allowed, without credentials.
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	opts := cors.Options{
		AllowedMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPut,
			http.MethodPatch, http.MethodDelete, http.MethodOptions,
		},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining", "Retry-After"},
		MaxAge:         300,
	}
	if len(allowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"*"}
		return cors.Handler(opts)
	}

	opts.AllowCredentials = true
	opts.AllowOriginFunc = func(_ *http.Request, origin string) bool {
		for _, allowed := range allowedOrigins {
			if strings.EqualFold(origin, allowed) || matchOrigin(origin, allowed) {
				return true
			}
		}
		return false
	}
	return cors.Handler(opts)
}

// matchOrigin supports a "scheme://*" pattern such as chrome-extension://*.
func matchOrigin(origin, pattern string) bool {
	prefix, ok := strings.CutSuffix(pattern, "*")
	return ok && strings.HasSuffix(prefix, "://") && strings.HasPrefix(origin, prefix)
}
