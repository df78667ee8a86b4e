package middleware

import (
	"net/http"
	"slices"

	"github.com/go-chi/cors"
)

// Local frontend dev servers, used when no origins are configured.
var devOrigins = []string{"http://localhost:3000", "http://localhost:5173"}

// CORS lets browser clients call the API from origins. Replay and retry
// headers are exposed so a client can tell a replayed checkout apart and back
// off on 503.
func CORS(origins []string) func(http.Handler) http.Handler {
	if len(origins) == 0 {
		origins = devOrigins
	}
	opts := cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPut,
			http.MethodPatch, http.MethodDelete, http.MethodOptions,
		},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", idempotencyHeader, requestIDHeader},
		ExposedHeaders: []string{requestIDHeader, idempotencyReplayHeader, "Retry-After"},
		MaxAge:         600,
	}
	// Bearer tokens travel in a header, not a cookie, so credentials stay off
	// unless every origin is listed explicitly.
	opts.AllowCredentials = !slices.Contains(origins, "*")
	return cors.Handler(opts)
}
