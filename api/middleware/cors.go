package middleware

import (
	"net/http"
	"strings"

	"github.com/go-chi/cors"
)

// devOrigins are allowed when LINARQA_CORS_ORIGINS is unset.
var devOrigins = []string{"http://localhost:3000", "http://localhost:5173"}

// CORS guards the JSON endpoints under /api, which the legacy front-end may
// still call cross-origin with the session cookie. Pages are same-origin.
func CORS(origins []string) func(http.Handler) http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins(origins),
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Requested-With", requestIDHeader},
		ExposedHeaders:   []string{requestIDHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}).Handler
}

// allowedOrigins normalises the configured list. A wildcard is dropped
// because browsers refuse it on credentialed requests.
func allowedOrigins(configured []string) []string {
	out := make([]string, 0, len(configured))
	for _, origin := range configured {
		origin = strings.ToLower(strings.TrimRight(strings.TrimSpace(origin), "/"))
		if origin == "" || origin == "*" {
			continue
		}
		out = append(out, origin)
	}
	if len(out) == 0 {
		return devOrigins
	}
	return out
}
