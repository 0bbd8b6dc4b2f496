package middleware

import (
	"slices"

	"github.com/go-chi/cors"
)

// CORSOptions returns CORS options for the manifest endpoints. Agents fetch
// manifests cross-origin, so no origins means any origin.
func CORSOptions(allowedOrigins []string) cors.Options {
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	return cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", RequestIDHeader},
		ExposedHeaders:   []string{RequestIDHeader},
		AllowCredentials: !slices.Contains(allowedOrigins, "*"),
		MaxAge:           300,
	}
}
