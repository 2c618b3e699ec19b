package middleware

import (
	"net/http"
	"strings"

	"github.com/go-chi/cors"
)

var defaultCORSOrigins = []string{
	"http://localhost:3000", // local dev
}

// CORS returns middleware that applies the API's allowed origin policy.
// The storefront origin from config is appended to the defaults.
func CORS(frontendBaseURL string) func(http.Handler) http.Handler {
	origins := defaultCORSOrigins
	if url := strings.TrimRight(strings.TrimSpace(frontendBaseURL), "/"); url != "" {
		origins = append(origins, url)
	}
	return cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key", "X-Requested-With"},
		AllowCredentials: true,
		MaxAge:           300,
	}).Handler
}
