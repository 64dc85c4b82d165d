package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

// CORS answers browser preflights before routing, so OPTIONS never reaches
// the authenticated handlers.
func (m *Middleware) CORS() func(http.Handler) http.Handler {
	origins := m.cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"X-Trace-Id"},
		AllowCredentials: true,
		MaxAge:           300,
	})
}
