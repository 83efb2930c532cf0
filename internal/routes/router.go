package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"upfitter/showroom/internal/api"
	"upfitter/showroom/internal/logging"
	"upfitter/showroom/internal/middleware"
)

// PublicPrefixes are served to any origin.
var PublicPrefixes = []string{"/api/discovery"}

func RegisterRoutes(deps *api.Dependencies, upSince time.Time) http.Handler {

	// initialize Chi router
	r := chi.NewRouter()

	allowedOrigin := deps.Config.HTTP.AllowedOrigin

	// global middleware
	r.Use(middleware.RequestIDMiddleware)
	r.Use(middleware.PreviewMiddleware(deps.Signer))
	r.Use(middleware.MetricsMiddleware(deps.Metrics))

	r.Use(cors.Handler(cors.Options{
		AllowOriginFunc: func(r *http.Request, origin string) bool {
			return origin == allowedOrigin || isPublic(r.URL.Path)
		},
		AllowedMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:     []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:     []string{"X-Request-ID"},
		AllowCredentials:   true,
		OptionsPassthrough: true,
		MaxAge:             300, // Maximum value not ignored by any of major browsers
	}))
	// Fixed headers on every response, including errors and preflights.
	r.Use(middleware.StaticCORS(allowedOrigin, PublicPrefixes...))
	// After CORS so 429s carry the headers and preflights are not counted.
	r.Use(middleware.RateLimitMiddleware(deps.Config.RateLimit, deps.Metrics))

	logging.Info("Router initialized with metrics and logging middleware", "allowed_origin", allowedOrigin)
	// health check
	r.Get("/healthCheck", api.HealthCheckHandler(deps, upSince))

	handlers := api.NewHandlers(deps)
	RegisterAPIRoutes(r, handlers)

	return r
}

func isPublic(path string) bool {
	for _, p := range PublicPrefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}
