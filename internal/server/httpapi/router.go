// Package httpapi exposes photos over a JSON HTTP API with multipart uploads.
package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dmitrijs2005/remotefiles/internal/logging"
)

// RouterConfig holds what NewRouter wires together.
type RouterConfig struct {
	Handler   *Handler
	JWTSecret []byte
	// Gatherer serves /metrics; nil leaves the endpoint out.
	Gatherer prometheus.Gatherer
	Logger   logging.Logger
}

// NewRouter mounts the health, metrics and photo routes.
func NewRouter(c RouterConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(c.Logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		ok(w, map[string]string{"status": "ok"})
	})
	if c.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(c.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/photos", func(r chi.Router) {
		r.Use(RequireAuth(c.JWTSecret))
		r.Post("/", c.Handler.CreatePhoto)
		r.Get("/", c.Handler.ListPhotos)
		r.Get("/{id}", c.Handler.GetPhoto)
		r.Delete("/{id}", c.Handler.DeletePhoto)
	})

	return r
}
