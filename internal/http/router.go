package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/time/rate"

	"gitea.jw6.us/james/rolodex/internal/api"
	"gitea.jw6.us/james/rolodex/internal/auth"
	"gitea.jw6.us/james/rolodex/internal/config"
	"gitea.jw6.us/james/rolodex/internal/http/ratelimit"
	"gitea.jw6.us/james/rolodex/internal/metrics"
	"gitea.jw6.us/james/rolodex/internal/store"
)

// NewRouter wires all HTTP routes for the contacts API.
func NewRouter(cfg *config.Config, store *store.Store, authService *auth.Service) http.Handler {
	r := chi.NewRouter()

	// API endpoints: 20 requests per second, burst of 50. Imports arrive as a
	// single request, so this leaves plenty of headroom.
	apiRateLimiter := ratelimit.NewIPRateLimiter(rate.Limit(20), 50, 5*time.Minute, cfg.TrustedProxies)

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(metrics.Middleware())

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := store.HealthCheck(ctx); err != nil {
			http.Error(w, "unready", http.StatusServiceUnavailable)
			return
		}

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	if cfg.PrometheusEnabled {
		r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
			metrics.Handler().ServeHTTP(w, r)
		})
	}

	apiHandler := api.NewHandler(cfg, store.Contacts)
	r.Route("/api", func(r chi.Router) {
		r.Use(apiRateLimiter.Middleware())
		r.Use(authService.RequireToken)
		r.Mount("/", apiHandler.Routes())
	})

	return r
}
