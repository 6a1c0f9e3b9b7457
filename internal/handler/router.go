package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"activities-web/internal/container"
	"activities-web/internal/middleware"
)

// NewRouter configures the HTTP routes
func NewRouter(c *container.Container) http.Handler {
	cfg := c.GetConfig()
	log := c.GetLogger()

	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(middleware.RequestLogger(log.Named("http")))
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Compress(5))
	r.Use(chiMiddleware.Timeout(60 * time.Second))

	healthHandler := NewHealthHandler(c)
	pageHandler := NewPageHandler(c.GetReconciler(), log)

	r.Get("/health", healthHandler.Check)

	r.Group(func(r chi.Router) {
		r.Use(middleware.ViewSession(c.GetSigner(), cfg.Environment == "production", log))

		r.Get("/", pageHandler.Index)
		r.Get("/partials/activities", pageHandler.Partial)
		r.Post("/signup", pageHandler.Signup)
		r.Post("/participants/{entryID}/unregister", pageHandler.Unregister)
		r.Post("/refresh", pageHandler.Refresh)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Not Found", http.StatusNotFound)
	})

	log.Info("Router configured successfully")
	return otelhttp.NewHandler(r, "activities-web")
}
