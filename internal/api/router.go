package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/watchtowerx/wtx-backend/internal/metrics"
	"github.com/watchtowerx/wtx-backend/internal/middleware"
)

// RouterConfig collects the handlers and cross-cutting middleware. Notify,
// SMS, Auth, RateLimit and Metrics are optional; absent pieces leave their
// routes unregistered or act as passthroughs.
type RouterConfig struct {
	Events    *EventHandler
	Notify    *NotifyHandler
	SMS       *SMSHandler
	Auth      *middleware.JWTAuth
	RateLimit func(http.Handler) http.Handler
	Metrics   *metrics.Collector
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestLogger)
	r.Use(middleware.CORS)
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware)
	}
	if cfg.RateLimit != nil {
		r.Use(cfg.RateLimit)
	}

	protect := func(h http.HandlerFunc) http.Handler {
		if cfg.Auth == nil {
			return h
		}
		return cfg.Auth.Middleware(h)
	}

	r.Route("/api", func(r chi.Router) {
		r.Post("/event", cfg.Events.Create)
		r.Get("/events", cfg.Events.List)
		r.Method(http.MethodDelete, "/events", protect(cfg.Events.Delete))
		r.Method(http.MethodGet, "/events/export", protect(cfg.Events.ExportCSV))
		r.Method(http.MethodGet, "/events/export.json", protect(cfg.Events.ExportJSON))
		r.Get("/events/raw", cfg.Events.Raw)

		if cfg.Notify != nil {
			r.Post("/notify", cfg.Notify.Dispatch)
		}
		if cfg.SMS != nil {
			r.Post("/sms-event", cfg.SMS.Send)
		}
	})

	r.Get("/health", Health)
	r.Get("/", Root)
	if cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.Metrics.Handler())
	}

	return r
}
