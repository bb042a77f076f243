// Package router wires the HTTP surface onto a chi mux.
package router

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/brightline-health/intake-ai-platform/internal/http/handlers"
	httpmiddleware "github.com/brightline-health/intake-ai-platform/internal/http/middleware"
	"github.com/brightline-health/intake-ai-platform/pkg/logging"
)

// Config holds router configuration.
type Config struct {
	Logger              *logging.Logger
	IntakeHandler       *handlers.IntakeHandler
	HistoryHandler      *handlers.HistoryHandler
	AppointmentsHandler *handlers.AppointmentsHandler
	PortalHandler       *handlers.PortalHandler
	MetricsHandler      http.Handler
	CORSAllowedOrigins  []string

	// Requests/sec per IP on the portal login; zero disables limiting.
	PortalLoginRate  float64
	PortalLoginBurst int
}

// New creates a new chi router with all routes configured.
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	r.Get("/health", healthCheck)
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	r.Route("/intake", func(r chi.Router) {
		if cfg.IntakeHandler != nil {
			r.Post("/symptom-check", cfg.IntakeHandler.SymptomCheck)
		}
		if cfg.HistoryHandler != nil {
			r.Post("/summaries", cfg.HistoryHandler.Flush)
		}
	})

	if cfg.AppointmentsHandler != nil {
		r.Route("/appointments", func(r chi.Router) {
			r.Post("/", cfg.AppointmentsHandler.Book)
			r.Get("/", cfg.AppointmentsHandler.List)
			r.Delete("/{id}", cfg.AppointmentsHandler.Cancel)
		})
	}

	if cfg.PortalHandler != nil {
		r.Route("/portal", func(r chi.Router) {
			if cfg.PortalLoginRate > 0 {
				r.Use(httpmiddleware.RateLimit(cfg.PortalLoginRate, cfg.PortalLoginBurst))
			}
			r.Post("/login", cfg.PortalHandler.Login)
		})
	}

	return r
}

func healthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
