package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Shivanand-hulikatti/event-ticketing/internal/model"
)

// NewRouter builds the HTTP routes of the service.
func NewRouter(h *EventHandler) http.Handler {
	r := chi.NewRouter()

	// Global middleware stack
	r.Use(chimiddleware.Recoverer) // recover from panics, return 500
	r.Use(chimiddleware.RequestID) // attach request IDs
	r.Use(chimiddleware.RealIP)    // trust X-Forwarded-For
	r.Use(Logger)                  // structured access log
	r.Use(CORS)

	r.Get("/health", HealthCheck)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/auth", func(r chi.Router) {
		r.Post("/signup", h.Signup)
		r.With(RequireUser).Get("/me", h.Me)
	})

	r.Route("/event", func(r chi.Router) {
		r.Get("/events", h.ListEvents)
		r.With(RequireUser, h.RequireRole(model.RoleAdmin)).Post("/create-event", h.CreateEvent)
		r.Get("/{id}", h.GetEvent)
		r.With(RequireUser).Post("/{id}/attend", h.Attend)
		r.With(RequireUser).Get("/{id}/events/{event_id}/get-ticket", h.GetTicket)
	})

	r.Post("/tickets/verify", h.VerifyTicket)
	r.Get("/payments/success", h.PaymentSuccess)

	return r
}
