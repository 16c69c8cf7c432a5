// Package handler contains chi HTTP handlers that translate HTTP
// requests/responses to and from the service layer.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Shivanand-hulikatti/event-ticketing/internal/log"
	"github.com/Shivanand-hulikatti/event-ticketing/internal/model"
	"github.com/Shivanand-hulikatti/event-ticketing/internal/service"
	"github.com/Shivanand-hulikatti/event-ticketing/internal/ticket"
)

// EventHandler holds all HTTP handlers for the ticketing API.
type EventHandler struct {
	events        *service.EventService
	registrations *service.RegistrationService
	reconciler    *service.ReconciliationService
	verifier      *ticket.Verifier
}

// NewEventHandler constructs an EventHandler.
func NewEventHandler(
	events *service.EventService,
	registrations *service.RegistrationService,
	reconciler *service.ReconciliationService,
	verifier *ticket.Verifier,
) *EventHandler {
	return &EventHandler{
		events:        events,
		registrations: registrations,
		reconciler:    reconciler,
		verifier:      verifier,
	}
}

// ─── Helper utilities ─────────────────────────────────────────────────────────

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, model.ErrorResponse{Error: msg})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1 MB limit
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// statusFor maps an error category to its HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, model.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, model.ErrValidation), errors.Is(err, model.ErrMetadata):
		return http.StatusBadRequest
	case errors.Is(err, model.ErrToken):
		return http.StatusUnauthorized
	case errors.Is(err, model.ErrPaymentRequired):
		return http.StatusPaymentRequired
	case errors.Is(err, model.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, model.ErrUpstream):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// writeServiceError writes err with its mapped status. Internal failures
// are logged and reported without detail.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		log.FromContext(r.Context()).WithError(err).Error("request failed")
	}
	if status == http.StatusInternalServerError {
		writeError(w, status, "internal server error")
		return
	}
	writeError(w, status, err.Error())
}

// ─── Accounts ─────────────────────────────────────────────────────────────────

// Signup handles POST /auth/signup
func (h *EventHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req model.CreateUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	user, err := h.events.CreateUser(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, user)
}

// Me handles GET /auth/me
// Returns the calling user including their ticket ledger.
func (h *EventHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.events.GetUser(r.Context(), UserIDFromContext(r.Context()))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// ─── Events ───────────────────────────────────────────────────────────────────

// CreateEvent handles POST /event/create-event
func (h *EventHandler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var req model.CreateEventRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	event, err := h.events.CreateEvent(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, event)
}

// ListEvents handles GET /event/events
func (h *EventHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.events.ListEvents(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	// Return an empty array rather than null for better client compatibility.
	if events == nil {
		events = []model.Event{}
	}

	writeJSON(w, http.StatusOK, events)
}

// GetEvent handles GET /event/{id}
func (h *EventHandler) GetEvent(w http.ResponseWriter, r *http.Request) {
	event, err := h.events.GetEvent(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, event)
}

// ─── Registration ─────────────────────────────────────────────────────────────

// Attend handles POST /event/{id}/attend
// A free ticket is issued immediately (201); a paid one answers with the
// checkout URL to complete (200).
func (h *EventHandler) Attend(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "id")

	var req model.AttendRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.EventID != "" && req.EventID != eventID {
		writeError(w, http.StatusBadRequest, "event_id does not match the event in the path")
		return
	}

	res, err := h.registrations.Attend(r.Context(), UserIDFromContext(r.Context()), eventID, req.TicketType)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	status := http.StatusOK
	if res.Status == service.StatusIssued && !res.AlreadyIssued {
		status = http.StatusCreated
	}
	writeJSON(w, status, res)
}

type ticketResponse struct {
	Token  string             `json:"token"`
	Claims model.TicketClaims `json:"claims"`
}

// GetTicket handles GET /event/{id}/events/{event_id}/get-ticket
// where {id} is the ticket holder and must be the caller.
func (h *EventHandler) GetTicket(w http.ResponseWriter, r *http.Request) {
	holderID := chi.URLParam(r, "id")
	if UserIDFromContext(r.Context()) != holderID {
		writeError(w, http.StatusForbidden, "cannot read another user's ticket")
		return
	}

	token, claims, err := h.registrations.Ticket(r.Context(), holderID, chi.URLParam(r, "event_id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, ticketResponse{Token: token, Claims: claims})
}

// VerifyTicket handles POST /tickets/verify
// Checks a presented ticket without touching the database.
func (h *EventHandler) VerifyTicket(w http.ResponseWriter, r *http.Request) {
	var req model.VerifyTicketRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Token == "" {
		writeError(w, http.StatusBadRequest, "token is required")
		return
	}

	claims, err := h.verifier.VerifyFor(req.Token, req.EventID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, ticketResponse{Token: req.Token, Claims: claims})
}

// PaymentSuccess handles GET /payments/success?session_id=
// The gateway redirects here after checkout; repeat deliveries return the
// ticket already issued.
func (h *EventHandler) PaymentSuccess(w http.ResponseWriter, r *http.Request) {
	res, err := h.reconciler.OnPaymentSuccess(r.Context(), r.URL.Query().Get("session_id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, res)
}

// ─── Health check ─────────────────────────────────────────────────────────────

// HealthCheck handles GET /health
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
