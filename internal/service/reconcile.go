package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/Shivanand-hulikatti/event-ticketing/internal/log"
	"github.com/Shivanand-hulikatti/event-ticketing/internal/metrics"
	"github.com/Shivanand-hulikatti/event-ticketing/internal/model"
)

// Issuer performs the issuance procedure.
type Issuer interface {
	Issue(ctx context.Context, req IssueRequest) (*Issuance, error)
}

// ReconciliationResult is returned to the payment success callback.
type ReconciliationResult struct {
	SessionID     string            `json:"session_id"`
	EventID       string            `json:"event_id"`
	UserID        string            `json:"user_id"`
	TicketClass   model.TicketClass `json:"ticket_type"`
	Ticket        string            `json:"ticket"`
	AlreadyIssued bool              `json:"already_issued"`
}

// ReconciliationService turns a paid checkout session into an issued ticket.
type ReconciliationService struct {
	gateway PaymentGateway
	pending PendingStore
	users   UserStore
	ledger  TicketLedger
	issuer  Issuer
}

// NewReconciliationService constructs a ReconciliationService.
func NewReconciliationService(
	gateway PaymentGateway,
	pending PendingStore,
	users UserStore,
	ledger TicketLedger,
	issuer Issuer,
) *ReconciliationService {
	return &ReconciliationService{
		gateway: gateway,
		pending: pending,
		users:   users,
		ledger:  ledger,
		issuer:  issuer,
	}
}

// OnPaymentSuccess issues the ticket paid for in sessionID. The gateway may
// deliver the same session more than once; every delivery after the first
// returns the ticket already in the ledger.
func (s *ReconciliationService) OnPaymentSuccess(ctx context.Context, sessionID string) (*ReconciliationResult, error) {
	if sessionID == "" {
		return nil, model.ValidationError("session_id is required")
	}
	logger := log.FromContext(ctx).WithField("session_id", sessionID)

	session, err := s.gateway.RetrieveSession(ctx, sessionID)
	if err != nil {
		metrics.Reconciliations.WithLabelValues("gateway_error").Inc()
		if !errors.Is(err, model.ErrUpstream) {
			err = fmt.Errorf("%w: %v", model.ErrPaymentGateway, err)
		}
		return nil, fmt.Errorf("retrieve checkout session: %w", err)
	}

	intent, err := model.IntentFromMetadata(session.Metadata)
	if err != nil {
		metrics.Reconciliations.WithLabelValues("bad_metadata").Inc()
		logger.WithError(err).Warn("checkout session carries no usable registration intent")
		return nil, err
	}
	if !session.Paid {
		metrics.Reconciliations.WithLabelValues("unpaid").Inc()
		return nil, model.ErrPaymentNotCompleted
	}

	pending, err := s.pending.GetBySession(ctx, sessionID)
	switch {
	case err == nil:
		if pending.UserID != intent.UserID || pending.EventID != intent.EventID || pending.TicketClass != intent.TicketClass {
			metrics.Reconciliations.WithLabelValues("bad_metadata").Inc()
			return nil, fmt.Errorf("%w: session metadata does not match pending registration %s", model.ErrMetadata, pending.ID)
		}
	case errors.Is(err, model.ErrPendingNotFound):
		pending = nil
		logger.Warn("no pending registration for session, using gateway metadata")
	default:
		return nil, fmt.Errorf("get pending registration: %w", err)
	}

	result := &ReconciliationResult{
		SessionID:   sessionID,
		EventID:     intent.EventID,
		UserID:      intent.UserID,
		TicketClass: intent.TicketClass,
	}

	token, err := s.ledger.GetTicket(ctx, intent.UserID, intent.EventID)
	switch {
	case err == nil:
		result.Ticket = token
		result.AlreadyIssued = true
	case errors.Is(err, model.ErrTicketNotFound):
		user, err := s.users.GetByID(ctx, intent.UserID)
		if err != nil {
			return nil, fmt.Errorf("get user: %w", err)
		}
		issued, err := s.issuer.Issue(ctx, IssueRequest{EventID: intent.EventID, User: user, TicketClass: intent.TicketClass})
		if err != nil {
			metrics.Reconciliations.WithLabelValues("failed").Inc()
			return nil, err
		}
		result.Ticket = issued.Token
		result.AlreadyIssued = issued.AlreadyIssued
	default:
		return nil, fmt.Errorf("check ledger: %w", err)
	}

	if pending != nil && pending.Status != model.PendingStatusCompleted {
		if err := s.pending.SetStatus(ctx, pending.ID, model.PendingStatusCompleted); err != nil {
			logger.WithError(err).Warn("could not mark pending registration completed")
		}
	}

	if result.AlreadyIssued {
		metrics.Reconciliations.WithLabelValues("already_issued").Inc()
	} else {
		metrics.Reconciliations.WithLabelValues("issued").Inc()
	}
	return result, nil
}
