package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/Shivanand-hulikatti/event-ticketing/internal/log"
	"github.com/Shivanand-hulikatti/event-ticketing/internal/metrics"
	"github.com/Shivanand-hulikatti/event-ticketing/internal/model"
	"github.com/Shivanand-hulikatti/event-ticketing/internal/payment"
	"github.com/Shivanand-hulikatti/event-ticketing/internal/ticket"
)

// Registration outcomes.
const (
	StatusIssued         = "issued"
	StatusPaymentPending = "payment_pending"
)

// RegistrationResult is what Attend hands back: either a ticket or a
// checkout URL the user must complete.
type RegistrationResult struct {
	Status        string       `json:"status"`
	Ticket        string       `json:"ticket,omitempty"`
	AlreadyIssued bool         `json:"already_issued,omitempty"`
	CheckoutURL   string       `json:"checkout_url,omitempty"`
	SessionID     string       `json:"session_id,omitempty"`
	Event         *model.Event `json:"event,omitempty"`
}

// IssueRequest identifies the seat to issue.
type IssueRequest struct {
	EventID     string
	User        *model.User
	TicketClass model.TicketClass
}

// Issuance is the result of Issue.
type Issuance struct {
	Token         string
	Claims        model.TicketClaims
	Event         *model.Event
	AlreadyIssued bool
}

// RegistrationService drives a registration from request to issued ticket.
type RegistrationService struct {
	events  AttendeeStore
	users   UserStore
	ledger  TicketLedger
	pending PendingStore
	gateway PaymentGateway
	codec   *ticket.Codec
	locker  Locker
	bus     Publisher
	now     func() time.Time
}

// NewRegistrationService constructs a RegistrationService with its dependencies.
func NewRegistrationService(
	events AttendeeStore,
	users UserStore,
	ledger TicketLedger,
	pending PendingStore,
	gateway PaymentGateway,
	codec *ticket.Codec,
	locker Locker,
	bus Publisher,
) *RegistrationService {
	return &RegistrationService{
		events:  events,
		users:   users,
		ledger:  ledger,
		pending: pending,
		gateway: gateway,
		codec:   codec,
		locker:  locker,
		bus:     bus,
		now:     time.Now,
	}
}

// Attend registers userID for eventID. Free classes are issued synchronously;
// paid classes end in a checkout URL and resume in ReconciliationService.
func (s *RegistrationService) Attend(ctx context.Context, userID, eventID, ticketType string) (*RegistrationResult, error) {
	class, err := model.ParseTicketClass(ticketType)
	if err != nil {
		return nil, err
	}
	if eventID == "" {
		return nil, model.ValidationError("event id is required")
	}
	if userID == "" {
		return nil, model.ValidationError("user id is required")
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}

	token, err := s.ledger.GetTicket(ctx, userID, eventID)
	switch {
	case err == nil:
		metrics.RegistrationsStarted.WithLabelValues(string(class), "existing").Inc()
		return &RegistrationResult{Status: StatusIssued, Ticket: token, AlreadyIssued: true}, nil
	case !errors.Is(err, model.ErrTicketNotFound):
		return nil, fmt.Errorf("check ledger: %w", err)
	}

	fee, err := s.events.GetFee(ctx, eventID, class)
	if err != nil {
		return nil, fmt.Errorf("resolve fee: %w", err)
	}
	if fee.IsNegative() {
		return nil, model.ValidationError("ticket fee must not be negative")
	}

	if fee.IsZero() {
		metrics.RegistrationsStarted.WithLabelValues(string(class), "free").Inc()
		issued, err := s.Issue(ctx, IssueRequest{EventID: eventID, User: user, TicketClass: class})
		if err != nil {
			return nil, err
		}
		return &RegistrationResult{
			Status:        StatusIssued,
			Ticket:        issued.Token,
			AlreadyIssued: issued.AlreadyIssued,
			Event:         issued.Event,
		}, nil
	}

	metrics.RegistrationsStarted.WithLabelValues(string(class), "paid").Inc()
	return s.startCheckout(ctx, user, eventID, class, fee)
}

func (s *RegistrationService) startCheckout(
	ctx context.Context,
	user *model.User,
	eventID string,
	class model.TicketClass,
	fee decimal.Decimal,
) (*RegistrationResult, error) {
	logger := log.FromContext(ctx).WithField("event_id", eventID).WithField("user_id", user.ID)

	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("get event: %w", err)
	}

	now := s.now().UTC()
	pending := model.PendingRegistration{
		ID:          uuid.NewString(),
		UserID:      user.ID,
		EventID:     eventID,
		TicketClass: class,
		Amount:      fee,
		Status:      model.PendingStatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.pending.Create(ctx, pending); err != nil {
		return nil, fmt.Errorf("save pending registration: %w", err)
	}

	intent := model.RegistrationIntent{
		UserID:      user.ID,
		UserEmail:   user.Email,
		EventID:     eventID,
		TicketClass: class,
		PendingID:   pending.ID,
	}
	session, err := s.gateway.CreateCheckoutSession(ctx, payment.CheckoutRequest{
		CustomerEmail: user.Email,
		Amount:        fee,
		EventName:     event.Name,
		TicketClass:   class,
		Metadata:      intent.Metadata(),
	})
	if err != nil {
		if serr := s.pending.SetStatus(ctx, pending.ID, model.PendingStatusFailed); serr != nil {
			logger.WithError(serr).Warn("could not mark pending registration failed")
		}
		if !errors.Is(err, model.ErrUpstream) && !errors.Is(err, model.ErrValidation) {
			err = fmt.Errorf("%w: %v", model.ErrPaymentGateway, err)
		}
		return nil, fmt.Errorf("create checkout session: %w", err)
	}

	// Reconciliation falls back to the session metadata when this fails.
	if err := s.pending.AttachSession(ctx, pending.ID, session.ID); err != nil {
		logger.WithError(err).WithField("session_id", session.ID).Warn("could not attach checkout session to pending registration")
	}

	logger.WithField("session_id", session.ID).Info("checkout session created")
	return &RegistrationResult{
		Status:      StatusPaymentPending,
		CheckoutURL: session.URL,
		SessionID:   session.ID,
		Event:       event,
	}, nil
}

// Issue records the seat and stores a freshly signed ticket in the ledger.
// It runs under a per (event, user) lock and the first successful issuance
// wins: a repeat call returns the stored ticket unchanged.
func (s *RegistrationService) Issue(ctx context.Context, req IssueRequest) (*Issuance, error) {
	if req.User == nil {
		return nil, model.ValidationError("user is required")
	}
	if _, err := model.ParseTicketClass(string(req.TicketClass)); err != nil {
		return nil, err
	}
	userID := req.User.ID
	logger := log.FromContext(ctx).WithField("event_id", req.EventID).WithField("user_id", userID)

	unlock, err := s.locker.Lock(ctx, registrationKey(req.EventID, userID))
	if err != nil {
		return nil, fmt.Errorf("lock registration: %w", err)
	}
	defer unlock()

	if token, err := s.ledger.GetTicket(ctx, userID, req.EventID); err == nil {
		return &Issuance{Token: token, AlreadyIssued: true}, nil
	} else if !errors.Is(err, model.ErrTicketNotFound) {
		return nil, fmt.Errorf("check ledger: %w", err)
	}

	event, err := s.events.GetByID(ctx, req.EventID)
	if err != nil {
		return nil, fmt.Errorf("get event: %w", err)
	}

	class := req.TicketClass
	claims, token, err := signTicket(s.codec, event, req.User, class)
	if err != nil {
		return nil, err
	}

	err = s.events.AddAttendee(ctx, event.ID, userID, class)
	switch {
	case errors.Is(err, model.ErrAlreadyAttending):
		// Seat recorded by a concurrent issuer or by an attempt that never
		// reached the ledger.
		recorded, cerr := s.events.AttendeeClass(ctx, event.ID, userID)
		if cerr != nil {
			return nil, fmt.Errorf("read recorded attendee: %w", cerr)
		}
		if recorded != class {
			logger.WithFields(logrus.Fields{
				"requested_ticket_class": class,
				"recorded_ticket_class":  recorded,
				"needs_reconciliation":   true,
			}).Error("recorded seat class differs from requested class, issuing recorded class")
			class = recorded
			if claims, token, err = signTicket(s.codec, event, req.User, class); err != nil {
				return nil, err
			}
		} else {
			logger.WithField("ticket_class", recorded).Warn("attendee without ledger entry, completing ledger")
		}
	case err != nil:
		return nil, fmt.Errorf("add attendee: %w", err)
	default:
		event.AddAttendee(userID, class)
	}

	stored, err := s.ledger.SetTicket(ctx, userID, event.ID, token)
	if err != nil {
		metrics.LedgerInconsistencies.Inc()
		logger.WithError(err).WithField("needs_reconciliation", true).
			Error("attendee recorded but ledger write failed")
		repair := model.LedgerRepairRequested{
			Header:  model.NewEventHeader(),
			EventID: event.ID,
			UserID:  userID,
			Reason:  err.Error(),
		}
		if perr := s.bus.Publish(ctx, repair); perr != nil {
			logger.WithError(perr).Error("could not request ledger repair")
		}
		return nil, fmt.Errorf("store ticket in ledger: %w", err)
	}
	if stored != token {
		// Another issuer without our lock stored its ticket first.
		logger.Info("ticket already issued concurrently, returning stored ticket")
		issued := &Issuance{Token: stored, Event: event, AlreadyIssued: true}
		if c, err := s.codec.Decode(stored); err == nil {
			issued.Claims = c
		}
		return issued, nil
	}

	metrics.TicketsIssued.WithLabelValues(string(class)).Inc()
	issued := model.TicketIssued{
		Header:      model.NewEventHeader(),
		TicketID:    claims.TicketID,
		EventID:     event.ID,
		UserID:      userID,
		TicketClass: class,
	}
	if err := s.bus.Publish(ctx, issued); err != nil {
		logger.WithError(err).Warn("could not publish TicketIssued")
	}

	logger.WithField("ticket_id", claims.TicketID).Info("ticket issued")
	return &Issuance{Token: token, Claims: claims, Event: event}, nil
}

func signTicket(codec *ticket.Codec, event *model.Event, user *model.User, class model.TicketClass) (model.TicketClaims, string, error) {
	claims := model.NewTicketClaims(uuid.NewString(), event, user, class)
	token, err := codec.Encode(claims)
	if err != nil {
		return model.TicketClaims{}, "", fmt.Errorf("encode ticket: %w", err)
	}
	return claims, token, nil
}

func registrationKey(eventID, userID string) string {
	return "registration:" + eventID + ":" + userID
}

// Ticket returns the ticket userID holds for eventID and its verified claims.
func (s *RegistrationService) Ticket(ctx context.Context, userID, eventID string) (string, model.TicketClaims, error) {
	token, err := s.ledger.GetTicket(ctx, userID, eventID)
	if err != nil {
		return "", model.TicketClaims{}, fmt.Errorf("get ticket: %w", err)
	}
	claims, err := s.codec.Decode(token)
	if err != nil {
		return "", model.TicketClaims{}, err
	}
	return token, claims, nil
}
