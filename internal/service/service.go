// Package service implements business logic, validation, and orchestration
// between HTTP handlers and the repository layer.
package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Shivanand-hulikatti/event-ticketing/internal/model"
	"github.com/Shivanand-hulikatti/event-ticketing/internal/payment"
)

// EventReader reads events and their fees.
type EventReader interface {
	GetByID(ctx context.Context, id string) (*model.Event, error)
	GetFee(ctx context.Context, eventID string, class model.TicketClass) (decimal.Decimal, error)
}

// EventCatalog is the event store as seen by EventService.
type EventCatalog interface {
	EventReader
	Create(ctx context.Context, req model.CreateEventRequest) (*model.Event, error)
	List(ctx context.Context) ([]model.Event, error)
}

// AttendeeStore records seats. AddAttendee must be atomic per event.
type AttendeeStore interface {
	EventReader
	AddAttendee(ctx context.Context, eventID, userID string, class model.TicketClass) error
	AttendeeClass(ctx context.Context, eventID, userID string) (model.TicketClass, error)
}

// UserStore reads and creates users.
type UserStore interface {
	Create(ctx context.Context, req model.CreateUserRequest) (*model.User, error)
	GetByID(ctx context.Context, id string) (*model.User, error)
	SetRole(ctx context.Context, userID, role string) error
}

// TicketLedger maps (user, event) to the ticket token the user holds.
// SetTicket never replaces an entry; it returns the token actually stored.
type TicketLedger interface {
	SetTicket(ctx context.Context, userID, eventID, token string) (string, error)
	GetTicket(ctx context.Context, userID, eventID string) (string, error)
}

// PendingStore persists paid registrations awaiting payment.
type PendingStore interface {
	Create(ctx context.Context, p model.PendingRegistration) error
	AttachSession(ctx context.Context, id, sessionID string) error
	SetStatus(ctx context.Context, id, status string) error
	GetBySession(ctx context.Context, sessionID string) (*model.PendingRegistration, error)
}

// PaymentGateway creates and inspects checkout sessions.
type PaymentGateway interface {
	CreateCheckoutSession(ctx context.Context, req payment.CheckoutRequest) (*payment.Session, error)
	RetrieveSession(ctx context.Context, sessionID string) (*payment.Session, error)
}

// Locker serialises work on a key across every instance sharing it.
type Locker interface {
	Lock(ctx context.Context, key string) (func(), error)
}

// Publisher emits domain events.
type Publisher interface {
	Publish(ctx context.Context, event model.DomainEvent) error
}

// EventService orchestrates event and account operations.
type EventService struct {
	events EventCatalog
	users  UserStore
}

// NewEventService constructs an EventService with its dependencies.
func NewEventService(events EventCatalog, users UserStore) *EventService {
	return &EventService{events: events, users: users}
}

// CreateEvent validates the request and delegates to the repository.
func (s *EventService) CreateEvent(ctx context.Context, req model.CreateEventRequest) (*model.Event, error) {
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return nil, model.ValidationError("event name is required")
	}
	if req.Date.IsZero() {
		return nil, model.ValidationError("event date is required")
	}
	for class, price := range map[model.TicketClass]decimal.Decimal{
		model.TicketGeneral: req.GeneralPrice,
		model.TicketVIP:     req.VIPPrice,
	} {
		if price.IsNegative() {
			return nil, model.ValidationError(fmt.Sprintf("%s price must not be negative", class))
		}
		if !price.Equal(price.Round(2)) {
			return nil, model.ValidationError(fmt.Sprintf("%s price has more than two decimal places", class))
		}
	}

	event, err := s.events.Create(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}
	return event, nil
}

// ListEvents returns all events.
func (s *EventService) ListEvents(ctx context.Context) ([]model.Event, error) {
	events, err := s.events.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return events, nil
}

// GetEvent returns a single event by ID.
func (s *EventService) GetEvent(ctx context.Context, id string) (*model.Event, error) {
	if id == "" {
		return nil, model.ValidationError("event id is required")
	}
	event, err := s.events.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get event: %w", err)
	}
	return event, nil
}

// CreateUser validates and stores a new account.
func (s *EventService) CreateUser(ctx context.Context, req model.CreateUserRequest) (*model.User, error) {
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Email == "" {
		return nil, model.ValidationError("email is required")
	}
	if !isValidEmail(req.Email) {
		return nil, model.ValidationError("email is not a valid email address")
	}
	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)

	user, err := s.users.Create(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

// GetUser returns a single user by ID.
func (s *EventService) GetUser(ctx context.Context, id string) (*model.User, error) {
	if id == "" {
		return nil, model.ValidationError("user id is required")
	}
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

// SetRole grants role to an existing user.
func (s *EventService) SetRole(ctx context.Context, userID, role string) (*model.User, error) {
	if userID == "" {
		return nil, model.ValidationError("user id is required")
	}
	role, err := model.ParseRole(role)
	if err != nil {
		return nil, err
	}
	if err := s.users.SetRole(ctx, userID, role); err != nil {
		return nil, fmt.Errorf("set role: %w", err)
	}
	return s.GetUser(ctx, userID)
}

// isValidEmail does a basic structural check.
func isValidEmail(email string) bool {
	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return false
	}
	return len(parts[0]) > 0 && strings.Contains(parts[1], ".")
}
