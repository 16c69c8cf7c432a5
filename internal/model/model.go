// Package model defines the core domain types for the event ticketing system.
package model

import (
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// TicketClass is the seat class a ticket is issued for.
type TicketClass string

const (
	TicketGeneral TicketClass = "General"
	TicketVIP     TicketClass = "VIP"
)

// TicketClasses lists every supported class.
var TicketClasses = []TicketClass{TicketGeneral, TicketVIP}

// ParseTicketClass returns the class named by s or ErrInvalidTicketClass.
func ParseTicketClass(s string) (TicketClass, error) {
	c := TicketClass(strings.TrimSpace(s))
	if !lo.Contains(TicketClasses, c) {
		return "", ErrInvalidTicketClass
	}
	return c, nil
}

// Event represents an event users can attend.
type Event struct {
	ID                 string          `json:"id"`
	Name               string          `json:"name"`
	Description        string          `json:"description"`
	Category           string          `json:"category"`
	Location           string          `json:"location"`
	Date               time.Time       `json:"date"`
	CreatedAt          time.Time       `json:"created_at"`
	GeneralPrice       decimal.Decimal `json:"general_price"`
	VIPPrice           decimal.Decimal `json:"vip_price"`
	GeneralAttendeeIDs []string        `json:"general_attendee_ids"`
	VIPAttendeeIDs     []string        `json:"vip_attendee_ids"`
}

// Price returns the fee for the given class.
func (e *Event) Price(class TicketClass) (decimal.Decimal, error) {
	switch class {
	case TicketGeneral:
		return e.GeneralPrice, nil
	case TicketVIP:
		return e.VIPPrice, nil
	}
	return decimal.Zero, ErrInvalidTicketClass
}

// IsAttending reports whether userID appears in either attendee set.
func (e *Event) IsAttending(userID string) bool {
	return lo.Contains(e.GeneralAttendeeIDs, userID) || lo.Contains(e.VIPAttendeeIDs, userID)
}

// AddAttendee puts userID into the set for class unless it is already in one.
func (e *Event) AddAttendee(userID string, class TicketClass) {
	if e.IsAttending(userID) {
		return
	}
	if class == TicketVIP {
		e.VIPAttendeeIDs = append(e.VIPAttendeeIDs, userID)
		return
	}
	e.GeneralAttendeeIDs = append(e.GeneralAttendeeIDs, userID)
}

// Attendee is one member of an event's attendee sets.
type Attendee struct {
	EventID     string      `json:"event_id"`
	UserID      string      `json:"user_id"`
	TicketClass TicketClass `json:"ticket_type"`
	CreatedAt   time.Time   `json:"created_at"`
}

// Account roles. Only admins may create events.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// ParseRole returns role if it names a known account role.
func ParseRole(role string) (string, error) {
	role = strings.TrimSpace(role)
	if role != RoleUser && role != RoleAdmin {
		return "", ErrInvalidRole
	}
	return role, nil
}

// User is an account holder. Tickets maps event id to signed ticket token.
type User struct {
	ID        string            `json:"id"`
	Email     string            `json:"email"`
	Role      string            `json:"role"`
	FirstName string            `json:"first_name"`
	LastName  string            `json:"last_name"`
	CreatedAt time.Time         `json:"created_at"`
	Tickets   map[string]string `json:"tickets,omitempty"`
}

// TicketClaims is the payload carried inside a signed ticket token.
type TicketClaims struct {
	TicketID      string      `json:"ticket_id"`
	EventID       string      `json:"event_id"`
	UserID        string      `json:"user_id"`
	FirstName     string      `json:"first_name"`
	LastName      string      `json:"last_name"`
	TicketClass   TicketClass `json:"ticket_type"`
	EventName     string      `json:"event_name"`
	EventDate     time.Time   `json:"event_date"`
	EventLocation string      `json:"event_location"`
}

// NewTicketClaims snapshots the event and holder into a fresh set of claims.
func NewTicketClaims(ticketID string, event *Event, user *User, class TicketClass) TicketClaims {
	return TicketClaims{
		TicketID:      ticketID,
		EventID:       event.ID,
		UserID:        user.ID,
		FirstName:     user.FirstName,
		LastName:      user.LastName,
		TicketClass:   class,
		EventName:     event.Name,
		EventDate:     event.Date.UTC(),
		EventLocation: event.Location,
	}
}

// Pending registration states.
const (
	PendingStatusPending   = "pending"
	PendingStatusCompleted = "completed"
	PendingStatusFailed    = "failed"
)

// PendingRegistration is the local record of a paid registration awaiting
// payment confirmation.
type PendingRegistration struct {
	ID          string          `json:"id"`
	SessionID   string          `json:"session_id,omitempty"`
	UserID      string          `json:"user_id"`
	EventID     string          `json:"event_id"`
	TicketClass TicketClass     `json:"ticket_type"`
	Amount      decimal.Decimal `json:"amount"`
	Status      string          `json:"status"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// CreateEventRequest is the payload for creating a new event.
type CreateEventRequest struct {
	Name         string          `json:"name"`
	Description  string          `json:"description"`
	Category     string          `json:"type"`
	Location     string          `json:"location"`
	Date         time.Time       `json:"date"`
	GeneralPrice decimal.Decimal `json:"general_price"`
	VIPPrice     decimal.Decimal `json:"vip_price"`
}

// CreateUserRequest is the payload for creating a user record.
type CreateUserRequest struct {
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// AttendRequest is the payload for registering for an event.
type AttendRequest struct {
	EventID    string `json:"event_id,omitempty"`
	TicketType string `json:"ticket_type"`
}

// VerifyTicketRequest is the payload for checking a ticket token.
type VerifyTicketRequest struct {
	Token   string `json:"token"`
	EventID string `json:"event_id,omitempty"`
}

// ErrorResponse is a standard JSON error envelope.
type ErrorResponse struct {
	Error string `json:"error"`
}
