package model

import (
	"time"

	"github.com/google/uuid"
)

// DomainEvent is a fact published on the message bus.
type DomainEvent interface {
	EventName() string
}

// EventHeader is carried by every published event.
type EventHeader struct {
	ID          string    `json:"id"`
	PublishedAt time.Time `json:"published_at"`
}

// NewEventHeader returns a header with a fresh id.
func NewEventHeader() EventHeader {
	return EventHeader{
		ID:          uuid.NewString(),
		PublishedAt: time.Now().UTC(),
	}
}

// TicketIssued is published once a ticket has been committed to both the
// attendee set and the ledger.
type TicketIssued struct {
	Header      EventHeader `json:"header"`
	TicketID    string      `json:"ticket_id"`
	EventID     string      `json:"event_id"`
	UserID      string      `json:"user_id"`
	TicketClass TicketClass `json:"ticket_type"`
}

func (TicketIssued) EventName() string { return "TicketIssued" }

// LedgerRepairRequested is published when an attendee was recorded but the
// ledger write that should have followed failed.
type LedgerRepairRequested struct {
	Header  EventHeader `json:"header"`
	EventID string      `json:"event_id"`
	UserID  string      `json:"user_id"`
	Reason  string      `json:"reason"`
}

func (LedgerRepairRequested) EventName() string { return "LedgerRepairRequested" }
