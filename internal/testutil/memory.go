package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/Shivanand-hulikatti/event-ticketing/internal/model"
)

// Memory holds every record; Events, Users and Pending expose repository
// shaped views of it.
type Memory struct {
	mu        sync.Mutex
	events    map[string]*model.Event
	attendees map[string]map[string]model.Attendee
	users     map[string]*model.User
	pending   map[string]*model.PendingRegistration

	attendeeWrites int
	ledgerWrites   int

	// SetTicketErr, when set, fails every ledger write.
	SetTicketErr error
}

// NewMemory constructs an empty store.
func NewMemory() *Memory {
	return &Memory{
		events:    map[string]*model.Event{},
		attendees: map[string]map[string]model.Attendee{},
		users:     map[string]*model.User{},
		pending:   map[string]*model.PendingRegistration{},
	}
}

// Events returns the event store view.
func (m *Memory) Events() *Events { return &Events{m: m} }

// Users returns the user and ledger view.
func (m *Memory) Users() *Users { return &Users{m: m} }

// Pending returns the pending registration view.
func (m *Memory) Pending() *Pending { return &Pending{m: m} }

// SeedEvent stores an event priced general/vip and returns it.
func (m *Memory) SeedEvent(name string, general, vip decimal.Decimal) *model.Event {
	e, _ := m.Events().Create(context.Background(), model.CreateEventRequest{
		Name:         name,
		Category:     "music",
		Location:     "Main Hall",
		Date:         time.Date(2099, time.July, 4, 19, 0, 0, 0, time.UTC),
		GeneralPrice: general,
		VIPPrice:     vip,
	})
	return e
}

// SeedUser stores a user and returns it.
func (m *Memory) SeedUser(first, last string) *model.User {
	u, _ := m.Users().Create(context.Background(), model.CreateUserRequest{
		Email:     uuid.NewString() + "@example.com",
		FirstName: first,
		LastName:  last,
	})
	return u
}

// SeedAdmin stores a user holding the admin role and returns it.
func (m *Memory) SeedAdmin(first, last string) *model.User {
	u := m.SeedUser(first, last)
	_ = m.Users().SetRole(context.Background(), u.ID, model.RoleAdmin)
	u.Role = model.RoleAdmin
	return u
}

// Mutations is the number of successful attendee and ledger writes.
func (m *Memory) Mutations() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.attendeeWrites + m.ledgerWrites
}

// AttendeeCount is the number of attendees across both sets of an event.
func (m *Memory) AttendeeCount(eventID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.attendees[eventID])
}

// PendingRegistrations returns a copy of every pending registration.
func (m *Memory) PendingRegistrations() []model.PendingRegistration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return lo.Map(lo.Values(m.pending), func(p *model.PendingRegistration, _ int) model.PendingRegistration {
		return *p
	})
}

func copyEvent(e *model.Event) *model.Event {
	cp := *e
	cp.GeneralAttendeeIDs = append([]string{}, e.GeneralAttendeeIDs...)
	cp.VIPAttendeeIDs = append([]string{}, e.VIPAttendeeIDs...)
	return &cp
}

func copyUser(u *model.User) *model.User {
	cp := *u
	cp.Tickets = lo.Assign(u.Tickets)
	return &cp
}
