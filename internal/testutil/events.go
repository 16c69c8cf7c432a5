package testutil

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Shivanand-hulikatti/event-ticketing/internal/model"
)

// Events is the in-memory event store.
type Events struct {
	m *Memory
}

func (s *Events) Create(_ context.Context, req model.CreateEventRequest) (*model.Event, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	e := &model.Event{
		ID:                 uuid.NewString(),
		Name:               req.Name,
		Description:        req.Description,
		Category:           req.Category,
		Location:           req.Location,
		Date:               req.Date.UTC(),
		CreatedAt:          time.Now().UTC(),
		GeneralPrice:       req.GeneralPrice,
		VIPPrice:           req.VIPPrice,
		GeneralAttendeeIDs: []string{},
		VIPAttendeeIDs:     []string{},
	}
	s.m.events[e.ID] = e
	s.m.attendees[e.ID] = map[string]model.Attendee{}
	return copyEvent(e), nil
}

func (s *Events) List(_ context.Context) ([]model.Event, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	events := make([]model.Event, 0, len(s.m.events))
	for _, e := range s.m.events {
		events = append(events, *copyEvent(e))
	}
	sort.Slice(events, func(i, j int) bool { return events[i].CreatedAt.After(events[j].CreatedAt) })
	return events, nil
}

func (s *Events) GetByID(_ context.Context, id string) (*model.Event, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	e, ok := s.m.events[id]
	if !ok {
		return nil, model.ErrEventNotFound
	}
	return copyEvent(e), nil
}

func (s *Events) GetFee(_ context.Context, eventID string, class model.TicketClass) (decimal.Decimal, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	e, ok := s.m.events[eventID]
	if !ok {
		return decimal.Zero, model.ErrEventNotFound
	}
	return e.Price(class)
}

// AddAttendee checks membership and appends under one critical section,
// mirroring the single conditional INSERT of the SQL store.
func (s *Events) AddAttendee(_ context.Context, eventID, userID string, class model.TicketClass) error {
	if _, err := model.ParseTicketClass(string(class)); err != nil {
		return err
	}

	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	e, ok := s.m.events[eventID]
	if !ok {
		return model.ErrEventNotFound
	}
	if _, ok := s.m.attendees[eventID][userID]; ok {
		return model.ErrAlreadyAttending
	}

	s.m.attendees[eventID][userID] = model.Attendee{
		EventID:     eventID,
		UserID:      userID,
		TicketClass: class,
		CreatedAt:   time.Now().UTC(),
	}
	e.AddAttendee(userID, class)
	s.m.attendeeWrites++
	return nil
}

func (s *Events) AttendeeClass(_ context.Context, eventID, userID string) (model.TicketClass, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	a, ok := s.m.attendees[eventID][userID]
	if !ok {
		return "", model.ErrAttendeeNotFound
	}
	return a.TicketClass, nil
}

func (s *Events) ListAttendeesWithoutTicket(_ context.Context, limit int) ([]model.Attendee, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	var missing []model.Attendee
	for eventID, attendees := range s.m.attendees {
		for userID, a := range attendees {
			u, ok := s.m.users[userID]
			if !ok {
				continue
			}
			if _, ok := u.Tickets[eventID]; !ok {
				missing = append(missing, a)
			}
		}
	}
	sort.Slice(missing, func(i, j int) bool { return missing[i].CreatedAt.Before(missing[j].CreatedAt) })
	if len(missing) > limit {
		missing = missing[:limit]
	}
	return missing, nil
}
