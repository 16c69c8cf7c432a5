package testutil

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/Shivanand-hulikatti/event-ticketing/internal/model"
)

// Users is the in-memory user store and ticket ledger.
type Users struct {
	m *Memory
}

func (s *Users) Create(_ context.Context, req model.CreateUserRequest) (*model.User, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	for _, u := range s.m.users {
		if u.Email == req.Email {
			return nil, model.ErrEmailTaken
		}
	}

	u := &model.User{
		ID:        uuid.NewString(),
		Email:     req.Email,
		Role:      model.RoleUser,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		CreatedAt: time.Now().UTC(),
		Tickets:   map[string]string{},
	}
	s.m.users[u.ID] = u
	return copyUser(u), nil
}

func (s *Users) GetByID(_ context.Context, id string) (*model.User, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	u, ok := s.m.users[id]
	if !ok {
		return nil, model.ErrUserNotFound
	}
	return copyUser(u), nil
}

func (s *Users) SetRole(_ context.Context, userID, role string) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	u, ok := s.m.users[userID]
	if !ok {
		return model.ErrUserNotFound
	}
	u.Role = role
	return nil
}

// SetTicket keeps the first token written for an event, like the SQL store.
func (s *Users) SetTicket(_ context.Context, userID, eventID, token string) (string, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	if s.m.SetTicketErr != nil {
		return "", s.m.SetTicketErr
	}
	u, ok := s.m.users[userID]
	if !ok {
		return "", model.ErrUserNotFound
	}
	if stored, ok := u.Tickets[eventID]; ok {
		return stored, nil
	}
	u.Tickets[eventID] = token
	s.m.ledgerWrites++
	return token, nil
}

func (s *Users) GetTicket(_ context.Context, userID, eventID string) (string, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	u, ok := s.m.users[userID]
	if !ok {
		return "", model.ErrUserNotFound
	}
	token, ok := u.Tickets[eventID]
	if !ok {
		return "", model.ErrTicketNotFound
	}
	return token, nil
}
