package testutil

import (
	"context"
	"time"

	"github.com/Shivanand-hulikatti/event-ticketing/internal/model"
)

// Pending is the in-memory pending registration store.
type Pending struct {
	m *Memory
}

func (s *Pending) Create(_ context.Context, p model.PendingRegistration) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	p.UpdatedAt = p.CreatedAt
	s.m.pending[p.ID] = &p
	return nil
}

func (s *Pending) AttachSession(_ context.Context, id, sessionID string) error {
	return s.update(id, func(p *model.PendingRegistration) { p.SessionID = sessionID })
}

func (s *Pending) SetStatus(_ context.Context, id, status string) error {
	return s.update(id, func(p *model.PendingRegistration) { p.Status = status })
}

func (s *Pending) update(id string, fn func(*model.PendingRegistration)) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	p, ok := s.m.pending[id]
	if !ok {
		return model.ErrPendingNotFound
	}
	fn(p)
	p.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *Pending) GetBySession(_ context.Context, sessionID string) (*model.PendingRegistration, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	for _, p := range s.m.pending {
		if p.SessionID == sessionID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, model.ErrPendingNotFound
}
