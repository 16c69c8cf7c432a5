package payment

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/Shivanand-hulikatti/event-ticketing/internal/model"
)

// Mock is an in-memory gateway. Sessions are created unpaid; tests settle
// them with Pay.
type Mock struct {
	mu       sync.Mutex
	sessions map[string]*Session
	requests []CheckoutRequest

	// Err, when set, is returned by every call.
	Err error
}

// NewMock constructs an empty Mock.
func NewMock() *Mock {
	return &Mock{sessions: map[string]*Session{}}
}

func (m *Mock) CreateCheckoutSession(_ context.Context, req CheckoutRequest) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrPaymentGateway, m.Err)
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	id := "cs_test_" + uuid.NewString()
	md := make(map[string]string, len(req.Metadata))
	for k, v := range req.Metadata {
		md[k] = v
	}
	s := &Session{ID: id, URL: "https://checkout.example.com/pay/" + id, Metadata: md}
	m.sessions[id] = s
	m.requests = append(m.requests, req)

	cp := *s
	return &cp, nil
}

func (m *Mock) RetrieveSession(_ context.Context, sessionID string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrPaymentGateway, m.Err)
	}
	s, ok := m.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("%w: no such checkout session %s", model.ErrPaymentGateway, sessionID)
	}
	cp := *s
	return &cp, nil
}

// Pay marks a session as paid.
func (m *Mock) Pay(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[sessionID]; ok {
		s.Paid = true
	}
}

// AddSession registers a session directly, e.g. one with broken metadata.
func (m *Mock) AddSession(s Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = &s
}

// Requests returns every checkout request received.
func (m *Mock) Requests() []CheckoutRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]CheckoutRequest(nil), m.requests...)
}
