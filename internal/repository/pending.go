package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Shivanand-hulikatti/event-ticketing/internal/model"
)

// PendingRepository stores paid registrations awaiting payment, so that the
// intent survives independently of the gateway's session metadata.
type PendingRepository struct {
	db *pgxpool.Pool
}

// NewPendingRepository constructs a PendingRepository.
func NewPendingRepository(db *pgxpool.Pool) *PendingRepository {
	return &PendingRepository{db: db}
}

// Create inserts p. The session id is attached later, once the gateway has
// created the checkout session.
func (r *PendingRepository) Create(ctx context.Context, p model.PendingRegistration) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO pending_registrations (id, user_id, event_id, ticket_class, amount, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $7)`,
		p.ID, p.UserID, p.EventID, string(p.TicketClass), p.Amount.String(), p.Status, p.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert pending registration: %w", err)
	}
	return nil
}

// AttachSession records the checkout session created for pending id.
func (r *PendingRepository) AttachSession(ctx context.Context, id, sessionID string) error {
	return r.update(ctx,
		`UPDATE pending_registrations SET session_id = $2, updated_at = $3 WHERE id = $1`,
		id, sessionID, time.Now().UTC(),
	)
}

// SetStatus moves pending id to status.
func (r *PendingRepository) SetStatus(ctx context.Context, id, status string) error {
	return r.update(ctx,
		`UPDATE pending_registrations SET status = $2, updated_at = $3 WHERE id = $1`,
		id, status, time.Now().UTC(),
	)
}

func (r *PendingRepository) update(ctx context.Context, sql string, args ...any) error {
	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update pending registration: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrPendingNotFound
	}
	return nil
}

// GetBySession returns the pending registration for a checkout session.
func (r *PendingRepository) GetBySession(ctx context.Context, sessionID string) (*model.PendingRegistration, error) {
	var (
		p      model.PendingRegistration
		class  string
		amount string
	)
	err := r.db.QueryRow(ctx,
		`SELECT id, session_id, user_id, event_id, ticket_class, amount::text, status, created_at, updated_at
		 FROM pending_registrations WHERE session_id = $1`,
		sessionID,
	).Scan(&p.ID, &p.SessionID, &p.UserID, &p.EventID, &class, &amount, &p.Status, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrPendingNotFound
		}
		return nil, fmt.Errorf("get pending registration: %w", err)
	}
	p.TicketClass = model.TicketClass(class)
	if p.Amount, err = parseAmount(amount); err != nil {
		return nil, err
	}
	return &p, nil
}
