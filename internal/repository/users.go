package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Shivanand-hulikatti/event-ticketing/internal/model"
)

// UserRepository handles persistence for users and their ticket ledgers.
type UserRepository struct {
	db *pgxpool.Pool
}

// NewUserRepository constructs a UserRepository.
func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a new user with the default role.
func (r *UserRepository) Create(ctx context.Context, req model.CreateUserRequest) (*model.User, error) {
	user := &model.User{
		ID:        uuid.New().String(),
		Email:     req.Email,
		Role:      model.RoleUser,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		CreatedAt: time.Now().UTC(),
		Tickets:   map[string]string{},
	}

	_, err := r.db.Exec(ctx,
		`INSERT INTO users (id, email, role, first_name, last_name, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		user.ID, user.Email, user.Role, user.FirstName, user.LastName, user.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, model.ErrEmailTaken
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return user, nil
}

// GetByID returns a user together with its ticket ledger.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*model.User, error) {
	var u model.User
	err := r.db.QueryRow(ctx,
		`SELECT id, email, role, first_name, last_name, created_at, tickets
		 FROM users WHERE id = $1`,
		id,
	).Scan(&u.ID, &u.Email, &u.Role, &u.FirstName, &u.LastName, &u.CreatedAt, &u.Tickets)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}

// SetRole changes the role of an existing user.
func (r *UserRepository) SetRole(ctx context.Context, userID, role string) error {
	tag, err := r.db.Exec(ctx, `UPDATE users SET role = $2 WHERE id = $1`, userID, role)
	if err != nil {
		return fmt.Errorf("set role: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrUserNotFound
	}
	return nil
}

// SetTicket stores token as the ledger entry for (userID, eventID) unless
// one already exists, and returns the entry that ends up stored. The merge
// happens inside one UPDATE so concurrent writes for different events of the
// same user do not clobber each other, and the first writer for an event wins.
func (r *UserRepository) SetTicket(ctx context.Context, userID, eventID, token string) (string, error) {
	tag, err := r.db.Exec(ctx,
		`UPDATE users SET tickets = tickets || jsonb_build_object($2::text, $3::text)
		 WHERE id = $1 AND NOT (tickets ? $2::text)`,
		userID, eventID, token,
	)
	if err != nil {
		return "", fmt.Errorf("set ticket: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return token, nil
	}

	// Either the user is missing or another writer got there first.
	stored, err := r.GetTicket(ctx, userID, eventID)
	if err != nil {
		return "", err
	}
	return stored, nil
}

// GetTicket returns the token stored for (userID, eventID).
func (r *UserRepository) GetTicket(ctx context.Context, userID, eventID string) (string, error) {
	var token *string
	err := r.db.QueryRow(ctx,
		`SELECT tickets ->> $2::text FROM users WHERE id = $1`,
		userID, eventID,
	).Scan(&token)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", model.ErrUserNotFound
		}
		return "", fmt.Errorf("get ticket: %w", err)
	}
	if token == nil {
		return "", model.ErrTicketNotFound
	}
	return *token, nil
}
