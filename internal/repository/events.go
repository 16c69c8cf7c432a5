package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/Shivanand-hulikatti/event-ticketing/internal/model"
)

const selectEvent = `
	SELECT e.id, e.name, e.description, e.category, e.location, e.date, e.created_at,
	       e.general_price::text, e.vip_price::text,
	       ARRAY(SELECT a.user_id FROM event_attendees a
	             WHERE a.event_id = e.id AND a.ticket_class = 'General' ORDER BY a.created_at, a.user_id),
	       ARRAY(SELECT a.user_id FROM event_attendees a
	             WHERE a.event_id = e.id AND a.ticket_class = 'VIP' ORDER BY a.created_at, a.user_id)
	FROM events e`

// EventRepository handles persistence for events and their attendee sets.
type EventRepository struct {
	db *pgxpool.Pool
}

// NewEventRepository constructs an EventRepository.
func NewEventRepository(db *pgxpool.Pool) *EventRepository {
	return &EventRepository{db: db}
}

// Create inserts a new event and returns it with a generated UUID.
func (r *EventRepository) Create(ctx context.Context, req model.CreateEventRequest) (*model.Event, error) {
	event := &model.Event{
		ID:                 uuid.New().String(),
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

	_, err := r.db.Exec(ctx,
		`INSERT INTO events (id, name, description, category, location, date, general_price, vip_price, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		event.ID, event.Name, event.Description, event.Category, event.Location, event.Date,
		event.GeneralPrice.String(), event.VIPPrice.String(), event.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert event: %w", err)
	}
	return event, nil
}

// List returns all events ordered by creation time descending.
func (r *EventRepository) List(ctx context.Context) ([]model.Event, error) {
	rows, err := r.db.Query(ctx, selectEvent+` ORDER BY e.created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var events []model.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, *e)
	}
	return events, rows.Err()
}

// GetByID returns a single event or model.ErrEventNotFound.
func (r *EventRepository) GetByID(ctx context.Context, id string) (*model.Event, error) {
	e, err := scanEvent(r.db.QueryRow(ctx, selectEvent+` WHERE e.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrEventNotFound
		}
		return nil, err
	}
	return e, nil
}

func scanEvent(row scanner) (*model.Event, error) {
	var (
		e                      model.Event
		generalPrice, vipPrice string
	)
	err := row.Scan(
		&e.ID, &e.Name, &e.Description, &e.Category, &e.Location, &e.Date, &e.CreatedAt,
		&generalPrice, &vipPrice, &e.GeneralAttendeeIDs, &e.VIPAttendeeIDs,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan event: %w", err)
	}
	if e.GeneralPrice, err = parseAmount(generalPrice); err != nil {
		return nil, err
	}
	if e.VIPPrice, err = parseAmount(vipPrice); err != nil {
		return nil, err
	}
	return &e, nil
}

// GetFee returns the price of a ticket class for an event.
func (r *EventRepository) GetFee(ctx context.Context, eventID string, class model.TicketClass) (decimal.Decimal, error) {
	var generalPrice, vipPrice string
	err := r.db.QueryRow(ctx,
		`SELECT general_price::text, vip_price::text FROM events WHERE id = $1`,
		eventID,
	).Scan(&generalPrice, &vipPrice)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, model.ErrEventNotFound
		}
		return decimal.Zero, fmt.Errorf("get fee: %w", err)
	}

	e := model.Event{}
	if e.GeneralPrice, err = parseAmount(generalPrice); err != nil {
		return decimal.Zero, err
	}
	if e.VIPPrice, err = parseAmount(vipPrice); err != nil {
		return decimal.Zero, err
	}
	return e.Price(class)
}

// AddAttendee puts userID into the attendee set for class, unless the user is
// already in either set of the event.
//
// The membership check and the write are one conditional INSERT: the
// (event_id, user_id) primary key makes concurrent attempts for the same user
// collapse into a single row, and ON CONFLICT DO NOTHING reports the loser as
// zero affected rows instead of an error. There is no read-modify-write of
// the attendee list, so two simultaneous registrations can never drop each
// other's entries.
func (r *EventRepository) AddAttendee(ctx context.Context, eventID, userID string, class model.TicketClass) error {
	if _, err := model.ParseTicketClass(string(class)); err != nil {
		return err
	}

	tag, err := r.db.Exec(ctx,
		`INSERT INTO event_attendees (event_id, user_id, ticket_class, created_at)
		 SELECT id, $2::text, $3::text, $4::timestamptz FROM events WHERE id = $1
		 ON CONFLICT (event_id, user_id) DO NOTHING`,
		eventID, userID, string(class), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert attendee: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	var exists bool
	if err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM events WHERE id = $1)`, eventID,
	).Scan(&exists); err != nil {
		return fmt.Errorf("check event: %w", err)
	}
	if !exists {
		return model.ErrEventNotFound
	}
	return model.ErrAlreadyAttending
}

// AttendeeClass returns the class userID attends eventID with.
func (r *EventRepository) AttendeeClass(ctx context.Context, eventID, userID string) (model.TicketClass, error) {
	var class string
	err := r.db.QueryRow(ctx,
		`SELECT ticket_class FROM event_attendees WHERE event_id = $1 AND user_id = $2`,
		eventID, userID,
	).Scan(&class)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", model.ErrAttendeeNotFound
		}
		return "", fmt.Errorf("get attendee: %w", err)
	}
	return model.TicketClass(class), nil
}

// ListAttendeesWithoutTicket returns attendees whose user record holds no
// ledger entry for the event, oldest first.
func (r *EventRepository) ListAttendeesWithoutTicket(ctx context.Context, limit int) ([]model.Attendee, error) {
	rows, err := r.db.Query(ctx,
		`SELECT a.event_id, a.user_id, a.ticket_class, a.created_at
		 FROM event_attendees a
		 JOIN users u ON u.id = a.user_id
		 WHERE NOT (u.tickets ? a.event_id)
		 ORDER BY a.created_at
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list attendees without ticket: %w", err)
	}
	defer rows.Close()

	var attendees []model.Attendee
	for rows.Next() {
		var (
			a     model.Attendee
			class string
		)
		if err := rows.Scan(&a.EventID, &a.UserID, &class, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan attendee: %w", err)
		}
		a.TicketClass = model.TicketClass(class)
		attendees = append(attendees, a)
	}
	return attendees, rows.Err()
}
