package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/Shivanand-hulikatti/event-ticketing/internal/log"
	"github.com/Shivanand-hulikatti/event-ticketing/internal/metrics"
	"github.com/Shivanand-hulikatti/event-ticketing/internal/model"
	"github.com/Shivanand-hulikatti/event-ticketing/internal/ticket"
)

// RepairStore finds attendees whose ticket never reached the ledger.
type RepairStore interface {
	GetByID(ctx context.Context, id string) (*model.Event, error)
	AttendeeClass(ctx context.Context, eventID, userID string) (model.TicketClass, error)
	ListAttendeesWithoutTicket(ctx context.Context, limit int) ([]model.Attendee, error)
}

// RepairService regenerates tickets for attendees left without a ledger
// entry by an interrupted issuance.
type RepairService struct {
	events RepairStore
	users  UserStore
	ledger TicketLedger
	codec  *ticket.Codec
	locker Locker
}

// NewRepairService constructs a RepairService.
func NewRepairService(events RepairStore, users UserStore, ledger TicketLedger, codec *ticket.Codec, locker Locker) *RepairService {
	return &RepairService{events: events, users: users, ledger: ledger, codec: codec, locker: locker}
}

// RepairOne stores a fresh ticket for the attendee (eventID, userID). It is
// a no-op when the ledger already holds one or the user is not an attendee.
func (s *RepairService) RepairOne(ctx context.Context, eventID, userID string) error {
	logger := log.FromContext(ctx).WithField("event_id", eventID).WithField("user_id", userID)

	unlock, err := s.locker.Lock(ctx, registrationKey(eventID, userID))
	if err != nil {
		return fmt.Errorf("lock registration: %w", err)
	}
	defer unlock()

	if _, err := s.ledger.GetTicket(ctx, userID, eventID); err == nil {
		return nil
	} else if !errors.Is(err, model.ErrTicketNotFound) {
		return fmt.Errorf("check ledger: %w", err)
	}

	class, err := s.events.AttendeeClass(ctx, eventID, userID)
	if errors.Is(err, model.ErrAttendeeNotFound) {
		logger.Info("nothing to repair, user holds no seat")
		return nil
	}
	if err != nil {
		return fmt.Errorf("read attendee: %w", err)
	}

	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return fmt.Errorf("get event: %w", err)
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("get user: %w", err)
	}

	claims, token, err := signTicket(s.codec, event, user, class)
	if err != nil {
		return err
	}
	stored, err := s.ledger.SetTicket(ctx, userID, eventID, token)
	if err != nil {
		return fmt.Errorf("store ticket in ledger: %w", err)
	}
	if stored != token {
		logger.Info("ledger entry written concurrently, nothing to repair")
		return nil
	}

	metrics.LedgerRepairs.Inc()
	logger.WithField("ticket_id", claims.TicketID).Info("ledger entry repaired")
	return nil
}

// Sweep repairs up to limit attendees and reports how many it fixed.
func (s *RepairService) Sweep(ctx context.Context, limit int) (int, error) {
	if limit <= 0 {
		return 0, model.ValidationError("repair limit must be positive")
	}

	missing, err := s.events.ListAttendeesWithoutTicket(ctx, limit)
	if err != nil {
		return 0, fmt.Errorf("list attendees without ticket: %w", err)
	}

	var (
		repaired int
		errs     []error
	)
	for _, a := range missing {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if err := s.RepairOne(ctx, a.EventID, a.UserID); err != nil {
			errs = append(errs, fmt.Errorf("repair %s/%s: %w", a.EventID, a.UserID, err))
			continue
		}
		repaired++
	}
	return repaired, errors.Join(errs...)
}
