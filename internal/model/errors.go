package model

import (
	"errors"
	"fmt"
)

// Error categories. Every domain error wraps exactly one of these so callers
// can tell a forged ticket apart from a missing event.
var (
	ErrNotFound        = errors.New("not found")
	ErrValidation      = errors.New("validation failed")
	ErrToken           = errors.New("ticket token rejected")
	ErrMetadata        = errors.New("registration metadata rejected")
	ErrUpstream        = errors.New("upstream failure")
	ErrConflict        = errors.New("conflict")
	ErrPaymentRequired = errors.New("payment required")
)

var (
	ErrEventNotFound    = fmt.Errorf("event %w", ErrNotFound)
	ErrUserNotFound     = fmt.Errorf("user %w", ErrNotFound)
	ErrTicketNotFound   = fmt.Errorf("ticket %w", ErrNotFound)
	ErrPendingNotFound  = fmt.Errorf("pending registration %w", ErrNotFound)
	ErrAttendeeNotFound = fmt.Errorf("attendee %w", ErrNotFound)

	ErrInvalidTicketClass = fmt.Errorf("%w: ticket type must be one of General, VIP", ErrValidation)
	ErrInvalidRole        = fmt.Errorf("%w: role must be one of user, admin", ErrValidation)

	ErrInvalidTicketToken = fmt.Errorf("%w: invalid ticket token", ErrToken)
	ErrExpiredTicketToken = fmt.Errorf("%w: ticket token has expired", ErrToken)

	ErrMissingRegistrationMetadata = fmt.Errorf("%w: missing metadata", ErrMetadata)

	ErrPaymentGateway = fmt.Errorf("%w: payment gateway", ErrUpstream)

	ErrAlreadyAttending = fmt.Errorf("%w: user is already an attendee of this event", ErrConflict)
	ErrEmailTaken       = fmt.Errorf("%w: email already registered", ErrConflict)

	ErrPaymentNotCompleted = fmt.Errorf("%w: checkout session is not paid", ErrPaymentRequired)
)

// ValidationError returns a validation failure carrying msg.
func ValidationError(msg string) error {
	return fmt.Errorf("%w: %s", ErrValidation, msg)
}
