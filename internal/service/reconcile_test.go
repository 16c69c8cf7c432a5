package service_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shivanand-hulikatti/event-ticketing/internal/model"
	"github.com/Shivanand-hulikatti/event-ticketing/internal/payment"
)

func startPaidRegistration(t *testing.T, f *fixture) (event *model.Event, user *model.User, sessionID string) {
	t.Helper()
	event = f.mem.SeedEvent("Gala", decimal.Zero, decimal.NewFromInt(50))
	user = f.mem.SeedUser("Grace", "Hopper")

	res, err := f.registrations.Attend(context.Background(), user.ID, event.ID, "VIP")
	require.NoError(t, err)
	return event, user, res.SessionID
}

func TestOnPaymentSuccess_IssuesTicketOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	event, user, sessionID := startPaidRegistration(t, f)
	f.gateway.Pay(sessionID)

	first, err := f.reconciler.OnPaymentSuccess(ctx, sessionID)
	require.NoError(t, err)
	assert.False(t, first.AlreadyIssued)
	assert.Equal(t, model.TicketVIP, first.TicketClass)

	second, err := f.reconciler.OnPaymentSuccess(ctx, sessionID)
	require.NoError(t, err)
	assert.True(t, second.AlreadyIssued)

	assert.Equal(t, first.Ticket, second.Ticket)
	assert.Equal(t, 1, f.mem.AttendeeCount(event.ID))

	claims, err := f.codec.Decode(first.Ticket)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, model.TicketVIP, claims.TicketClass)

	pending := f.mem.PendingRegistrations()
	require.Len(t, pending, 1)
	assert.Equal(t, model.PendingStatusCompleted, pending[0].Status)
}

func TestOnPaymentSuccess_UnpaidSession(t *testing.T) {
	f := newFixture(t)
	_, _, sessionID := startPaidRegistration(t, f)

	_, err := f.reconciler.OnPaymentSuccess(context.Background(), sessionID)

	assert.ErrorIs(t, err, model.ErrPaymentNotCompleted)
	assert.Zero(t, f.mem.Mutations())
}

func TestOnPaymentSuccess_MissingMetadata(t *testing.T) {
	f := newFixture(t)
	user := f.mem.SeedUser("Grace", "Hopper")
	f.gateway.AddSession(payment.Session{
		ID:   "cs_test_broken",
		Paid: true,
		Metadata: map[string]string{
			model.MetadataUserID:     user.ID,
			model.MetadataTicketType: "VIP",
		},
	})

	_, err := f.reconciler.OnPaymentSuccess(context.Background(), "cs_test_broken")

	assert.ErrorIs(t, err, model.ErrMetadata)
	assert.ErrorIs(t, err, model.ErrMissingRegistrationMetadata)
	assert.Contains(t, err.Error(), model.MetadataEventID)
	assert.Zero(t, f.mem.Mutations())
}

func TestOnPaymentSuccess_MetadataMustMatchPendingRecord(t *testing.T) {
	f := newFixture(t)
	event, user, sessionID := startPaidRegistration(t, f)
	other := f.mem.SeedEvent("Other", decimal.Zero, decimal.Zero)

	session, err := f.gateway.RetrieveSession(context.Background(), sessionID)
	require.NoError(t, err)
	session.Metadata[model.MetadataEventID] = other.ID
	session.Paid = true
	f.gateway.AddSession(*session)

	_, err = f.reconciler.OnPaymentSuccess(context.Background(), sessionID)

	assert.ErrorIs(t, err, model.ErrMetadata)
	assert.Zero(t, f.mem.AttendeeCount(event.ID))
	assert.Zero(t, f.mem.AttendeeCount(other.ID))
	_, err = f.mem.Users().GetTicket(context.Background(), user.ID, other.ID)
	assert.ErrorIs(t, err, model.ErrTicketNotFound)
}

func TestOnPaymentSuccess_WithoutPendingRecordUsesMetadata(t *testing.T) {
	f := newFixture(t)
	event := f.mem.SeedEvent("Gala", decimal.Zero, decimal.NewFromInt(50))
	user := f.mem.SeedUser("Grace", "Hopper")
	f.gateway.AddSession(payment.Session{
		ID:   "cs_test_orphan",
		Paid: true,
		Metadata: model.RegistrationIntent{
			UserID:      user.ID,
			UserEmail:   user.Email,
			EventID:     event.ID,
			TicketClass: model.TicketVIP,
		}.Metadata(),
	})

	res, err := f.reconciler.OnPaymentSuccess(context.Background(), "cs_test_orphan")
	require.NoError(t, err)

	assert.NotEmpty(t, res.Ticket)
	assert.Equal(t, 1, f.mem.AttendeeCount(event.ID))
}

func TestOnPaymentSuccess_GatewayErrors(t *testing.T) {
	f := newFixture(t)

	_, err := f.reconciler.OnPaymentSuccess(context.Background(), "")
	assert.ErrorIs(t, err, model.ErrValidation)

	_, err = f.reconciler.OnPaymentSuccess(context.Background(), "cs_test_unknown")
	assert.ErrorIs(t, err, model.ErrUpstream)
}
