package service_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shivanand-hulikatti/event-ticketing/internal/model"
)

func TestRepairOne_NoopCases(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	event := f.mem.SeedEvent("Meetup", decimal.Zero, decimal.Zero)
	user := f.mem.SeedUser("Ada", "Lovelace")

	require.NoError(t, f.repairer.RepairOne(ctx, event.ID, user.ID))
	_, err := f.mem.Users().GetTicket(ctx, user.ID, event.ID)
	assert.ErrorIs(t, err, model.ErrTicketNotFound)

	res, err := f.registrations.Attend(ctx, user.ID, event.ID, "General")
	require.NoError(t, err)
	require.NoError(t, f.repairer.RepairOne(ctx, event.ID, user.ID))

	stored, err := f.mem.Users().GetTicket(ctx, user.ID, event.ID)
	require.NoError(t, err)
	assert.Equal(t, res.Ticket, stored)
}

func TestSweep(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	event := f.mem.SeedEvent("Meetup", decimal.Zero, decimal.Zero)
	users := []*model.User{
		f.mem.SeedUser("Ada", "Lovelace"),
		f.mem.SeedUser("Grace", "Hopper"),
		f.mem.SeedUser("Alan", "Turing"),
	}
	for _, u := range users {
		require.NoError(t, f.mem.Events().AddAttendee(ctx, event.ID, u.ID, model.TicketGeneral))
	}

	repaired, err := f.repairer.Sweep(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, repaired)

	repaired, err = f.repairer.Sweep(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, repaired)

	for _, u := range users {
		token, err := f.mem.Users().GetTicket(ctx, u.ID, event.ID)
		require.NoError(t, err)
		claims, err := f.codec.Decode(token)
		require.NoError(t, err)
		assert.Equal(t, u.ID, claims.UserID)
	}

	_, err = f.repairer.Sweep(ctx, 0)
	assert.ErrorIs(t, err, model.ErrValidation)
}
