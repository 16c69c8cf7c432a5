package model_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shivanand-hulikatti/event-ticketing/internal/model"
)

func TestParseTicketClass(t *testing.T) {
	testCases := []struct {
		Name    string
		Input   string
		Want    model.TicketClass
		WantErr bool
	}{
		{Name: "general", Input: "General", Want: model.TicketGeneral},
		{Name: "vip", Input: "VIP", Want: model.TicketVIP},
		{Name: "surrounding_spaces", Input: " VIP ", Want: model.TicketVIP},
		{Name: "student", Input: "Student", WantErr: true},
		{Name: "lowercase", Input: "vip", WantErr: true},
		{Name: "empty", Input: "", WantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.Name, func(t *testing.T) {
			got, err := model.ParseTicketClass(tc.Input)
			if tc.WantErr {
				require.ErrorIs(t, err, model.ErrInvalidTicketClass)
				require.ErrorIs(t, err, model.ErrValidation)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.Want, got)
		})
	}
}

func TestParseRole(t *testing.T) {
	role, err := model.ParseRole(" admin ")
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, role)

	role, err = model.ParseRole("user")
	require.NoError(t, err)
	assert.Equal(t, model.RoleUser, role)

	_, err = model.ParseRole("Admin")
	assert.ErrorIs(t, err, model.ErrInvalidRole)
	assert.ErrorIs(t, err, model.ErrValidation)
}

func TestEvent_Price(t *testing.T) {
	e := model.Event{GeneralPrice: decimal.Zero, VIPPrice: decimal.NewFromInt(50)}

	price, err := e.Price(model.TicketVIP)
	require.NoError(t, err)
	assert.True(t, price.Equal(decimal.NewFromInt(50)))

	price, err = e.Price(model.TicketGeneral)
	require.NoError(t, err)
	assert.True(t, price.IsZero())

	_, err = e.Price("Student")
	assert.ErrorIs(t, err, model.ErrInvalidTicketClass)
}

func TestIntentFromMetadata(t *testing.T) {
	intent := model.RegistrationIntent{
		UserID:      "user-1",
		UserEmail:   "ada@example.com",
		EventID:     "event-1",
		TicketClass: model.TicketVIP,
		PendingID:   "pending-1",
	}

	got, err := model.IntentFromMetadata(intent.Metadata())
	require.NoError(t, err)
	assert.Equal(t, intent, got)

	md := intent.Metadata()
	delete(md, model.MetadataEventID)
	_, err = model.IntentFromMetadata(md)
	require.ErrorIs(t, err, model.ErrMissingRegistrationMetadata)
	assert.Contains(t, err.Error(), "event_id")

	md = intent.Metadata()
	md[model.MetadataTicketType] = "Student"
	_, err = model.IntentFromMetadata(md)
	assert.ErrorIs(t, err, model.ErrInvalidTicketClass)
}

func TestErrorCategories(t *testing.T) {
	assert.ErrorIs(t, model.ErrEventNotFound, model.ErrNotFound)
	assert.ErrorIs(t, model.ErrUserNotFound, model.ErrNotFound)
	assert.ErrorIs(t, model.ErrExpiredTicketToken, model.ErrToken)
	assert.ErrorIs(t, model.ErrPaymentGateway, model.ErrUpstream)
	assert.NotErrorIs(t, model.ErrInvalidTicketToken, model.ErrNotFound)
}
