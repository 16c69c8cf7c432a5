package ticket_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shivanand-hulikatti/event-ticketing/internal/model"
	"github.com/Shivanand-hulikatti/event-ticketing/internal/ticket"
)

func newClaims() model.TicketClaims {
	return model.TicketClaims{
		TicketID:      uuid.NewString(),
		EventID:       uuid.NewString(),
		UserID:        uuid.NewString(),
		FirstName:     "Ada",
		LastName:      "Lovelace",
		TicketClass:   model.TicketVIP,
		EventName:     "GopherCon",
		EventDate:     time.Date(2099, time.June, 12, 18, 30, 0, 0, time.UTC),
		EventLocation: "Berlin",
	}
}

func newCodec(t *testing.T, opts ...ticket.CodecOption) *ticket.Codec {
	t.Helper()
	codec, err := ticket.NewCodec("test-secret", "HS256", 24*time.Hour, opts...)
	require.NoError(t, err)
	return codec
}

func TestCodec_round_trip(t *testing.T) {
	codec := newCodec(t)

	testCases := []struct {
		Name   string
		Mutate func(*model.TicketClaims)
	}{
		{Name: "vip", Mutate: func(*model.TicketClaims) {}},
		{Name: "general", Mutate: func(c *model.TicketClaims) { c.TicketClass = model.TicketGeneral }},
		{Name: "no_event_date", Mutate: func(c *model.TicketClaims) { c.EventDate = time.Time{} }},
		{Name: "non_utc_event_date", Mutate: func(c *model.TicketClaims) {
			c.EventDate = time.Date(2099, time.June, 12, 20, 30, 0, 0, time.FixedZone("CEST", 2*60*60))
		}},
		{Name: "unicode_names", Mutate: func(c *model.TicketClaims) { c.FirstName, c.LastName = "Zoë", "Ørsted" }},
		{Name: "empty_optional_fields", Mutate: func(c *model.TicketClaims) {
			c.FirstName, c.LastName, c.EventLocation = "", "", ""
		}},
	}

	for _, tc := range testCases {
		t.Run(tc.Name, func(t *testing.T) {
			claims := newClaims()
			tc.Mutate(&claims)

			token, err := codec.Encode(claims)
			require.NoError(t, err)

			decoded, err := codec.Decode(token)
			require.NoError(t, err)

			assert.True(t, claims.EventDate.Equal(decoded.EventDate), "event date %s decoded as %s", claims.EventDate, decoded.EventDate)
			assert.Equal(t, time.UTC, decoded.EventDate.Location())

			decoded.EventDate = claims.EventDate
			assert.Equal(t, claims, decoded)
		})
	}
}

func TestCodec_tamper_detection(t *testing.T) {
	codec := newCodec(t)

	token, err := codec.Encode(newClaims())
	require.NoError(t, err)

	for i := range token {
		tampered := []byte(token)
		if tampered[i] == 'A' {
			tampered[i] = 'B'
		} else {
			tampered[i] = 'A'
		}

		_, err := codec.Decode(string(tampered))
		require.ErrorIs(t, err, model.ErrToken, "byte %d flipped", i)
	}
}

func TestCodec_rejects_foreign_tokens(t *testing.T) {
	codec := newCodec(t)
	claims := newClaims()

	other, err := ticket.NewCodec("another-secret", "HS256", 24*time.Hour)
	require.NoError(t, err)
	forged, err := other.Encode(claims)
	require.NoError(t, err)

	_, err = codec.Decode(forged)
	assert.ErrorIs(t, err, model.ErrInvalidTicketToken)

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"ticket_id": claims.TicketID,
		"event_id":  claims.EventID,
		"user_id":   claims.UserID,
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = codec.Decode(unsigned)
	assert.ErrorIs(t, err, model.ErrInvalidTicketToken)

	_, err = codec.Decode("not-a-token")
	assert.ErrorIs(t, err, model.ErrInvalidTicketToken)
}

func TestCodec_rejects_incomplete_claims(t *testing.T) {
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"ticket_id": uuid.NewString(),
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = newCodec(t).Decode(token)
	assert.ErrorIs(t, err, model.ErrInvalidTicketToken)
}

func TestCodec_expiry(t *testing.T) {
	claims := newClaims()
	claims.EventDate = time.Date(2030, time.March, 1, 20, 0, 0, 0, time.UTC)

	now := claims.EventDate.Add(-time.Hour)
	codec := newCodec(t, ticket.WithClock(func() time.Time { return now }))

	token, err := codec.Encode(claims)
	require.NoError(t, err)

	_, err = codec.Decode(token)
	require.NoError(t, err)

	now = claims.EventDate.Add(23 * time.Hour)
	_, err = codec.Decode(token)
	require.NoError(t, err)

	now = claims.EventDate.Add(25 * time.Hour)
	_, err = codec.Decode(token)
	assert.ErrorIs(t, err, model.ErrExpiredTicketToken)
	assert.ErrorIs(t, err, model.ErrToken)
}

func TestCodec_no_expiry_when_disabled(t *testing.T) {
	claims := newClaims()
	claims.EventDate = time.Date(2001, time.January, 1, 0, 0, 0, 0, time.UTC)

	codec, err := ticket.NewCodec("test-secret", "HS512", 0)
	require.NoError(t, err)

	token, err := codec.Encode(claims)
	require.NoError(t, err)

	decoded, err := codec.Decode(token)
	require.NoError(t, err)
	assert.Equal(t, claims, decoded)
}

func TestNewCodec_validation(t *testing.T) {
	_, err := ticket.NewCodec("", "HS256", 0)
	assert.Error(t, err)

	_, err = ticket.NewCodec("secret", "RS256", 0)
	assert.Error(t, err)

	_, err = ticket.NewCodec("secret", "none", 0)
	assert.Error(t, err)

	_, err = ticket.NewCodec("secret", "HS256", -time.Hour)
	assert.Error(t, err)

	codec, err := ticket.NewCodec("secret", "", 0)
	require.NoError(t, err)
	assert.NotNil(t, codec)
}

func TestCodec_encode_requires_ids(t *testing.T) {
	claims := newClaims()
	claims.UserID = ""

	_, err := newCodec(t).Encode(claims)
	assert.Error(t, err)
}
