// Package ticket encodes ticket claims into signed ticket tokens and verifies
// them without touching the database.
package ticket

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Shivanand-hulikatti/event-ticketing/internal/model"
)

// DefaultAlgorithm is used when no algorithm is configured.
const DefaultAlgorithm = "HS256"

type tokenClaims struct {
	model.TicketClaims
	jwt.RegisteredClaims
}

// Codec turns TicketClaims into signed tokens and back. It is safe for
// concurrent use.
type Codec struct {
	secret   []byte
	method   jwt.SigningMethod
	validity time.Duration
	now      func() time.Time
}

// CodecOption customises a Codec.
type CodecOption func(*Codec)

// WithClock overrides the time source used for iat and expiry checks.
func WithClock(now func() time.Time) CodecOption {
	return func(c *Codec) { c.now = now }
}

// NewCodec builds a codec signing with the given HMAC algorithm. Tokens expire
// validityAfterEvent past the event date; zero disables expiry.
func NewCodec(secret, algorithm string, validityAfterEvent time.Duration, opts ...CodecOption) (*Codec, error) {
	if secret == "" {
		return nil, errors.New("ticket token secret is required")
	}
	if algorithm == "" {
		algorithm = DefaultAlgorithm
	}
	method, ok := jwt.GetSigningMethod(algorithm).(*jwt.SigningMethodHMAC)
	if !ok {
		return nil, fmt.Errorf("unsupported ticket token algorithm %q", algorithm)
	}
	if validityAfterEvent < 0 {
		return nil, errors.New("ticket validity must not be negative")
	}

	c := &Codec{
		secret:   []byte(secret),
		method:   method,
		validity: validityAfterEvent,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Encode signs claims into a token. EventDate is carried in UTC, so a
// decoded date matches the encoded one under time.Time.Equal but keeps no
// zone of its own.
func (c *Codec) Encode(claims model.TicketClaims) (string, error) {
	if claims.TicketID == "" || claims.EventID == "" || claims.UserID == "" {
		return "", errors.New("ticket claims need ticket, event and user ids")
	}
	claims.EventDate = claims.EventDate.UTC()

	registered := jwt.RegisteredClaims{
		ID:       claims.TicketID,
		IssuedAt: jwt.NewNumericDate(c.now()),
	}
	if c.validity > 0 && !claims.EventDate.IsZero() {
		registered.ExpiresAt = jwt.NewNumericDate(claims.EventDate.Add(c.validity))
	}

	token, err := jwt.NewWithClaims(c.method, tokenClaims{
		TicketClaims:     claims,
		RegisteredClaims: registered,
	}).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("sign ticket token: %w", err)
	}
	return token, nil
}

// Decode verifies the token's signature and returns its claims.
func (c *Codec) Decode(token string) (model.TicketClaims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{c.method.Alg()}),
		jwt.WithStrictDecoding(),
		jwt.WithTimeFunc(c.now),
	)

	var claims tokenClaims
	_, err := parser.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return c.secret, nil
	})
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return model.TicketClaims{}, model.ErrExpiredTicketToken
	case err != nil:
		return model.TicketClaims{}, fmt.Errorf("%w: %v", model.ErrInvalidTicketToken, err)
	}

	if claims.TicketID == "" || claims.EventID == "" || claims.UserID == "" {
		return model.TicketClaims{}, fmt.Errorf("%w: incomplete claims", model.ErrInvalidTicketToken)
	}
	return claims.TicketClaims, nil
}
