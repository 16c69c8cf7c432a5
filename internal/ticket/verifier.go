package ticket

import (
	"fmt"

	"github.com/Shivanand-hulikatti/event-ticketing/internal/model"
)

// Verifier validates tickets presented for retrieval or check-in.
type Verifier struct {
	codec *Codec
}

// NewVerifier constructs a Verifier.
func NewVerifier(codec *Codec) *Verifier {
	return &Verifier{codec: codec}
}

// Verify returns the claims of a genuine ticket.
func (v *Verifier) Verify(token string) (model.TicketClaims, error) {
	return v.codec.Decode(token)
}

// VerifyFor is Verify for check-in at a specific event: a genuine ticket for
// another event is rejected.
func (v *Verifier) VerifyFor(token, eventID string) (model.TicketClaims, error) {
	claims, err := v.codec.Decode(token)
	if err != nil {
		return model.TicketClaims{}, err
	}
	if eventID != "" && claims.EventID != eventID {
		return model.TicketClaims{}, fmt.Errorf("%w: ticket is for another event", model.ErrInvalidTicketToken)
	}
	return claims, nil
}
