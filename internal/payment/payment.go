// Package payment talks to the external payment processor that gates paid
// tickets.
package payment

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/Shivanand-hulikatti/event-ticketing/internal/model"
)

// Currency is the single currency tickets are sold in.
const Currency = "usd"

// CheckoutRequest describes a one-ticket checkout.
type CheckoutRequest struct {
	CustomerEmail string
	Amount        decimal.Decimal
	EventName     string
	TicketClass   model.TicketClass
	Metadata      map[string]string
}

// Validate rejects checkouts the gateway would refuse anyway.
func (r CheckoutRequest) Validate() error {
	if !r.Amount.IsPositive() {
		return model.ValidationError("checkout amount must be positive")
	}
	if !r.Amount.Equal(r.Amount.Round(2)) {
		return model.ValidationError("checkout amount has more than two decimal places")
	}
	return nil
}

// ProductName is the line item label shown on the checkout page.
func (r CheckoutRequest) ProductName() string {
	return fmt.Sprintf("%s Ticket for Event %s", r.TicketClass, r.EventName)
}

// UnitAmount is the amount in the smallest currency unit.
func (r CheckoutRequest) UnitAmount() int64 {
	return r.Amount.Shift(2).Round(0).IntPart()
}

// Session is the gateway's view of a checkout session.
type Session struct {
	ID       string
	URL      string
	Paid     bool
	Metadata map[string]string
}
