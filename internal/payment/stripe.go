package payment

import (
	"context"
	"fmt"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"

	"github.com/Shivanand-hulikatti/event-ticketing/internal/model"
)

// StripeClient creates and retrieves Stripe Checkout sessions.
type StripeClient struct {
	api        *client.API
	successURL string
	cancelURL  string
}

// NewStripeClient constructs a StripeClient. successURL should carry the
// {CHECKOUT_SESSION_ID} placeholder so the reconciliation endpoint receives
// the session id.
func NewStripeClient(secretKey, successURL, cancelURL string) *StripeClient {
	return &StripeClient{
		api:        client.New(secretKey, nil),
		successURL: successURL,
		cancelURL:  cancelURL,
	}
}

// CreateCheckoutSession opens a hosted checkout for one ticket.
func (c *StripeClient) CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*Session, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	params := &stripe.CheckoutSessionParams{
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String(Currency),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(req.ProductName()),
					},
					UnitAmount: stripe.Int64(req.UnitAmount()),
				},
				Quantity: stripe.Int64(1),
			},
		},
		Mode:          stripe.String(string(stripe.CheckoutSessionModePayment)),
		CustomerEmail: stripe.String(req.CustomerEmail),
		SuccessURL:    stripe.String(c.successURL),
		CancelURL:     stripe.String(c.cancelURL),
	}
	params.Context = ctx
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}

	s, err := c.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("%w: create checkout session: %v", model.ErrPaymentGateway, err)
	}
	return toSession(s), nil
}

// RetrieveSession fetches a checkout session by id.
func (c *StripeClient) RetrieveSession(ctx context.Context, sessionID string) (*Session, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx

	s, err := c.api.CheckoutSessions.Get(sessionID, params)
	if err != nil {
		return nil, fmt.Errorf("%w: retrieve checkout session: %v", model.ErrPaymentGateway, err)
	}
	return toSession(s), nil
}

func toSession(s *stripe.CheckoutSession) *Session {
	return &Session{
		ID:       s.ID,
		URL:      s.URL,
		Paid:     s.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid,
		Metadata: s.Metadata,
	}
}
