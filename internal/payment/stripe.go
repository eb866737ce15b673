// Package payment adapts Stripe to the gateway the services expect.
package payment

import (
	"context"
	"fmt"
	"strings"

	"onlineticket/internal/services"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

type StripeConfig struct {
	SecretKey  string
	SuccessURL string
	CancelURL  string
	// Backends overrides the Stripe endpoints; nil means the live API.
	Backends *stripe.Backends
}

type Stripe struct {
	sc         *client.API
	successURL string
	cancelURL  string
}

func NewStripe(cfg StripeConfig) *Stripe {
	return &Stripe{
		sc:         client.New(cfg.SecretKey, cfg.Backends),
		successURL: cfg.SuccessURL,
		cancelURL:  cfg.CancelURL,
	}
}

func (s *Stripe) CreatePaymentIntent(ctx context.Context, amountMinor int64, currency string, metadata map[string]string) (services.PaymentIntent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:             stripe.Int64(amountMinor),
		Currency:           stripe.String(strings.ToLower(currency)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
	}
	params.Context = ctx
	for k, v := range metadata {
		params.AddMetadata(k, v)
	}
	pi, err := s.sc.PaymentIntents.New(params)
	if err != nil {
		return services.PaymentIntent{}, fmt.Errorf("stripe payment intent: %w", err)
	}
	return services.PaymentIntent{ID: pi.ID, ClientSecret: pi.ClientSecret}, nil
}

func (s *Stripe) CreateCheckoutSession(ctx context.Context, title string, amountMinor int64, currency string, metadata map[string]string) (services.CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(s.successURL),
		CancelURL:  stripe.String(s.cancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(strings.ToLower(currency)),
					UnitAmount: stripe.Int64(amountMinor),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(title),
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
		PaymentIntentData: &stripe.CheckoutSessionPaymentIntentDataParams{
			Metadata: metadata,
		},
	}
	params.Context = ctx
	for k, v := range metadata {
		params.AddMetadata(k, v)
	}
	sess, err := s.sc.CheckoutSessions.New(params)
	if err != nil {
		return services.CheckoutSession{}, fmt.Errorf("stripe checkout session: %w", err)
	}
	return services.CheckoutSession{ID: sess.ID, URL: sess.URL}, nil
}
