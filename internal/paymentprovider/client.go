// Package paymentprovider оборачивает Stripe: создание и чтение checkout-сессий
// и проверку подписи вебхуков.
package paymentprovider

import (
	"context"
	"fmt"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/checkout/session"
)

// Client клиент Stripe для работы с checkout-сессиями.
type Client struct {
	sessions      session.Client
	webhookSecret string
}

// NewClient создаёт клиент Stripe с указанным секретным ключом.
func NewClient(secretKey, webhookSecret string) *Client {
	return &Client{
		sessions: session.Client{
			B:   stripe.GetBackend(stripe.APIBackend),
			Key: secretKey,
		},
		webhookSecret: webhookSecret,
	}
}

// CreateCheckoutSession создаёт checkout-сессию в режиме подписки.
func (c *Client) CreateCheckoutSession(ctx context.Context, p CheckoutParams) (*CheckoutSession, error) {
	const op = "paymentprovider.CreateCheckoutSession"

	params := newSessionParams(p)
	params.Context = ctx

	sess, err := c.sessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return fromStripeSession(sess), nil
}

// GetCheckoutSession получает checkout-сессию вместе с подпиской.
func (c *Client) GetCheckoutSession(ctx context.Context, id string) (*CheckoutSession, error) {
	const op = "paymentprovider.GetCheckoutSession"

	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx
	params.AddExpand("subscription")

	sess, err := c.sessions.Get(id, params)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return fromStripeSession(sess), nil
}

func newSessionParams(p CheckoutParams) *stripe.CheckoutSessionParams {
	params := &stripe.CheckoutSessionParams{
		Mode:               stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(p.PriceID),
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(p.SuccessURL),
		CancelURL:  stripe.String(p.CancelURL),
	}
	if p.CustomerEmail != "" {
		params.CustomerEmail = stripe.String(p.CustomerEmail)
	}
	if p.TrialPeriodDays > 0 {
		params.SubscriptionData = &stripe.CheckoutSessionSubscriptionDataParams{
			TrialPeriodDays: stripe.Int64(p.TrialPeriodDays),
		}
	}
	if len(p.Metadata) > 0 {
		params.Metadata = make(map[string]string, len(p.Metadata))
		for k, v := range p.Metadata {
			params.Metadata[k] = v
		}
	}
	return params
}

func fromStripeSession(s *stripe.CheckoutSession) *CheckoutSession {
	out := &CheckoutSession{
		ID:            s.ID,
		URL:           s.URL,
		PaymentStatus: string(s.PaymentStatus),
		Status:        string(s.Status),
		CustomerEmail: s.CustomerEmail,
		Metadata:      s.Metadata,
	}
	if out.CustomerEmail == "" && s.CustomerDetails != nil {
		out.CustomerEmail = s.CustomerDetails.Email
	}
	if s.Customer != nil {
		out.CustomerID = s.Customer.ID
	}
	if s.Subscription != nil {
		out.Subscription = &Subscription{
			ID:                 s.Subscription.ID,
			Status:             string(s.Subscription.Status),
			CurrentPeriodStart: s.Subscription.CurrentPeriodStart,
			CurrentPeriodEnd:   s.Subscription.CurrentPeriodEnd,
			TrialStart:         s.Subscription.TrialStart,
			TrialEnd:           s.Subscription.TrialEnd,
			CancelAtPeriodEnd:  s.Subscription.CancelAtPeriodEnd,
		}
	}
	return out
}
