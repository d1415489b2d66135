package paymentprovider

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/webhook"
)

// ErrWebhookNotConfigured возвращается, если секрет вебхука не задан.
var ErrWebhookNotConfigured = errors.New("webhook secret is not configured")

// WebhookEvent разобранное событие вебхука.
// SessionID заполнен только для checkout.session.completed.
type WebhookEvent struct {
	ID        string
	Type      string
	SessionID string
}

// ParseWebhook проверяет подпись и разбирает событие.
func (c *Client) ParseWebhook(payload []byte, signature string) (*WebhookEvent, error) {
	const op = "paymentprovider.ParseWebhook"
	if c.webhookSecret == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrWebhookNotConfigured)
	}

	event, err := webhook.ConstructEventWithOptions(
		payload,
		signature,
		c.webhookSecret,
		webhook.ConstructEventOptions{
			IgnoreAPIVersionMismatch: true,
		},
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	result := &WebhookEvent{ID: event.ID, Type: string(event.Type)}
	switch event.Type {
	case EventCheckoutSessionCompleted:
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result.SessionID = sess.ID
	}
	return result, nil
}
