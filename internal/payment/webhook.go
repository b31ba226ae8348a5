package payment

import (
	"encoding/json"
	"fmt"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/webhook"
)

const eventCheckoutSessionCompleted = "checkout.session.completed"

// WebhookVerifier authenticates provider webhook deliveries.
type WebhookVerifier struct {
	secret string
}

func NewWebhookVerifier(secret string) *WebhookVerifier {
	return &WebhookVerifier{secret: secret}
}

func (v *WebhookVerifier) Enabled() bool {
	return v != nil && v.secret != ""
}

// CompletedSessionID verifies the signature of payload and, for a
// checkout.session.completed event, returns the session id. ok is false for
// every other event type.
func (v *WebhookVerifier) CompletedSessionID(payload []byte, signature string) (id string, ok bool, err error) {
	event, err := webhook.ConstructEventWithOptions(payload, signature, v.secret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return "", false, fmt.Errorf("invalid webhook: %w", err)
	}

	if string(event.Type) != eventCheckoutSessionCompleted {
		return "", false, nil
	}

	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		return "", false, fmt.Errorf("invalid checkout session payload: %w", err)
	}
	if session.ID == "" {
		return "", false, fmt.Errorf("checkout session payload has no id")
	}
	return session.ID, true, nil
}
