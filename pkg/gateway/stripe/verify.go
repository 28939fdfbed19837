package stripe

import (
	"errors"

	"github.com/stripe/stripe-go/v75/webhook"
)

// Verifier checks inbound webhook payloads against Stripe's signature
// scheme. It satisfies the webhook dispatcher's Verifier interface.
type Verifier struct {
	secret string
}

// NewVerifier creates a verifier for the given endpoint signing secret.
func NewVerifier(secret string) (*Verifier, error) {
	if secret == "" {
		return nil, errors.New("stripe: webhook signing secret is required")
	}
	return &Verifier{secret: secret}, nil
}

// Verify validates the Stripe-Signature header against the raw body.
func (v *Verifier) Verify(payload []byte, signature string) error {
	_, err := webhook.ConstructEventWithOptions(payload, signature, v.secret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	return err
}
