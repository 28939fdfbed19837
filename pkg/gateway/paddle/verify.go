package paddle

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"

	paddlesdk "github.com/PaddleHQ/paddle-go-sdk/v4"
)

// Verifier checks inbound webhook payloads against Paddle's signature
// scheme. It satisfies the webhook dispatcher's Verifier interface.
type Verifier struct {
	verifier *paddlesdk.WebhookVerifier
}

// NewVerifier creates a verifier for the given webhook secret.
func NewVerifier(secret string) (*Verifier, error) {
	if secret == "" {
		return nil, errors.New("paddle: webhook secret is required")
	}
	return &Verifier{verifier: paddlesdk.NewWebhookVerifier(secret)}, nil
}

// Verify validates the Paddle-Signature header against the raw body. The
// SDK verifier works on *http.Request, so the payload is wrapped in one.
func (v *Verifier) Verify(payload []byte, signature string) error {
	req, err := http.NewRequest(http.MethodPost, "/webhook", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build verification request: %w", err)
	}
	req.Header.Set("Paddle-Signature", signature)

	valid, err := v.verifier.Verify(req)
	if err != nil {
		return fmt.Errorf("webhook verification error: %w", err)
	}
	if !valid {
		return errors.New("webhook signature verification failed")
	}
	return nil
}
