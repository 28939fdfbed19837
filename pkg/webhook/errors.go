package webhook

import "errors"

var (
	// ErrVerificationFailed indicates the signature did not validate against
	// the raw body. No handler runs and no parse result leaks.
	ErrVerificationFailed = errors.New("webhook signature verification failed")
	// ErrMalformedPayload indicates the body could not be parsed into an
	// event with a type.
	ErrMalformedPayload = errors.New("malformed webhook payload")
	// ErrInvalidConfiguration indicates invalid dispatcher setup.
	ErrInvalidConfiguration = errors.New("invalid webhook configuration")
)
