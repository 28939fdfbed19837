package gateway

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates the referenced object does not exist at the gateway.
	ErrNotFound = errors.New("gateway object not found")
	// ErrUnavailable indicates a transport failure or timeout talking to the
	// gateway. Not retried by this toolkit.
	ErrUnavailable = errors.New("gateway unavailable")
	// ErrNotSupported indicates the operation is not offered by this gateway
	// variant.
	ErrNotSupported = errors.New("operation not supported by gateway")
	// ErrInvalidConfiguration indicates missing or inconsistent gateway
	// client configuration.
	ErrInvalidConfiguration = errors.New("invalid gateway configuration")

	// ErrPaymentDeclined and ErrPaymentActionRequired are the identities a
	// *PaymentError unwraps to, so callers can classify with errors.Is
	// without touching the concrete type.
	ErrPaymentDeclined       = errors.New("payment declined")
	ErrPaymentActionRequired = errors.New("payment requires customer action")
)

// PaymentError signals that a payment attempt did not settle: either the
// charge was declined or the customer must complete additional
// authentication. Operations that raise it have already applied their local
// change; the subscription is left incomplete, not rolled back.
type PaymentError struct {
	PaymentID string
	Status    PaymentStatus
	Payment   *Payment // the failed attempt, when known
	kind      error    // ErrPaymentDeclined or ErrPaymentActionRequired
}

// NewPaymentDeclinedError builds a PaymentError for a declined charge.
func NewPaymentDeclinedError(p *Payment) *PaymentError {
	return newPaymentError(p, ErrPaymentDeclined)
}

// NewPaymentActionRequiredError builds a PaymentError for an attempt that
// needs customer authentication.
func NewPaymentActionRequiredError(p *Payment) *PaymentError {
	return newPaymentError(p, ErrPaymentActionRequired)
}

// PaymentErrorFromAttempt classifies a payment attempt, returning nil when
// the attempt needs no caller intervention.
func PaymentErrorFromAttempt(p *Payment) *PaymentError {
	switch {
	case p == nil:
		return nil
	case p.RequiresAction():
		return NewPaymentActionRequiredError(p)
	case p.RequiresPaymentMethod():
		return NewPaymentDeclinedError(p)
	default:
		return nil
	}
}

func newPaymentError(p *Payment, kind error) *PaymentError {
	e := &PaymentError{kind: kind}
	if p != nil {
		e.PaymentID = p.ID
		e.Status = p.Status
		e.Payment = p
	}
	return e
}

func (e *PaymentError) Error() string {
	return fmt.Sprintf("%s: payment %s (status %s)", e.kind, e.PaymentID, e.Status)
}

func (e *PaymentError) Unwrap() error { return e.kind }

// RequiresAction reports whether the failure is recoverable by customer
// authentication rather than a new payment method.
func (e *PaymentError) RequiresAction() bool {
	return errors.Is(e.kind, ErrPaymentActionRequired)
}

// AsPaymentError extracts a *PaymentError from an error chain.
func AsPaymentError(err error) (*PaymentError, bool) {
	var pe *PaymentError
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}
