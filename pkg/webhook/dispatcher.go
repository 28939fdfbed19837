package webhook

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/cashier/pkg/logger"
)

// defaultMaxBodyBytes caps inbound webhook bodies. Invoice events carry
// every line item, so the default is generous; tune with WithMaxBodyBytes.
const defaultMaxBodyBytes = 1 << 20

// HandlerFunc processes a single verified, parsed event. Handlers must be
// idempotent: gateways redeliver events, and two deliveries for the same
// subscription may run concurrently in separate processes.
type HandlerFunc func(ctx context.Context, event Event) error

// Verifier checks payload authenticity before any handler runs.
// Implementations are provider-specific (see gateway/stripe, gateway/paddle)
// or the generic HMAC verifier in this package.
type Verifier interface {
	Verify(payload []byte, signature string) error
}

// Dispatcher maps event type strings to registered handlers. The table is
// fixed after construction; there is no reflective lookup at request time.
type Dispatcher struct {
	handlers        map[string]HandlerFunc
	verifier        Verifier
	guard           IdempotencyGuard
	signatureHeader string
	maxBodyBytes    int64
	log             *slog.Logger
}

// Option configures a Dispatcher.
type Option func(*Dispatcher) error

// WithVerifier sets the signature verifier. Without one the dispatcher
// accepts unsigned payloads, which is only sensible behind a trusted proxy.
func WithVerifier(v Verifier) Option {
	return func(d *Dispatcher) error {
		d.verifier = v
		return nil
	}
}

// WithIdempotencyGuard makes the dispatcher skip redelivered events. The
// guard fails open: if it errors the handler still runs, since handlers are
// required to be idempotent anyway.
func WithIdempotencyGuard(g IdempotencyGuard) Option {
	return func(d *Dispatcher) error {
		d.guard = g
		return nil
	}
}

// WithSignatureHeader overrides the header the HTTP handler reads the
// signature from. Defaults to "Stripe-Signature".
func WithSignatureHeader(name string) Option {
	return func(d *Dispatcher) error {
		if name == "" {
			return fmt.Errorf("%w: signature header cannot be empty", ErrInvalidConfiguration)
		}
		d.signatureHeader = name
		return nil
	}
}

// WithMaxBodyBytes overrides the inbound body size cap. Bodies over the cap
// are rejected with a 400 before verification.
func WithMaxBodyBytes(n int64) Option {
	return func(d *Dispatcher) error {
		if n <= 0 {
			return fmt.Errorf("%w: body size cap must be positive", ErrInvalidConfiguration)
		}
		d.maxBodyBytes = n
		return nil
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(log *slog.Logger) Option {
	return func(d *Dispatcher) error {
		if log != nil {
			d.log = log
		}
		return nil
	}
}

// WithHandler registers a handler for an event type. Registering twice for
// the same type is a configuration error, caught at startup.
func WithHandler(eventType string, fn HandlerFunc) Option {
	return func(d *Dispatcher) error {
		if eventType == "" {
			return fmt.Errorf("%w: event type cannot be empty", ErrInvalidConfiguration)
		}
		if fn == nil {
			return fmt.Errorf("%w: handler for %q is nil", ErrInvalidConfiguration, eventType)
		}
		if _, exists := d.handlers[eventType]; exists {
			return fmt.Errorf("%w: handler for %q already registered", ErrInvalidConfiguration, eventType)
		}
		d.handlers[eventType] = fn
		return nil
	}
}

// NewDispatcher builds a dispatcher and validates its handler table.
func NewDispatcher(opts ...Option) (*Dispatcher, error) {
	d := &Dispatcher{
		handlers:        make(map[string]HandlerFunc),
		signatureHeader: "Stripe-Signature",
		maxBodyBytes:    defaultMaxBodyBytes,
		log:             slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(d); err != nil {
			return nil, err
		}
	}
	return d, nil
}

// Dispatch verifies, parses, and routes one delivery. It reports whether a
// handler ran; an unrecognized event type is (false, nil) by design so the
// caller can still acknowledge the delivery.
func (d *Dispatcher) Dispatch(ctx context.Context, payload []byte, signature string) (handled bool, err error) {
	if d.verifier != nil {
		if err := d.verifier.Verify(payload, signature); err != nil {
			return false, errors.Join(ErrVerificationFailed, err)
		}
	}

	event, err := parseEvent(payload)
	if err != nil {
		return false, err
	}

	handler, ok := d.handlers[event.Type]
	if !ok {
		d.log.DebugContext(ctx, "ignoring webhook event without handler",
			logger.EventID(event.ID),
			logger.EventType(event.Type))
		return false, nil
	}

	if d.guard != nil {
		first, err := d.guard.FirstDelivery(ctx, event.ID)
		if err != nil {
			d.log.WarnContext(ctx, "idempotency guard failed, running handler anyway",
				logger.EventID(event.ID),
				logger.Error(err))
		} else if !first {
			d.log.DebugContext(ctx, "skipping redelivered webhook event",
				logger.EventID(event.ID),
				logger.EventType(event.Type))
			return true, nil
		}
	}

	if err := handler(ctx, event); err != nil {
		return true, fmt.Errorf("handler for %q failed: %w", event.Type, err)
	}
	return true, nil
}

// ServeHTTP implements the inbound webhook endpoint contract: 200 for both
// handled and deliberately ignored events, 400 for unverifiable or
// unparseable input, 500 for a failing handler so the gateway redelivers.
func (d *Dispatcher) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, d.maxBodyBytes)
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "failed to read request body", http.StatusBadRequest)
		return
	}

	handled, err := d.Dispatch(r.Context(), payload, r.Header.Get(d.signatureHeader))
	switch {
	case errors.Is(err, ErrVerificationFailed):
		d.log.WarnContext(r.Context(), "rejected webhook delivery", logger.Error(err))
		http.Error(w, "signature verification failed", http.StatusBadRequest)
	case errors.Is(err, ErrMalformedPayload):
		http.Error(w, "malformed payload", http.StatusBadRequest)
	case err != nil:
		d.log.ErrorContext(r.Context(), "webhook handler failed", logger.Error(err))
		http.Error(w, "webhook processing failed", http.StatusInternalServerError)
	case handled:
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"received"}`))
	default:
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ignored"}`))
	}
}
