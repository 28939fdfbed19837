package stripe

import (
	"context"
	"errors"
	"net/http"

	stripeapi "github.com/stripe/stripe-go/v75"

	"github.com/dmitrymomot/cashier/pkg/gateway"
)

// mapError translates stripe-go failures into the shared gateway taxonomy.
// Card failures become *gateway.PaymentError so subscription-affecting
// operations can apply their local change and surface the failed attempt.
func mapError(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}

	var sErr *stripeapi.Error
	if errors.As(err, &sErr) {
		switch {
		case sErr.Code == stripeapi.ErrorCodeResourceMissing,
			sErr.HTTPStatusCode == http.StatusNotFound:
			return errors.Join(gateway.ErrNotFound, err)
		case string(sErr.Code) == "authentication_required":
			return gateway.NewPaymentActionRequiredError(intentFromError(sErr))
		case sErr.Type == stripeapi.ErrorTypeCard:
			return gateway.NewPaymentDeclinedError(intentFromError(sErr))
		case sErr.HTTPStatusCode >= http.StatusInternalServerError:
			return errors.Join(gateway.ErrUnavailable, err)
		}
		return err
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return errors.Join(gateway.ErrUnavailable, err)
	}

	// Anything without a Stripe error body never reached the API.
	return errors.Join(gateway.ErrUnavailable, err)
}

func intentFromError(sErr *stripeapi.Error) *gateway.Payment {
	if sErr.PaymentIntent == nil {
		return nil
	}
	return paymentState(sErr.PaymentIntent)
}
