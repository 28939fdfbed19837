// Package billing exposes the HTTP surface of the billing toolkit: the
// inbound webhook endpoint and the payment confirmation data endpoint the
// hosted confirmation page is built from.
package billing

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/cashier/pkg/billable"
	"github.com/dmitrymomot/cashier/pkg/gateway"
	"github.com/dmitrymomot/cashier/pkg/logger"
	"github.com/dmitrymomot/cashier/pkg/webhook"
)

// RouterOptions configures the billing module router. Webhooks is required;
// Payments is optional and only mounted when provided.
type RouterOptions struct {
	// Webhooks receives gateway event deliveries on POST /webhook.
	Webhooks *webhook.Dispatcher
	// Payments backs GET /payments/{id}, the confirmation-page data source.
	Payments *billable.Service
	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Router creates the billing module router.
//
// Example:
//
//	dispatcher, _ := webhook.NewDispatcher(append(
//	    handlers.Options(),
//	    webhook.WithVerifier(verifier),
//	)...)
//
//	r := chi.NewRouter()
//	r.Mount("/billing", billing.Router(billing.RouterOptions{
//	    Webhooks: dispatcher,
//	    Payments: billableSvc,
//	}))
func Router(opts RouterOptions) chi.Router {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}

	r := chi.NewRouter()

	if opts.Webhooks != nil {
		r.Method(http.MethodPost, "/webhook", opts.Webhooks)
	}
	if opts.Payments != nil {
		r.Get("/payments/{id}", paymentHandler(opts.Payments, log))
	}

	return r
}

// paymentResponse is the confirmation-page payload: everything the page
// needs to render the amount and drive the gateway's client-side
// confirmation flow.
type paymentResponse struct {
	ID                 string   `json:"id"`
	Status             string   `json:"status"`
	Amount             int64    `json:"amount"`
	Currency           string   `json:"currency"`
	ClientSecret       string   `json:"client_secret,omitempty"`
	PaymentMethodTypes []string `json:"payment_method_types,omitempty"`
	CustomerID         string   `json:"customer_id,omitempty"`
	RequiresAction     bool     `json:"requires_action"`
	Succeeded          bool     `json:"succeeded"`
	// RedirectURL echoes the page's ?redirect parameter so the client-side
	// confirmation flow knows where to send the customer afterwards.
	RedirectURL string `json:"redirect_url,omitempty"`
}

func paymentHandler(payments *billable.Service, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if id == "" {
			http.Error(w, "missing payment id", http.StatusBadRequest)
			return
		}

		payment, err := payments.FindPayment(r.Context(), id)
		if err != nil {
			switch {
			case errors.Is(err, gateway.ErrNotFound):
				http.Error(w, "payment not found", http.StatusNotFound)
			default:
				log.ErrorContext(r.Context(), "failed to fetch payment",
					logger.PaymentID(id),
					logger.Error(err))
				http.Error(w, "failed to fetch payment", http.StatusBadGateway)
			}
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(paymentResponse{
			ID:                 payment.ID,
			Status:             string(payment.Status),
			Amount:             payment.Amount,
			Currency:           payment.Currency,
			ClientSecret:       payment.ClientSecret,
			PaymentMethodTypes: payment.PaymentMethodTypes,
			CustomerID:         payment.CustomerID,
			RequiresAction:     payment.RequiresAction(),
			Succeeded:          payment.Succeeded(),
			RedirectURL:        r.URL.Query().Get("redirect"),
		})
	}
}
