package subscription

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/dmitrymomot/cashier/pkg/gateway"
	"github.com/dmitrymomot/cashier/pkg/logger"
	"github.com/dmitrymomot/cashier/pkg/webhook"
)

// Event types the subscription handlers react to. The names follow the
// provider's vocabulary since that is what arrives on the wire.
const (
	EventSubscriptionUpdated = "customer.subscription.updated"
	EventSubscriptionDeleted = "customer.subscription.deleted"
	EventPaymentActionNeeded = "invoice.payment_action_required"
)

// PaymentActionFunc is called when a renewal payment needs customer
// authentication, so the host can notify the customer (email with a link to
// the confirmation page, typically).
type PaymentActionFunc func(ctx context.Context, sub *Subscription, paymentID string) error

// WebhookHandlers reconciles local subscription rows against gateway
// webhook deliveries. Handlers are idempotent: a redelivered event finds
// the row already in the target state and leaves it alone, and events for
// subscriptions this system never created are acknowledged without effect.
type WebhookHandlers struct {
	store           Store
	log             *slog.Logger
	now             func() time.Time
	onPaymentAction PaymentActionFunc
}

// HandlersOption configures WebhookHandlers.
type HandlersOption func(*WebhookHandlers)

// WithHandlersLogger sets the logger. Defaults to slog.Default().
func WithHandlersLogger(log *slog.Logger) HandlersOption {
	return func(h *WebhookHandlers) {
		if log != nil {
			h.log = log
		}
	}
}

// WithHandlersClock overrides the time source, for tests.
func WithHandlersClock(now func() time.Time) HandlersOption {
	return func(h *WebhookHandlers) {
		if now != nil {
			h.now = now
		}
	}
}

// WithPaymentActionFunc sets the callback for renewal payments that need
// customer authentication.
func WithPaymentActionFunc(fn PaymentActionFunc) HandlersOption {
	return func(h *WebhookHandlers) {
		h.onPaymentAction = fn
	}
}

// NewWebhookHandlers builds the handler set. Panics when store is nil.
func NewWebhookHandlers(store Store, opts ...HandlersOption) *WebhookHandlers {
	if store == nil {
		panic("subscription: store is required")
	}
	h := &WebhookHandlers{
		store: store,
		log:   slog.Default(),
		now:   func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Options returns the dispatcher registrations for all subscription events,
// ready to pass to webhook.NewDispatcher.
func (h *WebhookHandlers) Options() []webhook.Option {
	return []webhook.Option{
		webhook.WithHandler(EventSubscriptionUpdated, h.SubscriptionUpdated),
		webhook.WithHandler(EventSubscriptionDeleted, h.SubscriptionDeleted),
		webhook.WithHandler(EventPaymentActionNeeded, h.PaymentActionRequired),
	}
}

// subscriptionPayload is the slice of the provider's subscription object the
// handlers decode. Unknown fields are ignored.
type subscriptionPayload struct {
	ID                string `json:"id"`
	Status            string `json:"status"`
	Quantity          int64  `json:"quantity"`
	CancelAtPeriodEnd bool   `json:"cancel_at_period_end"`
	CurrentPeriodEnd  int64  `json:"current_period_end"`
	TrialEnd          int64  `json:"trial_end"`
	Items             struct {
		Data []struct {
			Price struct {
				ID string `json:"id"`
			} `json:"price"`
			Plan struct {
				ID string `json:"id"`
			} `json:"plan"`
			Quantity int64 `json:"quantity"`
		} `json:"data"`
	} `json:"items"`
}

func (p *subscriptionPayload) planID() string {
	if len(p.Items.Data) == 0 {
		return ""
	}
	if id := p.Items.Data[0].Price.ID; id != "" {
		return id
	}
	return p.Items.Data[0].Plan.ID
}

func (p *subscriptionPayload) quantity() int64 {
	if p.Quantity > 0 {
		return p.Quantity
	}
	if len(p.Items.Data) > 0 {
		return p.Items.Data[0].Quantity
	}
	return 0
}

func (p *subscriptionPayload) state() *gateway.SubscriptionState {
	state := &gateway.SubscriptionState{
		ID:                p.ID,
		PlanID:            p.planID(),
		Quantity:          p.quantity(),
		Status:            gateway.Status(normalizeStatus(p.Status)),
		CancelAtPeriodEnd: p.CancelAtPeriodEnd,
	}
	if p.CurrentPeriodEnd > 0 {
		state.CurrentPeriodEnd = time.Unix(p.CurrentPeriodEnd, 0).UTC()
	}
	if p.TrialEnd > 0 {
		t := time.Unix(p.TrialEnd, 0).UTC()
		state.TrialEnd = &t
	}
	return state
}

func normalizeStatus(s string) string {
	if s == "canceled" {
		return string(StatusCancelled)
	}
	return s
}

// SubscriptionUpdated folds the gateway's updated view into the local row:
// status, plan, quantity, trial end, and the cancellation boundary when a
// pending cancellation is set or cleared remotely.
func (h *WebhookHandlers) SubscriptionUpdated(ctx context.Context, event webhook.Event) error {
	var payload subscriptionPayload
	if err := event.Object(&payload); err != nil {
		return err
	}
	if payload.ID == "" {
		h.log.WarnContext(ctx, "subscription event without id", logger.EventID(event.ID))
		return nil
	}

	sub, err := h.store.FindByGatewayID(ctx, payload.ID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			// Not one of ours; acknowledge so the gateway stops retrying.
			h.log.DebugContext(ctx, "ignoring event for unknown subscription",
				logger.GatewayID(payload.ID))
			return nil
		}
		return err
	}

	reconcileState(sub, payload.state(), h.now())
	return h.store.Update(ctx, sub)
}

// SubscriptionDeleted marks the subscription ended. A redelivery finds it
// already cancelled with an end date and does nothing.
func (h *WebhookHandlers) SubscriptionDeleted(ctx context.Context, event webhook.Event) error {
	var payload subscriptionPayload
	if err := event.Object(&payload); err != nil {
		return err
	}
	if payload.ID == "" {
		h.log.WarnContext(ctx, "subscription event without id", logger.EventID(event.ID))
		return nil
	}

	sub, err := h.store.FindByGatewayID(ctx, payload.ID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			h.log.DebugContext(ctx, "ignoring event for unknown subscription",
				logger.GatewayID(payload.ID))
			return nil
		}
		return err
	}

	if sub.Status == StatusCancelled && sub.EndsAt != nil {
		return nil
	}

	sub.Status = StatusCancelled
	if sub.EndsAt == nil || sub.EndsAt.After(h.now()) {
		// A grace-period boundary already in the past stays as recorded;
		// anything else collapses to the deletion moment.
		now := h.now()
		sub.EndsAt = &now
	}
	return h.store.Update(ctx, sub)
}

// invoicePayload is the slice of the provider's invoice object the payment
// action handler decodes.
type invoicePayload struct {
	Subscription  string `json:"subscription"`
	PaymentIntent string `json:"payment_intent"`
}

// PaymentActionRequired flags the row past due and notifies the host that
// the customer must authenticate a renewal payment.
func (h *WebhookHandlers) PaymentActionRequired(ctx context.Context, event webhook.Event) error {
	var payload invoicePayload
	if err := event.Object(&payload); err != nil {
		return err
	}
	if payload.Subscription == "" {
		return nil
	}

	sub, err := h.store.FindByGatewayID(ctx, payload.Subscription)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			h.log.DebugContext(ctx, "ignoring event for unknown subscription",
				logger.GatewayID(payload.Subscription))
			return nil
		}
		return err
	}

	if sub.Status != StatusPastDue {
		sub.Status = StatusPastDue
		if err := h.store.Update(ctx, sub); err != nil {
			return err
		}
	}

	if h.onPaymentAction != nil {
		return h.onPaymentAction(ctx, sub, payload.PaymentIntent)
	}
	return nil
}
