// Package paddle implements the gateway contract on top of the Paddle SDK.
// It is the secondary gateway variant: Paddle bills through hosted checkouts
// and manages payment collection itself, so the variant covers customers,
// subscription reads, swaps, quantity changes and cancellation. Operations
// Paddle does not expose through its API (direct charges, invoice items,
// refunds by payment id, coupon CRUD, resuming a scheduled cancellation)
// return gateway.ErrNotSupported.
package paddle

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	paddlesdk "github.com/PaddleHQ/paddle-go-sdk/v4"
	"github.com/PaddleHQ/paddle-go-sdk/v4/pkg/paddleerr"

	"github.com/dmitrymomot/cashier/pkg/gateway"
)

// Config holds Paddle client configuration.
type Config struct {
	APIKey        string        `env:"PADDLE_API_KEY,required"`
	WebhookSecret string        `env:"PADDLE_WEBHOOK_SECRET"`
	Environment   string        `env:"PADDLE_ENVIRONMENT" envDefault:"production"`
	CallTimeout   time.Duration `env:"PADDLE_CALL_TIMEOUT" envDefault:"15s"`
}

// Gateway implements a subset of gateway.Gateway against the Paddle API.
type Gateway struct {
	sdk     *paddlesdk.SDK
	timeout time.Duration
}

// New creates a Paddle gateway client for the configured environment.
func New(cfg Config) (*Gateway, error) {
	if cfg.APIKey == "" {
		return nil, gateway.ErrInvalidConfiguration
	}

	var sdk *paddlesdk.SDK
	var err error
	switch strings.ToLower(cfg.Environment) {
	case "sandbox":
		sdk, err = paddlesdk.NewSandbox(cfg.APIKey)
	case "production", "":
		sdk, err = paddlesdk.New(cfg.APIKey)
	default:
		return nil, fmt.Errorf("%w: unknown paddle environment %q", gateway.ErrInvalidConfiguration, cfg.Environment)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create paddle client: %w", err)
	}

	timeout := cfg.CallTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	return &Gateway{sdk: sdk, timeout: timeout}, nil
}

func (g *Gateway) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, g.timeout)
}

func (g *Gateway) CreateCustomer(ctx context.Context, params gateway.CreateCustomerParams) (*gateway.Customer, error) {
	ctx, cancel := g.callContext(ctx)
	defer cancel()

	req := &paddlesdk.CreateCustomerRequest{
		Email: params.Email,
	}
	if params.Name != "" {
		req.Name = paddlesdk.PtrTo(params.Name)
	}

	cus, err := g.sdk.CustomersClient.CreateCustomer(ctx, req)
	if err != nil {
		return nil, mapError(ctx, err)
	}
	return customerState(cus), nil
}

func (g *Gateway) Customer(ctx context.Context, id string) (*gateway.Customer, error) {
	ctx, cancel := g.callContext(ctx)
	defer cancel()

	cus, err := g.sdk.CustomersClient.GetCustomer(ctx, &paddlesdk.GetCustomerRequest{
		CustomerID: id,
	})
	if err != nil {
		return nil, mapError(ctx, err)
	}
	return customerState(cus), nil
}

func (g *Gateway) UpdateCustomer(ctx context.Context, id string, params gateway.UpdateCustomerParams) (*gateway.Customer, error) {
	ctx, cancel := g.callContext(ctx)
	defer cancel()

	if params.CouponID != nil {
		return nil, gateway.ErrNotSupported
	}

	req := &paddlesdk.UpdateCustomerRequest{
		CustomerID: id,
	}
	if params.Email != nil {
		req.Email = paddlesdk.NewPatchField(*params.Email)
	}
	if params.Name != nil {
		req.Name = paddlesdk.NewPatchField(paddlesdk.PtrTo(*params.Name))
	}

	cus, err := g.sdk.CustomersClient.UpdateCustomer(ctx, req)
	if err != nil {
		return nil, mapError(ctx, err)
	}
	return customerState(cus), nil
}

func (g *Gateway) RemoveCustomerDiscount(ctx context.Context, id string) error {
	return gateway.ErrNotSupported
}

// CreateSubscription is not offered: Paddle creates subscriptions through
// hosted checkout transactions, never through a direct API call.
func (g *Gateway) CreateSubscription(ctx context.Context, params gateway.CreateSubscriptionParams) (*gateway.SubscriptionState, error) {
	return nil, gateway.ErrNotSupported
}

func (g *Gateway) Subscription(ctx context.Context, id string) (*gateway.SubscriptionState, error) {
	ctx, cancel := g.callContext(ctx)
	defer cancel()

	sub, err := g.sdk.SubscriptionsClient.GetSubscription(ctx, &paddlesdk.GetSubscriptionRequest{
		SubscriptionID: id,
	})
	if err != nil {
		return nil, mapError(ctx, err)
	}
	return subscriptionState(sub), nil
}

func (g *Gateway) UpdateSubscription(ctx context.Context, id string, params gateway.UpdateSubscriptionParams) (*gateway.SubscriptionState, error) {
	ctx, cancel := g.callContext(ctx)
	defer cancel()

	if params.CouponID != nil || params.TrialEnd != nil || params.CancelAtPeriodEnd != nil {
		return nil, gateway.ErrNotSupported
	}

	req := &paddlesdk.UpdateSubscriptionRequest{
		SubscriptionID: id,
	}
	if params.PlanID != nil || params.Quantity != nil {
		current, err := g.sdk.SubscriptionsClient.GetSubscription(ctx, &paddlesdk.GetSubscriptionRequest{
			SubscriptionID: id,
		})
		if err != nil {
			return nil, mapError(ctx, err)
		}
		priceID, quantity := currentItem(current)
		if params.PlanID != nil {
			priceID = *params.PlanID
		}
		if params.Quantity != nil {
			quantity = int(*params.Quantity)
		}
		req.Items = paddlesdk.NewPatchField([]paddlesdk.UpdateSubscriptionItems{{
			SubscriptionUpdateItemFromCatalog: &paddlesdk.SubscriptionUpdateItemFromCatalog{
				PriceID:  priceID,
				Quantity: quantity,
			},
		}})
		req.ProrationBillingMode = paddlesdk.NewPatchField(paddlesdk.ProrationBillingModeProratedImmediately)
	}

	sub, err := g.sdk.SubscriptionsClient.UpdateSubscription(ctx, req)
	if err != nil {
		return nil, mapError(ctx, err)
	}
	return subscriptionState(sub), nil
}

func (g *Gateway) CancelSubscription(ctx context.Context, id string, atPeriodEnd bool) (*gateway.SubscriptionState, error) {
	ctx, cancel := g.callContext(ctx)
	defer cancel()

	effective := paddlesdk.EffectiveFromImmediately
	if atPeriodEnd {
		effective = paddlesdk.EffectiveFromNextBillingPeriod
	}

	sub, err := g.sdk.SubscriptionsClient.CancelSubscription(ctx, &paddlesdk.CancelSubscriptionRequest{
		SubscriptionID: id,
		EffectiveFrom:  paddlesdk.PtrTo(effective),
	})
	if err != nil {
		return nil, mapError(ctx, err)
	}
	return subscriptionState(sub), nil
}

// ResumeSubscription is not offered: the pinned SDK version has no call to
// drop a scheduled cancellation.
func (g *Gateway) ResumeSubscription(ctx context.Context, id string) (*gateway.SubscriptionState, error) {
	return nil, gateway.ErrNotSupported
}

func (g *Gateway) RemoveSubscriptionDiscount(ctx context.Context, id string) error {
	return gateway.ErrNotSupported
}

func (g *Gateway) Invoices(ctx context.Context, customerID string, params gateway.ListInvoicesParams) ([]gateway.Invoice, error) {
	return nil, gateway.ErrNotSupported
}

func (g *Gateway) Invoice(ctx context.Context, id string) (*gateway.Invoice, error) {
	return nil, gateway.ErrNotSupported
}

func (g *Gateway) InvoiceFor(ctx context.Context, customerID string, item gateway.InvoiceItemParams) (*gateway.Invoice, error) {
	return nil, gateway.ErrNotSupported
}

func (g *Gateway) Charge(ctx context.Context, params gateway.ChargeParams) (*gateway.Payment, error) {
	return nil, gateway.ErrNotSupported
}

func (g *Gateway) Payment(ctx context.Context, id string) (*gateway.Payment, error) {
	return nil, gateway.ErrNotSupported
}

func (g *Gateway) Refund(ctx context.Context, paymentID string, amount int64) (*gateway.Refund, error) {
	return nil, gateway.ErrNotSupported
}

func (g *Gateway) CreateCoupon(ctx context.Context, params gateway.CreateCouponParams) (*gateway.Coupon, error) {
	return nil, gateway.ErrNotSupported
}

func (g *Gateway) Coupon(ctx context.Context, id string) (*gateway.Coupon, error) {
	return nil, gateway.ErrNotSupported
}

func customerState(cus *paddlesdk.Customer) *gateway.Customer {
	out := &gateway.Customer{
		ID:    cus.ID,
		Email: cus.Email,
	}
	if cus.Name != nil {
		out.Name = *cus.Name
	}
	return out
}

func subscriptionState(sub *paddlesdk.Subscription) *gateway.SubscriptionState {
	state := &gateway.SubscriptionState{
		ID:         sub.ID,
		CustomerID: sub.CustomerID,
		Status:     mapStatus(string(sub.Status)),
	}
	if len(sub.Items) > 0 {
		item := sub.Items[0]
		state.Quantity = int64(item.Quantity)
		state.PlanID = item.Price.ID
	}
	if sub.CurrentBillingPeriod != nil {
		if end, err := time.Parse(time.RFC3339, sub.CurrentBillingPeriod.EndsAt); err == nil {
			state.CurrentPeriodEnd = end.UTC()
		}
	}
	if sub.ScheduledChange != nil && string(sub.ScheduledChange.Action) == "cancel" {
		state.CancelAtPeriodEnd = true
	}
	return state
}

func mapStatus(s string) gateway.Status {
	switch s {
	case "trialing":
		return gateway.StatusTrialing
	case "active":
		return gateway.StatusActive
	case "past_due":
		return gateway.StatusPastDue
	case "canceled", "cancelled":
		return gateway.StatusCancelled
	case "paused":
		return gateway.StatusUnpaid
	default:
		return gateway.Status(s)
	}
}

func currentItem(sub *paddlesdk.Subscription) (priceID string, quantity int) {
	if len(sub.Items) == 0 {
		return "", 1
	}
	return sub.Items[0].Price.ID, sub.Items[0].Quantity
}

func mapError(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}

	var apiErr *paddleerr.Error
	if errors.As(err, &apiErr) {
		if string(apiErr.Code) == "entity_not_found" {
			return errors.Join(gateway.ErrNotFound, err)
		}
		return err
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return errors.Join(gateway.ErrUnavailable, err)
	}
	return errors.Join(gateway.ErrUnavailable, err)
}
