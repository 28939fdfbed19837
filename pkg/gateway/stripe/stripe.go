// Package stripe implements the gateway contract on top of stripe-go. It is
// the primary gateway variant: every operation of gateway.Gateway is
// supported.
package stripe

import (
	"context"
	"time"

	stripeapi "github.com/stripe/stripe-go/v75"
	"github.com/stripe/stripe-go/v75/client"

	"github.com/dmitrymomot/cashier/pkg/gateway"
)

// Gateway implements gateway.Gateway against the Stripe REST API.
type Gateway struct {
	api     *client.API
	timeout time.Duration
}

// New creates a Stripe gateway client. The API key lives on the returned
// client only; no package-level credential is set.
func New(cfg Config) (*Gateway, error) {
	if cfg.SecretKey == "" {
		return nil, gateway.ErrInvalidConfiguration
	}

	timeout := cfg.CallTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	api := &client.API{}
	api.Init(cfg.SecretKey, nil)

	return &Gateway{api: api, timeout: timeout}, nil
}

// callContext bounds a gateway call so a stalled connection surfaces as
// gateway.ErrUnavailable instead of hanging the caller.
func (g *Gateway) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, g.timeout)
}

func (g *Gateway) CreateCustomer(ctx context.Context, params gateway.CreateCustomerParams) (*gateway.Customer, error) {
	ctx, cancel := g.callContext(ctx)
	defer cancel()

	p := &stripeapi.CustomerParams{
		Params: stripeapi.Params{Context: ctx},
	}
	if params.Email != "" {
		p.Email = stripeapi.String(params.Email)
	}
	if params.Name != "" {
		p.Name = stripeapi.String(params.Name)
	}
	for k, v := range params.Metadata {
		p.AddMetadata(k, v)
	}

	cus, err := g.api.Customers.New(p)
	if err != nil {
		return nil, mapError(ctx, err)
	}
	return customerState(cus), nil
}

func (g *Gateway) Customer(ctx context.Context, id string) (*gateway.Customer, error) {
	ctx, cancel := g.callContext(ctx)
	defer cancel()

	cus, err := g.api.Customers.Get(id, &stripeapi.CustomerParams{
		Params: stripeapi.Params{Context: ctx},
	})
	if err != nil {
		return nil, mapError(ctx, err)
	}
	return customerState(cus), nil
}

func (g *Gateway) UpdateCustomer(ctx context.Context, id string, params gateway.UpdateCustomerParams) (*gateway.Customer, error) {
	ctx, cancel := g.callContext(ctx)
	defer cancel()

	p := &stripeapi.CustomerParams{
		Params: stripeapi.Params{Context: ctx},
		Email:  params.Email,
		Name:   params.Name,
		Coupon: params.CouponID,
	}

	cus, err := g.api.Customers.Update(id, p)
	if err != nil {
		return nil, mapError(ctx, err)
	}
	return customerState(cus), nil
}

// RemoveCustomerDiscount clears the customer's discount. Stripe treats an
// empty coupon value on update as discount removal.
func (g *Gateway) RemoveCustomerDiscount(ctx context.Context, id string) error {
	ctx, cancel := g.callContext(ctx)
	defer cancel()

	_, err := g.api.Customers.Update(id, &stripeapi.CustomerParams{
		Params: stripeapi.Params{Context: ctx},
		Coupon: stripeapi.String(""),
	})
	if err != nil {
		return mapError(ctx, err)
	}
	return nil
}

func (g *Gateway) CreateSubscription(ctx context.Context, params gateway.CreateSubscriptionParams) (*gateway.SubscriptionState, error) {
	ctx, cancel := g.callContext(ctx)
	defer cancel()

	quantity := params.Quantity
	if quantity < 1 {
		quantity = 1
	}

	p := &stripeapi.SubscriptionParams{
		Params:   stripeapi.Params{Context: ctx},
		Customer: stripeapi.String(params.CustomerID),
		Items: []*stripeapi.SubscriptionItemsParams{{
			Price:    stripeapi.String(params.PlanID),
			Quantity: stripeapi.Int64(quantity),
		}},
		// Keep the subscription when the first payment does not settle;
		// the incomplete-payment flow collects it afterwards.
		PaymentBehavior: stripeapi.String("allow_incomplete"),
	}
	if params.TrialEnd != nil {
		p.TrialEnd = stripeapi.Int64(params.TrialEnd.Unix())
	}
	if params.CouponID != "" {
		p.Coupon = stripeapi.String(params.CouponID)
	}
	for k, v := range params.Metadata {
		p.AddMetadata(k, v)
	}
	p.AddExpand("latest_invoice.payment_intent")

	sub, err := g.api.Subscriptions.New(p)
	if err != nil {
		return nil, mapError(ctx, err)
	}
	return subscriptionState(sub), nil
}

func (g *Gateway) Subscription(ctx context.Context, id string) (*gateway.SubscriptionState, error) {
	ctx, cancel := g.callContext(ctx)
	defer cancel()

	p := &stripeapi.SubscriptionParams{Params: stripeapi.Params{Context: ctx}}
	p.AddExpand("latest_invoice.payment_intent")

	sub, err := g.api.Subscriptions.Get(id, p)
	if err != nil {
		return nil, mapError(ctx, err)
	}
	return subscriptionState(sub), nil
}

func (g *Gateway) UpdateSubscription(ctx context.Context, id string, params gateway.UpdateSubscriptionParams) (*gateway.SubscriptionState, error) {
	ctx, cancel := g.callContext(ctx)
	defer cancel()

	p := &stripeapi.SubscriptionParams{
		Params:            stripeapi.Params{Context: ctx},
		CancelAtPeriodEnd: params.CancelAtPeriodEnd,
		Coupon:            params.CouponID,
		PaymentBehavior:   stripeapi.String("allow_incomplete"),
	}
	if params.TrialEnd != nil {
		p.TrialEnd = stripeapi.Int64(params.TrialEnd.Unix())
	}
	if params.Prorate != nil {
		behavior := "none"
		if *params.Prorate {
			behavior = "create_prorations"
		}
		p.ProrationBehavior = stripeapi.String(behavior)
	}

	if params.PlanID != nil || params.Quantity != nil {
		// Stripe swaps plans by replacing the price on the existing item,
		// so fetch the current item id first.
		current, err := g.api.Subscriptions.Get(id, &stripeapi.SubscriptionParams{
			Params: stripeapi.Params{Context: ctx},
		})
		if err != nil {
			return nil, mapError(ctx, err)
		}
		if current.Items == nil || len(current.Items.Data) == 0 {
			return nil, gateway.ErrNotFound
		}

		item := &stripeapi.SubscriptionItemsParams{
			ID: stripeapi.String(current.Items.Data[0].ID),
		}
		if params.PlanID != nil {
			item.Price = stripeapi.String(*params.PlanID)
		}
		if params.Quantity != nil {
			item.Quantity = stripeapi.Int64(*params.Quantity)
		}
		p.Items = []*stripeapi.SubscriptionItemsParams{item}
	}
	p.AddExpand("latest_invoice.payment_intent")

	sub, err := g.api.Subscriptions.Update(id, p)
	if err != nil {
		return nil, mapError(ctx, err)
	}
	return subscriptionState(sub), nil
}

func (g *Gateway) CancelSubscription(ctx context.Context, id string, atPeriodEnd bool) (*gateway.SubscriptionState, error) {
	ctx, cancel := g.callContext(ctx)
	defer cancel()

	if atPeriodEnd {
		sub, err := g.api.Subscriptions.Update(id, &stripeapi.SubscriptionParams{
			Params:            stripeapi.Params{Context: ctx},
			CancelAtPeriodEnd: stripeapi.Bool(true),
		})
		if err != nil {
			return nil, mapError(ctx, err)
		}
		return subscriptionState(sub), nil
	}

	sub, err := g.api.Subscriptions.Cancel(id, &stripeapi.SubscriptionCancelParams{
		Params: stripeapi.Params{Context: ctx},
	})
	if err != nil {
		return nil, mapError(ctx, err)
	}
	return subscriptionState(sub), nil
}

func (g *Gateway) ResumeSubscription(ctx context.Context, id string) (*gateway.SubscriptionState, error) {
	ctx, cancel := g.callContext(ctx)
	defer cancel()

	sub, err := g.api.Subscriptions.Update(id, &stripeapi.SubscriptionParams{
		Params:            stripeapi.Params{Context: ctx},
		CancelAtPeriodEnd: stripeapi.Bool(false),
	})
	if err != nil {
		return nil, mapError(ctx, err)
	}
	return subscriptionState(sub), nil
}

func (g *Gateway) RemoveSubscriptionDiscount(ctx context.Context, id string) error {
	ctx, cancel := g.callContext(ctx)
	defer cancel()

	_, err := g.api.Subscriptions.Update(id, &stripeapi.SubscriptionParams{
		Params: stripeapi.Params{Context: ctx},
		Coupon: stripeapi.String(""),
	})
	if err != nil {
		return mapError(ctx, err)
	}
	return nil
}

func (g *Gateway) Invoices(ctx context.Context, customerID string, params gateway.ListInvoicesParams) ([]gateway.Invoice, error) {
	ctx, cancel := g.callContext(ctx)
	defer cancel()

	p := &stripeapi.InvoiceListParams{
		ListParams: stripeapi.ListParams{Context: ctx},
		Customer:   stripeapi.String(customerID),
	}
	if !params.From.IsZero() || !params.To.IsZero() {
		r := &stripeapi.RangeQueryParams{}
		if !params.From.IsZero() {
			r.GreaterThanOrEqual = params.From.Unix()
		}
		if !params.To.IsZero() {
			r.LesserThanOrEqual = params.To.Unix()
		}
		p.CreatedRange = r
	}

	var invoices []gateway.Invoice
	it := g.api.Invoices.List(p)
	for it.Next() {
		invoices = append(invoices, *invoiceState(it.Invoice()))
	}
	if err := it.Err(); err != nil {
		return nil, mapError(ctx, err)
	}
	return invoices, nil
}

func (g *Gateway) Invoice(ctx context.Context, id string) (*gateway.Invoice, error) {
	ctx, cancel := g.callContext(ctx)
	defer cancel()

	inv, err := g.api.Invoices.Get(id, &stripeapi.InvoiceParams{
		Params: stripeapi.Params{Context: ctx},
	})
	if err != nil {
		return nil, mapError(ctx, err)
	}
	return invoiceState(inv), nil
}

// InvoiceFor places a one-off line item on a fresh invoice and attempts to
// settle it against the customer's stored payment method.
func (g *Gateway) InvoiceFor(ctx context.Context, customerID string, item gateway.InvoiceItemParams) (*gateway.Invoice, error) {
	ctx, cancel := g.callContext(ctx)
	defer cancel()

	_, err := g.api.InvoiceItems.New(&stripeapi.InvoiceItemParams{
		Params:      stripeapi.Params{Context: ctx},
		Customer:    stripeapi.String(customerID),
		Amount:      stripeapi.Int64(item.Amount),
		Currency:    stripeapi.String(item.Currency),
		Description: stripeapi.String(item.Description),
	})
	if err != nil {
		return nil, mapError(ctx, err)
	}

	inv, err := g.api.Invoices.New(&stripeapi.InvoiceParams{
		Params:   stripeapi.Params{Context: ctx},
		Customer: stripeapi.String(customerID),
	})
	if err != nil {
		return nil, mapError(ctx, err)
	}

	paid, err := g.api.Invoices.Pay(inv.ID, &stripeapi.InvoicePayParams{
		Params: stripeapi.Params{Context: ctx},
	})
	if err != nil {
		return nil, mapError(ctx, err)
	}
	return invoiceState(paid), nil
}

func (g *Gateway) Charge(ctx context.Context, params gateway.ChargeParams) (*gateway.Payment, error) {
	ctx, cancel := g.callContext(ctx)
	defer cancel()

	p := &stripeapi.PaymentIntentParams{
		Params:     stripeapi.Params{Context: ctx},
		Amount:     stripeapi.Int64(params.Amount),
		Currency:   stripeapi.String(params.Currency),
		Customer:   stripeapi.String(params.CustomerID),
		Confirm:    stripeapi.Bool(true),
		OffSession: stripeapi.Bool(true),
	}
	if params.Description != "" {
		p.Description = stripeapi.String(params.Description)
	}
	if params.PaymentMethodID != "" {
		p.PaymentMethod = stripeapi.String(params.PaymentMethodID)
	}

	pi, err := g.api.PaymentIntents.New(p)
	if err != nil {
		return nil, mapError(ctx, err)
	}

	payment := paymentState(pi)
	if pe := gateway.PaymentErrorFromAttempt(payment); pe != nil {
		return payment, pe
	}
	return payment, nil
}

func (g *Gateway) Payment(ctx context.Context, id string) (*gateway.Payment, error) {
	ctx, cancel := g.callContext(ctx)
	defer cancel()

	pi, err := g.api.PaymentIntents.Get(id, &stripeapi.PaymentIntentParams{
		Params: stripeapi.Params{Context: ctx},
	})
	if err != nil {
		return nil, mapError(ctx, err)
	}
	return paymentState(pi), nil
}

func (g *Gateway) Refund(ctx context.Context, paymentID string, amount int64) (*gateway.Refund, error) {
	ctx, cancel := g.callContext(ctx)
	defer cancel()

	p := &stripeapi.RefundParams{
		Params:        stripeapi.Params{Context: ctx},
		PaymentIntent: stripeapi.String(paymentID),
	}
	if amount > 0 {
		p.Amount = stripeapi.Int64(amount)
	}

	ref, err := g.api.Refunds.New(p)
	if err != nil {
		return nil, mapError(ctx, err)
	}
	return &gateway.Refund{
		ID:        ref.ID,
		PaymentID: paymentID,
		Amount:    ref.Amount,
		Currency:  string(ref.Currency),
		Status:    string(ref.Status),
	}, nil
}

func (g *Gateway) CreateCoupon(ctx context.Context, params gateway.CreateCouponParams) (*gateway.Coupon, error) {
	ctx, cancel := g.callContext(ctx)
	defer cancel()

	p := &stripeapi.CouponParams{
		Params: stripeapi.Params{Context: ctx},
	}
	if params.ID != "" {
		p.ID = stripeapi.String(params.ID)
	}
	if params.PercentOff > 0 {
		p.PercentOff = stripeapi.Float64(params.PercentOff)
	}
	if params.AmountOff > 0 {
		p.AmountOff = stripeapi.Int64(params.AmountOff)
		p.Currency = stripeapi.String(params.Currency)
	}
	if params.Duration != "" {
		p.Duration = stripeapi.String(params.Duration)
	}

	c, err := g.api.Coupons.New(p)
	if err != nil {
		return nil, mapError(ctx, err)
	}
	return couponState(c), nil
}

func (g *Gateway) Coupon(ctx context.Context, id string) (*gateway.Coupon, error) {
	ctx, cancel := g.callContext(ctx)
	defer cancel()

	c, err := g.api.Coupons.Get(id, &stripeapi.CouponParams{
		Params: stripeapi.Params{Context: ctx},
	})
	if err != nil {
		return nil, mapError(ctx, err)
	}
	return couponState(c), nil
}
