package subscription

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/cashier/pkg/billable"
	"github.com/dmitrymomot/cashier/pkg/gateway"
)

// Remediation tells the caller what, if anything, the customer must do to
// finish activating a freshly created subscription.
type Remediation string

const (
	// RemediationNone means the subscription is fully active (or trialing).
	RemediationNone Remediation = ""
	// RemediationConfirmPayment means the initial payment needs customer
	// authentication; route them to the payment confirmation page.
	RemediationConfirmPayment Remediation = "confirm_payment"
	// RemediationUpdatePaymentMethod means the initial charge was declined
	// and a different payment method is needed.
	RemediationUpdatePaymentMethod Remediation = "update_payment_method"
)

// CreateResult is the outcome of Builder.Create. The subscription always
// exists, both at the gateway and locally; Remediation marks whether it is
// fully paid-up or stuck incomplete, and Payment carries the attempt to
// confirm when it is not.
type CreateResult struct {
	Subscription *Subscription
	Remediation  Remediation
	// Payment is the initial payment attempt when remediation is needed.
	Payment *gateway.Payment
}

// Builder assembles a new subscription for a billable entity. Configure it
// with the chainable methods, then call Create once.
type Builder struct {
	gw        gateway.Gateway
	store     Store
	customers *billable.Service

	owner    billable.Billable
	name     string
	planID   string
	quantity int64
	trialEnd *time.Time
	couponID string
	metadata map[string]string
	now      func() time.Time
}

// NewBuilder starts a subscription for owner under the given name on the
// given plan. Panics on nil dependencies.
func NewBuilder(gw gateway.Gateway, store Store, customers *billable.Service, owner billable.Billable, name, planID string) *Builder {
	if gw == nil {
		panic("subscription: gateway is required")
	}
	if store == nil {
		panic("subscription: store is required")
	}
	if customers == nil {
		panic("subscription: billable service is required")
	}
	if owner == nil {
		panic("subscription: owner is required")
	}
	return &Builder{
		gw:        gw,
		store:     store,
		customers: customers,
		owner:     owner,
		name:      name,
		planID:    planID,
		quantity:  MinQuantity,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Quantity sets the initial quantity. Values below the floor fail at Create.
func (b *Builder) Quantity(q int64) *Builder {
	b.quantity = q
	return b
}

// TrialDays grants a trial of the given number of days from creation.
func (b *Builder) TrialDays(days int) *Builder {
	ends := b.now().AddDate(0, 0, days)
	b.trialEnd = &ends
	return b
}

// TrialUntil grants a trial ending at the given time.
func (b *Builder) TrialUntil(t time.Time) *Builder {
	b.trialEnd = &t
	return b
}

// SkipTrial clears any trial, including a plan-level default at the gateway.
func (b *Builder) SkipTrial() *Builder {
	b.trialEnd = nil
	return b
}

// WithCoupon applies a discount to the new subscription.
func (b *Builder) WithCoupon(couponID string) *Builder {
	b.couponID = couponID
	return b
}

// WithMetadata attaches gateway metadata to the new subscription.
func (b *Builder) WithMetadata(md map[string]string) *Builder {
	b.metadata = md
	return b
}

// withClock overrides the time source, for tests.
func (b *Builder) withClock(now func() time.Time) *Builder {
	if now != nil {
		b.now = now
	}
	return b
}

// Create registers the gateway customer if needed, creates the subscription
// at the gateway, and persists the local row. A live subscription under the
// same name fails with ErrAlreadyExists; an ended one does not block, so an
// owner can resubscribe after cancelling and lapsing.
//
// A declined or authentication-requiring initial payment is NOT an error:
// the subscription is persisted with an incomplete status and the result's
// Remediation and Payment fields tell the caller how to finish. Errors are
// reserved for cases where no subscription came into being.
func (b *Builder) Create(ctx context.Context) (*CreateResult, error) {
	if b.quantity < MinQuantity {
		return nil, ErrQuantityFloor
	}

	if existing, err := b.store.FindByOwnerAndName(ctx, b.owner.BillingID(), b.name); err == nil && existing != nil {
		// Only a live subscription reserves the name slot. An ended row
		// stays for history and the new subscription supersedes it.
		if !existing.IsEndedAt(b.now()) {
			return nil, ErrAlreadyExists
		}
	} else if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	customerID, err := b.customers.EnsureCustomer(ctx, b.owner)
	if err != nil {
		return nil, err
	}

	state, err := b.gw.CreateSubscription(ctx, gateway.CreateSubscriptionParams{
		CustomerID: customerID,
		PlanID:     b.planID,
		Quantity:   b.quantity,
		TrialEnd:   b.trialEnd,
		CouponID:   b.couponID,
		Metadata:   b.metadata,
	})
	if err != nil {
		return nil, err
	}

	now := b.now()
	sub := &Subscription{
		ID:          uuid.New(),
		OwnerID:     b.owner.BillingID(),
		Name:        b.name,
		GatewayID:   state.ID,
		PlanID:      b.planID,
		Status:      StatusFromGateway(state.Status),
		Quantity:    b.quantity,
		TrialEndsAt: state.TrialEnd,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	result := &CreateResult{Subscription: sub, Remediation: RemediationNone}
	if pe := gateway.PaymentErrorFromAttempt(state.LatestPayment); pe != nil {
		sub.Status = StatusIncomplete
		result.Payment = pe.Payment
		if pe.RequiresAction() {
			result.Remediation = RemediationConfirmPayment
		} else {
			result.Remediation = RemediationUpdatePaymentMethod
		}
	}

	if err := b.store.Create(ctx, sub); err != nil {
		return nil, err
	}
	return result, nil
}
