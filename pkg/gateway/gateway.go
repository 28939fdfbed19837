package gateway

import (
	"context"
	"time"
)

// Status is the subscription status as reported by the gateway, normalized
// across providers to the values the local state machine understands.
type Status string

const (
	StatusIncomplete        Status = "incomplete"
	StatusIncompleteExpired Status = "incomplete_expired"
	StatusTrialing          Status = "trialing"
	StatusActive            Status = "active"
	StatusPastDue           Status = "past_due"
	StatusCancelled         Status = "cancelled"
	StatusUnpaid            Status = "unpaid"
)

// Customer is a projection of the gateway's customer object.
type Customer struct {
	ID    string
	Email string
	Name  string
}

// SubscriptionState is a projection of the gateway's subscription object.
// It is the gateway's authoritative view; the local Subscription row is
// reconciled against it after mutating calls and webhook deliveries.
type SubscriptionState struct {
	ID                string
	CustomerID        string
	PlanID            string
	Quantity          int64
	Status            Status
	CancelAtPeriodEnd bool
	CurrentPeriodEnd  time.Time
	TrialEnd          *time.Time
	// LatestPayment is set when the most recent billing attempt is known,
	// e.g. after a create or swap with an expanded payment intent.
	LatestPayment *Payment
}

// CreateCustomerParams holds fields for customer creation.
type CreateCustomerParams struct {
	Email    string
	Name     string
	Metadata map[string]string
}

// UpdateCustomerParams holds optional customer updates. Nil fields are left
// untouched at the gateway.
type UpdateCustomerParams struct {
	Email    *string
	Name     *string
	CouponID *string // attach a discount to the customer
}

// CreateSubscriptionParams holds fields for subscription creation.
type CreateSubscriptionParams struct {
	CustomerID string
	PlanID     string
	Quantity   int64
	TrialEnd   *time.Time
	CouponID   string
	Metadata   map[string]string
}

// UpdateSubscriptionParams holds optional subscription updates. Nil fields
// are left untouched at the gateway, which is how swap preserves quantity
// and trial state unless explicitly overridden.
type UpdateSubscriptionParams struct {
	PlanID            *string
	Quantity          *int64
	TrialEnd          *time.Time
	CouponID          *string
	CancelAtPeriodEnd *bool
	Prorate           *bool
}

// ChargeParams describes a one-off charge against a customer's stored
// payment method.
type ChargeParams struct {
	CustomerID      string
	Amount          int64 // minor units
	Currency        string
	Description     string
	PaymentMethodID string // optional, defaults to the customer's stored method
}

// InvoiceItemParams describes a pending line item to place on the
// customer's next (or an immediately issued) invoice.
type InvoiceItemParams struct {
	Amount      int64 // minor units
	Currency    string
	Description string
}

// ListInvoicesParams filters invoice listings. Zero times mean unbounded.
type ListInvoicesParams struct {
	From time.Time
	To   time.Time
}

// CreateCouponParams describes a new discount. Exactly one of PercentOff or
// AmountOff should be set.
type CreateCouponParams struct {
	ID         string // optional, gateway generates one when empty
	PercentOff float64
	AmountOff  int64
	Currency   string // required with AmountOff
	Duration   string // once, repeating, forever
}

// Gateway is the narrow client contract the billing toolkit consumes. Every
// method is a potentially-failing remote call; implementations bound each
// call with a configurable timeout and surface transport failures as
// ErrUnavailable.
type Gateway interface {
	CreateCustomer(ctx context.Context, params CreateCustomerParams) (*Customer, error)
	Customer(ctx context.Context, id string) (*Customer, error)
	UpdateCustomer(ctx context.Context, id string, params UpdateCustomerParams) (*Customer, error)
	// RemoveCustomerDiscount clears any discount attached to the customer.
	RemoveCustomerDiscount(ctx context.Context, id string) error

	CreateSubscription(ctx context.Context, params CreateSubscriptionParams) (*SubscriptionState, error)
	Subscription(ctx context.Context, id string) (*SubscriptionState, error)
	UpdateSubscription(ctx context.Context, id string, params UpdateSubscriptionParams) (*SubscriptionState, error)
	// CancelSubscription cancels at the gateway. With atPeriodEnd the
	// subscription keeps running until the current billing period ends and
	// the returned state carries that boundary in CurrentPeriodEnd.
	CancelSubscription(ctx context.Context, id string, atPeriodEnd bool) (*SubscriptionState, error)
	// ResumeSubscription reverts a pending at-period-end cancellation.
	ResumeSubscription(ctx context.Context, id string) (*SubscriptionState, error)
	// RemoveSubscriptionDiscount clears any discount attached to the
	// subscription.
	RemoveSubscriptionDiscount(ctx context.Context, id string) error

	Invoices(ctx context.Context, customerID string, params ListInvoicesParams) ([]Invoice, error)
	Invoice(ctx context.Context, id string) (*Invoice, error)
	// InvoiceFor places a one-off line item on a fresh invoice and attempts
	// to settle it immediately.
	InvoiceFor(ctx context.Context, customerID string, item InvoiceItemParams) (*Invoice, error)

	Charge(ctx context.Context, params ChargeParams) (*Payment, error)
	Payment(ctx context.Context, id string) (*Payment, error)
	Refund(ctx context.Context, paymentID string, amount int64) (*Refund, error)

	CreateCoupon(ctx context.Context, params CreateCouponParams) (*Coupon, error)
	Coupon(ctx context.Context, id string) (*Coupon, error)
}
