package gateway

import "time"

// Invoice is a read-only projection of the gateway's invoice object. Never
// persisted locally.
type Invoice struct {
	ID            string
	CustomerID    string
	Total         int64 // minor units
	Currency      string
	Paid          bool
	DiscountsUsed bool
	// PercentDiscount is true when the applied coupon is percentage-based,
	// false when it is a fixed amount.
	PercentDiscount bool
	DiscountAmount  int64
	CouponID        string
	CreatedAt       time.Time
	Lines           []InvoiceLine
}

// InvoiceLine is a single line item with its billing period.
type InvoiceLine struct {
	Description string
	Amount      int64
	Currency    string
	PeriodStart time.Time
	PeriodEnd   time.Time
}

// Coupon is a projection of a gateway discount definition.
type Coupon struct {
	ID         string
	PercentOff float64
	AmountOff  int64
	Currency   string
	Duration   string
}

// Refund is a projection of a gateway refund.
type Refund struct {
	ID        string
	PaymentID string
	Amount    int64
	Currency  string
	Status    string
}
