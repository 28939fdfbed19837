package gateway

// PaymentStatus is the lifecycle status of a single payment attempt.
type PaymentStatus string

const (
	PaymentStatusSucceeded             PaymentStatus = "succeeded"
	PaymentStatusProcessing            PaymentStatus = "processing"
	PaymentStatusRequiresAction        PaymentStatus = "requires_action"
	PaymentStatusRequiresConfirmation  PaymentStatus = "requires_confirmation"
	PaymentStatusRequiresPaymentMethod PaymentStatus = "requires_payment_method"
	PaymentStatusCancelled             PaymentStatus = "cancelled"
)

// Payment is a projection of the gateway's payment attempt (payment intent,
// transaction) for a subscription invoice or a one-off charge. The hosted
// payment-confirmation page is built from this data.
type Payment struct {
	ID                 string
	Status             PaymentStatus
	Amount             int64 // minor units
	Currency           string
	ClientSecret       string
	PaymentMethodTypes []string
	CustomerID         string
}

// RequiresAction reports whether the customer must complete additional
// authentication (3-D Secure and similar) before the payment can settle.
func (p *Payment) RequiresAction() bool {
	return p.Status == PaymentStatusRequiresAction || p.Status == PaymentStatusRequiresConfirmation
}

// RequiresPaymentMethod reports whether the attempt was declined and a new
// payment method is needed.
func (p *Payment) RequiresPaymentMethod() bool {
	return p.Status == PaymentStatusRequiresPaymentMethod
}

// Succeeded reports whether the payment settled.
func (p *Payment) Succeeded() bool {
	return p.Status == PaymentStatusSucceeded
}

// Incomplete reports whether the attempt is neither settled nor abandoned.
func (p *Payment) Incomplete() bool {
	return p.RequiresAction() || p.RequiresPaymentMethod() || p.Status == PaymentStatusProcessing
}
