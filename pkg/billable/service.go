package billable

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/cashier/pkg/gateway"
	"github.com/dmitrymomot/cashier/pkg/logger"
)

// CustomerStore persists the gateway customer id assigned to an entity.
// The capability interface stays read-only; writes go through the host's
// storage layer.
type CustomerStore interface {
	SaveGatewayCustomerID(ctx context.Context, billingID uuid.UUID, gatewayCustomerID string) error
}

// Service provides customer-level billing operations for billable entities.
type Service struct {
	gw    gateway.Gateway
	store CustomerStore
	log   *slog.Logger
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(log *slog.Logger) ServiceOption {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

// NewService creates a customer-level billing service. Panics on nil
// dependencies to fail fast during initialization.
func NewService(gw gateway.Gateway, store CustomerStore, opts ...ServiceOption) *Service {
	if gw == nil {
		panic("billable: gateway is required")
	}
	if store == nil {
		panic("billable: customer store is required")
	}
	s := &Service{gw: gw, store: store, log: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// EnsureCustomer returns the entity's gateway customer id, creating the
// customer at the gateway first if the entity has none yet.
func (s *Service) EnsureCustomer(ctx context.Context, b Billable) (string, error) {
	if id := b.GatewayCustomerID(); id != "" {
		return id, nil
	}
	if b.BillingEmail() == "" {
		return "", ErrMissingEmail
	}

	cus, err := s.gw.CreateCustomer(ctx, gateway.CreateCustomerParams{
		Email:    b.BillingEmail(),
		Metadata: map[string]string{"billing_id": b.BillingID().String()},
	})
	if err != nil {
		return "", err
	}

	if err := s.store.SaveGatewayCustomerID(ctx, b.BillingID(), cus.ID); err != nil {
		// The gateway customer exists but the local reference was lost.
		// Surface the persistence failure; the next EnsureCustomer call
		// creates a fresh customer, which the gateway tolerates.
		s.log.ErrorContext(ctx, "failed to persist gateway customer id",
			logger.OwnerID(b.BillingID()),
			logger.CustomerID(cus.ID),
			logger.Error(err))
		return "", err
	}
	return cus.ID, nil
}

// Charge makes a one-off charge against the entity's stored payment method.
// Declines and authentication requirements surface as *gateway.PaymentError
// with the attempt attached; the attempt is also returned for the
// confirmation flow.
func (s *Service) Charge(ctx context.Context, b Billable, amount int64, currency, description string) (*gateway.Payment, error) {
	customerID, err := s.customerID(b)
	if err != nil {
		return nil, err
	}
	return s.gw.Charge(ctx, gateway.ChargeParams{
		CustomerID:  customerID,
		Amount:      amount,
		Currency:    currency,
		Description: description,
	})
}

// Refund refunds a previous payment, in full when amount is zero.
func (s *Service) Refund(ctx context.Context, paymentID string, amount int64) (*gateway.Refund, error) {
	return s.gw.Refund(ctx, paymentID, amount)
}

// InvoiceFor bills the entity for a single one-off line item on an
// immediately issued invoice.
func (s *Service) InvoiceFor(ctx context.Context, b Billable, description string, amount int64, currency string) (*gateway.Invoice, error) {
	customerID, err := s.customerID(b)
	if err != nil {
		return nil, err
	}
	return s.gw.InvoiceFor(ctx, customerID, gateway.InvoiceItemParams{
		Amount:      amount,
		Currency:    currency,
		Description: description,
	})
}

// Invoices lists the entity's invoices within the given period. Zero times
// mean unbounded.
func (s *Service) Invoices(ctx context.Context, b Billable, from, to time.Time) ([]gateway.Invoice, error) {
	customerID, err := s.customerID(b)
	if err != nil {
		return nil, err
	}
	return s.gw.Invoices(ctx, customerID, gateway.ListInvoicesParams{From: from, To: to})
}

// ApplyCoupon attaches a discount to the entity's gateway customer, used by
// the one-off-charge path. With removeOthers the existing discount is
// cleared first.
func (s *Service) ApplyCoupon(ctx context.Context, b Billable, couponID string, removeOthers bool) error {
	customerID, err := s.customerID(b)
	if err != nil {
		return err
	}
	if removeOthers {
		if err := s.gw.RemoveCustomerDiscount(ctx, customerID); err != nil {
			return err
		}
	}
	_, err = s.gw.UpdateCustomer(ctx, customerID, gateway.UpdateCustomerParams{CouponID: &couponID})
	return err
}

// FindPayment fetches a payment attempt, e.g. to build the hosted
// payment-confirmation page.
func (s *Service) FindPayment(ctx context.Context, id string) (*gateway.Payment, error) {
	return s.gw.Payment(ctx, id)
}

func (s *Service) customerID(b Billable) (string, error) {
	id := b.GatewayCustomerID()
	if id == "" {
		return "", ErrNoGatewayCustomer
	}
	return id, nil
}
