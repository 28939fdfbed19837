package subscription_test

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/dmitrymomot/cashier/pkg/gateway"
)

// mockGateway is a testify mock of gateway.Gateway.
type mockGateway struct {
	mock.Mock
}

func (m *mockGateway) CreateCustomer(ctx context.Context, params gateway.CreateCustomerParams) (*gateway.Customer, error) {
	args := m.Called(ctx, params)
	if c := args.Get(0); c != nil {
		return c.(*gateway.Customer), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockGateway) Customer(ctx context.Context, id string) (*gateway.Customer, error) {
	args := m.Called(ctx, id)
	if c := args.Get(0); c != nil {
		return c.(*gateway.Customer), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockGateway) UpdateCustomer(ctx context.Context, id string, params gateway.UpdateCustomerParams) (*gateway.Customer, error) {
	args := m.Called(ctx, id, params)
	if c := args.Get(0); c != nil {
		return c.(*gateway.Customer), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockGateway) RemoveCustomerDiscount(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockGateway) CreateSubscription(ctx context.Context, params gateway.CreateSubscriptionParams) (*gateway.SubscriptionState, error) {
	args := m.Called(ctx, params)
	if s := args.Get(0); s != nil {
		return s.(*gateway.SubscriptionState), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockGateway) Subscription(ctx context.Context, id string) (*gateway.SubscriptionState, error) {
	args := m.Called(ctx, id)
	if s := args.Get(0); s != nil {
		return s.(*gateway.SubscriptionState), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockGateway) UpdateSubscription(ctx context.Context, id string, params gateway.UpdateSubscriptionParams) (*gateway.SubscriptionState, error) {
	args := m.Called(ctx, id, params)
	if s := args.Get(0); s != nil {
		return s.(*gateway.SubscriptionState), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockGateway) CancelSubscription(ctx context.Context, id string, atPeriodEnd bool) (*gateway.SubscriptionState, error) {
	args := m.Called(ctx, id, atPeriodEnd)
	if s := args.Get(0); s != nil {
		return s.(*gateway.SubscriptionState), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockGateway) ResumeSubscription(ctx context.Context, id string) (*gateway.SubscriptionState, error) {
	args := m.Called(ctx, id)
	if s := args.Get(0); s != nil {
		return s.(*gateway.SubscriptionState), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockGateway) RemoveSubscriptionDiscount(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockGateway) Invoices(ctx context.Context, customerID string, params gateway.ListInvoicesParams) ([]gateway.Invoice, error) {
	args := m.Called(ctx, customerID, params)
	if inv := args.Get(0); inv != nil {
		return inv.([]gateway.Invoice), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockGateway) Invoice(ctx context.Context, id string) (*gateway.Invoice, error) {
	args := m.Called(ctx, id)
	if inv := args.Get(0); inv != nil {
		return inv.(*gateway.Invoice), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockGateway) InvoiceFor(ctx context.Context, customerID string, item gateway.InvoiceItemParams) (*gateway.Invoice, error) {
	args := m.Called(ctx, customerID, item)
	if inv := args.Get(0); inv != nil {
		return inv.(*gateway.Invoice), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockGateway) Charge(ctx context.Context, params gateway.ChargeParams) (*gateway.Payment, error) {
	args := m.Called(ctx, params)
	if p := args.Get(0); p != nil {
		return p.(*gateway.Payment), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockGateway) Payment(ctx context.Context, id string) (*gateway.Payment, error) {
	args := m.Called(ctx, id)
	if p := args.Get(0); p != nil {
		return p.(*gateway.Payment), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockGateway) Refund(ctx context.Context, paymentID string, amount int64) (*gateway.Refund, error) {
	args := m.Called(ctx, paymentID, amount)
	if r := args.Get(0); r != nil {
		return r.(*gateway.Refund), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockGateway) CreateCoupon(ctx context.Context, params gateway.CreateCouponParams) (*gateway.Coupon, error) {
	args := m.Called(ctx, params)
	if c := args.Get(0); c != nil {
		return c.(*gateway.Coupon), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockGateway) Coupon(ctx context.Context, id string) (*gateway.Coupon, error) {
	args := m.Called(ctx, id)
	if c := args.Get(0); c != nil {
		return c.(*gateway.Coupon), args.Error(1)
	}
	return nil, args.Error(1)
}
