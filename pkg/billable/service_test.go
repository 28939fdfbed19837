package billable_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/cashier/pkg/billable"
	"github.com/dmitrymomot/cashier/pkg/gateway"
)

// stubGateway implements only the gateway methods these tests exercise; the
// embedded interface panics on anything else, which is the point.
type stubGateway struct {
	gateway.Gateway

	createCustomer         func(ctx context.Context, params gateway.CreateCustomerParams) (*gateway.Customer, error)
	updateCustomer         func(ctx context.Context, id string, params gateway.UpdateCustomerParams) (*gateway.Customer, error)
	removeCustomerDiscount func(ctx context.Context, id string) error
	charge                 func(ctx context.Context, params gateway.ChargeParams) (*gateway.Payment, error)
	payment                func(ctx context.Context, id string) (*gateway.Payment, error)
	invoiceFor             func(ctx context.Context, customerID string, item gateway.InvoiceItemParams) (*gateway.Invoice, error)
	invoices               func(ctx context.Context, customerID string, params gateway.ListInvoicesParams) ([]gateway.Invoice, error)
}

func (s *stubGateway) CreateCustomer(ctx context.Context, params gateway.CreateCustomerParams) (*gateway.Customer, error) {
	return s.createCustomer(ctx, params)
}

func (s *stubGateway) UpdateCustomer(ctx context.Context, id string, params gateway.UpdateCustomerParams) (*gateway.Customer, error) {
	return s.updateCustomer(ctx, id, params)
}

func (s *stubGateway) RemoveCustomerDiscount(ctx context.Context, id string) error {
	return s.removeCustomerDiscount(ctx, id)
}

func (s *stubGateway) Charge(ctx context.Context, params gateway.ChargeParams) (*gateway.Payment, error) {
	return s.charge(ctx, params)
}

func (s *stubGateway) Payment(ctx context.Context, id string) (*gateway.Payment, error) {
	return s.payment(ctx, id)
}

func (s *stubGateway) InvoiceFor(ctx context.Context, customerID string, item gateway.InvoiceItemParams) (*gateway.Invoice, error) {
	return s.invoiceFor(ctx, customerID, item)
}

func (s *stubGateway) Invoices(ctx context.Context, customerID string, params gateway.ListInvoicesParams) ([]gateway.Invoice, error) {
	return s.invoices(ctx, customerID, params)
}

type recordingCustomerStore struct {
	saved map[uuid.UUID]string
	err   error
}

func newRecordingCustomerStore() *recordingCustomerStore {
	return &recordingCustomerStore{saved: make(map[uuid.UUID]string)}
}

func (s *recordingCustomerStore) SaveGatewayCustomerID(_ context.Context, billingID uuid.UUID, gatewayCustomerID string) error {
	if s.err != nil {
		return s.err
	}
	s.saved[billingID] = gatewayCustomerID
	return nil
}

type entity struct {
	id         uuid.UUID
	customerID string
	email      string
	trialEnd   *time.Time
}

func (e *entity) BillingID() uuid.UUID           { return e.id }
func (e *entity) GatewayCustomerID() string      { return e.customerID }
func (e *entity) BillingEmail() string           { return e.email }
func (e *entity) GenericTrialEndsAt() *time.Time { return e.trialEnd }

func TestService_EnsureCustomer(t *testing.T) {
	t.Parallel()

	t.Run("existing customer id is returned as is", func(t *testing.T) {
		t.Parallel()
		gw := &stubGateway{
			createCustomer: func(context.Context, gateway.CreateCustomerParams) (*gateway.Customer, error) {
				t.Fatal("gateway should not be called")
				return nil, nil
			},
		}
		svc := billable.NewService(gw, newRecordingCustomerStore())

		id, err := svc.EnsureCustomer(context.Background(), &entity{id: uuid.New(), customerID: "cus_existing"})
		require.NoError(t, err)
		assert.Equal(t, "cus_existing", id)
	})

	t.Run("creates and persists a new customer", func(t *testing.T) {
		t.Parallel()
		owner := &entity{id: uuid.New(), email: "owner@example.com"}
		gw := &stubGateway{
			createCustomer: func(_ context.Context, params gateway.CreateCustomerParams) (*gateway.Customer, error) {
				assert.Equal(t, "owner@example.com", params.Email)
				assert.Equal(t, owner.id.String(), params.Metadata["billing_id"])
				return &gateway.Customer{ID: "cus_new", Email: params.Email}, nil
			},
		}
		store := newRecordingCustomerStore()
		svc := billable.NewService(gw, store)

		id, err := svc.EnsureCustomer(context.Background(), owner)
		require.NoError(t, err)
		assert.Equal(t, "cus_new", id)
		assert.Equal(t, "cus_new", store.saved[owner.id])
	})

	t.Run("missing email", func(t *testing.T) {
		t.Parallel()
		svc := billable.NewService(&stubGateway{}, newRecordingCustomerStore())
		_, err := svc.EnsureCustomer(context.Background(), &entity{id: uuid.New()})
		assert.ErrorIs(t, err, billable.ErrMissingEmail)
	})

	t.Run("persistence failure surfaces", func(t *testing.T) {
		t.Parallel()
		gw := &stubGateway{
			createCustomer: func(context.Context, gateway.CreateCustomerParams) (*gateway.Customer, error) {
				return &gateway.Customer{ID: "cus_orphan"}, nil
			},
		}
		store := newRecordingCustomerStore()
		store.err = errors.New("db down")
		svc := billable.NewService(gw, store)

		_, err := svc.EnsureCustomer(context.Background(), &entity{id: uuid.New(), email: "o@example.com"})
		assert.ErrorContains(t, err, "db down")
	})
}

func TestService_Charge(t *testing.T) {
	t.Parallel()

	t.Run("charges the stored payment method", func(t *testing.T) {
		t.Parallel()
		gw := &stubGateway{
			charge: func(_ context.Context, params gateway.ChargeParams) (*gateway.Payment, error) {
				assert.Equal(t, "cus_1", params.CustomerID)
				assert.Equal(t, int64(2500), params.Amount)
				assert.Equal(t, "usd", params.Currency)
				return &gateway.Payment{ID: "pi_ok", Status: gateway.PaymentStatusSucceeded, Amount: 2500}, nil
			},
		}
		svc := billable.NewService(gw, newRecordingCustomerStore())

		p, err := svc.Charge(context.Background(), &entity{id: uuid.New(), customerID: "cus_1"}, 2500, "usd", "extra seats")
		require.NoError(t, err)
		assert.True(t, p.Succeeded())
	})

	t.Run("entity without a gateway customer", func(t *testing.T) {
		t.Parallel()
		svc := billable.NewService(&stubGateway{}, newRecordingCustomerStore())
		_, err := svc.Charge(context.Background(), &entity{id: uuid.New()}, 2500, "usd", "extra seats")
		assert.ErrorIs(t, err, billable.ErrNoGatewayCustomer)
	})

	t.Run("declined charge carries the attempt", func(t *testing.T) {
		t.Parallel()
		attempt := &gateway.Payment{ID: "pi_bad", Status: gateway.PaymentStatusRequiresPaymentMethod}
		gw := &stubGateway{
			charge: func(context.Context, gateway.ChargeParams) (*gateway.Payment, error) {
				return attempt, gateway.NewPaymentDeclinedError(attempt)
			},
		}
		svc := billable.NewService(gw, newRecordingCustomerStore())

		p, err := svc.Charge(context.Background(), &entity{id: uuid.New(), customerID: "cus_1"}, 100, "usd", "x")
		require.ErrorIs(t, err, gateway.ErrPaymentDeclined)
		require.NotNil(t, p)
		assert.Equal(t, "pi_bad", p.ID)
	})
}

func TestService_ApplyCoupon(t *testing.T) {
	t.Parallel()

	t.Run("replaces existing discounts when asked", func(t *testing.T) {
		t.Parallel()
		var removed bool
		gw := &stubGateway{
			removeCustomerDiscount: func(_ context.Context, id string) error {
				removed = true
				return nil
			},
			updateCustomer: func(_ context.Context, id string, params gateway.UpdateCustomerParams) (*gateway.Customer, error) {
				require.NotNil(t, params.CouponID)
				assert.Equal(t, "WELCOME10", *params.CouponID)
				return &gateway.Customer{ID: id}, nil
			},
		}
		svc := billable.NewService(gw, newRecordingCustomerStore())

		err := svc.ApplyCoupon(context.Background(), &entity{id: uuid.New(), customerID: "cus_1"}, "WELCOME10", true)
		require.NoError(t, err)
		assert.True(t, removed)
	})
}

func TestOnGenericTrial(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

	t.Run("no trial", func(t *testing.T) {
		t.Parallel()
		assert.False(t, billable.OnGenericTrialAt(&entity{id: uuid.New()}, now))
	})

	t.Run("active trial", func(t *testing.T) {
		t.Parallel()
		ends := now.Add(48 * time.Hour)
		assert.True(t, billable.OnGenericTrialAt(&entity{id: uuid.New(), trialEnd: &ends}, now))
	})

	t.Run("expired trial", func(t *testing.T) {
		t.Parallel()
		ends := now.Add(-time.Hour)
		assert.False(t, billable.OnGenericTrialAt(&entity{id: uuid.New(), trialEnd: &ends}, now))
	})
}

func TestNewService_PanicsOnNilDeps(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() { billable.NewService(nil, newRecordingCustomerStore()) })
	assert.Panics(t, func() { billable.NewService(&stubGateway{}, nil) })
}
