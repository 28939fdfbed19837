package logger_test

import (
	"errors"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/cashier/pkg/logger"
)

func TestGroup(t *testing.T) {
	attr := logger.Group("req", slog.String("id", "1"), slog.Int("n", 2))
	require.Equal(t, "req", attr.Key)
	require.Equal(t, slog.KindGroup, attr.Value.Kind())
	g := attr.Value.Group()
	require.Len(t, g, 2)
	assert.Equal(t, "id", g[0].Key)
	assert.Equal(t, "n", g[1].Key)
}

func TestErrors(t *testing.T) {
	err1 := errors.New("first")
	err2 := errors.New("second")

	attr := logger.Errors(err1, nil, err2)
	require.Equal(t, "errors", attr.Key)
	require.Equal(t, slog.KindGroup, attr.Value.Kind())
	g := attr.Value.Group()
	require.Len(t, g, 2)
	assert.Equal(t, err1, g[0].Value.Any())
	assert.Equal(t, err2, g[1].Value.Any())

	empty := logger.Errors(nil)
	assert.True(t, empty.Equal(slog.Attr{}))
}

func TestError(t *testing.T) {
	err := errors.New("boom")
	attr := logger.Error(err)
	require.Equal(t, "error", attr.Key)
	assert.Equal(t, err, attr.Value.Any())

	empty := logger.Error(nil)
	assert.True(t, empty.Equal(slog.Attr{}))
}

func TestOwnerID(t *testing.T) {
	id := uuid.New()
	attr := logger.OwnerID(id)
	require.Equal(t, "owner_id", attr.Key)
	assert.Equal(t, id, attr.Value.Any())

	empty := logger.OwnerID(nil)
	assert.True(t, empty.Equal(slog.Attr{}))
}

func TestSubscriptionID(t *testing.T) {
	id := uuid.New()
	attr := logger.SubscriptionID(id)
	require.Equal(t, "subscription_id", attr.Key)
	assert.Equal(t, id, attr.Value.Any())

	empty := logger.SubscriptionID(nil)
	assert.True(t, empty.Equal(slog.Attr{}))
}

func TestGatewayID(t *testing.T) {
	attr := logger.GatewayID("sub_123")
	require.Equal(t, "gateway_id", attr.Key)
	assert.Equal(t, "sub_123", attr.Value.String())
}

func TestCustomerID(t *testing.T) {
	attr := logger.CustomerID("cus_123")
	require.Equal(t, "customer_id", attr.Key)
	assert.Equal(t, "cus_123", attr.Value.String())
}

func TestPlanID(t *testing.T) {
	attr := logger.PlanID("price_basic")
	require.Equal(t, "plan_id", attr.Key)
	assert.Equal(t, "price_basic", attr.Value.String())
}

func TestPaymentID(t *testing.T) {
	attr := logger.PaymentID("pi_123")
	require.Equal(t, "payment_id", attr.Key)
	assert.Equal(t, "pi_123", attr.Value.String())
}

func TestEventID(t *testing.T) {
	attr := logger.EventID("evt_123")
	require.Equal(t, "event_id", attr.Key)
	assert.Equal(t, "evt_123", attr.Value.String())
}

func TestEventType(t *testing.T) {
	attr := logger.EventType("customer.subscription.updated")
	require.Equal(t, "event_type", attr.Key)
	assert.Equal(t, "customer.subscription.updated", attr.Value.String())
}
