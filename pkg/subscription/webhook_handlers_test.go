package subscription_test

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/cashier/pkg/subscription"
	"github.com/dmitrymomot/cashier/pkg/webhook"
)

func subscriptionEvent(eventType, gatewayID, status string, extra string) webhook.Event {
	object := fmt.Sprintf(`{"id":%q,"status":%q%s}`, gatewayID, status, extra)
	return webhook.Event{
		ID:   "evt_" + gatewayID,
		Type: eventType,
		Data: json.RawMessage(`{"object":` + object + `}`),
	}
}

func TestWebhookHandlers_SubscriptionUpdated(t *testing.T) {
	t.Parallel()

	t.Run("status change is applied", func(t *testing.T) {
		t.Parallel()
		store := subscription.NewMemoryStore()
		h := subscription.NewWebhookHandlers(store,
			subscription.WithHandlersClock(fixedClock()))

		sub := seedSubscription(t, store, &subscription.Subscription{
			GatewayID: "sub_wh1",
			Status:    subscription.StatusIncomplete,
			PlanID:    "price_basic",
		})

		event := subscriptionEvent(subscription.EventSubscriptionUpdated, "sub_wh1", "active", "")
		require.NoError(t, h.SubscriptionUpdated(context.Background(), event))

		stored, err := store.Find(context.Background(), sub.ID)
		require.NoError(t, err)
		assert.Equal(t, subscription.StatusActive, stored.Status)
	})

	t.Run("pending cancellation sets the grace boundary", func(t *testing.T) {
		t.Parallel()
		store := subscription.NewMemoryStore()
		h := subscription.NewWebhookHandlers(store,
			subscription.WithHandlersClock(fixedClock()))

		sub := seedSubscription(t, store, &subscription.Subscription{
			GatewayID: "sub_wh2",
			Status:    subscription.StatusActive,
		})

		periodEnd := testNow.Add(20 * 24 * time.Hour).Unix()
		event := subscriptionEvent(subscription.EventSubscriptionUpdated, "sub_wh2", "active",
			fmt.Sprintf(`,"cancel_at_period_end":true,"current_period_end":%d`, periodEnd))
		require.NoError(t, h.SubscriptionUpdated(context.Background(), event))

		stored, err := store.Find(context.Background(), sub.ID)
		require.NoError(t, err)
		require.NotNil(t, stored.EndsAt)
		assert.Equal(t, time.Unix(periodEnd, 0).UTC(), *stored.EndsAt)
		assert.True(t, stored.OnGracePeriodAt(testNow))
	})

	t.Run("pending cancellation without a period end keeps the boundary", func(t *testing.T) {
		t.Parallel()
		store := subscription.NewMemoryStore()
		h := subscription.NewWebhookHandlers(store,
			subscription.WithHandlersClock(fixedClock()))

		sub := seedSubscription(t, store, &subscription.Subscription{
			GatewayID: "sub_wh2b",
			Status:    subscription.StatusActive,
		})

		event := subscriptionEvent(subscription.EventSubscriptionUpdated, "sub_wh2b", "active",
			`,"cancel_at_period_end":true`)
		require.NoError(t, h.SubscriptionUpdated(context.Background(), event))

		stored, err := store.Find(context.Background(), sub.ID)
		require.NoError(t, err)
		assert.Nil(t, stored.EndsAt, "a missing period end must not become a zero boundary")
		assert.False(t, stored.IsEndedAt(testNow))
	})

	t.Run("cancellation reverted remotely clears the boundary", func(t *testing.T) {
		t.Parallel()
		store := subscription.NewMemoryStore()
		h := subscription.NewWebhookHandlers(store,
			subscription.WithHandlersClock(fixedClock()))

		endsAt := testNow.Add(10 * 24 * time.Hour)
		sub := seedSubscription(t, store, &subscription.Subscription{
			GatewayID: "sub_wh3",
			Status:    subscription.StatusActive,
			EndsAt:    &endsAt,
		})

		event := subscriptionEvent(subscription.EventSubscriptionUpdated, "sub_wh3", "active", "")
		require.NoError(t, h.SubscriptionUpdated(context.Background(), event))

		stored, err := store.Find(context.Background(), sub.ID)
		require.NoError(t, err)
		assert.Nil(t, stored.EndsAt)
	})

	t.Run("redelivery is idempotent", func(t *testing.T) {
		t.Parallel()
		store := subscription.NewMemoryStore()
		h := subscription.NewWebhookHandlers(store,
			subscription.WithHandlersClock(fixedClock()))

		sub := seedSubscription(t, store, &subscription.Subscription{
			GatewayID: "sub_wh4",
			Status:    subscription.StatusIncomplete,
		})

		event := subscriptionEvent(subscription.EventSubscriptionUpdated, "sub_wh4", "active", "")
		require.NoError(t, h.SubscriptionUpdated(context.Background(), event))
		first, err := store.Find(context.Background(), sub.ID)
		require.NoError(t, err)

		require.NoError(t, h.SubscriptionUpdated(context.Background(), event))
		second, err := store.Find(context.Background(), sub.ID)
		require.NoError(t, err)

		assert.Equal(t, first.Status, second.Status)
		assert.Equal(t, first.PlanID, second.PlanID)
		assert.Equal(t, first.EndsAt, second.EndsAt)
	})

	t.Run("unknown subscription is acknowledged without effect", func(t *testing.T) {
		t.Parallel()
		store := subscription.NewMemoryStore()
		h := subscription.NewWebhookHandlers(store)

		event := subscriptionEvent(subscription.EventSubscriptionUpdated, "sub_nobody", "active", "")
		assert.NoError(t, h.SubscriptionUpdated(context.Background(), event))
	})

	t.Run("provider spelling of cancelled is normalized", func(t *testing.T) {
		t.Parallel()
		store := subscription.NewMemoryStore()
		h := subscription.NewWebhookHandlers(store,
			subscription.WithHandlersClock(fixedClock()))

		sub := seedSubscription(t, store, &subscription.Subscription{
			GatewayID: "sub_wh5",
			Status:    subscription.StatusActive,
		})

		event := subscriptionEvent(subscription.EventSubscriptionUpdated, "sub_wh5", "canceled", "")
		require.NoError(t, h.SubscriptionUpdated(context.Background(), event))

		stored, err := store.Find(context.Background(), sub.ID)
		require.NoError(t, err)
		assert.Equal(t, subscription.StatusCancelled, stored.Status)
		require.NotNil(t, stored.EndsAt)
	})
}

func TestWebhookHandlers_SubscriptionDeleted(t *testing.T) {
	t.Parallel()

	t.Run("marks the subscription ended", func(t *testing.T) {
		t.Parallel()
		store := subscription.NewMemoryStore()
		h := subscription.NewWebhookHandlers(store,
			subscription.WithHandlersClock(fixedClock()))

		sub := seedSubscription(t, store, &subscription.Subscription{
			GatewayID: "sub_del1",
			Status:    subscription.StatusActive,
		})

		event := subscriptionEvent(subscription.EventSubscriptionDeleted, "sub_del1", "canceled", "")
		require.NoError(t, h.SubscriptionDeleted(context.Background(), event))

		stored, err := store.Find(context.Background(), sub.ID)
		require.NoError(t, err)
		assert.Equal(t, subscription.StatusCancelled, stored.Status)
		require.NotNil(t, stored.EndsAt)
		assert.Equal(t, testNow, *stored.EndsAt)
		assert.True(t, stored.IsEndedAt(testNow))
	})

	t.Run("redelivery finds the work already done", func(t *testing.T) {
		t.Parallel()
		store := subscription.NewMemoryStore()
		h := subscription.NewWebhookHandlers(store,
			subscription.WithHandlersClock(fixedClock()))

		sub := seedSubscription(t, store, &subscription.Subscription{
			GatewayID: "sub_del2",
			Status:    subscription.StatusActive,
		})

		event := subscriptionEvent(subscription.EventSubscriptionDeleted, "sub_del2", "canceled", "")
		require.NoError(t, h.SubscriptionDeleted(context.Background(), event))
		first, err := store.Find(context.Background(), sub.ID)
		require.NoError(t, err)

		require.NoError(t, h.SubscriptionDeleted(context.Background(), event))
		second, err := store.Find(context.Background(), sub.ID)
		require.NoError(t, err)

		assert.Equal(t, first.Status, second.Status)
		assert.Equal(t, first.EndsAt, second.EndsAt)
	})

	t.Run("unknown subscription is acknowledged", func(t *testing.T) {
		t.Parallel()
		h := subscription.NewWebhookHandlers(subscription.NewMemoryStore())
		event := subscriptionEvent(subscription.EventSubscriptionDeleted, "sub_ghost", "canceled", "")
		assert.NoError(t, h.SubscriptionDeleted(context.Background(), event))
	})
}

func TestWebhookHandlers_PaymentActionRequired(t *testing.T) {
	t.Parallel()

	t.Run("flags past due and notifies the host", func(t *testing.T) {
		t.Parallel()
		store := subscription.NewMemoryStore()

		var notifiedPayment string
		h := subscription.NewWebhookHandlers(store,
			subscription.WithHandlersClock(fixedClock()),
			subscription.WithPaymentActionFunc(func(ctx context.Context, sub *subscription.Subscription, paymentID string) error {
				notifiedPayment = paymentID
				return nil
			}))

		sub := seedSubscription(t, store, &subscription.Subscription{
			GatewayID: "sub_pay1",
			Status:    subscription.StatusActive,
		})

		event := webhook.Event{
			ID:   "evt_pay1",
			Type: subscription.EventPaymentActionNeeded,
			Data: json.RawMessage(`{"object":{"subscription":"sub_pay1","payment_intent":"pi_renewal"}}`),
		}
		require.NoError(t, h.PaymentActionRequired(context.Background(), event))

		stored, err := store.Find(context.Background(), sub.ID)
		require.NoError(t, err)
		assert.Equal(t, subscription.StatusPastDue, stored.Status)
		assert.Equal(t, "pi_renewal", notifiedPayment)
	})

	t.Run("no callback configured", func(t *testing.T) {
		t.Parallel()
		store := subscription.NewMemoryStore()
		h := subscription.NewWebhookHandlers(store, subscription.WithHandlersClock(fixedClock()))

		seedSubscription(t, store, &subscription.Subscription{
			GatewayID: "sub_pay2",
			Status:    subscription.StatusActive,
		})

		event := webhook.Event{
			ID:   "evt_pay2",
			Type: subscription.EventPaymentActionNeeded,
			Data: json.RawMessage(`{"object":{"subscription":"sub_pay2","payment_intent":"pi_x"}}`),
		}
		assert.NoError(t, h.PaymentActionRequired(context.Background(), event))
	})
}

func TestWebhookHandlers_Options(t *testing.T) {
	t.Parallel()

	h := subscription.NewWebhookHandlers(subscription.NewMemoryStore())
	d, err := webhook.NewDispatcher(h.Options()...)
	require.NoError(t, err)

	// Unknown event types are acknowledged without running a handler.
	handled, err := d.Dispatch(context.Background(), []byte(`{"id":"evt_1","type":"invoice.created","data":{"object":{}}}`), "")
	require.NoError(t, err)
	assert.False(t, handled)
}
