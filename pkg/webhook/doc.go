// Package webhook receives asynchronous event notifications from a payment
// gateway, verifies their authenticity, and dispatches them to handlers
// registered in an explicit lookup table.
//
// Gateways deliver events at least once and possibly out of order, so the
// dispatcher follows three rules:
//
//   - Unknown event types are acknowledged with success and otherwise
//     ignored; returning an error would make the gateway retry them forever.
//   - A failing handler surfaces as a server error so the gateway redelivers
//     the event; redelivery is the recovery mechanism for transient local
//     failures.
//   - Handlers must be safe to run more than once for the same event. The
//     optional redis-backed IdempotencyGuard additionally skips redelivered
//     event ids, but it fails open, so it is an optimization rather than a
//     correctness mechanism.
//
// Handlers are registered at construction time and validated immediately,
// not discovered at request time:
//
//	d, err := webhook.NewDispatcher(
//		webhook.WithVerifier(verifier),
//		webhook.WithHandler("customer.subscription.deleted", handlers.SubscriptionDeleted),
//		webhook.WithHandler("customer.subscription.updated", handlers.SubscriptionUpdated),
//	)
//
//	mux.Handle("POST /billing/webhook", d)
package webhook
