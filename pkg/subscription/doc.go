// Package subscription owns the local representation of a billable entity's
// subscription and the state machine over its lifecycle: trial, active,
// past-due, incomplete, cancellation with a grace period, and final end.
//
// The model itself is pure: every predicate (IsActive, IsCancelled, OnTrial,
// OnGracePeriod, IsEnded, IsRecurring, ...) is a function of the persisted
// fields and a point in time, with *At variants taking an explicit clock for
// tests. Transitions are driven from the outside: the Service and Builder
// orchestrate gateway calls and persistence, and the webhook handlers
// reconcile local rows against events the gateway pushes.
//
// # Creating subscriptions
//
//	result, err := subscription.NewBuilder(gw, store, customers, user, "default", "price_pro_monthly").
//		TrialDays(7).
//		Quantity(3).
//		Create(ctx)
//	if err != nil {
//		// nothing was created
//	}
//	if result.Remediation != subscription.RemediationNone {
//		// subscription persisted with status incomplete; send the customer
//		// to the payment confirmation page for result.Payment
//	}
//
// Creation never reports a partially-successful outcome through the error
// channel: when the gateway accepts the subscription but the first payment
// needs another step, the result carries the persisted subscription plus a
// remediation marker.
//
// # Payment failures on mutation
//
// Swap and quantity changes follow an apply-locally, collect-later policy:
// if the gateway defers payment (decline or authentication required), the
// plan or quantity change is still persisted with status incomplete and the
// operation returns a *gateway.PaymentError. The subscription is not rolled
// back; payment collection is retried through the incomplete-payment flow.
//
// # Webhook reconciliation
//
// A mutating operation applies the gateway call and the local update as one
// logical step without a compensating transaction. If the local persist
// fails after the gateway call succeeded the inconsistency is logged and
// repaired by the next customer.subscription.updated delivery.
package subscription
