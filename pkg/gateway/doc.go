// Package gateway defines the payment-gateway client contract the billing
// toolkit depends on, together with the normalized projections of gateway
// objects (customers, subscriptions, invoices, payments, coupons, refunds)
// and the shared error taxonomy.
//
// The package contains no network code. Concrete implementations live in
// subpackages (stripe, paddle) and are injected wherever a Gateway is
// needed, so there is no process-wide credential state.
//
// # Error Handling
//
// All implementations map provider failures onto a small taxonomy:
//
//   - *PaymentError: a payment attempt was declined or needs additional
//     customer action. Matchable with errors.Is against ErrPaymentDeclined
//     and ErrPaymentActionRequired.
//   - ErrNotFound: the referenced customer/subscription/invoice/coupon does
//     not exist at the gateway.
//   - ErrUnavailable: transport-level failure or timeout talking to the
//     gateway. Never retried by this toolkit; the caller owns retry policy.
//   - ErrNotSupported: the operation is not offered by a secondary gateway
//     variant.
//
// Example:
//
//	state, err := gw.UpdateSubscription(ctx, subID, params)
//	if pe, ok := gateway.AsPaymentError(err); ok {
//		// payment collection deferred; pe.Payment carries the attempt
//	}
package gateway
