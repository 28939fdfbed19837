package stripe

import (
	"time"

	stripeapi "github.com/stripe/stripe-go/v75"

	"github.com/dmitrymomot/cashier/pkg/gateway"
)

func customerState(cus *stripeapi.Customer) *gateway.Customer {
	return &gateway.Customer{
		ID:    cus.ID,
		Email: cus.Email,
		Name:  cus.Name,
	}
}

func subscriptionState(sub *stripeapi.Subscription) *gateway.SubscriptionState {
	state := &gateway.SubscriptionState{
		ID:                sub.ID,
		Status:            mapStatus(sub.Status),
		CancelAtPeriodEnd: sub.CancelAtPeriodEnd,
		CurrentPeriodEnd:  time.Unix(sub.CurrentPeriodEnd, 0).UTC(),
	}
	if sub.Customer != nil {
		state.CustomerID = sub.Customer.ID
	}
	if sub.Items != nil && len(sub.Items.Data) > 0 {
		item := sub.Items.Data[0]
		state.Quantity = item.Quantity
		if item.Price != nil {
			state.PlanID = item.Price.ID
		}
	}
	if sub.TrialEnd > 0 {
		trialEnd := time.Unix(sub.TrialEnd, 0).UTC()
		state.TrialEnd = &trialEnd
	}
	if sub.LatestInvoice != nil && sub.LatestInvoice.PaymentIntent != nil {
		state.LatestPayment = paymentState(sub.LatestInvoice.PaymentIntent)
	}
	return state
}

func mapStatus(s stripeapi.SubscriptionStatus) gateway.Status {
	switch s {
	case stripeapi.SubscriptionStatusIncomplete:
		return gateway.StatusIncomplete
	case stripeapi.SubscriptionStatusIncompleteExpired:
		return gateway.StatusIncompleteExpired
	case stripeapi.SubscriptionStatusTrialing:
		return gateway.StatusTrialing
	case stripeapi.SubscriptionStatusActive:
		return gateway.StatusActive
	case stripeapi.SubscriptionStatusPastDue:
		return gateway.StatusPastDue
	case stripeapi.SubscriptionStatusCanceled:
		return gateway.StatusCancelled
	case stripeapi.SubscriptionStatusUnpaid:
		return gateway.StatusUnpaid
	default:
		return gateway.Status(s)
	}
}

func paymentState(pi *stripeapi.PaymentIntent) *gateway.Payment {
	p := &gateway.Payment{
		ID:           pi.ID,
		Status:       mapPaymentStatus(pi.Status),
		Amount:       pi.Amount,
		Currency:     string(pi.Currency),
		ClientSecret: pi.ClientSecret,
	}
	if len(pi.PaymentMethodTypes) > 0 {
		p.PaymentMethodTypes = append(p.PaymentMethodTypes, pi.PaymentMethodTypes...)
	}
	if pi.Customer != nil {
		p.CustomerID = pi.Customer.ID
	}
	return p
}

func mapPaymentStatus(s stripeapi.PaymentIntentStatus) gateway.PaymentStatus {
	switch s {
	case stripeapi.PaymentIntentStatusSucceeded:
		return gateway.PaymentStatusSucceeded
	case stripeapi.PaymentIntentStatusProcessing:
		return gateway.PaymentStatusProcessing
	case stripeapi.PaymentIntentStatusRequiresAction:
		return gateway.PaymentStatusRequiresAction
	case stripeapi.PaymentIntentStatusRequiresConfirmation:
		return gateway.PaymentStatusRequiresConfirmation
	case stripeapi.PaymentIntentStatusRequiresPaymentMethod:
		return gateway.PaymentStatusRequiresPaymentMethod
	case stripeapi.PaymentIntentStatusCanceled:
		return gateway.PaymentStatusCancelled
	default:
		return gateway.PaymentStatus(s)
	}
}

func invoiceState(inv *stripeapi.Invoice) *gateway.Invoice {
	out := &gateway.Invoice{
		ID:        inv.ID,
		Total:     inv.Total,
		Currency:  string(inv.Currency),
		Paid:      inv.Status == stripeapi.InvoiceStatusPaid,
		CreatedAt: time.Unix(inv.Created, 0).UTC(),
	}
	if inv.Customer != nil {
		out.CustomerID = inv.Customer.ID
	}
	if inv.Discount != nil && inv.Discount.Coupon != nil {
		coupon := inv.Discount.Coupon
		out.DiscountsUsed = true
		out.CouponID = coupon.ID
		if coupon.PercentOff > 0 {
			out.PercentDiscount = true
			out.DiscountAmount = int64(float64(inv.Total) * coupon.PercentOff / (100 - coupon.PercentOff))
		} else {
			out.DiscountAmount = coupon.AmountOff
		}
	}
	if inv.Lines != nil {
		for _, line := range inv.Lines.Data {
			l := gateway.InvoiceLine{
				Description: line.Description,
				Amount:      line.Amount,
				Currency:    string(line.Currency),
			}
			if line.Period != nil {
				l.PeriodStart = time.Unix(line.Period.Start, 0).UTC()
				l.PeriodEnd = time.Unix(line.Period.End, 0).UTC()
			}
			out.Lines = append(out.Lines, l)
		}
	}
	return out
}

func couponState(c *stripeapi.Coupon) *gateway.Coupon {
	return &gateway.Coupon{
		ID:         c.ID,
		PercentOff: c.PercentOff,
		AmountOff:  c.AmountOff,
		Currency:   string(c.Currency),
		Duration:   string(c.Duration),
	}
}
