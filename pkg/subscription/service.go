package subscription

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/cashier/pkg/gateway"
	"github.com/dmitrymomot/cashier/pkg/logger"
)

// Service drives the subscription lifecycle: cancellation, resumption, plan
// swaps, quantity and discount changes. Every mutating operation calls the
// gateway first and reconciles the local row against the returned state, so
// the store never gets ahead of the gateway.
//
// Operations that trigger a payment attempt (swap, quantity change with
// proration) may return a *gateway.PaymentError after the local change has
// been applied: the subscription is left incomplete rather than rolled back,
// and the caller routes the customer to the payment confirmation page.
type Service struct {
	gw    gateway.Gateway
	store Store
	log   *slog.Logger
	now   func() time.Time
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithLogger sets the logger for non-fatal persistence failures.
func WithLogger(log *slog.Logger) ServiceOption {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService builds a Service. Panics when gw or store is nil since the
// service cannot function without them.
func NewService(gw gateway.Gateway, store Store, opts ...ServiceOption) *Service {
	if gw == nil {
		panic("subscription: gateway is required")
	}
	if store == nil {
		panic("subscription: store is required")
	}
	s := &Service{
		gw:    gw,
		store: store,
		log:   slog.Default(),
		now:   func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Find returns the subscription by its local identifier.
func (s *Service) Find(ctx context.Context, id uuid.UUID) (*Subscription, error) {
	return s.store.Find(ctx, id)
}

// FindByOwnerAndName returns the owner's subscription under the given name.
func (s *Service) FindByOwnerAndName(ctx context.Context, ownerID uuid.UUID, name string) (*Subscription, error) {
	return s.store.FindByOwnerAndName(ctx, ownerID, name)
}

// Cancel requests a deferred cancellation: the gateway stops renewals at the
// period boundary and the subscription enters its grace period. For a
// subscription still on trial the grace period ends with the trial instead
// of the billing period.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID) (*Subscription, error) {
	sub, err := s.store.Find(ctx, id)
	if err != nil {
		return nil, err
	}

	state, err := s.gw.CancelSubscription(ctx, sub.GatewayID, true)
	if err != nil {
		return nil, err
	}

	endsAt := state.CurrentPeriodEnd
	if sub.OnTrialAt(s.now()) {
		endsAt = *sub.TrialEndsAt
	}
	sub.Status = StatusFromGateway(state.Status)
	sub.EndsAt = &endsAt

	if err := s.store.Update(ctx, sub); err != nil {
		return nil, err
	}
	return sub, nil
}

// CancelNow cancels immediately: service stops at once, with no grace
// period.
func (s *Service) CancelNow(ctx context.Context, id uuid.UUID) (*Subscription, error) {
	sub, err := s.store.Find(ctx, id)
	if err != nil {
		return nil, err
	}

	if _, err := s.gw.CancelSubscription(ctx, sub.GatewayID, false); err != nil {
		return nil, err
	}

	now := s.now()
	sub.Status = StatusCancelled
	sub.EndsAt = &now

	if err := s.store.Update(ctx, sub); err != nil {
		return nil, err
	}
	return sub, nil
}

// Resume reverts a deferred cancellation. It is only valid while the grace
// period is running; once the end date has passed the subscription is gone
// and a new one must be created. On precondition failure nothing is mutated
// locally or at the gateway.
func (s *Service) Resume(ctx context.Context, id uuid.UUID) (*Subscription, error) {
	sub, err := s.store.Find(ctx, id)
	if err != nil {
		return nil, err
	}

	if !sub.OnGracePeriodAt(s.now()) {
		return nil, ErrInvalidState
	}

	state, err := s.gw.ResumeSubscription(ctx, sub.GatewayID)
	if err != nil {
		return nil, err
	}

	sub.EndsAt = nil
	if sub.OnTrialAt(s.now()) {
		sub.Status = StatusTrialing
	} else {
		sub.Status = StatusFromGateway(state.Status)
	}

	if err := s.store.Update(ctx, sub); err != nil {
		return nil, err
	}
	return sub, nil
}

// SwapOptions tunes a plan swap. Nil fields keep the gateway's current
// values.
type SwapOptions struct {
	// Quantity overrides the subscription quantity together with the swap.
	Quantity *int64
	// Prorate controls whether the gateway issues a prorated invoice for
	// the remainder of the period. Defaults to the gateway's behavior.
	Prorate *bool
}

// Swap moves the subscription to a different plan. When the swap triggers a
// payment that is declined or needs customer authentication, the new plan is
// still applied locally with an incomplete status and the returned
// *gateway.PaymentError carries the attempt for remediation.
func (s *Service) Swap(ctx context.Context, id uuid.UUID, planID string, opts SwapOptions) (*Subscription, error) {
	if opts.Quantity != nil && *opts.Quantity < MinQuantity {
		return nil, ErrQuantityFloor
	}

	sub, err := s.store.Find(ctx, id)
	if err != nil {
		return nil, err
	}

	state, err := s.gw.UpdateSubscription(ctx, sub.GatewayID, gateway.UpdateSubscriptionParams{
		PlanID:   &planID,
		Quantity: opts.Quantity,
		Prorate:  opts.Prorate,
	})
	if err != nil {
		if pe, ok := gateway.AsPaymentError(err); ok {
			// The gateway accepted the swap but the payment did not
			// settle. Record the new plan with an incomplete status so
			// the local row matches what the gateway will report.
			sub.PlanID = planID
			if opts.Quantity != nil {
				sub.Quantity = *opts.Quantity
			}
			sub.Status = StatusIncomplete
			s.persistBestEffort(ctx, sub, "swap")
			return sub, pe
		}
		return nil, err
	}

	sub.PlanID = state.PlanID
	sub.Quantity = state.Quantity
	sub.Status = StatusFromGateway(state.Status)

	if pe := gateway.PaymentErrorFromAttempt(state.LatestPayment); pe != nil {
		sub.Status = StatusIncomplete
		s.persistBestEffort(ctx, sub, "swap")
		return sub, pe
	}

	if err := s.store.Update(ctx, sub); err != nil {
		return nil, err
	}
	return sub, nil
}

// UpdateQuantity sets the subscription quantity to an absolute value.
func (s *Service) UpdateQuantity(ctx context.Context, id uuid.UUID, quantity int64) (*Subscription, error) {
	if quantity < MinQuantity {
		return nil, ErrQuantityFloor
	}

	sub, err := s.store.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.applyQuantity(ctx, sub, quantity)
}

// IncrementQuantity raises the quantity by count (1 when count <= 0).
func (s *Service) IncrementQuantity(ctx context.Context, id uuid.UUID, count int64) (*Subscription, error) {
	if count <= 0 {
		count = 1
	}
	sub, err := s.store.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.applyQuantity(ctx, sub, sub.Quantity+count)
}

// DecrementQuantity lowers the quantity by count (1 when count <= 0). A
// result below the floor fails with ErrQuantityFloor before any gateway
// call, leaving local and remote state untouched.
func (s *Service) DecrementQuantity(ctx context.Context, id uuid.UUID, count int64) (*Subscription, error) {
	if count <= 0 {
		count = 1
	}
	sub, err := s.store.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	if sub.Quantity-count < MinQuantity {
		return nil, ErrQuantityFloor
	}
	return s.applyQuantity(ctx, sub, sub.Quantity-count)
}

func (s *Service) applyQuantity(ctx context.Context, sub *Subscription, quantity int64) (*Subscription, error) {
	state, err := s.gw.UpdateSubscription(ctx, sub.GatewayID, gateway.UpdateSubscriptionParams{
		Quantity: &quantity,
	})
	if err != nil {
		if pe, ok := gateway.AsPaymentError(err); ok {
			sub.Quantity = quantity
			sub.Status = StatusIncomplete
			s.persistBestEffort(ctx, sub, "quantity update")
			return sub, pe
		}
		return nil, err
	}

	sub.Quantity = state.Quantity
	sub.Status = StatusFromGateway(state.Status)
	if err := s.store.Update(ctx, sub); err != nil {
		return nil, err
	}
	return sub, nil
}

// ApplyCoupon attaches a discount to the subscription. With removeOthers the
// existing discount is cleared first so the new one does not stack.
func (s *Service) ApplyCoupon(ctx context.Context, id uuid.UUID, couponID string, removeOthers bool) error {
	sub, err := s.store.Find(ctx, id)
	if err != nil {
		return err
	}

	if removeOthers {
		if err := s.gw.RemoveSubscriptionDiscount(ctx, sub.GatewayID); err != nil {
			return err
		}
	}
	_, err = s.gw.UpdateSubscription(ctx, sub.GatewayID, gateway.UpdateSubscriptionParams{
		CouponID: &couponID,
	})
	return err
}

// Sync re-fetches the gateway's view and reconciles the local row, the
// manual counterpart of webhook reconciliation for hosts that missed
// deliveries.
func (s *Service) Sync(ctx context.Context, id uuid.UUID) (*Subscription, error) {
	sub, err := s.store.Find(ctx, id)
	if err != nil {
		return nil, err
	}

	state, err := s.gw.Subscription(ctx, sub.GatewayID)
	if err != nil {
		return nil, err
	}

	reconcileState(sub, state, s.now())
	if err := s.store.Update(ctx, sub); err != nil {
		return nil, err
	}
	return sub, nil
}

// reconcileState folds the gateway's authoritative view into the local row.
// Shared by Sync and the webhook handlers.
func reconcileState(sub *Subscription, state *gateway.SubscriptionState, now time.Time) {
	sub.Status = StatusFromGateway(state.Status)
	sub.PlanID = state.PlanID
	if state.Quantity > 0 {
		sub.Quantity = state.Quantity
	}
	sub.TrialEndsAt = state.TrialEnd

	switch {
	case state.Status == gateway.StatusCancelled:
		// Keep an already-recorded grace boundary; otherwise the
		// cancellation took effect now.
		if sub.EndsAt == nil {
			endsAt := now
			sub.EndsAt = &endsAt
		}
	case state.CancelAtPeriodEnd:
		switch {
		case sub.OnTrialAt(now):
			endsAt := *sub.TrialEndsAt
			sub.EndsAt = &endsAt
		case !state.CurrentPeriodEnd.IsZero():
			endsAt := state.CurrentPeriodEnd
			sub.EndsAt = &endsAt
		}
		// Without a usable period end, keep whatever boundary is already
		// recorded; a zero time would read as ended immediately.
	default:
		sub.EndsAt = nil
	}
}

// persistBestEffort writes the row and only logs on failure, for paths where
// the gateway change already happened and a payment error must still reach
// the caller. Webhook reconciliation repairs the row later.
func (s *Service) persistBestEffort(ctx context.Context, sub *Subscription, op string) {
	if err := s.store.Update(ctx, sub); err != nil {
		s.log.ErrorContext(ctx, "failed to persist subscription after "+op,
			logger.SubscriptionID(sub.ID),
			logger.GatewayID(sub.GatewayID),
			logger.Error(err),
		)
	}
}
