package subscription

import (
	"time"

	"github.com/google/uuid"
)

// MinQuantity is the quantity floor. Decrementing below it fails instead of
// producing a zero-quantity subscription, which most gateways reject.
const MinQuantity int64 = 1

// Subscription is one billable-entity-to-plan subscription. An entity may
// hold several concurrently, distinguished by Name ("default", "swimming").
// Rows are never deleted; cancellation is a state transition.
type Subscription struct {
	ID      uuid.UUID
	OwnerID uuid.UUID
	Name    string
	// GatewayID is assigned by the gateway at creation and never mutated
	// afterwards.
	GatewayID string
	PlanID    string
	Status    Status
	Quantity  int64
	// TrialEndsAt marks the end of the subscription trial. A future value
	// means the subscription is on trial regardless of Status, unless the
	// status is a terminal failure.
	TrialEndsAt *time.Time
	// EndsAt is non-nil exactly while the subscription is cancelled: it
	// marks the grace-period boundary for a deferred cancellation, or the
	// moment of an immediate one. Resume clears it.
	EndsAt    *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// OnTrialAt reports whether the subscription trial is active at now.
func (s *Subscription) OnTrialAt(now time.Time) bool {
	return s.TrialEndsAt != nil && now.Before(*s.TrialEndsAt)
}

// OnTrial reports whether the subscription trial is active.
func (s *Subscription) OnTrial() bool {
	return s.OnTrialAt(time.Now().UTC())
}

// OnGracePeriodAt reports whether a deferred cancellation is pending but
// the service end date has not arrived at now.
func (s *Subscription) OnGracePeriodAt(now time.Time) bool {
	return s.EndsAt != nil && now.Before(*s.EndsAt)
}

// OnGracePeriod reports whether the cancellation grace period is running.
func (s *Subscription) OnGracePeriod() bool {
	return s.OnGracePeriodAt(time.Now().UTC())
}

// IsCancelled reports whether a cancellation has been requested, whether or
// not the grace period has expired yet.
func (s *Subscription) IsCancelled() bool {
	return s.EndsAt != nil
}

// IsEndedAt reports whether the subscription is cancelled and past its
// grace period at now.
func (s *Subscription) IsEndedAt(now time.Time) bool {
	return s.IsCancelled() && !s.OnGracePeriodAt(now)
}

// IsEnded reports whether the subscription is cancelled and past its grace
// period.
func (s *Subscription) IsEnded() bool {
	return s.IsEndedAt(time.Now().UTC())
}

// IsActiveAt reports whether the subscription grants service at now: a
// billable-active status, an active trial, or a running grace period. A
// terminal failure status makes it inactive regardless of timestamps.
func (s *Subscription) IsActiveAt(now time.Time) bool {
	if s.Status.terminalFailure() {
		return false
	}
	return s.Status.billableActive() || s.OnTrialAt(now) || s.OnGracePeriodAt(now)
}

// IsActive reports whether the subscription grants service.
func (s *Subscription) IsActive() bool {
	return s.IsActiveAt(time.Now().UTC())
}

// IsRecurringAt reports whether the subscription will bill again: active in
// the billable sense, not on trial, and not cancelled.
func (s *Subscription) IsRecurringAt(now time.Time) bool {
	return !s.OnTrialAt(now) && !s.IsCancelled() && s.Status.billableActive()
}

// IsRecurring reports whether the subscription will bill again.
func (s *Subscription) IsRecurring() bool {
	return s.IsRecurringAt(time.Now().UTC())
}

// IsIncomplete reports whether the initial or latest payment has not
// cleared yet.
func (s *Subscription) IsIncomplete() bool {
	return s.Status == StatusIncomplete || s.Status == StatusIncompleteExpired
}

// IsPastDue reports whether the latest renewal payment failed and the
// gateway is retrying.
func (s *Subscription) IsPastDue() bool {
	return s.Status == StatusPastDue
}

// clone returns a copy so stores never hand out aliased internals.
func (s *Subscription) clone() *Subscription {
	out := *s
	if s.TrialEndsAt != nil {
		t := *s.TrialEndsAt
		out.TrialEndsAt = &t
	}
	if s.EndsAt != nil {
		t := *s.EndsAt
		out.EndsAt = &t
	}
	return &out
}
