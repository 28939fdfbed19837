// Package billable defines the capability interface a host application's
// entity (user, team, tenant) implements to participate in billing, plus
// the customer-level operations that hang off it: one-off charges, refunds,
// invoice listings, and customer discounts.
//
// This replaces the trait/mixin approach of attaching billing behavior to
// an arbitrary user model: any entity type that can answer four questions
// is billable, and the subscription machinery is written against the
// interface, not against a concrete model.
package billable

import (
	"time"

	"github.com/google/uuid"
)

// Billable is implemented by any entity that owns billing state.
type Billable interface {
	// BillingID is the entity's local identifier; subscriptions reference it.
	BillingID() uuid.UUID
	// GatewayCustomerID is the gateway's customer id, empty until the
	// entity has been registered at the gateway.
	GatewayCustomerID() string
	// BillingEmail is used when creating the gateway customer.
	BillingEmail() string
	// GenericTrialEndsAt is an optional trial attached to the entity
	// itself, not tied to any subscription. Nil when there is none.
	GenericTrialEndsAt() *time.Time
}

// OnGenericTrialAt reports whether the entity's generic trial is active at
// the given time.
func OnGenericTrialAt(b Billable, now time.Time) bool {
	ends := b.GenericTrialEndsAt()
	return ends != nil && now.Before(*ends)
}

// OnGenericTrial reports whether the entity's generic trial is active now.
func OnGenericTrial(b Billable) bool {
	return OnGenericTrialAt(b, time.Now().UTC())
}
