package subscription

import (
	"context"

	"github.com/google/uuid"
)

// Store persists subscriptions. The interface is minimal so hosts can back
// it with any storage; a pgx implementation and an in-memory one ship with
// the package.
//
// Update is the mutual-exclusion boundary for concurrent webhook deliveries:
// implementations must apply it as one atomic write (last-write-wins is
// acceptable), not a read-modify-write in application code.
type Store interface {
	// Create inserts a new subscription. Returns ErrAlreadyExists when the
	// owner already holds a subscription under the same name.
	Create(ctx context.Context, sub *Subscription) error

	// Update rewrites the mutable fields of an existing subscription.
	// Returns ErrNotFound when the row does not exist. GatewayID, OwnerID
	// and Name are immutable and never written back.
	Update(ctx context.Context, sub *Subscription) error

	Find(ctx context.Context, id uuid.UUID) (*Subscription, error)
	FindByOwnerAndName(ctx context.Context, ownerID uuid.UUID, name string) (*Subscription, error)
	// FindByGatewayID looks a subscription up by the gateway's identifier,
	// the key inbound webhook events carry.
	FindByGatewayID(ctx context.Context, gatewayID string) (*Subscription, error)
}
