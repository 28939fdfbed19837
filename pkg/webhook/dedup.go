package webhook

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// IdempotencyGuard claims an event id before non-idempotent work runs.
// FirstDelivery returns true exactly once per event id within the guard's
// retention window. The dispatcher consults it, when configured, only for
// events that have a registered handler; unknown events stay acknowledgeable
// without burning guard entries.
type IdempotencyGuard interface {
	FirstDelivery(ctx context.Context, eventID string) (bool, error)
}

// RedisGuard implements IdempotencyGuard on redis SET NX, which holds
// across the multiple worker processes a gateway may deliver to.
type RedisGuard struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisGuard creates a guard. Claimed event ids expire after ttl;
// gateways stop redelivering long before any sane retention window ends.
func NewRedisGuard(client *redis.Client, ttl time.Duration) (*RedisGuard, error) {
	if client == nil {
		return nil, fmt.Errorf("%w: redis client is required", ErrInvalidConfiguration)
	}
	if ttl <= 0 {
		ttl = 72 * time.Hour
	}
	return &RedisGuard{client: client, prefix: "webhook:event:", ttl: ttl}, nil
}

func (g *RedisGuard) FirstDelivery(ctx context.Context, eventID string) (bool, error) {
	if eventID == "" {
		// Events without an id cannot be deduplicated; treat each as new.
		return true, nil
	}
	return g.client.SetNX(ctx, g.prefix+eventID, 1, g.ttl).Result()
}

// MemoryGuard is an in-process IdempotencyGuard for tests and single-node
// deployments.
type MemoryGuard struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

func NewMemoryGuard() *MemoryGuard {
	return &MemoryGuard{seen: make(map[string]struct{})}
}

func (g *MemoryGuard) FirstDelivery(_ context.Context, eventID string) (bool, error) {
	if eventID == "" {
		return true, nil
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.seen[eventID]; ok {
		return false, nil
	}
	g.seen[eventID] = struct{}{}
	return true, nil
}
