package subscription

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is a mutex-guarded in-memory Store for tests and examples.
type MemoryStore struct {
	mu   sync.RWMutex
	subs map[uuid.UUID]*Subscription
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{subs: make(map[uuid.UUID]*Subscription)}
}

func (s *MemoryStore) Create(ctx context.Context, sub *Subscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.subs[sub.ID]; exists {
		return ErrAlreadyExists
	}
	// Mirrors the partial unique index of the Postgres store: only rows
	// without an end date reserve the (owner, name) slot.
	for _, existing := range s.subs {
		if existing.OwnerID == sub.OwnerID && existing.Name == sub.Name && existing.EndsAt == nil {
			return ErrAlreadyExists
		}
	}
	s.subs[sub.ID] = sub.clone()
	return nil
}

func (s *MemoryStore) Update(ctx context.Context, sub *Subscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.subs[sub.ID]
	if !ok {
		return ErrNotFound
	}

	// Immutable fields keep their original values; everything else is
	// last-write-wins, matching the Postgres store.
	updated := sub.clone()
	updated.OwnerID = existing.OwnerID
	updated.Name = existing.Name
	updated.GatewayID = existing.GatewayID
	updated.CreatedAt = existing.CreatedAt
	updated.UpdatedAt = time.Now().UTC()
	s.subs[sub.ID] = updated
	return nil
}

func (s *MemoryStore) Find(ctx context.Context, id uuid.UUID) (*Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sub, ok := s.subs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return sub.clone(), nil
}

func (s *MemoryStore) FindByOwnerAndName(ctx context.Context, ownerID uuid.UUID, name string) (*Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	// Ended rows linger after a resubscribe under the same name; the newest
	// row is the current one.
	var latest *Subscription
	for _, sub := range s.subs {
		if sub.OwnerID != ownerID || sub.Name != name {
			continue
		}
		if latest == nil || sub.CreatedAt.After(latest.CreatedAt) {
			latest = sub
		}
	}
	if latest == nil {
		return nil, ErrNotFound
	}
	return latest.clone(), nil
}

func (s *MemoryStore) FindByGatewayID(ctx context.Context, gatewayID string) (*Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, sub := range s.subs {
		if sub.GatewayID == gatewayID {
			return sub.clone(), nil
		}
	}
	return nil, ErrNotFound
}
