package subscription

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/cashier/pkg/pg"
)

// PostgresStore is the pgx-backed Store implementation.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore wraps a connection pool. Panics when pool is nil.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	if pool == nil {
		panic("subscription: pgx pool is required")
	}
	return &PostgresStore{pool: pool}
}

const subscriptionColumns = `id, owner_id, name, gateway_id, plan_id, status, quantity, trial_ends_at, ends_at, created_at, updated_at`

func (s *PostgresStore) Create(ctx context.Context, sub *Subscription) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO subscriptions (`+subscriptionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		sub.ID, sub.OwnerID, sub.Name, sub.GatewayID, sub.PlanID,
		string(sub.Status), sub.Quantity, sub.TrialEndsAt, sub.EndsAt,
		sub.CreatedAt, sub.UpdatedAt,
	)
	if err != nil {
		if pg.IsDuplicateKeyError(err) {
			return ErrAlreadyExists
		}
		return fmt.Errorf("insert subscription: %w", err)
	}
	return nil
}

// Update rewrites the mutable fields in a single statement so concurrent
// webhook deliveries serialize at the row lock instead of interleaving a
// read-modify-write.
func (s *PostgresStore) Update(ctx context.Context, sub *Subscription) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE subscriptions
		SET plan_id = $2,
		    status = $3,
		    quantity = $4,
		    trial_ends_at = $5,
		    ends_at = $6,
		    updated_at = now()
		WHERE id = $1`,
		sub.ID, sub.PlanID, string(sub.Status), sub.Quantity,
		sub.TrialEndsAt, sub.EndsAt,
	)
	if err != nil {
		return fmt.Errorf("update subscription: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) Find(ctx context.Context, id uuid.UUID) (*Subscription, error) {
	return s.scanOne(ctx, `
		SELECT `+subscriptionColumns+`
		FROM subscriptions
		WHERE id = $1`, id)
}

// FindByOwnerAndName returns the newest row for the slot: ended
// subscriptions stay behind after a resubscribe under the same name.
func (s *PostgresStore) FindByOwnerAndName(ctx context.Context, ownerID uuid.UUID, name string) (*Subscription, error) {
	return s.scanOne(ctx, `
		SELECT `+subscriptionColumns+`
		FROM subscriptions
		WHERE owner_id = $1 AND name = $2
		ORDER BY created_at DESC
		LIMIT 1`, ownerID, name)
}

func (s *PostgresStore) FindByGatewayID(ctx context.Context, gatewayID string) (*Subscription, error) {
	return s.scanOne(ctx, `
		SELECT `+subscriptionColumns+`
		FROM subscriptions
		WHERE gateway_id = $1`, gatewayID)
}

func (s *PostgresStore) scanOne(ctx context.Context, query string, args ...any) (*Subscription, error) {
	var (
		sub    Subscription
		status string
	)
	err := s.pool.QueryRow(ctx, query, args...).Scan(
		&sub.ID, &sub.OwnerID, &sub.Name, &sub.GatewayID, &sub.PlanID,
		&status, &sub.Quantity, &sub.TrialEndsAt, &sub.EndsAt,
		&sub.CreatedAt, &sub.UpdatedAt,
	)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("select subscription: %w", err)
	}
	sub.Status = Status(status)
	return &sub, nil
}
