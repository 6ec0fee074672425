package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/aihubhq/aihub/internal/domain"
)

type subscriptionRepository struct {
	db *sql.DB
}

// NewSubscriptionRepository creates a new PostgreSQL subscription repository
func NewSubscriptionRepository(db *sql.DB) domain.SubscriptionRepository {
	return &subscriptionRepository{db: db}
}

func (r *subscriptionRepository) GetByUserID(ctx context.Context, userID string) (*domain.Subscription, error) {
	query, args, err := psql.
		Select(domain.SubscriptionColumns...).
		From("subscriptions").
		Where(sq.Eq{"user_id": userID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	sub, err := domain.ScanSubscription(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &domain.ErrNotFound{Entity: "subscription", ID: userID}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get subscription: %w", err)
	}
	return sub, nil
}

// UpsertTx keeps one subscription per user; a new purchase overwrites the previous one
func (r *subscriptionRepository) UpsertTx(ctx context.Context, tx *sql.Tx, sub *domain.Subscription) error {
	if sub.ID == "" {
		sub.ID = uuid.New().String()
	}
	if sub.Status == "" {
		sub.Status = domain.SubscriptionStatusActive
	}

	query := `
		INSERT INTO subscriptions (id, user_id, stripe_subscription_id, plan_name, credits_per_month, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id) DO UPDATE SET
			stripe_subscription_id = EXCLUDED.stripe_subscription_id,
			plan_name = EXCLUDED.plan_name,
			credits_per_month = EXCLUDED.credits_per_month,
			status = EXCLUDED.status,
			updated_at = NOW()
		RETURNING id, created_at, updated_at
	`
	err := tx.QueryRowContext(ctx, query,
		sub.ID,
		sub.UserID,
		sub.StripeSubscriptionID,
		sub.PlanName,
		sub.CreditsPerMonth,
		sub.Status,
	).Scan(&sub.ID, &sub.CreatedAt, &sub.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert subscription: %w", err)
	}
	return nil
}

// RecordEventTx claims a payment event id. It returns false when the id was claimed
// before, so a redelivered event changes nothing.
func (r *subscriptionRepository) RecordEventTx(ctx context.Context, tx *sql.Tx, eventID, eventType string) (bool, error) {
	query, args, err := psql.
		Insert("stripe_events").
		Columns("event_id", "event_type").
		Values(eventID, eventType).
		Suffix("ON CONFLICT (event_id) DO NOTHING").
		ToSql()
	if err != nil {
		return false, fmt.Errorf("failed to build query: %w", err)
	}

	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("failed to record payment event: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return affected == 1, nil
}
