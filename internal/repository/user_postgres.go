package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"go.opencensus.io/trace"

	"github.com/aihubhq/aihub/internal/domain"
	"github.com/aihubhq/aihub/pkg/tracing"
)

type userRepository struct {
	systemDB *sql.DB
}

// NewUserRepository creates a new PostgreSQL user repository
func NewUserRepository(db *sql.DB) domain.UserRepository {
	return &userRepository{systemDB: db}
}

// WithTransaction executes a function within a transaction
func (r *userRepository) WithTransaction(ctx context.Context, fn func(*sql.Tx) error) error {
	return runInTx(ctx, r.systemDB, fn)
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	ctx, span := tracing.StartServiceSpan(ctx, "UserRepository", "GetByID")
	defer span.End()
	span.AddAttributes(trace.StringAttribute("user.id", id))

	query, args, err := psql.Select(domain.UserColumns...).From("users").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	user, err := domain.ScanUser(r.systemDB.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		span.SetStatus(trace.Status{Code: trace.StatusCodeNotFound, Message: "user not found"})
		return nil, &domain.ErrNotFound{Entity: "user", ID: id}
	}
	if err != nil {
		tracing.MarkSpanError(ctx, err)
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// EnsureUser inserts the identity with a zero balance unless it already exists
func (r *userRepository) EnsureUser(ctx context.Context, id, email string) error {
	query := `
		INSERT INTO users (id, email, credits)
		VALUES ($1, $2, 0)
		ON CONFLICT (id) DO NOTHING
	`
	if _, err := r.systemDB.ExecContext(ctx, query, id, nullIfEmpty(email)); err != nil {
		return fmt.Errorf("failed to ensure user: %w", err)
	}
	return nil
}

// GetCredits is a live read; balances are never served from a cache
func (r *userRepository) GetCredits(ctx context.Context, id string) (int, error) {
	var credits int
	err := r.systemDB.QueryRowContext(ctx, `SELECT credits FROM users WHERE id = $1`, id).Scan(&credits)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, &domain.ErrNotFound{Entity: "user", ID: id}
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get credits: %w", err)
	}
	return credits, nil
}

func (r *userRepository) GetByIDTx(ctx context.Context, tx *sql.Tx, id string) (*domain.User, error) {
	return r.getOneTx(ctx, tx, sq.Eq{"id": id}, id)
}

// GetByEmailTx matches case-insensitively and locks the row for the rest of the transaction
func (r *userRepository) GetByEmailTx(ctx context.Context, tx *sql.Tx, email string) (*domain.User, error) {
	return r.getOneTx(ctx, tx, sq.Expr("LOWER(email) = LOWER(?)", strings.TrimSpace(email)), email)
}

func (r *userRepository) getOneTx(ctx context.Context, tx *sql.Tx, pred sq.Sqlizer, key string) (*domain.User, error) {
	query, args, err := psql.
		Select(domain.UserColumns...).
		From("users").
		Where(pred).
		Limit(1).
		Suffix("FOR UPDATE").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	user, err := domain.ScanUser(tx.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &domain.ErrNotFound{Entity: "user", ID: key}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

func (r *userRepository) CreateTx(ctx context.Context, tx *sql.Tx, user *domain.User) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	query := `
		INSERT INTO users (id, email, credits, stripe_customer_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := tx.ExecContext(ctx, query,
		user.ID,
		nullIfEmpty(user.Email),
		user.Credits,
		user.StripeCustomerID,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *userRepository) AddCreditsTx(ctx context.Context, tx *sql.Tx, id string, amount int, customerID string) (int, error) {
	query := `
		UPDATE users
		SET credits = credits + $1,
			stripe_customer_id = COALESCE($2, stripe_customer_id),
			updated_at = NOW()
		WHERE id = $3
		RETURNING credits
	`
	var balance int
	err := tx.QueryRowContext(ctx, query, amount, nullIfEmpty(customerID), id).Scan(&balance)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, &domain.ErrNotFound{Entity: "user", ID: id}
	}
	if err != nil {
		return 0, fmt.Errorf("failed to add credits: %w", err)
	}
	return balance, nil
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
