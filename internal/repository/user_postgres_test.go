package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aihubhq/aihub/internal/domain"
	"github.com/aihubhq/aihub/internal/repository/testutil"
)

func TestUserRepository_GetByID(t *testing.T) {
	db, mock, cleanup := testutil.SetupMockDB(t)
	defer cleanup()

	repo := NewUserRepository(db)
	now := time.Now().UTC().Truncate(time.Second)

	mock.ExpectQuery(`SELECT id, email, credits, stripe_customer_id, created_at, updated_at FROM users WHERE id = \$1`).
		WithArgs("user-1").
		WillReturnRows(testutil.UserRows().AddRow("user-1", "ann@acme.com", 42, "cus_123", now, now))

	user, err := repo.GetByID(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, 42, user.Credits)
	require.NotNil(t, user.StripeCustomerID)
	assert.Equal(t, "cus_123", *user.StripeCustomerID)

	mock.ExpectQuery(`FROM users WHERE id = \$1`).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err = repo.GetByID(context.Background(), "missing")
	var notFound *domain.ErrNotFound
	assert.True(t, errors.As(err, &notFound))

	mock.ExpectQuery(`FROM users WHERE id = \$1`).
		WithArgs("user-1").
		WillReturnError(errors.New("database error"))

	_, err = repo.GetByID(context.Background(), "user-1")
	assert.ErrorContains(t, err, "failed to get user")

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_EnsureUser(t *testing.T) {
	db, mock, cleanup := testutil.SetupMockDB(t)
	defer cleanup()

	repo := NewUserRepository(db)

	mock.ExpectExec(`INSERT INTO users \(id, email, credits\) VALUES \(\$1, \$2, 0\) ON CONFLICT \(id\) DO NOTHING`).
		WithArgs("user-1", "ann@acme.com").
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.EnsureUser(context.Background(), "user-1", "ann@acme.com"))

	mock.ExpectExec(`INSERT INTO users`).
		WithArgs("user-2", nil).
		WillReturnResult(sqlmock.NewResult(0, 0))
	require.NoError(t, repo.EnsureUser(context.Background(), "user-2", ""))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_GetCredits(t *testing.T) {
	db, mock, cleanup := testutil.SetupMockDB(t)
	defer cleanup()

	repo := NewUserRepository(db)

	mock.ExpectQuery(`SELECT credits FROM users WHERE id = \$1`).
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows([]string{"credits"}).AddRow(7))

	credits, err := repo.GetCredits(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, 7, credits)

	mock.ExpectQuery(`SELECT credits FROM users`).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"credits"}))

	_, err = repo.GetCredits(context.Background(), "missing")
	var notFound *domain.ErrNotFound
	assert.True(t, errors.As(err, &notFound))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_TransactionalWrites(t *testing.T) {
	db, mock, cleanup := testutil.SetupMockDB(t)
	defer cleanup()

	repo := NewUserRepository(db)
	now := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .+ FROM users WHERE LOWER\(email\) = LOWER\(\$1\) LIMIT 1 FOR UPDATE`).
		WithArgs("ann@acme.com").
		WillReturnRows(testutil.UserRows())
	mock.ExpectExec(`INSERT INTO users \(id, email, credits, stripe_customer_id, created_at, updated_at\)`).
		WithArgs("user-1", "ann@acme.com", 0, nil, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`UPDATE users\s+SET credits = credits \+ \$1,\s+stripe_customer_id = COALESCE\(\$2, stripe_customer_id\),\s+updated_at = NOW\(\)\s+WHERE id = \$3\s+RETURNING credits`).
		WithArgs(100, "cus_123", "user-1").
		WillReturnRows(sqlmock.NewRows([]string{"credits"}).AddRow(100))
	mock.ExpectQuery(`SELECT .+ FROM users WHERE id = \$1 LIMIT 1 FOR UPDATE`).
		WithArgs("user-1").
		WillReturnRows(testutil.UserRows().AddRow("user-1", "ann@acme.com", 100, "cus_123", now, now))
	mock.ExpectCommit()

	var balance int
	var reloaded *domain.User
	err := repo.WithTransaction(context.Background(), func(tx *sql.Tx) error {
		_, err := repo.GetByEmailTx(context.Background(), tx, " ann@acme.com ")
		var notFound *domain.ErrNotFound
		require.True(t, errors.As(err, &notFound))

		user := &domain.User{ID: "user-1", Email: "ann@acme.com"}
		if err := repo.CreateTx(context.Background(), tx, user); err != nil {
			return err
		}
		if balance, err = repo.AddCreditsTx(context.Background(), tx, user.ID, 100, "cus_123"); err != nil {
			return err
		}
		reloaded, err = repo.GetByIDTx(context.Background(), tx, user.ID)
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, 100, balance)
	assert.Equal(t, 100, reloaded.Credits)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_WithTransactionRollsBack(t *testing.T) {
	db, mock, cleanup := testutil.SetupMockDB(t)
	defer cleanup()

	repo := NewUserRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`UPDATE users`).
		WithArgs(100, nil, "ghost").
		WillReturnRows(sqlmock.NewRows([]string{"credits"}))
	mock.ExpectRollback()

	err := repo.WithTransaction(context.Background(), func(tx *sql.Tx) error {
		_, err := repo.AddCreditsTx(context.Background(), tx, "ghost", 100, "")
		return err
	})
	var notFound *domain.ErrNotFound
	assert.True(t, errors.As(err, &notFound))

	assert.NoError(t, mock.ExpectationsWereMet())
}
