package database

import (
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aihubhq/aihub/internal/database/schema"
)

func TestInitializeDatabase(t *testing.T) {
	t.Run("creates tables and indexes", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		for range schema.TableDefinitions {
			mock.ExpectExec("CREATE TABLE IF NOT EXISTS").WillReturnResult(sqlmock.NewResult(0, 0))
		}
		for range schema.IndexDefinitions {
			mock.ExpectExec("CREATE INDEX IF NOT EXISTS").WillReturnResult(sqlmock.NewResult(0, 0))
		}

		assert.NoError(t, InitializeDatabase(db))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("table creation fails", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectExec("CREATE TABLE IF NOT EXISTS users").WillReturnError(errors.New("permission denied"))

		err = InitializeDatabase(db)
		assert.ErrorContains(t, err, "failed to create table")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("index creation fails", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		for range schema.TableDefinitions {
			mock.ExpectExec("CREATE TABLE").WillReturnResult(sqlmock.NewResult(0, 0))
		}
		mock.ExpectExec("CREATE INDEX").WillReturnError(errors.New("disk full"))

		err = InitializeDatabase(db)
		assert.ErrorContains(t, err, "failed to create index")
	})
}

func TestTableDefinitions(t *testing.T) {
	var all string
	for _, def := range schema.TableDefinitions {
		all += def
	}
	for _, table := range []string{"users", "contacts", "user_tags", "tools", "tool_executions", "transactions", "subscriptions", "stripe_events", "settings"} {
		assert.Contains(t, all, "CREATE TABLE IF NOT EXISTS "+table+" (")
	}
	assert.Contains(t, all, "UNIQUE (user_id, tag_name)")
	assert.Contains(t, all, "user_id VARCHAR(255) NOT NULL UNIQUE")
}
