// Package testutil holds sqlmock helpers shared by the postgres repository tests.
package testutil

import (
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/aihubhq/aihub/internal/domain"
)

// SetupMockDB opens a sqlmock connection. Expected queries are regular expressions and
// whitespace in both the expectation and the executed SQL is collapsed before matching.
func SetupMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)

	return db, mock, func() { _ = db.Close() }
}

// UserRows is an empty result set shaped like a users scan
func UserRows() *sqlmock.Rows {
	return sqlmock.NewRows(domain.UserColumns)
}

// ContactRows is an empty result set shaped like a contacts scan
func ContactRows() *sqlmock.Rows {
	return sqlmock.NewRows(domain.ContactColumns)
}

// ExecutionRows is an empty result set shaped like a tool_executions scan
func ExecutionRows() *sqlmock.Rows {
	return sqlmock.NewRows(domain.ToolExecutionColumns)
}

// SubscriptionRows is an empty result set shaped like a subscriptions scan
func SubscriptionRows() *sqlmock.Rows {
	return sqlmock.NewRows(domain.SubscriptionColumns)
}
