package migrations

import (
	"context"
	"database/sql"
)

// DBExecutor represents a database connection that can execute queries
type DBExecutor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// Migration is a numbered data or schema change applied once per database
type Migration interface {
	Version() int
	Description() string
	Up(ctx context.Context, db DBExecutor) error
}

// MigrationRegistry manages registered migrations
type MigrationRegistry interface {
	Register(migration Migration)
	GetMigrations() []Migration
	GetMigration(version int) (Migration, bool)
	LatestVersion() int
}
