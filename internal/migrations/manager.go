package migrations

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/aihubhq/aihub/pkg/logger"
)

// Manager applies registered migrations the database has not seen yet.
// The applied version is kept in the settings table under db_version.
type Manager struct {
	logger   logger.Logger
	registry MigrationRegistry
}

// NewManager creates a migration manager over the default registry
func NewManager(logger logger.Logger) *Manager {
	return NewManagerWithRegistry(logger, DefaultRegistry)
}

func NewManagerWithRegistry(logger logger.Logger, registry MigrationRegistry) *Manager {
	return &Manager{
		logger:   logger,
		registry: registry,
	}
}

// GetCurrentDBVersion returns the stored version and whether one was found
func (m *Manager) GetCurrentDBVersion(ctx context.Context, db DBExecutor) (int, bool, error) {
	var versionStr string
	err := db.QueryRowContext(ctx, "SELECT value FROM settings WHERE key = 'db_version'").Scan(&versionStr)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to get current database version: %w", err)
	}

	version, err := strconv.Atoi(versionStr)
	if err != nil {
		return 0, false, fmt.Errorf("invalid database version format '%s': %w", versionStr, err)
	}
	return version, true, nil
}

func (m *Manager) SetCurrentDBVersion(ctx context.Context, db DBExecutor, version int) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO settings (key, value) VALUES ('db_version', $1)
		ON CONFLICT (key) DO UPDATE SET
			value = $1,
			updated_at = CURRENT_TIMESTAMP
	`, strconv.Itoa(version))
	if err != nil {
		return fmt.Errorf("failed to set database version to %d: %w", version, err)
	}
	return nil
}

// RunMigrations brings the database to the latest registered version. A database
// without a stored version was just created from the current table definitions and
// is stamped with the latest version without running anything.
func (m *Manager) RunMigrations(ctx context.Context, db *sql.DB) error {
	latest := m.registry.LatestVersion()

	current, exists, err := m.GetCurrentDBVersion(ctx, db)
	if err != nil {
		return err
	}

	if !exists {
		m.logger.WithField("version", latest).Info("First run detected, initializing database version")
		return m.SetCurrentDBVersion(ctx, db, latest)
	}

	if current >= latest {
		m.logger.WithField("version", current).Debug("Database is up to date")
		return nil
	}

	for _, migration := range m.registry.GetMigrations() {
		if migration.Version() <= current {
			continue
		}
		if err := m.executeMigration(ctx, db, migration); err != nil {
			return fmt.Errorf("migration %d failed: %w", migration.Version(), err)
		}
	}

	m.logger.WithField("version", latest).Info("Migrations completed")
	return nil
}

// executeMigration runs one migration and records its version in the same transaction
func (m *Manager) executeMigration(ctx context.Context, db *sql.DB, migration Migration) error {
	m.logger.WithFields(map[string]interface{}{
		"version":     migration.Version(),
		"description": migration.Description(),
	}).Info("Executing migration")

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := migration.Up(ctx, tx); err != nil {
		return err
	}
	if err := m.SetCurrentDBVersion(ctx, tx, migration.Version()); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit migration transaction: %w", err)
	}
	return nil
}
