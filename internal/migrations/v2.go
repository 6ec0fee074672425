package migrations

import (
	"context"
	"fmt"
)

// V2Migration gives blank contact statuses the default and fails executions left
// pending by a previous release that had no reaper
type V2Migration struct{}

func (m *V2Migration) Version() int { return 2 }

func (m *V2Migration) Description() string {
	return "default contact status and close orphaned executions"
}

func (m *V2Migration) Up(ctx context.Context, db DBExecutor) error {
	if _, err := db.ExecContext(ctx, `
		UPDATE contacts SET status = 'new'
		WHERE status IS NULL OR btrim(status) = ''
	`); err != nil {
		return fmt.Errorf("failed to default contact status: %w", err)
	}

	if _, err := db.ExecContext(ctx, `
		UPDATE tool_executions
		SET status = 'error',
			output_data = '{"error":"Execution timed out"}'::jsonb,
			updated_at = NOW()
		WHERE status = 'pending' AND created_at < NOW() - INTERVAL '1 hour'
	`); err != nil {
		return fmt.Errorf("failed to close orphaned executions: %w", err)
	}
	return nil
}

func init() {
	Register(&V2Migration{})
}
