package migrations

import (
	"context"
	"fmt"
)

// V3Migration adds the processed payment event log used to ignore Stripe redeliveries
type V3Migration struct{}

func (m *V3Migration) Version() int { return 3 }

func (m *V3Migration) Description() string {
	return "record processed stripe events"
}

func (m *V3Migration) Up(ctx context.Context, db DBExecutor) error {
	if _, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS stripe_events (
			event_id VARCHAR(255) PRIMARY KEY,
			event_type VARCHAR(100) NOT NULL,
			processed_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`); err != nil {
		return fmt.Errorf("failed to create stripe_events: %w", err)
	}
	return nil
}

func init() {
	Register(&V3Migration{})
}
