package migrations

import (
	"context"
	"fmt"
)

// V1Migration registers every tag already present on contacts in the owner's tag vocabulary
type V1Migration struct{}

func (m *V1Migration) Version() int { return 1 }

func (m *V1Migration) Description() string {
	return "backfill user_tags from contact tags"
}

func (m *V1Migration) Up(ctx context.Context, db DBExecutor) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO user_tags (id, user_id, tag_name)
		SELECT gen_random_uuid(), t.user_id, t.tag_name
		FROM (
			SELECT DISTINCT user_id, btrim(unnest(tags)) AS tag_name
			FROM contacts
			WHERE tags IS NOT NULL
		) t
		WHERE t.tag_name <> ''
		ON CONFLICT (user_id, tag_name) DO NOTHING
	`)
	if err != nil {
		return fmt.Errorf("failed to backfill tag vocabulary: %w", err)
	}
	return nil
}

func init() {
	Register(&V1Migration{})
}
