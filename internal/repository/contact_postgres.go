package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.opencensus.io/trace"

	"github.com/aihubhq/aihub/internal/domain"
	"github.com/aihubhq/aihub/pkg/tracing"
)

// psql is a Squirrel StatementBuilder configured for PostgreSQL
var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

type contactRepository struct {
	db *sql.DB
}

// NewContactRepository creates a new PostgreSQL contact repository
func NewContactRepository(db *sql.DB) domain.ContactRepository {
	return &contactRepository{db: db}
}

// likeEscaper makes user input match literally inside an ILIKE pattern
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// buildContactListQuery turns a normalized query into SQL. Column names only come
// from the closed sets validated by ContactQuery.Normalize.
func buildContactListQuery(q domain.ContactQuery) sq.SelectBuilder {
	builder := psql.
		Select(domain.ContactColumns...).
		From("contacts").
		Where(sq.Eq{"user_id": q.UserID})

	if q.Search != "" {
		builder = builder.Where(sq.ILike{string(q.SearchField): "%" + likeEscaper.Replace(q.Search) + "%"})
	}
	if len(q.Tags) > 0 {
		builder = builder.Where(sq.Expr("tags @> ?", pq.Array(q.Tags)))
	}
	if len(q.IDs) > 0 {
		builder = builder.Where(sq.Eq{"id": q.IDs})
	}

	return builder.OrderBy(fmt.Sprintf("%s %s", q.SortBy, strings.ToUpper(string(q.SortOrder))))
}

func (r *contactRepository) List(ctx context.Context, q domain.ContactQuery) ([]*domain.Contact, error) {
	ctx, span := tracing.StartServiceSpan(ctx, "ContactRepository", "List")
	defer span.End()

	if err := q.Normalize(); err != nil {
		return nil, err
	}
	span.AddAttributes(
		trace.StringAttribute("user.id", q.UserID),
		trace.StringAttribute("contacts.search_field", string(q.SearchField)),
		trace.StringAttribute("contacts.sort", string(q.SortBy)+" "+string(q.SortOrder)),
	)

	query, args, err := buildContactListQuery(q).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		tracing.MarkSpanError(ctx, err)
		return nil, fmt.Errorf("failed to list contacts: %w", err)
	}
	defer rows.Close()

	return scanContacts(rows)
}

// bulkInsertChunkSize keeps each statement well under the 65535 bind parameter limit
const bulkInsertChunkSize = 1000

// BulkInsert writes the contacts in chunks inside one transaction and returns the
// stored rows. Either every row is stored or none is.
func (r *contactRepository) BulkInsert(ctx context.Context, userID string, contacts []*domain.ContactData) ([]*domain.Contact, error) {
	if len(contacts) == 0 {
		return []*domain.Contact{}, nil
	}

	ctx, span := tracing.StartServiceSpan(ctx, "ContactRepository", "BulkInsert")
	defer span.End()
	span.AddAttributes(
		trace.StringAttribute("user.id", userID),
		trace.Int64Attribute("contacts.count", int64(len(contacts))),
	)

	stored := make([]*domain.Contact, 0, len(contacts))
	err := runInTx(ctx, r.db, func(tx *sql.Tx) error {
		for start := 0; start < len(contacts); start += bulkInsertChunkSize {
			end := start + bulkInsertChunkSize
			if end > len(contacts) {
				end = len(contacts)
			}
			chunk, err := insertContactChunk(ctx, tx, userID, contacts[start:end])
			if err != nil {
				return err
			}
			stored = append(stored, chunk...)
		}
		return nil
	})
	if err != nil {
		tracing.MarkSpanError(ctx, err)
		return nil, err
	}
	return stored, nil
}

func insertContactChunk(ctx context.Context, tx *sql.Tx, userID string, contacts []*domain.ContactData) ([]*domain.Contact, error) {
	builder := psql.
		Insert("contacts").
		Columns("id", "user_id", "name", "email", "phone_number", "company_name",
			"contact_position", "address", "status", "tags").
		Suffix("RETURNING " + strings.Join(domain.ContactColumns, ", "))

	for _, c := range contacts {
		status := c.Status
		if status == "" {
			status = domain.ContactStatusNew
		}
		var tags interface{}
		if c.Tags != nil {
			tags = pq.Array(c.Tags)
		}
		builder = builder.Values(
			uuid.New().String(), userID, c.Name, c.Email, c.PhoneNumber, c.CompanyName,
			c.ContactPosition, c.Address, status, tags,
		)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to insert contacts: %w", err)
	}
	defer rows.Close()

	return scanContacts(rows)
}

func (r *contactRepository) GetByIDs(ctx context.Context, userID string, ids []string) ([]*domain.Contact, error) {
	if len(ids) == 0 {
		return []*domain.Contact{}, nil
	}

	query, args, err := psql.
		Select(domain.ContactColumns...).
		From("contacts").
		Where(sq.Eq{"user_id": userID, "id": ids}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get contacts: %w", err)
	}
	defer rows.Close()

	return scanContacts(rows)
}

// ReplaceTags overwrites the tag list of each contact; an empty list clears it
func (r *contactRepository) ReplaceTags(ctx context.Context, userID string, ids []string, tags []string) (int64, error) {
	if tags == nil {
		tags = []string{}
	}

	query, args, err := psql.
		Update("contacts").
		Set("tags", pq.Array(tags)).
		Where(sq.Eq{"user_id": userID, "id": ids}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build query: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to update contact tags: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return affected, nil
}

func (r *contactRepository) UpdateStatus(ctx context.Context, userID, id, status string) error {
	query, args, err := psql.
		Update("contacts").
		Set("status", status).
		Where(sq.Eq{"user_id": userID, "id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build query: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update contact status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return &domain.ErrNotFound{Entity: "contact", ID: id}
	}
	return nil
}

func (r *contactRepository) DeleteMany(ctx context.Context, userID string, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	query, args, err := psql.
		Delete("contacts").
		Where(sq.Eq{"user_id": userID, "id": ids}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build query: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to delete contacts: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return affected, nil
}

func (r *contactRepository) CountByStatus(ctx context.Context, userID string) (map[string]int, error) {
	query, args, err := psql.
		Select("status", "COUNT(*)").
		From("contacts").
		Where(sq.Eq{"user_id": userID}).
		GroupBy("status").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to count contacts: %w", err)
	}
	defer rows.Close()

	counts := map[string]int{}
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("failed to scan contact count: %w", err)
		}
		counts[status] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return counts, nil
}

func scanContacts(rows *sql.Rows) ([]*domain.Contact, error) {
	contacts := []*domain.Contact{}
	for rows.Next() {
		c, err := domain.ScanContact(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan contact: %w", err)
		}
		contacts = append(contacts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return contacts, nil
}
