package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/aihubhq/aihub/internal/domain"
)

var toolColumns = []string{
	"id", "name", "description", "category", "credit_cost", "execution_type",
	"input_schema", "output_schema", "rating", "total_uses", "webhook_link",
	"created_at", "updated_at",
}

type toolRepository struct {
	db *sql.DB
}

// NewToolRepository creates a new PostgreSQL tool catalog repository
func NewToolRepository(db *sql.DB) domain.ToolRepository {
	return &toolRepository{db: db}
}

func (r *toolRepository) List(ctx context.Context, category string) ([]*domain.Tool, error) {
	builder := psql.Select(toolColumns...).From("tools").OrderBy("name ASC")
	if category != "" {
		builder = builder.Where(sq.Eq{"category": category})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list tools: %w", err)
	}
	defer rows.Close()

	tools := []*domain.Tool{}
	for rows.Next() {
		tool, err := scanTool(rows)
		if err != nil {
			return nil, err
		}
		tools = append(tools, tool)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return tools, nil
}

func (r *toolRepository) GetByID(ctx context.Context, id string) (*domain.Tool, error) {
	query, args, err := psql.Select(toolColumns...).From("tools").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	tool, err := scanTool(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &domain.ErrNotFound{Entity: "tool", ID: id}
	}
	if err != nil {
		return nil, err
	}
	return tool, nil
}

// scanTool decodes the schemas and rejects catalog rows that break the tool invariants
func scanTool(scanner interface {
	Scan(dest ...interface{}) error
}) (*domain.Tool, error) {
	var (
		tool          domain.Tool
		description   sql.NullString
		category      sql.NullString
		executionType sql.NullString
		inputSchema   []byte
		outputSchema  []byte
		rating        sql.NullFloat64
		webhookLink   sql.NullString
	)

	err := scanner.Scan(
		&tool.ID,
		&tool.Name,
		&description,
		&category,
		&tool.CreditCost,
		&executionType,
		&inputSchema,
		&outputSchema,
		&rating,
		&tool.TotalUses,
		&webhookLink,
		&tool.CreatedAt,
		&tool.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan tool: %w", err)
	}

	tool.Description = description.String
	if category.Valid {
		c := category.String
		tool.Category = &c
	}
	tool.ExecutionType = executionType.String
	if tool.ExecutionType == "" {
		tool.ExecutionType = domain.ExecutionTypeWebhook
	}
	if rating.Valid {
		v := rating.Float64
		tool.Rating = &v
	}
	tool.WebhookLink = webhookLink.String

	if tool.InputSchema, err = domain.ParseInputSchema(inputSchema); err != nil {
		return nil, fmt.Errorf("tool %s: %w", tool.ID, err)
	}
	if tool.OutputSchema, err = domain.ParseOutputSchema(outputSchema); err != nil {
		return nil, fmt.Errorf("tool %s: %w", tool.ID, err)
	}
	if err := tool.Validate(); err != nil {
		return nil, err
	}
	return &tool, nil
}
