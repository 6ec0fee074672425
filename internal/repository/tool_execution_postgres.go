package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"go.opencensus.io/trace"

	"github.com/aihubhq/aihub/internal/domain"
	"github.com/aihubhq/aihub/pkg/tracing"
)

type toolExecutionRepository struct {
	db *sql.DB
}

// NewToolExecutionRepository creates a new PostgreSQL execution repository
func NewToolExecutionRepository(db *sql.DB) domain.ToolExecutionRepository {
	return &toolExecutionRepository{db: db}
}

// jsonArg keeps an absent output NULL instead of an empty, invalid jsonb value
func jsonArg(raw json.RawMessage) interface{} {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}

func (r *toolExecutionRepository) Create(ctx context.Context, execution *domain.ToolExecution) error {
	if execution.ID == "" {
		execution.ID = uuid.New().String()
	}
	if execution.Status == "" {
		execution.Status = domain.ExecutionStatusPending
	}

	query, args, err := psql.
		Insert("tool_executions").
		Columns("id", "user_id", "tool_id", "input_data", "status", "credits_used").
		Values(execution.ID, execution.UserID, execution.ToolID, execution.InputData, execution.Status, execution.CreditsUsed).
		Suffix("RETURNING created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build query: %w", err)
	}

	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&execution.CreatedAt, &execution.UpdatedAt); err != nil {
		return fmt.Errorf("failed to create execution: %w", err)
	}
	return nil
}

// CompleteAndCharge applies the terminal transition first so a reaped execution is never charged
func (r *toolExecutionRepository) CompleteAndCharge(ctx context.Context, c *domain.ExecutionCompletion) (int, error) {
	ctx, span := tracing.StartServiceSpan(ctx, "ToolExecutionRepository", "CompleteAndCharge")
	defer span.End()
	span.AddAttributes(
		trace.StringAttribute("execution.id", c.ExecutionID),
		trace.Int64Attribute("execution.credits", int64(c.CreditsUsed)),
	)

	var balance int
	err := runInTx(ctx, r.db, func(tx *sql.Tx) error {
		query, args, err := psql.
			Update("tool_executions").
			Set("status", domain.ExecutionStatusCompleted).
			Set("output_data", jsonArg(c.Output)).
			Set("credits_used", c.CreditsUsed).
			Set("duration_ms", c.DurationMs).
			Set("updated_at", sq.Expr("NOW()")).
			Where(sq.Eq{"id": c.ExecutionID, "user_id": c.UserID, "status": domain.ExecutionStatusPending}).
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build query: %w", err)
		}
		result, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("failed to complete execution: %w", err)
		}
		if affected, err := result.RowsAffected(); err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		} else if affected == 0 {
			return domain.ErrExecutionNotPending
		}

		query, args, err = psql.
			Update("users").
			Set("credits", sq.Expr("credits - ?", c.CreditsUsed)).
			Set("updated_at", sq.Expr("NOW()")).
			Where(sq.Eq{"id": c.UserID}).
			Where(sq.GtOrEq{"credits": c.CreditsUsed}).
			Suffix("RETURNING credits").
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build query: %w", err)
		}
		err = tx.QueryRowContext(ctx, query, args...).Scan(&balance)
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrCreditsExhausted
		}
		if err != nil {
			return fmt.Errorf("failed to debit credits: %w", err)
		}

		query, args, err = psql.
			Insert("transactions").
			Columns("id", "user_id", "tool_id", "credits_used", "input_data", "output_data").
			Values(uuid.New().String(), c.UserID, c.ToolID, c.CreditsUsed, c.Input, jsonArg(c.Output)).
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("failed to record transaction: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `UPDATE tools SET total_uses = total_uses + 1 WHERE id = $1`, c.ToolID); err != nil {
			return fmt.Errorf("failed to count tool use: %w", err)
		}
		return nil
	})
	if err != nil {
		tracing.MarkSpanError(ctx, err)
		return 0, err
	}
	return balance, nil
}

func (r *toolExecutionRepository) Fail(ctx context.Context, id string, output json.RawMessage, durationMs int64) error {
	query, args, err := psql.
		Update("tool_executions").
		Set("status", domain.ExecutionStatusError).
		Set("output_data", jsonArg(output)).
		Set("duration_ms", durationMs).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": id, "status": domain.ExecutionStatusPending}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build query: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to mark execution as failed: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return domain.ErrExecutionNotPending
	}
	return nil
}

func (r *toolExecutionRepository) GetByID(ctx context.Context, userID, id string) (*domain.ToolExecution, error) {
	query, args, err := psql.
		Select(domain.ToolExecutionColumns...).
		From("tool_executions").
		Where(sq.Eq{"id": id, "user_id": userID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	execution, err := domain.ScanToolExecution(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &domain.ErrNotFound{Entity: "execution", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get execution: %w", err)
	}
	return execution, nil
}

func (r *toolExecutionRepository) List(ctx context.Context, userID, toolID string, limit int) ([]*domain.ToolExecution, error) {
	builder := psql.
		Select(domain.ToolExecutionColumns...).
		From("tool_executions").
		Where(sq.Eq{"user_id": userID}).
		OrderBy("created_at DESC").
		Limit(uint64(limit))
	if toolID != "" {
		builder = builder.Where(sq.Eq{"tool_id": toolID})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list executions: %w", err)
	}
	defer rows.Close()

	executions := []*domain.ToolExecution{}
	for rows.Next() {
		e, err := domain.ScanToolExecution(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan execution: %w", err)
		}
		executions = append(executions, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return executions, nil
}

const averageDurationQuery = `
	SELECT AVG(duration_ms), COUNT(*)
	FROM (
		SELECT duration_ms
		FROM tool_executions
		WHERE user_id = $1 AND tool_id = $2 AND duration_ms IS NOT NULL
		ORDER BY created_at DESC
		LIMIT $3
	) recent
`

func (r *toolExecutionRepository) AverageDuration(ctx context.Context, userID, toolID string, sampleSize int) (*float64, int, error) {
	var avg sql.NullFloat64
	var count int
	if err := r.db.QueryRowContext(ctx, averageDurationQuery, userID, toolID, sampleSize).Scan(&avg, &count); err != nil {
		return nil, 0, fmt.Errorf("failed to average execution duration: %w", err)
	}
	if !avg.Valid {
		return nil, count, nil
	}
	v := avg.Float64
	return &v, count, nil
}

func (r *toolExecutionRepository) FailPendingBefore(ctx context.Context, cutoff time.Time, output json.RawMessage) (int64, error) {
	query, args, err := psql.
		Update("tool_executions").
		Set("status", domain.ExecutionStatusError).
		Set("output_data", jsonArg(output)).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"status": domain.ExecutionStatusPending}).
		Where(sq.Lt{"created_at": cutoff.UTC()}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build query: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to fail stale executions: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return affected, nil
}
