package domain

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

//go:generate mockgen -destination mocks/mock_execution_service.go -package mocks github.com/aihubhq/aihub/internal/domain ExecutionService
//go:generate mockgen -destination mocks/mock_tool_execution_repository.go -package mocks github.com/aihubhq/aihub/internal/domain ToolExecutionRepository
//go:generate mockgen -destination mocks/mock_tool_webhook_client.go -package mocks github.com/aihubhq/aihub/internal/domain ToolWebhookClient

type ExecutionStatus string

const (
	ExecutionStatusPending   ExecutionStatus = "pending"
	ExecutionStatusCompleted ExecutionStatus = "completed"
	ExecutionStatusError     ExecutionStatus = "error"
)

// IsTerminal reports whether no further transition is allowed
func (s ExecutionStatus) IsTerminal() bool {
	return s == ExecutionStatusCompleted || s == ExecutionStatusError
}

// EstimateSampleSize is how many recent executions feed the duration estimate
const EstimateSampleSize = 10

// ToolExecution is one recorded invocation of a tool
type ToolExecution struct {
	ID          string          `json:"id"`
	UserID      string          `json:"user_id"`
	ToolID      string          `json:"tool_id"`
	InputData   MapOfAny        `json:"input_data"`
	OutputData  json.RawMessage `json:"output_data"`
	Status      ExecutionStatus `json:"status"`
	CreditsUsed int             `json:"credits_used"`
	DurationMs  *int64          `json:"duration_ms"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

var ToolExecutionColumns = []string{
	"id", "user_id", "tool_id", "input_data", "output_data", "status",
	"credits_used", "duration_ms", "created_at", "updated_at",
}

func ScanToolExecution(scanner interface {
	Scan(dest ...interface{}) error
}) (*ToolExecution, error) {
	var e ToolExecution
	var output []byte
	var duration sql.NullInt64

	if err := scanner.Scan(
		&e.ID,
		&e.UserID,
		&e.ToolID,
		&e.InputData,
		&output,
		&e.Status,
		&e.CreditsUsed,
		&duration,
		&e.CreatedAt,
		&e.UpdatedAt,
	); err != nil {
		return nil, err
	}

	if len(output) > 0 {
		e.OutputData = json.RawMessage(bytes.Clone(output))
	}
	if duration.Valid {
		d := duration.Int64
		e.DurationMs = &d
	}
	return &e, nil
}

// ErrorOutput is the output_data stored on a failed execution
func ErrorOutput(msg string) json.RawMessage {
	raw, _ := json.Marshal(map[string]string{"error": msg})
	return raw
}

// ExecutionView is an execution with its output classified for rendering
type ExecutionView struct {
	*ToolExecution
	OutputShape OutputShape `json:"output_shape"`
	LeadColumns []string    `json:"lead_columns,omitempty"`
	LeadHeaders []string    `json:"lead_headers,omitempty"`
}

// NewExecutionView classifies the output once
func NewExecutionView(e *ToolExecution) *ExecutionView {
	view := &ExecutionView{ToolExecution: e, OutputShape: ClassifyOutput(e.OutputData)}
	if view.OutputShape == OutputShapeLeadArray {
		if leads, ok := DetectLeads(e.OutputData); ok {
			view.LeadColumns = leads.Columns
			view.LeadHeaders = leads.Headers()
		}
	}
	return view
}

// DurationEstimate is the expected run time of a tool for one user
type DurationEstimate struct {
	ToolID      string   `json:"tool_id"`
	AverageMs   *float64 `json:"average_ms"`
	SampleCount int      `json:"sample_count"`
	Message     string   `json:"message"`
}

// FormatEstimate renders an average duration the way the loading screen shows it
func FormatEstimate(averageMs *float64) string {
	if averageMs == nil {
		return "This may take a few minutes"
	}
	avg := int64(*averageMs)
	minutes := avg / 60000
	seconds := (avg % 60000) / 1000

	switch {
	case minutes > 0 && seconds > 0:
		return fmt.Sprintf("Estimated time: %d %s %d %s", minutes, plural(minutes, "minute"), seconds, plural(seconds, "second"))
	case minutes > 0:
		return fmt.Sprintf("Estimated time: %d %s", minutes, plural(minutes, "minute"))
	case seconds > 0:
		return fmt.Sprintf("Estimated time: %d %s", seconds, plural(seconds, "second"))
	default:
		return "Estimated time: Less than a minute"
	}
}

// FormatElapsed renders a running timer as m:ss
func FormatElapsed(d time.Duration) string {
	total := int64(d / time.Second)
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

func plural(n int64, unit string) string {
	if n > 1 {
		return unit + "s"
	}
	return unit
}

type ExecuteToolRequest struct {
	ToolID string                 `json:"tool_id"`
	Input  map[string]interface{} `json:"input"`
}

func (r *ExecuteToolRequest) Validate() error {
	if r.ToolID == "" {
		return NewValidationError("tool_id is required")
	}
	if r.Input == nil {
		r.Input = map[string]interface{}{}
	}
	return nil
}

type ListExecutionsRequest struct {
	ToolID string `json:"tool_id,omitempty"`
	Limit  int    `json:"limit,omitempty"`
}

func (r *ListExecutionsRequest) Validate() error {
	if r.Limit <= 0 {
		r.Limit = 20
	}
	if r.Limit > 100 {
		r.Limit = 100
	}
	return nil
}

// ExecutionCompletion is everything written when a webhook call succeeds
type ExecutionCompletion struct {
	ExecutionID string
	UserID      string
	ToolID      string
	Input       MapOfAny
	Output      json.RawMessage
	CreditsUsed int
	DurationMs  int64
}

// WebhookRequest is the body posted to a tool webhook
type WebhookRequest struct {
	Input       map[string]interface{}
	UserID      string
	ToolID      string
	ExecutionID string
}

// MarshalJSON flattens the form input next to the identifiers
func (r WebhookRequest) MarshalJSON() ([]byte, error) {
	body := make(map[string]interface{}, len(r.Input)+3)
	for k, v := range r.Input {
		body[k] = v
	}
	body["user_id"] = r.UserID
	body["tool_id"] = r.ToolID
	body["execution_id"] = r.ExecutionID
	return json.Marshal(body)
}

type ExecutionService interface {
	Execute(ctx context.Context, userID string, req *ExecuteToolRequest) (*ExecutionView, error)
	Get(ctx context.Context, userID, executionID string) (*ExecutionView, error)
	List(ctx context.Context, userID string, req *ListExecutionsRequest) ([]*ToolExecution, error)
	Estimate(ctx context.Context, userID, toolID string) (*DurationEstimate, error)
	// FailStale moves executions pending for longer than maxAge to error
	FailStale(ctx context.Context, maxAge time.Duration) (int64, error)
}

type ToolExecutionRepository interface {
	Create(ctx context.Context, execution *ToolExecution) error
	// CompleteAndCharge debits the user, completes the execution, records the transaction
	// and counts the tool use in one transaction. It returns the remaining balance,
	// ErrCreditsExhausted when the balance no longer covers the cost, or
	// ErrExecutionNotPending when the execution already reached a terminal state.
	CompleteAndCharge(ctx context.Context, completion *ExecutionCompletion) (int, error)
	// Fail only applies to pending rows and returns ErrExecutionNotPending otherwise
	Fail(ctx context.Context, id string, output json.RawMessage, durationMs int64) error
	GetByID(ctx context.Context, userID, id string) (*ToolExecution, error)
	List(ctx context.Context, userID, toolID string, limit int) ([]*ToolExecution, error)
	// AverageDuration averages the last sampleSize executions with a duration
	AverageDuration(ctx context.Context, userID, toolID string, sampleSize int) (*float64, int, error)
	FailPendingBefore(ctx context.Context, cutoff time.Time, output json.RawMessage) (int64, error)
}

// ToolWebhookClient calls the execution backend of a tool and returns its JSON response
type ToolWebhookClient interface {
	Call(ctx context.Context, url string, req WebhookRequest) (json.RawMessage, error)
}
