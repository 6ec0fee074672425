package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/aihubhq/aihub/internal/domain"
	"github.com/aihubhq/aihub/pkg/logger"
	"github.com/aihubhq/aihub/pkg/ratelimiter"
	"github.com/aihubhq/aihub/pkg/tracing"
)

// ExecuteRateLimitNamespace is the rate limiter namespace for tool executions
const ExecuteRateLimitNamespace = "executions.execute"

// ExecutionService runs tools and owns the pending -> completed | error lifecycle.
// Credits are only debited for completed executions.
type ExecutionService struct {
	execRepo domain.ToolExecutionRepository
	userRepo domain.UserRepository
	tools    domain.ToolService
	webhooks domain.ToolWebhookClient
	billing  domain.BillingService
	limiter  *ratelimiter.RateLimiter
	logger   logger.Logger
	now      func() time.Time
}

type ExecutionServiceConfig struct {
	ExecutionRepository domain.ToolExecutionRepository
	UserRepository      domain.UserRepository
	ToolService         domain.ToolService
	WebhookClient       domain.ToolWebhookClient
	BillingService      domain.BillingService
	// RateLimiter is optional; it must have a policy for ExecuteRateLimitNamespace
	RateLimiter *ratelimiter.RateLimiter
	Logger      logger.Logger
}

func NewExecutionService(cfg ExecutionServiceConfig) *ExecutionService {
	return &ExecutionService{
		execRepo: cfg.ExecutionRepository,
		userRepo: cfg.UserRepository,
		tools:    cfg.ToolService,
		webhooks: cfg.WebhookClient,
		billing:  cfg.BillingService,
		limiter:  cfg.RateLimiter,
		logger:   cfg.Logger,
		now:      time.Now,
	}
}

func (s *ExecutionService) Execute(ctx context.Context, userID string, req *domain.ExecuteToolRequest) (*domain.ExecutionView, error) {
	ctx, span := tracing.StartServiceSpan(ctx, "ExecutionService", "Execute")
	defer span.End()

	if err := req.Validate(); err != nil {
		return nil, err
	}
	tracing.AddAttribute(ctx, "tool_id", req.ToolID)

	if s.limiter != nil && !s.limiter.Allow(ExecuteRateLimitNamespace, userID) {
		return nil, &domain.ErrRateLimited{RetryAfter: s.limiter.RetryAfter(ExecuteRateLimitNamespace, userID)}
	}

	tool, err := s.tools.Get(ctx, req.ToolID)
	if err != nil {
		return nil, err
	}

	input, err := tool.ValidateInput(req.Input)
	if err != nil {
		return nil, err
	}
	if tool.ExecutionType != domain.ExecutionTypeWebhook || tool.WebhookLink == "" {
		return nil, domain.NewValidationError(fmt.Sprintf("%s cannot be executed", tool.Name))
	}

	if err := s.checkBalance(ctx, userID, tool); err != nil {
		return nil, err
	}

	execution := &domain.ToolExecution{
		ID:        uuid.New().String(),
		UserID:    userID,
		ToolID:    tool.ID,
		InputData: domain.MapOfAny(input),
		Status:    domain.ExecutionStatusPending,
	}
	if err := s.execRepo.Create(ctx, execution); err != nil {
		s.logger.WithField("user_id", userID).WithField("tool_id", tool.ID).WithField("error", err.Error()).Error("Failed to create execution")
		return nil, fmt.Errorf("failed to create execution: %w", err)
	}

	log := s.logger.WithFields(map[string]interface{}{
		"user_id":      userID,
		"tool_id":      tool.ID,
		"execution_id": execution.ID,
	})
	log.Info("Executing tool")

	started := s.now()
	output, err := s.webhooks.Call(ctx, tool.WebhookLink, domain.WebhookRequest{
		Input:       input,
		UserID:      userID,
		ToolID:      tool.ID,
		ExecutionID: execution.ID,
	})
	durationMs := s.now().Sub(started).Milliseconds()

	if err != nil {
		log.WithField("error", err.Error()).Warn("Tool webhook failed")
		return nil, s.fail(ctx, execution, err.Error(), durationMs, err)
	}

	balance, err := s.execRepo.CompleteAndCharge(ctx, &domain.ExecutionCompletion{
		ExecutionID: execution.ID,
		UserID:      userID,
		ToolID:      tool.ID,
		Input:       execution.InputData,
		Output:      output,
		CreditsUsed: tool.CreditCost,
		DurationMs:  durationMs,
	})
	switch {
	case errors.Is(err, domain.ErrCreditsExhausted):
		// a concurrent execution spent the balance while the webhook was running
		log.Warn("Credits exhausted before completion")
		return nil, s.fail(ctx, execution, "Insufficient credits", durationMs, err)
	case errors.Is(err, domain.ErrExecutionNotPending):
		log.Warn("Execution left pending before completion")
		tracing.RecordExecution(ctx, tool.ID, string(domain.ExecutionStatusError), durationMs)
		return nil, &domain.ErrExecutionFailed{ExecutionID: execution.ID, Reason: "Execution timed out", Err: err}
	case err != nil:
		log.WithField("error", err.Error()).Error("Failed to complete execution")
		return nil, s.fail(ctx, execution, "Failed to save the result", durationMs, err)
	}

	execution.Status = domain.ExecutionStatusCompleted
	execution.OutputData = output
	execution.CreditsUsed = tool.CreditCost
	execution.DurationMs = &durationMs
	execution.UpdatedAt = s.now().UTC()

	tracing.RecordExecution(ctx, tool.ID, string(domain.ExecutionStatusCompleted), durationMs)
	log.WithField("duration_ms", durationMs).WithField("balance", balance).Info("Tool execution completed")

	return domain.NewExecutionView(execution), nil
}

// checkBalance reads the live balance. The debit itself is guarded again at completion.
func (s *ExecutionService) checkBalance(ctx context.Context, userID string, tool *domain.Tool) error {
	available, err := s.userRepo.GetCredits(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to get credits: %w", err)
	}
	if available >= tool.CreditCost {
		return nil
	}

	email := ""
	if user, ok := domain.AuthenticatedUserFromContext(ctx); ok {
		email = user.Email
	}
	checkoutURL, err := s.billing.CheckoutURL(userID, email)
	if err != nil {
		s.logger.WithField("user_id", userID).WithField("error", err.Error()).Warn("Failed to build checkout URL")
	}

	return &domain.ErrInsufficientCredits{
		Required:    tool.CreditCost,
		Available:   available,
		CheckoutURL: checkoutURL,
	}
}

// fail records the error state even when the request context is already cancelled
func (s *ExecutionService) fail(ctx context.Context, execution *domain.ToolExecution, reason string, durationMs int64, cause error) error {
	tracing.MarkSpanError(ctx, cause)
	tracing.RecordExecution(ctx, execution.ToolID, string(domain.ExecutionStatusError), durationMs)

	if err := s.execRepo.Fail(context.WithoutCancel(ctx), execution.ID, domain.ErrorOutput(reason), durationMs); err != nil && !errors.Is(err, domain.ErrExecutionNotPending) {
		s.logger.WithField("execution_id", execution.ID).WithField("error", err.Error()).Error("Failed to mark execution as failed")
	}

	return &domain.ErrExecutionFailed{ExecutionID: execution.ID, Reason: reason, Err: cause}
}

func (s *ExecutionService) Get(ctx context.Context, userID, executionID string) (*domain.ExecutionView, error) {
	if executionID == "" {
		return nil, domain.NewValidationError("id is required")
	}
	execution, err := s.execRepo.GetByID(ctx, userID, executionID)
	if err != nil {
		return nil, err
	}
	return domain.NewExecutionView(execution), nil
}

func (s *ExecutionService) List(ctx context.Context, userID string, req *domain.ListExecutionsRequest) ([]*domain.ToolExecution, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	executions, err := s.execRepo.List(ctx, userID, req.ToolID, req.Limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list executions: %w", err)
	}
	return executions, nil
}

// Estimate averages the user's most recent timed executions of a tool
func (s *ExecutionService) Estimate(ctx context.Context, userID, toolID string) (*domain.DurationEstimate, error) {
	if toolID == "" {
		return nil, domain.NewValidationError("tool_id is required")
	}

	average, samples, err := s.execRepo.AverageDuration(ctx, userID, toolID, domain.EstimateSampleSize)
	if err != nil {
		return nil, fmt.Errorf("failed to estimate duration: %w", err)
	}

	return &domain.DurationEstimate{
		ToolID:      toolID,
		AverageMs:   average,
		SampleCount: samples,
		Message:     domain.FormatEstimate(average),
	}, nil
}

// FailStale moves executions pending for longer than maxAge to the error state
func (s *ExecutionService) FailStale(ctx context.Context, maxAge time.Duration) (int64, error) {
	cutoff := s.now().Add(-maxAge)
	n, err := s.execRepo.FailPendingBefore(ctx, cutoff, domain.ErrorOutput("Execution timed out"))
	if err != nil {
		return 0, fmt.Errorf("failed to fail stale executions: %w", err)
	}
	if n > 0 {
		s.logger.WithField("count", n).WithField("cutoff", cutoff.UTC().Format(time.RFC3339)).Warn("Marked stale executions as failed")
	}
	return n, nil
}
