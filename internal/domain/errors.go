package domain

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when an entity does not exist or is not owned by the caller
type ErrNotFound struct {
	Entity string
	ID     string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found with ID: %s", e.Entity, e.ID)
}

// ValidationError represents an error that occurs due to invalid input or parameters
type ValidationError struct {
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s", e.Message)
}

// NewValidationError creates a new validation error with the given message
func NewValidationError(message string) error {
	return ValidationError{
		Message: message,
	}
}

// ErrInsufficientCredits is returned before an execution is attempted.
// CheckoutURL points to the hosted payment page for the user.
type ErrInsufficientCredits struct {
	Required    int
	Available   int
	CheckoutURL string
}

func (e *ErrInsufficientCredits) Error() string {
	return fmt.Sprintf("insufficient credits: %d required, %d available", e.Required, e.Available)
}

// ErrExecutionFailed wraps a failure that moved an execution to the error state
type ErrExecutionFailed struct {
	ExecutionID string
	Reason      string
	Err         error
}

func (e *ErrExecutionFailed) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("execution failed [%s]: %s - %v", e.ExecutionID, e.Reason, e.Err)
	}
	return fmt.Sprintf("execution failed [%s]: %s", e.ExecutionID, e.Reason)
}

func (e *ErrExecutionFailed) Unwrap() error {
	return e.Err
}

// ErrUnauthorized is returned when a bearer token cannot be verified
type ErrUnauthorized struct {
	Message string
}

func (e *ErrUnauthorized) Error() string {
	return e.Message
}

// ErrRateLimited is returned when a caller exceeds its execution quota
type ErrRateLimited struct {
	RetryAfter int
}

func (e *ErrRateLimited) Error() string {
	return fmt.Sprintf("too many requests, retry in %d seconds", e.RetryAfter)
}

var (
	// ErrCreditsExhausted is returned by the conditional debit when the balance no longer covers the cost
	ErrCreditsExhausted = errors.New("credit balance does not cover the cost")

	// ErrExecutionNotPending is returned when a terminal transition targets an execution that already left pending
	ErrExecutionNotPending = errors.New("execution is no longer pending")

	// ErrWebhookSignature is returned when a payment webhook signature cannot be verified
	ErrWebhookSignature = errors.New("invalid webhook signature")
)
