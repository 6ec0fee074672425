package domain

import (
	"context"
	"database/sql"
	"time"
)

//go:generate mockgen -destination mocks/mock_subscription_repository.go -package mocks github.com/aihubhq/aihub/internal/domain SubscriptionRepository
//go:generate mockgen -destination mocks/mock_billing_service.go -package mocks github.com/aihubhq/aihub/internal/domain BillingService

const SubscriptionStatusActive = "active"

// Subscription is keyed by user; a new purchase overwrites it
type Subscription struct {
	ID                   string    `json:"id"`
	UserID               string    `json:"user_id"`
	StripeSubscriptionID string    `json:"stripe_subscription_id"`
	PlanName             string    `json:"plan_name"`
	CreditsPerMonth      int       `json:"credits_per_month"`
	Status               string    `json:"status"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

var SubscriptionColumns = []string{
	"id", "user_id", "stripe_subscription_id", "plan_name", "credits_per_month", "status", "created_at", "updated_at",
}

func ScanSubscription(scanner interface {
	Scan(dest ...interface{}) error
}) (*Subscription, error) {
	var s Subscription
	if err := scanner.Scan(
		&s.ID,
		&s.UserID,
		&s.StripeSubscriptionID,
		&s.PlanName,
		&s.CreditsPerMonth,
		&s.Status,
		&s.CreatedAt,
		&s.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &s, nil
}

// CheckoutCompletion is the part of a completed checkout session needed to credit a user
type CheckoutCompletion struct {
	// EventID is the Stripe event that carried the session; a repeated id is applied once
	EventID           string
	SessionID         string
	ClientReferenceID string
	CustomerEmail     string
	CustomerID        string
	SubscriptionID    string
}

// PurchaseResult is what a processed payment event changed
type PurchaseResult struct {
	UserID       string `json:"user_id"`
	UserCreated  bool   `json:"user_created"`
	CreditsAdded int    `json:"credits_added"`
	Balance      int    `json:"balance"`
	// Duplicate is set when the event was already processed and nothing changed
	Duplicate bool `json:"duplicate,omitempty"`
}

type CheckoutLink struct {
	CheckoutURL string `json:"checkout_url"`
}

type BillingService interface {
	// CheckoutURL builds the hosted payment link for a user
	CheckoutURL(userID, email string) (string, error)
	GetCredits(ctx context.Context, userID string) (int, error)
	GetSubscription(ctx context.Context, userID string) (*Subscription, error)
	// HandleWebhook verifies and processes a payment event; nil result means the event was ignored
	HandleWebhook(ctx context.Context, payload []byte, signature string) (*PurchaseResult, error)
	ApplyCheckout(ctx context.Context, checkout *CheckoutCompletion) (*PurchaseResult, error)
}

type SubscriptionRepository interface {
	GetByUserID(ctx context.Context, userID string) (*Subscription, error)
	UpsertTx(ctx context.Context, tx *sql.Tx, sub *Subscription) error
	// RecordEventTx stores a processed payment event id; false means it was already stored
	RecordEventTx(ctx context.Context, tx *sql.Tx, eventID, eventType string) (bool, error)
}
