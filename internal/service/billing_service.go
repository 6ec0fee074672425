package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/webhook"

	"github.com/aihubhq/aihub/internal/domain"
	"github.com/aihubhq/aihub/pkg/logger"
	"github.com/aihubhq/aihub/pkg/tracing"
)

const checkoutSessionCompleted = "checkout.session.completed"

// errEventAlreadyProcessed rolls back the checkout transaction of a redelivered event
var errEventAlreadyProcessed = errors.New("payment event already processed")

type BillingServiceConfig struct {
	UserRepository         domain.UserRepository
	SubscriptionRepository domain.SubscriptionRepository
	PaymentLink            string
	WebhookSecret          string
	CreditsPerPurchase     int
	PlanName               string
	Logger                 logger.Logger
}

// BillingService credits users from completed Stripe checkouts
type BillingService struct {
	userRepo      domain.UserRepository
	subRepo       domain.SubscriptionRepository
	paymentLink   string
	webhookSecret string
	credits       int
	planName      string
	logger        logger.Logger
}

func NewBillingService(cfg BillingServiceConfig) *BillingService {
	return &BillingService{
		userRepo:      cfg.UserRepository,
		subRepo:       cfg.SubscriptionRepository,
		paymentLink:   cfg.PaymentLink,
		webhookSecret: cfg.WebhookSecret,
		credits:       cfg.CreditsPerPurchase,
		planName:      cfg.PlanName,
		logger:        cfg.Logger,
	}
}

// CheckoutURL tags the payment link with the user so the webhook can find them
func (s *BillingService) CheckoutURL(userID, email string) (string, error) {
	if s.paymentLink == "" {
		return "", errors.New("payment link is not configured")
	}
	u, err := url.Parse(s.paymentLink)
	if err != nil {
		return "", fmt.Errorf("invalid payment link: %w", err)
	}

	q := u.Query()
	q.Set("client_reference_id", userID)
	if email != "" {
		q.Set("prefilled_email", email)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (s *BillingService) GetCredits(ctx context.Context, userID string) (int, error) {
	credits, err := s.userRepo.GetCredits(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to get credits: %w", err)
	}
	return credits, nil
}

func (s *BillingService) GetSubscription(ctx context.Context, userID string) (*domain.Subscription, error) {
	return s.subRepo.GetByUserID(ctx, userID)
}

func (s *BillingService) HandleWebhook(ctx context.Context, payload []byte, signature string) (*domain.PurchaseResult, error) {
	if s.webhookSecret == "" {
		return nil, fmt.Errorf("%w: webhook secret is not configured", domain.ErrWebhookSignature)
	}

	event, err := webhook.ConstructEventWithOptions(payload, signature, s.webhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		s.logger.WithField("error", err.Error()).Warn("Rejected Stripe webhook")
		return nil, fmt.Errorf("%w: %v", domain.ErrWebhookSignature, err)
	}

	if string(event.Type) != checkoutSessionCompleted {
		s.logger.WithField("event_type", string(event.Type)).Debug("Ignoring Stripe event")
		return nil, nil
	}

	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		return nil, domain.NewValidationError(fmt.Sprintf("invalid checkout session: %v", err))
	}

	checkout := checkoutFromSession(&session)
	checkout.EventID = event.ID
	return s.ApplyCheckout(ctx, checkout)
}

func checkoutFromSession(session *stripe.CheckoutSession) *domain.CheckoutCompletion {
	checkout := &domain.CheckoutCompletion{
		SessionID:         session.ID,
		ClientReferenceID: session.ClientReferenceID,
		CustomerEmail:     session.CustomerEmail,
	}
	if session.CustomerDetails != nil && session.CustomerDetails.Email != "" {
		checkout.CustomerEmail = session.CustomerDetails.Email
	}
	if session.Customer != nil {
		checkout.CustomerID = session.Customer.ID
	}
	if session.Subscription != nil {
		checkout.SubscriptionID = session.Subscription.ID
	}
	return checkout
}

// ApplyCheckout resolves or creates the buyer, adds credits and stores the subscription
// in a single transaction
func (s *BillingService) ApplyCheckout(ctx context.Context, checkout *domain.CheckoutCompletion) (*domain.PurchaseResult, error) {
	return tracing.TraceMethodWithResult(ctx, "BillingService", "ApplyCheckout", func(ctx context.Context) (*domain.PurchaseResult, error) {
		if checkout.ClientReferenceID == "" && checkout.CustomerEmail == "" {
			return nil, domain.NewValidationError("checkout session has no client reference or customer email")
		}

		result := &domain.PurchaseResult{CreditsAdded: s.credits}
		err := s.userRepo.WithTransaction(ctx, func(tx *sql.Tx) error {
			if checkout.EventID != "" {
				first, err := s.subRepo.RecordEventTx(ctx, tx, checkout.EventID, checkoutSessionCompleted)
				if err != nil {
					return err
				}
				if !first {
					return errEventAlreadyProcessed
				}
			}

			user, err := s.resolveUser(ctx, tx, checkout)
			if err != nil {
				return err
			}
			if user == nil {
				user = &domain.User{ID: checkout.ClientReferenceID, Email: checkout.CustomerEmail}
				if err := s.userRepo.CreateTx(ctx, tx, user); err != nil {
					return err
				}
				result.UserCreated = true
			}
			result.UserID = user.ID

			balance, err := s.userRepo.AddCreditsTx(ctx, tx, user.ID, s.credits, checkout.CustomerID)
			if err != nil {
				return err
			}
			result.Balance = balance

			subscriptionID := checkout.SubscriptionID
			if subscriptionID == "" {
				subscriptionID = checkout.SessionID
			}
			return s.subRepo.UpsertTx(ctx, tx, &domain.Subscription{
				UserID:               user.ID,
				StripeSubscriptionID: subscriptionID,
				PlanName:             s.planName,
				CreditsPerMonth:      s.credits,
				Status:               domain.SubscriptionStatusActive,
			})
		})
		if errors.Is(err, errEventAlreadyProcessed) {
			s.logger.WithField("event_id", checkout.EventID).Info("Skipping already processed checkout event")
			return &domain.PurchaseResult{Duplicate: true}, nil
		}
		if err != nil {
			s.logger.WithFields(map[string]interface{}{
				"session_id": checkout.SessionID,
				"user_id":    checkout.ClientReferenceID,
				"error":      err.Error(),
			}).Error("Failed to apply checkout")
			return nil, fmt.Errorf("failed to apply checkout: %w", err)
		}

		s.logger.WithFields(map[string]interface{}{
			"user_id":      result.UserID,
			"user_created": result.UserCreated,
			"credits":      result.CreditsAdded,
			"balance":      result.Balance,
		}).Info("Applied checkout")
		return result, nil
	})
}

// resolveUser looks the buyer up by client reference, then by email. nil means create.
func (s *BillingService) resolveUser(ctx context.Context, tx *sql.Tx, checkout *domain.CheckoutCompletion) (*domain.User, error) {
	var notFound *domain.ErrNotFound

	if checkout.ClientReferenceID != "" {
		user, err := s.userRepo.GetByIDTx(ctx, tx, checkout.ClientReferenceID)
		if err == nil {
			return user, nil
		}
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	if checkout.CustomerEmail != "" {
		user, err := s.userRepo.GetByEmailTx(ctx, tx, checkout.CustomerEmail)
		if err == nil {
			return user, nil
		}
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}
	return nil, nil
}
