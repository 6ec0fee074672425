package http

import (
	"io"
	"net/http"

	"github.com/aihubhq/aihub/internal/domain"
	"github.com/aihubhq/aihub/pkg/logger"
)

// maxWebhookPayloadSize matches the limit Stripe documents for event payloads
const maxWebhookPayloadSize = 64 << 10

type BillingHandler struct {
	service domain.BillingService
	logger  logger.Logger
}

func NewBillingHandler(service domain.BillingService, logger logger.Logger) *BillingHandler {
	return &BillingHandler{
		service: service,
		logger:  logger,
	}
}

// RegisterRoutes registers the authenticated billing routes
func (h *BillingHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/credits.get", h.handleCredits)
	mux.HandleFunc("/api/billing.checkout", h.handleCheckout)
	mux.HandleFunc("/api/billing.subscription", h.handleSubscription)
}

// RegisterPublicRoutes registers the Stripe webhook, which is authenticated by its signature
func (h *BillingHandler) RegisterPublicRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/webhooks/stripe", h.handleStripeWebhook)
}

func (h *BillingHandler) handleCredits(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	credits, err := h.service.GetCredits(r.Context(), user.ID)
	if err != nil {
		writeServiceError(w, h.logger, err, "Failed to get credits")
		return
	}
	writeJSON(w, http.StatusOK, domain.CreditsResponse{Credits: credits})
}

func (h *BillingHandler) handleCheckout(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	link, err := h.service.CheckoutURL(user.ID, user.Email)
	if err != nil {
		writeServiceError(w, h.logger, err, "Failed to create checkout link")
		return
	}
	writeJSON(w, http.StatusOK, domain.CheckoutLink{CheckoutURL: link})
}

func (h *BillingHandler) handleSubscription(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	sub, err := h.service.GetSubscription(r.Context(), user.ID)
	if err != nil {
		writeServiceError(w, h.logger, err, "Failed to get subscription")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"subscription": sub,
	})
}

func (h *BillingHandler) handleStripeWebhook(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookPayloadSize))
	if err != nil {
		WriteJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	result, err := h.service.HandleWebhook(r.Context(), payload, r.Header.Get("Stripe-Signature"))
	if err != nil {
		writeServiceError(w, h.logger, err, "Failed to process webhook")
		return
	}

	if result != nil && !result.Duplicate {
		h.logger.WithField("user_id", result.UserID).WithField("balance", result.Balance).Info("Processed Stripe checkout")
	}
	writeJSON(w, http.StatusOK, map[string]bool{"received": true})
}
