package http

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"

	"github.com/aihubhq/aihub/internal/domain"
	"github.com/aihubhq/aihub/internal/domain/mocks"
)

func setupBillingHandler(t *testing.T) (*mocks.MockBillingService, *http.ServeMux) {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	service := mocks.NewMockBillingService(ctrl)
	handler := NewBillingHandler(service, setupMockLogger(ctrl))
	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)
	handler.RegisterPublicRoutes(mux)
	return service, mux
}

func TestBillingHandler_Credits(t *testing.T) {
	service, mux := setupBillingHandler(t)

	service.EXPECT().GetCredits(gomock.Any(), testUserID).Return(75, nil)

	w := serve(mux, authedRequest(http.MethodGet, "/api/credits.get", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"credits":75}`, w.Body.String())
}

func TestBillingHandler_Checkout(t *testing.T) {
	service, mux := setupBillingHandler(t)

	service.EXPECT().CheckoutURL(testUserID, "ann@example.com").Return("https://buy.stripe.com/x?client_reference_id=user-1", nil)

	w := serve(mux, authedRequest(http.MethodPost, "/api/billing.checkout", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"checkout_url":"https://buy.stripe.com/x?client_reference_id=user-1"}`, w.Body.String())
}

func TestBillingHandler_Subscription(t *testing.T) {
	service, mux := setupBillingHandler(t)

	service.EXPECT().GetSubscription(gomock.Any(), testUserID).Return(&domain.Subscription{PlanName: "$20/month Plan", Status: "active"}, nil)
	w := serve(mux, authedRequest(http.MethodGet, "/api/billing.subscription", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "$20/month Plan")

	service.EXPECT().GetSubscription(gomock.Any(), testUserID).Return(nil, &domain.ErrNotFound{Entity: "subscription", ID: testUserID})
	w = serve(mux, authedRequest(http.MethodGet, "/api/billing.subscription", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestBillingHandler_StripeWebhook(t *testing.T) {
	payload := `{"id":"evt_1","type":"checkout.session.completed"}`

	t.Run("processed", func(t *testing.T) {
		service, mux := setupBillingHandler(t)

		service.EXPECT().HandleWebhook(gomock.Any(), []byte(payload), "t=1,v1=abc").
			Return(&domain.PurchaseResult{UserID: testUserID, CreditsAdded: 100, Balance: 100}, nil)

		req := httptest.NewRequest(http.MethodPost, "/webhooks/stripe", strings.NewReader(payload))
		req.Header.Set("Stripe-Signature", "t=1,v1=abc")
		w := serve(mux, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"received":true}`, w.Body.String())
	})

	t.Run("ignored event", func(t *testing.T) {
		service, mux := setupBillingHandler(t)

		service.EXPECT().HandleWebhook(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, nil)

		w := serve(mux, httptest.NewRequest(http.MethodPost, "/webhooks/stripe", strings.NewReader(payload)))
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("redelivered event is acknowledged", func(t *testing.T) {
		service, mux := setupBillingHandler(t)

		service.EXPECT().HandleWebhook(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(&domain.PurchaseResult{Duplicate: true}, nil)

		w := serve(mux, httptest.NewRequest(http.MethodPost, "/webhooks/stripe", strings.NewReader(payload)))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"received":true}`, w.Body.String())
	})

	t.Run("bad signature", func(t *testing.T) {
		service, mux := setupBillingHandler(t)

		service.EXPECT().HandleWebhook(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(nil, fmt.Errorf("%w: no valid signature", domain.ErrWebhookSignature))

		w := serve(mux, httptest.NewRequest(http.MethodPost, "/webhooks/stripe", strings.NewReader(payload)))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("missing email and reference", func(t *testing.T) {
		service, mux := setupBillingHandler(t)

		service.EXPECT().HandleWebhook(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(nil, domain.NewValidationError("checkout session has no client reference or customer email"))

		w := serve(mux, httptest.NewRequest(http.MethodPost, "/webhooks/stripe", strings.NewReader(payload)))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("storage failure asks stripe to retry", func(t *testing.T) {
		service, mux := setupBillingHandler(t)

		service.EXPECT().HandleWebhook(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, errors.New("db down"))

		w := serve(mux, httptest.NewRequest(http.MethodPost, "/webhooks/stripe", strings.NewReader(payload)))
		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}
