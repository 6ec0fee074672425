package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/aihubhq/aihub/internal/domain"
	"github.com/aihubhq/aihub/pkg/logger"
)

// maxJSONBodySize caps JSON request bodies; file uploads have their own limit
const maxJSONBodySize = 1 << 20

// WriteJSONError writes {"error": message} with the given status code
func WriteJSONError(w http.ResponseWriter, message string, statusCode int) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// decodeJSON reads a JSON body and writes the 400 itself when it cannot
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodySize)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		WriteJSONError(w, "Invalid request body", http.StatusBadRequest)
		return false
	}
	return true
}

func requireMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		WriteJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return false
	}
	return true
}

// currentUser returns the caller set by the auth middleware
func currentUser(w http.ResponseWriter, r *http.Request) (*domain.AuthenticatedUser, bool) {
	user, ok := domain.AuthenticatedUserFromContext(r.Context())
	if !ok {
		WriteJSONError(w, "Unauthorized", http.StatusUnauthorized)
		return nil, false
	}
	return user, true
}

// writeServiceError maps domain errors to status codes. Unknown errors are logged
// and answered with fallback.
func writeServiceError(w http.ResponseWriter, log logger.Logger, err error, fallback string) {
	var (
		validation   domain.ValidationError
		notFound     *domain.ErrNotFound
		insufficient *domain.ErrInsufficientCredits
		rateLimited  *domain.ErrRateLimited
		unauthorized *domain.ErrUnauthorized
		failed       *domain.ErrExecutionFailed
	)

	switch {
	case errors.As(err, &validation):
		WriteJSONError(w, validation.Message, http.StatusBadRequest)
	case errors.As(err, &notFound):
		WriteJSONError(w, fmt.Sprintf("%s not found", notFound.Entity), http.StatusNotFound)
	case errors.As(err, &insufficient):
		writeJSON(w, http.StatusPaymentRequired, map[string]interface{}{
			"error":        "Insufficient credits",
			"checkout_url": insufficient.CheckoutURL,
			"required":     insufficient.Required,
			"available":    insufficient.Available,
		})
	case errors.As(err, &rateLimited):
		w.Header().Set("Retry-After", strconv.Itoa(rateLimited.RetryAfter))
		WriteJSONError(w, rateLimited.Error(), http.StatusTooManyRequests)
	case errors.As(err, &unauthorized):
		WriteJSONError(w, unauthorized.Message, http.StatusUnauthorized)
	case errors.Is(err, domain.ErrWebhookSignature):
		WriteJSONError(w, "Invalid signature", http.StatusBadRequest)
	case errors.As(err, &failed):
		log.WithField("execution_id", failed.ExecutionID).WithField("error", err.Error()).Warn(fallback)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error":        failed.Reason,
			"execution_id": failed.ExecutionID,
		})
	default:
		log.WithField("error", err.Error()).Error(fallback)
		WriteJSONError(w, fallback, http.StatusInternalServerError)
	}
}
