package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/aihubhq/aihub/internal/domain"
	"github.com/aihubhq/aihub/pkg/logger"
)

// AuthConfig verifies bearer tokens issued by the auth provider
type AuthConfig struct {
	authService domain.AuthService
	logger      logger.Logger
}

func NewAuthMiddleware(authService domain.AuthService, log logger.Logger) *AuthConfig {
	return &AuthConfig{
		authService: authService,
		logger:      log,
	}
}

// RequireAuth rejects requests without a valid bearer token and stores the caller in the context
func (ac *AuthConfig) RequireAuth() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeError(w, "Authorization header is required", http.StatusUnauthorized)
				return
			}

			scheme, token, found := strings.Cut(authHeader, " ")
			if !found || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
				writeError(w, "Invalid authorization header format", http.StatusUnauthorized)
				return
			}

			user, err := ac.authService.VerifyToken(r.Context(), strings.TrimSpace(token))
			if err != nil {
				var unauthorized *domain.ErrUnauthorized
				if errors.As(err, &unauthorized) {
					writeError(w, unauthorized.Message, http.StatusUnauthorized)
					return
				}
				ac.logger.WithField("error", err.Error()).Error("Failed to verify token")
				writeError(w, "Internal server error", http.StatusInternalServerError)
				return
			}

			next.ServeHTTP(w, r.WithContext(domain.WithAuthenticatedUser(r.Context(), user)))
		})
	}
}

func writeError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
