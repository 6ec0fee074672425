package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/aihubhq/aihub/internal/domain"
	"github.com/aihubhq/aihub/pkg/cache"
	"github.com/aihubhq/aihub/pkg/logger"
)

// knownUserTTL bounds how long a verified identity skips the EnsureUser upsert
const knownUserTTL = 10 * time.Minute

// TokenClaims are the claims issued by the auth provider. The subject is the user id.
type TokenClaims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

type AuthService struct {
	userRepo domain.UserRepository
	secret   []byte
	issuer   string
	cache    cache.Cache
	logger   logger.Logger
}

type AuthServiceConfig struct {
	UserRepository domain.UserRepository
	JWTSecret      []byte
	JWTIssuer      string
	Cache          cache.Cache
	Logger         logger.Logger
}

func NewAuthService(cfg AuthServiceConfig) (*AuthService, error) {
	if len(cfg.JWTSecret) == 0 {
		return nil, errors.New("jwt secret is required")
	}
	return &AuthService{
		userRepo: cfg.UserRepository,
		secret:   cfg.JWTSecret,
		issuer:   cfg.JWTIssuer,
		cache:    cfg.Cache,
		logger:   cfg.Logger,
	}, nil
}

// VerifyToken checks the bearer token and makes sure the user row exists
func (s *AuthService) VerifyToken(ctx context.Context, token string) (*domain.AuthenticatedUser, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, &domain.ErrUnauthorized{Message: "missing bearer token"}
	}

	claims := &TokenClaims{}
	opts := []jwt.ParserOption{jwt.WithExpirationRequired()}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}

	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	}, opts...)
	if err != nil || !parsed.Valid {
		s.logger.WithField("error", fmt.Sprint(err)).Debug("Rejected bearer token")
		return nil, &domain.ErrUnauthorized{Message: "invalid or expired token"}
	}
	if claims.Subject == "" {
		return nil, &domain.ErrUnauthorized{Message: "token has no subject"}
	}

	user := &domain.AuthenticatedUser{ID: claims.Subject, Email: claims.Email}
	if err := s.ensureUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *AuthService) ensureUser(ctx context.Context, user *domain.AuthenticatedUser) error {
	key := "user:known:" + user.ID
	if s.cache != nil {
		if _, ok := s.cache.Get(key); ok {
			return nil
		}
	}

	if err := s.userRepo.EnsureUser(ctx, user.ID, user.Email); err != nil {
		s.logger.WithField("user_id", user.ID).WithField("error", err.Error()).Error("Failed to ensure user")
		return fmt.Errorf("failed to ensure user: %w", err)
	}

	if s.cache != nil {
		s.cache.Set(key, true, knownUserTTL)
	}
	return nil
}

// GenerateToken signs a token the way the auth provider does. Used by the dev token minter and tests.
func (s *AuthService) GenerateToken(userID, email string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := TokenClaims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}
