package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aihubhq/aihub/internal/domain"
	"github.com/aihubhq/aihub/internal/domain/mocks"
	"github.com/aihubhq/aihub/pkg/cache"
	pkgmocks "github.com/aihubhq/aihub/pkg/mocks"
)

func setupMockLogger(ctrl *gomock.Controller) *pkgmocks.MockLogger {
	mockLogger := pkgmocks.NewMockLogger(ctrl)
	mockLogger.EXPECT().WithField(gomock.Any(), gomock.Any()).Return(mockLogger).AnyTimes()
	mockLogger.EXPECT().WithFields(gomock.Any()).Return(mockLogger).AnyTimes()
	mockLogger.EXPECT().Info(gomock.Any()).AnyTimes()
	mockLogger.EXPECT().Warn(gomock.Any()).AnyTimes()
	mockLogger.EXPECT().Error(gomock.Any()).AnyTimes()
	mockLogger.EXPECT().Debug(gomock.Any()).AnyTimes()
	return mockLogger
}

var testJWTSecret = []byte("test-secret-test-secret-test-secret")

func newTestAuthService(t *testing.T, ctrl *gomock.Controller, issuer string) (*AuthService, *mocks.MockUserRepository) {
	userRepo := mocks.NewMockUserRepository(ctrl)
	c := cache.NewInMemoryCache(time.Minute)
	t.Cleanup(c.Stop)

	svc, err := NewAuthService(AuthServiceConfig{
		UserRepository: userRepo,
		JWTSecret:      testJWTSecret,
		JWTIssuer:      issuer,
		Cache:          c,
		Logger:         setupMockLogger(ctrl),
	})
	require.NoError(t, err)
	return svc, userRepo
}

func TestNewAuthService_RequiresSecret(t *testing.T) {
	_, err := NewAuthService(AuthServiceConfig{})
	assert.Error(t, err)
}

func TestAuthService_VerifyToken(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, userRepo := newTestAuthService(t, ctrl, "")
	ctx := context.Background()

	t.Run("valid token ensures the user once", func(t *testing.T) {
		token, err := svc.GenerateToken("user-1", "ann@acme.com", time.Hour)
		require.NoError(t, err)

		userRepo.EXPECT().EnsureUser(ctx, "user-1", "ann@acme.com").Return(nil).Times(1)

		user, err := svc.VerifyToken(ctx, token)
		require.NoError(t, err)
		assert.Equal(t, "user-1", user.ID)
		assert.Equal(t, "ann@acme.com", user.Email)

		// second call is served from the known-user cache
		_, err = svc.VerifyToken(ctx, token)
		require.NoError(t, err)
	})

	t.Run("missing token", func(t *testing.T) {
		_, err := svc.VerifyToken(ctx, " ")
		var unauthorized *domain.ErrUnauthorized
		assert.True(t, errors.As(err, &unauthorized))
	})

	t.Run("expired token", func(t *testing.T) {
		token, err := svc.GenerateToken("user-1", "", -time.Minute)
		require.NoError(t, err)

		_, err = svc.VerifyToken(ctx, token)
		var unauthorized *domain.ErrUnauthorized
		assert.True(t, errors.As(err, &unauthorized))
	})

	t.Run("wrong secret", func(t *testing.T) {
		claims := TokenClaims{RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		}}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("other"))
		require.NoError(t, err)

		_, err = svc.VerifyToken(ctx, token)
		var unauthorized *domain.ErrUnauthorized
		assert.True(t, errors.As(err, &unauthorized))
	})

	t.Run("no subject", func(t *testing.T) {
		token, err := svc.GenerateToken("", "ann@acme.com", time.Hour)
		require.NoError(t, err)

		_, err = svc.VerifyToken(ctx, token)
		var unauthorized *domain.ErrUnauthorized
		assert.True(t, errors.As(err, &unauthorized))
	})

	t.Run("repository failure", func(t *testing.T) {
		token, err := svc.GenerateToken("user-2", "", time.Hour)
		require.NoError(t, err)

		userRepo.EXPECT().EnsureUser(ctx, "user-2", "").Return(errors.New("db down"))

		_, err = svc.VerifyToken(ctx, token)
		assert.ErrorContains(t, err, "failed to ensure user")
	})
}

func TestAuthService_VerifyTokenIssuer(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, userRepo := newTestAuthService(t, ctrl, "https://auth.aihub.test")
	other, _ := newTestAuthService(t, ctrl, "https://elsewhere.test")
	ctx := context.Background()

	token, err := svc.GenerateToken("user-1", "", time.Hour)
	require.NoError(t, err)
	userRepo.EXPECT().EnsureUser(ctx, "user-1", "").Return(nil)
	_, err = svc.VerifyToken(ctx, token)
	require.NoError(t, err)

	foreign, err := other.GenerateToken("user-1", "", time.Hour)
	require.NoError(t, err)
	_, err = svc.VerifyToken(ctx, foreign)
	var unauthorized *domain.ErrUnauthorized
	assert.True(t, errors.As(err, &unauthorized))
}
