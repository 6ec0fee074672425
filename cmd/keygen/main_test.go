package main

import (
	"bytes"
	"encoding/hex"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aihubhq/aihub/config"
	"github.com/aihubhq/aihub/internal/service"
)

func withConfig(t *testing.T, cfg *config.Config) {
	t.Helper()
	original := loadConfig
	loadConfig = func() (*config.Config, error) { return cfg, nil }
	t.Cleanup(func() { loadConfig = original })
}

func TestRun_Secret(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, run([]string{"secret"}, &out))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "JWT_SECRET")

	raw, err := hex.DecodeString(lines[1])
	require.NoError(t, err)
	assert.Len(t, raw, secretBytes)
}

func TestRun_Token(t *testing.T) {
	secret := []byte("dev-secret-for-keygen-tests-0001")
	withConfig(t, &config.Config{Security: config.SecurityConfig{JWTSecret: secret, JWTIssuer: "aihub-dev"}})

	var out bytes.Buffer
	require.NoError(t, run([]string{"token", "-user", "user-1", "-email", "ann@example.com", "-ttl", "1h"}, &out))

	claims := &service.TokenClaims{}
	_, err := jwt.ParseWithClaims(strings.TrimSpace(out.String()), claims, func(*jwt.Token) (interface{}, error) {
		return secret, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, "ann@example.com", claims.Email)
	assert.Equal(t, "aihub-dev", claims.Issuer)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, time.Minute)
}

func TestRun_Errors(t *testing.T) {
	withConfig(t, &config.Config{Security: config.SecurityConfig{JWTSecret: []byte("x")}})

	var out bytes.Buffer
	assert.Error(t, run(nil, &out))
	assert.ErrorContains(t, run([]string{"rotate"}, &out), "unknown command")
	assert.ErrorContains(t, run([]string{"token"}, &out), "-user is required")
	assert.ErrorContains(t, run([]string{"token", "-user", "u", "-ttl", "-1h"}, &out), "-ttl must be positive")
}
