// Package testutil starts a fully wired AI Hub API against a throwaway PostgreSQL
// database for the integration suite.
package testutil

import (
	"context"
	"database/sql"
	"fmt"
	"net/http/httptest"
	"os"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/require"

	"github.com/aihubhq/aihub/config"
	"github.com/aihubhq/aihub/internal/app"
	"github.com/aihubhq/aihub/internal/database"
	"github.com/aihubhq/aihub/pkg/logger"
)

const (
	StripeWebhookSecret = "whsec_integration"
	CreditsPerPurchase  = 100
	PaymentLink         = "https://buy.stripe.com/test_integration"
)

// SkipUnlessIntegration skips the calling test unless INTEGRATION_TESTS=true
func SkipUnlessIntegration(t *testing.T) {
	t.Helper()
	if testing.Short() || os.Getenv("INTEGRATION_TESTS") != "true" {
		t.Skip("set INTEGRATION_TESTS=true to run integration tests")
	}
}

// Environment is a running API server backed by its own database
type Environment struct {
	Config *config.Config
	App    app.AppInterface
	Server *httptest.Server
	DB     *sql.DB
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// testConfig reads TEST_DB_* variables and points DB_NAME at a unique database
func testConfig() *config.Config {
	port, err := strconv.Atoi(getEnv("TEST_DB_PORT", "5432"))
	if err != nil {
		port = 5432
	}

	return &config.Config{
		Environment: "test",
		LogLevel:    "error",
		Version:     "integration",
		Database: config.DatabaseConfig{
			Host:            getEnv("TEST_DB_HOST", "localhost"),
			Port:            port,
			User:            getEnv("TEST_DB_USER", "postgres"),
			Password:        getEnv("TEST_DB_PASSWORD", "postgres"),
			DBName:          "aihub_it_" + strings.ReplaceAll(uuid.New().String()[:8], "-", ""),
			SSLMode:         "disable",
			MaxOpenConns:    5,
			MaxIdleConns:    2,
			ConnMaxLifetime: time.Minute,
		},
		Security: config.SecurityConfig{
			JWTSecret: []byte("integration-jwt-secret-32-bytes!"),
			JWTIssuer: "aihub-integration",
		},
		Stripe: config.StripeConfig{
			WebhookSecret:      StripeWebhookSecret,
			PaymentLink:        PaymentLink,
			CreditsPerPurchase: CreditsPerPurchase,
			PlanName:           "Starter",
		},
		Tools: config.ToolsConfig{
			WebhookTimeout:        10 * time.Second,
			CatalogCacheTTL:       time.Second,
			StaleExecutionTimeout: 15 * time.Minute,
			ReaperInterval:        time.Minute,
		},
	}
}

// SetupEnvironment initializes the app, serves it over httptest and drops the
// database once the test finishes
func SetupEnvironment(t *testing.T) *Environment {
	t.Helper()
	SkipUnlessIntegration(t)

	cfg := testConfig()
	a := app.NewApp(cfg, app.WithLogger(logger.NewLoggerWithLevel(cfg.LogLevel)))
	require.NoError(t, a.Initialize(), "failed to initialize app against %s", cfg.Database.DBName)

	server := httptest.NewServer(a.Handler())
	env := &Environment{Config: cfg, App: a, Server: server, DB: a.GetDB()}

	t.Cleanup(func() {
		server.Close()
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = a.Shutdown(ctx)
		dropDatabase(t, cfg)
	})

	return env
}

func dropDatabase(t *testing.T, cfg *config.Config) {
	t.Helper()
	db, err := sql.Open("postgres", database.GetPostgresDSN(&cfg.Database))
	if err != nil {
		t.Logf("failed to connect for cleanup: %v", err)
		return
	}
	defer db.Close()

	if _, err := db.Exec(fmt.Sprintf("DROP DATABASE IF EXISTS %q WITH (FORCE)", cfg.Database.DBName)); err != nil {
		t.Logf("failed to drop database %s: %v", cfg.Database.DBName, err)
	}
}
