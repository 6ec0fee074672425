package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const VERSION = "1.4"

type Config struct {
	Server      ServerConfig
	Database    DatabaseConfig
	Security    SecurityConfig
	Tracing     TracingConfig
	Stripe      StripeConfig
	Tools       ToolsConfig
	Environment string
	LogLevel    string
	Version     string
}

type ServerConfig struct {
	Port int
	Host string
	SSL  SSLConfig
	// Origins allowed by the CORS middleware, "*" when empty
	AllowedOrigins []string
}

type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	Prefix          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type SecurityConfig struct {
	// HMAC secret used to verify bearer tokens issued by the auth provider
	JWTSecret []byte
	// Expected "iss" claim, skipped when empty
	JWTIssuer string
}

type SSLConfig struct {
	Enabled  bool
	CertFile string
	KeyFile  string
}

type StripeConfig struct {
	WebhookSecret      string
	PaymentLink        string
	CreditsPerPurchase int
	PlanName           string
}

type ToolsConfig struct {
	WebhookTimeout        time.Duration
	WebhookSigningSecret  string
	CatalogCacheTTL       time.Duration
	StaleExecutionTimeout time.Duration
	ReaperInterval        time.Duration
	// Maximum executions per user per minute, 0 disables the limit
	ExecuteRateLimit int
}

type TracingConfig struct {
	Enabled             bool
	ServiceName         string
	SamplingProbability float64
	// Environment is reported as the env tag by exporters that support tags
	Environment string

	// Trace exporter configuration
	TraceExporter string // "jaeger", "stackdriver", "zipkin", "datadog", "xray", "none"

	JaegerEndpoint       string
	ZipkinEndpoint       string
	StackdriverProjectID string

	DatadogAgentAddress string
	DatadogAPIKey       string

	XRayRegion string

	AgentEndpoint string

	// Metrics exporter configuration
	MetricsExporter string // "prometheus", "stackdriver", "datadog", "none" or comma-separated list
	PrometheusPort  int
}

// LoadOptions contains options for loading configuration
type LoadOptions struct {
	EnvFile string // Optional environment file to load (e.g., ".env", ".env.test")
}

// Load loads the configuration with default options
func Load() (*Config, error) {
	return LoadWithOptions(LoadOptions{EnvFile: ".env"})
}

// LoadWithOptions loads the configuration with the specified options
func LoadWithOptions(opts LoadOptions) (*Config, error) {
	v := viper.New()

	v.SetDefault("SERVER_PORT", 8080)
	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "*")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_PREFIX", "aihub")
	v.SetDefault("DB_NAME", "aihub")
	v.SetDefault("DB_SSLMODE", "require")
	v.SetDefault("DB_MAX_OPEN_CONNS", 25)
	v.SetDefault("DB_MAX_IDLE_CONNS", 10)
	v.SetDefault("DB_CONN_MAX_LIFETIME", "10m")
	v.SetDefault("ENVIRONMENT", "production")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("VERSION", VERSION)

	// Stripe defaults mirror the hosted test payment link
	v.SetDefault("STRIPE_PAYMENT_LINK", "https://buy.stripe.com/test_3cI5kF6Ns9rM0fY8fAbQY00")
	v.SetDefault("STRIPE_CREDITS_PER_PURCHASE", 100)
	v.SetDefault("STRIPE_PLAN_NAME", "$20/month Plan")

	v.SetDefault("TOOLS_WEBHOOK_TIMEOUT", "5m")
	v.SetDefault("TOOLS_CATALOG_CACHE_TTL", "1m")
	v.SetDefault("TOOLS_STALE_EXECUTION_TIMEOUT", "15m")
	v.SetDefault("TOOLS_REAPER_INTERVAL", "1m")
	v.SetDefault("TOOLS_EXECUTE_RATE_LIMIT", 30)

	v.SetDefault("TRACING_ENABLED", false)
	v.SetDefault("TRACING_SERVICE_NAME", "aihub-api")
	v.SetDefault("TRACING_SAMPLING_PROBABILITY", 0.1)
	v.SetDefault("TRACING_TRACE_EXPORTER", "none")
	v.SetDefault("TRACING_JAEGER_ENDPOINT", "http://localhost:14268/api/traces")
	v.SetDefault("TRACING_ZIPKIN_ENDPOINT", "http://localhost:9411/api/v2/spans")
	v.SetDefault("TRACING_STACKDRIVER_PROJECT_ID", "")
	v.SetDefault("TRACING_DATADOG_AGENT_ADDRESS", "localhost:8126")
	v.SetDefault("TRACING_DATADOG_API_KEY", "")
	v.SetDefault("TRACING_XRAY_REGION", "us-west-2")
	v.SetDefault("TRACING_AGENT_ENDPOINT", "localhost:8126")
	v.SetDefault("TRACING_METRICS_EXPORTER", "none")
	v.SetDefault("TRACING_PROMETHEUS_PORT", 9464)

	if opts.EnvFile != "" {
		v.SetConfigName(opts.EnvFile)
		v.SetConfigType("env")

		currentPath, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("error getting current directory: %w", err)
		}

		v.AddConfigPath(currentPath)

		if err := v.ReadInConfig(); err != nil {
			// It's okay if config file doesn't exist
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("error reading config file: %w", err)
			}
		}
	}

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	jwtSecret := v.GetString("JWT_SECRET")
	if jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	config := &Config{
		Server: ServerConfig{
			Port: v.GetInt("SERVER_PORT"),
			Host: v.GetString("SERVER_HOST"),
			SSL: SSLConfig{
				Enabled:  v.GetBool("SSL_ENABLED"),
				CertFile: v.GetString("SSL_CERT_FILE"),
				KeyFile:  v.GetString("SSL_KEY_FILE"),
			},
			AllowedOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
		},
		Database: DatabaseConfig{
			Host:            v.GetString("DB_HOST"),
			Port:            v.GetInt("DB_PORT"),
			User:            v.GetString("DB_USER"),
			Password:        v.GetString("DB_PASSWORD"),
			DBName:          v.GetString("DB_NAME"),
			Prefix:          v.GetString("DB_PREFIX"),
			SSLMode:         v.GetString("DB_SSLMODE"),
			MaxOpenConns:    v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: v.GetDuration("DB_CONN_MAX_LIFETIME"),
		},
		Security: SecurityConfig{
			JWTSecret: []byte(jwtSecret),
			JWTIssuer: v.GetString("JWT_ISSUER"),
		},
		Stripe: StripeConfig{
			WebhookSecret:      v.GetString("STRIPE_WEBHOOK_SECRET"),
			PaymentLink:        v.GetString("STRIPE_PAYMENT_LINK"),
			CreditsPerPurchase: v.GetInt("STRIPE_CREDITS_PER_PURCHASE"),
			PlanName:           v.GetString("STRIPE_PLAN_NAME"),
		},
		Tools: ToolsConfig{
			WebhookTimeout:        v.GetDuration("TOOLS_WEBHOOK_TIMEOUT"),
			WebhookSigningSecret:  v.GetString("TOOLS_WEBHOOK_SIGNING_SECRET"),
			CatalogCacheTTL:       v.GetDuration("TOOLS_CATALOG_CACHE_TTL"),
			StaleExecutionTimeout: v.GetDuration("TOOLS_STALE_EXECUTION_TIMEOUT"),
			ReaperInterval:        v.GetDuration("TOOLS_REAPER_INTERVAL"),
			ExecuteRateLimit:      v.GetInt("TOOLS_EXECUTE_RATE_LIMIT"),
		},
		Tracing: TracingConfig{
			Enabled:             v.GetBool("TRACING_ENABLED"),
			ServiceName:         v.GetString("TRACING_SERVICE_NAME"),
			SamplingProbability: v.GetFloat64("TRACING_SAMPLING_PROBABILITY"),
			Environment:         v.GetString("ENVIRONMENT"),

			TraceExporter: v.GetString("TRACING_TRACE_EXPORTER"),

			JaegerEndpoint:       v.GetString("TRACING_JAEGER_ENDPOINT"),
			ZipkinEndpoint:       v.GetString("TRACING_ZIPKIN_ENDPOINT"),
			StackdriverProjectID: v.GetString("TRACING_STACKDRIVER_PROJECT_ID"),

			DatadogAgentAddress: v.GetString("TRACING_DATADOG_AGENT_ADDRESS"),
			DatadogAPIKey:       v.GetString("TRACING_DATADOG_API_KEY"),

			XRayRegion: v.GetString("TRACING_XRAY_REGION"),

			AgentEndpoint: v.GetString("TRACING_AGENT_ENDPOINT"),

			MetricsExporter: v.GetString("TRACING_METRICS_EXPORTER"),
			PrometheusPort:  v.GetInt("TRACING_PROMETHEUS_PORT"),
		},
		Environment: v.GetString("ENVIRONMENT"),
		LogLevel:    v.GetString("LOG_LEVEL"),
		Version:     v.GetString("VERSION"),
	}

	if config.Stripe.CreditsPerPurchase <= 0 {
		return nil, fmt.Errorf("STRIPE_CREDITS_PER_PURCHASE must be positive")
	}

	return config, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
