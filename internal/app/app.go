package app

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"contrib.go.opencensus.io/integrations/ocsql"

	"github.com/aihubhq/aihub/config"
	"github.com/aihubhq/aihub/internal/database"
	"github.com/aihubhq/aihub/internal/domain"
	httpHandler "github.com/aihubhq/aihub/internal/http"
	"github.com/aihubhq/aihub/internal/http/middleware"
	"github.com/aihubhq/aihub/internal/migrations"
	"github.com/aihubhq/aihub/internal/repository"
	"github.com/aihubhq/aihub/internal/service"
	"github.com/aihubhq/aihub/pkg/cache"
	"github.com/aihubhq/aihub/pkg/logger"
	"github.com/aihubhq/aihub/pkg/ratelimiter"
	"github.com/aihubhq/aihub/pkg/tracing"
)

// AppInterface defines the interface for the App
type AppInterface interface {
	Initialize() error
	Start() error
	Shutdown(ctx context.Context) error

	GetConfig() *config.Config
	GetLogger() logger.Logger
	GetMux() *http.ServeMux
	GetDB() *sql.DB
	// Handler is the fully wrapped server handler
	Handler() http.Handler

	GetUserRepository() domain.UserRepository
	GetContactRepository() domain.ContactRepository
	GetToolRepository() domain.ToolRepository
	GetToolExecutionRepository() domain.ToolExecutionRepository

	// Server status methods
	IsServerCreated() bool
	WaitForServerStart(ctx context.Context) bool

	// Methods for initialization steps
	InitDB() error
	InitTracing() error
	InitRepositories() error
	InitServices() error
	InitHandlers() error

	// Graceful shutdown methods
	SetShutdownTimeout(timeout time.Duration)
	GetActiveRequestCount() int64
	GetShutdownContext() context.Context
}

// App encapsulates the application dependencies and configuration
type App struct {
	config  *config.Config
	logger  logger.Logger
	db      *sql.DB
	cache   *cache.InMemoryCache
	limiter *ratelimiter.RateLimiter

	// Repositories
	userRepo         domain.UserRepository
	contactRepo      domain.ContactRepository
	tagRepo          domain.TagRepository
	toolRepo         domain.ToolRepository
	executionRepo    domain.ToolExecutionRepository
	subscriptionRepo domain.SubscriptionRepository

	// Services
	authService      *service.AuthService
	contactService   *service.ContactService
	tagService       *service.TagService
	toolService      *service.ToolService
	billingService   *service.BillingService
	executionService *service.ExecutionService
	webhookClient    *service.ToolWebhookClient
	reaper           *service.ExecutionReaper

	// HTTP handlers
	mux     *http.ServeMux
	handler http.Handler
	server  *http.Server

	// Server synchronization
	serverMu      sync.RWMutex
	serverStarted chan struct{}

	// Graceful shutdown management
	shutdownCtx     context.Context
	shutdownCancel  context.CancelFunc
	activeRequests  int64
	requestWg       sync.WaitGroup
	shutdownTimeout time.Duration
}

// AppOption defines a functional option for configuring the App
type AppOption func(*App)

// WithMockDB configures the app to use a mock database
func WithMockDB(db *sql.DB) AppOption {
	return func(a *App) {
		a.db = db
	}
}

// WithLogger sets a custom logger
func WithLogger(logger logger.Logger) AppOption {
	return func(a *App) {
		a.logger = logger
	}
}

// NewApp creates a new application instance
func NewApp(cfg *config.Config, opts ...AppOption) AppInterface {
	shutdownCtx, shutdownCancel := context.WithCancel(context.Background())

	app := &App{
		config:          cfg,
		logger:          logger.NewLoggerWithLevel(cfg.LogLevel),
		mux:             http.NewServeMux(),
		serverStarted:   make(chan struct{}),
		shutdownCtx:     shutdownCtx,
		shutdownCancel:  shutdownCancel,
		shutdownTimeout: 30 * time.Second,
	}

	for _, opt := range opts {
		opt(app)
	}

	return app
}

// InitTracing initializes OpenCensus tracing
func (a *App) InitTracing() error {
	if err := tracing.InitTracing(&a.config.Tracing, a.logger); err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	return nil
}

// InitDB connects to the database, creates the schema and runs pending migrations
func (a *App) InitDB() error {
	if a.db != nil {
		return nil
	}

	cfg := &a.config.Database
	a.logger.WithFields(map[string]interface{}{
		"host":    cfg.Host,
		"port":    cfg.Port,
		"user":    cfg.User,
		"dbname":  cfg.DBName,
		"sslmode": cfg.SSLMode,
	}).Info("Connecting to database")

	if err := database.EnsureDatabaseExists(cfg); err != nil {
		return fmt.Errorf("failed to ensure database exists: %w", err)
	}

	db, err := database.Connect(cfg, a.config.Tracing.Enabled)
	if err != nil {
		return err
	}
	if a.config.Tracing.Enabled {
		a.logger.Info("Database driver wrapped with OpenCensus tracing")
	}

	if err := database.InitializeDatabase(db); err != nil {
		db.Close()
		return fmt.Errorf("failed to initialize database schema: %w", err)
	}

	if err := migrations.NewManager(a.logger).RunMigrations(context.Background(), db); err != nil {
		db.Close()
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	a.db = db
	return nil
}

// InitRepositories initializes all repositories
func (a *App) InitRepositories() error {
	if a.db == nil {
		return fmt.Errorf("database is not initialized")
	}

	a.userRepo = repository.NewUserRepository(a.db)
	a.contactRepo = repository.NewContactRepository(a.db)
	a.tagRepo = repository.NewTagRepository(a.db)
	a.toolRepo = repository.NewToolRepository(a.db)
	a.executionRepo = repository.NewToolExecutionRepository(a.db)
	a.subscriptionRepo = repository.NewSubscriptionRepository(a.db)
	return nil
}

// InitServices initializes all services
func (a *App) InitServices() error {
	a.cache = cache.NewInMemoryCache(time.Minute)

	var err error
	a.authService, err = service.NewAuthService(service.AuthServiceConfig{
		UserRepository: a.userRepo,
		JWTSecret:      a.config.Security.JWTSecret,
		JWTIssuer:      a.config.Security.JWTIssuer,
		Cache:          a.cache,
		Logger:         a.logger,
	})
	if err != nil {
		return fmt.Errorf("failed to create auth service: %w", err)
	}

	a.tagService = service.NewTagService(a.tagRepo, a.logger)
	a.contactService = service.NewContactService(a.contactRepo, a.tagRepo, a.executionRepo, a.logger)
	a.toolService = service.NewToolService(a.toolRepo, a.cache, a.config.Tools.CatalogCacheTTL, a.logger)

	a.billingService = service.NewBillingService(service.BillingServiceConfig{
		UserRepository:         a.userRepo,
		SubscriptionRepository: a.subscriptionRepo,
		PaymentLink:            a.config.Stripe.PaymentLink,
		WebhookSecret:          a.config.Stripe.WebhookSecret,
		CreditsPerPurchase:     a.config.Stripe.CreditsPerPurchase,
		PlanName:               a.config.Stripe.PlanName,
		Logger:                 a.logger,
	})
	if a.config.Stripe.WebhookSecret == "" {
		a.logger.Warn("STRIPE_WEBHOOK_SECRET is not set, payment webhooks will be rejected")
	}

	a.webhookClient, err = service.NewToolWebhookClient(service.ToolWebhookClientConfig{
		Timeout:       a.config.Tools.WebhookTimeout,
		SigningSecret: a.config.Tools.WebhookSigningSecret,
		Logger:        a.logger,
	})
	if err != nil {
		return fmt.Errorf("failed to create tool webhook client: %w", err)
	}

	if limit := a.config.Tools.ExecuteRateLimit; limit > 0 {
		a.limiter = ratelimiter.NewRateLimiter(time.Minute)
		a.limiter.SetPolicy(service.ExecuteRateLimitNamespace, limit, time.Minute)
	}

	a.executionService = service.NewExecutionService(service.ExecutionServiceConfig{
		ExecutionRepository: a.executionRepo,
		UserRepository:      a.userRepo,
		ToolService:         a.toolService,
		WebhookClient:       a.webhookClient,
		BillingService:      a.billingService,
		RateLimiter:         a.limiter,
		Logger:              a.logger,
	})

	a.reaper = service.NewExecutionReaper(
		a.executionService,
		a.logger,
		a.config.Tools.ReaperInterval,
		a.config.Tools.StaleExecutionTimeout,
	)
	return nil
}

// InitHandlers registers routes. Everything under /api/ except the health check goes
// through bearer authentication; the payment webhook is public and verified by signature.
func (a *App) InitHandlers() error {
	apiMux := http.NewServeMux()
	httpHandler.NewContactHandler(a.contactService, a.logger).RegisterRoutes(apiMux)
	httpHandler.NewTagHandler(a.tagService, a.logger).RegisterRoutes(apiMux)
	httpHandler.NewToolHandler(a.toolService, a.logger).RegisterRoutes(apiMux)
	httpHandler.NewExecutionHandler(a.executionService, a.logger).RegisterRoutes(apiMux)

	billingHandler := httpHandler.NewBillingHandler(a.billingService, a.logger)
	billingHandler.RegisterRoutes(apiMux)
	billingHandler.RegisterPublicRoutes(a.mux)

	httpHandler.NewRootHandler(a.db, a.logger, a.config.Version).RegisterRoutes(a.mux)

	requireAuth := middleware.NewAuthMiddleware(a.authService, a.logger).RequireAuth()
	a.mux.Handle("/api/", requireAuth(apiMux))

	var handler http.Handler = a.mux
	handler = a.gracefulShutdownMiddleware(handler)
	if a.config.Tracing.Enabled {
		handler = middleware.TracingMiddleware(handler)
	}
	handler = middleware.CORSMiddleware(a.config.Server.AllowedOrigins)(handler)

	a.handler = handler
	return nil
}

// Handler returns the wrapped handler built by InitHandlers
func (a *App) Handler() http.Handler {
	return a.handler
}

// Start starts the HTTP server and the execution reaper
func (a *App) Start() error {
	if a.handler == nil {
		return fmt.Errorf("handlers are not initialized")
	}

	addr := fmt.Sprintf("%s:%d", a.config.Server.Host, a.config.Server.Port)
	a.logger.WithField("address", addr).Info("Server starting")

	a.serverMu.Lock()
	if a.serverStarted != nil {
		close(a.serverStarted)
	}
	a.serverStarted = make(chan struct{})
	a.server = &http.Server{
		Addr:              addr,
		Handler:           a.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	serverStarted := a.serverStarted
	a.serverMu.Unlock()

	close(serverStarted)

	if a.reaper != nil {
		a.reaper.Start(a.shutdownCtx)
	}

	if a.config.Server.SSL.Enabled {
		a.logger.WithField("cert_file", a.config.Server.SSL.CertFile).Info("SSL enabled")
		return a.server.ListenAndServeTLS(a.config.Server.SSL.CertFile, a.config.Server.SSL.KeyFile)
	}
	return a.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("Starting graceful shutdown...")

	a.shutdownCancel()

	if a.reaper != nil {
		a.reaper.Stop()
	}

	a.serverMu.RLock()
	server := a.server
	a.serverMu.RUnlock()

	if server == nil {
		a.logger.Info("No server to shutdown")
		return a.cleanupResources()
	}

	a.logger.WithField("active_requests", a.getActiveRequestCount()).Info("Active requests at shutdown start")

	shutdownTimeout := a.shutdownTimeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < shutdownTimeout {
			shutdownTimeout = remaining - time.Second
			if shutdownTimeout < 0 {
				shutdownTimeout = 0
			}
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	serverShutdownDone := make(chan error, 1)
	go func() {
		serverShutdownDone <- server.Shutdown(shutdownCtx)
	}()

	requestsDone := make(chan struct{})
	go func() {
		a.requestWg.Wait()
		close(requestsDone)
	}()

	var shutdownErr error
	select {
	case err := <-serverShutdownDone:
		shutdownErr = err
		a.logger.Info("HTTP server shutdown completed")
	case <-shutdownCtx.Done():
		a.logger.Warn("Shutdown timeout reached")
		shutdownErr = fmt.Errorf("shutdown timeout exceeded")
	}

	if shutdownErr == nil {
		select {
		case <-requestsDone:
		case <-time.After(2 * time.Second):
			if active := a.getActiveRequestCount(); active > 0 {
				a.logger.WithField("active_requests", active).Warn("Some requests still active, proceeding with shutdown")
			}
		}
	}

	if cleanupErr := a.cleanupResources(); cleanupErr != nil && shutdownErr == nil {
		shutdownErr = cleanupErr
	}

	if shutdownErr != nil {
		a.logger.WithField("error", shutdownErr.Error()).Error("Graceful shutdown completed with errors")
	} else {
		a.logger.Info("Graceful shutdown completed successfully")
	}
	return shutdownErr
}

func (a *App) cleanupResources() error {
	if a.limiter != nil {
		a.limiter.Stop()
	}
	if a.cache != nil {
		a.cache.Stop()
	}

	if a.db != nil {
		if a.config.Tracing.Enabled {
			if err := ocsql.RecordStats(a.db, 5*time.Second); err != nil {
				a.logger.WithField("error", err.Error()).Error("Failed to record final database stats")
			}
		}

		a.logger.Info("Closing database connection")
		if err := a.db.Close(); err != nil {
			a.logger.WithField("error", err.Error()).Error("Error closing database connection")
			return err
		}
	}
	return nil
}

// IsServerCreated safely checks if the server has been created
func (a *App) IsServerCreated() bool {
	a.serverMu.RLock()
	defer a.serverMu.RUnlock()
	return a.server != nil
}

// WaitForServerStart waits for the server to be created.
// Returns false if the context expires first.
func (a *App) WaitForServerStart(ctx context.Context) bool {
	a.serverMu.RLock()
	started := a.serverStarted
	a.serverMu.RUnlock()

	if started == nil {
		<-ctx.Done()
		return false
	}

	select {
	case <-started:
		return a.IsServerCreated()
	case <-ctx.Done():
		return false
	}
}

// Initialize sets up all components of the application
func (a *App) Initialize() error {
	a.logger.WithField("version", a.config.Version).Info("Starting AI Hub API")

	steps := []func() error{
		a.InitTracing,
		a.InitDB,
		a.InitRepositories,
		a.InitServices,
		a.InitHandlers,
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return err
		}
	}

	a.logger.Info("Application successfully initialized")
	return nil
}

func (a *App) GetConfig() *config.Config {
	return a.config
}

func (a *App) GetLogger() logger.Logger {
	return a.logger
}

func (a *App) GetMux() *http.ServeMux {
	return a.mux
}

func (a *App) GetDB() *sql.DB {
	return a.db
}

func (a *App) GetUserRepository() domain.UserRepository {
	return a.userRepo
}

func (a *App) GetContactRepository() domain.ContactRepository {
	return a.contactRepo
}

func (a *App) GetToolRepository() domain.ToolRepository {
	return a.toolRepo
}

func (a *App) GetToolExecutionRepository() domain.ToolExecutionRepository {
	return a.executionRepo
}

func (a *App) incrementActiveRequests() {
	atomic.AddInt64(&a.activeRequests, 1)
	a.requestWg.Add(1)
}

func (a *App) decrementActiveRequests() {
	atomic.AddInt64(&a.activeRequests, -1)
	a.requestWg.Done()
}

func (a *App) getActiveRequestCount() int64 {
	return atomic.LoadInt64(&a.activeRequests)
}

func (a *App) GetActiveRequestCount() int64 {
	return a.getActiveRequestCount()
}

// SetShutdownTimeout sets the timeout for graceful shutdown
func (a *App) SetShutdownTimeout(timeout time.Duration) {
	a.shutdownTimeout = timeout
	a.logger.WithField("shutdown_timeout", timeout.String()).Info("Shutdown timeout configured")
}

// GetShutdownContext is cancelled when Shutdown begins
func (a *App) GetShutdownContext() context.Context {
	return a.shutdownCtx
}

func (a *App) isShuttingDown() bool {
	select {
	case <-a.shutdownCtx.Done():
		return true
	default:
		return false
	}
}

// gracefulShutdownMiddleware tracks active requests and refuses new ones once shutdown began
func (a *App) gracefulShutdownMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if a.isShuttingDown() {
			httpHandler.WriteJSONError(w, "Server is shutting down", http.StatusServiceUnavailable)
			return
		}

		a.incrementActiveRequests()
		defer a.decrementActiveRequests()

		next.ServeHTTP(w, r)
	})
}

var _ AppInterface = (*App)(nil)
