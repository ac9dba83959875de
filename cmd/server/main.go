package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"solbol.backend/internal/config"
	"solbol.backend/internal/infrastructure/identity"
	"solbol.backend/internal/infrastructure/jobs"
	"solbol.backend/internal/infrastructure/models"
	"solbol.backend/internal/infrastructure/realtime"
	"solbol.backend/internal/infrastructure/repositories"
	"solbol.backend/internal/infrastructure/storage"
	"solbol.backend/internal/interfaces/http/handlers"
	"solbol.backend/internal/interfaces/http/middleware"
	"solbol.backend/internal/usecases"
	"solbol.backend/pkg/jwt"
	"solbol.backend/pkg/logger"
	"solbol.backend/pkg/redis"
	"solbol.backend/pkg/validation"
)

var (
	loadDotenv = godotenv.Load
	loadCfg    = config.Load
	initLog    = logger.Init
	initRedis  = redis.Init
	openDB     = func(dsn string) (*gorm.DB, error) {
		return gorm.Open(postgres.New(postgres.Config{
			DSN:                  dsn,
			PreferSimpleProtocol: true,
		}), &gorm.Config{
			PrepareStmt:    false,
			TranslateError: true,
		})
	}
	openBus         = newBus
	newSessionStore = redis.NewSessionStore
	runServer       = func(srv *http.Server) error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
	getStdDB = func(db *gorm.DB) (*sql.DB, error) { return db.DB() }
)

const shutdownTimeout = 15 * time.Second

func main() {
	if err := runMainProcess(); err != nil {
		log.Fatal(err)
	}
}

func runMainProcess() error {
	if err := loadDotenv(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg, err := loadCfg()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	initLog(cfg.Server.Env)
	defer logger.Sync()
	if err := applyLogLevel(cfg.Server.LogLevel); err != nil {
		return err
	}
	logger.Info(context.Background(), "Logger initialized", zap.String("env", cfg.Server.Env))

	if err := validation.RegisterWithGin(); err != nil {
		return fmt.Errorf("failed to register validators: %w", err)
	}

	if err := initRedis(cfg.Redis.URL, cfg.Redis.Password); err != nil {
		logger.Error(context.Background(), "Failed to initialize Redis", zap.Error(err))
		return fmt.Errorf("failed to initialize redis: %w", err)
	}
	logger.Info(context.Background(), "Redis initialized")

	if cfg.Server.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	dsn := cfg.Database.URL()
	db, err := openDB(dsn)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := getStdDB(db)
	if err != nil {
		return fmt.Errorf("failed to get generic database object: %w", err)
	}
	defer sqlDB.Close()

	if err := sqlDB.Ping(); err != nil {
		logger.Warn(context.Background(), "Database not available, endpoints will return errors", zap.Error(err))
	} else {
		logger.Info(context.Background(), "Connected to PostgreSQL via GORM")
	}

	if cfg.Database.AutoMigrate {
		if err := db.AutoMigrate(models.All()...); err != nil {
			return fmt.Errorf("failed to migrate database: %w", err)
		}
	}

	jwtService := newJWTService(cfg.Auth)

	// Repositories
	userRepo := repositories.NewUserRepository(db)
	orderRepo := repositories.NewOrderRepository(db)
	rateRepo := repositories.NewExchangeRateRepository(db)
	kycDocRepo := repositories.NewKYCDocumentRepository(db)
	notificationRepo := repositories.NewNotificationRepository(db)
	auditRepo := repositories.NewAuditLogRepository(db)
	uow := repositories.NewUnitOfWork(db)

	sessionStore, err := newSessionStore(cfg.Security.SessionEncryptionKey)
	if err != nil {
		return fmt.Errorf("failed to initialize session store: %w", err)
	}

	provider, err := newIdentityProvider(cfg.Auth, db, jwtService)
	if err != nil {
		return err
	}

	blobs, localStore, err := newBlobStore(cfg.Storage)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Realtime
	bus, err := openBus(cfg, sqlDB, dsn)
	if err != nil {
		return fmt.Errorf("failed to open realtime bus: %w", err)
	}
	defer bus.Close()
	hub := realtime.NewHub(bus)
	go hub.Run(ctx)
	events := realtime.NewPublisher(bus)

	// Usecases
	auditUsecase := usecases.NewAuditUsecase(auditRepo)
	notificationUsecase := usecases.NewNotificationUsecase(notificationRepo, userRepo, events)
	rateUsecase := usecases.NewRateUsecase(rateRepo, uow, auditUsecase, events,
		cfg.Rates.DefaultSolesToBolivares, cfg.Rates.DefaultBolivaresToSoles)
	rateTracker := usecases.NewRateTracker(rateRepo, hub)
	rateUsecase.SetTracker(rateTracker)
	go rateTracker.Run(ctx)

	authUsecase := usecases.NewAuthUsecase(userRepo, provider, sessionStore, cfg.Security.SessionTTL, cfg.Server.SiteURL)
	orderUsecase := usecases.NewOrderUsecase(orderRepo, userRepo, rateRepo, uow, auditUsecase, notificationUsecase, events, blobs,
		usecases.OrderUploadConfig{Bucket: cfg.Storage.PaymentProofBucket, MaxBytes: cfg.Storage.MaxUploadBytes})
	kycUsecase := usecases.NewKYCUsecase(userRepo, kycDocRepo, uow, auditUsecase, notificationUsecase, events, blobs,
		usecases.KYCUploadConfig{Bucket: cfg.Storage.KYCBucket, MaxBytes: cfg.Storage.MaxUploadBytes})
	adminUsecase := usecases.NewAdminUsecase(userRepo, orderRepo, rateUsecase, uow, auditUsecase, notificationUsecase, events)

	// Handlers
	healthHandler := handlers.NewHealthHandler(map[string]handlers.HealthCheck{
		"database": sqlDB.PingContext,
		"redis":    pingRedis,
	})

	// Scheduled jobs
	scheduler := jobs.NewScheduler(ctx)
	if err := scheduler.Add(cfg.Orders.StaleCron, jobs.NewStaleOrderJob(orderUsecase, cfg.Orders.PendingTTL)); err != nil {
		return err
	}
	scheduler.Start()
	defer scheduler.Stop()

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.RequestMetaMiddleware())
	r.Use(middleware.LoggerMiddleware("/health", "/metrics"))
	r.Use(middleware.MetricsMiddleware())

	applyCORSMiddleware(r, cfg.Server.CORSOrigins)
	registerHealthRoute(r, healthHandler)
	registerMetricsRoute(r)
	if localStore != nil {
		r.Static("/files", localStore.Dir())
	}

	limiter := redis.NewRateLimiter(redis.GetClient(), "solbol:rate_limit")
	registerAPIRoutes(r, routeDeps{
		authHandler:         handlers.NewAuthHandler(authUsecase, cfg.Security.SessionTTL, cfg.Server.IsProduction()),
		rateHandler:         handlers.NewRateHandler(rateUsecase),
		orderHandler:        handlers.NewOrderHandler(orderUsecase),
		kycHandler:          handlers.NewKYCHandler(kycUsecase),
		notificationHandler: handlers.NewNotificationHandler(notificationUsecase),
		adminHandler:        handlers.NewAdminHandler(adminUsecase),
		realtimeHandler:     handlers.NewRealtimeHandler(hub, cfg.Realtime.Heartbeat),
		authMiddleware:      middleware.AuthMiddleware(jwtService, sessionStore),
		profileMiddleware:   middleware.LoadProfile(userRepo),
		loginLimit:          middleware.RateLimit(limiter, "login", cfg.Orders.LoginPerMinute, time.Minute),
		orderCreateLimit:    middleware.RateLimit(limiter, "order_create", cfg.Orders.CreatePerMinute, time.Minute),
		idempotency:         middleware.IdempotencyMiddleware(cfg.Orders.IdempotencyWindow),
	})

	for _, route := range r.Routes() {
		logger.Debug(ctx, "Route registered", zap.String("method", route.Method), zap.String("path", route.Path))
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)
		select {
		case <-quit:
		case <-ctx.Done():
			return
		}
		logger.Info(context.Background(), "Shutting down server")
		cancel()
		shutdownCtx, done := context.WithTimeout(context.Background(), shutdownTimeout)
		defer done()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error(context.Background(), "Graceful shutdown failed", zap.Error(err))
		}
	}()

	logger.Info(ctx, "Solbol backend starting",
		zap.String("port", cfg.Server.Port),
		zap.String("auth_mode", cfg.Auth.Mode),
		zap.String("realtime_bus", cfg.Realtime.Bus),
		zap.String("storage", cfg.Storage.Driver),
	)

	if err := runServer(srv); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

func newJWTService(cfg config.AuthConfig) *jwt.JWTService {
	opts := []jwt.Option{jwt.WithAudience(cfg.Audience)}
	if cfg.JWKSURL != "" {
		opts = append(opts, jwt.WithKeySource(jwt.NewJWKSCache(cfg.JWKSURL, nil)))
	}
	return jwt.NewJWTService(cfg.JWTSecret, cfg.AccessExpiry, cfg.RefreshExpiry, opts...)
}

func newIdentityProvider(cfg config.AuthConfig, db *gorm.DB, jwtService *jwt.JWTService) (identity.Provider, error) {
	switch cfg.Mode {
	case config.AuthModeHosted:
		return identity.NewHostedProvider(cfg.ProviderURL, cfg.AnonKey, cfg.ServiceRoleKey, &http.Client{Timeout: 15 * time.Second}), nil
	case config.AuthModeLocal:
		logger.Warn(context.Background(), "Using local identity provider, do not run this in production")
		return identity.NewLocalProvider(repositories.NewCredentialRepository(db), jwtService), nil
	default:
		return nil, fmt.Errorf("unknown auth mode %q", cfg.Mode)
	}
}

// applyLogLevel overrides the level picked from SERVER_ENV.
func applyLogLevel(raw string) error {
	if raw == "" {
		return nil
	}
	level, err := zapcore.ParseLevel(raw)
	if err != nil {
		return fmt.Errorf("invalid LOG_LEVEL %q: %w", raw, err)
	}
	logger.SetLevel(level)
	return nil
}

// newBlobStore also returns the local store when one is used, so its
// directory can be served.
func newBlobStore(cfg config.StorageConfig) (storage.BlobStore, *storage.LocalStore, error) {
	switch cfg.Driver {
	case config.StorageDriverSupabase:
		return storage.NewSupabaseStore(cfg.URL, cfg.ServiceKey, &http.Client{Timeout: time.Minute}), nil, nil
	case config.StorageDriverLocal:
		local := storage.NewLocalStore(cfg.LocalDir, cfg.PublicBaseURL)
		return local, local, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

func newBus(cfg *config.Config, sqlDB *sql.DB, dsn string) (realtime.Bus, error) {
	switch cfg.Realtime.Bus {
	case config.BusRedis:
		client := redis.GetClient()
		if client == nil {
			return nil, errors.New("redis client not initialized")
		}
		return realtime.NewRedisBus(client, cfg.Realtime.Channel), nil
	case config.BusPostgres:
		return realtime.NewPostgresBus(sqlDB, dsn, cfg.Realtime.Channel), nil
	case config.BusRabbitMQ:
		return realtime.NewAMQPBus(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange)
	case config.BusMemory:
		return realtime.NewMemoryBus(), nil
	default:
		return nil, fmt.Errorf("unknown realtime bus %q", cfg.Realtime.Bus)
	}
}

func pingRedis(ctx context.Context) error {
	client := redis.GetClient()
	if client == nil {
		return errors.New("redis client not initialized")
	}
	return client.Ping(ctx).Err()
}
