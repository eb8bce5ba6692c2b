package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"event-board.backend/internal/config"
	"event-board.backend/internal/infrastructure/datasources/postgres"
	"event-board.backend/internal/infrastructure/jobs"
	"event-board.backend/internal/infrastructure/mail"
	"event-board.backend/internal/infrastructure/metrics"
	"event-board.backend/internal/infrastructure/migrations"
	"event-board.backend/internal/infrastructure/repositories"
	"event-board.backend/internal/interfaces/http/handlers"
	"event-board.backend/internal/interfaces/http/middleware"
	"event-board.backend/internal/usecases"
	"event-board.backend/pkg/jwt"
	"event-board.backend/pkg/logger"
	"event-board.backend/pkg/redis"
)

const shutdownTimeout = 10 * time.Second

var (
	loadDotenv      = godotenv.Load
	loadCfg         = config.Load
	initLog         = logger.Init
	initRedis       = redis.Init
	openDB          = postgres.NewConnection
	getStdDB        = func(db *gorm.DB) (*sql.DB, error) { return db.DB() }
	runMigrations   = migrations.Up
	migrationDriver = "postgres"
	newSessionStore = redis.NewSessionStore
	newTransport    = mail.NewTransport
	runServer       = serve
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := runMainProcess(ctx); err != nil {
		log.Fatal(err)
	}
}

func runMainProcess(ctx context.Context) error {
	if err := loadDotenv(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := loadCfg()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	initLog(cfg.Server.Env)
	defer logger.Sync()
	logger.Info(ctx, "Logger initialized",
		zap.String("env", cfg.Server.Env), zap.Bool("development_mode", cfg.Server.DevelopmentMode))

	if err := initRedis(cfg.Redis.URL, cfg.Redis.Password); err != nil {
		logger.Error(ctx, "Failed to initialize Redis", zap.Error(err))
		return fmt.Errorf("failed to initialize redis: %w", err)
	}
	defer redis.Close()
	logger.Info(ctx, "Redis initialized")

	if !cfg.Server.DevelopmentMode {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := openDB(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	sqlDB, err := getStdDB(db)
	if err != nil {
		return fmt.Errorf("failed to get generic database object: %w", err)
	}
	defer sqlDB.Close()

	if cfg.Database.AutoMigrate {
		if err := runMigrations(ctx, sqlDB, migrationDriver); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		logger.Info(ctx, "Database migrations applied")
	}

	sessionStore, err := newSessionStore(cfg.Security.SessionEncryptionKey)
	if err != nil {
		return fmt.Errorf("failed to initialize session store: %w", err)
	}
	transport, err := newTransport(cfg.Mail, logger.GetLogger())
	if err != nil {
		return fmt.Errorf("failed to initialize mail transport: %w", err)
	}

	m := metrics.New()
	jwtService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiry)

	userRepo := repositories.NewUserRepository(db)
	signInTokenRepo := repositories.NewSignInTokenRepository(db)
	uow := repositories.NewUnitOfWork(db)

	tokenUsecase := usecases.NewTokenUsecase(signInTokenRepo, userRepo, uow, cfg.Auth, m)
	sessionUsecase := usecases.NewSessionUsecase(sessionStore, cfg.Cookie, cfg.Auth.SessionTTL)
	delivery := usecases.NewDeliveryGateway(transport, cfg.Mail, cfg.MagicLink, tokenUsecase.TTL())
	authUsecase := usecases.NewAuthUsecase(userRepo, tokenUsecase, delivery, sessionUsecase, jwtService,
		usecases.AuthOptions{
			RegisterNewUsers: cfg.Auth.RegisterNewUsers,
			DeliveryAttempts: cfg.Mail.MaxAttempts,
		}, m)

	resolvers, err := middleware.NewResolvers(cfg.Auth.Resolvers, sessionUsecase, jwtService)
	if err != nil {
		return fmt.Errorf("failed to build identity resolvers: %w", err)
	}
	rateLimiter := middleware.NewRateLimiter(cfg.RateLimit)

	jobCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	cleanupJob := jobs.NewSignInTokenCleanupJob(tokenUsecase, cfg.Auth.CleanupInterval)
	go cleanupJob.Start(jobCtx)
	defer cleanupJob.Stop()
	go rateLimiter.RunCleanup(jobCtx, time.Minute)

	r := newRouter(cfg, routeDeps{
		authHandler: handlers.NewAuthHandler(authUsecase),
		healthHandler: handlers.NewHealthHandler(map[string]handlers.Pinger{
			"database": sqlDB.PingContext,
			"redis":    func(ctx context.Context) error { return redis.GetClient().Ping(ctx).Err() },
		}),
		authenticate: middleware.Authenticate(resolvers...),
		rateLimit:    rateLimiter.Middleware(),
		metrics:      m.Handler(),
	})

	logger.Info(ctx, "Event board auth service starting",
		zap.String("port", cfg.Server.Port), zap.Strings("resolvers", cfg.Auth.Resolvers))

	if err := runServer(ctx, r, cfg.Server.Port); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	logger.Info(ctx, "Server stopped")
	return nil
}

// serve runs the HTTP server until ctx is cancelled, then drains it.
func serve(ctx context.Context, handler http.Handler, port string) error {
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
