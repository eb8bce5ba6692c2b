package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"event-board.backend/internal/config"
	"event-board.backend/internal/infrastructure/mail"
	"event-board.backend/internal/infrastructure/migrations"
	"event-board.backend/pkg/redis"
)

func withMainHooks(t *testing.T) {
	t.Helper()
	origLoadDotenv := loadDotenv
	origLoadCfg := loadCfg
	origInitLog := initLog
	origInitRedis := initRedis
	origOpenDB := openDB
	origGetStdDB := getStdDB
	origRunMigrations := runMigrations
	origMigrationDriver := migrationDriver
	origNewSessionStore := newSessionStore
	origNewTransport := newTransport
	origRunServer := runServer

	t.Cleanup(func() {
		loadDotenv = origLoadDotenv
		loadCfg = origLoadCfg
		initLog = origInitLog
		initRedis = origInitRedis
		openDB = origOpenDB
		getStdDB = origGetStdDB
		runMigrations = origRunMigrations
		migrationDriver = origMigrationDriver
		newSessionStore = origNewSessionStore
		newTransport = origNewTransport
		runServer = origRunServer
	})

	loadDotenv = func(...string) error { return errors.New("no .env") }
	loadCfg = baseTestConfig
	initLog = func(string) {}
	initRedis = func(string, string) error { return nil }
	openDB = func(config.DatabaseConfig) (*gorm.DB, error) {
		dsn := fmt.Sprintf("file:main_%d?mode=memory&cache=shared", time.Now().UnixNano())
		return gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	}
	migrationDriver = "sqlite3"
	runServer = func(context.Context, http.Handler, string) error { return nil }
}

func baseTestConfig() *config.Config {
	cfg := &config.Config{
		Server: config.ServerConfig{Port: "18080", Env: "development", DevelopmentMode: true},
		Redis:  config.RedisConfig{URL: "redis://localhost:6379"},
		JWT:    config.JWTConfig{Secret: "secret", AccessExpiry: time.Hour},
		Security: config.SecurityConfig{
			SessionEncryptionKey: "0000000000000000000000000000000000000000000000000000000000000000",
		},
		Auth: config.AuthConfig{
			SignInTokenTTL:    15 * time.Minute,
			SignInTokenBytes:  32,
			TokenRetention:    24 * time.Hour,
			CleanupInterval:   time.Hour,
			SessionTTL:        24 * time.Hour,
			RegisterNewUsers:  true,
			MarkEmailVerified: true,
			Resolvers:         []string{config.ResolverCookie, config.ResolverBearer},
		},
		Cookie: config.CookieConfig{Name: "session", Domain: "localhost", Path: "/"},
		CORS: config.CORSConfig{
			AllowedOrigins: []string{config.LocalhostClientOrigin},
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		},
		MagicLink: config.MagicLinkConfig{Origin: config.LocalhostClientOrigin, Path: "/auth/callback"},
		Mail:      config.MailConfig{Backend: config.MailBackendConsole, MaxAttempts: 1},
		RateLimit: config.RateLimitConfig{RequestsPerMinute: 5, Burst: 5},
	}
	cfg.Database.AutoMigrate = true
	return cfg
}

func TestRunMainProcess_SuccessPath(t *testing.T) {
	withMainHooks(t)

	migrated := 0
	runMigrations = func(ctx context.Context, db *sql.DB, dialect string) error {
		migrated++
		assert.Equal(t, "sqlite3", dialect)
		return migrations.Up(ctx, db, dialect)
	}
	var handler http.Handler
	runServer = func(_ context.Context, h http.Handler, port string) error {
		handler = h
		assert.Equal(t, "18080", port)
		return nil
	}

	require.NoError(t, runMainProcess(context.Background()))
	assert.Equal(t, 1, migrated)
	require.NotNil(t, handler)
}

func TestRunMainProcess_SkipsMigrationsWhenDisabled(t *testing.T) {
	withMainHooks(t)
	loadCfg = func() *config.Config {
		cfg := baseTestConfig()
		cfg.Database.AutoMigrate = false
		return cfg
	}
	runMigrations = func(context.Context, *sql.DB, string) error {
		t.Fatal("migrations must not run")
		return nil
	}

	require.NoError(t, runMainProcess(context.Background()))
}

func TestRunMainProcess_Errors(t *testing.T) {
	tests := []struct {
		name  string
		setup func()
		want  string
	}{
		{
			name: "invalid config",
			setup: func() {
				loadCfg = func() *config.Config {
					cfg := baseTestConfig()
					cfg.Auth.Resolvers = nil
					return cfg
				}
			},
			want: "invalid configuration",
		},
		{
			name:  "redis",
			setup: func() { initRedis = func(string, string) error { return errors.New("redis down") } },
			want:  "failed to initialize redis",
		},
		{
			name:  "db open",
			setup: func() {
				openDB = func(config.DatabaseConfig) (*gorm.DB, error) { return nil, errors.New("db open failed") }
			},
			want:  "failed to connect to database",
		},
		{
			name:  "std db",
			setup: func() { getStdDB = func(*gorm.DB) (*sql.DB, error) { return nil, errors.New("no pool") } },
			want:  "generic database object",
		},
		{
			name: "migrations",
			setup: func() {
				runMigrations = func(context.Context, *sql.DB, string) error { return errors.New("bad migration") }
			},
			want: "failed to run migrations",
		},
		{
			name: "session store",
			setup: func() {
				newSessionStore = func(string) (*redis.SessionStore, error) { return nil, errors.New("bad session key") }
			},
			want: "session store",
		},
		{
			name: "mail transport",
			setup: func() {
				newTransport = func(config.MailConfig, *zap.Logger) (mail.Transport, error) {
					return nil, errors.New("unknown backend")
				}
			},
			want: "mail transport",
		},
		{
			name: "server",
			setup: func() {
				runServer = func(context.Context, http.Handler, string) error { return errors.New("listen failed") }
			},
			want: "failed to start server",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			withMainHooks(t)
			tt.setup()

			assert.ErrorContains(t, runMainProcess(context.Background()), tt.want)
		})
	}
}

func TestServe_StopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- serve(ctx, http.NotFoundHandler(), "0")
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestServe_InvalidPort(t *testing.T) {
	err := serve(context.Background(), http.NotFoundHandler(), "invalid-port")
	assert.Error(t, err)
}
