package usecases_test

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"event-board.backend/internal/config"
	"event-board.backend/internal/infrastructure/mail"
	"event-board.backend/internal/infrastructure/metrics"
	"event-board.backend/internal/infrastructure/migrations"
	"event-board.backend/internal/infrastructure/repositories"
	"event-board.backend/internal/usecases"
	"event-board.backend/pkg/jwt"
	redispkg "event-board.backend/pkg/redis"
)

const testSessionKey = "0000000000000000000000000000000000000000000000000000000000000000"

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// outbox records sent messages instead of delivering them.
type outbox struct {
	mu       sync.Mutex
	messages []*mail.Message
	failures int
}

func (o *outbox) Send(_ context.Context, msg *mail.Message) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.failures > 0 {
		o.failures--
		return fmt.Errorf("smtp unavailable")
	}
	o.messages = append(o.messages, msg)
	return nil
}

func (o *outbox) last(t *testing.T) *mail.Message {
	t.Helper()
	o.mu.Lock()
	defer o.mu.Unlock()
	require.NotEmpty(t, o.messages, "no email sent")
	return o.messages[len(o.messages)-1]
}

// tokenFromEmail pulls the token out of the magic link in a message.
func tokenFromEmail(t *testing.T, msg *mail.Message) string {
	t.Helper()
	for _, line := range strings.Split(msg.Body, "\n") {
		if !strings.HasPrefix(line, "http") {
			continue
		}
		u, err := url.Parse(strings.TrimSpace(line))
		require.NoError(t, err)
		if tok := u.Query().Get("token"); tok != "" {
			return tok
		}
	}
	t.Fatalf("no sign-in link in email body: %q", msg.Body)
	return ""
}

type testEnv struct {
	cfg       *config.Config
	db        *gorm.DB
	users     *repositories.UserRepository
	tokenRepo *repositories.SignInTokenRepository
	tokens    *usecases.TokenUsecase
	sessions  *usecases.SessionUsecase
	delivery  *usecases.DeliveryGateway
	auth      *usecases.AuthUsecase
	outbox    *outbox
	clock     *fakeClock
	redis     *miniredis.Miniredis
}

func testConfig() *config.Config {
	return &config.Config{
		JWT: config.JWTConfig{Secret: "test-secret", AccessExpiry: time.Hour},
		Auth: config.AuthConfig{
			SignInTokenTTL:    15 * time.Minute,
			SignInTokenBytes:  32,
			TokenRetention:    24 * time.Hour,
			SessionTTL:        14 * 24 * time.Hour,
			RegisterNewUsers:  true,
			MarkEmailVerified: true,
		},
		Cookie:    config.CookieConfig{Name: "session", Domain: "localhost", Path: "/"},
		MagicLink: config.MagicLinkConfig{Origin: config.LocalhostClientOrigin, Path: "/auth/callback"},
		Mail: config.MailConfig{
			From:        "noreply@specollective.org",
			Subject:     "Data Event Board: Sign In",
			MaxAttempts: 3,
		},
	}
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.ReplaceAll(t.Name(), "/", "_")
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, migrations.Up(context.Background(), sqlDB, "sqlite3"))
	return db
}

func newSessionStore(t *testing.T) (*redispkg.SessionStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	cli := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	prev := redispkg.GetClient()
	redispkg.SetClient(cli)
	t.Cleanup(func() {
		_ = cli.Close()
		redispkg.SetClient(prev)
	})

	store, err := redispkg.NewSessionStore(testSessionKey)
	require.NoError(t, err)
	return store, mr
}

func newTestEnv(t *testing.T, mutate ...func(*config.Config)) *testEnv {
	t.Helper()
	cfg := testConfig()
	for _, fn := range mutate {
		fn(cfg)
	}

	db := newTestDB(t)
	store, mr := newSessionStore(t)
	clock := newFakeClock()
	box := &outbox{}
	m := metrics.New()

	users := repositories.NewUserRepository(db)
	tokenRepo := repositories.NewSignInTokenRepository(db)
	uow := repositories.NewUnitOfWork(db)

	tokens := usecases.NewTokenUsecase(tokenRepo, users, uow, cfg.Auth, m)
	tokens.SetClock(clock.Now)
	sessions := usecases.NewSessionUsecase(store, cfg.Cookie, cfg.Auth.SessionTTL)
	sessions.SetClock(clock.Now)
	delivery := usecases.NewDeliveryGateway(box, cfg.Mail, cfg.MagicLink, cfg.Auth.SignInTokenTTL)
	auth := usecases.NewAuthUsecase(users, tokens, delivery, sessions,
		jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiry),
		usecases.AuthOptions{RegisterNewUsers: cfg.Auth.RegisterNewUsers, DeliveryAttempts: cfg.Mail.MaxAttempts},
		m,
	)

	return &testEnv{
		cfg:       cfg,
		db:        db,
		users:     users,
		tokenRepo: tokenRepo,
		tokens:    tokens,
		sessions:  sessions,
		delivery:  delivery,
		auth:      auth,
		outbox:    box,
		clock:     clock,
		redis:     mr,
	}
}
