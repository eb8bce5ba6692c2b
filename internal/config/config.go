package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	// LocalhostClientOrigin is the client origin used in development mode.
	LocalhostClientOrigin = "http://localhost:3000"
	localhostCookieDomain = "localhost"

	MailBackendConsole = "console"
	MailBackendSMTP    = "smtp"

	ResolverCookie = "cookie"
	ResolverBearer = "bearer"

	defaultJWTSecret     = "change-this-in-production"
	defaultSessionKeyHex = "0000000000000000000000000000000000000000000000000000000000000000"
)

// Config holds all configuration values. It is built once at startup and
// passed by pointer; nothing mutates it afterwards.
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	Security  SecurityConfig
	Auth      AuthConfig
	Cookie    CookieConfig
	CORS      CORSConfig
	MagicLink MagicLinkConfig
	Mail      MailConfig
	RateLimit RateLimitConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port            string
	Env             string
	DevelopmentMode bool
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
	// DSN overrides the individual fields when set (DATABASE_URL).
	DSN string
	// AutoMigrate applies pending migrations when the server starts.
	AutoMigrate bool
}

// URL returns the database connection URL
func (c DatabaseConfig) URL() string {
	if c.DSN != "" {
		return c.DSN
	}
	return "postgres://" + c.User + ":" + c.Password + "@" + c.Host + ":" + strconv.Itoa(c.Port) + "/" + c.DBName + "?sslmode=" + c.SSLMode
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	URL      string
	Password string
}

// JWTConfig holds JWT configuration for bearer mode
type JWTConfig struct {
	Secret       string
	AccessExpiry time.Duration
}

// SecurityConfig holds security encryption keys
type SecurityConfig struct {
	SessionEncryptionKey string
}

// AuthConfig controls sign-in token and session lifetimes.
type AuthConfig struct {
	SignInTokenTTL    time.Duration
	SignInTokenBytes  int
	TokenRetention    time.Duration
	CleanupInterval   time.Duration
	SessionTTL        time.Duration
	RegisterNewUsers  bool
	MarkEmailVerified bool
	// Resolvers lists identity resolvers in the order they are tried.
	Resolvers []string
}

// CookieConfig is the session cookie policy.
type CookieConfig struct {
	Name   string
	Domain string
	Path   string
	Secure bool
}

// CORSConfig holds cross-origin settings for the browser client.
type CORSConfig struct {
	AllowedOrigins   []string
	AllowedHeaders   []string
	ExposedHeaders   []string
	AllowedMethods   []string
	AllowCredentials bool
}

// MagicLinkConfig controls where sign-in links point to.
type MagicLinkConfig struct {
	Origin string
	Path   string
}

// MailConfig holds outgoing mail settings.
type MailConfig struct {
	Backend     string
	Host        string
	Port        int
	Username    string
	Password    string
	From        string
	Subject     string
	Timeout     time.Duration
	MaxAttempts int
}

// RateLimitConfig limits sign-in link requests per client IP.
type RateLimitConfig struct {
	RequestsPerMinute int
	Burst             int
}

// Load loads configuration from environment variables
func Load() *Config {
	env := getEnv("SERVER_ENV", "development")
	devMode := getEnvAsBool("DEVELOPMENT_MODE", env == "development")

	clientOrigin := getEnv("CLIENT_ORIGIN", "")
	cookieDomain := getEnv("PROD_COOKIE_DOMAIN", "")
	mailBackend := MailBackendSMTP
	if devMode {
		clientOrigin = LocalhostClientOrigin
		cookieDomain = localhostCookieDomain
		mailBackend = MailBackendConsole
	}

	var allowedOrigins []string
	if clientOrigin != "" {
		allowedOrigins = []string{clientOrigin}
	}

	return &Config{
		Server: ServerConfig{
			Port:            getEnv("SERVER_PORT", "8080"),
			Env:             env,
			DevelopmentMode: devMode,
		},
		Database: DatabaseConfig{
			Host:        getEnv("DB_HOST", "localhost"),
			Port:        getEnvAsInt("DB_PORT", 5432),
			User:        getEnv("DB_USER", "postgres"),
			Password:    getEnv("DB_PASSWORD", "postgres"),
			DBName:      getEnv("DB_NAME", "event_board"),
			SSLMode:     getEnv("DB_SSLMODE", "disable"),
			DSN:         getEnv("DATABASE_URL", ""),
			AutoMigrate: getEnvAsBool("DB_AUTO_MIGRATE", devMode),
		},
		Redis: RedisConfig{
			URL:      getEnv("REDIS_URL", "redis://localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
		},
		JWT: JWTConfig{
			Secret:       getEnv("JWT_SECRET", defaultJWTSecret),
			AccessExpiry: getEnvAsDuration("JWT_ACCESS_EXPIRY", 24*time.Hour),
		},
		Security: SecurityConfig{
			SessionEncryptionKey: getEnv("SESSION_ENCRYPTION_KEY", defaultSessionKeyHex), // 32-bytes hex string
		},
		Auth: AuthConfig{
			SignInTokenTTL:    getEnvAsDuration("SIGN_IN_TOKEN_TTL", 15*time.Minute),
			SignInTokenBytes:  getEnvAsInt("SIGN_IN_TOKEN_BYTES", 32),
			TokenRetention:    getEnvAsDuration("SIGN_IN_TOKEN_RETENTION", 24*time.Hour),
			CleanupInterval:   getEnvAsDuration("SIGN_IN_TOKEN_CLEANUP_INTERVAL", time.Hour),
			SessionTTL:        getEnvAsDuration("SESSION_TTL", 14*24*time.Hour),
			RegisterNewUsers:  getEnvAsBool("PASSWORDLESS_REGISTER_NEW_USERS", true),
			MarkEmailVerified: getEnvAsBool("PASSWORDLESS_USER_MARK_EMAIL_VERIFIED", true),
			Resolvers:         getEnvAsList("AUTH_RESOLVERS", []string{ResolverCookie, ResolverBearer}),
		},
		Cookie: CookieConfig{
			Name:   getEnv("SESSION_COOKIE_NAME", "session"),
			Domain: cookieDomain,
			Path:   "/",
			Secure: !devMode,
		},
		CORS: CORSConfig{
			AllowedOrigins:   allowedOrigins,
			AllowedHeaders:   []string{"accept-encoding", "authorization", "content-disposition", "content-type", "accept", "origin"},
			ExposedHeaders:   []string{"Content-Type", "X-CSRFToken", "accept", "set-cookie"},
			AllowedMethods:   []string{"DELETE", "GET", "OPTIONS", "PATCH", "POST", "PUT"},
			AllowCredentials: true,
		},
		MagicLink: MagicLinkConfig{
			Origin: clientOrigin,
			Path:   getEnv("MAGIC_LINK_PATH", "/auth/callback"),
		},
		Mail: MailConfig{
			Backend:     getEnv("EMAIL_BACKEND", mailBackend),
			Host:        getEnv("EMAIL_HOST", "smtp.gmail.com"),
			Port:        getEnvAsInt("EMAIL_PORT", 587),
			Username:    getEnv("EMAIL_HOST_USER", ""),
			Password:    getEnv("EMAIL_HOST_PASSWORD", ""),
			From:        getEnv("PASSWORDLESS_EMAIL_NOREPLY_ADDRESS", "noreply@specollective.org"),
			Subject:     getEnv("PASSWORDLESS_EMAIL_SUBJECT", "Data Event Board: Sign In"),
			Timeout:     getEnvAsDuration("EMAIL_TIMEOUT", 10*time.Second),
			MaxAttempts: getEnvAsInt("EMAIL_MAX_ATTEMPTS", 3),
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: getEnvAsInt("SIGN_IN_RATE_LIMIT_PER_MINUTE", 5),
			Burst:             getEnvAsInt("SIGN_IN_RATE_LIMIT_BURST", 5),
		},
	}
}

// Validate reports configuration that cannot work in the selected mode.
func (c *Config) Validate() error {
	var errs []error
	if c.Auth.SignInTokenTTL <= 0 {
		errs = append(errs, errors.New("SIGN_IN_TOKEN_TTL must be positive"))
	}
	if c.Auth.SignInTokenBytes < 16 {
		errs = append(errs, errors.New("SIGN_IN_TOKEN_BYTES must be at least 16"))
	}
	if c.Auth.SessionTTL <= 0 {
		errs = append(errs, errors.New("SESSION_TTL must be positive"))
	}
	if len(c.Auth.Resolvers) == 0 {
		errs = append(errs, errors.New("AUTH_RESOLVERS must not be empty"))
	}
	for _, r := range c.Auth.Resolvers {
		if r != ResolverCookie && r != ResolverBearer {
			errs = append(errs, errors.New("unknown identity resolver: "+r))
		}
	}
	if c.Mail.Backend != MailBackendConsole && c.Mail.Backend != MailBackendSMTP {
		errs = append(errs, errors.New("unknown EMAIL_BACKEND: "+c.Mail.Backend))
	}

	if !c.Server.DevelopmentMode {
		if c.MagicLink.Origin == "" {
			errs = append(errs, errors.New("CLIENT_ORIGIN is required in production"))
		}
		if c.Cookie.Domain == "" {
			errs = append(errs, errors.New("PROD_COOKIE_DOMAIN is required in production"))
		}
		if c.Mail.Backend == MailBackendSMTP && (c.Mail.Username == "" || c.Mail.Password == "") {
			errs = append(errs, errors.New("EMAIL_HOST_USER and EMAIL_HOST_PASSWORD are required for SMTP"))
		}
		if c.JWT.Secret == "" || c.JWT.Secret == defaultJWTSecret {
			errs = append(errs, errors.New("JWT_SECRET must be set in production"))
		}
		if strings.Trim(c.Security.SessionEncryptionKey, "0") == "" {
			errs = append(errs, errors.New("SESSION_ENCRYPTION_KEY must be set in production"))
		}
	}
	return errors.Join(errs...)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
