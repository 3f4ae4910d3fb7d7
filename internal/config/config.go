package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config holds runtime configuration for the application.
type Config struct {
	AppEnv  string `envconfig:"APP_ENV" default:"development"`
	AppName string `envconfig:"APP_NAME" default:"rbac-backend"`
	Port    string `envconfig:"PORT" default:"8080"`

	ReadTimeout     time.Duration `envconfig:"APP_READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `envconfig:"APP_WRITE_TIMEOUT" default:"15s"`
	ShutdownTimeout time.Duration `envconfig:"APP_SHUTDOWN_TIMEOUT" default:"10s"`

	LogFormat string `envconfig:"LOG_FORMAT" default:"text"`
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`

	Database

	RedisAddr     string `envconfig:"REDIS_ADDR" default:""`
	RedisPassword string `envconfig:"REDIS_PASSWORD" default:""`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`

	JWTSecret string        `envconfig:"JWT_SECRET"`
	TokenTTL  time.Duration `envconfig:"TOKEN_TTL" default:"0s"`

	SessionCookie string        `envconfig:"SESSION_COOKIE" default:"rbac_session"`
	SessionTTL    time.Duration `envconfig:"SESSION_TTL" default:"2h"`
	CSRFSecret    string        `envconfig:"CSRF_SECRET"`

	CORSOrigins    []string `envconfig:"CORS_ORIGINS" default:"http://localhost:5173,http://127.0.0.1:5173"`
	LoginRateLimit int      `envconfig:"LOGIN_RATE_LIMIT" default:"6"`
	BcryptCost     int      `envconfig:"BCRYPT_COST" default:"10"`

	AuthzAuditLog bool `envconfig:"AUTHZ_AUDIT_LOG" default:"false"`
	SeedOnStart   bool `envconfig:"SEED_ON_START" default:"false"`
}

// Database configures the storage driver.
type Database struct {
	Driver      string `envconfig:"DB_DRIVER" default:"postgres"`
	Host        string `envconfig:"DB_HOST" default:"localhost"`
	Port        int    `envconfig:"DB_PORT" default:"5432"`
	User        string `envconfig:"DB_USER" default:"postgres"`
	Password    string `envconfig:"DB_PASSWORD" default:"postgres"`
	Name        string `envconfig:"DB_NAME" default:"postgres"`
	SSLMode     string `envconfig:"DB_SSLMODE" default:"disable"`
	AutoMigrate bool   `envconfig:"DB_AUTO_MIGRATE" default:"false"`
}

// Load reads configs/.env when present, then the environment.
func Load() (*Config, error) {
	if err := godotenv.Load("configs/.env"); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load configs/.env: %w", err)
	}
	return FromEnv()
}

// FromEnv reads configuration from environment variables only.
func FromEnv() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.finalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

const devSecret = "insecure-development-secret"

func (c *Config) finalize() error {
	switch c.Database.Driver {
	case DriverPostgres, DriverMemory:
	default:
		return fmt.Errorf("DB_DRIVER must be %q or %q, got %q", DriverPostgres, DriverMemory, c.Database.Driver)
	}

	secrets := map[string]*string{
		"JWT_SECRET":  &c.JWTSecret,
		"CSRF_SECRET": &c.CSRFSecret,
	}
	var missing []string
	for name, v := range secrets {
		if *v != "" {
			continue
		}
		if c.IsProduction() {
			missing = append(missing, name)
			continue
		}
		*v = devSecret
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return fmt.Errorf("missing required secrets in production: %s", strings.Join(missing, ", "))
	}
	return nil
}

// IsProduction returns true when the application runs in production.
func (c *Config) IsProduction() bool {
	return c != nil && c.AppEnv == "production"
}

// SessionsEnabled reports whether browser sessions can be used.
func (c *Config) SessionsEnabled() bool {
	return c.RedisAddr != ""
}

// DSN returns the postgres connection URL.
func (d Database) DSN() string {
	u := &url.URL{
		Scheme: "postgres",
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		User:   url.UserPassword(d.User, d.Password),
		Path:   d.Name,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}

// Level maps LOG_LEVEL onto slog levels, defaulting to info.
func (c *Config) Level() slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}
