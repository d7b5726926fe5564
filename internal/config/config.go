package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/nozzip/seccional/internal/ledger"
	"github.com/spf13/viper"
)

// DefaultJWTSecret is the development signing secret. Production refuses it.
const DefaultJWTSecret = "change-me"

// ErrInsecureJWTSecret is returned by Load in production when JWT_SECRET is
// unset or left at DefaultJWTSecret.
var ErrInsecureJWTSecret = errors.New("JWT_SECRET must be set to a non-default value in production")

// Config holds all runtime configuration loaded from environment variables.
type Config struct {
	// Server
	Port           int    `mapstructure:"PORT"`
	Env            string `mapstructure:"APP_ENV"` // development | production
	WorkerPoolSize int    `mapstructure:"WORKER_POOL_SIZE"`

	// Database: postgres://… or sqlite://path
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	AutoMigrate bool   `mapstructure:"AUTO_MIGRATE"`

	// Redis (optional). Empty keeps feed notifications in-process.
	RedisURL string `mapstructure:"REDIS_URL"`

	// Auth
	JWTSecret          string `mapstructure:"JWT_SECRET"`
	JWTExpirationHours int    `mapstructure:"JWT_EXPIRATION_HOURS"`

	// HTTP edge
	CORSAllowedOrigins string  `mapstructure:"CORS_ALLOWED_ORIGINS"`
	RateLimitRPS       float64 `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst     int     `mapstructure:"RATE_LIMIT_BURST"`

	// Business
	BusinessTimezone string `mapstructure:"BUSINESS_TIMEZONE"`
	ShiftLayout      string `mapstructure:"SHIFT_LAYOUT"`
	RosterDefaultDay string `mapstructure:"ROSTER_DEFAULT_DAY"`

	// Object storage mirror for archived days (optional)
	StorageEndpoint  string `mapstructure:"STORAGE_ENDPOINT"`
	StorageAccessKey string `mapstructure:"STORAGE_ACCESS_KEY"`
	StorageSecretKey string `mapstructure:"STORAGE_SECRET_KEY"`
	StorageBucket    string `mapstructure:"STORAGE_BUCKET"`
	StorageUseSSL    bool   `mapstructure:"STORAGE_USE_SSL"`
}

var keys = []string{
	"PORT", "APP_ENV", "WORKER_POOL_SIZE", "DATABASE_URL", "AUTO_MIGRATE", "REDIS_URL",
	"JWT_SECRET", "JWT_EXPIRATION_HOURS", "CORS_ALLOWED_ORIGINS", "RATE_LIMIT_RPS",
	"RATE_LIMIT_BURST", "BUSINESS_TIMEZONE", "SHIFT_LAYOUT", "ROSTER_DEFAULT_DAY",
	"STORAGE_ENDPOINT", "STORAGE_ACCESS_KEY", "STORAGE_SECRET_KEY", "STORAGE_BUCKET",
	"STORAGE_USE_SSL",
}

// Load reads configuration from environment variables and an optional .env file.
func Load() (*Config, error) {
	// Missing .env is fine outside local development.
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	for _, k := range keys {
		_ = v.BindEnv(k)
	}

	v.SetDefault("PORT", 8000)
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("WORKER_POOL_SIZE", 2)
	v.SetDefault("DATABASE_URL", "sqlite://data/seccional.db")
	v.SetDefault("AUTO_MIGRATE", true)
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("JWT_SECRET", DefaultJWTSecret)
	v.SetDefault("JWT_EXPIRATION_HOURS", 12)
	v.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:5173")
	v.SetDefault("RATE_LIMIT_RPS", 20)
	v.SetDefault("RATE_LIMIT_BURST", 40)
	v.SetDefault("BUSINESS_TIMEZONE", "America/Argentina/Buenos_Aires")
	v.SetDefault("SHIFT_LAYOUT", "Morning=08:00 - 14:00;Afternoon=14:00 - 22:00")
	v.SetDefault("ROSTER_DEFAULT_DAY", "default")
	v.SetDefault("STORAGE_BUCKET", "seccional-archives")

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	cfg.RosterDefaultDay = strings.ToLower(strings.TrimSpace(cfg.RosterDefaultDay))
	if cfg.Env == "production" {
		if s := strings.TrimSpace(cfg.JWTSecret); s == "" || s == DefaultJWTSecret {
			return nil, ErrInsecureJWTSecret
		}
	}
	if _, err := cfg.Location(); err != nil {
		return nil, err
	}
	if _, err := cfg.Shifts(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Location resolves BUSINESS_TIMEZONE; business dates are computed in it.
func (c *Config) Location() (*time.Location, error) {
	if c.BusinessTimezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.BusinessTimezone)
	if err != nil {
		return nil, fmt.Errorf("BUSINESS_TIMEZONE: %w", err)
	}
	return loc, nil
}

// Shifts parses SHIFT_LAYOUT ("Name=Label;Name=Label") into the daily layout.
func (c *Config) Shifts() ([]ledger.ShiftDef, error) {
	return ParseShiftLayout(c.ShiftLayout)
}

// AllowedOrigins splits CORS_ALLOWED_ORIGINS.
func (c *Config) AllowedOrigins() []string {
	return splitList(c.CORSAllowedOrigins, ",")
}

// ParseShiftLayout parses "Morning=08:00 - 14:00;Afternoon=14:00 - 22:00".
func ParseShiftLayout(s string) ([]ledger.ShiftDef, error) {
	var defs []ledger.ShiftDef
	for _, part := range splitList(s, ";") {
		name, label, _ := strings.Cut(part, "=")
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, fmt.Errorf("SHIFT_LAYOUT: empty shift name in %q", part)
		}
		defs = append(defs, ledger.ShiftDef{Name: name, TimeLabel: strings.TrimSpace(label)})
	}
	if len(defs) == 0 {
		return nil, fmt.Errorf("SHIFT_LAYOUT: %w", ledger.ErrEmptyLayout)
	}
	return defs, nil
}

func splitList(s, sep string) []string {
	var out []string
	for _, p := range strings.Split(s, sep) {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
