package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the matching service.
type Config struct {
	DB        DBConfig
	Redis     RedisConfig
	NATS      NATSConfig
	SMTP      SMTPConfig
	Matching  MatchingConfig
	Notify    NotifyConfig
	Scheduler SchedulerConfig

	Port                   string
	AdminToken             string
	RateLimitMax           int
	RateLimitWindowSeconds int
	LogLevel               string
}

// DBConfig holds PostgreSQL configuration.
type DBConfig struct {
	Host        string
	Port        int
	User        string
	Password    string
	DBName      string
	SSLMode     string
	SSLRootCert string
}

// DSN returns the PostgreSQL connection string.
func (d DBConfig) DSN() string {
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
	if d.SSLRootCert != "" {
		dsn += fmt.Sprintf(" sslrootcert=%s", d.SSLRootCert)
	}
	return dsn
}

// RedisConfig holds Redis configuration.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// NATSConfig holds NATS settings for the push channel. An empty URL
// disables push delivery.
type NATSConfig struct {
	URL  string
	Name string
}

// SMTPConfig holds outgoing mail settings. An empty Host switches the
// email channel to log-only delivery.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// MatchingConfig tunes the matching pass.
type MatchingConfig struct {
	MinScore    float64
	Concurrency int
	CallTimeout time.Duration
}

// NotifyConfig tunes notification dispatch.
type NotifyConfig struct {
	CallTimeout    time.Duration
	EmailPerSecond float64
}

// SchedulerConfig controls the optional in-process interval triggers.
// Zero intervals disable them.
type SchedulerConfig struct {
	MatchInterval  time.Duration
	NotifyInterval time.Duration
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	cfg := &Config{
		DB: DBConfig{
			Host:        getEnv("DB_HOST", "localhost"),
			Port:        getEnvInt("DB_PORT", 5432),
			User:        getEnv("DB_USER", "postgres"),
			Password:    getEnv("DB_PASSWORD", "postgres"),
			DBName:      getEnv("DB_NAME", "kino_alert"),
			SSLMode:     getEnv("DB_SSLMODE", "disable"),
			SSLRootCert: getEnv("DB_SSLROOTCERT", ""),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		NATS: NATSConfig{
			URL:  getEnv("NATS_URL", ""),
			Name: getEnv("NATS_CLIENT_NAME", "kino-alert-matching"),
		},
		SMTP: SMTPConfig{
			Host:     getEnv("SMTP_HOST", ""),
			Port:     getEnvInt("SMTP_PORT", 587),
			Username: getEnv("SMTP_USERNAME", ""),
			Password: getEnv("SMTP_PASSWORD", ""),
			From:     getEnv("SMTP_FROM", "alerts@kino-alert.local"),
		},
		Matching: MatchingConfig{
			MinScore:    getEnvFloat("MATCH_MIN_SCORE", 0.3),
			Concurrency: getEnvInt("MATCH_CONCURRENCY", 1),
			CallTimeout: getEnvDuration("MATCH_CALL_TIMEOUT", 10*time.Second),
		},
		Notify: NotifyConfig{
			CallTimeout:    getEnvDuration("NOTIFY_CALL_TIMEOUT", 10*time.Second),
			EmailPerSecond: getEnvFloat("NOTIFY_EMAIL_PER_SECOND", 5),
		},
		Scheduler: SchedulerConfig{
			MatchInterval:  getEnvDuration("MATCH_SCHEDULE_INTERVAL", 0),
			NotifyInterval: getEnvDuration("NOTIFY_SCHEDULE_INTERVAL", 0),
		},
		Port:                   getEnv("SERVER_PORT", "8084"),
		AdminToken:             getEnv("ADMIN_TOKEN", ""),
		RateLimitMax:           getEnvInt("RATE_LIMIT_MAX", 100),
		RateLimitWindowSeconds: getEnvInt("RATE_LIMIT_WINDOW_SECONDS", 60),
		LogLevel:               getEnv("LOG_LEVEL", "info"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects values the service cannot run with.
func (c *Config) Validate() error {
	if c.Matching.MinScore < 0 || c.Matching.MinScore > 1 {
		return fmt.Errorf("MATCH_MIN_SCORE must be within [0,1], got %v", c.Matching.MinScore)
	}
	if c.Matching.Concurrency < 1 {
		return fmt.Errorf("MATCH_CONCURRENCY must be at least 1, got %d", c.Matching.Concurrency)
	}
	if c.Matching.CallTimeout <= 0 || c.Notify.CallTimeout <= 0 {
		return fmt.Errorf("call timeouts must be positive")
	}
	if c.Scheduler.MatchInterval < 0 || c.Scheduler.NotifyInterval < 0 {
		return fmt.Errorf("schedule intervals must not be negative")
	}
	if c.RateLimitMax <= 0 || c.RateLimitWindowSeconds <= 0 {
		return fmt.Errorf("rate limit settings must be positive")
	}
	return nil
}

// SlogLevel maps LogLevel onto a slog level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	n, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return fallback
	}
	return n
}

func getEnvFloat(key string, fallback float64) float64 {
	f, err := strconv.ParseFloat(getEnv(key, ""), 64)
	if err != nil {
		return fallback
	}
	return f
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(getEnv(key, ""))
	if err != nil {
		return fallback
	}
	return d
}
