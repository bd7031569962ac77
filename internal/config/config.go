package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/cmlabs-hris/presence-payroll-go/internal/pkg/calendar"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App        AppConfig
	Database   DatabaseConfig
	JWT        JWTConfig
	Redis      RedisConfig
	Payroll    PayrollConfig
	Attendance AttendanceConfig
}

// AppConfig holds application configuration
type AppConfig struct {
	Port            int           `envconfig:"APP_PORT" default:"8080"`
	Env             string        `envconfig:"APP_ENV" default:"development"`
	LogLevel        string        `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat       string        `envconfig:"LOG_FORMAT" default:"json"`
	AllowedOrigins  []string      `envconfig:"CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
	ReadTimeout     time.Duration `envconfig:"APP_READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `envconfig:"APP_WRITE_TIMEOUT" default:"30s"`
	ShutdownTimeout time.Duration `envconfig:"APP_SHUTDOWN_TIMEOUT" default:"10s"`
}

type DatabaseConfig struct {
	Host     string `envconfig:"DB_HOST" default:"localhost"`
	Port     int    `envconfig:"DB_PORT" default:"5432"`
	User     string `envconfig:"DB_USER" default:"postgres"`
	Password string `envconfig:"DB_PASSWORD"`
	Name     string `envconfig:"DB_NAME" default:"presence_payroll"`
	SSLMode  string `envconfig:"DB_SSL_MODE" default:"disable"`
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret           string        `envconfig:"JWT_SECRET_KEY"`
	AccessExpiration time.Duration `envconfig:"JWT_ACCESS_EXPIRATION_TIME" default:"1h"`
}

type RedisConfig struct {
	Addr     string `envconfig:"REDIS_ADDR" default:"127.0.0.1:6379"`
	Password string `envconfig:"REDIS_PASSWORD"`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
	// LockEnabled turns on the per-employee commit lock. Commits stay
	// correct without it.
	LockEnabled bool `envconfig:"REDIS_LOCK_ENABLED" default:"true"`
}

type PayrollConfig struct {
	UTCOffset         time.Duration `envconfig:"DAY_UTC_OFFSET" default:"7h"`
	CommitMaxAttempts int           `envconfig:"PAYROLL_COMMIT_MAX_ATTEMPTS" default:"3"`
	CommitBackoff     time.Duration `envconfig:"PAYROLL_COMMIT_BACKOFF" default:"50ms"`
	CommitRateLimit   int           `envconfig:"PAYROLL_COMMIT_RATE_LIMIT" default:"30"`
	LockTTL           time.Duration `envconfig:"PAYROLL_LOCK_TTL" default:"30s"`
	AutoDraftEnabled  bool          `envconfig:"PAYROLL_AUTO_DRAFT_ENABLED" default:"false"`
	AutoDraftInterval time.Duration `envconfig:"PAYROLL_AUTO_DRAFT_INTERVAL" default:"1h"`
	WorkerConcurrency int           `envconfig:"PAYROLL_WORKER_CONCURRENCY" default:"5"`
}

type AttendanceConfig struct {
	MaxRangeDays int `envconfig:"ATTENDANCE_MAX_RANGE_DAYS" default:"93"`
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	config := &Config{}
	sections := []interface{}{
		&config.App,
		&config.Database,
		&config.JWT,
		&config.Redis,
		&config.Payroll,
		&config.Attendance,
	}
	for _, section := range sections {
		if err := envconfig.Process("", section); err != nil {
			return nil, fmt.Errorf("failed to read environment: %w", err)
		}
	}

	// Validate required fields
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Database.Password == "" {
		return fmt.Errorf("DB_PASSWORD is required")
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET_KEY is required")
	}
	if c.JWT.AccessExpiration <= 0 {
		return fmt.Errorf("JWT_ACCESS_EXPIRATION_TIME must be positive")
	}
	if _, err := c.Zone(); err != nil {
		return fmt.Errorf("DAY_UTC_OFFSET: %w", err)
	}
	if c.Payroll.CommitMaxAttempts < 1 {
		return fmt.Errorf("PAYROLL_COMMIT_MAX_ATTEMPTS must be at least 1")
	}
	if c.Payroll.AutoDraftEnabled && c.Payroll.AutoDraftInterval <= 0 {
		return fmt.Errorf("PAYROLL_AUTO_DRAFT_INTERVAL must be positive")
	}
	if c.Attendance.MaxRangeDays < 1 {
		return fmt.Errorf("ATTENDANCE_MAX_RANGE_DAYS must be at least 1")
	}
	switch strings.ToLower(c.App.LogFormat) {
	case "json", "text":
	default:
		return fmt.Errorf("LOG_FORMAT must be json or text")
	}
	return nil
}

// DatabaseURL returns the PostgreSQL connection string
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// Zone is the fixed-offset zone payroll days are bucketed in.
func (c *Config) Zone() (calendar.Zone, error) {
	return calendar.NewZone(c.Payroll.UTCOffset)
}

func (c *Config) IsProduction() bool {
	return c != nil && c.App.Env == "production"
}

// NewLogger builds the process logger from LOG_FORMAT and LOG_LEVEL.
func NewLogger(app AppConfig) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(app.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if strings.EqualFold(app.LogFormat, "text") {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}
	return slog.New(handler).With(
		slog.String("app", "presence-payroll"),
		slog.String("env", app.Env),
	)
}
