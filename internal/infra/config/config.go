package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"class_schedule_bot/internal/domain/schedule"
)

const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

// AppConfig holds all configuration for the application
type AppConfig struct {
	TelegramToken   string        `envconfig:"BOT_TOKEN" required:"true"`
	TimeZone        string        `envconfig:"TZ" default:"Asia/Tashkent"`
	SendTime        string        `envconfig:"SEND_TIME" default:"15:00"`
	AdminUsername   string        `envconfig:"ADMIN_USERNAME"`
	AdminTelegramID int64         `envconfig:"ADMIN_TELEGRAM_ID"`
	WebhookSecret   string        `envconfig:"WEBHOOK_SECRET" default:"change-me"`
	Port            int           `envconfig:"PORT" default:"3000"`
	BaseURL         string        `envconfig:"BASE_URL"`
	DatabaseDriver  string        `envconfig:"DATABASE_DRIVER" default:"sqlite3"`
	DatabaseURL     string        `envconfig:"DATABASE_URL" default:"./bot.db"`
	TimetableFile   string        `envconfig:"TIMETABLE_FILE"`
	LogLevel        string        `envconfig:"LOG_LEVEL" default:"info"`
	Environment     string        `envconfig:"ENVIRONMENT" default:"development"`
	StartCooldown   time.Duration `envconfig:"START_COOLDOWN" default:"10s"`
	PendingTTL      time.Duration `envconfig:"PENDING_TTL" default:"15m"`
	BroadcastTries  int           `envconfig:"BROADCAST_ATTEMPTS" default:"3"`
	BroadcastDelay  time.Duration `envconfig:"BROADCAST_BACKOFF" default:"500ms"`
	LongPollTimeout time.Duration `envconfig:"LONGPOLL_TIMEOUT" default:"10s"`

	// Derived by Validate.
	Location  *time.Location `ignored:"true"`
	SendClock schedule.Clock `ignored:"true"`
}

// Load reads configuration from environment variables and .env file (if present).
func Load() (*AppConfig, error) {
	// godotenv.Load will not override existing env variables.
	_ = godotenv.Load()

	cfg := &AppConfig{}
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("failed to process env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate normalizes the loaded values and fills the derived fields.
func (c *AppConfig) Validate() error {
	if strings.TrimSpace(c.TelegramToken) == "" {
		return fmt.Errorf("BOT_TOKEN is not set")
	}

	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return fmt.Errorf("invalid TZ %q: %w", c.TimeZone, err)
	}
	c.Location = loc

	c.SendClock, err = schedule.ParseClock(c.SendTime)
	if err != nil {
		return fmt.Errorf("invalid SEND_TIME: %w", err)
	}
	c.SendTime = c.SendClock.String()

	c.AdminUsername = strings.TrimPrefix(strings.TrimSpace(c.AdminUsername), "@")
	c.BaseURL = strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	c.LogLevel = strings.ToLower(c.LogLevel)
	c.Environment = strings.ToLower(c.Environment)

	c.DatabaseDriver = strings.ToLower(strings.TrimSpace(c.DatabaseDriver))
	if c.DatabaseDriver == "sqlite" {
		c.DatabaseDriver = DriverSQLite
	}
	if c.DatabaseDriver == "postgresql" {
		c.DatabaseDriver = DriverPostgres
	}
	switch c.DatabaseDriver {
	case DriverSQLite, DriverPostgres:
	default:
		return fmt.Errorf("invalid DATABASE_DRIVER %q; allowed: sqlite3, postgres", c.DatabaseDriver)
	}

	if c.WebhookSecret == "" {
		return fmt.Errorf("WEBHOOK_SECRET must not be empty")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid PORT %d", c.Port)
	}
	if c.BroadcastTries < 1 {
		return fmt.Errorf("BROADCAST_ATTEMPTS must be >= 1")
	}
	return nil
}

// WebhookPath is the route Telegram posts updates to in webhook mode.
func (c *AppConfig) WebhookPath() string {
	return "/telegraf/" + c.WebhookSecret
}

// WebhookMode reports whether updates arrive via webhook rather than long polling.
func (c *AppConfig) WebhookMode() bool {
	return c.BaseURL != ""
}

// ListenAddr is the HTTP listen address.
func (c *AppConfig) ListenAddr() string {
	return fmt.Sprintf(":%d", c.Port)
}
