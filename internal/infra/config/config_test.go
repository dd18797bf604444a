package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("BOT_TOKEN", "123:abc")
	t.Setenv("ADMIN_USERNAME", "@someadmin")
	t.Setenv("SEND_TIME", "8:05")
	t.Setenv("TZ", "Asia/Tashkent")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "someadmin", cfg.AdminUsername)
	assert.Equal(t, "08:05", cfg.SendTime)
	assert.Equal(t, 8, cfg.SendClock.Hour)
	assert.Equal(t, "Asia/Tashkent", cfg.Location.String())
	assert.Equal(t, DriverSQLite, cfg.DatabaseDriver)
	assert.Equal(t, 10*time.Second, cfg.StartCooldown)
	assert.Equal(t, 3, cfg.BroadcastTries)
	assert.Equal(t, "/telegraf/change-me", cfg.WebhookPath())
	assert.Equal(t, ":3000", cfg.ListenAddr())
	assert.False(t, cfg.WebhookMode())
}

func TestLoadRequiresToken(t *testing.T) {
	t.Setenv("BOT_TOKEN", "")

	_, err := Load()
	assert.Error(t, err)
}

func validConfig() *AppConfig {
	return &AppConfig{
		TelegramToken:  "t",
		TimeZone:       "UTC",
		SendTime:       "15:00",
		WebhookSecret:  "s",
		Port:           3000,
		DatabaseDriver: "sqlite",
		BroadcastTries: 1,
		BaseURL:        "https://example.org/",
	}
}

func TestValidate(t *testing.T) {
	cfg := validConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, DriverSQLite, cfg.DatabaseDriver)
	assert.Equal(t, "https://example.org", cfg.BaseURL)
	assert.True(t, cfg.WebhookMode())

	cfg = validConfig()
	cfg.SendTime = "25:00"
	assert.Error(t, cfg.Validate())

	cfg = validConfig()
	cfg.TimeZone = "Mars/Olympus"
	assert.Error(t, cfg.Validate())

	cfg = validConfig()
	cfg.DatabaseDriver = "mysql"
	assert.Error(t, cfg.Validate())

	cfg = validConfig()
	cfg.BroadcastTries = 0
	assert.Error(t, cfg.Validate())
}
