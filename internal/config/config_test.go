package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("APP_PORT", "")
	t.Setenv("STORE_DRIVER", "")
	t.Setenv("NOTIFY_TIMEOUT", "")
	t.Setenv("CORS_ORIGINS", "")

	cfg := LoadConfig()
	assert.Equal(t, "8080", cfg.AppPort)
	assert.Equal(t, "mysql", cfg.StoreDriver)
	assert.Equal(t, 10*time.Second, cfg.NotifyTimeout)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("DB_USER", "shop")
	t.Setenv("DB_PASSWORD", "pw")
	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_PORT", "3307")
	t.Setenv("DB_NAME", "farm")
	t.Setenv("NOTIFY_TIMEOUT", "3s")
	t.Setenv("SMTP_PORT", "2525")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example,")
	t.Setenv("IS_PROD", "true")

	cfg := LoadConfig()
	assert.Equal(t, "shop:pw@tcp(db:3307)/farm?parseTime=true", cfg.DSN())
	assert.Equal(t, 3*time.Second, cfg.NotifyTimeout)
	assert.Equal(t, 2525, cfg.SMTPPort)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	assert.True(t, cfg.IsProd)
}
