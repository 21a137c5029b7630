package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadAuthConfig_Defaults(t *testing.T) {
	cfg := LoadAuthConfig()

	assert.Equal(t, "UserHub", cfg.AppName)
	assert.Equal(t, 13, cfg.BcryptCost)
	assert.Equal(t, "UserHub", cfg.TOTPIssuer)
	assert.Equal(t, uint(1), cfg.TOTPSkew)
	assert.Equal(t, 24*time.Hour, cfg.ResetTokenTTL)
	assert.Equal(t, 5, cfg.LoginMaxAttempts)
	assert.Equal(t, "@hourly", cfg.PurgeSchedule)
}

func TestLoadAuthConfig_Env(t *testing.T) {
	t.Setenv("APP_NAME", "Acme")
	t.Setenv("BCRYPT_COST", "4")
	t.Setenv("RESET_TOKEN_TTL", "2h")
	t.Setenv("LOGIN_MAX_ATTEMPTS", "not-a-number")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example,")

	cfg := LoadAuthConfig()

	assert.Equal(t, "Acme", cfg.TOTPIssuer)
	assert.Equal(t, 4, cfg.BcryptCost)
	assert.Equal(t, 2*time.Hour, cfg.ResetTokenTTL)
	assert.Equal(t, 5, cfg.LoginMaxAttempts)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
}

func TestLoadAuthConfig_TOTPSkew(t *testing.T) {
	tests := []struct {
		value string
		want  uint
	}{
		{"0", 0},
		{"2", 2},
		{"-1", 1},
		{"abc", 1},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			t.Setenv("TOTP_SKEW", tt.value)
			assert.Equal(t, tt.want, LoadAuthConfig().TOTPSkew)
		})
	}
}

func TestLoadMailConfig(t *testing.T) {
	t.Setenv("SMTP_HOST", "smtp.example.com")
	t.Setenv("SMTP_PORT", "465")
	t.Setenv("MAIL_TIMEOUT", "3s")

	cfg := LoadMailConfig()
	assert.Equal(t, "smtp.example.com", cfg.Host)
	assert.Equal(t, 465, cfg.Port)
	assert.Equal(t, 3*time.Second, cfg.Timeout)
}
