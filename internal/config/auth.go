package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type AuthConfig struct {
	AppName          string
	BcryptCost       int
	TOTPIssuer       string
	TOTPSkew         uint
	ResetTokenTTL    time.Duration
	LoginMaxAttempts int
	LoginWindow      time.Duration
	TOTPMaxAttempts  int
	TOTPWindow       time.Duration
	TokenTTL         time.Duration
	PurgeSchedule    string
	AvatarDir        string
	AllowedOrigins   []string
}

type MailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	FromName string
	Timeout  time.Duration
}

func LoadAuthConfig() *AuthConfig {
	appName := getEnv("APP_NAME", "UserHub")
	return &AuthConfig{
		AppName:          appName,
		BcryptCost:       getEnvAsInt("BCRYPT_COST", 13),
		TOTPIssuer:       getEnv("TOTP_ISSUER", appName),
		TOTPSkew:         getEnvAsUint("TOTP_SKEW", 1),
		ResetTokenTTL:    getEnvAsDuration("RESET_TOKEN_TTL", 24*time.Hour),
		LoginMaxAttempts: getEnvAsInt("LOGIN_MAX_ATTEMPTS", 5),
		LoginWindow:      getEnvAsDuration("LOGIN_ATTEMPT_WINDOW", 15*time.Minute),
		TOTPMaxAttempts:  getEnvAsInt("TOTP_MAX_ATTEMPTS", 5),
		TOTPWindow:       getEnvAsDuration("TOTP_ATTEMPT_WINDOW", 15*time.Minute),
		TokenTTL:         getEnvAsDuration("JWT_TTL", 12*time.Hour),
		PurgeSchedule:    getEnv("RESET_PURGE_SCHEDULE", "@hourly"),
		AvatarDir:        getEnv("AVATAR_DIR", "./static/avatars"),
		AllowedOrigins:   getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
	}
}

func LoadMailConfig() *MailConfig {
	return &MailConfig{
		Host:     getEnv("SMTP_HOST", ""),
		Port:     getEnvAsInt("SMTP_PORT", 587),
		Username: getEnv("SMTP_USERNAME", ""),
		Password: getEnv("SMTP_PASSWORD", ""),
		From:     getEnv("SMTP_FROM", "noreply@userhub.local"),
		FromName: getEnv("SMTP_FROM_NAME", getEnv("APP_NAME", "UserHub")),
		Timeout:  getEnvAsDuration("MAIL_TIMEOUT", 5*time.Second),
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if intVal, err := strconv.Atoi(val); err == nil {
			return intVal
		}
	}
	return defaultVal
}

// getEnvAsUint falls back to defaultVal for negative or unparsable values.
func getEnvAsUint(key string, defaultVal uint) uint {
	if val := os.Getenv(key); val != "" {
		if intVal, err := strconv.Atoi(val); err == nil && intVal >= 0 {
			return uint(intVal)
		}
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if duration, err := time.ParseDuration(val); err == nil {
			return duration
		}
	}
	return defaultVal
}

func getEnvAsList(key string, defaultVal []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultVal
	}
	return out
}
