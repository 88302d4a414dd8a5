package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allKeys = []string{
	"PRACTICUM_TOKEN", "TELEGRAM_TOKEN", "TELEGRAM_CHAT_ID", "PRACTICUM_ENDPOINT",
	"POLL_SCHEDULE", "HTTP_TIMEOUT", "TELEGRAM_SEND_INTERVAL", "TELEGRAM_COMMANDS",
	"DATABASE_URL", "LOCK_FILE", "LOG_LEVEL", "ENVIRONMENT", "RESPONSE_LIST_POLICY",
}

// clearEnv blanks every variable Load reads; t.Setenv restores them afterwards.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range allKeys {
		t.Setenv(k, "")
	}
}

func setCredentials(t *testing.T) {
	t.Helper()
	t.Setenv("PRACTICUM_TOKEN", "p-token")
	t.Setenv("TELEGRAM_TOKEN", "t-token")
	t.Setenv("TELEGRAM_CHAT_ID", "12345")
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	setCredentials(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "p-token", cfg.PracticumToken)
	assert.Equal(t, "t-token", cfg.TelegramToken)
	assert.Equal(t, "12345", cfg.TelegramChatID)
	assert.Equal(t, defaultEndpoint, cfg.PracticumEndpoint)
	assert.Equal(t, "@every 600s", cfg.PollSchedule)
	assert.Equal(t, 30*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, time.Second, cfg.TelegramSendInterval)
	assert.True(t, cfg.TelegramCommands)
	assert.Empty(t, cfg.DatabaseURL)
	assert.Equal(t, filepath.Join(os.TempDir(), "homework-bot.lock"), cfg.LockFile)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "take_first", cfg.ResponseListPolicy)
}

func TestLoad_MissingCredentials(t *testing.T) {
	clearEnv(t)
	t.Setenv("TELEGRAM_TOKEN", "t-token")

	_, err := Load("")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingCredential))

	var mce *MissingCredentialError
	require.True(t, errors.As(err, &mce))
	assert.Equal(t, []string{"PRACTICUM_TOKEN", "TELEGRAM_CHAT_ID"}, mce.Names)
	assert.Contains(t, err.Error(), "PRACTICUM_TOKEN, TELEGRAM_CHAT_ID")
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	setCredentials(t)
	t.Setenv("POLL_SCHEDULE", "*/5 * * * *")
	t.Setenv("HTTP_TIMEOUT", "5s")
	t.Setenv("TELEGRAM_SEND_INTERVAL", "250ms")
	t.Setenv("TELEGRAM_COMMANDS", "false")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("ENVIRONMENT", "Production")
	t.Setenv("DATABASE_URL", "postgres://localhost/bot")
	t.Setenv("RESPONSE_LIST_POLICY", "Reject")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "*/5 * * * *", cfg.PollSchedule)
	assert.Equal(t, 5*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, 250*time.Millisecond, cfg.TelegramSendInterval)
	assert.False(t, cfg.TelegramCommands)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "production", cfg.Environment)
	assert.Equal(t, "postgres://localhost/bot", cfg.DatabaseURL)
	assert.Equal(t, "reject", cfg.ResponseListPolicy)
}

func TestLoad_InvalidOptionalValues(t *testing.T) {
	for key, value := range map[string]string{
		"HTTP_TIMEOUT":           "soon",
		"TELEGRAM_SEND_INTERVAL": "-1s",
		"TELEGRAM_COMMANDS":      "maybe",
	} {
		t.Run(key, func(t *testing.T) {
			clearEnv(t)
			setCredentials(t)
			t.Setenv(key, value)

			_, err := Load("")
			require.Error(t, err)
			assert.False(t, errors.Is(err, ErrMissingCredential))
			assert.Contains(t, err.Error(), key)
		})
	}
}

func TestLoad_EnvFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("PRACTICUM_TOKEN=from-file\nTELEGRAM_TOKEN=t\nTELEGRAM_CHAT_ID=@channel\n"), 0o600))

	// unset so godotenv is allowed to fill them in
	for _, k := range []string{"PRACTICUM_TOKEN", "TELEGRAM_TOKEN", "TELEGRAM_CHAT_ID"} {
		require.NoError(t, os.Unsetenv(k))
	}
	t.Cleanup(func() {
		for _, k := range []string{"PRACTICUM_TOKEN", "TELEGRAM_TOKEN", "TELEGRAM_CHAT_ID"} {
			_ = os.Unsetenv(k)
		}
	})

	cfg, err := Load(envFile)
	require.NoError(t, err)
	assert.Equal(t, "from-file", cfg.PracticumToken)
	assert.Equal(t, "@channel", cfg.TelegramChatID)
}

func TestLoad_MissingEnvFileIsIgnored(t *testing.T) {
	clearEnv(t)
	setCredentials(t)

	_, err := Load(filepath.Join(t.TempDir(), "does-not-exist.env"))
	assert.NoError(t, err)
}
