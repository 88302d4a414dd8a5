package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/joho/godotenv"
)

// ErrMissingCredential matches MissingCredentialError with errors.Is.
var ErrMissingCredential = errors.New("required credential is not set")

// MissingCredentialError lists every required variable that is empty.
// It is the only fatal condition of the bot.
type MissingCredentialError struct {
	Names []string
}

func (e *MissingCredentialError) Error() string {
	return fmt.Sprintf("required environment variables are not set: %s", strings.Join(e.Names, ", "))
}

// AppConfig holds all configuration for the application
type AppConfig struct {
	PracticumToken       string
	TelegramToken        string
	TelegramChatID       string
	PracticumEndpoint    string
	PollSchedule         string // cron spec, "@every 600s" by default
	HTTPTimeout          time.Duration
	TelegramSendInterval time.Duration // minimum spacing between outbound messages
	TelegramCommands     bool          // answer /start, /status, /history in the configured chat
	DatabaseURL          string        // optional notification journal
	LockFile             string
	ResponseListPolicy   string // "take_first" or "reject"
	LogLevel             string
	Environment          string
}

const (
	defaultEndpoint         = "https://practicum.yandex.ru/api/user_api/homework_statuses/"
	defaultPollSchedule     = "@every 600s"
	defaultHTTPTimeout      = 30 * time.Second
	defaultSendInterval     = time.Second
	defaultLockFileBaseName = "homework-bot.lock"
)

// Load reads configuration from environment variables and the dotenv file at
// envFile (if present). Missing required secrets are reported together as a
// MissingCredentialError.
func Load(envFile string) (*AppConfig, error) {
	// godotenv.Load will not override existing env variables.
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			return nil, errors.Wrapf(err, "load %s", envFile)
		}
	}

	cfg := &AppConfig{
		PracticumToken: os.Getenv("PRACTICUM_TOKEN"),
		TelegramToken:  os.Getenv("TELEGRAM_TOKEN"),
		TelegramChatID: strings.TrimSpace(os.Getenv("TELEGRAM_CHAT_ID")),
	}
	if err := cfg.checkCredentials(); err != nil {
		return nil, err
	}

	var err error

	cfg.PracticumEndpoint = getEnv("PRACTICUM_ENDPOINT", defaultEndpoint)
	cfg.PollSchedule = getEnv("POLL_SCHEDULE", defaultPollSchedule)

	if cfg.HTTPTimeout, err = getEnvDuration("HTTP_TIMEOUT", defaultHTTPTimeout); err != nil {
		return nil, err
	}
	if cfg.TelegramSendInterval, err = getEnvDuration("TELEGRAM_SEND_INTERVAL", defaultSendInterval); err != nil {
		return nil, err
	}
	if cfg.TelegramCommands, err = getEnvBool("TELEGRAM_COMMANDS", true); err != nil {
		return nil, err
	}

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	cfg.LockFile = getEnv("LOCK_FILE", filepath.Join(os.TempDir(), defaultLockFileBaseName))
	cfg.ResponseListPolicy = strings.ToLower(getEnv("RESPONSE_LIST_POLICY", "take_first"))

	cfg.LogLevel = strings.ToLower(getEnv("LOG_LEVEL", "info"))
	cfg.Environment = strings.ToLower(getEnv("ENVIRONMENT", "development"))

	return cfg, nil
}

func (c *AppConfig) checkCredentials() error {
	var missing []string
	for _, v := range []struct{ name, value string }{
		{"PRACTICUM_TOKEN", c.PracticumToken},
		{"TELEGRAM_TOKEN", c.TelegramToken},
		{"TELEGRAM_CHAT_ID", c.TelegramChatID},
	} {
		if v.value == "" {
			missing = append(missing, v.name)
		}
	}
	if len(missing) > 0 {
		return errors.Mark(&MissingCredentialError{Names: missing}, ErrMissingCredential)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid %s", key)
	}
	if d <= 0 {
		return 0, errors.Newf("invalid %s: must be positive, got %s", key, v)
	}
	return d, nil
}

func getEnvBool(key string, fallback bool) (bool, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, errors.Wrapf(err, "invalid %s", key)
	}
	return b, nil
}
