// internal/infra/logger/logger.go
package logger

import (
	"io"
	"os"
	"strings"

	"homework_status_bot/internal/infra/config"

	"github.com/sirupsen/logrus"
)

// Log is the global logger instance
var Log = logrus.New()

// Init initializes the global logger based on application configuration.
func Init(cfg *config.AppConfig) {
	InitWithOutput(cfg, os.Stdout)
}

// InitWithOutput is Init writing to out.
func InitWithOutput(cfg *config.AppConfig, out io.Writer) {
	Log.SetOutput(out)

	// "critical" is what operators of the old bot used; logrus calls it fatal.
	levelName := strings.ToLower(cfg.LogLevel)
	if levelName == "critical" {
		levelName = "fatal"
	}
	level, err := logrus.ParseLevel(levelName)
	if err != nil {
		Log.Warnf("Invalid log level '%s', defaulting to 'info'. Error: %v", cfg.LogLevel, err)
		Log.SetLevel(logrus.InfoLevel)
	} else {
		Log.SetLevel(level)
	}

	if isStructuredEnv(cfg.Environment) {
		Log.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02T15:04:05.000Z07:00", // ISO8601
		})
	} else {
		Log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
		})
	}

	Log.Debugf("Log level set to: %s", Log.GetLevel().String())
	Log.Debugf("Log format set for environment: %s", cfg.Environment)
}

// Component returns an entry tagged with the component name.
func Component(name string) *logrus.Entry {
	return Log.WithField("component", name)
}

func isStructuredEnv(env string) bool {
	env = strings.ToLower(env)
	return env == "production" || env == "staging"
}
