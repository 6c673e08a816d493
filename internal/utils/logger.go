package utils

import (
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

var Logger = logrus.New()

type appNameHook struct {
	appName string
}

// Levels implements logrus.Hook interface.
func (h *appNameHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

// Fire implements logrus.Hook interface.
func (h *appNameHook) Fire(entry *logrus.Entry) error {
	entry.Message = "[" + h.appName + "] " + entry.Message
	return nil
}

func InitLogger(appName string) {
	Logger.SetOutput(os.Stdout)
	Logger.SetLevel(levelFromEnv())
	Logger.SetFormatter(formatterFromEnv())
	Logger.AddHook(&appNameHook{appName})
}

func levelFromEnv() logrus.Level {
	raw := strings.ToLower(os.Getenv("LOG_LEVEL"))
	if raw == "" {
		return logrus.InfoLevel
	}
	level, err := logrus.ParseLevel(raw)
	if err != nil {
		Logger.Warnf("Invalid LOG_LEVEL '%s', defaulting to INFO", raw)
		return logrus.InfoLevel
	}
	return level
}

// formatterFromEnv defaults to human-readable text for local runs;
// LOG_FORMAT=json switches to the shape log shippers ingest.
func formatterFromEnv() logrus.Formatter {
	if strings.EqualFold(os.Getenv("LOG_FORMAT"), "json") {
		return &logrus.JSONFormatter{TimestampFormat: time.RFC3339Nano}
	}
	return &logrus.TextFormatter{FullTimestamp: true}
}
