package logger

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"

	"class_schedule_bot/internal/infra/config"
)

const isoTimestamp = "2006-01-02T15:04:05.000Z07:00"

// Log is the process-wide logger. Components log through Component entries.
var Log = logrus.New()

// Options select level, format and destination of a logger.
type Options struct {
	Level       string
	Environment string
	Output      io.Writer // stdout when nil
}

// Configure applies opts to l. An unknown level leaves l at info and is returned as an error.
func Configure(l *logrus.Logger, opts Options) error {
	out := opts.Output
	if out == nil {
		out = os.Stdout
	}
	l.SetOutput(out)
	l.SetFormatter(formatterFor(opts.Environment))

	level, err := logrus.ParseLevel(opts.Level)
	if err != nil {
		l.SetLevel(logrus.InfoLevel)
		return fmt.Errorf("invalid log level %q: %w", opts.Level, err)
	}
	l.SetLevel(level)
	return nil
}

// formatterFor emits JSON in deployed environments and colored text locally.
func formatterFor(environment string) logrus.Formatter {
	switch environment {
	case "production", "staging":
		return &logrus.JSONFormatter{TimestampFormat: isoTimestamp}
	default:
		return &logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
			ForceColors:     true,
		}
	}
}

// Init configures Log from the application config.
func Init(cfg *config.AppConfig) {
	if err := Configure(Log, Options{Level: cfg.LogLevel, Environment: cfg.Environment}); err != nil {
		Log.WithError(err).Warn("Falling back to info level")
	}
	Log.WithFields(logrus.Fields{
		"level":       Log.GetLevel().String(),
		"environment": cfg.Environment,
	}).Info("Logger initialized")
}

// Component returns an entry of Log tagged with the component name.
func Component(name string) *logrus.Entry {
	return Log.WithField("component", name)
}

// Discard returns a component entry that writes nowhere, for tests and tools.
func Discard(name string) *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l.WithField("component", name)
}
