// Package logging configures the shared logrus logger used across the
// pipeline. Local runs get a readable text formatter, everything else JSON.
package logging

import (
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Logger wraps a logrus entry so call sites can chain fields directly.
type Logger struct {
	*logrus.Entry
}

// New builds a logger from the given level and format. Empty values fall back
// to the VOXINV_LOG_LEVEL / VOXINV_LOG_FORMAT environment variables, then to
// info-level text output.
func New(level, format string) *Logger {
	base := logrus.New()
	base.SetOutput(os.Stdout)

	if format == "" {
		format = os.Getenv("VOXINV_LOG_FORMAT")
	}
	switch format {
	case "json":
		base.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: time.RFC3339Nano,
		})
	default:
		base.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: time.RFC3339Nano,
		})
	}

	if level == "" {
		level = os.Getenv("VOXINV_LOG_LEVEL")
	}
	switch level {
	case "debug":
		base.SetLevel(logrus.DebugLevel)
	case "warn":
		base.SetLevel(logrus.WarnLevel)
	case "error":
		base.SetLevel(logrus.ErrorLevel)
	default:
		base.SetLevel(logrus.InfoLevel)
	}

	return &Logger{Entry: logrus.NewEntry(base)}
}

// WithComponent tags entries with the emitting component name.
func (l *Logger) WithComponent(name string) *Logger {
	return &Logger{Entry: l.WithField("component", name)}
}

// WithInvocation attaches a fresh invocation id so one pipeline run can be
// followed across components.
func (l *Logger) WithInvocation() *Logger {
	return &Logger{Entry: l.WithField("invocation_id", uuid.New().String())}
}
