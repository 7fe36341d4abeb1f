// Package logger holds the process-wide logrus logger. Request-scoped entries
// carry the trace id set by the HTTP middleware.
package logger

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

type traceKey struct{}

// Fields is shorthand for structured log fields.
type Fields = logrus.Fields

const timestampFormat = "2006-01-02T15:04:05.000Z07:00"

var std = newLogger(os.Stdout)

func newLogger(w io.Writer) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(w)
	l.SetLevel(logrus.InfoLevel)
	l.SetFormatter(&logrus.JSONFormatter{TimestampFormat: timestampFormat})
	return l
}

// Setup applies the configured level. Development mode switches to the
// human-readable text formatter; every other mode logs JSON.
func Setup(level, mode string) error {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	std.SetLevel(lvl)

	if mode == "development" {
		std.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, TimestampFormat: "15:04:05"})
	} else {
		std.SetFormatter(&logrus.JSONFormatter{TimestampFormat: timestampFormat})
	}
	return nil
}

func SetOutput(w io.Writer) {
	std.SetOutput(w)
}

func Level() logrus.Level {
	return std.GetLevel()
}

func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceKey{}, traceID)
}

func TraceIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(traceKey{}).(string)
	return id
}

// FromContext returns an entry carrying the request's trace id, if any.
func FromContext(ctx context.Context) *logrus.Entry {
	if id := TraceIDFromContext(ctx); id != "" {
		return std.WithField("trace_id", id)
	}
	return logrus.NewEntry(std)
}

func WithComponent(name string) *logrus.Entry {
	return std.WithField("component", name)
}

func WithField(key string, value interface{}) *logrus.Entry {
	return std.WithField(key, value)
}

func WithFields(fields Fields) *logrus.Entry {
	return std.WithFields(fields)
}

func Info(msg string) {
	std.Info(msg)
}

func Infof(format string, args ...interface{}) {
	std.Infof(format, args...)
}

func Warn(msg string) {
	std.Warn(msg)
}

func Warnf(format string, args ...interface{}) {
	std.Warnf(format, args...)
}

func Errorf(format string, args ...interface{}) {
	std.Errorf(format, args...)
}

func Debugf(format string, args ...interface{}) {
	std.Debugf(format, args...)
}
