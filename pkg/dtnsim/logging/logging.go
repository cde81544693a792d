// Package logging defines the Logger contract shared by every component
// that emits listener events or diagnostic context, adapted from the
// teacher's pkg/mcast/types.Logger / pkg/mcast/definition.DefaultLogger
// pair but backed by logrus instead of the stdlib log.Logger, and adding
// structured fields (With) alongside the positional Sprintf-style methods.
package logging

import (
	"os"

	"github.com/sirupsen/logrus"
)

// Logger is the leveled logging contract every dtnsim component depends
// on. It mirrors the teacher's definition.Logger interface shape
// (Infof/Warnf/Errorf/Debugf/Fatalf plus a debug toggle) so the rest of
// the core never imports logrus directly.
type Logger interface {
	Info(args ...interface{})
	Infof(format string, args ...interface{})
	Warn(args ...interface{})
	Warnf(format string, args ...interface{})
	Error(args ...interface{})
	Errorf(format string, args ...interface{})
	Debug(args ...interface{})
	Debugf(format string, args ...interface{})
	Fatalf(format string, args ...interface{})
	ToggleDebug(value bool) bool

	// With returns a child Logger carrying the given structured fields on
	// every subsequent call, e.g. log.With("host", h.ID).Warnf("...").
	With(fields Fields) Logger
}

// Fields is a structured-field bag attached to a log line, e.g.
// {"host": "A", "conn": "A->B"}.
type Fields map[string]interface{}

// logrusLogger is the default Logger implementation.
type logrusLogger struct {
	entry *logrus.Entry
}

// New builds the default Logger, writing structured text-formatted lines
// to stderr, matching the teacher's default-to-stderr behavior.
func New() Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetLevel(logrus.InfoLevel)
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return &logrusLogger{entry: logrus.NewEntry(l)}
}

func (l *logrusLogger) With(fields Fields) Logger {
	return &logrusLogger{entry: l.entry.WithFields(logrus.Fields(fields))}
}

func (l *logrusLogger) Info(args ...interface{})  { l.entry.Info(args...) }
func (l *logrusLogger) Warn(args ...interface{})  { l.entry.Warn(args...) }
func (l *logrusLogger) Error(args ...interface{}) { l.entry.Error(args...) }
func (l *logrusLogger) Debug(args ...interface{}) { l.entry.Debug(args...) }

func (l *logrusLogger) Infof(format string, args ...interface{})  { l.entry.Infof(format, args...) }
func (l *logrusLogger) Warnf(format string, args ...interface{})  { l.entry.Warnf(format, args...) }
func (l *logrusLogger) Errorf(format string, args ...interface{}) { l.entry.Errorf(format, args...) }
func (l *logrusLogger) Debugf(format string, args ...interface{}) { l.entry.Debugf(format, args...) }
func (l *logrusLogger) Fatalf(format string, args ...interface{}) { l.entry.Fatalf(format, args...) }

func (l *logrusLogger) ToggleDebug(value bool) bool {
	if value {
		l.entry.Logger.SetLevel(logrus.DebugLevel)
	} else {
		l.entry.Logger.SetLevel(logrus.InfoLevel)
	}
	return value
}

// Discard is a Logger that drops every line, used in tests that don't
// want simulation chatter in their output.
func Discard() Logger {
	l := logrus.New()
	l.SetOutput(discardWriter{})
	return &logrusLogger{entry: logrus.NewEntry(l)}
}

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }
