// Package logging is a small wrapper around logrus used by the compiler and peggen.
package logging

import (
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"
)

// Fields aliases logrus.Fields.
type Fields = logrus.Fields

// Logger is the logging interface accepted by packrat components.
type Logger interface {
	Debug(format string, params ...any)
	Info(format string, params ...any)
	Warn(format string, params ...any)
	Error(format string, params ...any)
	WithFields(fields Fields) Logger
}

// StandardLogger writes log entries using logrus.
type StandardLogger struct {
	entry *logrus.Entry
}

// New creates logger writing to w. level is one of "debug", "info", "warn", "error";
// format is either "text" or "json".
func New(w io.Writer, level, format string) (*StandardLogger, error) {
	lvl, e := GetLevel(level)
	if e != nil {
		return nil, e
	}

	l := logrus.New()
	l.SetOutput(w)
	l.SetLevel(lvl)
	l.SetFormatter(GetFormatter(format))
	return &StandardLogger{entry: logrus.NewEntry(l)}, nil
}

func (l *StandardLogger) Debug(format string, params ...any) {
	l.entry.Debugf(format, params...)
}

func (l *StandardLogger) Info(format string, params ...any) {
	l.entry.Infof(format, params...)
}

func (l *StandardLogger) Warn(format string, params ...any) {
	l.entry.Warnf(format, params...)
}

func (l *StandardLogger) Error(format string, params ...any) {
	l.entry.Errorf(format, params...)
}

func (l *StandardLogger) WithFields(fields Fields) Logger {
	return &StandardLogger{entry: l.entry.WithFields(fields)}
}

// NoOpLogger discards all entries.
type NoOpLogger struct{}

// NewNoOpLogger returns logger that does nothing.
func NewNoOpLogger() NoOpLogger {
	return NoOpLogger{}
}

func (NoOpLogger) Debug(string, ...any)       {}
func (NoOpLogger) Info(string, ...any)        {}
func (NoOpLogger) Warn(string, ...any)        {}
func (NoOpLogger) Error(string, ...any)       {}
func (l NoOpLogger) WithFields(Fields) Logger { return l }

// GetLevel converts level name to logrus level, empty name means "info".
func GetLevel(level string) (logrus.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return logrus.DebugLevel, nil
	case "", "info":
		return logrus.InfoLevel, nil
	case "warn":
		return logrus.WarnLevel, nil
	case "error":
		return logrus.ErrorLevel, nil
	default:
		return logrus.DebugLevel, fmt.Errorf("invalid log level: %v", level)
	}
}

// GetFormatter returns logrus formatter for format name, JSON formatter is the default.
func GetFormatter(format string) logrus.Formatter {
	switch format {
	case "text":
		return &logrus.TextFormatter{DisableTimestamp: true}
	case "json-pretty":
		return &logrus.JSONFormatter{PrettyPrint: true}
	default:
		return &logrus.JSONFormatter{}
	}
}
