// Package log provides the logger used across tarx. The default
// implementation writes through logrus; callers can swap it with SetLogger.
package log

import (
	"github.com/sirupsen/logrus"
)

// Logger is the logging surface tarx depends on.
type Logger interface {
	Errorf(format string, args ...any)
	Warnf(format string, args ...any)
	Infof(format string, args ...any)
	Debugf(format string, args ...any)
	WithField(key string, value any) *logrus.Entry
}

var logger Logger = logrus.StandardLogger()

// SetLogger replaces the package logger.
func SetLogger(l Logger) { logger = l }

// SetVerbose switches the standard logrus logger between info and debug.
func SetVerbose(verbose bool) {
	level := logrus.InfoLevel
	if verbose {
		level = logrus.DebugLevel
	}
	logrus.SetLevel(level)
}

// Errorf is the static Errorf function.
func Errorf(format string, args ...any) {
	logger.Errorf(format, args...)
}

// Warnf is the static Warnf function.
func Warnf(format string, args ...any) {
	logger.Warnf(format, args...)
}

// Infof is the static Infof function.
func Infof(format string, args ...any) {
	logger.Infof(format, args...)
}

// Debugf is the static Debugf function.
func Debugf(format string, args ...any) {
	logger.Debugf(format, args...)
}

// WithField returns an entry carrying one structured field.
func WithField(key string, value any) *logrus.Entry {
	return logger.WithField(key, value)
}
