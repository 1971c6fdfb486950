// Package log builds the loggers used by the engine and the command shell.
package log

import (
	"io"
	"os"
	"strconv"

	"github.com/sirupsen/logrus"
)

// DebugEnv enables debug logging when it parses as true.
const DebugEnv = "SYNTH_DEBUG"

// Logger is the subset of logrus used by the engine, so tests can pass a
// logger writing to a buffer.
type Logger interface {
	WithField(key string, value any) *logrus.Entry
	WithFields(fields logrus.Fields) *logrus.Entry
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
}

func debugEnabled() bool {
	debug, err := strconv.ParseBool(os.Getenv(DebugEnv))
	if err != nil {
		return false
	}

	return debug
}

// New returns a text logger writing to stderr, at debug level when
// SYNTH_DEBUG is set.
func New() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	if debugEnabled() {
		l.SetLevel(logrus.DebugLevel)
	}

	return l
}

// Discard returns a logger that drops everything.
func Discard() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)

	return l
}
