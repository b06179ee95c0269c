package config

import (
	"os"

	"github.com/sirupsen/logrus"
)

// Verbose enables debug output when true
var Verbose bool

// Log is the shared logger. Output goes to stderr so command output on
// stdout stays clean.
var Log = newLogger()

func newLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetFormatter(&logrus.TextFormatter{
		DisableTimestamp: true,
	})
	l.SetLevel(logrus.InfoLevel)
	return l
}

// SetVerbose toggles debug output and adjusts the logger level to match.
func SetVerbose(v bool) {
	Verbose = v
	if v {
		Log.SetLevel(logrus.DebugLevel)
	} else {
		Log.SetLevel(logrus.InfoLevel)
	}
}

// Debugf prints debug messages when Verbose is true
func Debugf(format string, args ...any) {
	if Verbose {
		Log.Debugf(format, args...)
	}
}

func Infof(format string, args ...any) {
	Log.Infof(format, args...)
}

func Warnf(format string, args ...any) {
	Log.Warnf(format, args...)
}
