// Package logging configures the service logger.
package logging

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// ServiceLogger returns a logger tagged with the service name and version.
// Output is JSON unless debug is set, in which case it is text at debug level.
func ServiceLogger(name, version string, debug bool) *logrus.Entry {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	if debug {
		logger.SetLevel(logrus.DebugLevel)
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		logger.SetLevel(logrus.InfoLevel)
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	return logger.WithFields(logrus.Fields{
		"service": name,
		"version": version,
	})
}

// Discard returns a logger that drops everything, for tests.
func Discard() *logrus.Entry {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logrus.NewEntry(logger)
}
