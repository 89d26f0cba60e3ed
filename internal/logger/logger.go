// Package logger provides preconfigured charmbracelet/log loggers for the
// miner's packages and CLIs.
package logger

import (
	"os"

	"github.com/charmbracelet/log"
)

// New creates a logger with the given prefix and the default options used
// across the project.
func New(prefix string) *log.Logger {
	return log.NewWithOptions(os.Stderr, log.Options{
		Prefix:          prefix,
		ReportCaller:    false,
		ReportTimestamp: true,
		Formatter:       log.TextFormatter,
		Level:           log.GetLevel(),
	})
}

// NewWithLevel creates a logger with an explicit level, for CLIs that take a
// verbosity flag.
func NewWithLevel(prefix string, level log.Level) *log.Logger {
	return log.NewWithOptions(os.Stderr, log.Options{
		Prefix:          prefix,
		ReportTimestamp: true,
		Formatter:       log.TextFormatter,
		Level:           level,
	})
}
