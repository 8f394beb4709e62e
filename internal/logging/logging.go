// Package logging hands out scoped leveled loggers for the module.
package logging

import (
	"github.com/pion/logging"
)

var loggerFactory logging.LoggerFactory = logging.NewDefaultLoggerFactory()

// SetFactory replaces the factory used for loggers created after the call.
// Hosts embedding the source can route logs into their own sink with it.
func SetFactory(f logging.LoggerFactory) {
	loggerFactory = f
}

// NewLogger returns a leveled logger for the given scope, e.g.
// "spinsrc/session".
func NewLogger(scope string) logging.LeveledLogger {
	return loggerFactory.NewLogger(scope)
}
