// Package logger adapts rs/zerolog to the core Logger interface.
//
// Log lines go to stderr so that command output on stdout (tables, listings)
// stays machine readable. APP_ENV=dev selects the human console format.
package logger

import corelogger "github.com/kilianp07/sweep/core/logger"

type Logger = corelogger.Logger

// NopLogger discards everything.
type NopLogger struct{}

func (NopLogger) Debugf(string, ...any)         {}
func (NopLogger) Debugw(string, map[string]any) {}
func (NopLogger) Infof(string, ...any)          {}
func (NopLogger) Warnf(string, ...any)          {}
func (NopLogger) Errorf(string, ...any)         {}

// New returns a Logger tagging every line with component.
func New(component string) Logger {
	return NewZerologLogger(component)
}
