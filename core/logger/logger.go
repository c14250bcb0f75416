// Package logger defines the logging interface the core packages accept,
// so they never depend on a concrete logging library.
package logger

// Logger is a leveled, printf-style logger. Debugw attaches fields to a
// debug line for the per-run detail the scheduler emits.
type Logger interface {
	Debugf(format string, args ...any)
	Debugw(msg string, fields map[string]any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}
