// Package log provides a structured logging interface for mleprep preprocessing runs.
//
// The interface is a minimal, slog-compatible surface so that the backend can
// be swapped without touching call sites. The default backend is zerolog (see
// ZerologProvider); tests use TestLogger to capture records in memory.
//
// Example usage:
//
//	logger := log.GetLogger().With(
//	    log.ComponentKey, "transformation",
//	)
//	logger.Info("Fitted preprocessor",
//	    log.OperationKey, log.OperationFitTransform,
//	    log.SamplesKey, 1000,
//	    log.FeaturesKey, 19,
//	)
package log

import (
	"context"
)

// Logger defines a structured logging interface compatible with Go's log/slog.
//
// Fields are alternating key/value pairs. Error treats an error passed as the
// first field specially: it is attached as the error of the record and its
// stack trace, if any, is added under StacktraceKey.
type Logger interface {
	// Debug logs a debug-level message with optional structured fields.
	Debug(msg string, fields ...any)

	// Info logs an info-level message with optional structured fields.
	//
	// Example:
	//   logger.Info("Read train and test data completed",
	//       log.SamplesKey, 1000,
	//   )
	Info(msg string, fields ...any)

	// Warn logs a warning-level message with optional structured fields.
	Warn(msg string, fields ...any)

	// Error logs an error-level message with optional structured fields.
	//
	// Example:
	//   logger.Error("Preprocessing failed",
	//       err,
	//       log.OperationKey, "fit_transform",
	//   )
	Error(msg string, fields ...any)

	// With returns a new Logger with the given fields pre-populated.
	With(fields ...any) Logger

	// Enabled reports whether the logger emits log records at the given level.
	Enabled(ctx context.Context, level Level) bool
}

// Level represents a logging level, compatible with slog.Level.
type Level int

// Standard logging levels, values are compatible with slog.Level.
const (
	LevelDebug Level = -4 // Detailed diagnostic information
	LevelInfo  Level = 0  // General operational information
	LevelWarn  Level = 4  // Warning conditions
	LevelError Level = 8  // Error conditions
)

// String returns the string representation of the log level.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// LoggerProvider defines an interface for creating and configuring loggers.
// This interface allows for dependency injection and testing with different
// logger implementations.
type LoggerProvider interface {
	// GetLogger returns the default logger instance.
	GetLogger() Logger

	// GetLoggerWithName returns a logger with a specific name/component identifier.
	GetLoggerWithName(name string) Logger

	// SetLevel sets the minimum log level for all loggers created by this provider.
	SetLevel(level Level)
}
