package log

import (
	"context"
	"io"
	"os"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

// ZerologProvider implements LoggerProvider on top of zerolog.
type ZerologProvider struct {
	mu    sync.RWMutex
	base  zerolog.Logger
	level Level
}

// NewZerologProvider creates a provider emitting JSON lines to stderr.
func NewZerologProvider(level Level) *ZerologProvider {
	return NewZerologProviderWithWriter(os.Stderr, level)
}

// NewZerologProviderWithWriter creates a provider writing to w. Pass a
// zerolog.ConsoleWriter for human-readable output.
func NewZerologProviderWithWriter(w io.Writer, level Level) *ZerologProvider {
	return &ZerologProvider{
		base:  zerolog.New(w).With().Timestamp().Logger().Level(toZerologLevel(level)),
		level: level,
	}
}

// GetLogger implements LoggerProvider.GetLogger.
func (p *ZerologProvider) GetLogger() Logger {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return &zerologLogger{logger: p.base}
}

// GetLoggerWithName implements LoggerProvider.GetLoggerWithName.
func (p *ZerologProvider) GetLoggerWithName(name string) Logger {
	return p.GetLogger().With(ComponentKey, name)
}

// SetLevel implements LoggerProvider.SetLevel. Loggers obtained earlier keep
// the level they were created with.
func (p *ZerologProvider) SetLevel(level Level) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.level = level
	p.base = p.base.Level(toZerologLevel(level))
}

type zerologLogger struct {
	logger zerolog.Logger
}

func (l *zerologLogger) Debug(msg string, fields ...any) {
	l.emit(l.logger.Debug(), msg, fields)
}

func (l *zerologLogger) Info(msg string, fields ...any) {
	l.emit(l.logger.Info(), msg, fields)
}

func (l *zerologLogger) Warn(msg string, fields ...any) {
	l.emit(l.logger.Warn(), msg, fields)
}

func (l *zerologLogger) Error(msg string, fields ...any) {
	l.emit(l.logger.Error(), msg, fields)
}

func (l *zerologLogger) With(fields ...any) Logger {
	return &zerologLogger{logger: l.logger.With().Fields(normalizeFields(fields)).Logger()}
}

func (l *zerologLogger) Enabled(_ context.Context, level Level) bool {
	return l.logger.GetLevel() <= toZerologLevel(level)
}

func (l *zerologLogger) emit(e *zerolog.Event, msg string, fields []any) {
	if e == nil {
		return
	}
	if len(fields) > 0 {
		if err, ok := fields[0].(error); ok {
			e = e.Err(err)
			if st := extractStacktrace(err); st != "" {
				e = e.Str(StacktraceKey, st)
			}
			fields = fields[1:]
		}
	}
	e.Fields(normalizeFields(fields)).Msg(msg)
}

// normalizeFields drops a dangling key so zerolog never sees an odd list.
func normalizeFields(fields []any) []any {
	if len(fields)%2 == 1 {
		return fields[:len(fields)-1]
	}
	return fields
}

func toZerologLevel(level Level) zerolog.Level {
	switch {
	case level <= LevelDebug:
		return zerolog.DebugLevel
	case level <= LevelInfo:
		return zerolog.InfoLevel
	case level <= LevelWarn:
		return zerolog.WarnLevel
	default:
		return zerolog.ErrorLevel
	}
}

// extractStacktrace returns the first safe detail recorded by cockroachdb/errors,
// which holds the formatted stack of errors created with WithStack.
func extractStacktrace(err error) string {
	safeDetails := errors.GetSafeDetails(err).SafeDetails
	if len(safeDetails) > 0 {
		return safeDetails[0]
	}
	return ""
}
