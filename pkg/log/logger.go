package log

import (
	"fmt"
	"strings"
	"sync"
)

var (
	providerMu      sync.RWMutex
	defaultProvider LoggerProvider
)

// SetProvider replaces the process-wide provider used by GetLogger.
func SetProvider(p LoggerProvider) {
	providerMu.Lock()
	defer providerMu.Unlock()
	defaultProvider = p
}

// GetProvider returns the process-wide provider, creating an info-level
// zerolog provider writing to stderr on first use.
func GetProvider() LoggerProvider {
	providerMu.RLock()
	p := defaultProvider
	providerMu.RUnlock()
	if p != nil {
		return p
	}

	providerMu.Lock()
	defer providerMu.Unlock()
	if defaultProvider == nil {
		defaultProvider = NewZerologProvider(LevelInfo)
	}
	return defaultProvider
}

// GetLogger returns the default logger of the process-wide provider.
func GetLogger() Logger {
	return GetProvider().GetLogger()
}

// ParseLevel converts a level name ("debug", "info", "warn", "error") to a Level.
func ParseLevel(level string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return LevelDebug, nil
	case "info", "":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, fmt.Errorf("invalid log level: %s", level)
	}
}

// ToLogLevel is ParseLevel for levels known to be valid. It panics otherwise.
func ToLogLevel(level string) Level {
	l, err := ParseLevel(level)
	if err != nil {
		panic(err.Error())
	}
	return l
}
