package log

import (
	"os"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"

	scigperrors "github.com/YuminosukeSato/scigp/pkg/errors"
)

var (
	globalMu     sync.RWMutex
	globalLogger Logger = NewZerologLogger(os.Stderr, LevelInfo)
)

// GetLogger returns the process-wide logger.
func GetLogger() Logger {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalLogger
}

// SetLogger replaces the process-wide logger. A nil logger is ignored.
func SetLogger(l Logger) {
	if l == nil {
		return
	}
	globalMu.Lock()
	defer globalMu.Unlock()
	globalLogger = l
}

// SetupLogger installs a JSON zerolog logger on stderr at the given level and
// routes library warnings through it.
func SetupLogger(loglevel string) error {
	level, err := ToLogLevel(loglevel)
	if err != nil {
		return err
	}
	SetLogger(NewZerologLogger(os.Stderr, level))
	scigperrors.SetZerologWarnFunc(func(w error) {
		GetLogger().Warn(w.Error(), "warning", w)
	})
	return nil
}

// ToLogLevel parses "debug", "info", "warn" or "error".
func ToLogLevel(level string) (Level, error) {
	switch strings.ToLower(level) {
	case "info", "":
		return LevelInfo, nil
	case "debug":
		return LevelDebug, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, errors.Newf("invalid log level: %s", level)
	}
}

// Provider is the default LoggerProvider backed by the global logger.
type Provider struct{}

// GetLogger implements LoggerProvider.GetLogger.
func (Provider) GetLogger() Logger { return GetLogger() }

// GetLoggerWithName implements LoggerProvider.GetLoggerWithName.
func (Provider) GetLoggerWithName(name string) Logger {
	return GetLogger().With(ComponentKey, name)
}

// SetLevel implements LoggerProvider.SetLevel.
func (Provider) SetLevel(level Level) {
	SetLogger(NewZerologLogger(os.Stderr, level))
}
