// Package log provides the console logging capabilities to repeater modules
// such as the app, the clock and the entanglement sessions.
package log

import (
	"io"
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// mainLoggerName is a name of the global logger.
const mainLoggerName = "00000.defaultLogger"

// where logs go by default.
var logWriter io.Writer = os.Stdout

var (
	mu      sync.RWMutex
	appLog  Log
	jsonLog bool
)

func init() {
	SetupGlobal(NewWithLevel(mainLoggerName, zap.NewAtomicLevelAt(zapcore.InfoLevel)))
}

// Level is an alias to zapcore.Level.
type Level = zapcore.Level

// DefaultLevel returns the level used for modules without an explicit level.
func DefaultLevel() Level {
	return zapcore.InfoLevel
}

// JSONLog turns JSON format on or off for loggers created after the call.
func JSONLog(b bool) {
	mu.Lock()
	defer mu.Unlock()
	jsonLog = b
}

// SetWriter redirects loggers created after the call to w.
func SetWriter(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	logWriter = w
}

func encoder() zapcore.Encoder {
	cfg := zap.NewDevelopmentEncoderConfig()
	if jsonLog {
		return zapcore.NewJSONEncoder(cfg)
	}
	return zapcore.NewConsoleEncoder(cfg)
}

// GetLogger gets the global logger.
func GetLogger() Log {
	mu.RLock()
	defer mu.RUnlock()
	return appLog
}

// SetupGlobal overwrites global logger.
func SetupGlobal(logger Log) {
	mu.Lock()
	defer mu.Unlock()
	appLog = logger
}

// Log is an exported type that embeds our logger.
type Log struct {
	logger *zap.Logger
}

// NewNop creates silent logger.
func NewNop() Log {
	return NewFromLog(zap.NewNop())
}

// NewWithLevel creates a logger with a fixed level and with a set of (optional) hooks.
func NewWithLevel(module string, level zap.AtomicLevel, hooks ...func(zapcore.Entry) error) Log {
	mu.RLock()
	enc, w := encoder(), logWriter
	mu.RUnlock()
	core := zapcore.NewCore(enc, zapcore.AddSync(w), level)
	return NewFromLog(zap.New(zapcore.RegisterHooks(core, hooks...)).Named(module))
}

// NewFromLog creates a Log from an existing zap-compatible log.
func NewFromLog(l *zap.Logger) Log {
	return Log{logger: l}
}

// Zap returns the underlying zap logger.
func (l Log) Zap() *zap.Logger {
	return l.logger
}

// Named returns a logger with name appended to the existing name.
func (l Log) Named(name string) Log {
	return Log{logger: l.logger.Named(name)}
}

// Check returns true if the logger is enabled for the level.
func (l Log) Check(level Level) bool {
	return l.logger.Core().Enabled(level)
}

// SetLevel returns a logger whose level is controlled by lvl.
// The new level can only be equal or more restrictive than the current one.
func (l Log) SetLevel(lvl *zap.AtomicLevel) Log {
	return Log{logger: l.logger.WithOptions(zap.IncreaseLevel(lvl))}
}

// Info prints an info level message through the global logger.
func Info(msg string, fields ...zap.Field) {
	GetLogger().logger.Info(msg, fields...)
}

// Debug prints a debug level message through the global logger.
func Debug(msg string, fields ...zap.Field) {
	GetLogger().logger.Debug(msg, fields...)
}

// Warning prints a warning level message through the global logger.
func Warning(msg string, fields ...zap.Field) {
	GetLogger().logger.Warn(msg, fields...)
}
