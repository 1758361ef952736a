// Package logger provides the structured, zerolog-backed logging used
// across the orchestrator: one process-wide sink (console or JSON,
// optionally mirrored to a file) plus a handful of scoped-logger
// constructors for the fields this codebase actually correlates on —
// agent, session_id, hook_type, and conn_id.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// LogConfig holds logger configuration.
type LogConfig struct {
	Level  string `json:"level" mapstructure:"level"`   // debug, info, warn, error
	Format string `json:"format" mapstructure:"format"` // console, json
	File   string `json:"file" mapstructure:"file"`     // log file path, empty means no file
}

var (
	globalLogger zerolog.Logger
	logFile      *os.File
	mu           sync.RWMutex
	initialized  bool
)

func parseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "fatal":
		return zerolog.FatalLevel
	default:
		return zerolog.InfoLevel
	}
}

// Init wires the process-wide sink. Format "console" renders to stderr
// with a human-readable writer; anything else emits raw JSON lines. A
// non-empty File mirrors every record to disk as well.
func Init(config LogConfig) error {
	mu.Lock()
	defer mu.Unlock()

	zerolog.SetGlobalLevel(parseLevel(config.Level))

	var writers []io.Writer
	if strings.ToLower(config.Format) == "console" {
		writers = append(writers, zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: "15:04:05",
		})
	} else {
		writers = append(writers, os.Stderr)
	}

	if config.File != "" {
		f, err := os.OpenFile(config.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
		if err != nil {
			return fmt.Errorf("open log file %s: %w", config.File, err)
		}
		logFile = f
		writers = append(writers, f)
	}

	output := writers[0]
	if len(writers) > 1 {
		output = io.MultiWriter(writers...)
	}

	globalLogger = zerolog.New(output).With().Timestamp().Logger()
	initialized = true
	return nil
}

// Get returns the process-wide logger, falling back to an unconfigured
// stderr logger if Init hasn't run yet (e.g. early-boot warnings, tests).
func Get() *zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	if !initialized {
		l := zerolog.New(os.Stderr).With().Timestamp().Logger()
		return &l
	}
	return &globalLogger
}

// Close closes the mirrored log file, if Init opened one.
func Close() error {
	mu.Lock()
	defer mu.Unlock()

	if logFile == nil {
		return nil
	}
	err := logFile.Close()
	logFile = nil
	return err
}

// With derives a logger carrying the given key/value pairs, e.g.
// logger.With("agent", "qa", "task_id", id). A key with no matching
// value, or a non-string key, is skipped.
func With(keyvals ...any) *zerolog.Logger {
	ctx := Get().With()
	for i := 0; i+1 < len(keyvals); i += 2 {
		key, ok := keyvals[i].(string)
		if !ok {
			continue
		}
		ctx = ctx.Interface(key, keyvals[i+1])
	}
	l := ctx.Logger()
	return &l
}

// ForAgent scopes a logger to one fan-out agent invocation (the
// subprocess strategy's per-delegation worker, C10).
func ForAgent(agent string) *zerolog.Logger {
	return With("agent", agent)
}

// ForSession scopes a logger to one orchestrator session (C11/C12).
func ForSession(sessionID string) *zerolog.Logger {
	return With("session_id", sessionID)
}

// ForHook scopes a logger to one hook-stage round trip against the
// external hook service (C7).
func ForHook(hookType string) *zerolog.Logger {
	return With("hook_type", hookType)
}

// ForConn scopes a logger to one pooled event-stream connection (C8).
func ForConn(connID string) *zerolog.Logger {
	return With("conn_id", connID)
}

// Debug returns a debug level event on the process-wide logger.
func Debug() *zerolog.Event {
	return Get().Debug()
}

// Info returns an info level event on the process-wide logger.
func Info() *zerolog.Event {
	return Get().Info()
}

// Warn returns a warn level event on the process-wide logger.
func Warn() *zerolog.Event {
	return Get().Warn()
}

// Error returns an error level event on the process-wide logger.
func Error() *zerolog.Event {
	return Get().Error()
}

// Fatal returns a fatal level event on the process-wide logger.
func Fatal() *zerolog.Event {
	return Get().Fatal()
}

// Debugf logs a formatted debug message on the process-wide logger.
func Debugf(format string, args ...any) {
	Get().Debug().Msgf(format, args...)
}

// Infof logs a formatted info message on the process-wide logger.
func Infof(format string, args ...any) {
	Get().Info().Msgf(format, args...)
}

// Warnf logs a formatted warn message on the process-wide logger.
func Warnf(format string, args ...any) {
	Get().Warn().Msgf(format, args...)
}

// Errorf logs a formatted error message on the process-wide logger.
func Errorf(format string, args ...any) {
	Get().Error().Msgf(format, args...)
}
