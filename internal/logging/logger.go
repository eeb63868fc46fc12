// Package logging provides structured logging for CarKeeper Core.
package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"
	"time"
)

// Level represents a log level.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// String returns the level name as it appears in log output.
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
	}
	return "INFO"
}

// ParseLevel maps a config string onto a Level. Unknown values fall back
// to Info.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// Logger writes level-filtered structured JSON log lines.
type Logger struct {
	mu       sync.Mutex
	out      io.Writer
	minLevel Level
}

var (
	global *Logger
	once   sync.Once
)

// Init initializes the global logger. Subsequent calls are no-ops.
func Init(out io.Writer, minLevel Level) {
	once.Do(func() {
		global = &Logger{out: out, minLevel: minLevel}
	})
}

// Get returns the global logger, initializing it with defaults if needed.
func Get() *Logger {
	if global == nil {
		Init(os.Stderr, LevelInfo)
	}
	return global
}

// entry is the wire shape of a single log line.
type entry struct {
	Timestamp string         `json:"timestamp"`
	Level     string         `json:"level"`
	Message   string         `json:"message"`
	Error     string         `json:"error,omitempty"`
	Context   map[string]any `json:"context,omitempty"`
}

func (l *Logger) write(level Level, message string, err error, context map[string]any) {
	if level < l.minLevel {
		return
	}

	e := entry{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Level:     level.String(),
		Message:   message,
		Context:   context,
	}
	if err != nil {
		e.Error = err.Error()
	}

	data, jsonErr := json.Marshal(e)
	if jsonErr != nil {
		log.Printf("failed to marshal log entry: %v", jsonErr)
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintln(l.out, string(data))
}

// Debug logs a debug message.
func (l *Logger) Debug(message string, context ...map[string]any) {
	l.write(LevelDebug, message, nil, mergeContext(context...))
}

// Info logs an info message.
func (l *Logger) Info(message string, context ...map[string]any) {
	l.write(LevelInfo, message, nil, mergeContext(context...))
}

// Warn logs a warning message.
func (l *Logger) Warn(message string, context ...map[string]any) {
	l.write(LevelWarn, message, nil, mergeContext(context...))
}

// Error logs an error message with its cause.
func (l *Logger) Error(message string, err error, context ...map[string]any) {
	l.write(LevelError, message, err, mergeContext(context...))
}

func mergeContext(context ...map[string]any) map[string]any {
	switch len(context) {
	case 0:
		return nil
	case 1:
		return context[0]
	}
	merged := make(map[string]any)
	for _, c := range context {
		for k, v := range c {
			merged[k] = v
		}
	}
	return merged
}

// Convenience functions using the global logger.

func Debug(message string, context ...map[string]any) {
	Get().Debug(message, context...)
}

func Info(message string, context ...map[string]any) {
	Get().Info(message, context...)
}

func Warn(message string, context ...map[string]any) {
	Get().Warn(message, context...)
}

func Error(message string, err error, context ...map[string]any) {
	Get().Error(message, err, context...)
}
