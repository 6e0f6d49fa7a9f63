// Package logging provides structured logging for pokebattle peers.
// Entries are slog JSON lines carrying the session, role, peer, and
// component of whoever logged them.
//
// All types in this package are safe for concurrent use. Child loggers
// created via With* methods share the underlying handler and level, so
// SetLevel on any of them changes the level for the whole tree.
//
//	logger, err := logging.NewLogger("/path/to/logs", "INFO")
//	if err != nil {
//	    return err
//	}
//	defer logger.Close()
//
//	peerLogger := logger.WithSession(id).WithRole("server")
//	peerLogger.Warn("delivery failed", "seq", 12)
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
)

// Level names accepted by NewLogger and SetLevel.
const (
	LevelDebug = "DEBUG"
	LevelInfo  = "INFO"
	LevelWarn  = "WARN"
	LevelError = "ERROR"
)

// LogFileName is the file created inside the log directory.
const LogFileName = "battle.log"

// Logger is a slog JSON logger carrying persistent attributes.
type Logger struct {
	logger *slog.Logger
	level  *slog.LevelVar
	file   *os.File
	mu     *sync.Mutex  // Protects file operations; shared with children
	attrs  []slog.Attr // Persistent attributes (session, role, peer, component)
}

// NewLogger creates a new Logger that writes JSON-formatted logs to
// {dir}/battle.log. If dir is empty, logs are written to stderr.
// Messages below level are dropped.
func NewLogger(dir string, level string) (*Logger, error) {
	if dir == "" {
		return NewWriterLogger(os.Stderr, level), nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	logPath := filepath.Join(dir, LogFileName)
	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	l := NewWriterLogger(file, level)
	l.file = file
	return l, nil
}

// NewWriterLogger creates a Logger writing JSON lines to w.
func NewWriterLogger(w io.Writer, level string) *Logger {
	levelVar := new(slog.LevelVar)
	levelVar.Set(parseLevel(level))

	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: levelVar})

	return &Logger{
		logger: slog.New(handler),
		level:  levelVar,
		mu:     &sync.Mutex{},
		attrs:  make([]slog.Attr, 0),
	}
}

// parseLevel maps a level name to slog; unknown names mean INFO.
func parseLevel(level string) slog.Level {
	switch strings.ToUpper(level) {
	case LevelDebug:
		return slog.LevelDebug
	case LevelInfo:
		return slog.LevelInfo
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// SetLevel changes the minimum level for this logger and every logger
// derived from the same root.
func (l *Logger) SetLevel(level string) {
	l.level.Set(parseLevel(level))
}

// Level returns the current minimum level as one of the Level* constants.
func (l *Logger) Level() string {
	switch l.level.Level() {
	case slog.LevelDebug:
		return LevelDebug
	case slog.LevelWarn:
		return LevelWarn
	case slog.LevelError:
		return LevelError
	default:
		return LevelInfo
	}
}

// WithSession returns a new Logger with the battle session ID added to all log entries.
func (l *Logger) WithSession(sessionID string) *Logger {
	return l.withAttr(slog.String("session_id", sessionID))
}

// WithRole returns a new Logger tagged with the peer role ("server" or "client").
func (l *Logger) WithRole(role string) *Logger {
	return l.withAttr(slog.String("role", role))
}

// WithPeer returns a new Logger tagged with the remote peer address.
func (l *Logger) WithPeer(addr string) *Logger {
	return l.withAttr(slog.String("peer", addr))
}

// WithComponent returns a new Logger tagged with a component name
// such as "transport" or "protocol".
func (l *Logger) WithComponent(name string) *Logger {
	return l.withAttr(slog.String("component", name))
}

// With returns a child Logger carrying alternating key/value pairs.
// Pairs with a non-string key are skipped.
func (l *Logger) With(args ...any) *Logger {
	if len(args) == 0 {
		return l
	}

	attrs := slices.Clone(l.attrs)

	for i := 0; i < len(args)-1; i += 2 {
		key, ok := args[i].(string)
		if !ok {
			continue
		}
		attrs = append(attrs, slog.Any(key, args[i+1]))
	}

	return l.derive(attrs)
}

func (l *Logger) withAttr(attr slog.Attr) *Logger {
	return l.derive(append(slices.Clone(l.attrs), attr))
}

func (l *Logger) derive(attrs []slog.Attr) *Logger {
	return &Logger{
		logger: l.logger,
		level:  l.level,
		file:   l.file,
		mu:     l.mu,
		attrs:  attrs,
	}
}

// Debug logs at DEBUG.
func (l *Logger) Debug(msg string, args ...any) {
	l.log(slog.LevelDebug, msg, args...)
}

// Info logs at INFO.
func (l *Logger) Info(msg string, args ...any) {
	l.log(slog.LevelInfo, msg, args...)
}

// Warn logs at WARN.
func (l *Logger) Warn(msg string, args ...any) {
	l.log(slog.LevelWarn, msg, args...)
}

// Error logs at ERROR.
func (l *Logger) Error(msg string, args ...any) {
	l.log(slog.LevelError, msg, args...)
}

// log combines persistent attributes with per-call arguments.
func (l *Logger) log(level slog.Level, msg string, args ...any) {
	kv := make([]any, 0, len(l.attrs)*2+len(args))
	for _, a := range l.attrs {
		kv = append(kv, a.Key, a.Value.Any())
	}
	l.logger.Log(context.Background(), level, msg, append(kv, args...)...)
}

// Close syncs and closes the log file, if there is one.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file != nil {
		if err := l.file.Sync(); err != nil {
			return fmt.Errorf("failed to sync log file: %w", err)
		}
		if err := l.file.Close(); err != nil {
			return fmt.Errorf("failed to close log file: %w", err)
		}
		l.file = nil
	}
	return nil
}

// NopLogger returns a Logger that discards everything.
func NopLogger() *Logger {
	return NewWriterLogger(io.Discard, LevelError)
}

// ParseLevel normalises a level name to one of the Level constants,
// falling back to LevelInfo.
func ParseLevel(level string) string {
	switch strings.ToUpper(level) {
	case LevelDebug:
		return LevelDebug
	case LevelInfo:
		return LevelInfo
	case LevelWarn:
		return LevelWarn
	case LevelError:
		return LevelError
	default:
		return LevelInfo
	}
}

// ValidLevels lists the accepted level names.
func ValidLevels() []string {
	return []string{LevelDebug, LevelInfo, LevelWarn, LevelError}
}
