// Package logging provides file-based logging for planreview.
// Entries are appended to .planreview/logs/planreview.log.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/runoshun/plan-review/internal/domain"
)

// Ensure Logger implements domain.Logger interface.
var _ domain.Logger = (*Logger)(nil)

// Logger writes formatted entries to the planreview log file.
// Fields are ordered to minimize memory padding.
type Logger struct {
	file  *os.File
	now   func() time.Time
	dir   string
	mu    sync.Mutex
	level slog.Level
}

// New creates a new Logger that writes under dir (a .planreview directory).
// If dir is empty, logging is disabled.
func New(dir string, level slog.Level) *Logger {
	return &Logger{
		dir:   dir,
		level: level,
		now:   time.Now,
	}
}

// ParseLevel parses a log level string into slog.Level.
func ParseLevel(levelStr string) slog.Level {
	switch levelStr {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ensureFile opens or returns the log file. Caller holds mu.
func (l *Logger) ensureFile() (*os.File, error) {
	if l.file != nil {
		return l.file, nil
	}

	// Never create the planreview directory itself; it marks an initialized project.
	if _, err := os.Stat(l.dir); err != nil {
		return nil, fmt.Errorf("log directory: %w", err)
	}
	path := domain.LogPath(l.dir)
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("create logs directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o640) //nolint:gosec // Log file readable by owner and group
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	l.file = f
	return f, nil
}

// Close closes the log file.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}

// formatLog formats a log entry.
// Format: [2026-01-02 09:32:51] [INFO] [review-1a2b3c4d] [modify_task] message
func formatLog(t time.Time, level slog.Level, reviewID, category, msg string) string {
	scope := "global"
	if reviewID != "" {
		scope = "review-" + shortID(reviewID)
	}
	return fmt.Sprintf("[%s] [%s] [%s] [%s] %s\n",
		t.Format("2006-01-02 15:04:05"),
		level.String(),
		scope,
		category,
		msg,
	)
}

// shortID keeps log lines readable for uuid review ids.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func (l *Logger) log(level slog.Level, reviewID, category, msg string) {
	if l.dir == "" {
		return // Logging disabled
	}
	if level < l.level {
		return
	}

	entry := formatLog(l.now(), level, reviewID, category, msg)

	l.mu.Lock()
	defer l.mu.Unlock()
	if f, err := l.ensureFile(); err == nil {
		_, _ = io.WriteString(f, entry)
	}
}

// Info logs an info message.
func (l *Logger) Info(reviewID, category, msg string) {
	l.log(slog.LevelInfo, reviewID, category, msg)
}

// Debug logs a debug message.
func (l *Logger) Debug(reviewID, category, msg string) {
	l.log(slog.LevelDebug, reviewID, category, msg)
}

// Warn logs a warning message.
func (l *Logger) Warn(reviewID, category, msg string) {
	l.log(slog.LevelWarn, reviewID, category, msg)
}

// Error logs an error message.
func (l *Logger) Error(reviewID, category, msg string) {
	l.log(slog.LevelError, reviewID, category, msg)
}
