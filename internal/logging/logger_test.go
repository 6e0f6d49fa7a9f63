package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

func decodeLines(t *testing.T, content string) []map[string]any {
	t.Helper()
	content = strings.TrimSpace(content)
	if content == "" {
		return nil
	}
	var entries []map[string]any
	for i, line := range strings.Split(content, "\n") {
		var entry map[string]any
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			t.Fatalf("line %d is not valid JSON: %v", i, err)
		}
		entries = append(entries, entry)
	}
	return entries
}

func TestNewLogger(t *testing.T) {
	t.Run("creates log file in directory", func(t *testing.T) {
		dir := t.TempDir()

		logger, err := NewLogger(dir, LevelDebug)
		if err != nil {
			t.Fatalf("NewLogger failed: %v", err)
		}
		defer logger.Close()

		logPath := filepath.Join(dir, LogFileName)
		if _, err := os.Stat(logPath); os.IsNotExist(err) {
			t.Errorf("log file was not created at %s", logPath)
		}
	})

	t.Run("writes to stderr when dir is empty", func(t *testing.T) {
		logger, err := NewLogger("", LevelInfo)
		if err != nil {
			t.Fatalf("NewLogger failed: %v", err)
		}
		defer logger.Close()

		if logger.file != nil {
			t.Error("expected file to be nil when dir is empty")
		}
	})
}

func TestLogLevels(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWriterLogger(&buf, LevelDebug)

	logger.Debug("debug message", "key", "value")
	logger.Info("info message", "key", "value")
	logger.Warn("warn message", "key", "value")
	logger.Error("error message", "key", "value")

	entries := decodeLines(t, buf.String())
	if len(entries) != 4 {
		t.Fatalf("expected 4 log lines, got %d", len(entries))
	}

	expectedLevels := []string{"DEBUG", "INFO", "WARN", "ERROR"}
	for i, entry := range entries {
		if entry["level"] != expectedLevels[i] {
			t.Errorf("line %d: expected level %s, got %v", i, expectedLevels[i], entry["level"])
		}
		if entry["key"] != "value" {
			t.Errorf("line %d: expected key=value, got key=%v", i, entry["key"])
		}
	}
}

func TestSetLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWriterLogger(&buf, LevelWarn)
	child := logger.WithComponent("transport")

	child.Info("filtered")
	if buf.Len() != 0 {
		t.Fatalf("expected INFO to be filtered at WARN, got %q", buf.String())
	}

	// Changing the level on the root affects children.
	logger.SetLevel("debug")
	if child.Level() != LevelDebug {
		t.Errorf("child.Level() = %q, want %q", child.Level(), LevelDebug)
	}
	child.Debug("visible")

	entries := decodeLines(t, buf.String())
	if len(entries) != 1 || entries[0]["msg"] != "visible" {
		t.Errorf("expected one visible DEBUG line, got %v", entries)
	}
}

func TestContextPropagation(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWriterLogger(&buf, LevelInfo)

	child := logger.WithSession("session-123").WithRole("server").WithPeer("127.0.0.1:5000").WithComponent("protocol")
	child.Info("test message", "extra", "data")

	entries := decodeLines(t, buf.String())
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	entry := entries[0]

	checks := map[string]string{
		"session_id": "session-123",
		"role":       "server",
		"peer":       "127.0.0.1:5000",
		"component":  "protocol",
		"extra":      "data",
	}
	for key, want := range checks {
		if entry[key] != want {
			t.Errorf("expected %s=%s, got %v", key, want, entry[key])
		}
	}
}

func TestWith(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWriterLogger(&buf, LevelInfo)

	logger.With("seq", 42, 7, "ignored-non-string-key").Info("test message")

	entries := decodeLines(t, buf.String())
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	// JSON numbers are float64
	if entries[0]["seq"] != float64(42) {
		t.Errorf("expected seq=42, got %v", entries[0]["seq"])
	}

	if logger.With() != logger {
		t.Error("With() with no args should return the receiver")
	}
}

func TestNopLogger(t *testing.T) {
	logger := NopLogger()

	logger.Debug("debug")
	logger.Info("info")
	logger.Warn("warn")
	logger.Error("error")

	if err := logger.Close(); err != nil {
		t.Errorf("NopLogger.Close() returned error: %v", err)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"DEBUG", LevelDebug},
		{"debug", LevelDebug},
		{"info", LevelInfo},
		{"WARN", LevelWarn},
		{"error", LevelError},
		{"invalid", LevelInfo},
		{"", LevelInfo},
	}

	for _, tc := range tests {
		if got := ParseLevel(tc.input); got != tc.expected {
			t.Errorf("ParseLevel(%q) = %q, expected %q", tc.input, got, tc.expected)
		}
	}
}

func TestClose(t *testing.T) {
	dir := t.TempDir()

	logger, err := NewLogger(dir, LevelInfo)
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}

	logger.WithRole("client").Info("test message")

	if err := logger.Close(); err != nil {
		t.Errorf("Close() returned error: %v", err)
	}
	if err := logger.Close(); err != nil {
		t.Errorf("Second Close() returned error: %v", err)
	}

	content, err := os.ReadFile(filepath.Join(dir, LogFileName))
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}
	if len(content) == 0 {
		t.Error("log file is empty, expected content")
	}
}

func TestConcurrentWrites(t *testing.T) {
	dir := t.TempDir()

	logger, err := NewLogger(dir, LevelInfo)
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				logger.Info("concurrent write", "goroutine", n, "iteration", j)
			}
		}(i)
	}
	wg.Wait()
	logger.Close()

	content, err := os.ReadFile(filepath.Join(dir, LogFileName))
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}

	entries := decodeLines(t, string(content))
	if len(entries) != 1000 {
		t.Errorf("expected 1000 log lines, got %d", len(entries))
	}
}
