package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{
			name: "JSON format to stdout",
			config: Config{
				Level:  "info",
				Format: "json",
				Output: "stdout",
			},
			wantErr: false,
		},
		{
			name: "Console format to stderr",
			config: Config{
				Level:  "debug",
				Format: "console",
				Output: "stderr",
			},
			wantErr: false,
		},
		{
			name: "Invalid log level defaults to info",
			config: Config{
				Level:  "invalid",
				Format: "json",
				Output: "stdout",
			},
			wantErr: false,
		},
		{
			name: "Unwritable file path",
			config: Config{
				Level:  "info",
				Format: "json",
				Output: "/nonexistent-dir/ytclipper/app.log",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := NewLogger(tt.config)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewLogger() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && logger == nil {
				t.Error("Expected non-nil logger")
			}
		})
	}
}

func captureLogger(buf *bytes.Buffer) *Logger {
	return New(zerolog.New(buf))
}

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]interface{} {
	t.Helper()
	var entries []map[string]interface{}
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]interface{}
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			t.Fatalf("Failed to decode log line %q: %v", line, err)
		}
		entries = append(entries, entry)
	}
	return entries
}

func TestLoggerWithFields(t *testing.T) {
	var buf bytes.Buffer
	logger := captureLogger(&buf)

	logger.WithVideoID("dQw4w9WgXcQ").
		WithClipID("clip-1").
		WithRequestID("req-123").
		WithFields(map[string]interface{}{"strategy": "primary"}).
		Info("clip created")

	entries := decodeLines(t, &buf)
	if len(entries) != 1 {
		t.Fatalf("Expected 1 entry, got %d", len(entries))
	}
	entry := entries[0]
	if entry["video_id"] != "dQw4w9WgXcQ" {
		t.Errorf("Expected video_id field, got %v", entry["video_id"])
	}
	if entry["clip_id"] != "clip-1" {
		t.Errorf("Expected clip_id field, got %v", entry["clip_id"])
	}
	if entry["request_id"] != "req-123" {
		t.Errorf("Expected request_id field, got %v", entry["request_id"])
	}
	if entry["strategy"] != "primary" {
		t.Errorf("Expected strategy field, got %v", entry["strategy"])
	}
}

func TestLoggerWithErrorAndFormatting(t *testing.T) {
	var buf bytes.Buffer
	logger := New(zerolog.New(&buf).Level(zerolog.DebugLevel))

	logger.Debugf("Trying %s strategy", "primary")
	logger.WithError(errors.New("context canceled")).Warnf("Strategy %s aborted: %s", "primary", "cancelled")

	entries := decodeLines(t, &buf)
	if len(entries) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(entries))
	}
	if entries[0]["level"] != "debug" || entries[0]["message"] != "Trying primary strategy" {
		t.Errorf("Unexpected debug entry: %v", entries[0])
	}
	if entries[1]["level"] != "warn" {
		t.Errorf("Expected warn level, got %v", entries[1]["level"])
	}
	if entries[1]["error"] != "context canceled" {
		t.Errorf("Expected error field, got %v", entries[1]["error"])
	}
	if entries[1]["message"] != "Strategy primary aborted: cancelled" {
		t.Errorf("Unexpected message: %v", entries[1]["message"])
	}
}

func TestLogToolInvocation(t *testing.T) {
	var buf bytes.Buffer
	logger := captureLogger(&buf)

	logger.LogToolInvocation("yt-dlp", "primary", 0, 2*time.Second, "ignored")
	logger.LogToolInvocation("yt-dlp", "fallback:firefox", 1, time.Second, "ERROR: Sign in to confirm you're not a bot")

	entries := decodeLines(t, &buf)
	if len(entries) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(entries))
	}
	if entries[0]["level"] != "info" {
		t.Errorf("Expected info level for success, got %v", entries[0]["level"])
	}
	if _, ok := entries[0]["stderr"]; ok {
		t.Error("Successful invocation should not log stderr")
	}
	if entries[1]["level"] != "warn" {
		t.Errorf("Expected warn level for failure, got %v", entries[1]["level"])
	}
	if !strings.Contains(entries[1]["stderr"].(string), "not a bot") {
		t.Errorf("Expected stderr in failure entry, got %v", entries[1]["stderr"])
	}
}

func TestLogHTTPRequestLevels(t *testing.T) {
	var buf bytes.Buffer
	logger := captureLogger(&buf)

	logger.LogHTTPRequest("POST", "/api/v1/clip", "192.168.1.1", 200, 100*time.Millisecond)
	logger.LogHTTPRequest("POST", "/api/v1/clip", "192.168.1.1", 400, time.Millisecond)
	logger.LogHTTPRequest("POST", "/api/v1/clip", "192.168.1.1", 500, time.Millisecond)

	entries := decodeLines(t, &buf)
	want := []string{"info", "warn", "error"}
	for i, level := range want {
		if entries[i]["level"] != level {
			t.Errorf("Entry %d: expected level %s, got %v", i, level, entries[i]["level"])
		}
	}
}

func TestTail(t *testing.T) {
	if got := Tail("short", 10); got != "short" {
		t.Errorf("Tail() = %q, want %q", got, "short")
	}
	if got := Tail("0123456789", 4); got != "...6789" {
		t.Errorf("Tail() = %q, want %q", got, "...6789")
	}
}

func TestNopLogger(t *testing.T) {
	logger := Nop()
	logger.WithVideoID("abc").Info("discarded")
	logger.LogCacheEvent("abc", "hit", "/tmp/abc.mp4")
	logger.LogStorageOperation("upload", "clips", "a.mp4", 1, time.Millisecond, nil)
	logger.LogDatabaseOperation("SELECT", time.Millisecond, nil)
}

func TestNewDefaultLogger(t *testing.T) {
	logger, err := NewDefaultLogger()
	if err != nil {
		t.Errorf("NewDefaultLogger() error = %v", err)
	}
	if logger == nil {
		t.Error("Expected non-nil logger from NewDefaultLogger")
	}
}

func BenchmarkLogWithFields(b *testing.B) {
	logger := New(zerolog.Nop())

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		logger.WithFields(map[string]interface{}{
			"key1": "value1",
			"key2": 123,
		}).Info("benchmark message")
	}
}
