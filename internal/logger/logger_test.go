package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"
)

func decodeEntry(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected valid JSON log output, got error: %v\nraw output: %s", err, buf.String())
	}
	return entry
}

func TestSetup_ReturnsJSONLogger(t *testing.T) {
	var buf bytes.Buffer
	l := Setup(&buf, Options{})

	l.Info("test message", slog.String("key", "value"))

	entry := decodeEntry(t, &buf)
	if entry["msg"] != "test message" {
		t.Errorf("msg = %q, want %q", entry["msg"], "test message")
	}
	if entry["key"] != "value" {
		t.Errorf("key = %q, want %q", entry["key"], "value")
	}
	if _, ok := entry["time"]; !ok {
		t.Error("expected time field")
	}
	if entry["level"] != "INFO" {
		t.Errorf("level = %v, want INFO", entry["level"])
	}
}

func TestSetup_ServiceField(t *testing.T) {
	var buf bytes.Buffer
	Setup(&buf, Options{Service: "jobboard"}).Info("started")

	if got := decodeEntry(t, &buf)["service"]; got != "jobboard" {
		t.Errorf("service = %v, want jobboard", got)
	}
}

func TestSetup_LevelFiltersDebug(t *testing.T) {
	var buf bytes.Buffer
	l := Setup(&buf, Options{Level: slog.LevelWarn})

	l.Info("dropped")
	if buf.Len() != 0 {
		t.Fatalf("info should be filtered at warn level, got %s", buf.String())
	}
	l.Warn("kept")
	if decodeEntry(t, &buf)["msg"] != "kept" {
		t.Error("warn should be written")
	}
}

func TestSetup_RedactsSensitiveAttributes(t *testing.T) {
	var buf bytes.Buffer
	l := Setup(&buf, Options{})

	l.Info("login attempt",
		slog.String("email", "taro@example.com"),
		slog.String("password", "hunter22"),
		slog.String("Token", "eyJhbGciOi"),
		slog.Group("env", slog.String("DATABASE_URL", "postgres://u:p@db/jobboard")),
	)

	entry := decodeEntry(t, &buf)
	if entry["email"] != "taro@example.com" {
		t.Errorf("email = %v", entry["email"])
	}
	if entry["password"] != RedactedValue {
		t.Errorf("password = %v, want redacted", entry["password"])
	}
	if entry["Token"] != RedactedValue {
		t.Errorf("Token = %v, want redacted", entry["Token"])
	}
	if got := entry["env"].(map[string]any)["DATABASE_URL"]; got != RedactedValue {
		t.Errorf("env.DATABASE_URL = %v, want redacted", got)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"", slog.LevelInfo},
		{"debug", slog.LevelDebug},
		{"WARN", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{" error ", slog.LevelError},
		{"verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestSetupDefault_SetsGlobalLogger(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })
	t.Setenv("LOG_LEVEL", "debug")

	var buf bytes.Buffer
	SetupDefault(&buf, "jobboard")

	slog.Default().Debug("global test", slog.String("test_key", "test_val"))

	entry := decodeEntry(t, &buf)
	if entry["msg"] != "global test" {
		t.Errorf("msg = %q, want %q", entry["msg"], "global test")
	}
	if entry["test_key"] != "test_val" || entry["service"] != "jobboard" {
		t.Errorf("entry = %v", entry)
	}
}
