package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{" error ", slog.LevelError},
		{"bogus", slog.LevelInfo},
		{"", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNewWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	New("info", &buf).Info("sweep started", "group", 1)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected JSON output, got %q: %v", buf.String(), err)
	}
	if entry["msg"] != "sweep started" {
		t.Errorf("expected msg 'sweep started', got %v", entry["msg"])
	}
	if entry["group"] != float64(1) {
		t.Errorf("expected group 1, got %v", entry["group"])
	}
}

func TestNewWithFormat(t *testing.T) {
	var buf bytes.Buffer
	NewWithFormat("text", "info", &buf).Info("hello")
	if !strings.Contains(buf.String(), "msg=hello") {
		t.Errorf("expected text output, got %q", buf.String())
	}

	buf.Reset()
	NewWithFormat("JSON", "info", &buf).Info("hello")
	if !strings.HasPrefix(strings.TrimSpace(buf.String()), "{") {
		t.Errorf("expected JSON output, got %q", buf.String())
	}
}

func TestPackageHelpersRespectLevel(t *testing.T) {
	prev := Default
	defer SetDefault(prev)

	tests := []struct {
		name     string
		level    string
		logFunc  func(string, ...any)
		expected bool
	}{
		{"debug at debug", "debug", Debug, true},
		{"debug at info", "info", Debug, false},
		{"info at warn", "warn", Info, false},
		{"warn at warn", "warn", Warn, true},
		{"error at error", "error", Error, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			SetDefault(New(tt.level, &buf))
			tt.logFunc("probe")
			if got := strings.Contains(buf.String(), "probe"); got != tt.expected {
				t.Errorf("expected logged=%v, got output %q", tt.expected, buf.String())
			}
		})
	}
}

func TestWith(t *testing.T) {
	prev := Default
	defer SetDefault(prev)

	var buf bytes.Buffer
	SetDefault(New("info", &buf))
	With("run_index", 3).Info("run completed")
	if !strings.Contains(buf.String(), `"run_index":3`) {
		t.Errorf("expected run_index attribute, got %q", buf.String())
	}
}
