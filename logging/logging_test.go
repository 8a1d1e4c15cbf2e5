package logging

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
		ok   bool
	}{
		{"DEBUG", slog.LevelDebug, true},
		{"", slog.LevelInfo, true},
		{"INFO", slog.LevelInfo, true},
		{"WARNING", slog.LevelWarn, true},
		{"error", slog.LevelError, true},
		{"LOUD", slog.LevelInfo, false},
	}
	for _, tt := range tests {
		got, ok := ParseLevel(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseLevel(%q) = %v %v, want %v %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestLevelFilters(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "WARNING", "")
	log.Info("hidden")
	log.Warn("shown")
	if strings.Contains(buf.String(), "hidden") || !strings.Contains(buf.String(), "shown") {
		t.Errorf("unexpected output %q", buf.String())
	}
}

func TestProductionIsJSON(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, "INFO", "production").Info("hello", "component", "camera")
	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("not json: %q", buf.String())
	}
	if rec["msg"] != "hello" || rec["component"] != "camera" {
		t.Errorf("unexpected record %v", rec)
	}
}

func TestUnknownLevelWarns(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, "LOUD", "")
	if !strings.Contains(buf.String(), "unrecognized LOG_LEVEL") {
		t.Errorf("expected a warning, got %q", buf.String())
	}
}
