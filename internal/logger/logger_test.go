package logger

import (
	"bytes"
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
		{"error", slog.LevelError},
		{"bogus", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer

	log := New(Options{Writer: &buf, Level: "warn"})
	log.Info("hidden")
	log.Warn("shown", "slug", "12345")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info record written at warn level: %s", out)
	}

	if !strings.Contains(out, "shown") || !strings.Contains(out, "slug=12345") {
		t.Errorf("warn record missing: %s", out)
	}
}

func TestLogger_WithSharesLevel(t *testing.T) {
	var buf bytes.Buffer

	log := New(Options{Writer: &buf, Level: "error"})
	child := log.With("component", "importer")

	log.SetLevel("debug")
	child.Debug("after level change")

	if !strings.Contains(buf.String(), "component=importer") {
		t.Errorf("child logger did not pick up level change: %q", buf.String())
	}
}

func TestLogger_JSON(t *testing.T) {
	var buf bytes.Buffer

	log := New(Options{Writer: &buf, Level: "info", JSON: true})
	log.Info("generated", "path", "_posts/a.md")

	if !strings.Contains(buf.String(), `"path":"_posts/a.md"`) {
		t.Errorf("expected JSON attribute, got %s", buf.String())
	}
}
