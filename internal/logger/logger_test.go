package logger

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"ERROR", slog.LevelError},
		{"", slog.LevelInfo},
		{"bogus", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ParseLevel(tt.input); got != tt.expected {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestNew_JSONFormatInProduction(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{
		Writer:      &buf,
		Environment: "production",
		Level:       slog.LevelInfo,
	})

	log.Info("catalog saved", "records", 42)

	out := buf.String()
	if !strings.Contains(out, `"msg":"catalog saved"`) {
		t.Errorf("expected JSON output, got %q", out)
	}
	if !strings.Contains(out, `"records":42`) {
		t.Errorf("expected records attribute, got %q", out)
	}
}

func TestNew_TextFormatInDevelopment(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{
		Writer:      &buf,
		Environment: "development",
		Level:       slog.LevelInfo,
	})

	log.Warn("ambiguous match", "title", "Dune")

	out := buf.String()
	if !strings.Contains(out, "WRN") {
		t.Errorf("expected level label in output, got %q", out)
	}
	if !strings.Contains(out, "ambiguous match") {
		t.Errorf("expected message in output, got %q", out)
	}
	if !strings.Contains(out, "title=Dune") {
		t.Errorf("expected attribute in output, got %q", out)
	}
}

func TestTextHandler_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{
		Writer: &buf,
		Format: "text",
		Level:  slog.LevelWarn,
	})

	log.Info("should be dropped")
	log.Error("should be kept")

	out := buf.String()
	if strings.Contains(out, "should be dropped") {
		t.Errorf("info record not filtered: %q", out)
	}
	if !strings.Contains(out, "should be kept") {
		t.Errorf("error record missing: %q", out)
	}
}

func TestWithField(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Writer: &buf, Format: "text", Level: slog.LevelInfo})

	log.WithField("stage", "enrich").Info("starting")

	if !strings.Contains(buf.String(), "stage=enrich") {
		t.Errorf("expected bound field in output, got %q", buf.String())
	}
}
