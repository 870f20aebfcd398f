package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"repo-clipboard/internal/config"
)

func TestSetup_SetsDefault(t *testing.T) {
	previous := slog.Default()
	t.Cleanup(func() { slog.SetDefault(previous) })

	logger := Setup(&config.Config{LogFormat: "text", LogLevel: "info"})
	if logger == nil {
		t.Fatal("Expected logger, got nil")
	}
	if slog.Default() != logger {
		t.Error("Logger was not set as default")
	}
}

func TestNew_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&config.Config{LogFormat: "JSON", LogLevel: "debug"}, &buf)

	logger.Debug("Cloning repository", "repository", "demo")

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("Expected a JSON record, got %q: %v", buf.String(), err)
	}
	if record["msg"] != "Cloning repository" {
		t.Errorf("msg = %v, expected Cloning repository", record["msg"])
	}
	if record["repository"] != "demo" {
		t.Errorf("repository = %v, expected demo", record["repository"])
	}
}

func TestNew_TextFormatIsDefault(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&config.Config{}, &buf)

	logger.Info("Repository updated", "branch", "main")

	out := buf.String()
	if !strings.Contains(out, "msg=\"Repository updated\"") || !strings.Contains(out, "branch=main") {
		t.Errorf("Unexpected text output: %q", out)
	}
}

func TestNew_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&config.Config{LogLevel: "warn"}, &buf)

	logger.Info("hidden")
	logger.Warn("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("Info record should be filtered at warn level: %q", out)
	}
	if !strings.Contains(out, "shown") {
		t.Errorf("Warn record missing: %q", out)
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"Warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"unknown", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := parseLogLevel(tt.input); got != tt.expected {
				t.Errorf("parseLogLevel(%q) = %v, expected %v", tt.input, got, tt.expected)
			}
		})
	}
}
