package log

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/aleysapc/docsearch/internal/config"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var data map[string]any
		if err := json.Unmarshal([]byte(line), &data); err != nil {
			t.Fatalf("line is not valid JSON: %v: %s", err, line)
		}
		out = append(out, data)
	}
	return out
}

func TestNewLogger_Formats(t *testing.T) {
	for _, format := range []config.LogFormat{config.LogFormatPretty, config.LogFormatJSON} {
		cfg := config.NewAppConfigWithOptions(config.WithLogFormat(format))
		if NewLogger(cfg) == nil {
			t.Fatalf("NewLogger(%s) returned nil", format)
		}
	}
}

func TestLogger_TextFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter(&buf, config.LogFormatPretty, "INFO")

	logger.Info("documento indexado", slog.Int64("document_id", 7))

	out := buf.String()
	if !strings.Contains(out, `msg="documento indexado"`) || !strings.Contains(out, "document_id=7") {
		t.Errorf("unexpected text output: %s", out)
	}
}

func TestLogger_FiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter(&buf, config.LogFormatJSON, "WARN")

	logger.Debug("debug")
	logger.Info("info")
	logger.Warn("warn")
	logger.Error("error")

	lines := decodeLines(t, &buf)
	if len(lines) != 2 {
		t.Errorf("expected 2 log lines, got %d", len(lines))
	}
}

func TestLogger_ContextIDs(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter(&buf, config.LogFormatJSON, "INFO").With("component", "api")

	ctx := WithRequestID(WithCorrelationID(context.Background(), "corr-123"), "req-456")
	logger.InfoContext(ctx, "with ids")
	logger.InfoContext(context.Background(), "without ids")

	lines := decodeLines(t, &buf)
	if len(lines) != 2 {
		t.Fatalf("expected 2 log lines, got %d", len(lines))
	}
	if lines[0]["correlation_id"] != "corr-123" || lines[0]["request_id"] != "req-456" {
		t.Errorf("ids missing: %v", lines[0])
	}
	if lines[0]["component"] != "api" {
		t.Errorf("With attributes lost: %v", lines[0])
	}
	if _, ok := lines[1]["correlation_id"]; ok {
		t.Error("should not have correlation_id when not set")
	}
}

func TestContextIDs_NotSet(t *testing.T) {
	ctx := context.Background()
	if CorrelationID(ctx) != "" {
		t.Error("CorrelationID() should be empty when not set")
	}
	if RequestID(ctx) != "" {
		t.Error("RequestID() should be empty when not set")
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected slog.Level
	}{
		{"DEBUG", slog.LevelDebug},
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"WARNING", slog.LevelWarn},
		{"error", slog.LevelError},
		{"unknown", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ParseLevel(tt.input); got != tt.expected {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestConfigure(t *testing.T) {
	previous := slog.Default()
	t.Cleanup(func() { slog.SetDefault(previous) })

	cfg := config.NewAppConfigWithOptions(
		config.WithLogLevel("DEBUG"),
		config.WithLogFormat(config.LogFormatJSON),
	)
	logger := Configure(cfg)

	if slog.Default() != logger {
		t.Error("Configure() should set the default logger")
	}
}
