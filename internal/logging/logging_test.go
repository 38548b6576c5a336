package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestNewWithWriter_Formats(t *testing.T) {
	tests := []struct {
		format string
		want   []string
	}{
		{"text", []string{"cycle started", "cycle=3"}},
		{"json", []string{`"msg":"cycle started"`, `"cycle":3`}},
		{"TEXT", []string{"cycle=3"}},
	}
	for _, tt := range tests {
		var buf bytes.Buffer
		NewWithWriter(slog.LevelInfo, tt.format, &buf).Info("cycle started", "cycle", 3)
		for _, want := range tt.want {
			if !strings.Contains(buf.String(), want) {
				t.Errorf("format %s: missing %q in %s", tt.format, want, buf.String())
			}
		}
	}
}

func TestNewWithWriter_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(slog.LevelWarn, "text", &buf)

	logger.Info("command initialized")
	logger.Warn("hook failed")

	output := buf.String()
	if strings.Contains(output, "command initialized") {
		t.Errorf("INFO message should be filtered at WARN level, got: %s", output)
	}
	if !strings.Contains(output, "hook failed") {
		t.Errorf("WARN message should appear at WARN level, got: %s", output)
	}
}

func TestNewWithWriter_DebugAddsSource(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(slog.LevelDebug, "text", &buf).With("component", "scheduler")
	logger.Debug("periodic", "subsystem", "arm")

	output := buf.String()
	for _, want := range []string{"component=scheduler", "subsystem=arm", "source="} {
		if !strings.Contains(output, want) {
			t.Errorf("missing %q in %s", want, output)
		}
	}
}

func TestDiscard(t *testing.T) {
	if Discard().Enabled(context.Background(), slog.LevelError) {
		t.Error("discard logger should not be enabled at error level")
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input   string
		want    slog.Level
		wantErr bool
	}{
		{"debug", slog.LevelDebug, false},
		{"DEBUG", slog.LevelDebug, false},
		{"info", slog.LevelInfo, false},
		{"", slog.LevelInfo, false},
		{"warn", slog.LevelWarn, false},
		{"warning", slog.LevelWarn, false},
		{"ERROR", slog.LevelError, false},
		{"verbose", slog.LevelInfo, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLevel(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}
