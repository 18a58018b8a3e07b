package logutil

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"":        slog.LevelInfo,
		"DEBUG":   slog.LevelDebug,
		"warning": slog.LevelWarn,
		" error ": slog.LevelError,
	}
	for in, want := range cases {
		got, err := ParseLevel(in)
		if err != nil {
			t.Fatalf("ParseLevel(%q): %v", in, err)
		}
		if got != want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}

func TestNewWithWriter_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewWithWriter(&buf, "info", "json")
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}
	logger.Debug("hidden")
	logger.Info("dispatch_ready", "channel_id", "42")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("debug line should be filtered: %s", out)
	}
	if !strings.Contains(out, `"channel_id":"42"`) {
		t.Fatalf("expected json attrs, got %s", out)
	}
}

func TestNewWithWriter_UnknownFormat(t *testing.T) {
	if _, err := NewWithWriter(&bytes.Buffer{}, "", "xml"); err == nil {
		t.Fatalf("expected error for unknown format")
	}
}
