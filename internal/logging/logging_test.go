package logging

import (
	"bytes"
	"strings"
	"testing"
)

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, Options{Level: "warn", Format: "text"})

	logger.Info("quiet")
	logger.Warn("loud")

	out := buf.String()
	if strings.Contains(out, "quiet") {
		t.Errorf("info line should be filtered, got %q", out)
	}
	if !strings.Contains(out, "loud") {
		t.Errorf("warn line missing from %q", out)
	}
}

func TestJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, Options{Level: "info", Format: "json"})

	logger.Info("hello", "key", "value")

	out := buf.String()
	if !strings.Contains(out, `"key":"value"`) {
		t.Errorf("expected JSON output, got %q", out)
	}
}

func TestUnknownValuesFallBack(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, Options{Level: "shout", Format: "morse"})

	logger.Debug("hidden")
	logger.Info("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("debug line should be filtered at the default level, got %q", out)
	}
	if !strings.Contains(out, "shown") {
		t.Errorf("info line missing from %q", out)
	}
}
