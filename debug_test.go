package stackmd

import (
	"bytes"
	"strings"
	"testing"
)

func TestDebugLoggerScrubsSecret(t *testing.T) {
	var buf bytes.Buffer
	logger := &DebugLogger{enabled: true, writer: &buf}
	logger.Scrub("tsecret")

	logger.Request("GET", "https://wiki/api/books", []byte(`{"token":"tsecret"}`))

	out := buf.String()
	if strings.Contains(out, "tsecret") {
		t.Errorf("secret leaked: %q", out)
	}
	if !strings.Contains(out, "[REDACTED]") {
		t.Errorf("no redaction: %q", out)
	}
}

func TestDebugLoggerDisabledWritesNothing(t *testing.T) {
	var buf bytes.Buffer
	logger := &DebugLogger{enabled: false, writer: &buf}

	logger.Request("GET", "https://wiki/api/books", nil)
	logger.Response("GET", "https://wiki/api/books", 200, []byte("{}"))

	if buf.Len() != 0 {
		t.Errorf("disabled logger wrote %q", buf.String())
	}
}

func TestDebugLoggerNilSafe(t *testing.T) {
	var logger *DebugLogger
	// None of these may panic.
	logger.Scrub("x")
	logger.Request("GET", "u", nil)
	logger.Response("GET", "u", 200, nil)
	logger.Error("GET", "u", nil)
	if logger.Enabled() {
		t.Error("nil logger reports enabled")
	}
	if err := logger.Close(); err != nil {
		t.Errorf("Close() = %v", err)
	}
}

func TestExcerptSuffixTruncates(t *testing.T) {
	long := bytes.Repeat([]byte("a"), maxExcerpt+100)
	got := excerptSuffix(long)
	if !strings.HasSuffix(got, "...") {
		t.Errorf("long body not truncated: len=%d", len(got))
	}
	if excerptSuffix(nil) != "" {
		t.Error("empty body should produce no suffix")
	}
}
