package stackmd

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// DebugLogger provides debug logging for API communications. When
// enabled, it logs request lines, response statuses, body excerpts and
// full error details. Token secrets are scrubbed from output.
type DebugLogger struct {
	mu      sync.Mutex
	enabled bool
	writer  io.Writer
	closer  io.Closer
	secret  string
}

// NewDebugLogger creates a new debug logger.
// If logPath is empty, logs go to stderr.
func NewDebugLogger(enabled bool, logPath string) (*DebugLogger, error) {
	var writer io.Writer = os.Stderr
	var closer io.Closer

	if enabled && logPath != "" {
		f, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return nil, fmt.Errorf("open debug log: %w", err)
		}
		writer = f
		closer = f
	}

	return &DebugLogger{enabled: enabled, writer: writer, closer: closer}, nil
}

// Scrub registers a secret to redact from all logged output.
func (d *DebugLogger) Scrub(secret string) {
	if d == nil {
		return
	}
	d.mu.Lock()
	d.secret = secret
	d.mu.Unlock()
}

// Enabled reports whether debug logging is active.
func (d *DebugLogger) Enabled() bool {
	return d != nil && d.enabled
}

// Request logs an outgoing API request.
func (d *DebugLogger) Request(method, url string, body []byte) {
	d.logf("request %s %s%s", method, url, excerptSuffix(body))
}

// Response logs an API response status and body excerpt.
func (d *DebugLogger) Response(method, url string, status int, body []byte) {
	d.logf("response %s %s -> %d%s", method, url, status, excerptSuffix(body))
}

// Error logs a failed API call.
func (d *DebugLogger) Error(method, url string, err error) {
	d.logf("error %s %s: %v", method, url, err)
}

// Close releases the log file if one was opened.
func (d *DebugLogger) Close() error {
	if d == nil || d.closer == nil {
		return nil
	}
	return d.closer.Close()
}

func (d *DebugLogger) logf(format string, args ...any) {
	if !d.Enabled() {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	line := fmt.Sprintf(format, args...)
	if d.secret != "" {
		line = strings.ReplaceAll(line, d.secret, "[REDACTED]")
	}
	fmt.Fprintf(d.writer, "[%s] %s\n", time.Now().UTC().Format(time.RFC3339), line)
}

const maxExcerpt = 500

func excerptSuffix(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	s := string(body)
	if len(s) > maxExcerpt {
		s = s[:maxExcerpt] + "..."
	}
	return " body=" + s
}
