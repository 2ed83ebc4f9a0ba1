package logging

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	json "github.com/goccy/go-json"
)

func TestTraceDisabledWritesNothing(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	t.Cleanup(func() { SetOutput(nil) })
	SetTraceEnabled(false)

	Trace("nav.open", map[string]interface{}{"channel": 7})
	if buf.Len() != 0 {
		t.Fatalf("expected no output with trace disabled, got %q", buf.String())
	}
}

func TestTraceEmitsEventAndPayload(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	SetTraceEnabled(true)
	t.Cleanup(func() {
		SetOutput(nil)
		SetTraceEnabled(false)
	})

	Trace("poll.start", map[string]interface{}{"kind": "messages", "target": 7})

	var entry struct {
		Level   string                 `json:"level"`
		Event   string                 `json:"event"`
		Payload map[string]interface{} `json:"payload"`
		Time    string                 `json:"time"`
	}
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry); err != nil {
		t.Fatalf("expected JSON line, got %q: %v", buf.String(), err)
	}
	if entry.Event != "poll.start" {
		t.Fatalf("expected event poll.start, got %q", entry.Event)
	}
	if entry.Level != "trace" {
		t.Fatalf("expected trace level, got %q", entry.Level)
	}
	if entry.Payload["kind"] != "messages" {
		t.Fatalf("expected payload kind messages, got %v", entry.Payload["kind"])
	}
	if entry.Time == "" {
		t.Fatalf("expected timestamp to be set")
	}
}

func TestErrorAlwaysWrites(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "pollchat.log")
	Configure(path)
	t.Cleanup(func() {
		Close()
		Configure("")
	})

	Error(errors.New("boom"))
	Error(nil)
	Close()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("expected log file to exist: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected exactly one entry, got %d: %q", len(lines), data)
	}
	if !strings.Contains(lines[0], `"error":"boom"`) {
		t.Fatalf("expected error field in %q", lines[0])
	}
}
