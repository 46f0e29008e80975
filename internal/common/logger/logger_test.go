package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
)

func TestLoggerWritesStructuredFields(t *testing.T) {
	var buf bytes.Buffer
	lg := NewWithWriter("kitchen-dashboard", &buf, "info")

	lg.Error("status_update_failed", errors.New("boom"), map[string]any{"order_id": 7, "request_id": "req-1"})

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("decode log line %q: %v", buf.String(), err)
	}
	for _, key := range []string{"timestamp", "level", "service", "action", "message", "hostname", "request_id"} {
		if _, ok := entry[key]; !ok {
			t.Fatalf("missing %q in %v", key, entry)
		}
	}
	if entry["level"] != "ERROR" || entry["service"] != "kitchen-dashboard" || entry["request_id"] != "req-1" {
		t.Fatalf("unexpected entry %v", entry)
	}
	if entry["order_id"] != float64(7) {
		t.Fatalf("expected order_id field, got %v", entry["order_id"])
	}
	errObj, ok := entry["error"].(map[string]any)
	if !ok || errObj["msg"] != "boom" {
		t.Fatalf("expected error object, got %v", entry["error"])
	}
}

func TestLoggerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	lg := NewWithWriter("cli", &buf, "warn")

	lg.Info("ignored", nil)
	lg.Debug("ignored", nil)
	if buf.Len() != 0 {
		t.Fatalf("expected nothing below warn, got %q", buf.String())
	}
	lg.Warn("cart_malformed", nil, nil)
	if buf.Len() == 0 {
		t.Fatalf("expected warn line")
	}
}

func TestWithSwapsServiceName(t *testing.T) {
	var buf bytes.Buffer
	lg := NewWithWriter("cli", &buf, "info").With("auth")

	lg.Info("staff_logged_in", nil)

	if c := bytes.Count(buf.Bytes(), []byte(`"service"`)); c != 1 {
		t.Fatalf("expected one service key, got %d in %s", c, buf.String())
	}
	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if entry["service"] != "auth" {
		t.Fatalf("expected auth service, got %v", entry["service"])
	}
}
