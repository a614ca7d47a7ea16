package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{
		"":        Info,
		"debug":   Debug,
		" WARN ":  Warn,
		"warning": Warn,
		"error":   Error,
		"bogus":   Info,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Fatalf("ParseLevel(%q) = %s, want %s", in, got, want)
		}
	}
}

func TestJSONLogger_FiltersByLevelAndMergesFields(t *testing.T) {
	var buf bytes.Buffer
	l := New(Options{Level: Info, Format: FormatJSON, App: "patient-access", Output: &buf})

	l.Debug("hidden", nil)
	l.With(map[string]any{"module": "accessgrants"}).Info("grant created", map[string]any{
		"grant_id": "g-1",
		"error":    errors.New("boom"),
		"":         "ignored",
	})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected exactly 1 line (debug filtered), got %d: %q", len(lines), buf.String())
	}

	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("invalid json line: %v", err)
	}
	if entry["level"] != "info" || entry["message"] != "grant created" {
		t.Fatalf("unexpected entry: %#v", entry)
	}
	if entry["app"] != "patient-access" || entry["module"] != "accessgrants" || entry["grant_id"] != "g-1" {
		t.Fatalf("expected base + With + call fields, got %#v", entry)
	}
	if entry["error"] != "boom" {
		t.Fatalf("expected error rendered as string, got %#v", entry["error"])
	}
	if _, ok := entry[""]; ok {
		t.Fatalf("empty keys must be dropped")
	}
}

func TestNop_DoesNotPanic(t *testing.T) {
	l := Nop().With(map[string]any{"a": 1})
	l.Error("nothing", map[string]any{"b": 2})
}
