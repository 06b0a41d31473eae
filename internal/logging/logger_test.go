package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func newBufferLogger(level string) (*Logger, *bytes.Buffer) {
	l := New(&Config{Level: level, Component: "test", JSONFormat: true})
	buf := &bytes.Buffer{}
	l.out = buf
	return l, buf
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"debug", LevelDebug},
		{"INFO", LevelInfo},
		{"Warning", LevelWarn},
		{"ERROR", LevelError},
		{"garbage", LevelInfo},
		{"", LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestJSONRecordShape(t *testing.T) {
	l, buf := newBufferLogger("INFO")
	l.Info("entry saved", "account_id", "acc-1", "error", errors.New("boom"))

	var rec record
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if rec.Level != "INFO" {
		t.Errorf("level = %q, want INFO", rec.Level)
	}
	if rec.Message != "entry saved" {
		t.Errorf("message = %q", rec.Message)
	}
	if rec.Component != "test" {
		t.Errorf("component = %q, want test", rec.Component)
	}
	if rec.Fields["account_id"] != "acc-1" {
		t.Errorf("account_id field = %v", rec.Fields["account_id"])
	}
	if rec.Fields["error"] != "boom" {
		t.Errorf("error field should be the error string, got %v", rec.Fields["error"])
	}
}

func TestLevelThreshold(t *testing.T) {
	l, buf := newBufferLogger("WARN")
	l.Debug("hidden")
	l.Info("hidden")
	if buf.Len() != 0 {
		t.Fatalf("below-threshold messages were written: %q", buf.String())
	}
	l.Warn("visible")
	if !strings.Contains(buf.String(), "visible") {
		t.Fatalf("WARN message missing from output: %q", buf.String())
	}
}

func TestScopedLoggersCarryFields(t *testing.T) {
	prev := Default()
	l, buf := newBufferLogger("INFO")
	SetDefault(l)
	defer SetDefault(prev)

	AccountContext("acc-9", "pph").Warn("status changed", "from", "unused", "to", "active")

	var rec record
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if rec.Component != "account" {
		t.Errorf("component = %q, want account", rec.Component)
	}
	if rec.Fields["account_id"] != "acc-9" || rec.Fields["account_type"] != "pph" {
		t.Errorf("scoped fields missing: %v", rec.Fields)
	}
	if rec.Fields["to"] != "active" {
		t.Errorf("call-site fields missing: %v", rec.Fields)
	}
}

func TestScopedCopyDoesNotMutateParent(t *testing.T) {
	l, _ := newBufferLogger("INFO")
	scoped := l.WithFields(map[string]interface{}{"agent_id": "ag-1"})
	if len(l.fields) != 0 {
		t.Fatalf("parent logger gained fields: %v", l.fields)
	}
	if scoped.fields["agent_id"] != "ag-1" {
		t.Fatalf("scoped logger lost its field")
	}
}
