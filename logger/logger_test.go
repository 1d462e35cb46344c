package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func newBufferLogger(t *testing.T, level string) (*Logger, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	cfg := &Config{Level: level, Format: FormatJSON}
	return NewWithWriter(cfg, "blobgate-test", &buf), &buf
}

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	line := strings.TrimSpace(buf.String())
	if line == "" {
		t.Fatal("expected a log line, got nothing")
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(line), &m); err != nil {
		t.Fatalf("log line is not JSON: %v (%q)", err, line)
	}
	return m
}

func TestNewWithWriter_JSONFields(t *testing.T) {
	l, buf := newBufferLogger(t, "info")
	l.WithComponent("gateway").Info("uploaded", Fields(FieldKey, "docs/1-abc.txt", FieldBytes, 12))

	m := decodeLine(t, buf)
	if m["service"] != "blobgate-test" {
		t.Errorf("expected service field, got %v", m["service"])
	}
	if m[FieldComponent] != "gateway" {
		t.Errorf("expected component=gateway, got %v", m[FieldComponent])
	}
	if m[FieldKey] != "docs/1-abc.txt" {
		t.Errorf("expected key field, got %v", m[FieldKey])
	}
	if m["message"] != "uploaded" {
		t.Errorf("expected message, got %v", m["message"])
	}
}

func TestLevelFiltering(t *testing.T) {
	l, buf := newBufferLogger(t, "warn")
	l.Info("dropped")
	if buf.Len() != 0 {
		t.Errorf("info should be filtered at warn level, got %q", buf.String())
	}
	l.Warn("kept")
	if buf.Len() == 0 {
		t.Error("warn should be written at warn level")
	}
}

func TestInvalidLevelFallsBackToInfo(t *testing.T) {
	l, buf := newBufferLogger(t, "loud")
	l.Debug("dropped")
	l.Info("kept")
	if !strings.Contains(buf.String(), "kept") || strings.Contains(buf.String(), "dropped") {
		t.Errorf("unexpected output %q", buf.String())
	}
}

func TestErrorValuesAreStrings(t *testing.T) {
	l, buf := newBufferLogger(t, "info")
	l.Error("list failed", map[string]any{FieldError: errors.New("503 slow down")})
	m := decodeLine(t, buf)
	if m[FieldError] != "503 slow down" {
		t.Errorf("expected error message string, got %v", m[FieldError])
	}
}

func TestWithContext_RequestID(t *testing.T) {
	l, buf := newBufferLogger(t, "info")
	ctx := ContextWithRequestID(context.Background(), "req-42")
	l.WithContext(ctx).Info("hello")
	m := decodeLine(t, buf)
	if m[FieldRequestID] != "req-42" {
		t.Errorf("expected request_id=req-42, got %v", m[FieldRequestID])
	}
	if _, ok := m[FieldTraceID]; ok {
		t.Error("no span in context, trace_id should be absent")
	}
}

func TestRequestIDFromContext_Empty(t *testing.T) {
	if got := RequestIDFromContext(context.Background()); got != "" {
		t.Errorf("expected empty request id, got %q", got)
	}
}

func TestWithFieldsAndError(t *testing.T) {
	l, buf := newBufferLogger(t, "info")
	l.WithFields(map[string]any{FieldFolder: "docs"}).WithError(errors.New("boom")).Info("x")
	m := decodeLine(t, buf)
	if m[FieldFolder] != "docs" || m["error"] != "boom" {
		t.Errorf("unexpected fields %v", m)
	}
}

func TestNop(t *testing.T) {
	l := NewNop()
	l.Info("nothing")
	l.WithComponent("x").Error("nothing")
}

func TestGlobalLogger(t *testing.T) {
	prev := GetGlobalLogger()
	defer SetGlobalLogger(prev)

	l, buf := newBufferLogger(t, "info")
	SetGlobalLogger(l)
	WithComponent("api").Info("global")
	m := decodeLine(t, buf)
	if m[FieldComponent] != "api" {
		t.Errorf("expected component from global logger, got %v", m[FieldComponent])
	}
}

func TestConfigApplyDefaults(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()
	if cfg.Level != "info" || cfg.Format != FormatJSON || cfg.Output != "stdout" || !cfg.Timestamp {
		t.Errorf("unexpected defaults %+v", cfg)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"valid json", Config{Level: "info", Format: "json", Output: "stdout"}, false},
		{"valid console", Config{Level: "debug", Format: "console", Output: "stderr"}, false},
		{"bad level", Config{Level: "verbose", Format: "json", Output: "stdout"}, true},
		{"bad format", Config{Level: "info", Format: "xml", Output: "stdout"}, true},
		{"bad output", Config{Level: "info", Format: "json", Output: "file"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestFields(t *testing.T) {
	m := Fields("a", 1, 2, "skipped", "err", errors.New("e"), "dangling")
	if m["a"] != 1 {
		t.Errorf("expected a=1, got %v", m["a"])
	}
	if m["err"] != "e" {
		t.Errorf("expected err stored as message, got %v", m["err"])
	}
	if _, ok := m["dangling"]; ok {
		t.Error("dangling key should be dropped")
	}
	if len(m) != 2 {
		t.Errorf("expected 2 entries, got %d: %v", len(m), m)
	}
}

func TestErrorFieldsAndDuration(t *testing.T) {
	f := ErrorFields("download", errors.New("gone"))
	if f[FieldOperation] != "download" || f[FieldError] != "gone" {
		t.Errorf("unexpected %v", f)
	}
	f = MergeWithDuration(nil, 1500*time.Millisecond)
	if f[FieldDuration] != int64(1500) {
		t.Errorf("expected 1500ms, got %v", f[FieldDuration])
	}
}
