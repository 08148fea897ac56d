package log

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{" DEBUG ", slog.LevelDebug},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"info", slog.LevelInfo},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestLoggerAddsComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelInfo, Output: &buf}).WithComponent(ComponentLedger)

	logger.Info("Transaction created", FieldTransactionID, 7)
	logger.Debug("hidden")

	out := buf.String()
	if !strings.Contains(out, "component=ledger") || !strings.Contains(out, "transaction_id=7") {
		t.Errorf("unexpected output: %s", out)
	}
	if strings.Contains(out, "hidden") {
		t.Error("debug record should be filtered at info level")
	}
}

func TestLogErrorUsesContextLogger(t *testing.T) {
	var buf bytes.Buffer
	base := New(Config{Level: slog.LevelInfo, Output: &buf})
	fields := NewFields().WithRequestID("req-1")
	ctx := NewContext(context.Background(), base.With(fields.ToSlice()...))

	LogError(ctx, "Failed", errors.New("boom"), OpCreate, nil)

	out := buf.String()
	for _, want := range []string{"request_id=req-1", "error=boom", "operation=create"} {
		if !strings.Contains(out, want) {
			t.Errorf("output %q missing %q", out, want)
		}
	}
}

func TestFromContextFallsBack(t *testing.T) {
	if l := FromContext(context.Background()); l == nil || l.Component() != "unknown" {
		t.Errorf("FromContext() = %+v", l)
	}
}

func TestStatusLevel(t *testing.T) {
	if StatusLevel(200) != slog.LevelInfo || StatusLevel(404) != slog.LevelWarn || StatusLevel(503) != slog.LevelError {
		t.Error("StatusLevel mapping is wrong")
	}
}

func TestLogFields(t *testing.T) {
	f := NewFields().WithTransaction(3, "thu", 500000, "An").WithError(nil).WithRequestID("")
	if _, ok := f[FieldError]; ok {
		t.Error("nil error should not add a field")
	}
	if _, ok := f[FieldRequestID]; ok {
		t.Error("empty request id should not add a field")
	}
	if len(f.ToSlice()) != 8 {
		t.Errorf("ToSlice() len = %d, want 8", len(f.ToSlice()))
	}
}
