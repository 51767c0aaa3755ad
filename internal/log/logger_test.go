package log

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newBufferLogger(buf *bytes.Buffer) *Logger {
	return New(Config{
		Component: ComponentLedger,
		Handler:   slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}),
	})
}

func TestLoggerAddsComponent(t *testing.T) {
	var buf bytes.Buffer
	l := newBufferLogger(&buf)
	l.Info("hello", FieldCount, 3)
	out := buf.String()
	if !strings.Contains(out, "component=ledger") || !strings.Contains(out, "count=3") {
		t.Fatalf("unexpected output %q", out)
	}

	buf.Reset()
	l.WithComponent(ComponentHTTP).Warn("switched")
	if !strings.Contains(buf.String(), "component=http") {
		t.Fatalf("component not switched: %q", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARN":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestFromContext(t *testing.T) {
	if FromContext(context.Background()).Component() != "unknown" {
		t.Fatalf("expected fallback logger")
	}
	l := Discard().WithComponent(ComponentCLI)
	if FromContext(NewContext(context.Background(), l)) != l {
		t.Fatalf("expected stored logger")
	}
}

func TestMiddlewareLogsStatusLevel(t *testing.T) {
	cases := []struct {
		status int
		level  string
	}{
		{http.StatusOK, "level=INFO"},
		{http.StatusNotFound, "level=WARN"},
		{http.StatusServiceUnavailable, "level=ERROR"},
	}
	for _, tc := range cases {
		var buf bytes.Buffer
		l := newBufferLogger(&buf)
		h := Middleware(l, func(*http.Request) string { return "req-1" })(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if FromContext(r.Context()).Component() != ComponentHTTP {
				t.Errorf("handler did not receive request logger")
			}
			w.WriteHeader(tc.status)
		}))
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/transactions?year=2024", nil))
		out := buf.String()
		if !strings.Contains(out, tc.level) || !strings.Contains(out, "request_id=req-1") || !strings.Contains(out, "path=/api/transactions") {
			t.Fatalf("status %d: unexpected log %q", tc.status, out)
		}
	}
}

func TestLogFields(t *testing.T) {
	f := NewFields().WithOperation(OpAdd).WithTransaction(3, "Rent", 120000, "Housing", "saida").WithError(nil)
	if f[FieldOperation] != OpAdd || f[FieldTransactionID] != 3 || f[FieldAmountCents] != int64(120000) {
		t.Fatalf("unexpected fields %v", f)
	}
	if _, ok := f[FieldError]; ok {
		t.Fatalf("nil error must not be recorded")
	}
	if len(f.ToSlice()) != 2*len(f) {
		t.Fatalf("slice length mismatch")
	}
}
