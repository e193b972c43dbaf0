package logger

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func bufferLogger(buf *bytes.Buffer) *Logger {
	return &Logger{Logger: slog.New(slog.NewTextHandler(buf, nil))}
}

func TestWithContext_TagsRequestID(t *testing.T) {
	var buf bytes.Buffer
	log := bufferLogger(&buf)

	ctx := context.WithValue(context.Background(), RequestIDKey, "req-123")
	log.WithContext(ctx).Info("hello")

	out := buf.String()
	if !strings.Contains(out, "request_id=req-123") {
		t.Fatalf("expected request_id in output, got %q", out)
	}
}

func TestWithContext_NoRequestID(t *testing.T) {
	var buf bytes.Buffer
	log := bufferLogger(&buf)

	log.WithContext(context.Background()).Info("hello")

	if strings.Contains(buf.String(), "request_id") {
		t.Fatalf("expected no request_id tag, got %q", buf.String())
	}
}

func TestDatabaseError_IncludesOperation(t *testing.T) {
	var buf bytes.Buffer
	log := bufferLogger(&buf)

	log.DatabaseError("health_ping", context.DeadlineExceeded)

	out := buf.String()
	if !strings.Contains(out, "database_error") || !strings.Contains(out, "health_ping") {
		t.Fatalf("expected tagged database error, got %q", out)
	}
}
