package database

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"gorm.io/gorm"
)

func TestClipSQL(t *testing.T) {
	short := "SELECT 1"
	if got := clipSQL(short); got != short {
		t.Errorf("clipSQL(short) = %q, want unchanged", got)
	}

	long := strings.Repeat("x", sqlLogLimit+50)
	got := clipSQL(long)
	if !strings.HasPrefix(got, long[:sqlLogLimit]) {
		t.Error("clipped SQL should keep the head of the statement")
	}
	if !strings.Contains(got, "... (250 bytes)") {
		t.Errorf("clipped SQL should note the original length, got %q", got)
	}
}

func TestQueryLogger_Trace(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	ql := newQueryLogger(logger)
	ctx := context.Background()

	ql.Trace(ctx, time.Now(), func() (string, int64) { return "SELECT 1", 1 }, nil)
	if !strings.Contains(buf.String(), "level=DEBUG") {
		t.Errorf("successful query should log at debug, got %q", buf.String())
	}

	buf.Reset()
	ql.Trace(ctx, time.Now(), func() (string, int64) { return "SELECT missing", 0 }, gorm.ErrRecordNotFound)
	if strings.Contains(buf.String(), "level=ERROR") {
		t.Errorf("record-not-found should not log as a failure, got %q", buf.String())
	}

	buf.Reset()
	ql.Trace(ctx, time.Now(), func() (string, int64) { return "INSERT broken", 0 }, errors.New("constraint violated"))
	out := buf.String()
	if !strings.Contains(out, "level=ERROR") || !strings.Contains(out, "query failed") {
		t.Errorf("failed query should log at error, got %q", out)
	}
}

func TestQueryLogger_SkipsFormattingWhenDebugDisabled(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))
	ql := newQueryLogger(logger)

	called := false
	ql.Trace(context.Background(), time.Now(), func() (string, int64) {
		called = true
		return "SELECT 1", 1
	}, nil)
	if called {
		t.Error("SQL callback should not run when debug logging is off")
	}
	if buf.Len() != 0 {
		t.Errorf("expected no output, got %q", buf.String())
	}
}
