package contextutil

import (
	"context"
	"io"
	"log/slog"
	"testing"
)

func TestLoggerFromContext(t *testing.T) {
	custom := slog.New(slog.NewTextHandler(io.Discard, nil))

	if got := LoggerFromContext(context.Background()); got != slog.Default() {
		t.Error("LoggerFromContext() without logger should return slog.Default()")
	}

	ctx := WithLogger(context.Background(), custom)
	if got := LoggerFromContext(ctx); got != custom {
		t.Error("LoggerFromContext() should return the logger stored by WithLogger")
	}

	ctx = context.WithValue(context.Background(), LoggerKey(), "not a logger")
	if got := LoggerFromContext(ctx); got != slog.Default() {
		t.Error("LoggerFromContext() with wrong value type should return slog.Default()")
	}
}
