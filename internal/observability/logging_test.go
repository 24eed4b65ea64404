package observability

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestWithRunID(t *testing.T) {
	ctx := WithRunID(context.Background(), "run-123")

	if lc := GetContext(ctx); lc.RunID != "run-123" {
		t.Errorf("expected run-123, got %s", lc.RunID)
	}
}

func TestContextValuesAccumulate(t *testing.T) {
	ctx := WithRunID(context.Background(), "run-1")
	ctx = WithBoard(ctx, "rak4631")
	ctx = WithStep(ctx, "zip-binary")

	lc := GetContext(ctx)
	if lc.RunID != "run-1" || lc.Board != "rak4631" || lc.Step != "zip-binary" {
		t.Errorf("unexpected log context: %+v", lc)
	}
}

func TestEmptyContext(t *testing.T) {
	if lc := GetContext(context.Background()); lc != (LogContext{}) {
		t.Errorf("expected empty log context, got %+v", lc)
	}
}

func TestInfoContextIncludesAttrs(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	defer slog.SetDefault(prev)

	ctx := WithStep(WithRunID(context.Background(), "run-9"), "copy-hex")
	InfoContext(ctx, "step finished", slog.String("dst", "generated/"))

	out := buf.String()
	for _, want := range []string{"run_id=run-9", "step=copy-hex", "dst=generated/", "step finished"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in log output %q", want, out)
		}
	}
}
