package logs

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/reusee/dscope"
)

func withLevel(t *testing.T, l slog.Level) {
	t.Helper()
	old := level.Level()
	SetLevel(l)
	t.Cleanup(func() {
		SetLevel(old)
	})
}

func TestHandler(t *testing.T) {
	withLevel(t, slog.LevelInfo)
	buf := new(bytes.Buffer)
	dscope.New(new(Module)).Fork(
		func() Writer {
			return buf
		},
	).Call(func(
		logger Logger,
	) {
		ctx := context.WithValue(context.Background(), SpanKey, Span("s1"))
		logger.With("unit", "main.pg0").InfoContext(ctx, "run")
		line := buf.String()
		if !strings.Contains(line, "unit=main.pg0") || !strings.Contains(line, "span=s1") {
			t.Fatalf("got %q", line)
		}
	})
}

func TestLevel(t *testing.T) {
	withLevel(t, slog.LevelWarn)
	buf := new(bytes.Buffer)
	dscope.New(new(Module)).Fork(
		func() Writer {
			return buf
		},
	).Call(func(
		logger Logger,
	) {
		logger.Debug("exec")
		logger.Info("run")
		if buf.Len() != 0 {
			t.Fatalf("got %q", buf.String())
		}
		SetLevel(slog.LevelDebug)
		logger.Debug("exec")
		if !strings.Contains(buf.String(), "msg=exec") {
			t.Fatalf("got %q", buf.String())
		}
	})
}

func TestJSON(t *testing.T) {
	withLevel(t, slog.LevelInfo)
	t.Setenv("PG0_LOG_JSON", "yes")
	buf := new(bytes.Buffer)
	dscope.New(new(Module)).Fork(
		func() Writer {
			return buf
		},
	).Call(func(
		logger Logger,
	) {
		logger.Info("run", "file", "a.pg0")
		if !strings.Contains(buf.String(), `"file":"a.pg0"`) {
			t.Fatalf("got %q", buf.String())
		}
	})
}

func TestWrapSpan(t *testing.T) {
	if WrapSpan(context.Background(), nil) != nil {
		t.Fatal("nil error wrapped")
	}
	err := context.Canceled
	if WrapSpan(context.Background(), err) != err {
		t.Fatal("no span, error should pass through")
	}
	ctx := context.WithValue(context.Background(), SpanKey, Span("s2"))
	wrapped := WrapSpan(ctx, err)
	if !strings.Contains(wrapped.Error(), "span: s2") {
		t.Fatalf("got %v", wrapped)
	}
}
