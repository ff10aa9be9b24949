package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/asaoka-ai/asaoka-linebot-go/internal/ctxutil"
)

func parseLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to parse log output %q: %v", buf.String(), err)
	}
	return entry
}

func TestJSONOutput(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := NewWithWriter("info", &buf)
	log.WithField("stage", "S1").Info("exchange completed")

	entry := parseLine(t, &buf)
	if entry["message"] != "exchange completed" {
		t.Errorf("message = %v, want exchange completed", entry["message"])
	}
	if entry["level"] != "info" {
		t.Errorf("level = %v, want info", entry["level"])
	}
	if entry["stage"] != "S1" {
		t.Errorf("stage = %v, want S1", entry["stage"])
	}
	if _, ok := entry["timestamp"]; !ok {
		t.Error("timestamp field missing")
	}
}

func TestWarnLevelRename(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := NewWithWriter("debug", &buf)
	log.Warn("slow upstream")

	entry := parseLine(t, &buf)
	if entry["level"] != "warning" {
		t.Errorf("level = %v, want warning", entry["level"])
	}
}

func TestLevelFiltering(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := NewWithWriter("warn", &buf)
	log.Info("should be dropped")

	if buf.Len() != 0 {
		t.Errorf("info record emitted at warn level: %s", buf.String())
	}
}

func TestContextHandlerEnrichment(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := NewWithWriter("info", &buf)

	ctx := ctxutil.WithChatID(context.Background(), "C99")
	ctx = ctxutil.WithRequestID(ctx, "evt-42")
	log.InfoContext(ctx, "push delivered")

	entry := parseLine(t, &buf)
	if entry["chat_id"] != "C99" {
		t.Errorf("chat_id = %v, want C99", entry["chat_id"])
	}
	if entry["request_id"] != "evt-42" {
		t.Errorf("request_id = %v, want evt-42", entry["request_id"])
	}
}

func TestFanoutDeliversToAllSinks(t *testing.T) {
	t.Parallel()

	var a, b bytes.Buffer
	fanout := newFanoutHandler(
		slog.NewJSONHandler(&a, nil),
		slog.NewJSONHandler(&b, nil),
	)
	log := slog.New(fanout)
	log.Info("fan out")

	if a.Len() == 0 || b.Len() == 0 {
		t.Error("record not delivered to all sinks")
	}
}

func TestFanoutToleratesNilSink(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	fanout := newFanoutHandler(nil, slog.NewJSONHandler(&buf, nil))
	slog.New(fanout).Info("ok")

	if buf.Len() == 0 {
		t.Error("record not delivered past nil sink")
	}
}

func TestFanoutWithAttrsSkipsNilSink(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	fanout := newFanoutHandler(nil, slog.NewJSONHandler(&buf, nil))
	slog.New(fanout).With("k", "v").Info("ok")

	if buf.Len() == 0 {
		t.Error("record not delivered after WithAttrs")
	}
}
