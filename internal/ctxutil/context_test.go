package ctxutil

import (
	"context"
	"testing"
	"time"
)

func TestUserIDRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	if got := GetUserID(ctx); got != "" {
		t.Errorf("GetUserID on empty context = %q, want empty", got)
	}

	ctx = WithUserID(ctx, "U1234")
	if got := GetUserID(ctx); got != "U1234" {
		t.Errorf("GetUserID = %q, want U1234", got)
	}
}

func TestChatIDRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := WithChatID(context.Background(), "C5678")
	if got := GetChatID(ctx); got != "C5678" {
		t.Errorf("GetChatID = %q, want C5678", got)
	}
}

func TestRequestIDRoundTrip(t *testing.T) {
	t.Parallel()

	if _, ok := GetRequestID(context.Background()); ok {
		t.Error("GetRequestID on empty context reported ok")
	}

	ctx := WithRequestID(context.Background(), "evt-1")
	got, ok := GetRequestID(ctx)
	if !ok || got != "evt-1" {
		t.Errorf("GetRequestID = (%q, %v), want (evt-1, true)", got, ok)
	}
}

func TestPreserveTracing(t *testing.T) {
	t.Parallel()

	parent, cancel := context.WithTimeout(context.Background(), time.Millisecond)
	defer cancel()

	parent = WithUserID(parent, "U1")
	parent = WithChatID(parent, "C1")
	parent = WithRequestID(parent, "R1")

	detached := PreserveTracing(parent)
	cancel()

	if err := detached.Err(); err != nil {
		t.Errorf("detached context canceled with parent: %v", err)
	}
	if GetUserID(detached) != "U1" || GetChatID(detached) != "C1" {
		t.Error("tracing values not preserved in detached context")
	}
	if rid, ok := GetRequestID(detached); !ok || rid != "R1" {
		t.Error("request ID not preserved in detached context")
	}
}
