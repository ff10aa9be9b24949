package sentry

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestInitializeEmptyDSN(t *testing.T) {
	t.Parallel()

	if err := Initialize(Config{DSN: ""}); err != nil {
		t.Errorf("expected nil error for empty DSN, got %v", err)
	}

	if IsEnabled() {
		t.Error("expected IsEnabled() to be false without a DSN")
	}
}

func TestFlushWithoutInit(t *testing.T) {
	t.Parallel()

	// Flushing an uninitialized SDK completes immediately.
	if !Flush(100 * time.Millisecond) {
		t.Error("expected Flush to succeed when Sentry is disabled")
	}
}

func TestCaptureWithoutInit(t *testing.T) {
	t.Parallel()

	defer func() {
		if r := recover(); r != nil {
			t.Errorf("capture panicked: %v", r)
		}
	}()

	// Capture calls must be safe no-ops when disabled.
	CaptureExceptionWithContext(context.Background(), errors.New("test error"))
}
