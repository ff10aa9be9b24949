package latency

import (
	"math"
	"sync"
	"testing"
	"time"

	"github.com/asaoka-ai/asaoka-linebot-go/internal/config"
)

func TestCurrentBeforeMinSamples(t *testing.T) {
	t.Parallel()

	e := New()
	if got := e.Current(); got != config.ReplyTimeoutDefault {
		t.Errorf("Current() with no samples = %v, want %v", got, config.ReplyTimeoutDefault)
	}

	for i := 0; i < minSamples-1; i++ {
		e.Record(2 * time.Second)
	}
	if got := e.Current(); got != config.ReplyTimeoutDefault {
		t.Errorf("Current() with %d samples = %v, want %v", minSamples-1, got, config.ReplyTimeoutDefault)
	}
}

func TestCurrentTracksEMA(t *testing.T) {
	t.Parallel()

	e := New()
	for i := 0; i < minSamples; i++ {
		e.Record(10 * time.Second)
	}

	// EMA converged to 10s exactly (constant input), so 10 * 1.3 = 13s.
	got := e.Current()
	want := 13 * time.Second
	if math.Abs(got.Seconds()-want.Seconds()) > 0.01 {
		t.Errorf("Current() = %v, want %v", got, want)
	}
}

func TestCurrentClampFloor(t *testing.T) {
	t.Parallel()

	e := New()
	for i := 0; i < minSamples; i++ {
		e.Record(500 * time.Millisecond)
	}

	if got := e.Current(); got != config.ReplyTimeoutFloor {
		t.Errorf("Current() with fast upstream = %v, want floor %v", got, config.ReplyTimeoutFloor)
	}
}

func TestCurrentClampCeiling(t *testing.T) {
	t.Parallel()

	e := New()
	for i := 0; i < minSamples; i++ {
		e.Record(60 * time.Second)
	}

	if got := e.Current(); got != config.ReplyTimeoutCeiling {
		t.Errorf("Current() with slow upstream = %v, want ceiling %v", got, config.ReplyTimeoutCeiling)
	}
}

func TestEMASeededByFirstSample(t *testing.T) {
	t.Parallel()

	e := New()
	e.Record(4 * time.Second)

	e.mu.Lock()
	ema := e.ema
	e.mu.Unlock()

	if math.Abs(ema-4.0) > 1e-9 {
		t.Errorf("EMA after first sample = %v, want 4.0", ema)
	}

	e.Record(8 * time.Second)
	e.mu.Lock()
	ema = e.ema
	e.mu.Unlock()

	// (1-0.2)*4 + 0.2*8 = 4.8
	if math.Abs(ema-4.8) > 1e-9 {
		t.Errorf("EMA after second sample = %v, want 4.8", ema)
	}
}

func TestSampleCountCapped(t *testing.T) {
	t.Parallel()

	e := New()
	for i := 0; i < sampleWindow+50; i++ {
		e.Record(time.Second)
	}
	if got := e.SampleCount(); got != sampleWindow {
		t.Errorf("SampleCount() = %d, want %d", got, sampleWindow)
	}
}

func TestConcurrentRecord(t *testing.T) {
	t.Parallel()

	e := New()
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				e.Record(time.Second)
				_ = e.Current()
			}
		}()
	}
	wg.Wait()

	if got := e.SampleCount(); got != sampleWindow {
		t.Errorf("SampleCount() = %d, want %d", got, sampleWindow)
	}
}
