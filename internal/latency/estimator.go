// Package latency tracks completion-service call durations and derives the
// adaptive wait bound used to choose between a direct reply and the deferred
// push path. The estimate is advisory only: it never affects correctness,
// just which channel delivers the answer.
package latency

import (
	"sync"
	"time"

	"github.com/asaoka-ai/asaoka-linebot-go/internal/config"
)

const (
	// sampleWindow is the size of the ring buffer of recent call durations.
	sampleWindow = 200

	// minSamples is how many samples must exist before the EMA is trusted.
	minSamples = 30

	// alpha is the EMA smoothing factor.
	alpha = 0.2

	// multiplier is the headroom applied to the EMA.
	multiplier = 1.3
)

// Estimator derives an adaptive reply wait bound from observed call latencies.
// It is safe for concurrent use.
type Estimator struct {
	mu      sync.Mutex
	samples [sampleWindow]time.Duration
	next    int
	count   int
	ema     float64 // seconds
	emaSet  bool
}

// New creates an Estimator with no recorded samples.
func New() *Estimator {
	return &Estimator{}
}

// Record appends a call duration to the sample window and updates the EMA.
// The first sample seeds the EMA directly.
func (e *Estimator) Record(d time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.samples[e.next] = d
	e.next = (e.next + 1) % sampleWindow
	if e.count < sampleWindow {
		e.count++
	}

	secs := d.Seconds()
	if !e.emaSet {
		e.ema = secs
		e.emaSet = true
	} else {
		e.ema = (1-alpha)*e.ema + alpha*secs
	}
}

// Current returns the wait bound for the next reply decision. Until minSamples
// durations have been recorded it returns the fixed default; afterwards it
// returns the EMA with headroom, clamped to the configured floor and ceiling.
func (e *Estimator) Current() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.count < minSamples {
		return config.ReplyTimeoutDefault
	}

	adaptive := time.Duration(e.ema * multiplier * float64(time.Second))
	if adaptive < config.ReplyTimeoutFloor {
		return config.ReplyTimeoutFloor
	}
	if adaptive > config.ReplyTimeoutCeiling {
		return config.ReplyTimeoutCeiling
	}
	return adaptive
}

// SampleCount returns the number of recorded samples, capped at the window size.
func (e *Estimator) SampleCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.count
}
