// Package config provides centralized timeout constants for the application.
//
// These values are tuned around LINE Messaging API constraints:
//   - Reply token: single-use and short-lived, so the bot must decide quickly
//     between a direct reply and the deferred push path
//   - Webhook response: LINE expects a fast 200 OK acknowledgment
//   - Loading animation: shows for up to 60 seconds while the user waits
package config

import "time"

// HTTP server timeouts
const (
	// WebhookHTTPRead is the HTTP server read timeout for webhook requests.
	// Short, since LINE sends small JSON payloads.
	WebhookHTTPRead = 10 * time.Second

	// WebhookHTTPWrite is the HTTP server write timeout. The webhook handler
	// acknowledges immediately, so this only covers response serialization.
	WebhookHTTPWrite = 15 * time.Second

	// WebhookHTTPIdle is the HTTP server idle timeout for keep-alive connections.
	WebhookHTTPIdle = 120 * time.Second
)

// Completion service timeouts
const (
	// LLMCallCeiling is the hard upper bound on a single completion call.
	// The adaptive reply timeout decides which channel delivers the result;
	// this ceiling only stops a truly hung upstream call.
	LLMCallCeiling = 90 * time.Second

	// LLMFallbackRetryInitial is the initial backoff before the single
	// plain-text fallback call when the structured call's transport failed.
	LLMFallbackRetryInitial = 500 * time.Millisecond

	// LLMFallbackRetryMax caps the fallback backoff.
	LLMFallbackRetryMax = 3 * time.Second
)

// Adaptive reply timeout bounds (see internal/latency)
const (
	// ReplyTimeoutDefault is the wait bound used until enough latency samples exist.
	ReplyTimeoutDefault = 10 * time.Second

	// ReplyTimeoutFloor is the minimum adaptive wait bound.
	ReplyTimeoutFloor = 8 * time.Second

	// ReplyTimeoutCeiling is the maximum adaptive wait bound. Kept well below
	// the reply token validity window so the interim reply always lands.
	ReplyTimeoutCeiling = 18 * time.Second
)

// Background job intervals
const (
	// DedupSweepInterval is how often expired de-duplication records are purged
	// in the background (Admit also purges opportunistically).
	DedupSweepInterval = 5 * time.Minute

	// RateLimiterCleanupInterval is how often inactive per-chat limiters are dropped.
	RateLimiterCleanupInterval = 5 * time.Minute
)

// LINE API limits
const (
	// LINEMaxTextMessageLength is the maximum length of a LINE text message.
	LINEMaxTextMessageLength = 5000
)
