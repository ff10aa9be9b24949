// Package errors provides domain-specific error types and sentinel errors
// for improved error handling across the application.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common scenarios.
// Use errors.Is() to check these errors in your code.
var (
	// ErrDuplicateEvent indicates a webhook event was already handled or is in flight.
	ErrDuplicateEvent = errors.New("duplicate event")

	// ErrLLMDisabled indicates the completion service is not configured or switched off.
	ErrLLMDisabled = errors.New("llm disabled")

	// ErrUnparsableReply indicates the completion service returned output that could
	// not be decoded into the structured reply contract.
	ErrUnparsableReply = errors.New("unparsable structured reply")

	// ErrInvalidInput indicates user provided invalid input.
	ErrInvalidInput = errors.New("invalid input")
)

// DeliveryError represents a failed reply or push to the messaging platform.
// Delivery failures are best-effort: they are logged and never retried.
type DeliveryError struct {
	Channel string // "reply" or "push"
	Target  string // reply token prefix or destination chat ID
	Err     error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("delivery error (channel=%s, target=%s): %v", e.Channel, e.Target, e.Err)
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}

// NewDeliveryError creates a new delivery error.
func NewDeliveryError(channel, target string, err error) *DeliveryError {
	return &DeliveryError{Channel: channel, Target: target, Err: err}
}

// CompletionError represents a failed call to the completion service,
// annotated with the attempt kind for logging and metrics.
type CompletionError struct {
	Kind string // "structured" or "freeform"
	Err  error
}

func (e *CompletionError) Error() string {
	return fmt.Sprintf("completion error (kind=%s): %v", e.Kind, e.Err)
}

func (e *CompletionError) Unwrap() error {
	return e.Err
}

// NewCompletionError creates a new completion error.
func NewCompletionError(kind string, err error) *CompletionError {
	return &CompletionError{Kind: kind, Err: err}
}
