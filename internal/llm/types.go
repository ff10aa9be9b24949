// Package llm integrates with an OpenAI-compatible chat completion service.
// It requests a structured JSON reply controlling stage transitions and falls
// back to exactly one plain free-text request when the structured output
// cannot be parsed.
package llm

import (
	"context"

	"github.com/asaoka-ai/asaoka-linebot-go/internal/session"
	"github.com/asaoka-ai/asaoka-linebot-go/internal/stage"
)

// TagSurprise marks a reply that used the one-time S0 surprise device.
const TagSurprise = "surprise"

// Request carries everything needed to build one completion call.
type Request struct {
	// System is the persona portion of the system prompt.
	System string

	// Stage the reply should be generated for (already S0-forced by the caller).
	Stage stage.Stage

	// History is the trimmed recent conversation, oldest first.
	History []session.Turn

	// UserText is the new inbound message.
	UserText string
}

// Reply is the structured result of a completion call. When the structured
// attempt failed and the freeform fallback was used, Freeform is true and the
// missing fields are synthesized via the natural-successor rule.
type Reply struct {
	Message   string
	NextStage stage.Stage
	Questions []string
	Tags      []string
	Label     string
	Freeform  bool
}

// UsedSurprise reports whether the reply's tags mark use of the surprise device.
func (r *Reply) UsedSurprise() bool {
	for _, t := range r.Tags {
		if t == TagSurprise {
			return true
		}
	}
	return false
}

// Client is the completion-service contract used by the orchestrator.
type Client interface {
	// Enabled reports whether the service is configured and switched on.
	Enabled() bool

	// Complete performs the structured call, falling back to a single
	// free-text call when the structured output is unusable. It never makes
	// more than two upstream calls per message.
	Complete(ctx context.Context, req Request) (*Reply, error)
}

// FromFreeform converts free text into a structured reply using the
// natural-successor rule for the missing fields.
func FromFreeform(text string, current stage.Stage) *Reply {
	return &Reply{
		Message:   text,
		NextStage: current.Next(),
		Freeform:  true,
	}
}

// wireReply is the JSON shape requested from the completion service.
type wireReply struct {
	Message   string   `json:"message"`
	NextStage string   `json:"next_stage"`
	Questions []string `json:"questions"`
	Tags      []string `json:"tags"`
	Label     string   `json:"label"`
}
