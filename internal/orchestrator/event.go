package orchestrator

import (
	"fmt"
	"strings"
)

// Source types of a conversation identity.
const (
	SourceUser  = "user"
	SourceGroup = "group"
	SourceRoom  = "room"
)

// Event is one normalized inbound text message, decoupled from the
// platform SDK types so the orchestrator can be tested without them.
type Event struct {
	// WebhookEventID is the platform's event ID, empty on older payloads.
	WebhookEventID string

	// MessageID identifies the message itself.
	MessageID string

	// ReplyToken is the single-use, short-lived direct reply token.
	ReplyToken string

	// SourceType is one of SourceUser, SourceGroup, SourceRoom.
	SourceType string

	// SourceID is the conversation identity (user, group, or room ID).
	// Doubles as the push destination.
	SourceID string

	// UserID is the sender, when the platform discloses it.
	UserID string

	// Timestamp is the event time in milliseconds since epoch.
	Timestamp int64

	// Text is the message content.
	Text string

	// IsRedelivery is the platform's own retry marker.
	IsRedelivery bool
}

// DedupKey derives the deduplication key: the platform event ID when
// present, otherwise message identity combined with the source and time.
func (e Event) DedupKey() string {
	if e.WebhookEventID != "" {
		return e.WebhookEventID
	}

	id := e.MessageID
	if id == "" {
		id = e.ReplyToken
	}
	return fmt.Sprintf("%s:%s:%s:%d", id, e.SourceType, e.SourceID, e.Timestamp)
}

// ChatKey is the session and rate-limit key for the conversation.
func (e Event) ChatKey() string {
	return e.SourceType + ":" + e.SourceID
}

// Valid reports whether the event carries enough to be processed.
func (e Event) Valid() bool {
	return strings.TrimSpace(e.Text) != "" && e.ReplyToken != "" && e.SourceID != ""
}
