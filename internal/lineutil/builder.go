// Package lineutil builds LINE Messaging API message objects within the
// platform's limits.
package lineutil

import (
	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"
)

// MaxTextLength is the LINE limit on one text message, in runes.
const MaxTextLength = 5000

// ellipsis marks a message that was cut at the platform limit.
const ellipsis = "…"

// NewTextMessage creates a text message, truncating to the platform limit.
func NewTextMessage(text string) *messaging_api.TextMessage {
	return &messaging_api.TextMessage{Text: Truncate(text, MaxTextLength)}
}

// Truncate bounds text to max runes. A truncated message ends with an
// ellipsis so the cut is visible.
func Truncate(text string, max int) string {
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	if max <= 0 {
		return ""
	}
	return string(runes[:max-1]) + ellipsis
}
