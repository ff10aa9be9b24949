package webhook

import (
	"context"

	"github.com/google/uuid"
	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"

	apperrors "github.com/asaoka-ai/asaoka-linebot-go/internal/errors"
	"github.com/asaoka-ai/asaoka-linebot-go/internal/lineutil"
	"github.com/asaoka-ai/asaoka-linebot-go/internal/logger"
)

// lineResponder delivers orchestrator output through the LINE Messaging
// API. Delivery errors are wrapped and reported; they are never retried.
type lineResponder struct {
	client *messaging_api.MessagingApiAPI
	log    *logger.Logger
}

func newLineResponder(client *messaging_api.MessagingApiAPI, log *logger.Logger) *lineResponder {
	return &lineResponder{
		client: client,
		log:    log.WithModule("responder"),
	}
}

// Reply sends text on the single-use reply token.
func (r *lineResponder) Reply(_ context.Context, replyToken, text string) error {
	_, err := r.client.ReplyMessage(&messaging_api.ReplyMessageRequest{
		ReplyToken: replyToken,
		Messages: []messaging_api.MessageInterface{
			lineutil.NewTextMessage(text),
		},
	})
	if err != nil {
		return apperrors.NewDeliveryError("reply", replyToken, err)
	}
	return nil
}

// Push sends text to a destination chat. The retry key makes platform-side
// retries of the same push idempotent.
func (r *lineResponder) Push(_ context.Context, to, text string) error {
	_, err := r.client.PushMessage(&messaging_api.PushMessageRequest{
		To: to,
		Messages: []messaging_api.MessageInterface{
			lineutil.NewTextMessage(text),
		},
	}, uuid.NewString())
	if err != nil {
		return apperrors.NewDeliveryError("push", to, err)
	}
	return nil
}
