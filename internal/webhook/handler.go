// Package webhook receives LINE webhook callbacks, verifies their
// signature, normalizes events, and hands text messages to the
// orchestrator. The HTTP response is always sent before processing.
package webhook

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"
	"github.com/line/line-bot-sdk-go/v8/linebot/webhook"

	"github.com/asaoka-ai/asaoka-linebot-go/internal/config"
	"github.com/asaoka-ai/asaoka-linebot-go/internal/ctxutil"
	apperrors "github.com/asaoka-ai/asaoka-linebot-go/internal/errors"
	"github.com/asaoka-ai/asaoka-linebot-go/internal/lineutil"
	"github.com/asaoka-ai/asaoka-linebot-go/internal/logger"
	"github.com/asaoka-ai/asaoka-linebot-go/internal/metrics"
	"github.com/asaoka-ai/asaoka-linebot-go/internal/orchestrator"
	"github.com/asaoka-ai/asaoka-linebot-go/internal/ratelimit"
)

// welcomeMessage greets a user who adds the bot as a friend.
const welcomeMessage = "友だち追加ありがとうございます。お困りごとを一文で送ってください。状況を整理しながら、一緒に次の一手を考えます。"

// Processor consumes normalized text events. Satisfied by
// orchestrator.Orchestrator.
type Processor interface {
	HandleText(ctx context.Context, ev orchestrator.Event) error
}

// Handler handles LINE webhook callbacks.
type Handler struct {
	channelSecret string
	client        *messaging_api.MessagingApiAPI
	processor     Processor
	limiter       *ratelimit.KeyedLimiter
	metrics       *metrics.Metrics
	logger        *logger.Logger
	wg            sync.WaitGroup

	maxEventsPerWebhook int
	minReplyTokenLength int
}

// HandlerConfig holds the collaborators for a new Handler.
type HandlerConfig struct {
	ChannelSecret string
	ChannelToken  string
	BotConfig     *config.BotConfig
	Processor     Processor
	Metrics       *metrics.Metrics
	Logger        *logger.Logger
}

// NewHandler creates a webhook handler with its per-chat rate limiter.
func NewHandler(cfg HandlerConfig) (*Handler, error) {
	client, err := messaging_api.NewMessagingApiAPI(cfg.ChannelToken)
	if err != nil {
		return nil, fmt.Errorf("create messaging API client: %w", err)
	}

	h := &Handler{
		channelSecret:       cfg.ChannelSecret,
		client:              client,
		processor:           cfg.Processor,
		metrics:             cfg.Metrics,
		logger:              cfg.Logger.WithModule("webhook"),
		maxEventsPerWebhook: cfg.BotConfig.MaxEventsPerWebhook,
		minReplyTokenLength: cfg.BotConfig.MinReplyTokenLength,
	}

	h.limiter = ratelimit.NewKeyedLimiter(ratelimit.KeyedConfig{
		Burst:         cfg.BotConfig.UserRateLimitBurst,
		RefillPerSec:  cfg.BotConfig.UserRateLimitRefillPerSec,
		CleanupPeriod: config.RateLimiterCleanupInterval,
	})
	h.limiter.OnDrop(func() {
		h.metrics.RecordRateLimiterDrop("chat")
	})

	return h, nil
}

// Responder returns the platform responder bound to this handler's client.
func (h *Handler) Responder() orchestrator.Responder {
	return newLineResponder(h.client, h.logger)
}

// SetProcessor wires the event consumer. The orchestrator needs this
// handler's responder first, so the processor arrives after construction.
// Must be called before the first webhook.
func (h *Handler) SetProcessor(p Processor) {
	h.processor = p
}

// Handle is the Gin handler for POST /callback. It acknowledges the
// webhook before any event work happens; internal failures never change
// the acknowledgement.
func (h *Handler) Handle(c *gin.Context) {
	cb, err := webhook.ParseRequest(h.channelSecret, c.Request)
	if err != nil {
		if errors.Is(err, webhook.ErrInvalidSignature) {
			h.logger.Warnf("invalid webhook signature")
			c.Status(http.StatusBadRequest)
		} else {
			h.logger.WithError(err).Errorf("failed to parse webhook request")
			c.Status(http.StatusInternalServerError)
		}
		return
	}

	c.Status(http.StatusOK)

	if len(cb.Events) > h.maxEventsPerWebhook {
		h.logger.WithField("event_count", len(cb.Events)).
			WithField("limit", h.maxEventsPerWebhook).
			Warnf("too many events in webhook batch, truncating")
		cb.Events = cb.Events[:h.maxEventsPerWebhook]
	}

	// The slice must outlive the HTTP request.
	events := make([]webhook.EventInterface, len(cb.Events))
	copy(events, cb.Events)

	h.wg.Go(func() {
		defer func() {
			if r := recover(); r != nil {
				h.logger.WithField("panic", r).Errorf("panic in async event processing")
			}
		}()

		ctx := context.Background()
		for _, event := range events {
			h.processEvent(ctx, event)
		}
	})
}

// processEvent dispatches one webhook event.
func (h *Handler) processEvent(ctx context.Context, event webhook.EventInterface) {
	start := time.Now()

	switch e := event.(type) {
	case webhook.MessageEvent:
		h.processMessage(ctx, e, start)
	case webhook.FollowEvent:
		h.processFollow(e, start)
	default:
		h.logger.WithField("event_type", fmt.Sprintf("%T", e)).Debugf("unsupported event type")
	}
}

func (h *Handler) processMessage(ctx context.Context, e webhook.MessageEvent, start time.Time) {
	text, ok := e.Message.(webhook.TextMessageContent)
	if !ok {
		h.logger.WithField("message_type", e.Message.GetType()).Debugf("non-text message ignored")
		h.metrics.RecordWebhook("message", "ignored", time.Since(start).Seconds())
		return
	}

	ev := normalizeEvent(e, text)

	requestID := ev.WebhookEventID
	if requestID == "" {
		requestID = uuid.NewString()
	}
	ctx = ctxutil.WithRequestID(ctx, requestID)
	ctx = ctxutil.WithChatID(ctx, ev.SourceID)
	if ev.UserID != "" {
		ctx = ctxutil.WithUserID(ctx, ev.UserID)
	}

	log := h.logger.WithRequestID(requestID).WithField("chat", ev.ChatKey())
	if ev.IsRedelivery {
		log = log.WithField("is_redelivery", true)
	}

	if len(ev.ReplyToken) < h.minReplyTokenLength {
		log.WithField("token_length", len(ev.ReplyToken)).Debugf("invalid reply token, skipping")
		h.metrics.RecordWebhook("message", "invalid_token", time.Since(start).Seconds())
		return
	}

	if !h.limiter.Allow(ev.ChatKey()) {
		log.Warnf("per-chat rate limit exceeded, dropping message")
		h.metrics.RecordWebhook("message", "rate_limited", time.Since(start).Seconds())
		return
	}

	if ev.SourceType == orchestrator.SourceUser {
		if err := h.showLoadingAnimation(ev.SourceID); err != nil {
			log.WithError(err).Warnf("failed to show loading animation")
		}
	}

	status := "success"
	if err := h.processor.HandleText(ctx, ev); err != nil {
		if errors.Is(err, apperrors.ErrDuplicateEvent) {
			status = "dropped"
			log.Debugf("duplicate event dropped")
		} else {
			status = "error"
			log.WithError(err).Errorf("failed to handle message")
		}
	}
	h.metrics.RecordWebhook("message", status, time.Since(start).Seconds())

	log.WithField("duration_ms", time.Since(start).Milliseconds()).Infof("event processed")
}

func (h *Handler) processFollow(e webhook.FollowEvent, start time.Time) {
	status := "success"
	if _, err := h.client.ReplyMessage(&messaging_api.ReplyMessageRequest{
		ReplyToken: e.ReplyToken,
		Messages: []messaging_api.MessageInterface{
			lineutil.NewTextMessage(welcomeMessage),
		},
	}); err != nil {
		status = "error"
		h.logger.WithError(err).Warnf("failed to send welcome message")
	}
	h.metrics.RecordWebhook("follow", status, time.Since(start).Seconds())
}

// showLoadingAnimation shows the typing indicator in a one-on-one chat.
// LINE accepts 5-60 seconds in multiples of 5; 60 covers the worst case of
// the adaptive reply window.
func (h *Handler) showLoadingAnimation(chatID string) error {
	req := &messaging_api.ShowLoadingAnimationRequest{
		ChatId:         chatID,
		LoadingSeconds: 60,
	}
	if _, err := h.client.ShowLoadingAnimation(req); err != nil {
		return fmt.Errorf("show loading animation: %w", err)
	}
	return nil
}

// normalizeEvent maps an SDK message event to the orchestrator's shape.
func normalizeEvent(e webhook.MessageEvent, text webhook.TextMessageContent) orchestrator.Event {
	srcType, srcID, userID := sourceInfo(e.Source)

	ev := orchestrator.Event{
		WebhookEventID: e.WebhookEventId,
		MessageID:      text.Id,
		ReplyToken:     e.ReplyToken,
		SourceType:     srcType,
		SourceID:       srcID,
		UserID:         userID,
		Timestamp:      e.Timestamp,
		Text:           text.Text,
	}
	if e.DeliveryContext != nil {
		ev.IsRedelivery = e.DeliveryContext.IsRedelivery
	}
	return ev
}

// sourceInfo extracts the conversation identity from an event source.
func sourceInfo(src webhook.SourceInterface) (srcType, srcID, userID string) {
	switch s := src.(type) {
	case webhook.UserSource:
		return orchestrator.SourceUser, s.UserId, s.UserId
	case webhook.GroupSource:
		return orchestrator.SourceGroup, s.GroupId, s.UserId
	case webhook.RoomSource:
		return orchestrator.SourceRoom, s.RoomId, s.UserId
	default:
		return "", "", ""
	}
}

// Shutdown waits for in-flight event processing and stops the limiter.
func (h *Handler) Shutdown(ctx context.Context) error {
	defer h.limiter.Stop()

	done := make(chan struct{})
	go func() {
		defer close(done)
		h.wg.Wait()
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
