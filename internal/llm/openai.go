package llm

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/asaoka-ai/asaoka-linebot-go/internal/config"
	apperrors "github.com/asaoka-ai/asaoka-linebot-go/internal/errors"
	"github.com/asaoka-ai/asaoka-linebot-go/internal/logger"
	"github.com/asaoka-ai/asaoka-linebot-go/internal/metrics"
	"github.com/asaoka-ai/asaoka-linebot-go/internal/session"
)

// Call kinds, used as the metrics label and the CompletionError kind.
const (
	kindStructured = "structured"
	kindFreeform   = "freeform"
)

const (
	structuredTemperature = 0.3
	freeformTemperature   = 0.6
	maxCompletionTokens   = 600
)

// OpenAIClient implements Client against any OpenAI-compatible chat
// completion endpoint (selected via base URL).
type OpenAIClient struct {
	client  openai.Client
	model   string
	enabled bool
	log     *logger.Logger
	metrics *metrics.Metrics
}

// NewOpenAIClient creates the completion client from configuration.
// When the service is switched off the client is still returned, with
// Enabled reporting false and Complete failing fast.
func NewOpenAIClient(cfg *config.Config, log *logger.Logger, m *metrics.Metrics) *OpenAIClient {
	opts := []option.RequestOption{option.WithAPIKey(cfg.OpenAIAPIKey)}
	if cfg.OpenAIBaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.OpenAIBaseURL))
	}

	return &OpenAIClient{
		client:  openai.NewClient(opts...),
		model:   cfg.OpenAIModel,
		enabled: cfg.LLMEnabled,
		log:     log.WithModule("llm"),
		metrics: m,
	}
}

// Enabled reports whether the completion service is configured and on.
func (c *OpenAIClient) Enabled() bool {
	return c != nil && c.enabled
}

// Complete performs the structured completion call. When the structured
// output cannot be obtained or parsed it makes exactly one free-text
// fallback call; it never makes more than two upstream calls per message.
func (c *OpenAIClient) Complete(ctx context.Context, req Request) (*Reply, error) {
	if !c.Enabled() {
		return nil, apperrors.ErrLLMDisabled
	}

	ctx, cancel := context.WithTimeout(ctx, config.LLMCallCeiling)
	defer cancel()

	reply, structuredErr := c.completeStructured(ctx, req)
	if structuredErr == nil {
		return reply, nil
	}

	// Parse failures fall back immediately; transport failures get one
	// short jittered pause so a momentarily overloaded upstream is not
	// hit twice back to back.
	if !stderrors.Is(structuredErr, apperrors.ErrUnparsableReply) {
		delay := CalculateBackoff(1, config.LLMFallbackRetryInitial, config.LLMFallbackRetryMax)
		if err := Sleep(ctx, delay); err != nil {
			return nil, apperrors.NewCompletionError(kindStructured, structuredErr)
		}
	}

	c.log.WithError(structuredErr).Warnf("structured completion failed, falling back to freeform")

	reply, freeformErr := c.completeFreeform(ctx, req)
	if freeformErr != nil {
		return nil, apperrors.NewCompletionError(kindFreeform, freeformErr)
	}
	return reply, nil
}

func (c *OpenAIClient) completeStructured(ctx context.Context, req Request) (*Reply, error) {
	messages := buildMessages(buildSystemPrompt(req.System, req.Stage), req.History, req.UserText)

	text, err := c.call(ctx, kindStructured, messages, structuredTemperature)
	if err != nil {
		return nil, err
	}

	reply, err := parseStructured(text, req.Stage)
	if err != nil {
		c.metrics.RecordLLMCall(kindStructured, "unparsable", 0)
		return nil, err
	}
	return reply, nil
}

func (c *OpenAIClient) completeFreeform(ctx context.Context, req Request) (*Reply, error) {
	messages := buildMessages(
		buildFreeformSystemPrompt(req.System, req.Stage),
		req.History,
		freeformUserPrompt(req.UserText),
	)

	text, err := c.call(ctx, kindFreeform, messages, freeformTemperature)
	if err != nil {
		return nil, err
	}
	return FromFreeform(text, req.Stage), nil
}

// call performs one chat completion request and returns the raw text.
func (c *OpenAIClient) call(ctx context.Context, kind string, messages []openai.ChatCompletionMessageParamUnion, temperature float64) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model:       c.model,
		Messages:    messages,
		Temperature: openai.Float(temperature),
		MaxTokens:   openai.Int(maxCompletionTokens),
	}

	start := time.Now()
	resp, err := c.client.Chat.Completions.New(ctx, params)
	duration := time.Since(start)

	if err != nil {
		c.metrics.RecordLLMCall(kind, "error", duration.Seconds())
		c.log.WithError(err).
			WithField("kind", kind).
			WithField("duration_ms", duration.Milliseconds()).
			Warnf("chat completion call failed")
		return "", fmt.Errorf("chat completion failed: %w", err)
	}

	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		c.metrics.RecordLLMCall(kind, "empty", duration.Seconds())
		return "", fmt.Errorf("%w: empty completion", apperrors.ErrUnparsableReply)
	}

	c.metrics.RecordLLMCall(kind, "success", duration.Seconds())
	c.log.WithField("kind", kind).
		WithField("duration_ms", duration.Milliseconds()).
		WithField("total_tokens", resp.Usage.TotalTokens).
		Debugf("chat completion call succeeded")

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// buildMessages assembles the message list: system prompt, recent history
// oldest first, then the new user text.
func buildMessages(systemPrompt string, history []session.Turn, userText string) []openai.ChatCompletionMessageParamUnion {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(history)+2)
	messages = append(messages, openai.SystemMessage(systemPrompt))
	for _, turn := range history {
		switch turn.Role {
		case session.RoleAssistant:
			messages = append(messages, openai.AssistantMessage(turn.Text))
		default:
			messages = append(messages, openai.UserMessage(turn.Text))
		}
	}
	return append(messages, openai.UserMessage(userText))
}
