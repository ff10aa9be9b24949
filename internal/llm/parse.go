package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	apperrors "github.com/asaoka-ai/asaoka-linebot-go/internal/errors"
	"github.com/asaoka-ai/asaoka-linebot-go/internal/sliceutil"
	"github.com/asaoka-ai/asaoka-linebot-go/internal/stage"
)

// parseStructured decodes the model's structured output into a Reply.
// Models occasionally wrap JSON in code fences or prose despite instructions,
// so the raw text is trimmed to its outermost JSON object first. An invalid
// next_stage falls back to the natural successor of the current stage;
// questions are bounded to the stage policy.
func parseStructured(raw string, current stage.Stage) (*Reply, error) {
	body := extractJSONObject(raw)
	if body == "" {
		return nil, fmt.Errorf("%w: no JSON object in output", apperrors.ErrUnparsableReply)
	}

	var wire wireReply
	if err := json.Unmarshal([]byte(body), &wire); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrUnparsableReply, err)
	}
	if strings.TrimSpace(wire.Message) == "" {
		return nil, fmt.Errorf("%w: empty message field", apperrors.ErrUnparsableReply)
	}

	next, ok := stage.Parse(wire.NextStage)
	if !ok {
		next = current.Next()
	}

	questions := sliceutil.Deduplicate(wire.Questions, func(q string) string { return q })
	if max := stage.MaxQuestions(current); len(questions) > max {
		questions = questions[:max]
	}

	return &Reply{
		Message:   strings.TrimSpace(wire.Message),
		NextStage: next,
		Questions: questions,
		Tags:      wire.Tags,
		Label:     strings.TrimSpace(wire.Label),
	}, nil
}

// extractJSONObject returns the substring from the first '{' to the last '}'.
// Returns empty when no balanced-looking object exists.
func extractJSONObject(raw string) string {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return ""
	}
	return raw[start : end+1]
}
