package llm

import (
	"fmt"
	"strings"

	"github.com/asaoka-ai/asaoka-linebot-go/internal/stage"
)

// structuredContract instructs the model to answer with the JSON shape the
// orchestrator parses. Kept in the system prompt rather than a response-format
// parameter so the same contract works against any OpenAI-compatible endpoint.
const structuredContract = `応答は必ず次のJSONオブジェクトだけを返すこと。前後に説明文やコードフェンスを付けない。
{
  "message": "ユーザーに送る本文",
  "next_stage": "S0〜S4のいずれか。次の往復で進むべき段階",
  "questions": ["message内で実際に尋ねた質問"],
  "tags": ["使った技法。サプライズを使ったら \"surprise\""],
  "label": "任意の分類ラベル（職場/契約/SNS/恋愛/その他など）"
}`

// buildSystemPrompt combines persona, stage guidance, and the output contract.
func buildSystemPrompt(system string, s stage.Stage) string {
	parts := []string{system, stage.Guidance(s), structuredContract}
	return strings.Join(parts, "\n\n")
}

// buildFreeformSystemPrompt drops the JSON contract for the fallback call.
func buildFreeformSystemPrompt(system string, s stage.Stage) string {
	return system + "\n\n" + stage.Guidance(s) + "\n\n短い日本語の文章でそのまま返答すること。"
}

// freeformUserPrompt wraps the user text for the fallback call.
func freeformUserPrompt(userText string) string {
	return fmt.Sprintf("相談内容：%s", userText)
}
