package router

import (
	"regexp"
	"strings"
)

// Section headings used by the layered reply format.
var headings = []string{"【核】", "【中立】", "【実務】", "【一体化まとめ】", "【次の一手】"}

func surpriseLine(meta Meta) string {
	switch meta.Surprise {
	case SurprisePerspective:
		return "【相手視点の仮訳】相手は自分の緊急性を最優先にしている可能性。こちらの負担が十分に考慮されていないかもしれません。"
	case SurpriseSimulator:
		return "【48時間シミュレーター】48時間後の自分が後悔しない選択を。『線引きの明文化』を優先。"
	default:
		return "【隠れ前提の棚卸し】『断る＝関係が壊れる』という前提を一度疑い、断り方の言語で関係を守る。"
	}
}

func coreLayer(meta Meta) string {
	return "【核】\n" +
		"結論を出す前に、前提の置き場を見直す必要があります。\n" +
		surpriseLine(meta) + "\n" +
		"短期の安心と長期のコストは交換条件です。判断基準を『将来の損得』にそろえ、線引きを言葉で固定しましょう。"
}

func neutralLayer(meta Meta) string {
	switch meta.Domain {
	case "SNS":
		return "【中立】\n" +
			"A) 事実だけを一度だけ短く返信\n" +
			"B) 返信せずに記録化・通報・ミュート・非表示\n" +
			"C) 誤情報は固定ポストで訂正し、以後は誘導"
	case "職場":
		return "【中立】\n" +
			"A) 一時対応（次回条件を明文化）\n" +
			"B) 断って代替案を提示\n" +
			"C) 第三者判断に委ねて配分を客観化"
	default:
		return "【中立】\n" +
			"A) 今は応じるが次回条件を明記\n" +
			"B) 今回は断り代替案を提示\n" +
			"C) 第三者レビューに回す"
	}
}

func opsLayer(meta Meta) string {
	var checks, actions []string
	var template string

	if meta.Domain == "SNS" {
		checks = []string{
			"URL/ID/時刻を記録（スクショ）",
			"重大度分類（批判/中傷/脅迫/個人情報）",
			"拡散度の把握",
			"訂正すべき事実の有無",
		}
		actions = []string{
			"記録化（10分）：証拠を1か所に集約",
			"初回レス草案（15分）：事実のみ125字以内・一度だけ",
			"運用（5分）：通報/ミュート/非表示",
			"必要ならエスカレ（10分）：法務/警察/窓口へ証拠送付",
		}
		template = "ご指摘ありがとうございます。事実関係は以下のとおりです。誤解があれば修正します。詳しくは固定ポストをご参照ください。"
	} else {
		checks = []string{
			"依頼の種類（指示/お願い）",
			"相手の権限",
			"職務範囲の文面",
		}
		actions = []string{
			"記録化（10分）：経緯をメモ化",
			"返信（15分）：条件付き合意を提示",
		}
		template = "本件、緊急性は理解しております。担当範囲外のため、対応する場合は『本日◯分・次回は上長判断で配分』を条件にお願いできますか。"
	}

	lines := []string{"【実務】", "チェック："}
	for _, c := range checks {
		lines = append(lines, "- "+c)
	}
	lines = append(lines, "アクション：")
	for _, a := range actions {
		lines = append(lines, "- "+a)
	}
	lines = append(lines, "テンプレ：", template)
	return strings.Join(lines, "\n")
}

const summaryLayer = "【一体化まとめ】\n短期の雰囲気は将来のコストとトレード。条件を明示し、第三者判断や代替案の導線を置きましょう。"

const nextStepsLayer = "【次の一手】\n・今：テンプレ調整→返信（15分）\n・今日：記録を残す（5分）\n・今週：配分/運用ルールの明文化（10分）"

var multiNewline = regexp.MustCompile(`\n{3,}`)

// tidy collapses runs of blank lines and anchors each heading directly to
// its content.
func tidy(s string) string {
	s = multiNewline.ReplaceAllString(s, "\n")
	for _, h := range headings {
		re := regexp.MustCompile(regexp.QuoteMeta(h) + `\n+`)
		s = re.ReplaceAllString(s, h+"\n")
	}
	return strings.TrimSpace(s)
}

// FallbackReply renders the full layered canned reply for a routed message.
func FallbackReply(meta Meta) string {
	parts := []string{
		coreLayer(meta),
		neutralLayer(meta),
		opsLayer(meta),
		summaryLayer,
		nextStepsLayer,
	}
	for i, p := range parts {
		parts[i] = tidy(p)
	}
	return tidy(strings.Join(parts, "\n\n"))
}
