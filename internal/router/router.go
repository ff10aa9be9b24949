// Package router classifies inbound text into keyword-derived categories and
// renders canned layered replies from them. It is the degraded-mode engine:
// the orchestrator falls back to it when the completion service is disabled
// or both completion attempts fail.
package router

import "strings"

// Meta is the routing result for one message.
type Meta struct {
	Domain   string // 職場, 契約, SNS, 恋愛, その他
	Temp     string // 高, 中, 低 (emotional temperature)
	Goal     string // 交渉, 境界線設定, 記録化, 意思決定
	Surprise string // which surprise device fits this message
}

var domainKeywords = map[string][]string{
	"職場": {"上司", "部下", "同僚", "会議", "資料", "職務", "配分", "残業", "稟議"},
	"契約": {"契約", "条項", "違反", "内容証明", "労基", "法テラス", "通知書"},
	"SNS": {"SNS", "X", "ツイッター", "Twitter", "インスタ", "TikTok", "炎上", "DM", "ポスト", "投稿", "コメント"},
	"恋愛": {"恋人", "デート", "告白", "距離", "依存", "別れる"},
}

// domainOrder fixes the scan order: Go map iteration is randomized, and the
// first matching domain wins.
var domainOrder = []string{"職場", "契約", "SNS", "恋愛"}

var tempHighKeywords = []string{"今すぐ", "訴える", "責任取れ", "至急", "二度と"}
var tempMidKeywords = []string{"困る", "緊急", "厳しい", "納得できない"}

var goalKeywords = map[string][]string{
	"交渉":    {"条件", "合意", "妥協", "配分", "提案"},
	"境界線設定": {"線引", "限度", "担当外", "拒否", "断る"},
	"記録化":   {"記録", "メモ", "証拠", "議事録", "履歴", "スクショ"},
	"意思決定":  {"決める", "選ぶ", "判断", "優先", "方針"},
}

var goalOrder = []string{"交渉", "境界線設定", "記録化", "意思決定"}

// Surprise device names.
const (
	SurprisePerspective = "相手視点翻訳"
	SurpriseSimulator   = "48時間"
	SurprisePremises    = "隠れ前提棚卸し"
)

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

// Route classifies text into domain, emotional temperature, goal, and the
// surprise device that fits.
func Route(text string) Meta {
	domain := "その他"
	for _, d := range domainOrder {
		if containsAny(text, domainKeywords[d]) {
			domain = d
			break
		}
	}

	temp := "低"
	switch {
	case containsAny(text, tempHighKeywords):
		temp = "高"
	case containsAny(text, tempMidKeywords):
		temp = "中"
	}

	goal := "交渉"
	for _, g := range goalOrder {
		if containsAny(text, goalKeywords[g]) {
			goal = g
			break
		}
	}

	surprise := SurprisePremises
	switch {
	case temp == "高":
		surprise = SurprisePerspective
	case goal == "意思決定":
		surprise = SurpriseSimulator
	}

	return Meta{Domain: domain, Temp: temp, Goal: goal, Surprise: surprise}
}
