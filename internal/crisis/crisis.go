// Package crisis implements the keyword-based safety check that bypasses
// normal processing. A match short-circuits the orchestrator before any
// completion-service call and leaves the conversation stage unchanged.
package crisis

import "strings"

// keywords are scanned as substrings of the raw inbound text, before any
// normalization beyond lowercasing of ASCII.
var keywords = []string{
	"死にたい",
	"死のう",
	"自殺",
	"消えたい",
	"消えてしまいたい",
	"リストカット",
	"リスカ",
	"オーバードーズ",
	"殺したい",
	"殺してやる",
	"生きていたくない",
	"生きる意味がない",
}

// asciiTokens are matched only as standalone ASCII words. A bare substring
// scan would flag "good" or "todo" via the letters "od".
var asciiTokens = []string{
	"od",
}

// SafetyMessage is the fixed reply for crisis-flagged input. It is sent
// as-is, without a model call and without advancing the stage.
const SafetyMessage = "つらい気持ちを書いてくれてありがとうございます。" +
	"いま強いしんどさの中にいるように見えます。このボットは緊急の支えにはなれません。\n\n" +
	"ひとりで抱えず、今すぐ話せる窓口につながってください。\n" +
	"・いのちの電話 0570-783-556（毎日10時〜22時）\n" +
	"・よりそいホットライン 0120-279-338（24時間）\n" +
	"・生命や安全に関わる危険があるときは 110 / 119\n\n" +
	"落ち着いて話せるようになったら、また続きを聞かせてください。"

// Match reports whether text contains a crisis keyword.
func Match(text string) bool {
	lowered := strings.ToLower(text)
	for _, kw := range keywords {
		if strings.Contains(lowered, kw) {
			return true
		}
	}
	for _, tok := range asciiTokens {
		if containsToken(lowered, tok) {
			return true
		}
	}
	return false
}

// containsToken reports whether tok occurs in s with no ASCII letter or digit
// touching either end. Multi-byte neighbors (kana, kanji) do not break a match,
// so "ODした" still counts.
func containsToken(s, tok string) bool {
	for i := 0; i+len(tok) <= len(s); {
		j := strings.Index(s[i:], tok)
		if j < 0 {
			return false
		}
		start := i + j
		end := start + len(tok)
		if !asciiWordByte(s, start-1) && !asciiWordByte(s, end) {
			return true
		}
		i = start + 1
	}
	return false
}

func asciiWordByte(s string, i int) bool {
	if i < 0 || i >= len(s) {
		return false
	}
	c := s[i]
	return c == '_' || ('a' <= c && c <= 'z') || ('0' <= c && c <= '9')
}
