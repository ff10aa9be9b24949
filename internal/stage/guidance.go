package stage

// guidance holds the per-stage instruction block appended to the system prompt.
var guidance = map[Stage]string{
	S0: "【段階S0】初回だけの導入。相手の話の枠組みを一度だけ反転させる気づき（サプライズ）を1つ提示し、" +
		"それが当たっているか確認する質問を1つだけする。助言はまだしない。" +
		"サプライズを使った場合は tags に \"surprise\" を含める。",
	S1: "【段階S1】相談内容を2〜3文で要約し、判断に最も効く欠けている前提を1つだけ質問する。" +
		"結論や選択肢はまだ出さない。",
	S2: "【段階S2】問題を因果で2〜3点に整理する。自分で動かせる要因と動かせない要因を分けて示す。" +
		"質問は多くても1つ。",
	S3: "【段階S3】選択肢を2〜3案提示する。各案に利点・リスク・必要な資源を1行ずつ添える。",
	S4: "【段階S4】判断基準を明示し、次の具体的な一手を1つ決める。第三者を交えた調停の場に" +
		"進めるべき状況ならその旨を添える。質問はしない。",
}

// Guidance returns the instruction block for the given stage. Unknown stages
// fall back to S1 guidance, matching the natural-successor recovery rule.
func Guidance(s Stage) string {
	if g, ok := guidance[s]; ok {
		return g
	}
	return guidance[S1]
}
