package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Profile describes the counselor persona injected into every system prompt.
// It is loaded from an optional JSON file so the dialogue voice can be tuned
// without a rebuild.
type Profile struct {
	// Name is the persona's display name.
	Name string `json:"name"`

	// Voice describes tone and register (short sentences, no platitudes, etc.).
	Voice string `json:"voice"`

	// Principles are standing instructions prepended to stage guidance.
	Principles []string `json:"principles"`
}

// DefaultProfile is used when no profile file is configured.
var DefaultProfile = Profile{
	Name:  "あさおかAI",
	Voice: "断定は短く。共感は一文。説教やきれいごとは書かない。",
	Principles: []string{
		"相談者の言葉を使って要約する",
		"選択肢には必ずリスクと必要資源を添える",
		"質問は各段階の上限を超えない",
	},
}

// LoadProfile reads a profile JSON file, falling back to DefaultProfile when
// path is empty. A missing or malformed file is an error: a configured path
// signals intent, and silently ignoring it would change the bot's voice.
func LoadProfile(path string) (Profile, error) {
	if path == "" {
		return DefaultProfile, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Profile{}, fmt.Errorf("read profile %s: %w", path, err)
	}

	var p Profile
	if err := json.Unmarshal(data, &p); err != nil {
		return Profile{}, fmt.Errorf("parse profile %s: %w", path, err)
	}
	if p.Name == "" {
		p.Name = DefaultProfile.Name
	}
	return p, nil
}

// SystemPrompt renders the profile as the persona portion of the system prompt.
func (p Profile) SystemPrompt() string {
	var b strings.Builder
	b.WriteString("あなたは「")
	b.WriteString(p.Name)
	b.WriteString("」という相談パートナー。")
	if p.Voice != "" {
		b.WriteString(p.Voice)
	}
	for _, pr := range p.Principles {
		b.WriteString("\n- ")
		b.WriteString(pr)
	}
	return b.String()
}
