// Package session holds per-conversation dialogue state: the current stage,
// a bounded history of recent turns, and auxiliary flags. Sessions are
// in-process and live for the process lifetime; nothing here survives a
// restart.
package session

import (
	"time"

	"github.com/asaoka-ai/asaoka-linebot-go/internal/stage"
)

// MaxHistory is the maximum number of turns kept per session (5 exchanges).
const MaxHistory = 10

// Turn roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Turn is one utterance in the conversation history.
type Turn struct {
	Role string // RoleUser or RoleAssistant
	Text string
}

// Session is the mutable state of one conversation identity.
type Session struct {
	// Stage is the current conversation stage. Starts at S0.
	Stage stage.Stage

	// History holds the most recent turns, oldest first, capped at MaxHistory.
	History []Turn

	// UsedSurprise is set once the one-time S0 surprise device has been used.
	// A session in S0 with UsedSurprise set is forced to S1 before the next
	// request is built.
	UsedSurprise bool

	// Flags is open-ended auxiliary state (classification labels etc.).
	Flags map[string]string

	// LastSeen is updated on every completed exchange. Only consulted by the
	// optional idle sweep; never affects dialogue behavior.
	LastSeen time.Time
}

// NewSession creates a session at the opening stage.
func NewSession() *Session {
	return &Session{
		Stage: stage.S0,
		Flags: make(map[string]string),
	}
}

// AppendExchange records one completed exchange and truncates the history to
// the most recent MaxHistory turns.
func (s *Session) AppendExchange(userText, assistantText string) {
	s.History = append(s.History,
		Turn{Role: RoleUser, Text: userText},
		Turn{Role: RoleAssistant, Text: assistantText},
	)
	if len(s.History) > MaxHistory {
		s.History = s.History[len(s.History)-MaxHistory:]
	}
	s.LastSeen = time.Now()
}

// EffectiveStage returns the stage the next request should be built for:
// S0 is one-shot, so a session still marked S0 after its surprise turn is
// treated as S1.
func (s *Session) EffectiveStage() stage.Stage {
	if s.Stage == stage.S0 && s.UsedSurprise {
		return stage.S1
	}
	return s.Stage
}
