// Package stage defines the five-step guided conversation stages and the
// transition rules between them.
package stage

import "strings"

// Stage is a discrete phase in the five-step guided conversation.
type Stage string

// Conversation stages, in natural order.
const (
	// S0 delivers the one-time opening insight (surprise device) plus a
	// single confirming question. Visited at most once per session.
	S0 Stage = "S0"

	// S1 summarizes the user's input in a short span and asks for the single
	// most important missing premise.
	S1 Stage = "S1"

	// S2 structures the issue into 2-3 causal points, separating controllable
	// from uncontrollable factors. At most one question.
	S2 Stage = "S2"

	// S3 presents 2-3 options with pros, risks, and required resources.
	S3 Stage = "S3"

	// S4 states the decision criteria and the next concrete action, and may
	// suggest escalation to a mediation flow. Terminal: S4 -> S4.
	S4 Stage = "S4"
)

// All lists the valid stages in order.
var All = []Stage{S0, S1, S2, S3, S4}

// Valid reports whether s is one of the five conversation stages.
func (s Stage) Valid() bool {
	switch s {
	case S0, S1, S2, S3, S4:
		return true
	}
	return false
}

// Next returns the natural successor of s. S4 is terminal. Used as the
// fallback whenever the completion service returns an unusable next stage.
func (s Stage) Next() Stage {
	switch s {
	case S0:
		return S1
	case S1:
		return S2
	case S2:
		return S3
	case S3, S4:
		return S4
	}
	return S1
}

// String returns the stage label.
func (s Stage) String() string {
	return string(s)
}

// Parse normalizes a stage label returned by the completion service.
// Returns false for anything outside the five valid stages.
func Parse(raw string) (Stage, bool) {
	s := Stage(strings.ToUpper(strings.TrimSpace(raw)))
	return s, s.Valid()
}

// MaxQuestions returns the maximum number of questions the assistant may ask
// while in the given stage.
func MaxQuestions(s Stage) int {
	if s == S4 {
		return 0
	}
	return 1
}
