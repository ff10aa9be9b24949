package stage

import (
	"strings"
	"testing"
)

func TestNextFollowsNaturalOrder(t *testing.T) {
	t.Parallel()

	cases := []struct {
		from Stage
		want Stage
	}{
		{S0, S1},
		{S1, S2},
		{S2, S3},
		{S3, S4},
		{S4, S4}, // terminal
	}
	for _, tc := range cases {
		if got := tc.from.Next(); got != tc.want {
			t.Errorf("%s.Next() = %s, want %s", tc.from, got, tc.want)
		}
	}
}

func TestNextOfInvalidStage(t *testing.T) {
	t.Parallel()

	if got := Stage("S9").Next(); got != S1 {
		t.Errorf("invalid stage Next() = %s, want S1", got)
	}
}

func TestParse(t *testing.T) {
	t.Parallel()

	cases := []struct {
		raw   string
		want  Stage
		valid bool
	}{
		{"S2", S2, true},
		{"s3", S3, true},
		{" S4 ", S4, true},
		{"S5", "", false},
		{"", "", false},
		{"stage two", "", false},
	}
	for _, tc := range cases {
		got, ok := Parse(tc.raw)
		if ok != tc.valid {
			t.Errorf("Parse(%q) valid = %v, want %v", tc.raw, ok, tc.valid)
			continue
		}
		if ok && got != tc.want {
			t.Errorf("Parse(%q) = %s, want %s", tc.raw, got, tc.want)
		}
	}
}

func TestValid(t *testing.T) {
	t.Parallel()

	for _, s := range All {
		if !s.Valid() {
			t.Errorf("%s reported invalid", s)
		}
	}
	if Stage("S0 ").Valid() {
		t.Error("untrimmed label reported valid")
	}
}

func TestGuidanceCoversAllStages(t *testing.T) {
	t.Parallel()

	for _, s := range All {
		g := Guidance(s)
		if g == "" {
			t.Errorf("Guidance(%s) is empty", s)
		}
		if !strings.Contains(g, s.String()) {
			t.Errorf("Guidance(%s) does not mention its stage label", s)
		}
	}
}

func TestGuidanceFallback(t *testing.T) {
	t.Parallel()

	if Guidance(Stage("bogus")) != Guidance(S1) {
		t.Error("unknown stage guidance should fall back to S1")
	}
}

func TestMaxQuestions(t *testing.T) {
	t.Parallel()

	for _, s := range []Stage{S0, S1, S2, S3} {
		if got := MaxQuestions(s); got != 1 {
			t.Errorf("MaxQuestions(%s) = %d, want 1", s, got)
		}
	}
	if got := MaxQuestions(S4); got != 0 {
		t.Errorf("MaxQuestions(S4) = %d, want 0", got)
	}
}
