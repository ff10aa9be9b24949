package sliceutil

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeduplicate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		items []string
		want  []string
	}{
		{"no duplicates", []string{"a", "b", "c"}, []string{"a", "b", "c"}},
		{"keeps first occurrence", []string{"a", "b", "a", "c"}, []string{"a", "b", "c"}},
		{"all identical", []string{"a", "a", "a"}, []string{"a"}},
		{"empty", nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := Deduplicate(tt.items, func(s string) string { return s })
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDeduplicateByKey(t *testing.T) {
	t.Parallel()

	type item struct {
		id   int
		name string
	}
	items := []item{{1, "first"}, {2, "second"}, {1, "third"}}

	got := Deduplicate(items, func(i item) string { return strconv.Itoa(i.id) })
	assert.Equal(t, []item{{1, "first"}, {2, "second"}}, got)
}
