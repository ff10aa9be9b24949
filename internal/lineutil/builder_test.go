package lineutil

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewTextMessage(t *testing.T) {
	t.Parallel()

	msg := NewTextMessage("こんにちは")
	assert.Equal(t, "こんにちは", msg.Text)

	long := strings.Repeat("あ", MaxTextLength+1)
	msg = NewTextMessage(long)
	assert.Equal(t, MaxTextLength, len([]rune(msg.Text)))
	assert.True(t, strings.HasSuffix(msg.Text, "…"))
}

func TestTruncate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		text string
		max  int
		want string
	}{
		{"under limit", "短い", 10, "短い"},
		{"exactly at limit", "12345", 5, "12345"},
		{"over limit", "123456", 5, "1234…"},
		{"multibyte over limit", "あいうえお", 3, "あい…"},
		{"zero max", "text", 0, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Truncate(tt.text, tt.max))
		})
	}
}
