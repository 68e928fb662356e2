package memory

import (
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewSessionID(t *testing.T) {
	now := time.UnixMilli(1718000000123)
	id := NewSessionID(now)

	assert.Regexp(t, regexp.MustCompile(`^chat_1718000000123_[0-9a-f]{8}$`), id)
	assert.NotEqual(t, id, NewSessionID(now))
}

func TestTitleFromMessage(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"short", "Summarize this video", "Summarize this video"},
		{"exactly thirty", strings.Repeat("a", 30), strings.Repeat("a", 30)},
		{"long", strings.Repeat("b", 31), strings.Repeat("b", 30) + "..."},
		{"multibyte", strings.Repeat("日", 35), strings.Repeat("日", 30) + "..."},
		{"blank", "   ", DefaultTitle},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TitleFromMessage(tt.input))
		})
	}
}
