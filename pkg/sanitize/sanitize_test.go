package sanitize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestText(t *testing.T) {
	tests := []struct {
		name  string
		input string
		max   int
		want  string
	}{
		{"plain", "hello world", 0, "hello world"},
		{"trims", "  hi  ", 0, "hi"},
		{"strips tags", "<b>bold</b> move", 0, "bold move"},
		{"drops script", "<script>alert(1)</script>ok", 0, "ok"},
		{"null bytes", "a\x00b", 0, "ab"},
		{"cuts runes", "héllo", 2, "hé"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Text(tt.input, tt.max))
		})
	}
}

func TestAllowedFileType(t *testing.T) {
	images := []string{".jpg", ".png"}
	assert.True(t, AllowedFileType("Me.JPG", images))
	assert.False(t, AllowedFileType("me.exe", images))
}
