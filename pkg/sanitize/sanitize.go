package sanitize

import (
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
)

var htmlPolicy = bluemonday.StrictPolicy()

// Length limits, in runes.
const (
	MaxPostLength    = 5000
	MaxCommentLength = 2000
	MaxMessageLength = 4000
	MaxBioLength     = 500
	MaxNameLength    = 100
)

// Text strips markup and null bytes, trims and cuts to max runes.
// max <= 0 disables the cut.
func Text(input string, max int) string {
	input = strings.ReplaceAll(input, "\x00", "")
	input = htmlPolicy.Sanitize(input)
	input = strings.TrimSpace(input)

	if max > 0 && utf8.RuneCountInString(input) > max {
		input = string([]rune(input)[:max])
	}
	return input
}

// AllowedFileType matches the filename extension case-insensitively.
func AllowedFileType(filename string, allowed []string) bool {
	filename = strings.ToLower(filename)
	for _, ext := range allowed {
		if strings.HasSuffix(filename, strings.ToLower(ext)) {
			return true
		}
	}
	return false
}
