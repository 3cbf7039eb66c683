package textutil

import (
	"strings"
	"unicode"
)

// FallbackTitle is used when sanitization leaves nothing usable.
const FallbackTitle = "Untitled"

// MetadataRuneLimit is the Bot API limit for title and performer fields.
const MetadataRuneLimit = 64

// fileNameReplacer replaces filesystem-unsafe characters with safe alternatives.
var fileNameReplacer = strings.NewReplacer(
	"/", "-",
	"\\", "-",
	":", "-",
	"*", "-",
	"?", "",
	"\"", "",
	"<", "",
	">", "",
	"|", "",
)

// CleanTitle prepares feed-supplied text for transport metadata fields:
// control characters and transport-illegal characters are stripped, the
// result is trimmed to MetadataRuneLimit runes, and an empty result falls
// back to FallbackTitle.
func CleanTitle(title string) string {
	title = stripControl(title)
	title = fileNameReplacer.Replace(title)
	title = strings.TrimSpace(title)
	title = TruncateRunes(title, MetadataRuneLimit)
	if title == "" {
		return FallbackTitle
	}
	return title
}

// TruncateRunes shortens s to at most limit runes without splitting one.
func TruncateRunes(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return strings.TrimSpace(string(runes[:limit]))
}

func stripControl(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
}
