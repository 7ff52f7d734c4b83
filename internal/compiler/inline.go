package compiler

import (
	"regexp"
	"strings"
)

var (
	reBoldTicks  = regexp.MustCompile(`''([^']+)''`)
	reItalSlash  = regexp.MustCompile(`//([^/]+)//`)
	reBoldStars  = regexp.MustCompile(`\*\*([^*]+)\*\*`)
	reItalStar   = regexp.MustCompile(`\*([^*]+)\*`)
	reStrayTicks = regexp.MustCompile(`''`)

	reDisplayShout  = regexp.MustCompile(`^<<\s*|\s*>>$`)
	reDisplayBold   = regexp.MustCompile(`\*\*([^*]*)\*\*`)
	reDisplayTicks  = regexp.MustCompile(`''([^']*)''`)
	reDisplayItalic = regexp.MustCompile(`//([^/]*)//`)
	reDisplayStrike = regexp.MustCompile(`~~([^~]*)~~`)
	reDisplayMarks  = regexp.MustCompile(`^==+|==+$`)
)

// formatInline converts authoring emphasis markers to emphasis markup:
// ''bold'' and **bold** become <strong>, //italic// and *italic* become <em>.
// Double-star bold is rewritten before single stars so the two never collide.
func formatInline(text string) string {
	if text == "" {
		return text
	}
	text = reBoldTicks.ReplaceAllString(text, "<strong>$1</strong>")
	text = reItalSlash.ReplaceAllString(text, "<em>$1</em>")
	text = reBoldStars.ReplaceAllString(text, "<strong>$1</strong>")
	text = reItalStar.ReplaceAllString(text, "<em>$1</em>")
	return reStrayTicks.ReplaceAllString(text, "")
}

// cleanDisplayText strips emphasis markers from choice button labels instead
// of converting them; buttons render plain text.
func cleanDisplayText(text string) string {
	text = reDisplayShout.ReplaceAllString(text, "")
	text = reDisplayBold.ReplaceAllString(text, "$1")
	text = reDisplayTicks.ReplaceAllString(text, "$1")
	text = reDisplayItalic.ReplaceAllString(text, "$1")
	text = reDisplayStrike.ReplaceAllString(text, "$1")
	text = reDisplayMarks.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}
