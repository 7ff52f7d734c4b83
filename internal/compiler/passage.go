package compiler

import (
	"regexp"
	"strings"
)

// passage is a raw named block of markup, the compiler's input unit. It only
// lives for the duration of one compile.
type passage struct {
	Name    string
	Content string
}

// Passage headers are ":: Name" lines, optionally followed by a bracketed
// tag/position blob that authoring tools append.
// The blob group matches same-line whitespace only, so a JSON body on the
// lines below a ":: StoryData" header stays in the passage content.
var reHeader = regexp.MustCompile(`(?m)^:: (.+?)(?:[ \t]+\{[^}]*\})?[ \t]*\r?$`)

// splitPassages scans the document for header lines; each passage's content
// runs to the next header or end of document.
func splitPassages(source string) []passage {
	headers := reHeader.FindAllStringSubmatchIndex(source, -1)
	passages := make([]passage, 0, len(headers))

	for i, h := range headers {
		name := strings.TrimSpace(source[h[2]:h[3]])
		name = strings.Trim(name, `"'`)

		end := len(source)
		if i+1 < len(headers) {
			end = headers[i+1][0]
		}
		passages = append(passages, passage{
			Name:    name,
			Content: strings.TrimSpace(source[h[1]:end]),
		})
	}
	return passages
}

var reSlug = regexp.MustCompile(`[^a-z0-9]+`)

// slugify converts a passage name into a node id: lowercase, with runs of
// non-alphanumerics collapsed to single underscores and trimmed.
func slugify(name string) string {
	id := reSlug.ReplaceAllString(strings.ToLower(name), "_")
	return strings.Trim(id, "_")
}
