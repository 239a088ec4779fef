// Package format converts model output for client display.
package format

import (
	"strings"

	"github.com/gomarkdown/markdown"
)

// MarkdownToHTML renders the model's markdown answer as HTML for clients
// that want the finished message rather than the raw streamed text.
func MarkdownToHTML(raw string) string {
	normalized := normalizeLists(raw)
	return string(markdown.ToHTML([]byte(normalized), nil, nil))
}

// normalizeLists ensures lists are preceded by a blank line. Models often
// emit "**Heading:**\n- item" which markdown parsers read as a paragraph.
func normalizeLists(text string) string {
	lines := strings.Split(text, "\n")
	var out []string
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		isListItem := strings.HasPrefix(trimmed, "- ") || strings.HasPrefix(trimmed, "* ")
		if isListItem && i > 0 {
			prev := strings.TrimSpace(lines[i-1])
			prevIsList := strings.HasPrefix(prev, "- ") || strings.HasPrefix(prev, "* ")
			if prev != "" && !prevIsList {
				out = append(out, "")
			}
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}
