package format

import (
	"html/template"
	"regexp"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

var numberedListItem = regexp.MustCompile(`^\d+\.\s`)

// PreprocessAssistantText normalizes model output.
// Performs basic text cleanup for better readability.
func PreprocessAssistantText(text string) string {
	if text == "" {
		return text
	}

	// Replace curly quotes (helps readability)
	text = strings.NewReplacer(
		"“", "\"",
		"”", "\"",
		"‘", "'",
		"’", "'",
	).Replace(text)

	return normalizeMarkdownLists(text)
}

// RenderMarkdown converts an answer to HTML. Raw HTML in the answer is
// dropped, never passed through.
func RenderMarkdown(text string) template.HTML {
	text = PreprocessAssistantText(text)
	if strings.TrimSpace(text) == "" {
		return ""
	}

	p := parser.NewWithExtensions(parser.CommonExtensions | parser.NoEmptyLineBeforeBlock)
	renderer := html.NewRenderer(html.RendererOptions{
		Flags: html.CommonFlags | html.SkipHTML | html.HrefTargetBlank | html.Safelink,
	})

	out := markdown.ToHTML([]byte(text), p, renderer)
	return template.HTML(strings.TrimSpace(string(out)))
}

// normalizeMarkdownLists ensures list items have proper spacing for markdown parsing.
// Markdown requires a blank line before lists, but models often forget this.
func normalizeMarkdownLists(text string) string {
	lines := strings.Split(text, "\n")
	result := make([]string, 0, len(lines))

	for i, line := range lines {
		if isListItem(line) && i > 0 {
			prev := lines[i-1]
			if strings.TrimSpace(prev) != "" && !isListItem(prev) {
				result = append(result, "")
			}
		}
		result = append(result, line)
	}

	return strings.Join(result, "\n")
}

func isListItem(line string) bool {
	trimmed := strings.TrimSpace(line)
	return strings.HasPrefix(trimmed, "- ") ||
		strings.HasPrefix(trimmed, "* ") ||
		strings.HasPrefix(trimmed, "+ ") ||
		numberedListItem.MatchString(trimmed)
}
