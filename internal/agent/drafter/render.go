package drafter

import (
	"bytes"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
)

var markdownEngine = goldmark.New(
	goldmark.WithExtensions(
		extension.GFM,
		extension.Typographer,
	),
	goldmark.WithParserOptions(
		parser.WithAutoHeadingID(),
	),
)

// htmlSanitizer keeps user-generated-content markup and drops scripts,
// event handlers and unknown elements
var htmlSanitizer = bluemonday.UGCPolicy()

// RenderMarkdown converts AI Markdown to sanitized HTML
func RenderMarkdown(markdown string) (string, error) {
	text := strings.TrimSpace(markdown)
	if text == "" {
		return "", nil
	}

	var out bytes.Buffer
	if err := markdownEngine.Convert([]byte(text), &out); err != nil {
		return "", err
	}
	return SanitizeHTML(out.String()), nil
}

// SanitizeHTML cleans HTML posted by the editor
func SanitizeHTML(html string) string {
	return strings.TrimSpace(htmlSanitizer.Sanitize(html))
}
