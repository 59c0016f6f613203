// Package markdown renders user-authored style descriptions to HTML.
package markdown

import (
	"bytes"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// Renderer converts markdown to HTML. Raw HTML in the source is omitted and
// javascript:/vbscript:/data: links are dropped.
type Renderer struct {
	md goldmark.Markdown
}

// NewRenderer returns a Renderer with GitHub-flavoured tables, strikethrough
// and autolinks enabled.
func NewRenderer() *Renderer {
	return &Renderer{
		md: goldmark.New(
			goldmark.WithExtensions(extension.Strikethrough, extension.Linkify, extension.Table),
			goldmark.WithRendererOptions(html.WithHardWraps()),
		),
	}
}

// Render returns the HTML for source. Empty input renders to "".
func (r *Renderer) Render(source string) (string, error) {
	if source == "" {
		return "", nil
	}
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(source), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}
