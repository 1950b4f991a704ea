package email

import (
	"bytes"
	"fmt"
	"html"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

var markdown = goldmark.New(goldmark.WithExtensions(extension.Linkify))

// RenderMarkdown converts a markdown body into HTML. Raw HTML in the input is dropped.
func RenderMarkdown(body string) (string, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(body), &buf); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return buf.String(), nil
}

// Notification is a short templated message about one class.
type Notification struct {
	Heading string
	Lines   []string // markdown, one paragraph each
}

// HTML renders n as a minimal HTML document body.
func (n Notification) HTML() (string, error) {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "<h2>%s</h2>\n", html.EscapeString(n.Heading))
	for _, line := range n.Lines {
		rendered, err := RenderMarkdown(line)
		if err != nil {
			return "", err
		}
		buf.WriteString(rendered)
	}
	return buf.String(), nil
}
