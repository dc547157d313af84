package converter

import (
	"fmt"
	"regexp"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
)

var blankRuns = regexp.MustCompile(`\n{3,}`)

// MarkdownConverter converts HTML fragments to Markdown. It backs the
// markdown source kind of node descriptors.
type MarkdownConverter struct {
	domain string
}

// MarkdownOptions contains options for Markdown conversion
type MarkdownOptions struct {
	// Domain resolves relative links and images
	Domain string
}

// NewMarkdownConverter creates a new Markdown converter
func NewMarkdownConverter(opts MarkdownOptions) *MarkdownConverter {
	return &MarkdownConverter{
		domain: opts.Domain,
	}
}

// Convert converts an HTML fragment to Markdown
func (c *MarkdownConverter) Convert(html string) (string, error) {
	var opts []converter.ConvertOptionFunc
	if c.domain != "" {
		opts = append(opts, converter.WithDomain(c.domain))
	}

	markdown, err := md.ConvertString(html, opts...)
	if err != nil {
		return "", fmt.Errorf("failed to convert HTML to Markdown: %w", err)
	}
	return cleanMarkdown(markdown), nil
}

// cleanMarkdown collapses runs of blank lines and trims the result
func cleanMarkdown(markdown string) string {
	return strings.TrimSpace(blankRuns.ReplaceAllString(markdown, "\n\n"))
}
