package converter

import (
	"bytes"
	"fmt"

	"github.com/PuerkitoBio/goquery"
)

// Pipeline prepares fetched HTML for node searches: charset decoding, main
// content narrowing, then sanitizing of the parsed document
type Pipeline struct {
	sanitizer *Sanitizer
	narrower  *ContentNarrower
	sanitize  bool
}

// PipelineOptions contains options for the preparation pipeline
type PipelineOptions struct {
	BaseURL string
	// Content is ContentReadability, a CSS selector, or empty for the whole page
	Content string
	// Sanitize drops scripts, styles and comments and resolves relative links
	Sanitize         bool
	RemoveNavigation bool
}

// NewPipeline creates a new preparation pipeline
func NewPipeline(opts PipelineOptions) *Pipeline {
	return &Pipeline{
		sanitizer: NewSanitizer(SanitizerOptions{
			BaseURL:          opts.BaseURL,
			RemoveNavigation: opts.RemoveNavigation,
		}),
		narrower: NewContentNarrower(opts.Content),
		sanitize: opts.Sanitize,
	}
}

// Prepare decodes body and parses it into a document
func (p *Pipeline) Prepare(body []byte, contentType, sourceURL string) (*goquery.Document, error) {
	utf8Body, err := ConvertToUTF8(body, contentType)
	if err != nil {
		return nil, fmt.Errorf("failed to decode page: %w", err)
	}

	html, err := p.narrower.Narrow(string(utf8Body), sourceURL)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader([]byte(html)))
	if err != nil {
		return nil, fmt.Errorf("failed to parse page: %w", err)
	}

	if p.sanitize {
		p.sanitizer.SanitizeDocument(doc)
	}
	return doc, nil
}
