package converter

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-shiori/go-readability"
)

// ContentReadability selects the readability main-content heuristic
const ContentReadability = "readability"

// ContentNarrower cuts a page down to its main content before locate
// groups run. The mode is either ContentReadability or a CSS selector.
type ContentNarrower struct {
	mode string
}

// NewContentNarrower creates a narrower; an empty mode keeps pages whole
func NewContentNarrower(mode string) *ContentNarrower {
	return &ContentNarrower{mode: strings.TrimSpace(mode)}
}

// Narrow returns the main content of html as a standalone document
func (n *ContentNarrower) Narrow(html, sourceURL string) (string, error) {
	switch n.mode {
	case "":
		return html, nil
	case ContentReadability:
		return n.withReadability(html, sourceURL)
	default:
		return n.withSelector(html)
	}
}

// withSelector keeps every node matching the selector, in document order.
// A selector that matches nothing yields an empty body.
func (n *ContentNarrower) withSelector(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("<html><body>")
	var outerErr error
	doc.Find(n.mode).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		markup, err := goquery.OuterHtml(sel)
		if err != nil {
			outerErr = err
			return false
		}
		b.WriteString(markup)
		return true
	})
	if outerErr != nil {
		return "", fmt.Errorf("content selector %q: %w", n.mode, outerErr)
	}
	b.WriteString("</body></html>")
	return b.String(), nil
}

// withReadability runs the readability algorithm, falling back to the
// body when it cannot find an article
func (n *ContentNarrower) withReadability(html, sourceURL string) (string, error) {
	parsedURL, err := url.Parse(sourceURL)
	if err != nil || sourceURL == "" {
		parsedURL = &url.URL{Scheme: "https", Host: "localhost"}
	}

	article, err := readability.FromReader(strings.NewReader(html), parsedURL)
	if err != nil || strings.TrimSpace(article.Content) == "" {
		return extractBody(html)
	}
	return "<html><body>" + article.Content + "</body></html>", nil
}

// extractBody keeps the body of html
func extractBody(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return html, nil
	}

	body := doc.Find("body")
	if body.Length() == 0 {
		return html, nil
	}
	inner, err := body.Html()
	if err != nil {
		return html, nil
	}
	return "<html><body>" + inner + "</body></html>", nil
}
