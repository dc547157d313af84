package converter

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// TagsToRemove never carry extractable content
var TagsToRemove = []string{
	"script",
	"style",
	"noscript",
	"template",
}

// NavigationSelectors match page chrome dropped when RemoveNavigation is set
var NavigationSelectors = []string{
	"nav",
	"aside",
	"[role='navigation']",
	"#sidebar",
	".sidebar",
}

// Sanitizer cleans a parsed page before locate groups read it
type Sanitizer struct {
	baseURL          string
	removeNavigation bool
}

// SanitizerOptions contains options for the sanitizer
type SanitizerOptions struct {
	// BaseURL, when set, turns relative href, src and srcset values absolute
	BaseURL          string
	RemoveNavigation bool
}

// NewSanitizer creates a new sanitizer
func NewSanitizer(opts SanitizerOptions) *Sanitizer {
	return &Sanitizer{
		baseURL:          opts.BaseURL,
		removeNavigation: opts.RemoveNavigation,
	}
}

// SanitizeDocument cleans doc in place
func (s *Sanitizer) SanitizeDocument(doc *goquery.Document) *goquery.Document {
	if doc == nil {
		return nil
	}

	doc.Find(strings.Join(TagsToRemove, ",")).Remove()
	removeComments(doc.Selection)
	if s.removeNavigation {
		doc.Find(strings.Join(NavigationSelectors, ",")).Remove()
	}
	if s.baseURL != "" {
		s.normalizeURLs(doc.Selection)
	}
	return doc
}

func removeComments(sel *goquery.Selection) {
	sel.Contents().Each(func(_ int, child *goquery.Selection) {
		if n := child.Get(0); n != nil && n.Type == html.CommentNode {
			child.Remove()
			return
		}
		removeComments(child)
	})
}

func (s *Sanitizer) normalizeURLs(sel *goquery.Selection) {
	base, err := url.Parse(s.baseURL)
	if err != nil {
		return
	}

	for _, attr := range []string{"href", "src"} {
		sel.Find("[" + attr + "]").Each(func(_ int, node *goquery.Selection) {
			if ref, ok := node.Attr(attr); ok {
				node.SetAttr(attr, resolveURL(base, ref))
			}
		})
	}
	sel.Find("[srcset]").Each(func(_ int, node *goquery.Selection) {
		if srcset, ok := node.Attr("srcset"); ok {
			node.SetAttr("srcset", normalizeSrcset(base, srcset))
		}
	})
}

// resolveURL resolves a relative URL against a base URL
func resolveURL(base *url.URL, ref string) string {
	if ref == "" || strings.HasPrefix(ref, "#") ||
		strings.HasPrefix(ref, "javascript:") ||
		strings.HasPrefix(ref, "mailto:") ||
		strings.HasPrefix(ref, "data:") {
		return ref
	}

	refURL, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return base.ResolveReference(refURL).String()
}

// normalizeSrcset normalizes URLs in srcset attribute
func normalizeSrcset(base *url.URL, srcset string) string {
	parts := strings.Split(srcset, ",")
	for i, part := range parts {
		tokens := strings.Fields(strings.TrimSpace(part))
		if len(tokens) > 0 {
			tokens[0] = resolveURL(base, tokens[0])
			parts[i] = strings.Join(tokens, " ")
		}
	}
	return strings.Join(parts, ", ")
}
