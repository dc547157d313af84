package node

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/text/unicode/norm"
)

// MarkdownConverter turns an HTML fragment into Markdown
type MarkdownConverter interface {
	Convert(html string) (string, error)
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// StripText collapses every whitespace run into a single space
func StripText(s string) string {
	return whitespaceRun.ReplaceAllString(s, " ")
}

// Normalize applies compatibility decomposition and trims surrounding whitespace
func Normalize(s string) string {
	return strings.TrimSpace(norm.NFKD.String(s))
}

// Read extracts one raw value from the first node of sel. It reports false
// when there is no node, when an attribute is missing, or when markup
// cannot be rendered.
func Read(sel *goquery.Selection, kind SourceKind, sub string, md MarkdownConverter) (string, bool) {
	if sel == nil || sel.Length() == 0 {
		return "", false
	}
	n := sel.First()

	switch kind {
	case SourceInnerText:
		return n.Text(), true
	case SourceStripText:
		return StripText(n.Text()), true
	case SourceAttr:
		if sub == "" {
			sub = DefaultAttr
		}
		return n.Attr(sub)
	case SourceOuterHTML:
		html, err := goquery.OuterHtml(n)
		return html, err == nil
	case SourceMarkdown:
		html, err := n.Html()
		if err != nil {
			return "", false
		}
		if md == nil {
			return html, true
		}
		out, err := md.Convert(html)
		return out, err == nil
	default:
		html, err := n.Html()
		return html, err == nil
	}
}
