package converter

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizer_SanitizeDocument(t *testing.T) {
	doc := parse(t, `<html><head><style>p{}</style></head><body>
<!-- hidden --><noscript>enable js</noscript><nav>menu</nav><aside>side</aside>
<p>kept</p><template><p>tpl</p></template><script>alert(1)</script></body></html>`)

	NewSanitizer(SanitizerOptions{RemoveNavigation: true}).SanitizeDocument(doc)

	html, err := doc.Html()
	require.NoError(t, err)
	assert.Contains(t, html, "kept")
	for _, gone := range []string{"hidden", "enable js", "menu", "side", "tpl", "alert", "p{}"} {
		assert.NotContains(t, html, gone)
	}
}

func TestSanitizer_KeepsNavigationByDefault(t *testing.T) {
	doc := parse(t, `<html><body><nav>menu</nav></body></html>`)
	NewSanitizer(SanitizerOptions{}).SanitizeDocument(doc)
	assert.Equal(t, 1, doc.Find("nav").Length())
}

func TestSanitizer_NilDocument(t *testing.T) {
	assert.Nil(t, NewSanitizer(SanitizerOptions{}).SanitizeDocument(nil))
}

func TestResolveURL(t *testing.T) {
	base, err := url.Parse("https://example.com/docs/")
	require.NoError(t, err)

	tests := []struct {
		ref  string
		want string
	}{
		{ref: "page", want: "https://example.com/docs/page"},
		{ref: "/root", want: "https://example.com/root"},
		{ref: "https://other.org/x", want: "https://other.org/x"},
		{ref: "#top", want: "#top"},
		{ref: "mailto:a@b.c", want: "mailto:a@b.c"},
		{ref: "data:image/png;base64,AA==", want: "data:image/png;base64,AA=="},
		{ref: "", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			assert.Equal(t, tt.want, resolveURL(base, tt.ref))
		})
	}
}
