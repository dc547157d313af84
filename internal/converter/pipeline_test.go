package converter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPipeline_Prepare(t *testing.T) {
	page := `<html><head><title>T</title><script>var x = 1;</script></head>
<body><nav><a href="/home">Home</a></nav>
<div class="main"><a href="/item/1">One</a><img src="img/a.png"></div>
<!-- note --></body></html>`

	tests := []struct {
		name     string
		opts     PipelineOptions
		selector string
		want     string
		absent   string
	}{
		{
			name:     "whole page",
			opts:     PipelineOptions{},
			selector: "nav a",
			want:     "Home",
		},
		{
			name:     "content selector",
			opts:     PipelineOptions{Content: ".main"},
			selector: "a",
			want:     "One",
		},
		{
			name:     "sanitized drops scripts",
			opts:     PipelineOptions{Sanitize: true},
			selector: "head",
			want:     "T",
			absent:   "var x",
		},
		{
			name:     "navigation removed",
			opts:     PipelineOptions{Sanitize: true, RemoveNavigation: true},
			selector: "body",
			want:     "One",
			absent:   "Home",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := NewPipeline(tt.opts).Prepare([]byte(page), "text/html", "https://example.com/list/")
			require.NoError(t, err)

			text := doc.Find(tt.selector).Text()
			assert.Contains(t, text, tt.want)
			if tt.absent != "" {
				assert.NotContains(t, text, tt.absent)
			}
		})
	}
}

func TestPipeline_PrepareResolvesLinks(t *testing.T) {
	page := `<html><body><a href="/item/1">One</a><img src="img/a.png" srcset="a.png 1x, b.png 2x"></body></html>`

	doc, err := NewPipeline(PipelineOptions{
		BaseURL:  "https://example.com/list/",
		Sanitize: true,
	}).Prepare([]byte(page), "", "https://example.com/list/")
	require.NoError(t, err)

	href, _ := doc.Find("a").Attr("href")
	assert.Equal(t, "https://example.com/item/1", href)
	src, _ := doc.Find("img").Attr("src")
	assert.Equal(t, "https://example.com/list/img/a.png", src)
	srcset, _ := doc.Find("img").Attr("srcset")
	assert.Equal(t, "https://example.com/list/a.png 1x, https://example.com/list/b.png 2x", srcset)
}

func TestPipeline_PrepareDecodesCharset(t *testing.T) {
	doc, err := NewPipeline(PipelineOptions{}).Prepare(
		[]byte("<html><body><p>caf\xe9</p></body></html>"),
		"text/html; charset=iso-8859-1",
		"",
	)
	require.NoError(t, err)
	assert.Equal(t, "café", doc.Find("p").Text())
}
