package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveURL(t *testing.T) {
	tests := []struct {
		name string
		base string
		ref  string
		want string
	}{
		{name: "root relative", base: "https://example.com/docs/page", ref: "/img/a.png", want: "https://example.com/img/a.png"},
		{name: "sibling", base: "https://example.com/docs/page", ref: "b.png", want: "https://example.com/docs/b.png"},
		{name: "parent", base: "https://example.com/docs/api/", ref: "../guide", want: "https://example.com/docs/guide"},
		{name: "absolute ref", base: "https://example.com/", ref: "https://cdn.example.com/x.png", want: "https://cdn.example.com/x.png"},
		{name: "no base", base: "", ref: "/a.png", want: "/a.png"},
		{name: "trims ref", base: "https://example.com/", ref: "  a.png ", want: "https://example.com/a.png"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveURL(tt.base, tt.ref)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ResolveURL("https://example.com/", "%zz")
	assert.Error(t, err)
}

func TestIsHTTPURL(t *testing.T) {
	assert.True(t, IsHTTPURL("https://example.com/a"))
	assert.True(t, IsHTTPURL("http://localhost:8080"))
	assert.False(t, IsHTTPURL("ftp://example.com"))
	assert.False(t, IsHTTPURL("/relative/path"))
	assert.False(t, IsHTTPURL("data.json"))
}

func TestStripQuery(t *testing.T) {
	assert.Equal(t, "https://example.com/a", StripQuery("https://example.com/a?x=1#top"))
	assert.Equal(t, "https://example.com/a", StripQuery("https://example.com/a"))
}

func TestURLSlug(t *testing.T) {
	assert.Equal(t, "example.com-teams-red", URLSlug("https://example.com/teams/red/?season=1"))
	assert.Equal(t, "example.com", URLSlug("https://example.com/"))
	assert.Equal(t, "data-file.json", URLSlug("data/file.json"))
}
