package utils

import (
	"fmt"
	"net/url"
	"strings"
)

// ResolveURL resolves ref against base per RFC 3986. An absolute ref is
// returned as given.
func ResolveURL(base, ref string) (string, error) {
	refURL, err := url.Parse(strings.TrimSpace(ref))
	if err != nil {
		return "", fmt.Errorf("invalid reference %q: %w", ref, err)
	}
	if refURL.IsAbs() || base == "" {
		return refURL.String(), nil
	}

	baseURL, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid base %q: %w", base, err)
	}
	return baseURL.ResolveReference(refURL).String(), nil
}

// IsHTTPURL reports whether rawURL is an absolute http or https URL
func IsHTTPURL(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// StripQuery returns rawURL without its query and fragment
func StripQuery(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	u.RawQuery = ""
	u.Fragment = ""
	return u.String()
}

// URLSlug turns the host and path of rawURL into a filename friendly name
func URLSlug(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return SanitizeFilename(rawURL)
	}
	return SanitizeFilename(strings.TrimSuffix(u.Host+"-"+strings.ReplaceAll(strings.Trim(u.Path, "/"), "/", "-"), "-"))
}
