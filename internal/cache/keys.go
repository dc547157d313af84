package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"path"
	"strings"
)

// GenerateKey hashes the normalized form of rawURL. Query strings are part
// of the key since extraction params travel in them.
func GenerateKey(rawURL string) string {
	hash := sha256.Sum256([]byte(normalizeForKey(rawURL)))
	return hex.EncodeToString(hash[:])
}

// normalizeForKey normalizes a URL for consistent key generation
func normalizeForKey(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return rawURL
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	if (u.Scheme == "http" && u.Port() == "80") ||
		(u.Scheme == "https" && u.Port() == "443") {
		u.Host = u.Hostname()
	}

	if u.Path == "" {
		u.Path = "/"
	} else {
		u.Path = path.Clean(u.Path)
	}

	// url.Values.Encode sorts by key
	if u.RawQuery != "" {
		if q, err := url.ParseQuery(u.RawQuery); err == nil {
			u.RawQuery = q.Encode()
		}
	}
	u.Fragment = ""

	return u.String()
}
