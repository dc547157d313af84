package fetcher

import (
	"math/rand/v2"
	"strings"
)

// UserAgents is a pool of current desktop browser user agents
var UserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/130.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:132.0) Gecko/20100101 Firefox/132.0",
	"Mozilla/5.0 (X11; Linux x86_64; rv:132.0) Gecko/20100101 Firefox/132.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.6 Safari/605.1.15",
}

// AcceptLanguages are common Accept-Language header values
var AcceptLanguages = []string{
	"en-US,en;q=0.9",
	"en-GB,en;q=0.9,en-US;q=0.8",
	"en-US,en;q=0.9,de;q=0.8",
}

// Accept header values per request purpose
const (
	AcceptDocument = "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"
	AcceptJSON     = "application/json,text/plain;q=0.9,*/*;q=0.8"
	AcceptAny      = "*/*"
)

// RandomUserAgent returns a random user agent from the pool
func RandomUserAgent() string {
	return UserAgents[rand.IntN(len(UserAgents))]
}

// RandomAcceptLanguage returns a random Accept-Language header value
func RandomAcceptLanguage() string {
	return AcceptLanguages[rand.IntN(len(AcceptLanguages))]
}

// StealthHeaders returns browser-like request headers. An empty userAgent
// picks one from the pool; an empty accept means AcceptDocument.
func StealthHeaders(userAgent, accept string) map[string]string {
	if userAgent == "" {
		userAgent = RandomUserAgent()
	}
	if accept == "" {
		accept = AcceptDocument
	}

	headers := map[string]string{
		"User-Agent":      userAgent,
		"Accept":          accept,
		"Accept-Language": RandomAcceptLanguage(),
		"Accept-Encoding": "gzip, deflate, br",
		"Cache-Control":   "no-cache",
	}
	if accept == AcceptDocument {
		headers["Sec-Fetch-Dest"] = "document"
		headers["Sec-Fetch-Mode"] = "navigate"
		headers["Upgrade-Insecure-Requests"] = "1"
	}
	if strings.Contains(userAgent, "Chrome") {
		headers["Sec-CH-UA"] = `"Google Chrome";v="131", "Chromium";v="131", "Not_A Brand";v="24"`
		headers["Sec-CH-UA-Mobile"] = "?0"
	}
	return headers
}
