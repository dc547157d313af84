package converter

import (
	"mime"
	"strings"
)

// PayloadKind is how a fetched body should be decoded
type PayloadKind uint8

const (
	// PayloadBinary bodies are kept as bytes
	PayloadBinary PayloadKind = iota
	// PayloadText bodies are decoded to a string
	PayloadText
	// PayloadJSON bodies are parsed as JSON
	PayloadJSON
	// PayloadYAML bodies are parsed as YAML
	PayloadYAML
)

// String returns the kind name
func (k PayloadKind) String() string {
	switch k {
	case PayloadText:
		return "text"
	case PayloadJSON:
		return "json"
	case PayloadYAML:
		return "yaml"
	}
	return "binary"
}

// MediaType returns the lower-cased type/subtype of a Content-Type value
func MediaType(contentType string) string {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mt, _, _ = strings.Cut(contentType, ";")
	}
	return strings.ToLower(strings.TrimSpace(mt))
}

// ClassifyPayload maps a Content-Type to a PayloadKind. text/* and a few
// textual application types decode to strings; images and every other
// application type stay binary.
func ClassifyPayload(contentType string) PayloadKind {
	major, minor, _ := strings.Cut(MediaType(contentType), "/")
	switch major {
	case "text":
		return PayloadText
	case "application":
		switch {
		case minor == "json" || strings.HasSuffix(minor, "+json"):
			return PayloadJSON
		case minor == "x-yaml" || minor == "yaml":
			return PayloadYAML
		case minor == "xml" || minor == "x-httpd-php" || minor == "xhtml+xml":
			return PayloadText
		}
	}
	return PayloadBinary
}

// IsHTMLContent checks if the content type indicates HTML content.
// An empty content type counts as HTML.
func IsHTMLContent(contentType string) bool {
	if contentType == "" {
		return true
	}
	mt := MediaType(contentType)
	return mt == "text/html" || mt == "application/xhtml+xml"
}

// IsJSONContent checks if the content type indicates a JSON document
func IsJSONContent(contentType string) bool {
	return ClassifyPayload(contentType) == PayloadJSON
}
