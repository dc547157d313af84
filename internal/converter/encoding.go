package converter

import (
	"bytes"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"
)

// DetectEncoding names the character encoding of content. A byte order
// mark wins, then the charset of contentType, then a <meta> prescan of the
// first kilobyte. Valid UTF-8 without any hint is reported as utf-8.
func DetectEncoding(content []byte, contentType string) string {
	_, name, certain := charset.DetermineEncoding(content, contentType)
	if !certain && utf8.Valid(content) && name == "windows-1252" {
		return "utf-8"
	}
	if name == "" {
		return "utf-8"
	}
	return strings.ToLower(name)
}

// ConvertToUTF8 decodes content into UTF-8. Unknown encodings are returned
// as-is.
func ConvertToUTF8(content []byte, contentType string) ([]byte, error) {
	enc := DetectEncoding(content, contentType)
	if enc == "utf-8" {
		return bytes.TrimPrefix(content, []byte{0xEF, 0xBB, 0xBF}), nil
	}

	e, err := GetEncoding(enc)
	if err != nil {
		return content, nil
	}

	reader := transform.NewReader(bytes.NewReader(content), e.NewDecoder())
	return io.ReadAll(reader)
}

// DecodeText is ConvertToUTF8 for callers that want a string and can live
// with the raw bytes on failure
func DecodeText(content []byte, contentType string) string {
	out, err := ConvertToUTF8(content, contentType)
	if err != nil {
		return string(content)
	}
	return string(out)
}

// GetEncoding returns the encoding for a charset name
func GetEncoding(charsetName string) (encoding.Encoding, error) {
	return htmlindex.Get(charsetName)
}
