package fetcher

import (
	"bytes"
	"context"
	"encoding/base64"
	"strings"

	"github.com/quantmind-br/extracthttp-go/internal/converter"
	"github.com/quantmind-br/extracthttp-go/internal/domain"
	"github.com/quantmind-br/extracthttp-go/internal/record"
)

// base64LineLength is the MIME line length of EncodingBase64 output
const base64LineLength = 76

// FetchPayload fetches url and decodes the body by its content type:
// JSON and YAML documents become record values, textual types become
// strings and everything else is binary, re-encoded by enc.
func (c *Client) FetchPayload(ctx context.Context, url string, enc domain.Encoding) (record.Value, error) {
	resp, err := c.GetWithHeaders(ctx, url, map[string]string{"Accept": AcceptAny})
	if err != nil {
		return record.Null(), err
	}
	return DecodePayload(resp.Body, resp.ContentType, enc), nil
}

// DecodePayload turns a response body into a record value. Documents that
// fail to parse fall back to their text.
func DecodePayload(body []byte, contentType string, enc domain.Encoding) record.Value {
	switch converter.ClassifyPayload(contentType) {
	case converter.PayloadJSON:
		if v, err := record.ParseJSON(body); err == nil {
			return v
		}
		return record.String(converter.DecodeText(body, contentType))
	case converter.PayloadYAML:
		if v, err := record.DecodeYAML(bytes.NewReader(body)); err == nil {
			return v
		}
		return record.String(converter.DecodeText(body, contentType))
	case converter.PayloadText:
		return record.String(converter.DecodeText(body, contentType))
	}
	return EncodeBytes(body, enc)
}

// EncodeBytes wraps binary data per enc. EncodingBase64 breaks lines every
// 76 characters and ends with a newline; EncodingBase64Text has no breaks.
// Unknown encodings keep the raw bytes.
func EncodeBytes(data []byte, enc domain.Encoding) record.Value {
	switch enc {
	case domain.EncodingBase64Text:
		return record.String(base64.StdEncoding.EncodeToString(data))
	case domain.EncodingBase64:
		return record.String(wrapLines(base64.StdEncoding.EncodeToString(data), base64LineLength))
	}
	return record.Bytes(data)
}

func wrapLines(s string, width int) string {
	if s == "" {
		return ""
	}
	var b strings.Builder
	for len(s) > width {
		b.WriteString(s[:width])
		b.WriteByte('\n')
		s = s[width:]
	}
	b.WriteString(s)
	b.WriteByte('\n')
	return b.String()
}
