package converter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectEncoding(t *testing.T) {
	tests := []struct {
		name        string
		content     []byte
		contentType string
		want        string
	}{
		{
			name:    "plain ascii",
			content: []byte("<html><body>Hello</body></html>"),
			want:    "utf-8",
		},
		{
			name:    "meta charset",
			content: []byte(`<html><head><meta charset="UTF-8"></head><body>Hello</body></html>`),
			want:    "utf-8",
		},
		{
			name:        "header charset",
			content:     []byte("caf\xe9"),
			contentType: "text/html; charset=ISO-8859-1",
			want:        "windows-1252",
		},
		{
			name:    "meta shift_jis",
			content: []byte(`<html><head><meta http-equiv="Content-Type" content="text/html; charset=shift_jis"></head></html>`),
			want:    "shift_jis",
		},
		{
			name:        "bom beats header",
			content:     []byte("\xEF\xBB\xBFhello"),
			contentType: "text/html; charset=iso-8859-1",
			want:        "utf-8",
		},
		{
			name: "empty",
			want: "utf-8",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectEncoding(tt.content, tt.contentType))
		})
	}
}

func TestConvertToUTF8(t *testing.T) {
	tests := []struct {
		name        string
		content     []byte
		contentType string
		want        string
	}{
		{
			name:        "latin1 from header",
			content:     []byte("caf\xe9"),
			contentType: "text/html; charset=iso-8859-1",
			want:        "café",
		},
		{
			name:    "utf8 passes through",
			content: []byte("café"),
			want:    "café",
		},
		{
			name:    "bom stripped",
			content: []byte("\xEF\xBB\xBFcafé"),
			want:    "café",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := ConvertToUTF8(tt.content, tt.contentType)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(out))
		})
	}
}

func TestDecodeText(t *testing.T) {
	assert.Equal(t, "naïve", DecodeText([]byte("na\xefve"), "text/plain; charset=windows-1252"))
}

func TestGetEncoding(t *testing.T) {
	_, err := GetEncoding("utf-8")
	assert.NoError(t, err)

	_, err = GetEncoding("no-such-charset")
	assert.Error(t, err)
}
