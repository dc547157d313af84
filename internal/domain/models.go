package domain

import (
	"time"

	"github.com/quantmind-br/extracthttp-go/internal/record"
)

// DocumentType selects how a fetched source is interpreted
type DocumentType string

const (
	// TypeHTML sources are parsed into a node tree and read through locate groups
	TypeHTML DocumentType = "html"
	// TypeJSON sources are decoded into a record and transformed directly
	TypeJSON DocumentType = "json"
)

// Valid reports whether t is a known document type
func (t DocumentType) Valid() bool {
	return t == TypeHTML || t == TypeJSON
}

// Encoding selects how binary payloads are returned
type Encoding string

const (
	// EncodingRaw keeps binary payloads as bytes
	EncodingRaw Encoding = "raw"
	// EncodingBase64 returns standard base64 text
	EncodingBase64 Encoding = "base64"
	// EncodingBase64Text returns base64 text without line breaks
	EncodingBase64Text Encoding = "base64text"
)

// Valid reports whether e is a known encoding
func (e Encoding) Valid() bool {
	switch e {
	case EncodingRaw, EncodingBase64, EncodingBase64Text:
		return true
	}
	return false
}

// Page represents a fetched extraction source before it is parsed
type Page struct {
	URL         string
	Content     []byte
	ContentType string
	StatusCode  int
	FetchedAt   time.Time
	FromCache   bool
	RenderedJS  bool
}

// CacheEntry represents a cached page entry
type CacheEntry struct {
	URL         string    `json:"url"`
	Content     []byte    `json:"content"`
	ContentType string    `json:"content_type"`
	FetchedAt   time.Time `json:"fetched_at"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// Result is the output of one extraction run.
// For html sources Data is a list with one list of records per locate group;
// for json sources it is the transformed document.
type Result struct {
	Name       string       `json:"name" yaml:"name"`
	Type       DocumentType `json:"type" yaml:"type"`
	URL        string       `json:"url,omitempty" yaml:"url,omitempty"`
	FetchedAt  time.Time    `json:"fetched_at" yaml:"fetched_at"`
	FromCache  bool         `json:"from_cache" yaml:"from_cache"`
	RenderedJS bool         `json:"rendered_js" yaml:"rendered_js"`
	Data       record.Value `json:"data" yaml:"data"`
}

// Groups returns the record groups of an html result
func (r *Result) Groups() [][]*record.Record {
	var out [][]*record.Record
	for _, group := range r.Data.Items() {
		var recs []*record.Record
		for _, item := range group.Items() {
			if rec := item.Record(); rec != nil {
				recs = append(recs, rec)
			}
		}
		out = append(out, recs)
	}
	return out
}

// RecordCount returns the number of records in the result
func (r *Result) RecordCount() int {
	if r.Type != TypeHTML {
		if r.Data.IsNull() {
			return 0
		}
		return 1
	}
	n := 0
	for _, g := range r.Groups() {
		n += len(g)
	}
	return n
}

// GroupsValue wraps record groups into a Result data value
func GroupsValue(groups [][]*record.Record) record.Value {
	items := make([]record.Value, 0, len(groups))
	for _, g := range groups {
		recs := make([]record.Value, 0, len(g))
		for _, rec := range g {
			recs = append(recs, record.FromRecord(rec))
		}
		items = append(items, record.List(recs...))
	}
	return record.List(items...)
}
