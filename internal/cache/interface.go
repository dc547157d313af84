package cache

import (
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"github.com/quantmind-br/extracthttp-go/internal/domain"
)

// Ensure BadgerCache implements domain.Cache
var _ domain.Cache = (*BadgerCache)(nil)

// EncodeEntry serializes a page entry for storage
func EncodeEntry(e *domain.CacheEntry) ([]byte, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("failed to encode cache entry: %w", err)
	}
	return data, nil
}

// DecodeEntry parses a stored page entry. An entry past its expiry is
// reported as domain.ErrCacheExpired.
func DecodeEntry(data []byte, now time.Time) (*domain.CacheEntry, error) {
	var e domain.CacheEntry
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("failed to decode cache entry: %w", err)
	}
	if !e.ExpiresAt.IsZero() && now.After(e.ExpiresAt) {
		return nil, domain.ErrCacheExpired
	}
	return &e, nil
}

// Options contains cache configuration options
type Options struct {
	// Directory defaults to ~/.extracthttp/cache
	Directory string
	InMemory  bool
	Logger    bool
	// GCInterval is how often the value log is compacted; zero means 5m
	GCInterval time.Duration
}

// DefaultOptions returns default cache options
func DefaultOptions() Options {
	return Options{GCInterval: 5 * time.Minute}
}
