package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/quantmind-br/extracthttp-go/internal/cache"
	"github.com/quantmind-br/extracthttp-go/internal/domain"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// NewBadgerCache creates an in-memory BadgerDB cache for testing
func NewBadgerCache(t *testing.T) domain.Cache {
	t.Helper()

	c, err := cache.NewBadgerCache(cache.Options{
		InMemory: true,
		Logger:   false,
	})
	require.NoError(t, err)

	t.Cleanup(func() {
		c.Close()
	})

	return c
}

// CacheEntry builds an encoded cache entry for url expiring after ttl
func CacheEntry(t *testing.T, url, content, contentType string, ttl time.Duration) []byte {
	t.Helper()

	now := time.Now()
	data, err := cache.EncodeEntry(&domain.CacheEntry{
		URL:         url,
		Content:     []byte(content),
		ContentType: contentType,
		FetchedAt:   now,
		ExpiresAt:   now.Add(ttl),
	})
	require.NoError(t, err)

	return data
}

// SimpleMockCache is a testify mock of domain.Cache for tests that only
// assert on a handful of calls
type SimpleMockCache struct {
	mock.Mock
}

var _ domain.Cache = (*SimpleMockCache)(nil)

func (m *SimpleMockCache) Get(ctx context.Context, key string) ([]byte, error) {
	args := m.Called(ctx, key)
	data, _ := args.Get(0).([]byte)
	return data, args.Error(1)
}

func (m *SimpleMockCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return m.Called(ctx, key, value, ttl).Error(0)
}

func (m *SimpleMockCache) Has(ctx context.Context, key string) bool {
	return m.Called(ctx, key).Bool(0)
}

func (m *SimpleMockCache) Delete(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

func (m *SimpleMockCache) Close() error {
	return m.Called().Error(0)
}
