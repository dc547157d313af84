package fetcher

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/quantmind-br/extracthttp-go/internal/domain"
	"github.com/quantmind-br/extracthttp-go/tests/testutil"
)

func TestClient_BadgerCacheHit(t *testing.T) {
	server := testutil.NewTestServer(t)
	server.HandleHTML("/page", "<p>live</p>")
	pageURL := server.URL + "/page"

	store := testutil.NewBadgerCache(t)
	ctx := context.Background()
	require.NoError(t, store.Set(ctx, pageURL,
		testutil.CacheEntry(t, pageURL, "<p>cached</p>", "text/html", time.Hour), time.Hour))

	client := newTestClient(t, ClientOptions{EnableCache: true, Cache: store, CacheTTL: time.Hour})
	resp, err := client.Get(ctx, pageURL)
	require.NoError(t, err)

	assert.True(t, resp.FromCache)
	assert.Equal(t, []byte("<p>cached</p>"), resp.Body)
	assert.Equal(t, "text/html", resp.ContentType)
	assert.Equal(t, 0, server.Hits("/page"))
}

func TestClient_ExpiredEntryRefetches(t *testing.T) {
	server := testutil.NewTestServer(t)
	server.HandleHTML("/page", "<p>live</p>")
	pageURL := server.URL + "/page"

	store := testutil.NewBadgerCache(t)
	ctx := context.Background()
	require.NoError(t, store.Set(ctx, pageURL,
		testutil.CacheEntry(t, pageURL, "<p>stale</p>", "text/html", -time.Minute), time.Hour))

	client := newTestClient(t, ClientOptions{EnableCache: true, Cache: store, CacheTTL: time.Hour})
	resp, err := client.Get(ctx, pageURL)
	require.NoError(t, err)

	assert.False(t, resp.FromCache)
	assert.Equal(t, []byte("<p>live</p>"), resp.Body)
	assert.Equal(t, 1, server.Hits("/page"))
}

func TestClient_CacheWriteFailureIsIgnored(t *testing.T) {
	server := testutil.NewTestServer(t)
	server.HandleJSON("/data", map[string]int{"n": 1})
	dataURL := server.URL + "/data"

	store := &testutil.SimpleMockCache{}
	store.On("Get", mock.Anything, dataURL).Return(nil, domain.ErrCacheMiss)
	store.On("Set", mock.Anything, dataURL, mock.Anything, time.Hour).Return(errors.New("disk full"))
	store.On("Close").Return(nil).Maybe()

	client := newTestClient(t, ClientOptions{
		EnableCache: true,
		Cache:       store,
		CacheTTL:    time.Hour,
		Logger:      testutil.NewTestLogger(t),
	})
	resp, err := client.Get(context.Background(), dataURL)
	require.NoError(t, err)

	assert.JSONEq(t, `{"n":1}`, string(resp.Body))
	store.AssertExpectations(t)
}
