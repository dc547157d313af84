package fetcher

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantmind-br/extracthttp-go/internal/domain"
	"github.com/quantmind-br/extracthttp-go/internal/record"
)

// memoryCache is a map backed domain.Cache
type memoryCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemoryCache() *memoryCache {
	return &memoryCache{data: make(map[string][]byte)}
}

func (m *memoryCache) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return nil, domain.ErrCacheMiss
	}
	return v, nil
}

func (m *memoryCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *memoryCache) Has(ctx context.Context, key string) bool {
	_, err := m.Get(ctx, key)
	return err == nil
}

func (m *memoryCache) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *memoryCache) Close() error { return nil }

func newTestClient(t *testing.T, opts ClientOptions) *Client {
	t.Helper()
	c, err := NewClient(opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestDefaultClientOptions(t *testing.T) {
	opts := DefaultClientOptions()

	assert.Equal(t, 90*time.Second, opts.Timeout)
	assert.Equal(t, 3, opts.MaxRetries)
	assert.True(t, opts.EnableCache)
	assert.Equal(t, 24*time.Hour, opts.CacheTTL)
}

func TestClient_Get(t *testing.T) {
	t.Run("successful fetch", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			_, _ = w.Write([]byte("<p>hi</p>"))
		}))
		defer server.Close()

		client := newTestClient(t, ClientOptions{})
		resp, err := client.Get(context.Background(), server.URL)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, []byte("<p>hi</p>"), resp.Body)
		assert.Equal(t, "text/html; charset=utf-8", resp.ContentType)
		assert.False(t, resp.FromCache)
	})

	t.Run("not found", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer server.Close()

		client := newTestClient(t, ClientOptions{})
		resp, err := client.Get(context.Background(), server.URL)
		assert.Nil(t, resp)

		var fetchErr *domain.FetchError
		require.ErrorAs(t, err, &fetchErr)
		assert.Equal(t, http.StatusNotFound, fetchErr.StatusCode)
	})

	t.Run("query and headers reach the server", func(t *testing.T) {
		var gotQuery, gotAccept string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotQuery = r.URL.RawQuery
			gotAccept = r.Header.Get("Accept")
			_, _ = w.Write([]byte("ok"))
		}))
		defer server.Close()

		client := newTestClient(t, ClientOptions{})
		_, err := client.GetWithHeaders(context.Background(), server.URL+"/?page=2", map[string]string{"Accept": AcceptJSON})
		require.NoError(t, err)
		assert.Equal(t, "page=2", gotQuery)
		assert.Equal(t, AcceptJSON, gotAccept)
	})
}

func TestClient_Cache(t *testing.T) {
	hits := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"n":1}`))
	}))
	defer server.Close()

	store := newMemoryCache()
	client := newTestClient(t, ClientOptions{EnableCache: true, Cache: store, CacheTTL: time.Hour})
	ctx := context.Background()

	first, err := client.Get(ctx, server.URL)
	require.NoError(t, err)
	assert.False(t, first.FromCache)

	second, err := client.Get(ctx, server.URL)
	require.NoError(t, err)
	assert.True(t, second.FromCache)
	assert.Equal(t, "application/json", second.ContentType)
	assert.Equal(t, []byte(`{"n":1}`), second.Body)
	assert.Equal(t, 1, hits)

	client.SetCacheEnabled(false)
	_, err = client.Get(ctx, server.URL)
	require.NoError(t, err)
	assert.Equal(t, 2, hits)
}

func TestClient_FetchPayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/data.json":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"b":1,"a":[true,null]}`))
		case "/pixel.png":
			w.Header().Set("Content-Type", "image/png")
			_, _ = w.Write([]byte{0x89, 'P', 'N', 'G'})
		case "/notes.txt":
			w.Header().Set("Content-Type", "text/plain; charset=iso-8859-1")
			_, _ = w.Write([]byte("caf\xe9"))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	client := newTestClient(t, ClientOptions{})
	ctx := context.Background()

	v, err := client.FetchPayload(ctx, server.URL+"/data.json", domain.EncodingBase64Text)
	require.NoError(t, err)
	require.True(t, v.IsRecord())
	assert.Equal(t, []string{"b", "a"}, v.Record().Keys())

	v, err = client.FetchPayload(ctx, server.URL+"/pixel.png", domain.EncodingBase64Text)
	require.NoError(t, err)
	assert.True(t, record.String("iVBORw==").Equal(v))

	v, err = client.FetchPayload(ctx, server.URL+"/notes.txt", domain.EncodingRaw)
	require.NoError(t, err)
	assert.True(t, record.String("café").Equal(v))

	v, err = client.FetchPayload(ctx, server.URL+"/missing", domain.EncodingRaw)
	assert.Error(t, err)
	assert.True(t, v.IsNull())
}

func TestDecodePayload(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		contentType string
		enc         domain.Encoding
		want        record.Value
	}{
		{
			name:        "broken json falls back to text",
			body:        `{"a":`,
			contentType: "application/json",
			want:        record.String(`{"a":`),
		},
		{
			name:        "yaml document",
			body:        "a: 1\n",
			contentType: "application/x-yaml",
			want:        record.FromRecord(record.FromPairs("a", record.Int(1))),
		},
		{
			name:        "xml is text",
			body:        "<a/>",
			contentType: "application/xml",
			want:        record.String("<a/>"),
		},
		{
			name:        "raw bytes",
			body:        "\x00\x01",
			contentType: "application/octet-stream",
			enc:         domain.EncodingRaw,
			want:        record.Bytes([]byte{0, 1}),
		},
		{
			name:        "base64 text",
			body:        "hi",
			contentType: "image/gif",
			enc:         domain.EncodingBase64Text,
			want:        record.String("aGk="),
		},
		{
			name:        "base64 with line break",
			body:        "hi",
			contentType: "image/gif",
			enc:         domain.EncodingBase64,
			want:        record.String("aGk=\n"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DecodePayload([]byte(tt.body), tt.contentType, tt.enc)
			assert.True(t, tt.want.Equal(got), "got %v", got)
		})
	}
}

func TestEncodeBytes_LongBase64(t *testing.T) {
	data := []byte(strings.Repeat("x", 100))
	v := EncodeBytes(data, domain.EncodingBase64)
	s, ok := v.Str()
	require.True(t, ok)

	lines := strings.Split(strings.TrimSuffix(s, "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Len(t, lines[0], 76)
	assert.True(t, strings.HasSuffix(s, "\n"))
}

func TestRetrier_Retry(t *testing.T) {
	fast := RetrierOptions{
		MaxRetries:      3,
		InitialInterval: time.Millisecond,
		MaxInterval:     5 * time.Millisecond,
		Multiplier:      2.0,
	}
	retryable := &domain.RetryableError{Err: &domain.FetchError{StatusCode: 503, Err: errors.New("HTTP 503")}}

	t.Run("succeeds on first attempt", func(t *testing.T) {
		attempts := 0
		err := NewRetrier(fast).Retry(context.Background(), func() error {
			attempts++
			return nil
		})
		assert.NoError(t, err)
		assert.Equal(t, 1, attempts)
	})

	t.Run("retries retryable errors", func(t *testing.T) {
		attempts := 0
		err := NewRetrier(fast).Retry(context.Background(), func() error {
			attempts++
			if attempts < 3 {
				return retryable
			}
			return nil
		})
		assert.NoError(t, err)
		assert.Equal(t, 3, attempts)
	})

	t.Run("stops on permanent errors", func(t *testing.T) {
		attempts := 0
		err := NewRetrier(fast).Retry(context.Background(), func() error {
			attempts++
			return domain.ErrNotFound
		})
		assert.ErrorIs(t, err, domain.ErrNotFound)
		assert.Equal(t, 1, attempts)
	})

	t.Run("gives up after max retries", func(t *testing.T) {
		attempts := 0
		err := NewRetrier(fast).Retry(context.Background(), func() error {
			attempts++
			return retryable
		})
		assert.Error(t, err)
		assert.Equal(t, 4, attempts)
	})
}

func TestShouldRetryStatus(t *testing.T) {
	for code, want := range map[int]bool{
		200: false, 404: false, 429: true, 500: false, 502: true, 503: true, 504: true, 522: true, 531: false,
	} {
		assert.Equal(t, want, ShouldRetryStatus(code), "status %d", code)
	}
}

func TestParseRetryAfter(t *testing.T) {
	assert.Equal(t, 120*time.Second, ParseRetryAfter("120"))
	assert.Zero(t, ParseRetryAfter(""))
	assert.Zero(t, ParseRetryAfter("-5"))
	assert.Zero(t, ParseRetryAfter("soon"))
	assert.Zero(t, ParseRetryAfter("Wed, 21 Oct 2015 07:28:00 GMT"))

	future := time.Now().Add(time.Hour).UTC().Format(http.TimeFormat)
	assert.InDelta(t, time.Hour.Seconds(), ParseRetryAfter(future).Seconds(), 2)
}

func TestStealthHeaders(t *testing.T) {
	headers := StealthHeaders("", "")
	assert.Contains(t, UserAgents, headers["User-Agent"])
	assert.Equal(t, AcceptDocument, headers["Accept"])
	assert.Equal(t, "navigate", headers["Sec-Fetch-Mode"])

	headers = StealthHeaders("TestAgent/1.0", AcceptAny)
	assert.Equal(t, "TestAgent/1.0", headers["User-Agent"])
	assert.Equal(t, AcceptAny, headers["Accept"])
	assert.NotContains(t, headers, "Sec-Fetch-Mode")
	assert.NotContains(t, headers, "Sec-CH-UA")
}
