package testutil

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/goccy/go-json"
)

// TestServer is a wrapper around httptest.Server that counts requests per path
type TestServer struct {
	*httptest.Server
	mux *http.ServeMux

	mu   sync.Mutex
	hits map[string]int
}

// NewTestServer creates a new test HTTP server
func NewTestServer(t *testing.T) *TestServer {
	t.Helper()

	ts := &TestServer{
		mux:  http.NewServeMux(),
		hits: make(map[string]int),
	}
	ts.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ts.mu.Lock()
		ts.hits[r.URL.Path]++
		ts.mu.Unlock()
		ts.mux.ServeHTTP(w, r)
	}))

	t.Cleanup(ts.Close)

	return ts
}

// HandleString registers a handler that returns body with contentType
func (ts *TestServer) HandleString(path, contentType, body string) {
	ts.mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", contentType)
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(body))
	})
}

// HandleHTML registers a handler that returns an html page
func (ts *TestServer) HandleHTML(path, htmlBody string) {
	ts.HandleString(path, "text/html; charset=utf-8", htmlBody)
}

// HandleJSON registers a handler that returns data encoded as json
func (ts *TestServer) HandleJSON(path string, data any) {
	ts.mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(data)
	})
}

// Handle404 registers a handler that returns 404 Not Found
func (ts *TestServer) Handle404(path string) {
	ts.mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte("Not Found"))
	})
}

// Hits returns how many requests reached path
func (ts *TestServer) Hits(path string) int {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return ts.hits[path]
}
