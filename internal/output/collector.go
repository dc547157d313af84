package output

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"github.com/quantmind-br/extracthttp-go/internal/domain"
	"github.com/quantmind-br/extracthttp-go/internal/utils"
)

// IndexEntry summarizes one written result
type IndexEntry struct {
	Name      string    `json:"name"`
	URL       string    `json:"url,omitempty"`
	Path      string    `json:"path"`
	Records   int       `json:"records"`
	FromCache bool      `json:"from_cache"`
	FetchedAt time.Time `json:"fetched_at"`
}

// Index lists the results of a batch run
type Index struct {
	GeneratedAt  time.Time    `json:"generated_at"`
	TotalResults int          `json:"total_results"`
	Results      []IndexEntry `json:"results"`
}

// Collector gathers the results written during a batch run and writes an
// index file next to them
type Collector struct {
	mu       sync.RWMutex
	entries  []IndexEntry
	baseDir  string
	filename string
	now      func() time.Time
}

// CollectorOptions configures a Collector
type CollectorOptions struct {
	BaseDir  string
	Filename string
	Now      func() time.Time
}

// NewCollector creates a collector
func NewCollector(opts CollectorOptions) *Collector {
	if opts.Filename == "" {
		opts.Filename = "index.json"
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Collector{
		baseDir:  opts.BaseDir,
		filename: opts.Filename,
		now:      opts.Now,
	}
}

// Add records a result written to path
func (c *Collector) Add(result *domain.Result, path string) {
	if result == nil {
		return
	}

	rel, err := filepath.Rel(c.baseDir, path)
	if err != nil {
		rel = path
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = append(c.entries, IndexEntry{
		Name:      result.Name,
		URL:       result.URL,
		Path:      filepath.ToSlash(rel),
		Records:   result.RecordCount(),
		FromCache: result.FromCache,
		FetchedAt: result.FetchedAt,
	})
}

// Count returns the number of collected results
func (c *Collector) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Index returns a snapshot of the collected results
func (c *Collector) Index() *Index {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entries := make([]IndexEntry, len(c.entries))
	copy(entries, c.entries)
	return &Index{
		GeneratedAt:  c.now(),
		TotalResults: len(entries),
		Results:      entries,
	}
}

// Flush writes the index file. Nothing is written when no result was
// collected.
func (c *Collector) Flush() error {
	if c.Count() == 0 {
		return nil
	}
	data, err := json.MarshalIndent(c.Index(), "", "  ")
	if err != nil {
		return err
	}
	if err := utils.EnsureDir(c.baseDir); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(c.baseDir, c.filename), data, 0o644)
}
