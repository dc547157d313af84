package app

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantmind-br/extracthttp-go/internal/config"
	"github.com/quantmind-br/extracthttp-go/tests/testutil"
)

const rosterPage = `<html><body><ul>
<li class="player"><a href="/ann" data-stats="/stats/ann.json">Ann</a></li>
<li class="player"><a href="/bob" data-stats="/stats/bob.json">Bob</a></li>
</ul></body></html>`

// TestOrchestrator_FetchEmbedAndCache runs a config against a live server
// through the real fetcher and badger cache
func TestOrchestrator_FetchEmbedAndCache(t *testing.T) {
	server := testutil.NewTestServer(t)
	server.HandleHTML("/roster", rosterPage)
	server.HandleJSON("/stats/ann.json", map[string]int{"goals": 4})
	server.Handle404("/stats/bob.json")

	dir := testutil.TempDir(t)
	cfg := config.Default()
	cfg.Cache.Directory = filepath.Join(dir, "cache")
	cfg.Output.Directory = filepath.Join(dir, "out")
	cfg.Output.Pretty = false
	cfg.Output.Overwrite = true

	orch, err := NewOrchestrator(OrchestratorOptions{
		Config: cfg,
		Logger: testutil.NewTestLogger(t),
		Now:    func() time.Time { return runAt },
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = orch.Close() })

	path := testutil.WriteFile(t, dir, "roster.yaml", `
type: html
url: "`+server.URL+`/roster"
locate:
  - search_root: li.player
    values:
      name: a$innerText
      stats: a$attr[data-stats]
    transform:
      stats: {embed: url}
`)

	ctx := context.Background()
	first, err := orch.Run(ctx, path, RunOptions{})
	require.NoError(t, err)
	assert.False(t, first.FromCache)
	assert.Equal(t, 2, first.RecordCount())

	written := testutil.ReadFile(t, filepath.Join(dir, "out", "roster.json"))
	assert.Contains(t, written, `"data":[[{"name":"Ann","stats":{"goals":4}},{"name":"Bob","stats":null}]]`)

	second, err := orch.Run(ctx, path, RunOptions{})
	require.NoError(t, err)
	assert.True(t, second.FromCache)
	assert.Equal(t, 1, server.Hits("/roster"))
	assert.Equal(t, 1, server.Hits("/stats/ann.json"))
}
