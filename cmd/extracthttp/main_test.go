package main

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseParams(t *testing.T) {
	tests := []struct {
		name    string
		raw     []string
		want    map[string]string
		wantErr bool
	}{
		{name: "empty", raw: nil, want: map[string]string{}},
		{name: "pairs", raw: []string{"team=red", "season=2024"}, want: map[string]string{"team": "red", "season": "2024"}},
		{name: "value with equals", raw: []string{"q=a=b"}, want: map[string]string{"q": "a=b"}},
		{name: "empty value", raw: []string{"q="}, want: map[string]string{"q": ""}},
		{name: "last wins", raw: []string{"a=1", "a=2"}, want: map[string]string{"a": "2"}},
		{name: "missing equals", raw: []string{"team"}, wantErr: true},
		{name: "missing key", raw: []string{"=red"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseParams(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCheckInternet(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   bool
	}{
		{name: "ok", status: http.StatusOK, want: true},
		{name: "forbidden", status: http.StatusForbidden, want: false},
		{name: "server error", status: http.StatusInternalServerError, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodHead, r.Method)
				w.WriteHeader(tt.status)
			}))
			defer server.Close()

			assert.Equal(t, tt.want, checkInternet(server.URL))
		})
	}

	t.Run("unreachable", func(t *testing.T) {
		server := httptest.NewServer(http.NotFoundHandler())
		url := server.URL
		server.Close()
		assert.False(t, checkInternet(url))
	})
}

func TestCheckChrome(t *testing.T) {
	originalStat, originalLookPath := osStat, execLookPath
	t.Cleanup(func() {
		osStat, execLookPath = originalStat, originalLookPath
	})
	notFound := func(name string) (os.FileInfo, error) {
		return nil, &os.PathError{Op: "stat", Path: name, Err: os.ErrNotExist}
	}

	t.Run("found on disk", func(t *testing.T) {
		var checked []string
		osStat = func(name string) (os.FileInfo, error) {
			checked = append(checked, name)
			if name == "/usr/bin/chromium" {
				return nil, nil
			}
			return notFound(name)
		}
		assert.Equal(t, "/usr/bin/chromium", checkChrome())
		assert.Contains(t, checked, "/usr/bin/google-chrome")
	})

	t.Run("found in PATH", func(t *testing.T) {
		osStat = notFound
		execLookPath = func(file string) (string, error) {
			if file == "chromium-browser" {
				return "/opt/bin/chromium-browser", nil
			}
			return "", &exec.Error{Name: file, Err: exec.ErrNotFound}
		}
		assert.Equal(t, "/opt/bin/chromium-browser", checkChrome())
	})

	t.Run("not found", func(t *testing.T) {
		osStat = notFound
		execLookPath = func(file string) (string, error) {
			return "", &exec.Error{Name: file, Err: exec.ErrNotFound}
		}
		assert.Empty(t, checkChrome())
	})
}

func TestCheckWritePermissions(t *testing.T) {
	dir := t.TempDir()
	assert.True(t, checkWritePermissions(dir))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "probe file is removed")

	assert.False(t, checkWritePermissions(filepath.Join(dir, "missing")))
}

func TestCheckCacheDir(t *testing.T) {
	dir := t.TempDir()
	assert.True(t, checkCacheDir(dir))
	assert.False(t, checkCacheDir(filepath.Join(dir, "missing")))

	file := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(file, nil, 0o644))
	assert.False(t, checkCacheDir(file))
}

const playersPage = `<html><body><ul>
<li class="player"><a href="/ann">Ann</a></li>
<li class="player"><a href="/bob">Bob</a></li>
</ul></body></html>`

// workspace writes a page, a config reading it and a manifest running the
// config, and isolates HOME and the working directory
func workspace(t *testing.T) (dir, cfgPath, manifestPath string) {
	t.Helper()
	dir = t.TempDir()
	t.Setenv("HOME", dir)

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	page := filepath.Join(dir, "players.html")
	require.NoError(t, os.WriteFile(page, []byte(playersPage), 0o644))

	cfgPath = filepath.Join(dir, "players.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`
type: html
file: "`+page+`"
locate:
  - search_root: li.player
    values:
      name: a$innerText
`), 0o644))

	manifestPath = filepath.Join(dir, "jobs.yaml")
	require.NoError(t, os.WriteFile(manifestPath, []byte("jobs:\n  - config: players.yaml\n"), 0o644))
	return dir, cfgPath, manifestPath
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})
	err := rootCmd.Execute()
	return out.String(), err
}

func TestValidateCommand(t *testing.T) {
	dir, cfgPath, manifestPath := workspace(t)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("type: html\nurl: https://example.com\n"), 0o644))

	out, err := execute(t, "validate", cfgPath, manifestPath)
	require.NoError(t, err)
	assert.Contains(t, out, "OK "+cfgPath)
	assert.Contains(t, out, "OK "+manifestPath)

	out, err = execute(t, "validate", cfgPath, bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 2 files invalid")
	assert.Contains(t, out, "INVALID "+bad)
}

func TestValidateFile_ManifestWithBrokenJob(t *testing.T) {
	dir, _, _ := workspace(t)
	manifestPath := filepath.Join(dir, "broken.yaml")
	require.NoError(t, os.WriteFile(manifestPath, []byte("jobs:\n  - config: players.yaml\n  - config: nope.yaml\n"), 0o644))

	err := validateFile(manifestPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "job 1 (nope.yaml)")
}

func TestRootCommand_RunsConfig(t *testing.T) {
	_, cfgPath, _ := workspace(t)

	out, err := execute(t, "--no-cache", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, `"name": "players"`)
	assert.Contains(t, out, `"name": "Ann"`)
	assert.Contains(t, out, `"name": "Bob"`)
}

func TestRootCommand_UnknownInput(t *testing.T) {
	dir, _, _ := workspace(t)
	notes := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(notes, []byte("hello"), 0o644))

	_, err := execute(t, notes)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "neither an extraction config nor a manifest")

	_, err = execute(t, filepath.Join(dir, "missing.txt"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "extracthttp ")
}
