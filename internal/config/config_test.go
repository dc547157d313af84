package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		check   func(*testing.T, *Config)
		wantErr bool
	}{
		{
			name: "defaults are valid",
		},
		{
			name:   "workers below minimum",
			modify: func(c *Config) { c.Concurrency.Workers = 0 },
			check: func(t *testing.T, c *Config) {
				assert.Equal(t, DefaultWorkers, c.Concurrency.Workers)
			},
		},
		{
			name:   "timeout below minimum",
			modify: func(c *Config) { c.Concurrency.Timeout = 100 * time.Millisecond },
			check: func(t *testing.T, c *Config) {
				assert.Equal(t, DefaultTimeout, c.Concurrency.Timeout)
			},
		},
		{
			name:   "negative retries",
			modify: func(c *Config) { c.Concurrency.Retries = -1 },
			check: func(t *testing.T, c *Config) {
				assert.Equal(t, DefaultRetries, c.Concurrency.Retries)
			},
		},
		{
			name:   "cache TTL below minimum",
			modify: func(c *Config) { c.Cache.TTL = 30 * time.Second },
			check: func(t *testing.T, c *Config) {
				assert.Equal(t, DefaultCacheTTL, c.Cache.TTL)
			},
		},
		{
			name:   "JS timeout below minimum",
			modify: func(c *Config) { c.Rendering.JSTimeout = 500 * time.Millisecond },
			check: func(t *testing.T, c *Config) {
				assert.Equal(t, DefaultJSTimeout, c.Rendering.JSTimeout)
			},
		},
		{
			name:   "empty delimiter",
			modify: func(c *Config) { c.Record.Delimiter = "" },
			check: func(t *testing.T, c *Config) {
				assert.Equal(t, ">>>", c.Record.Delimiter)
			},
		},
		{
			name:   "format is normalized",
			modify: func(c *Config) { c.Output.Format = " YAML " },
			check: func(t *testing.T, c *Config) {
				assert.Equal(t, "yaml", c.Output.Format)
			},
		},
		{
			name:    "unknown format",
			modify:  func(c *Config) { c.Output.Format = "csv" },
			wantErr: true,
		},
		{
			name:    "invalid locale",
			modify:  func(c *Config) { c.Record.Locale = "not a locale!" },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			if tt.modify != nil {
				tt.modify(cfg)
			}
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			if tt.check != nil {
				tt.check(t, cfg)
			}
		})
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "-", cfg.Output.Directory)
	assert.Equal(t, "json", cfg.Output.Format)
	assert.True(t, cfg.Output.Pretty)
	assert.False(t, cfg.Output.Overwrite)

	assert.Equal(t, DefaultWorkers, cfg.Concurrency.Workers)
	assert.Equal(t, DefaultTimeout, cfg.Concurrency.Timeout)

	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, DefaultCacheTTL, cfg.Cache.TTL)
	assert.Equal(t, CacheDir(), cfg.Cache.Directory)

	assert.Equal(t, DefaultJSTimeout, cfg.Rendering.JSTimeout)
	assert.Equal(t, DefaultMaxTabs, cfg.Rendering.MaxTabs)
	assert.True(t, cfg.Rendering.ScrollToEnd)

	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, ">>>", cfg.Record.Delimiter)
	assert.Equal(t, language.English, cfg.Record.Language())
}

func TestRecordConfig_Language(t *testing.T) {
	assert.Equal(t, language.German, RecordConfig{Locale: "de"}.Language())
	assert.Equal(t, language.English, RecordConfig{Locale: "???"}.Language())
}

func TestDirs(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	assert.Equal(t, filepath.Join(home, ".extracthttp"), ConfigDir())
	assert.Equal(t, filepath.Join(home, ".extracthttp", "cache"), CacheDir())
	assert.Equal(t, filepath.Join(home, ".extracthttp", "config.yaml"), ConfigFilePath())

	require.NoError(t, EnsureConfigDir())
	info, err := os.Stat(ConfigDir())
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func TestLoadWithViper_NoConfigFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	chdir(t, t.TempDir())

	cfg, v, err := LoadWithViper()
	require.NoError(t, err)
	assert.NotNil(t, v)
	assert.Equal(t, Default().Output, cfg.Output)
	assert.Equal(t, DefaultWorkers, cfg.Concurrency.Workers)
}

func TestLoadWithViper_ConfigFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	dir := t.TempDir()
	chdir(t, dir)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(`
output:
  directory: ./out
  format: yaml
concurrency:
  workers: 8
record:
  delimiter: "."
  locale: pt-BR
logging:
  level: debug
`), 0o644))

	cfg, _, err := LoadWithViper()
	require.NoError(t, err)
	assert.Equal(t, "./out", cfg.Output.Directory)
	assert.Equal(t, "yaml", cfg.Output.Format)
	assert.Equal(t, 8, cfg.Concurrency.Workers)
	assert.Equal(t, ".", cfg.Record.Delimiter)
	assert.Equal(t, "pt-BR", cfg.Record.Locale)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, DefaultCacheTTL, cfg.Cache.TTL)
}

func TestLoadWithViper_InvalidConfigFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	dir := t.TempDir()
	chdir(t, dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("invalid: yaml: ["), 0o644))

	cfg, _, err := LoadWithViper()
	assert.Error(t, err)
	assert.Nil(t, cfg)
}

func TestLoadWithViper_Environment(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	chdir(t, t.TempDir())
	t.Setenv("EXTRACTHTTP_OUTPUT_DIRECTORY", "./env-output")
	t.Setenv("EXTRACTHTTP_CACHE_ENABLED", "false")

	cfg, _, err := LoadWithViper()
	require.NoError(t, err)
	assert.Equal(t, "./env-output", cfg.Output.Directory)
	assert.False(t, cfg.Cache.Enabled)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, os.WriteFile(path, []byte("output:\n  format: xml\n"), 0o644))

	_, err := LoadFile(path)
	assert.Error(t, err)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
