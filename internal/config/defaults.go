package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/quantmind-br/extracthttp-go/internal/record"
)

// Default values
const (
	DefaultOutputDir    = "-"
	DefaultOutputFormat = "json"

	DefaultWorkers = 5
	DefaultTimeout = 30 * time.Second
	DefaultRetries = 3

	DefaultCacheEnabled = true
	DefaultCacheTTL     = 24 * time.Hour

	DefaultJSTimeout   = 60 * time.Second
	DefaultWaitStable  = 2 * time.Second
	DefaultScrollToEnd = true
	DefaultMaxTabs     = 2

	DefaultLogLevel  = "info"
	DefaultLogFormat = "pretty"
)

// ConfigDir returns the config directory path
func ConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".extracthttp"
	}
	return filepath.Join(home, ".extracthttp")
}

// CacheDir returns the cache directory path
func CacheDir() string {
	return filepath.Join(ConfigDir(), "cache")
}

// ConfigFilePath returns the config file path
func ConfigFilePath() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// Default returns the default configuration
func Default() *Config {
	return &Config{
		Output: OutputConfig{
			Directory: DefaultOutputDir,
			Format:    DefaultOutputFormat,
			Pretty:    true,
		},
		Concurrency: ConcurrencyConfig{
			Workers: DefaultWorkers,
			Timeout: DefaultTimeout,
			Retries: DefaultRetries,
		},
		Cache: CacheConfig{
			Enabled:   DefaultCacheEnabled,
			TTL:       DefaultCacheTTL,
			Directory: CacheDir(),
		},
		Rendering: RenderingConfig{
			JSTimeout:   DefaultJSTimeout,
			WaitStable:  DefaultWaitStable,
			ScrollToEnd: DefaultScrollToEnd,
			MaxTabs:     DefaultMaxTabs,
		},
		Logging: LoggingConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
		Record: RecordConfig{
			Delimiter: record.DefaultDelimiter,
		},
	}
}
