package config

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/language"

	"github.com/quantmind-br/extracthttp-go/internal/record"
)

// Config represents the application configuration
type Config struct {
	Output      OutputConfig      `mapstructure:"output" yaml:"output"`
	Concurrency ConcurrencyConfig `mapstructure:"concurrency" yaml:"concurrency"`
	Cache       CacheConfig       `mapstructure:"cache" yaml:"cache"`
	Rendering   RenderingConfig   `mapstructure:"rendering" yaml:"rendering"`
	Stealth     StealthConfig     `mapstructure:"stealth" yaml:"stealth"`
	Logging     LoggingConfig     `mapstructure:"logging" yaml:"logging"`
	Record      RecordConfig      `mapstructure:"record" yaml:"record"`
}

// OutputConfig contains output-related settings
type OutputConfig struct {
	// Directory receives one file per result; "-" writes to stdout
	Directory string `mapstructure:"directory" yaml:"directory"`
	// Format is json or yaml
	Format    string `mapstructure:"format" yaml:"format"`
	Pretty    bool   `mapstructure:"pretty" yaml:"pretty"`
	Overwrite bool   `mapstructure:"overwrite" yaml:"overwrite"`
}

// ConcurrencyConfig contains concurrency settings
type ConcurrencyConfig struct {
	// Workers bounds embed fetches and parallel batch jobs
	Workers int           `mapstructure:"workers" yaml:"workers"`
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`
	Retries int           `mapstructure:"retries" yaml:"retries"`
}

// CacheConfig contains cache settings
type CacheConfig struct {
	Enabled   bool          `mapstructure:"enabled" yaml:"enabled"`
	TTL       time.Duration `mapstructure:"ttl" yaml:"ttl"`
	Directory string        `mapstructure:"directory" yaml:"directory"`
}

// RenderingConfig contains JavaScript rendering settings
type RenderingConfig struct {
	JSTimeout   time.Duration `mapstructure:"js_timeout" yaml:"js_timeout"`
	WaitStable  time.Duration `mapstructure:"wait_stable" yaml:"wait_stable"`
	ScrollToEnd bool          `mapstructure:"scroll_to_end" yaml:"scroll_to_end"`
	MaxTabs     int           `mapstructure:"max_tabs" yaml:"max_tabs"`
	BrowserPath string        `mapstructure:"browser_path" yaml:"browser_path"`
}

// StealthConfig contains stealth mode settings
type StealthConfig struct {
	UserAgent string `mapstructure:"user_agent" yaml:"user_agent"`
	ProxyURL  string `mapstructure:"proxy_url" yaml:"proxy_url"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// RecordConfig controls how records are addressed and formatted
type RecordConfig struct {
	// Delimiter separates nested keys in transform field paths
	Delimiter string `mapstructure:"delimiter" yaml:"delimiter"`
	// Locale drives the 'n' number format, as a BCP 47 tag
	Locale string `mapstructure:"locale" yaml:"locale"`
}

// Language returns the parsed locale, English when unset or invalid
func (r RecordConfig) Language() language.Tag {
	tag, err := language.Parse(r.Locale)
	if err != nil {
		return language.English
	}
	return tag
}

// Validate clamps out of range values to their defaults and rejects
// settings that cannot be repaired
func (c *Config) Validate() error {
	if c.Concurrency.Workers < 1 {
		c.Concurrency.Workers = DefaultWorkers
	}
	if c.Concurrency.Timeout < time.Second {
		c.Concurrency.Timeout = DefaultTimeout
	}
	if c.Concurrency.Retries < 0 {
		c.Concurrency.Retries = DefaultRetries
	}
	if c.Cache.TTL < time.Minute {
		c.Cache.TTL = DefaultCacheTTL
	}
	if c.Rendering.JSTimeout < time.Second {
		c.Rendering.JSTimeout = DefaultJSTimeout
	}
	if c.Rendering.MaxTabs < 1 {
		c.Rendering.MaxTabs = DefaultMaxTabs
	}
	if c.Record.Delimiter == "" {
		c.Record.Delimiter = record.DefaultDelimiter
	}

	c.Output.Format = strings.ToLower(strings.TrimSpace(c.Output.Format))
	switch c.Output.Format {
	case "":
		c.Output.Format = DefaultOutputFormat
	case "json", "yaml":
	default:
		return fmt.Errorf("invalid output.format %q: use json or yaml", c.Output.Format)
	}
	if c.Record.Locale != "" {
		if _, err := language.Parse(c.Record.Locale); err != nil {
			return fmt.Errorf("invalid record.locale: %w", err)
		}
	}
	return nil
}
