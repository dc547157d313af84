package config

import (
	"errors"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. EXTRACTHTTP_CACHE_ENABLED
const EnvPrefix = "EXTRACTHTTP"

// Load reads configuration through the global viper instance, so flags
// bound by the CLI take precedence over file, environment and defaults
func Load() (*Config, error) {
	return load(viper.GetViper(), "")
}

// LoadWithViper reads configuration on a fresh viper instance and returns
// it for callers that bind their own keys
func LoadWithViper() (*Config, *viper.Viper, error) {
	v := viper.New()
	cfg, err := load(v, "")
	if err != nil {
		return nil, nil, err
	}
	return cfg, v, nil
}

// LoadFile reads configuration from an explicit file on a fresh viper
// instance
func LoadFile(path string) (*Config, error) {
	return load(viper.New(), path)
}

func load(v *viper.Viper, path string) (*Config, error) {
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(ConfigDir())
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, err
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// setDefaults sets default values in viper
func setDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("output.directory", d.Output.Directory)
	v.SetDefault("output.format", d.Output.Format)
	v.SetDefault("output.pretty", d.Output.Pretty)
	v.SetDefault("output.overwrite", d.Output.Overwrite)

	v.SetDefault("concurrency.workers", d.Concurrency.Workers)
	v.SetDefault("concurrency.timeout", d.Concurrency.Timeout)
	v.SetDefault("concurrency.retries", d.Concurrency.Retries)

	v.SetDefault("cache.enabled", d.Cache.Enabled)
	v.SetDefault("cache.ttl", d.Cache.TTL)
	v.SetDefault("cache.directory", d.Cache.Directory)

	v.SetDefault("rendering.js_timeout", d.Rendering.JSTimeout)
	v.SetDefault("rendering.wait_stable", d.Rendering.WaitStable)
	v.SetDefault("rendering.scroll_to_end", d.Rendering.ScrollToEnd)
	v.SetDefault("rendering.max_tabs", d.Rendering.MaxTabs)
	v.SetDefault("rendering.browser_path", "")

	v.SetDefault("stealth.user_agent", "")
	v.SetDefault("stealth.proxy_url", "")

	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)

	v.SetDefault("record.delimiter", d.Record.Delimiter)
	v.SetDefault("record.locale", "")
}

// EnsureConfigDir creates the config directory if it doesn't exist
func EnsureConfigDir() error {
	return os.MkdirAll(ConfigDir(), 0o755)
}
