package extract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// Loader loads and validates extraction configs
type Loader struct{}

// NewLoader creates a new config loader
func NewLoader() *Loader {
	return &Loader{}
}

// Load reads and parses an extraction config. A config without a name is
// named after its file.
func (l *Loader) Load(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read extraction config: %w", err)
	}

	ext := filepath.Ext(path)
	cfg, err := l.LoadFromBytes(data, ext)
	if err != nil {
		return nil, err
	}
	if cfg.Name == "" {
		cfg.Name = strings.TrimSuffix(filepath.Base(path), ext)
	}
	return cfg, nil
}

// LoadFromBytes parses an extraction config from raw bytes. JSON configs
// are decoded through the YAML decoder so both keep mapping order.
func (l *Loader) LoadFromBytes(data []byte, ext string) (*Config, error) {
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
	case ".json":
		if !json.Valid(data) {
			return nil, fmt.Errorf("%w: malformed JSON", ErrInvalidFormat)
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedExt, ext)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
