package extract

import "errors"

// Sentinel errors for loading extraction configs
var (
	// ErrFileNotFound indicates the config file does not exist
	ErrFileNotFound = errors.New("extraction config not found")

	// ErrInvalidFormat indicates the config file is not valid YAML or JSON
	ErrInvalidFormat = errors.New("extraction config must be valid YAML or JSON")

	// ErrUnsupportedExt indicates an unsupported file extension
	ErrUnsupportedExt = errors.New("unsupported file extension (use .yaml, .yml, or .json)")
)
