package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors
var (
	// ErrNotFound indicates a resource was not found
	ErrNotFound = errors.New("not found")

	// ErrCacheMiss indicates a cache miss
	ErrCacheMiss = errors.New("cache miss")

	// ErrCacheExpired indicates the cached entry has expired
	ErrCacheExpired = errors.New("cache entry expired")

	// ErrRateLimited indicates rate limiting was encountered
	ErrRateLimited = errors.New("rate limited")

	// ErrBlocked indicates the request was blocked (e.g., by Cloudflare)
	ErrBlocked = errors.New("request blocked")

	// ErrTimeout indicates a timeout occurred
	ErrTimeout = errors.New("timeout")

	// ErrInvalidURL indicates an invalid URL was provided
	ErrInvalidURL = errors.New("invalid URL")

	// ErrRenderFailed indicates JavaScript rendering failed
	ErrRenderFailed = errors.New("render failed")

	// ErrWriteFailed indicates writing output failed
	ErrWriteFailed = errors.New("write failed")

	// ErrBrowserNotFound indicates Chrome/Chromium was not found
	ErrBrowserNotFound = errors.New("browser not found")
)

// Extraction sentinel errors
var (
	// ErrConfigIncomplete indicates a required extraction config field is missing
	ErrConfigIncomplete = errors.New("config incomplete")

	// ErrInvalidFormat indicates an unknown document type, orientation or encoding
	ErrInvalidFormat = errors.New("invalid format")

	// ErrInvalidDescriptor indicates a node value descriptor that cannot be parsed
	ErrInvalidDescriptor = errors.New("invalid node descriptor")

	// ErrInvalidTemplate indicates a transform source template that cannot be parsed
	ErrInvalidTemplate = errors.New("invalid template")

	// ErrNotNumeric indicates an arithmetic operand that is not a number
	ErrNotNumeric = errors.New("value is not numeric")

	// ErrUnreadableSource indicates the extraction source could not be read
	ErrUnreadableSource = errors.New("source not readable")
)

// FetchError represents an error during fetching
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("fetch error for %s: status %d: %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch error for %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// NewFetchError creates a new FetchError
func NewFetchError(url string, statusCode int, err error) *FetchError {
	return &FetchError{
		URL:        url,
		StatusCode: statusCode,
		Err:        err,
	}
}

// RetryableError indicates an error that can be retried
type RetryableError struct {
	Err        error
	RetryAfter int // Seconds to wait before retry, 0 if unknown
}

func (e *RetryableError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("retryable error (retry after %ds): %v", e.RetryAfter, e.Err)
	}
	return fmt.Sprintf("retryable error: %v", e.Err)
}

func (e *RetryableError) Unwrap() error {
	return e.Err
}

// IsRetryable checks if an error should be retried
func IsRetryable(err error) bool {
	var retryable *RetryableError
	if errors.As(err, &retryable) {
		return true
	}

	var fetchErr *FetchError
	if errors.As(err, &fetchErr) {
		switch fetchErr.StatusCode {
		case 429, 503, 502, 504:
			return true
		}
		// Cloudflare origin errors
		if fetchErr.StatusCode >= 520 && fetchErr.StatusCode <= 530 {
			return true
		}
	}

	return errors.Is(err, ErrRateLimited) || errors.Is(err, ErrTimeout)
}

// ConfigError reports an extraction config that cannot be used.
// It is fatal to the extraction call that loaded it.
type ConfigError struct {
	Field   string
	Message string
	Err     error
}

func (e *ConfigError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("config error: %s", e.Message)
	}
	return fmt.Sprintf("config error for %s: %s", e.Field, e.Message)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// NewConfigError creates a ConfigError wrapping ErrConfigIncomplete
func NewConfigError(field, message string) *ConfigError {
	return &ConfigError{
		Field:   field,
		Message: message,
		Err:     ErrConfigIncomplete,
	}
}

// NewFormatError creates a ConfigError wrapping ErrInvalidFormat
func NewFormatError(field, message string) *ConfigError {
	return &ConfigError{
		Field:   field,
		Message: message,
		Err:     ErrInvalidFormat,
	}
}

// ExtractionError represents a failure of one extraction run
type ExtractionError struct {
	Config string
	URL    string
	Err    error
}

func (e *ExtractionError) Error() string {
	if e.URL == "" {
		return fmt.Sprintf("extraction %s failed: %v", e.Config, e.Err)
	}
	return fmt.Sprintf("extraction %s failed for %s: %v", e.Config, e.URL, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// NewExtractionError creates a new ExtractionError
func NewExtractionError(config, url string, err error) *ExtractionError {
	return &ExtractionError{
		Config: config,
		URL:    url,
		Err:    err,
	}
}
