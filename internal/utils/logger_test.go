package utils

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger(t *testing.T) {
	t.Run("default logger", func(t *testing.T) {
		logger := NewDefaultLogger()
		require.NotNil(t, logger)
	})

	t.Run("custom output", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(LoggerOptions{
			Level:  "info",
			Format: "json",
			Output: &buf,
		})
		require.NotNil(t, logger)
		logger.Info().Msg("test")
		assert.Contains(t, buf.String(), "test")
	})

	t.Run("pretty format", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(LoggerOptions{
			Level:  "info",
			Format: "pretty",
			Output: &buf,
		})
		require.NotNil(t, logger)
		logger.Info().Msg("test")
		assert.Contains(t, buf.String(), "test")
	})

	t.Run("verbose option", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(LoggerOptions{
			Level:   "info",
			Format:  "json",
			Output:  &buf,
			Verbose: true,
		})
		require.NotNil(t, logger)
		// Verbose should enable debug level
		logger.Debug().Msg("debug test")
		assert.Contains(t, buf.String(), "debug test")
	})
}

func TestLoggerWithComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LoggerOptions{
		Level:  "info",
		Format: "json",
		Output: &buf,
	})

	componentLogger := logger.WithComponent("fetcher")
	require.NotNil(t, componentLogger)

	componentLogger.Info().Msg("test message")
	output := buf.String()
	assert.Contains(t, output, "fetcher")
	assert.Contains(t, output, "test message")
}

func TestLoggerWithURL(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LoggerOptions{
		Level:  "info",
		Format: "json",
		Output: &buf,
	})

	urlLogger := logger.WithURL("https://example.com")
	require.NotNil(t, urlLogger)

	urlLogger.Info().Msg("test message")
	output := buf.String()
	assert.Contains(t, output, "https://example.com")
	assert.Contains(t, output, "test message")
}

func TestLoggerWithFieldAndConfig(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LoggerOptions{
		Level:  "info",
		Format: "json",
		Output: &buf,
	})

	logger.WithConfig("roster").WithField("Employment>>>Salary").Warn().Msg("not numeric")
	output := buf.String()
	assert.Contains(t, output, `"config":"roster"`)
	assert.Contains(t, output, `"field":"Employment>>>Salary"`)
	assert.Contains(t, output, "not numeric")
}

func TestOrNop(t *testing.T) {
	assert.NotNil(t, OrNop(nil))

	logger := NewDefaultLogger()
	assert.Same(t, logger, OrNop(logger))
}

func TestLoggerLevels(t *testing.T) {
	tests := []struct {
		name      string
		level     string
		logFunc   func(*Logger)
		shouldLog bool
	}{
		{
			name:      "debug level logs debug",
			level:     "debug",
			logFunc:   func(l *Logger) { l.Debug().Msg("debug") },
			shouldLog: true,
		},
		{
			name:      "info level doesn't log debug",
			level:     "info",
			logFunc:   func(l *Logger) { l.Debug().Msg("debug") },
			shouldLog: false,
		},
		{
			name:      "info level logs info",
			level:     "info",
			logFunc:   func(l *Logger) { l.Info().Msg("info") },
			shouldLog: true,
		},
		{
			name:      "warn level logs warn",
			level:     "warn",
			logFunc:   func(l *Logger) { l.Warn().Msg("warn") },
			shouldLog: true,
		},
		{
			name:      "error level logs error",
			level:     "error",
			logFunc:   func(l *Logger) { l.Error().Msg("error") },
			shouldLog: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := NewLogger(LoggerOptions{
				Level:  tt.level,
				Format: "json",
				Output: &buf,
			})

			tt.logFunc(logger)
			output := buf.String()

			if tt.shouldLog {
				assert.NotEmpty(t, output)
			} else {
				assert.Empty(t, output)
			}
		})
	}
}

func TestSetGlobalLevel(t *testing.T) {
	assert.NotPanics(t, func() {
		SetGlobalLevel("debug")
		SetGlobalLevel("info")
		SetGlobalLevel("warn")
		SetGlobalLevel("error")
	})

	SetGlobalLevel("debug")
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		level    string
		expected zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"INFO", zerolog.InfoLevel},
		{" warn ", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"trace", zerolog.TraceLevel},
		{"unknown", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			assert.Equal(t, tt.expected, parseLogLevel(tt.level))
		})
	}
}

func TestLoggerChaining(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LoggerOptions{
		Level:  "info",
		Format: "json",
		Output: &buf,
	})

	logger.WithComponent("extract").WithURL("https://example.com").Info().Msg("chained test")
	output := buf.String()

	assert.Contains(t, output, `"component":"extract"`)
	assert.Contains(t, output, `"url":"https://example.com"`)
	assert.Contains(t, output, "chained test")
}
