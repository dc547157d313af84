package testutil

import (
	"testing"

	"github.com/quantmind-br/extracthttp-go/internal/utils"
	"github.com/rs/zerolog"
)

// NewTestLogger creates a debug logger that writes through t.Log
func NewTestLogger(t *testing.T) *utils.Logger {
	t.Helper()

	zlogger := zerolog.New(zerolog.NewTestWriter(t)).
		Level(zerolog.DebugLevel).
		With().
		Str("test", t.Name()).
		Logger()

	return &utils.Logger{Logger: zlogger}
}
