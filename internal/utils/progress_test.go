package utils

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProgressBar(t *testing.T) {
	var buf bytes.Buffer
	bar := NewProgressBar(3, DescExtracting, &buf)
	require.NotNil(t, bar)

	require.NoError(t, bar.Add(2))
	assert.Equal(t, int64(3), bar.GetMax64())
	assert.Equal(t, int64(2), bar.State().CurrentNum)
	require.NoError(t, bar.Finish())
}

func TestNewProgressBar_Spinner(t *testing.T) {
	var buf bytes.Buffer
	bar := NewProgressBar(-1, DescExtracting, &buf)
	require.NotNil(t, bar)
	require.NoError(t, bar.Add(1))
	assert.Equal(t, int64(-1), bar.GetMax64())
}
