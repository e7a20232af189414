package errors

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	err := New("test error")
	require.NotNil(t, err)
	assert.Equal(t, "test error", err.Error())
}

func TestWrap(t *testing.T) {
	original := New("original")
	wrapped := Wrap(original, "wrapped")

	assert.Contains(t, wrapped.Error(), "wrapped")
	assert.Contains(t, wrapped.Error(), "original")
	assert.True(t, Is(wrapped, original))
}

func TestSentinelErrors(t *testing.T) {
	wrapped := Wrap(ErrQuotaExhausted, "tiktok attempt skipped")
	assert.True(t, Is(wrapped, ErrQuotaExhausted))
	assert.False(t, Is(wrapped, ErrProviderError))
}

func TestIsNotFoundError(t *testing.T) {
	assert.False(t, IsNotFoundError(nil))
	assert.False(t, IsNotFoundError(New("other")))
	assert.True(t, IsNotFoundError(ErrNotFound))
	assert.True(t, IsNotFoundError(Wrap(ErrNotFound, "job lookup")))
	assert.True(t, IsNotFoundError(NewNotFoundError("job not found: %s", "JB123")))
}

func TestIsInvalidPlatformError(t *testing.T) {
	err := NewInvalidPlatformError("unknown platform: %s", "myspace")
	require.Error(t, err)
	assert.True(t, IsInvalidPlatformError(err))
	assert.Contains(t, err.Error(), "myspace")
}
