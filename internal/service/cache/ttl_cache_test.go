package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTTLCacheRoundTrip(t *testing.T) {
	c := NewTTLCache()

	_, ok, err := c.GetBytes("missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.SetBytes("k", []byte("v"), 0))
	b, ok, err := c.GetBytes("k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("v"), b)
}

func TestTTLCacheExpires(t *testing.T) {
	c := NewTTLCache()
	require.NoError(t, c.SetBytes("k", []byte("v"), 10*time.Millisecond))

	_, ok, _ := c.GetBytes("k")
	assert.True(t, ok, "fresh entry must be served")

	time.Sleep(20 * time.Millisecond)
	_, ok, _ = c.GetBytes("k")
	assert.False(t, ok, "expired entry must be dropped")
}

func TestTTLCacheOverwriteResetsExpiry(t *testing.T) {
	c := NewTTLCache()
	require.NoError(t, c.SetBytes("k", []byte("old"), 10*time.Millisecond))
	require.NoError(t, c.SetBytes("k", []byte("new"), time.Minute))

	time.Sleep(20 * time.Millisecond)
	b, ok, _ := c.GetBytes("k")
	require.True(t, ok)
	assert.Equal(t, []byte("new"), b)
}
