package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAllowConsumesBurstThenBlocks(t *testing.T) {
	l := New()
	for i := 0; i < 3; i++ {
		assert.True(t, l.Allow("k", 3, 0), "burst request %d", i)
	}
	assert.False(t, l.Allow("k", 3, 0), "bucket exhausted")
}

func TestAllowKeysAreIndependent(t *testing.T) {
	l := New()
	assert.True(t, l.Allow("a", 1, 0))
	assert.False(t, l.Allow("a", 1, 0))
	assert.True(t, l.Allow("b", 1, 0), "a's exhaustion must not affect b")
}

func TestAllowRefills(t *testing.T) {
	l := New()
	assert.True(t, l.Allow("k", 1, 100))
	assert.False(t, l.Allow("k", 1, 100))

	// 100 tokens/s puts at least one token back within 50ms.
	time.Sleep(50 * time.Millisecond)
	assert.True(t, l.Allow("k", 1, 100))
}
