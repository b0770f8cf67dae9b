package hyperliquid

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// Connection state is shared between the caller and the ping/read
// goroutines; hammer the accessors concurrently so the race detector
// can catch unsynchronized access.
func TestClientStateConcurrentAccess(t *testing.T) {
	c := New("ws://127.0.0.1:1", []string{"BTC"}, time.Millisecond, time.Minute).(*Client)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				_ = c.IsConnected()
				_ = c.current()
			}
		}()
	}
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				_ = c.Close()
			}
		}()
	}
	wg.Wait()

	assert.False(t, c.IsConnected())
	assert.Error(t, c.Subscribe(context.Background()))
}
