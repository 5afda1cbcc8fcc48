package game

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountdownTicksDownAndExpires(t *testing.T) {
	var (
		mu    sync.Mutex
		ticks []int
	)
	expired := make(chan struct{})

	c := NewCountdown(3, func(remaining int) {
		mu.Lock()
		ticks = append(ticks, remaining)
		mu.Unlock()
	}, func() {
		close(expired)
	})
	c.interval = 5 * time.Millisecond
	c.Start()

	select {
	case <-expired:
	case <-time.After(2 * time.Second):
		t.Fatal("countdown did not expire")
	}

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, ticks)
	assert.Equal(t, []int{2, 1, 0}, ticks)
	assert.Equal(t, 0, c.Remaining())
}

func TestCountdownStopCancelsTicking(t *testing.T) {
	var (
		mu      sync.Mutex
		expired bool
	)

	c := NewCountdown(100, nil, func() {
		mu.Lock()
		expired = true
		mu.Unlock()
	})
	c.interval = time.Millisecond
	c.Start()

	time.Sleep(10 * time.Millisecond)
	c.Stop()

	// Let any in-flight tick drain, then the count must hold steady.
	time.Sleep(5 * time.Millisecond)
	remaining := c.Remaining()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, remaining, c.Remaining())
	assert.Greater(t, remaining, 0)

	mu.Lock()
	defer mu.Unlock()
	assert.False(t, expired)
}

func TestCountdownStopIdempotent(t *testing.T) {
	c := NewCountdown(5, nil, nil)
	c.Start()
	c.Stop()
	c.Stop() // must not panic
}
