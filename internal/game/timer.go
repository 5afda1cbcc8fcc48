package game

import (
	"sync"
	"time"
)

// Countdown is an explicit cancellable handle over a 1-second question
// timer. Every question change, level change or teardown must call Stop so
// an orphaned ticker can never double-count elapsed time.
type Countdown struct {
	interval time.Duration
	onTick   func(remaining int)
	onExpire func()

	mu        sync.Mutex
	remaining int
	done      chan struct{}
	stopOnce  sync.Once
}

// NewCountdown creates a countdown of the given number of seconds. onTick
// fires after every elapsed second with the seconds left; onExpire fires
// once when the timer reaches zero. Either callback may be nil.
func NewCountdown(seconds int, onTick func(remaining int), onExpire func()) *Countdown {
	return &Countdown{
		interval:  time.Second,
		onTick:    onTick,
		onExpire:  onExpire,
		remaining: seconds,
		done:      make(chan struct{}),
	}
}

// Start begins ticking. The countdown stops itself on expiry.
func (c *Countdown) Start() {
	go c.run()
}

func (c *Countdown) run() {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.mu.Lock()
			if c.remaining > 0 {
				c.remaining--
			}
			remaining := c.remaining
			c.mu.Unlock()

			if c.onTick != nil {
				c.onTick(remaining)
			}
			if remaining == 0 {
				c.Stop()
				if c.onExpire != nil {
					c.onExpire()
				}
				return
			}
		}
	}
}

// Remaining returns the seconds left.
func (c *Countdown) Remaining() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remaining
}

// Stop cancels the countdown. Idempotent.
func (c *Countdown) Stop() {
	c.stopOnce.Do(func() {
		close(c.done)
	})
}
