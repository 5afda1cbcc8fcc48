package progress

import (
	"fmt"
	"sync"
	"time"
)

// TimeUp is the terminal countdown display once the contest deadline passes.
const TimeUp = "Time UP"

// Gate vetoes play once the fixed contest end instant is reached. The
// transition Active -> Expired is irreversible for the gate's lifetime even
// if the clock is later wound back.
type Gate struct {
	deadline time.Time
	now      func() time.Time

	mu      sync.Mutex
	expired bool
}

// NewGate creates a deadline gate for the given contest end instant. now may
// be nil, in which case time.Now is used; tests inject a fake clock.
func NewGate(deadline time.Time, now func() time.Time) *Gate {
	if now == nil {
		now = time.Now
	}
	return &Gate{deadline: deadline, now: now}
}

// Deadline returns the fixed contest end instant.
func (g *Gate) Deadline() time.Time {
	return g.deadline
}

// Expired reports whether the deadline has passed, latching the state.
func (g *Gate) Expired() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.expired {
		return true
	}
	if !g.now().Before(g.deadline) {
		g.expired = true
	}
	return g.expired
}

// Check returns ErrDeadlineExpired once the gate has expired.
func (g *Gate) Check() error {
	if g.Expired() {
		return ErrDeadlineExpired
	}
	return nil
}

// Remaining returns the time left before the deadline, floored at zero.
func (g *Gate) Remaining() time.Duration {
	if g.Expired() {
		return 0
	}
	d := g.deadline.Sub(g.now())
	if d < 0 {
		return 0
	}
	return d
}

// FormatRemaining renders a countdown as DD:HH:MM:SS, or TimeUp when the
// duration has run out.
func FormatRemaining(d time.Duration) string {
	if d <= 0 {
		return TimeUp
	}
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60
	return fmt.Sprintf("%02d:%02d:%02d:%02d", days, hours, minutes, seconds)
}
