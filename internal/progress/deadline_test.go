package progress

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGateExpiryLatches(t *testing.T) {
	current := time.Now()
	gate := NewGate(current.Add(time.Minute), func() time.Time { return current })

	assert.False(t, gate.Expired())
	assert.NoError(t, gate.Check())

	current = current.Add(2 * time.Minute)
	assert.True(t, gate.Expired())
	assert.ErrorIs(t, gate.Check(), ErrDeadlineExpired)

	// Winding the clock back does not reopen the gate.
	current = current.Add(-10 * time.Minute)
	assert.True(t, gate.Expired())
	assert.Equal(t, time.Duration(0), gate.Remaining())
}

func TestGateExpiresExactlyAtDeadline(t *testing.T) {
	deadline := time.Now()
	gate := NewGate(deadline, func() time.Time { return deadline })
	assert.True(t, gate.Expired())
}

func TestFormatRemaining(t *testing.T) {
	tests := []struct {
		name string
		d    time.Duration
		want string
	}{
		{"days and change", 49*time.Hour + 5*time.Minute + 9*time.Second, "02:01:05:09"},
		{"under a minute", 42 * time.Second, "00:00:00:42"},
		{"zero", 0, TimeUp},
		{"negative", -time.Second, TimeUp},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatRemaining(tt.d))
		})
	}
}
