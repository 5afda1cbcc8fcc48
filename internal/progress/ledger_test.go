package progress

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedDoc(t *testing.T, store Store, key string, noOfLevels int) {
	t.Helper()
	doc := NewUserProgress(noOfLevels, time.Now(), time.Now().Add(time.Hour))
	require.NoError(t, store.Init(context.Background(), key, doc))
}

func TestUnlockNextTransitions(t *testing.T) {
	store := NewMemoryStore()
	ledger := NewLedger(store, zerolog.Nop())
	ctx := context.Background()
	key := Key("a@example.com", "a")
	seedDoc(t, store, key, 3)

	doc, err := ledger.UnlockNext(ctx, key, 0)
	require.NoError(t, err)

	assert.True(t, doc.IsCompleted(0))
	assert.True(t, doc.IsEnabled(1))
	assert.True(t, doc.IsDisabled(2))
	assert.NoError(t, doc.Validate())
}

func TestUnlockNextLastLevel(t *testing.T) {
	store := NewMemoryStore()
	ledger := NewLedger(store, zerolog.Nop())
	ctx := context.Background()
	key := Key("b@example.com", "b")
	seedDoc(t, store, key, 2)

	_, err := ledger.UnlockNext(ctx, key, 0)
	require.NoError(t, err)

	doc, err := ledger.UnlockNext(ctx, key, 1)
	require.NoError(t, err)

	assert.True(t, doc.IsCompleted(0))
	assert.True(t, doc.IsCompleted(1))
	assert.Empty(t, doc.LevelsEnabled)
	assert.Empty(t, doc.LevelsDisabled)
	assert.NoError(t, doc.Validate())
}

func TestUnlockNextRejectsLockedLevel(t *testing.T) {
	store := NewMemoryStore()
	ledger := NewLedger(store, zerolog.Nop())
	key := Key("c@example.com", "c")
	seedDoc(t, store, key, 3)

	_, err := ledger.UnlockNext(context.Background(), key, 2)
	assert.ErrorIs(t, err, ErrLevelLocked)
}

func TestUnlockNextIdempotentOnRepeat(t *testing.T) {
	store := NewMemoryStore()
	ledger := NewLedger(store, zerolog.Nop())
	ctx := context.Background()
	key := Key("d@example.com", "d")
	seedDoc(t, store, key, 3)

	_, err := ledger.UnlockNext(ctx, key, 0)
	require.NoError(t, err)

	// A second tab repeating the completed level must not double-transition.
	doc, err := ledger.UnlockNext(ctx, key, 0)
	require.NoError(t, err)

	assert.Equal(t, []int{0}, doc.LevelsCompleted)
	assert.Equal(t, []int{1}, doc.LevelsEnabled)
	assert.Equal(t, []int{2}, doc.LevelsDisabled)
	assert.NoError(t, doc.Validate())
}

func TestLedgerQueries(t *testing.T) {
	store := NewMemoryStore()
	ledger := NewLedger(store, zerolog.Nop())
	ctx := context.Background()
	key := Key("e@example.com", "e")
	seedDoc(t, store, key, 2)

	enabled, err := ledger.IsEnabled(ctx, key, 0)
	require.NoError(t, err)
	assert.True(t, enabled)

	completed, err := ledger.IsCompleted(ctx, key, 0)
	require.NoError(t, err)
	assert.False(t, completed)

	_, err = ledger.IsEnabled(ctx, "missing--user", 0)
	assert.ErrorIs(t, err, ErrNotFound)
}
