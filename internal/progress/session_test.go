package progress

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSession(t *testing.T, store Store, key string, levelID int, questionIDs []int) *Session {
	t.Helper()
	ledger := NewLedger(store, zerolog.Nop())
	gate := NewGate(time.Now().Add(time.Hour), nil)
	return NewSession(store, ledger, gate, zerolog.Nop(), key, levelID, questionIDs)
}

func TestInitializeCreatesLevelEntryOnce(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	key := Key("a@example.com", "a")
	seedDoc(t, store, key, 2)

	session := newTestSession(t, store, key, 0, []int{0, 1, 2})
	require.NoError(t, session.Initialize(ctx))

	doc, err := store.Read(ctx, key)
	require.NoError(t, err)
	lp := doc.Levels[0]
	assert.Equal(t, 3, lp.NumberOfQuestions)
	require.Len(t, lp.QuestionStatus, 3)
	for _, qs := range lp.QuestionStatus {
		assert.False(t, qs.Completed)
	}

	// Re-initializing after partial completion must not reset the flags.
	_, err = session.RecordAnswer(ctx, 0, true, 5)
	require.NoError(t, err)

	again := newTestSession(t, store, key, 0, []int{0, 1, 2})
	require.NoError(t, again.Initialize(ctx))

	idx, remaining := again.ResumeIndex()
	assert.True(t, remaining)
	assert.Equal(t, 1, idx)
}

func TestResumeSkipsCompletedPrefix(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	key := Key("b@example.com", "b")
	seedDoc(t, store, key, 1)

	session := newTestSession(t, store, key, 0, []int{10, 11, 12})
	require.NoError(t, session.Initialize(ctx))

	_, err := session.RecordAnswer(ctx, 10, false, 0)
	require.NoError(t, err)
	_, err = session.RecordAnswer(ctx, 11, true, 7)
	require.NoError(t, err)

	resumed := newTestSession(t, store, key, 0, []int{10, 11, 12})
	require.NoError(t, resumed.Initialize(ctx))

	idx, remaining := resumed.ResumeIndex()
	assert.True(t, remaining)
	assert.Equal(t, 2, idx)
	assert.False(t, resumed.Exhausted())
}

func TestScoreMonotonicity(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	key := Key("c@example.com", "c")
	seedDoc(t, store, key, 1)

	session := newTestSession(t, store, key, 0, []int{0, 1, 2})
	require.NoError(t, session.Initialize(ctx))

	outcome, err := session.RecordAnswer(ctx, 0, true, 9)
	require.NoError(t, err)
	assert.Equal(t, 9, outcome.FinalScore)

	// Incorrect answers and negative deltas never reduce the total.
	outcome, err = session.RecordAnswer(ctx, 1, false, -5)
	require.NoError(t, err)
	assert.Equal(t, 9, outcome.FinalScore)

	outcome, err = session.RecordAnswer(ctx, 2, true, 4)
	require.NoError(t, err)
	assert.Equal(t, 13, outcome.FinalScore)
}

func TestQuestionConsumedRegardlessOfCorrectness(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	key := Key("d@example.com", "d")
	seedDoc(t, store, key, 1)

	session := newTestSession(t, store, key, 0, []int{0, 1})
	require.NoError(t, session.Initialize(ctx))

	_, err := session.RecordAnswer(ctx, 0, false, 0)
	require.NoError(t, err)

	doc, err := store.Read(ctx, key)
	require.NoError(t, err)
	assert.True(t, doc.Levels[0].QuestionStatus[0].Completed)
}

func TestRecordAnswerRejectsReplayedQuestion(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	key := Key("i@example.com", "i")
	seedDoc(t, store, key, 1)

	session := newTestSession(t, store, key, 0, []int{0, 1})
	require.NoError(t, session.Initialize(ctx))

	outcome, err := session.RecordAnswer(ctx, 0, true, 7)
	require.NoError(t, err)
	assert.Equal(t, 7, outcome.FinalScore)

	_, err = session.RecordAnswer(ctx, 0, true, 7)
	assert.ErrorIs(t, err, ErrQuestionConsumed)

	doc, err := store.Read(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, 7, doc.FinalScore)
	assert.Empty(t, doc.LevelScores)

	// A fresh session over the freshest document is rejected the same way,
	// so a second tab cannot farm the question either.
	other := newTestSession(t, store, key, 0, []int{0, 1})
	require.NoError(t, other.Initialize(ctx))
	_, err = other.RecordAnswer(ctx, 0, true, 7)
	assert.ErrorIs(t, err, ErrQuestionConsumed)

	doc, err = store.Read(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, 7, doc.FinalScore)
}

func TestExhaustionUnlocksNextAndRecordsLevelScore(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	key := Key("e@example.com", "e")
	seedDoc(t, store, key, 2)

	session := newTestSession(t, store, key, 0, []int{0, 1})
	require.NoError(t, session.Initialize(ctx))

	outcome, err := session.RecordAnswer(ctx, 0, true, 6)
	require.NoError(t, err)
	assert.False(t, outcome.LevelExhausted)

	outcome, err = session.RecordAnswer(ctx, 1, true, 4)
	require.NoError(t, err)
	assert.True(t, outcome.LevelExhausted)
	assert.True(t, outcome.NextUnlocked)
	assert.Equal(t, 10, outcome.FinalScore)

	doc, err := store.Read(ctx, key)
	require.NoError(t, err)
	assert.True(t, doc.IsCompleted(0))
	assert.True(t, doc.IsEnabled(1))
	require.Len(t, doc.LevelScores, 1)
	assert.Equal(t, LevelScore{LevelID: 0, Score: 10}, doc.LevelScores[0])
}

func TestLevelScoreIsPerLevelDelta(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	key := Key("f@example.com", "f")
	seedDoc(t, store, key, 2)

	first := newTestSession(t, store, key, 0, []int{0})
	require.NoError(t, first.Initialize(ctx))
	_, err := first.RecordAnswer(ctx, 0, true, 8)
	require.NoError(t, err)

	second := newTestSession(t, store, key, 1, []int{0})
	require.NoError(t, second.Initialize(ctx))
	_, err = second.RecordAnswer(ctx, 0, true, 5)
	require.NoError(t, err)

	doc, err := store.Read(ctx, key)
	require.NoError(t, err)
	require.Len(t, doc.LevelScores, 2)
	assert.Equal(t, LevelScore{LevelID: 0, Score: 8}, doc.LevelScores[0])
	assert.Equal(t, LevelScore{LevelID: 1, Score: 5}, doc.LevelScores[1])
	assert.Equal(t, 13, doc.FinalScore)
}

func TestRecordAnswerRejectsUnknownQuestion(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	key := Key("g@example.com", "g")
	seedDoc(t, store, key, 1)

	session := newTestSession(t, store, key, 0, []int{0, 1})
	require.NoError(t, session.Initialize(ctx))

	_, err := session.RecordAnswer(ctx, 99, true, 3)
	assert.ErrorIs(t, err, ErrUnknownQuestion)
}

func TestSessionRejectsAfterDeadline(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	key := Key("h@example.com", "h")
	seedDoc(t, store, key, 1)

	current := time.Now()
	gate := NewGate(current.Add(time.Minute), func() time.Time { return current })
	ledger := NewLedger(store, zerolog.Nop())
	session := NewSession(store, ledger, gate, zerolog.Nop(), key, 0, []int{0, 1})
	require.NoError(t, session.Initialize(ctx))

	_, err := session.RecordAnswer(ctx, 0, true, 5)
	require.NoError(t, err)

	current = current.Add(2 * time.Minute)

	_, err = session.RecordAnswer(ctx, 1, true, 5)
	assert.ErrorIs(t, err, ErrDeadlineExpired)

	late := NewSession(store, ledger, gate, zerolog.Nop(), key, 0, []int{0, 1})
	assert.ErrorIs(t, late.Initialize(ctx), ErrDeadlineExpired)

	// The persisted score survives expiry.
	doc, err := store.Read(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, 5, doc.FinalScore)
}
