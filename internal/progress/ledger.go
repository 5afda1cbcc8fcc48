package progress

import (
	"context"

	"github.com/rs/zerolog"
)

// Ledger drives the enabled/completed/disabled state machine over level ids.
// All transitions run through Store.Update, so they act on the freshest
// persisted document rather than any locally cached state; a second tab that
// already performed the unlock turns the call into a no-op instead of a
// double transition.
type Ledger struct {
	store  Store
	logger zerolog.Logger
}

// NewLedger constructs a level unlock ledger over the given store.
func NewLedger(store Store, logger zerolog.Logger) *Ledger {
	return &Ledger{
		store:  store,
		logger: logger.With().Str("component", "unlock_ledger").Logger(),
	}
}

// IsEnabled reports whether the level is playable for the user.
func (l *Ledger) IsEnabled(ctx context.Context, key string, levelID int) (bool, error) {
	doc, err := l.store.Read(ctx, key)
	if err != nil {
		return false, err
	}
	return doc.IsEnabled(levelID), nil
}

// IsCompleted reports whether the level has been exhausted.
func (l *Ledger) IsCompleted(ctx context.Context, key string, levelID int) (bool, error) {
	doc, err := l.store.Read(ctx, key)
	if err != nil {
		return false, err
	}
	return doc.IsCompleted(levelID), nil
}

// UnlockNext moves completedLevel from enabled to completed and the next
// level from disabled to enabled (no-op when completedLevel is the last).
// Precondition: completedLevel is enabled; if another writer already
// completed it the transition is skipped silently.
func (l *Ledger) UnlockNext(ctx context.Context, key string, completedLevel int) (*UserProgress, error) {
	doc, err := l.store.Update(ctx, key, func(doc *UserProgress) error {
		if doc.IsCompleted(completedLevel) {
			// A concurrent session got here first; nothing left to do.
			return nil
		}
		if !doc.IsEnabled(completedLevel) {
			return ErrLevelLocked
		}

		doc.LevelsEnabled = removeInt(doc.LevelsEnabled, completedLevel)
		doc.LevelsCompleted = appendSorted(doc.LevelsCompleted, completedLevel)

		next := completedLevel + 1
		if next < doc.NoOfLevels {
			doc.LevelsDisabled = removeInt(doc.LevelsDisabled, next)
			doc.LevelsEnabled = appendSorted(doc.LevelsEnabled, next)
		}
		return doc.Validate()
	})
	if err != nil {
		return nil, err
	}

	l.logger.Info().
		Str("key", key).
		Int("completed_level", completedLevel).
		Ints("enabled", doc.LevelsEnabled).
		Msg("level completed")
	return doc, nil
}
