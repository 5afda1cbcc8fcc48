package leaderboard

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"

	"github.com/contestkit/quiz-contest/internal/db/repository"
)

// SnapshotWorker periodically persists the Redis standings into Postgres so
// the final results survive a Redis flush.
type SnapshotWorker struct {
	svc       *Service
	snapshots *repository.SnapshotRepository
	logger    zerolog.Logger
	interval  time.Duration
	topN      int

	lastHash string
}

func NewSnapshotWorker(svc *Service, snapshots *repository.SnapshotRepository, interval time.Duration, topN int, logger zerolog.Logger) *SnapshotWorker {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	if topN <= 0 {
		topN = 50
	}
	return &SnapshotWorker{
		svc:       svc,
		snapshots: snapshots,
		logger:    logger.With().Str("component", "leaderboard_snapshot_worker").Logger(),
		interval:  interval,
		topN:      topN,
	}
}

// Run blocks until context cancellation.
func (w *SnapshotWorker) Run(ctx context.Context) error {
	if w.svc == nil || w.snapshots == nil {
		return nil
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	// run immediately
	w.tick(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			w.tick(ctx)
		}
	}
}

func (w *SnapshotWorker) tick(ctx context.Context) {
	if err := w.snapshot(ctx); err != nil {
		w.logger.Warn().Err(err).Msg("snapshot failed")
	}
}

func (w *SnapshotWorker) snapshot(ctx context.Context) error {
	entries, err := w.svc.Top(ctx, w.topN)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return nil
	}

	data, err := json.Marshal(entries)
	if err != nil {
		return err
	}

	sum := sha256.Sum256(data)
	sourceHash := hex.EncodeToString(sum[:])
	if sourceHash == w.lastHash {
		// Standings unchanged since the last tick.
		return nil
	}

	now := time.Now().UTC()
	if err := w.snapshots.Insert(ctx, now, data, sourceHash); err != nil {
		return err
	}
	w.lastHash = sourceHash

	w.logger.Info().
		Int("entries", len(entries)).
		Time("generated_at", now).
		Msg("leaderboard snapshot persisted")
	return nil
}
