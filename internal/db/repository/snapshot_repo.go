package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

// ErrNoSnapshot is returned when no leaderboard snapshot has been persisted.
var ErrNoSnapshot = errors.New("no leaderboard snapshot")

// Snapshot is one persisted leaderboard export.
type Snapshot struct {
	ID          int64
	GeneratedAt time.Time
	Entries     []byte
	SourceHash  string
}

// SnapshotRepository stores periodic leaderboard exports in Postgres so the
// admin view survives a Redis flush.
type SnapshotRepository struct {
	db dbtx
}

// NewSnapshotRepository wraps a pgx pool for snapshot persistence.
func NewSnapshotRepository(db dbtx) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

// Insert persists one leaderboard export.
func (r *SnapshotRepository) Insert(ctx context.Context, generatedAt time.Time, entries []byte, sourceHash string) error {
	genAt := pgtype.Timestamptz{Time: generatedAt, Valid: true}
	_, err := r.db.Exec(ctx, `
		INSERT INTO leaderboard_snapshots (generated_at, entries, source_hash)
		VALUES ($1, $2, $3)`,
		genAt, entries, sourceHash)
	if err != nil {
		return fmt.Errorf("insert leaderboard snapshot: %w", err)
	}
	return nil
}

// Latest returns the most recent snapshot.
func (r *SnapshotRepository) Latest(ctx context.Context) (Snapshot, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, generated_at, entries, source_hash
		FROM leaderboard_snapshots
		ORDER BY generated_at DESC
		LIMIT 1`)

	var (
		snap  Snapshot
		genAt pgtype.Timestamptz
	)
	if err := row.Scan(&snap.ID, &genAt, &snap.Entries, &snap.SourceHash); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Snapshot{}, ErrNoSnapshot
		}
		return Snapshot{}, fmt.Errorf("scan leaderboard snapshot: %w", err)
	}
	if genAt.Valid {
		snap.GeneratedAt = genAt.Time
	}
	return snap, nil
}
