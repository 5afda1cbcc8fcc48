package progress

import "context"

// UnsubscribeFunc tears down a change-feed subscription. Safe to call more
// than once.
type UnsubscribeFunc func()

// Store is the progress document adapter. One document per user key.
//
// Semantics every implementation must honor:
//   - Init is atomic at the document level: a concurrent reader sees either
//     no document or the complete one, never a partial write.
//   - Update applies the mutation to the freshest persisted document under a
//     per-key lock, so callers never act on stale local state.
//   - Update must not touch FinalScore; score flows through IncrementScore,
//     which is an atomic increment rather than read-modify-write so that
//     concurrent sessions for the same user cannot lose updates.
//   - Every successful mutation is pushed to subscribers as a full snapshot.
type Store interface {
	// Read returns the current document or ErrNotFound.
	Read(ctx context.Context, key string) (*UserProgress, error)

	// Init creates the document exactly once; ErrAlreadyExists otherwise.
	Init(ctx context.Context, key string, doc *UserProgress) error

	// Update locks the document, re-reads it, applies mutate and persists
	// the result. Returning an error from mutate aborts without writing.
	Update(ctx context.Context, key string, mutate func(doc *UserProgress) error) (*UserProgress, error)

	// IncrementScore atomically adds delta to finalScore and returns the
	// new total.
	IncrementScore(ctx context.Context, key string, delta int) (int, error)

	// Subscribe delivers a full document snapshot after every mutation.
	// Snapshots are authoritative: consumers overwrite local state, they do
	// not merge.
	Subscribe(ctx context.Context, key string, fn func(UserProgress)) (UnsubscribeFunc, error)
}
