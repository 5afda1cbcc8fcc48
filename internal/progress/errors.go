package progress

import "errors"

var (
	// ErrNotFound means no progress document exists for the key. On first
	// login this is the expected state, recovered by initialization.
	ErrNotFound = errors.New("progress document not found")

	// ErrAlreadyExists is returned by Init when a document is already
	// present; callers re-read instead of overwriting.
	ErrAlreadyExists = errors.New("progress document already exists")

	// ErrConflict means a concurrent writer held the document lock for the
	// whole retry window. Recovered by re-reading, never shown to users.
	ErrConflict = errors.New("progress document write conflict")

	// ErrLevelLocked means the level is not in the enabled set.
	ErrLevelLocked = errors.New("level is not enabled")

	// ErrDeadlineExpired means the contest end instant has passed; play
	// operations are rejected, score reads still work.
	ErrDeadlineExpired = errors.New("contest deadline expired")

	// ErrUnknownQuestion means the question id is not part of the level.
	ErrUnknownQuestion = errors.New("question not part of level")

	// ErrQuestionConsumed means the question was already attempted. One
	// attempt per question: replays never score and never rewrite status.
	ErrQuestionConsumed = errors.New("question already attempted")
)
