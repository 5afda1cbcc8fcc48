package progress

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
)

// Session drives a single level's play-through for one user: per-question
// completion, the resume point, score accumulation and the unlock handoff
// when the level is exhausted.
type Session struct {
	store  Store
	ledger *Ledger
	gate   *Gate
	logger zerolog.Logger

	key         string
	levelID     int
	questionIDs []int
	status      []QuestionStatus
}

// AnswerOutcome reports the persisted effect of one recorded answer.
type AnswerOutcome struct {
	FinalScore     int
	LevelExhausted bool
	NextUnlocked   bool
}

// NewSession creates a session for one user and level. questionIDs is the
// ordered question sequence from the level's question set.
func NewSession(store Store, ledger *Ledger, gate *Gate, logger zerolog.Logger, key string, levelID int, questionIDs []int) *Session {
	return &Session{
		store:  store,
		ledger: ledger,
		gate:   gate,
		logger: logger.With().Str("component", "question_session").Int("level", levelID).Logger(),

		key:         key,
		levelID:     levelID,
		questionIDs: questionIDs,
	}
}

// Initialize creates the level's progress entry on first visit, marking all
// questions incomplete. A repeat visit finds the existing entry and loads it
// unmodified, so partially completed levels resume where they left off.
func (s *Session) Initialize(ctx context.Context) error {
	if err := s.gate.Check(); err != nil {
		return err
	}

	doc, err := s.store.Update(ctx, s.key, func(doc *UserProgress) error {
		if _, ok := doc.Levels[s.levelID]; ok {
			return nil
		}
		status := make([]QuestionStatus, len(s.questionIDs))
		for i, id := range s.questionIDs {
			status[i] = QuestionStatus{ID: id, Completed: false}
		}
		doc.Levels[s.levelID] = LevelProgress{
			NumberOfQuestions: len(s.questionIDs),
			QuestionStatus:    status,
		}
		return nil
	})
	if err != nil {
		return err
	}

	lp := doc.Levels[s.levelID]
	s.status = append([]QuestionStatus(nil), lp.QuestionStatus...)
	return nil
}

// ResumeIndex returns the position of the first incomplete question. The
// second return value is false when no incomplete question remains.
func (s *Session) ResumeIndex() (int, bool) {
	for i, qs := range s.status {
		if !qs.Completed {
			return i, true
		}
	}
	return 0, false
}

// Exhausted reports whether every question in the level has been attempted.
func (s *Session) Exhausted() bool {
	_, remaining := s.ResumeIndex()
	return !remaining
}

// Status returns the session's view of per-question completion.
func (s *Session) Status() []QuestionStatus {
	return append([]QuestionStatus(nil), s.status...)
}

// RecordAnswer marks the question completed regardless of correctness (one
// attempt per question, timeouts included), adds scoreDelta atomically and,
// when the level is exhausted, records the level score and triggers the
// unlock transition. A question already completed on the freshest persisted
// document is rejected with ErrQuestionConsumed before any score flows, so a
// replayed submission can never inflate finalScore.
func (s *Session) RecordAnswer(ctx context.Context, questionID int, correct bool, scoreDelta int) (*AnswerOutcome, error) {
	if err := s.gate.Check(); err != nil {
		return nil, err
	}
	if !containsInt(s.questionIDs, questionID) {
		return nil, ErrUnknownQuestion
	}
	if scoreDelta < 0 {
		scoreDelta = 0
	}

	doc, err := s.store.Update(ctx, s.key, func(doc *UserProgress) error {
		lp, ok := doc.Levels[s.levelID]
		if !ok {
			return ErrNotFound
		}
		for i := range lp.QuestionStatus {
			if lp.QuestionStatus[i].ID == questionID {
				if lp.QuestionStatus[i].Completed {
					return ErrQuestionConsumed
				}
				lp.QuestionStatus[i].Completed = true
			}
		}
		doc.Levels[s.levelID] = lp
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrQuestionConsumed) {
			// Another tab got here first; align the local view.
			for i := range s.status {
				if s.status[i].ID == questionID {
					s.status[i].Completed = true
				}
			}
		}
		return nil, err
	}

	total := doc.FinalScore
	if scoreDelta > 0 {
		total, err = s.store.IncrementScore(ctx, s.key, scoreDelta)
		if err != nil {
			return nil, err
		}
	}

	s.status = append([]QuestionStatus(nil), doc.Levels[s.levelID].QuestionStatus...)
	s.logger.Info().
		Int("question", questionID).
		Bool("correct", correct).
		Int("score_delta", scoreDelta).
		Int("final_score", total).
		Msg("answer recorded")

	outcome := &AnswerOutcome{FinalScore: total}
	if !s.Exhausted() {
		return outcome, nil
	}
	outcome.LevelExhausted = true

	if err := s.recordLevelScore(ctx, total); err != nil {
		return nil, err
	}

	unlocked, err := s.ledger.UnlockNext(ctx, s.key, s.levelID)
	if err != nil {
		return nil, err
	}
	outcome.NextUnlocked = unlocked.IsEnabled(s.levelID + 1)
	return outcome, nil
}

// recordLevelScore appends the level's cumulative score record once.
func (s *Session) recordLevelScore(ctx context.Context, finalScore int) error {
	_, err := s.store.Update(ctx, s.key, func(doc *UserProgress) error {
		for _, ls := range doc.LevelScores {
			if ls.LevelID == s.levelID {
				return nil
			}
		}
		prior := 0
		for _, ls := range doc.LevelScores {
			prior += ls.Score
		}
		doc.LevelScores = append(doc.LevelScores, LevelScore{
			LevelID: s.levelID,
			Score:   finalScore - prior,
		})
		return nil
	})
	return err
}
