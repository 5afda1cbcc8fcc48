package play

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/contestkit/quiz-contest/internal/catalog"
	"github.com/contestkit/quiz-contest/internal/game"
	"github.com/contestkit/quiz-contest/internal/progress"
)

// ErrUnknownLevel is returned when the theme has no such level.
var ErrUnknownLevel = errors.New("unknown level")

// scoreRecorder is the leaderboard hook; deltas mirror the progress store's
// finalScore increments so the standings never drift from the documents.
type scoreRecorder interface {
	RecordScore(ctx context.Context, key, username string, delta int) error
}

// ServiceOptions wires the gameplay service.
type ServiceOptions struct {
	Store              progress.Store
	Ledger             *progress.Ledger
	Gate               *progress.Gate
	Catalog            *catalog.Catalog
	Fetcher            catalog.QuestionFetcher
	Leaderboard        scoreRecorder
	PerQuestionSeconds int
	Logger             zerolog.Logger
}

// Service is the gameplay orchestrator: it joins the catalog, the question
// fetcher, the progress store and the evaluators behind the play endpoints.
type Service struct {
	store              progress.Store
	ledger             *progress.Ledger
	gate               *progress.Gate
	catalog            *catalog.Catalog
	fetcher            catalog.QuestionFetcher
	leaderboard        scoreRecorder
	perQuestionSeconds int
	logger             zerolog.Logger
	now                func() time.Time
}

// NewService creates the gameplay service.
func NewService(opts ServiceOptions) *Service {
	if opts.PerQuestionSeconds <= 0 {
		opts.PerQuestionSeconds = 30
	}
	return &Service{
		store:              opts.Store,
		ledger:             opts.Ledger,
		gate:               opts.Gate,
		catalog:            opts.Catalog,
		fetcher:            opts.Fetcher,
		leaderboard:        opts.Leaderboard,
		perQuestionSeconds: opts.PerQuestionSeconds,
		logger:             opts.Logger.With().Str("component", "play_service").Logger(),
		now:                time.Now,
	}
}

// ProgressView is the document plus the shared contest countdown.
type ProgressView struct {
	Progress  *progress.UserProgress `json:"progress"`
	Countdown string                 `json:"countdown"`
	Expired   bool                   `json:"expired"`
}

// EnsureProgress returns the user's document, creating the first-login
// document when none exists. Creation stamps the shared contest deadline
// into the document once; later reads never recalculate it.
func (s *Service) EnsureProgress(ctx context.Context, key, themeName string) (*progress.UserProgress, error) {
	doc, err := s.store.Read(ctx, key)
	if err == nil {
		return doc, nil
	}
	if !errors.Is(err, progress.ErrNotFound) {
		return nil, err
	}

	theme, ok := s.catalog.Theme(themeName)
	if !ok {
		return nil, catalog.ErrUnknownTheme
	}

	doc = progress.NewUserProgress(len(theme.Levels), s.now(), s.gate.Deadline())
	if err := s.store.Init(ctx, key, doc); err != nil {
		if errors.Is(err, progress.ErrAlreadyExists) {
			// Lost the first-login race to another tab; theirs wins.
			return s.store.Read(ctx, key)
		}
		return nil, err
	}

	s.logger.Info().Str("key", key).Int("levels", doc.NoOfLevels).Msg("progress document created")
	return doc, nil
}

// Progress returns the progress view for the overview screen.
func (s *Service) Progress(ctx context.Context, key, themeName string) (*ProgressView, error) {
	doc, err := s.EnsureProgress(ctx, key, themeName)
	if err != nil {
		return nil, err
	}
	return &ProgressView{
		Progress:  doc,
		Countdown: progress.FormatRemaining(s.gate.Remaining()),
		Expired:   s.gate.Expired(),
	}, nil
}

// LevelView is the playable level state returned at level-select time.
// Questions are sanitized; FIB questions additionally carry the initial
// drag-drop board (empty blanks, full option pool).
type LevelView struct {
	LevelID            int                `json:"levelId"`
	DisplayName        string             `json:"displayName"`
	GameType           string             `json:"gameType"`
	Questions          []catalog.Question `json:"questions"`
	Boards             map[int]game.Board `json:"boards,omitempty"`
	ResumeIndex        int                `json:"resumeIndex"`
	Exhausted          bool               `json:"exhausted"`
	PerQuestionSeconds int                `json:"perQuestionSeconds"`
	Countdown          string             `json:"countdown"`
}

// SelectLevel fetches the level's question set, creates or resumes the
// level's progress entry and returns the playable view. A fetch failure
// leaves progress untouched so selecting the level again retries cleanly.
func (s *Service) SelectLevel(ctx context.Context, key, themeName string, levelID int) (*LevelView, error) {
	if err := s.gate.Check(); err != nil {
		return nil, err
	}

	level, ok := s.catalog.Level(themeName, levelID)
	if !ok {
		if _, themeOK := s.catalog.Theme(themeName); !themeOK {
			return nil, catalog.ErrUnknownTheme
		}
		return nil, ErrUnknownLevel
	}

	doc, err := s.EnsureProgress(ctx, key, themeName)
	if err != nil {
		return nil, err
	}
	if !doc.IsEnabled(levelID) {
		return nil, progress.ErrLevelLocked
	}

	questions, err := s.fetcher.FetchQuestionSet(ctx, level.QuestionSetURL)
	if err != nil {
		questionFetchFailures.Inc()
		return nil, err
	}

	session := s.session(key, levelID, questions)
	if err := session.Initialize(ctx); err != nil {
		return nil, err
	}

	view := &LevelView{
		LevelID:            level.ID,
		DisplayName:        level.DisplayName,
		GameType:           level.GameType,
		Questions:          sanitize(questions),
		Exhausted:          session.Exhausted(),
		PerQuestionSeconds: s.perQuestionSeconds,
		Countdown:          progress.FormatRemaining(s.gate.Remaining()),
	}
	view.ResumeIndex, _ = session.ResumeIndex()

	if level.GameType == catalog.GameTypeFIB {
		view.Boards = make(map[int]game.Board, len(questions))
		for _, q := range questions {
			view.Boards[q.ID] = game.NewBoard(q.Prompt, q.Options)
		}
	}
	return view, nil
}

// AnswerRequest is one submission: the selected options for MCQ levels, or
// the positional blank assignment for FIB levels. SecondsRemaining is the
// question timer value at submit time and caps the score reward.
type AnswerRequest struct {
	QuestionID       int      `json:"questionId"`
	Selected         []string `json:"selected,omitempty"`
	Blanks           []string `json:"blanks,omitempty"`
	SecondsRemaining float64  `json:"secondsRemaining"`
}

// AnswerResult reports the evaluation and the persisted outcome.
type AnswerResult struct {
	Correct        bool     `json:"correct"`
	PerBlank       []bool   `json:"perBlank,omitempty"`
	CorrectBlanks  int      `json:"correctBlanks,omitempty"`
	ScoreDelta     int      `json:"scoreDelta"`
	FinalScore     int      `json:"finalScore"`
	LevelExhausted bool     `json:"levelExhausted"`
	NextUnlocked   bool     `json:"nextUnlocked"`
	Answer         []string `json:"answer,omitempty"`
	Countdown      string   `json:"countdown"`
}

// SubmitAnswer evaluates one submission and records the attempt. The
// question is consumed whether or not the answer is correct; there are no
// retries. Timer expiry is submitted with SecondsRemaining <= 0 and scores
// zero.
func (s *Service) SubmitAnswer(ctx context.Context, key, username, themeName string, levelID int, req AnswerRequest) (*AnswerResult, error) {
	if err := s.gate.Check(); err != nil {
		return nil, err
	}

	level, ok := s.catalog.Level(themeName, levelID)
	if !ok {
		if _, themeOK := s.catalog.Theme(themeName); !themeOK {
			return nil, catalog.ErrUnknownTheme
		}
		return nil, ErrUnknownLevel
	}

	doc, err := s.EnsureProgress(ctx, key, themeName)
	if err != nil {
		return nil, err
	}
	if !doc.IsEnabled(levelID) {
		return nil, progress.ErrLevelLocked
	}

	questions, err := s.fetcher.FetchQuestionSet(ctx, level.QuestionSetURL)
	if err != nil {
		questionFetchFailures.Inc()
		return nil, err
	}

	question, ok := findQuestion(questions, req.QuestionID)
	if !ok {
		return nil, progress.ErrUnknownQuestion
	}

	result := &AnswerResult{}
	switch level.GameType {
	case catalog.GameTypeFIB:
		outcome := game.EvaluateBlanks(req.Blanks, question.CorrectAnswers, req.SecondsRemaining)
		result.Correct = outcome.AllCorrect
		result.PerBlank = outcome.PerBlank
		result.CorrectBlanks = outcome.CorrectBlanks
		result.ScoreDelta = outcome.Score
		result.Answer = question.CorrectAnswers
	default:
		outcome := game.EvaluateChoice(req.Selected, question.Answer, req.SecondsRemaining)
		result.Correct = outcome.Correct
		result.ScoreDelta = outcome.Score
		result.Answer = question.Answer
	}

	session := s.session(key, levelID, questions)
	if err := session.Initialize(ctx); err != nil {
		return nil, err
	}

	outcome, err := session.RecordAnswer(ctx, req.QuestionID, result.Correct, result.ScoreDelta)
	if err != nil {
		return nil, err
	}
	result.FinalScore = outcome.FinalScore
	result.LevelExhausted = outcome.LevelExhausted
	result.NextUnlocked = outcome.NextUnlocked
	result.Countdown = progress.FormatRemaining(s.gate.Remaining())

	answersRecorded.WithLabelValues(level.GameType, boolLabel(result.Correct)).Inc()
	if outcome.NextUnlocked {
		levelsUnlocked.Inc()
	}

	if s.leaderboard != nil {
		if err := s.leaderboard.RecordScore(ctx, key, username, result.ScoreDelta); err != nil {
			// The document is authoritative; standings catch up on the
			// next scoring submit.
			s.logger.Warn().Err(err).Str("key", key).Msg("leaderboard update failed")
		}
	}
	return result, nil
}

func (s *Service) session(key string, levelID int, questions []catalog.Question) *progress.Session {
	ids := make([]int, len(questions))
	for i, q := range questions {
		ids[i] = q.ID
	}
	return progress.NewSession(s.store, s.ledger, s.gate, s.logger, key, levelID, ids)
}

func sanitize(questions []catalog.Question) []catalog.Question {
	out := make([]catalog.Question, len(questions))
	for i, q := range questions {
		out[i] = q.Sanitized()
	}
	return out
}

func findQuestion(questions []catalog.Question, id int) (catalog.Question, bool) {
	for _, q := range questions {
		if q.ID == id {
			return q, true
		}
	}
	return catalog.Question{}, false
}

func boolLabel(v bool) string {
	return fmt.Sprintf("%t", v)
}
