package progress

import (
	"fmt"
	"sort"
	"time"
)

// Key builds the progress document key for a user. Admin tooling (the
// leaderboard exporter) joins on the same key, so the format is part of the
// durable contract.
func Key(email, username string) string {
	return email + "--" + username
}

// QuestionStatus records whether a single question has been attempted.
// A question is completed once attempted or timed out, not only when
// answered correctly; there are no retries within a session.
type QuestionStatus struct {
	ID        int  `json:"id"`
	Completed bool `json:"completed"`
}

// LevelProgress is created once per level, on first visit, and only its
// completion flags are mutated afterwards.
type LevelProgress struct {
	NumberOfQuestions int              `json:"numberOfQuestions"`
	QuestionStatus    []QuestionStatus `json:"questionStatus"`
}

// LevelScore is appended when a level's questions are exhausted.
type LevelScore struct {
	LevelID int `json:"levelId"`
	Score   int `json:"score"`
}

// UserProgress is the per-user persisted document. JSON field names are a
// durable contract shared with external tooling and must round-trip exactly.
type UserProgress struct {
	FinalScore      int                   `json:"finalScore"`
	LevelScores     []LevelScore          `json:"levelScores"`
	FirstLoginTime  time.Time             `json:"firstLoginTime"`
	LastDayForGame  time.Time             `json:"lastDayForGame"`
	NoOfLevels      int                   `json:"noOfLevels"`
	LevelsEnabled   []int                 `json:"levelsEnabled"`
	LevelsCompleted []int                 `json:"levelsCompleted"`
	LevelsDisabled  []int                 `json:"levelsDisabled"`
	Levels          map[int]LevelProgress `json:"levels"`
}

// NewUserProgress builds the first-login document: level 0 enabled, the rest
// disabled, zero score, deadline stamped once from the shared contest end.
func NewUserProgress(noOfLevels int, firstLogin, lastDay time.Time) *UserProgress {
	disabled := make([]int, 0, noOfLevels)
	for i := 1; i < noOfLevels; i++ {
		disabled = append(disabled, i)
	}
	return &UserProgress{
		FinalScore:      0,
		LevelScores:     []LevelScore{},
		FirstLoginTime:  firstLogin.UTC(),
		LastDayForGame:  lastDay.UTC(),
		NoOfLevels:      noOfLevels,
		LevelsEnabled:   []int{0},
		LevelsCompleted: []int{},
		LevelsDisabled:  disabled,
		Levels:          map[int]LevelProgress{},
	}
}

// IsEnabled reports whether the level is currently playable.
func (p *UserProgress) IsEnabled(levelID int) bool {
	return containsInt(p.LevelsEnabled, levelID)
}

// IsCompleted reports whether the level has been exhausted.
func (p *UserProgress) IsCompleted(levelID int) bool {
	return containsInt(p.LevelsCompleted, levelID)
}

// IsDisabled reports whether the level is still locked.
func (p *UserProgress) IsDisabled(levelID int) bool {
	return containsInt(p.LevelsDisabled, levelID)
}

// Validate checks the partition invariant: enabled, completed and disabled
// together cover {0..noOfLevels-1} with no level in two sets.
func (p *UserProgress) Validate() error {
	seen := make(map[int]int, p.NoOfLevels)
	for _, id := range p.LevelsEnabled {
		seen[id]++
	}
	for _, id := range p.LevelsCompleted {
		seen[id]++
	}
	for _, id := range p.LevelsDisabled {
		seen[id]++
	}
	if len(seen) != p.NoOfLevels {
		return fmt.Errorf("level sets cover %d ids, want %d", len(seen), p.NoOfLevels)
	}
	for id, count := range seen {
		if id < 0 || id >= p.NoOfLevels {
			return fmt.Errorf("level id %d out of range [0,%d)", id, p.NoOfLevels)
		}
		if count != 1 {
			return fmt.Errorf("level id %d appears in %d sets", id, count)
		}
	}
	return nil
}

// Clone returns a deep copy so callers can mutate without aliasing the
// store's authoritative document.
func (p *UserProgress) Clone() *UserProgress {
	cp := *p
	cp.LevelScores = append([]LevelScore(nil), p.LevelScores...)
	cp.LevelsEnabled = append([]int(nil), p.LevelsEnabled...)
	cp.LevelsCompleted = append([]int(nil), p.LevelsCompleted...)
	cp.LevelsDisabled = append([]int(nil), p.LevelsDisabled...)
	cp.Levels = make(map[int]LevelProgress, len(p.Levels))
	for id, lp := range p.Levels {
		lpCopy := lp
		lpCopy.QuestionStatus = append([]QuestionStatus(nil), lp.QuestionStatus...)
		cp.Levels[id] = lpCopy
	}
	return &cp
}

func containsInt(list []int, v int) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

func removeInt(list []int, v int) []int {
	out := list[:0]
	for _, item := range list {
		if item != v {
			out = append(out, item)
		}
	}
	return out
}

func appendSorted(list []int, v int) []int {
	if containsInt(list, v) {
		return list
	}
	list = append(list, v)
	sort.Ints(list)
	return list
}
