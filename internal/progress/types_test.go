package progress

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyFormat(t *testing.T) {
	assert.Equal(t, "alice@example.com--alice", Key("alice@example.com", "alice"))
}

func TestNewUserProgressPartition(t *testing.T) {
	doc := NewUserProgress(4, time.Now(), time.Now().Add(72*time.Hour))

	assert.Equal(t, 0, doc.FinalScore)
	assert.Equal(t, []int{0}, doc.LevelsEnabled)
	assert.Empty(t, doc.LevelsCompleted)
	assert.Equal(t, []int{1, 2, 3}, doc.LevelsDisabled)
	assert.NoError(t, doc.Validate())
}

func TestNewUserProgressSingleLevel(t *testing.T) {
	doc := NewUserProgress(1, time.Now(), time.Now().Add(time.Hour))

	assert.Equal(t, []int{0}, doc.LevelsEnabled)
	assert.Empty(t, doc.LevelsDisabled)
	assert.NoError(t, doc.Validate())
}

func TestValidateRejectsOverlap(t *testing.T) {
	doc := NewUserProgress(3, time.Now(), time.Now().Add(time.Hour))
	doc.LevelsCompleted = append(doc.LevelsCompleted, 0) // also in enabled

	assert.Error(t, doc.Validate())
}

func TestValidateRejectsMissingLevel(t *testing.T) {
	doc := NewUserProgress(3, time.Now(), time.Now().Add(time.Hour))
	doc.LevelsDisabled = removeInt(doc.LevelsDisabled, 2)

	assert.Error(t, doc.Validate())
}

func TestCloneIsIndependent(t *testing.T) {
	doc := NewUserProgress(2, time.Now(), time.Now().Add(time.Hour))
	doc.Levels[0] = LevelProgress{
		NumberOfQuestions: 2,
		QuestionStatus:    []QuestionStatus{{ID: 0}, {ID: 1}},
	}

	cp := doc.Clone()
	cp.LevelsEnabled = append(cp.LevelsEnabled, 1)
	lp := cp.Levels[0]
	lp.QuestionStatus[0].Completed = true
	cp.Levels[0] = lp

	assert.Equal(t, []int{0}, doc.LevelsEnabled)
	assert.False(t, doc.Levels[0].QuestionStatus[0].Completed)
}

func TestUserProgressJSONFieldNames(t *testing.T) {
	doc := NewUserProgress(2, time.Unix(1700000000, 0), time.Unix(1700259200, 0))
	doc.LevelScores = append(doc.LevelScores, LevelScore{LevelID: 0, Score: 42})
	doc.Levels[0] = LevelProgress{
		NumberOfQuestions: 1,
		QuestionStatus:    []QuestionStatus{{ID: 0, Completed: true}},
	}

	data, err := json.Marshal(doc)
	require.NoError(t, err)

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &raw))
	for _, field := range []string{
		"finalScore", "levelScores", "firstLoginTime", "lastDayForGame",
		"noOfLevels", "levelsEnabled", "levelsCompleted", "levelsDisabled", "levels",
	} {
		assert.Contains(t, raw, field)
	}

	var nested map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw["levels"], &nested))
	require.Contains(t, nested, "0")

	var lp map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(nested["0"], &lp))
	assert.Contains(t, lp, "numberOfQuestions")
	assert.Contains(t, lp, "questionStatus")
}
