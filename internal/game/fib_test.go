package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBlankCount(t *testing.T) {
	assert.Equal(t, 2, BlankCount("The * jumped over the *"))
	assert.Equal(t, 0, BlankCount("no blanks here"))
}

func TestEvaluateBlanksAllCorrect(t *testing.T) {
	correct := []string{"cat", "moon"}

	outcome := EvaluateBlanks([]string{"cat", "moon"}, correct, 8.5)
	assert.True(t, outcome.AllCorrect)
	assert.Equal(t, 2, outcome.CorrectBlanks)
	assert.Equal(t, []bool{true, true}, outcome.PerBlank)
	assert.Equal(t, 9, outcome.Score)
}

func TestEvaluateBlanksPartialScoresZero(t *testing.T) {
	correct := []string{"cat", "moon"}

	// Per-blank feedback is reported, but the bonus is all-or-nothing.
	outcome := EvaluateBlanks([]string{"cat", "sun"}, correct, 8.5)
	assert.False(t, outcome.AllCorrect)
	assert.Equal(t, 1, outcome.CorrectBlanks)
	assert.Equal(t, []bool{true, false}, outcome.PerBlank)
	assert.Equal(t, 0, outcome.Score)
}

func TestEvaluateBlanksTrimsWhitespace(t *testing.T) {
	outcome := EvaluateBlanks([]string{"  cat "}, []string{"cat"}, 5)
	assert.True(t, outcome.AllCorrect)
}

func TestEvaluateBlanksUnfilledIncorrect(t *testing.T) {
	correct := []string{"cat", "moon"}

	outcome := EvaluateBlanks([]string{"cat"}, correct, 5)
	assert.False(t, outcome.AllCorrect)
	assert.Equal(t, []bool{true, false}, outcome.PerBlank)

	outcome = EvaluateBlanks(nil, correct, 5)
	assert.False(t, outcome.AllCorrect)
	assert.Equal(t, 0, outcome.CorrectBlanks)
}

func TestEvaluateBlanksNoAnswers(t *testing.T) {
	outcome := EvaluateBlanks(nil, nil, 5)
	assert.False(t, outcome.AllCorrect)
	assert.Equal(t, 0, outcome.Score)
}

func TestEvaluateBlanksExpiredTimer(t *testing.T) {
	outcome := EvaluateBlanks([]string{"cat"}, []string{"cat"}, 0)
	assert.True(t, outcome.AllCorrect)
	assert.Equal(t, 0, outcome.Score)
}
