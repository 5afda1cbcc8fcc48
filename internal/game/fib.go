package game

import "strings"

// BlankMarker is the placeholder character splitting a fill-in-the-blank
// prompt into segments; the number of markers is the number of blanks.
const BlankMarker = "*"

// BlankOutcome is the evaluation of a fill-in-the-blank submission.
// Per-blank correctness is reported for feedback, but the time bonus is
// all-or-nothing: CorrectBlanks never flows into Score on its own.
type BlankOutcome struct {
	PerBlank      []bool
	CorrectBlanks int
	AllCorrect    bool
	Score         int
}

// BlankCount returns the number of blanks in a prompt.
func BlankCount(prompt string) int {
	return strings.Count(prompt, BlankMarker)
}

// EvaluateBlanks scores a blank assignment against the positional answer
// sequence. Each blank is compared after trimming surrounding whitespace;
// unfilled blanks are incorrect. The ceil-of-timer bonus is granted only
// when every blank is correct.
func EvaluateBlanks(blanks, correct []string, secondsRemaining float64) BlankOutcome {
	outcome := BlankOutcome{
		PerBlank:   make([]bool, len(correct)),
		AllCorrect: true,
	}
	for i := range correct {
		var filled string
		if i < len(blanks) {
			filled = strings.TrimSpace(blanks[i])
		}
		if filled == correct[i] {
			outcome.PerBlank[i] = true
			outcome.CorrectBlanks++
		} else {
			outcome.AllCorrect = false
		}
	}
	if len(correct) == 0 {
		outcome.AllCorrect = false
	}
	if outcome.AllCorrect {
		outcome.Score = timeBonus(secondsRemaining)
	}
	return outcome
}
