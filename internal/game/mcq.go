package game

import "math"

// ChoiceOutcome is the evaluation of a multiple-choice submission.
type ChoiceOutcome struct {
	Correct bool
	Score   int
}

// IsMultiSelect reports whether the question requires an explicit check
// action: single-answer questions finalize on the first click, multi-answer
// questions let the user toggle freely first.
func IsMultiSelect(answer []string) bool {
	return len(answer) > 1
}

// EvaluateChoice scores a multiple-choice submission. Correctness is exact
// set equality between the selected options and the answer set; the reward
// is the seconds left on the question timer, rounded up, so faster answers
// earn more. An empty selection (timer ran out before any click) is simply
// incorrect.
func EvaluateChoice(selected, answer []string, secondsRemaining float64) ChoiceOutcome {
	if !sameSet(selected, answer) {
		return ChoiceOutcome{}
	}
	return ChoiceOutcome{Correct: true, Score: timeBonus(secondsRemaining)}
}

func timeBonus(secondsRemaining float64) int {
	if secondsRemaining <= 0 {
		return 0
	}
	return int(math.Ceil(secondsRemaining))
}

func sameSet(a, b []string) bool {
	setA := make(map[string]struct{}, len(a))
	for _, v := range a {
		setA[v] = struct{}{}
	}
	setB := make(map[string]struct{}, len(b))
	for _, v := range b {
		setB[v] = struct{}{}
	}
	if len(setA) != len(setB) {
		return false
	}
	for v := range setA {
		if _, ok := setB[v]; !ok {
			return false
		}
	}
	return true
}
