package play

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	answersRecorded = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "quiz_contest",
		Subsystem: "play",
		Name:      "answers_recorded_total",
		Help:      "Answers recorded, by game type and correctness.",
	}, []string{"game_type", "correct"})

	levelsUnlocked = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "quiz_contest",
		Subsystem: "play",
		Name:      "levels_unlocked_total",
		Help:      "Level unlock transitions performed.",
	})

	questionFetchFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "quiz_contest",
		Subsystem: "play",
		Name:      "question_fetch_failures_total",
		Help:      "Question set downloads that failed.",
	})
)
