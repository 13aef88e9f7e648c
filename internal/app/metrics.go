package app

// Metrics are the derived per-participant figures written onto a result row.
// All fields are pure functions of durable participant and competition state,
// so recomputing them on a retry yields identical values.
type Metrics struct {
	IncorrectAnswers       int
	SkippedAnswers         int
	PercentageScore        float64
	AccuracyRate           float64
	RankPercentile         float64
	AverageTimePerQuestion float64
}

// computeMetrics derives scoring figures for one completed participant.
// totalQuestions is the length of the competition's question set;
// totalParticipants is the roster size at finalization time.
func computeMetrics(totalQuestions, questionsAnswered, correctAnswers, score, timeTakenSeconds, finalRank, totalParticipants int) Metrics {
	m := Metrics{}

	m.IncorrectAnswers = questionsAnswered - correctAnswers
	if m.IncorrectAnswers < 0 {
		m.IncorrectAnswers = 0
	}
	m.SkippedAnswers = totalQuestions - questionsAnswered
	if m.SkippedAnswers < 0 {
		m.SkippedAnswers = 0
	}

	if totalQuestions > 0 {
		m.PercentageScore = float64(score) / float64(totalQuestions) * 100
		m.AverageTimePerQuestion = float64(timeTakenSeconds) / float64(totalQuestions)
	}

	if attempted := correctAnswers + m.IncorrectAnswers; attempted > 0 {
		m.AccuracyRate = float64(correctAnswers) / float64(attempted) * 100
	}

	// A single-participant competition has no spread to rank within; the sole
	// finisher sits at the 100th percentile.
	if totalParticipants > 1 {
		m.RankPercentile = float64(totalParticipants-finalRank) / float64(totalParticipants-1) * 100
	} else {
		m.RankPercentile = 100
	}

	return m
}
