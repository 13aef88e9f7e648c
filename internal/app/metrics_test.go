package app

import "testing"

func TestComputeMetrics(t *testing.T) {
	m := computeMetrics(10, 8, 6, 6, 120, 2, 4)

	if m.IncorrectAnswers != 2 {
		t.Fatalf("expected 2 incorrect, got %d", m.IncorrectAnswers)
	}
	if m.SkippedAnswers != 2 {
		t.Fatalf("expected 2 skipped, got %d", m.SkippedAnswers)
	}
	if m.PercentageScore != 60.0 {
		t.Fatalf("expected percentage 60, got %v", m.PercentageScore)
	}
	if m.AccuracyRate != 75.0 {
		t.Fatalf("expected accuracy 75, got %v", m.AccuracyRate)
	}
	if m.AverageTimePerQuestion != 12.0 {
		t.Fatalf("expected 12s per question, got %v", m.AverageTimePerQuestion)
	}
}

func TestComputeMetricsSingleParticipantPercentile(t *testing.T) {
	m := computeMetrics(10, 10, 10, 10, 60, 1, 1)
	if m.RankPercentile != 100 {
		t.Fatalf("expected percentile 100 for solo competition, got %v", m.RankPercentile)
	}
}

func TestComputeMetricsZeroQuestions(t *testing.T) {
	m := computeMetrics(0, 0, 0, 0, 60, 1, 2)
	if m.PercentageScore != 0 || m.AverageTimePerQuestion != 0 {
		t.Fatalf("expected zero-question guards, got %+v", m)
	}
	if m.AccuracyRate != 0 {
		t.Fatalf("expected accuracy 0 with nothing attempted, got %v", m.AccuracyRate)
	}
}

func TestComputeMetricsPercentileSpread(t *testing.T) {
	// 4 participants: rank 1 -> 100, rank 4 -> 0.
	if p := computeMetrics(5, 5, 5, 5, 30, 1, 4).RankPercentile; p != 100 {
		t.Fatalf("expected top rank at 100th percentile, got %v", p)
	}
	if p := computeMetrics(5, 5, 0, 0, 30, 4, 4).RankPercentile; p != 0 {
		t.Fatalf("expected last rank at 0th percentile, got %v", p)
	}
}

func TestComputeMetricsNegativeGuards(t *testing.T) {
	// Correct answers exceeding answered count never yields negative figures.
	m := computeMetrics(10, 3, 5, 5, 60, 1, 2)
	if m.IncorrectAnswers != 0 {
		t.Fatalf("expected incorrect clamped to 0, got %d", m.IncorrectAnswers)
	}
	// Answered exceeding the question set never yields negative skips.
	m = computeMetrics(5, 8, 4, 4, 60, 1, 2)
	if m.SkippedAnswers != 0 {
		t.Fatalf("expected skipped clamped to 0, got %d", m.SkippedAnswers)
	}
}
