package app

import (
	"sort"

	"quiz-competition-service/internal/domain"
)

// rankParticipants orders the completed subset of a roster and assigns dense
// 1-based ranks. Ordering: score descending, then time taken ascending, then
// earliest completion, then user ID ascending so exact ties still produce a
// strict total order. Returns the ranked completed participants and whether
// every roster member has completed.
func rankParticipants(roster []domain.Participant) (completed []domain.Participant, allCompleted bool) {
	completed = make([]domain.Participant, 0, len(roster))
	for _, p := range roster {
		if p.Completed() {
			completed = append(completed, p)
		}
	}

	sort.Slice(completed, func(i, j int) bool {
		a, b := completed[i], completed[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.TimeTakenSeconds != b.TimeTakenSeconds {
			return a.TimeTakenSeconds < b.TimeTakenSeconds
		}
		if !a.CompletedAt.Equal(b.CompletedAt) {
			return a.CompletedAt.Before(b.CompletedAt)
		}
		return a.UserID < b.UserID
	})

	for i := range completed {
		completed[i].Rank = i + 1
		completed[i].FinalRank = i + 1
	}

	return completed, len(completed) == len(roster)
}

// standings builds the broadcast-friendly view of ranked participants.
func standings(ranked []domain.Participant) []domain.StandingsEntry {
	entries := make([]domain.StandingsEntry, 0, len(ranked))
	for _, p := range ranked {
		entries = append(entries, domain.StandingsEntry{
			UserID:           p.UserID,
			Username:         p.Username,
			Rank:             p.Rank,
			Score:            p.Score,
			TimeTakenSeconds: p.TimeTakenSeconds,
		})
	}
	return entries
}
