package memory

import (
	"context"
	"testing"
	"time"

	"quiz-competition-service/internal/app"
	"quiz-competition-service/internal/domain"
)

func TestMarkCompletedOnlyOnce(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	store.SeedCompetition(domain.Competition{ID: "c1", Status: domain.CompetitionActive})

	first := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	transitioned, err := store.MarkCompleted(ctx, "c1", first)
	if err != nil || !transitioned {
		t.Fatalf("expected first transition to win, got transitioned=%v err=%v", transitioned, err)
	}

	transitioned, err = store.MarkCompleted(ctx, "c1", first.Add(time.Minute))
	if err != nil || transitioned {
		t.Fatalf("expected second transition to be a no-op, got transitioned=%v err=%v", transitioned, err)
	}

	competition, _ := store.GetCompetition(ctx, "c1")
	if !competition.EndTime.Equal(first) {
		t.Fatalf("end time overwritten: %v", competition.EndTime)
	}
}

func TestCreateParticipantUnique(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	p := domain.Participant{CompetitionID: "c1", UserID: "u1", Status: domain.ParticipantJoined}
	if err := store.CreateParticipant(ctx, p); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := store.CreateParticipant(ctx, p); err != domain.ErrAlreadyJoined {
		t.Fatalf("expected already joined, got %v", err)
	}
}

func TestUpdateCompletionMissingParticipant(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	err := store.UpdateCompletion(ctx, domain.Participant{CompetitionID: "c1", UserID: "ghost"})
	if err != domain.ErrParticipantNotFound {
		t.Fatalf("expected participant not found, got %v", err)
	}
}

func TestUpdateRankPerRow(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	_ = store.CreateParticipant(ctx, domain.Participant{CompetitionID: "c1", UserID: "u1", Status: domain.ParticipantJoined})

	if err := store.UpdateRank(ctx, "c1", app.RankAssignment{UserID: "u1", Rank: 1}); err != nil {
		t.Fatalf("update rank: %v", err)
	}
	p, _ := store.GetParticipant(ctx, "c1", "u1")
	if p.Rank != 1 || p.FinalRank != 1 {
		t.Fatalf("expected rank 1, got %+v", p)
	}

	if err := store.UpdateRank(ctx, "c1", app.RankAssignment{UserID: "ghost", Rank: 2}); err != domain.ErrParticipantNotFound {
		t.Fatalf("expected participant not found for unknown user, got %v", err)
	}
}

func TestUpsertResultReplaces(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	first := domain.Result{CompetitionID: "c1", UserID: "u1", FinalRank: 2, Score: 5}
	if err := store.UpsertResult(ctx, first); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	second := first
	second.FinalRank = 1
	if err := store.UpsertResult(ctx, second); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	results, _ := store.ListResults(ctx, "c1")
	if len(results) != 1 {
		t.Fatalf("expected single row after re-upsert, got %d", len(results))
	}
	if results[0].FinalRank != 1 {
		t.Fatalf("expected latest values, got %+v", results[0])
	}
}

func TestQuestionSetCacheServesFromCache(t *testing.T) {
	ctx := context.Background()
	loader := &countingLoader{set: domain.QuestionSet{ID: "quiz-1", Questions: []domain.Question{{ID: "q1"}}}}
	cache := NewQuestionSetCache(loader, time.Minute)

	for i := 0; i < 3; i++ {
		set, err := cache.GetQuestionSet(ctx, "quiz-1")
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if len(set.Questions) != 1 {
			t.Fatalf("unexpected set %+v", set)
		}
	}
	if loader.calls != 1 {
		t.Fatalf("expected one loader call, got %d", loader.calls)
	}
}

type countingLoader struct {
	set   domain.QuestionSet
	calls int
}

func (l *countingLoader) LoadQuestionSet(_ context.Context, quizID string) (domain.QuestionSet, error) {
	l.calls++
	if quizID != l.set.ID {
		return domain.QuestionSet{}, domain.ErrQuestionSetNotFound
	}
	return l.set, nil
}
