package redis

import (
	"context"
	"testing"
	"time"

	"quiz-competition-service/internal/domain"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestQuestionSetCacheFillsRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	loader := &countingLoader{set: sampleSet()}
	cache := NewQuestionSetCache(client, loader, time.Minute)

	ctx := context.Background()
	set, err := cache.GetQuestionSet(ctx, "quiz-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(set.Questions) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(set.Questions))
	}
	if !mr.Exists("quiz:quiz-1:questions") {
		t.Fatalf("expected redis key to be filled")
	}

	// Second read must come from the cache, not the loader.
	if _, err := cache.GetQuestionSet(ctx, "quiz-1"); err != nil {
		t.Fatalf("cached get: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected one loader call, got %d", loader.calls)
	}
}

func TestQuestionSetCacheMissPropagates(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache := NewQuestionSetCache(client, &countingLoader{set: sampleSet()}, time.Minute)

	if _, err := cache.GetQuestionSet(context.Background(), "quiz-unknown"); err != domain.ErrQuestionSetNotFound {
		t.Fatalf("expected question set not found, got %v", err)
	}
}

func TestQuestionSetCacheRecoversFromCorruptEntry(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	if err := mr.Set("quiz:quiz-1:questions", "not json"); err != nil {
		t.Fatalf("seed corrupt entry: %v", err)
	}

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	loader := &countingLoader{set: sampleSet()}
	cache := NewQuestionSetCache(client, loader, time.Minute)

	set, err := cache.GetQuestionSet(context.Background(), "quiz-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(set.Questions) != 2 || loader.calls != 1 {
		t.Fatalf("expected loader fallback, got %d questions after %d calls", len(set.Questions), loader.calls)
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

func sampleSet() domain.QuestionSet {
	return domain.QuestionSet{
		ID: "quiz-1",
		Questions: []domain.Question{
			{ID: "q1", Prompt: "What is 2 + 2?"},
			{ID: "q2", Prompt: "What is 3 + 3?"},
		},
	}
}
