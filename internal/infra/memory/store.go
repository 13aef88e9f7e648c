package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"quiz-competition-service/internal/app"
	"quiz-competition-service/internal/domain"
)

// Store is a mutex-guarded in-memory implementation of the app store
// interfaces, used in tests and when running without Postgres.
type Store struct {
	mu           sync.RWMutex
	competitions map[string]domain.Competition
	participants map[string]map[string]domain.Participant
	results      map[string]map[string]domain.Result
}

func NewStore() *Store {
	return &Store{
		competitions: make(map[string]domain.Competition),
		participants: make(map[string]map[string]domain.Participant),
		results:      make(map[string]map[string]domain.Result),
	}
}

// SeedCompetition inserts or replaces a competition row (tests/demos).
func (s *Store) SeedCompetition(c domain.Competition) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.competitions[c.ID] = c
}

func (s *Store) GetCompetition(_ context.Context, competitionID string) (domain.Competition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	competition, ok := s.competitions[competitionID]
	if !ok {
		return domain.Competition{}, domain.ErrCompetitionNotFound
	}
	return competition, nil
}

func (s *Store) MarkCompleted(_ context.Context, competitionID string, endTime time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	competition, ok := s.competitions[competitionID]
	if !ok {
		return false, domain.ErrCompetitionNotFound
	}
	if competition.Status == domain.CompetitionCompleted {
		return false, nil
	}
	competition.Status = domain.CompetitionCompleted
	competition.EndTime = endTime
	s.competitions[competitionID] = competition
	return true, nil
}

func (s *Store) GetParticipant(_ context.Context, competitionID, userID string) (domain.Participant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	participant, ok := s.participants[competitionID][userID]
	if !ok {
		return domain.Participant{}, domain.ErrParticipantNotFound
	}
	return participant, nil
}

func (s *Store) ListParticipants(_ context.Context, competitionID string) ([]domain.Participant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	roster := make([]domain.Participant, 0, len(s.participants[competitionID]))
	for _, participant := range s.participants[competitionID] {
		roster = append(roster, participant)
	}
	sort.Slice(roster, func(i, j int) bool { return roster[i].UserID < roster[j].UserID })
	return roster, nil
}

func (s *Store) CreateParticipant(_ context.Context, p domain.Participant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.participants[p.CompetitionID]; !ok {
		s.participants[p.CompetitionID] = make(map[string]domain.Participant)
	}
	if _, ok := s.participants[p.CompetitionID][p.UserID]; ok {
		return domain.ErrAlreadyJoined
	}
	s.participants[p.CompetitionID][p.UserID] = p
	return nil
}

func (s *Store) UpdateCompletion(_ context.Context, p domain.Participant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.participants[p.CompetitionID][p.UserID]
	if !ok {
		return domain.ErrParticipantNotFound
	}
	existing.Status = p.Status
	existing.Score = p.Score
	existing.CorrectAnswers = p.CorrectAnswers
	existing.QuestionsAnswered = p.QuestionsAnswered
	existing.TimeTakenSeconds = p.TimeTakenSeconds
	existing.Answers = p.Answers
	existing.CompletedAt = p.CompletedAt
	s.participants[p.CompetitionID][p.UserID] = existing
	return nil
}

func (s *Store) UpdateRank(_ context.Context, competitionID string, assignment app.RankAssignment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	participant, ok := s.participants[competitionID][assignment.UserID]
	if !ok {
		return domain.ErrParticipantNotFound
	}
	participant.Rank = assignment.Rank
	participant.FinalRank = assignment.Rank
	s.participants[competitionID][assignment.UserID] = participant
	return nil
}

func (s *Store) UpsertResult(_ context.Context, r domain.Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.results[r.CompetitionID]; !ok {
		s.results[r.CompetitionID] = make(map[string]domain.Result)
	}
	s.results[r.CompetitionID][r.UserID] = r
	return nil
}

func (s *Store) ListResults(_ context.Context, competitionID string) ([]domain.Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	results := make([]domain.Result, 0, len(s.results[competitionID]))
	for _, result := range s.results[competitionID] {
		results = append(results, result)
	}
	sort.Slice(results, func(i, j int) bool { return results[i].FinalRank < results[j].FinalRank })
	return results, nil
}
