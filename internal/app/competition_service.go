package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"quiz-competition-service/internal/domain"
)

// CompetitionStore reads competitions and performs the guarded terminal
// status transition.
type CompetitionStore interface {
	GetCompetition(ctx context.Context, competitionID string) (domain.Competition, error)
	// MarkCompleted flips status to completed and sets end_time, but only
	// when the competition is not already completed. Reports whether this
	// call performed the transition. Under concurrent finalization exactly
	// one caller wins, so end_time is the earliest winner's timestamp.
	MarkCompleted(ctx context.Context, competitionID string, endTime time.Time) (bool, error)
}

// RankAssignment carries one participant's recomputed rank back to storage.
type RankAssignment struct {
	UserID string
	Rank   int
}

// ParticipantStore manages enrollment rows keyed on (competition, user).
type ParticipantStore interface {
	GetParticipant(ctx context.Context, competitionID, userID string) (domain.Participant, error)
	ListParticipants(ctx context.Context, competitionID string) ([]domain.Participant, error)
	CreateParticipant(ctx context.Context, p domain.Participant) error
	UpdateCompletion(ctx context.Context, p domain.Participant) error
	UpdateRank(ctx context.Context, competitionID string, assignment RankAssignment) error
}

// ResultStore persists the durable per-participant summaries.
type ResultStore interface {
	UpsertResult(ctx context.Context, r domain.Result) error
	ListResults(ctx context.Context, competitionID string) ([]domain.Result, error)
}

// QuestionSetProvider loads competition question content (from cache or the
// backing store).
type QuestionSetProvider interface {
	GetQuestionSet(ctx context.Context, quizID string) (domain.QuestionSet, error)
}

// CompetitionService contains the competition finalization use cases.
type CompetitionService struct {
	competitions CompetitionStore
	participants ParticipantStore
	results      ResultStore
	questions    QuestionSetProvider
	feed         *Feed
	now          func() time.Time
}

func NewCompetitionService(competitions CompetitionStore, participants ParticipantStore, results ResultStore, questions QuestionSetProvider) *CompetitionService {
	return &CompetitionService{
		competitions: competitions,
		participants: participants,
		results:      results,
		questions:    questions,
		feed:         NewFeed(),
		now:          time.Now,
	}
}

// WithClock is test-only for deterministic timestamps.
func (s *CompetitionService) WithClock(now func() time.Time) *CompetitionService {
	s.now = now
	return s
}

// CompletionRequest is the submission a client sends when a participant
// finishes their quiz.
type CompletionRequest struct {
	CompetitionID    string
	UserID           string
	Score            int
	CorrectAnswers   int
	TimeTakenSeconds int
	Answers          map[string]string
}

// CompletionResponse reports competition progress after one completion.
type CompletionResponse struct {
	Success               bool   `json:"success"`
	CompetitionCompleted  bool   `json:"competitionCompleted"`
	TotalParticipants     int    `json:"totalParticipants"`
	CompletedParticipants int    `json:"completedParticipants"`
	Message               string `json:"message"`
}

// ResultOutcome is one row of a finalization batch: which participant's
// result was written, and the error if the upsert failed.
type ResultOutcome struct {
	UserID string
	Err    error
}

// JoinCompetition enrolls a user. The (competition, user) row is created
// exactly once; rejoining is an error rather than a reset.
func (s *CompetitionService) JoinCompetition(ctx context.Context, competitionID, userID, username string) (domain.Participant, error) {
	if competitionID == "" || userID == "" {
		return domain.Participant{}, fmt.Errorf("%w: competition id and user id are required", domain.ErrInvalidRequest)
	}
	if _, err := s.competitions.GetCompetition(ctx, competitionID); err != nil {
		return domain.Participant{}, err
	}

	participant := domain.Participant{
		CompetitionID: competitionID,
		UserID:        userID,
		Username:      username,
		Status:        domain.ParticipantJoined,
		JoinedAt:      s.now(),
	}
	if err := s.participants.CreateParticipant(ctx, participant); err != nil {
		return domain.Participant{}, err
	}
	return participant, nil
}

// CompleteParticipant records one participant's submission and runs the
// finalization pipeline: update the row, recompute ranks over the roster,
// detect full completion, and persist result rows once everyone is done.
//
// Concurrent calls from participants finishing near-simultaneously may
// redundantly recompute ranks and results; both recomputations are pure
// functions of durable state and converge to the same values. The status
// transition itself is guarded so only one caller sets end_time.
func (s *CompetitionService) CompleteParticipant(ctx context.Context, req CompletionRequest) (CompletionResponse, error) {
	if req.CompetitionID == "" || req.UserID == "" {
		return CompletionResponse{}, fmt.Errorf("%w: competition id and user id are required", domain.ErrInvalidRequest)
	}

	competition, err := s.competitions.GetCompetition(ctx, req.CompetitionID)
	if err != nil {
		return CompletionResponse{}, err
	}

	participant, err := s.participants.GetParticipant(ctx, req.CompetitionID, req.UserID)
	if err != nil {
		return CompletionResponse{}, err
	}

	now := s.now()
	participant.Status = domain.ParticipantCompleted
	participant.Score = req.Score
	participant.CorrectAnswers = req.CorrectAnswers
	participant.TimeTakenSeconds = req.TimeTakenSeconds
	participant.Answers = req.Answers
	// Distinct question identifiers in the answer map; resubmitting the same
	// map yields the same count.
	participant.QuestionsAnswered = len(req.Answers)
	if participant.CompletedAt.IsZero() {
		participant.CompletedAt = now
	}
	if err := s.participants.UpdateCompletion(ctx, participant); err != nil {
		return CompletionResponse{}, fmt.Errorf("update participant: %w", err)
	}

	roster, err := s.participants.ListParticipants(ctx, req.CompetitionID)
	if err != nil {
		return CompletionResponse{}, fmt.Errorf("list participants: %w", err)
	}

	ranked, allCompleted := rankParticipants(roster)
	// Ranks are written row by row. The triggering participant's own row is
	// fatal on failure; rewrites of other participants' rows are not, since a
	// concurrent completion will recompute the same values.
	for _, p := range ranked {
		assignment := RankAssignment{UserID: p.UserID, Rank: p.Rank}
		if err := s.participants.UpdateRank(ctx, req.CompetitionID, assignment); err != nil {
			if p.UserID == req.UserID {
				return CompletionResponse{}, fmt.Errorf("update rank: %w", err)
			}
			log.Printf("update rank for %s/%s: %v", req.CompetitionID, p.UserID, err)
		}
	}

	competitionCompleted := competition.Status == domain.CompetitionCompleted
	if allCompleted {
		transitioned, err := s.competitions.MarkCompleted(ctx, req.CompetitionID, now)
		if err != nil {
			log.Printf("mark competition %s completed: %v", req.CompetitionID, err)
		} else {
			competitionCompleted = true
			if transitioned {
				competition.EndTime = now
			}
		}

		if competitionCompleted {
			outcomes, err := s.persistResults(ctx, competition, ranked)
			if err != nil {
				log.Printf("persist results for %s: %v", req.CompetitionID, err)
			}
			for _, outcome := range outcomes {
				if outcome.Err != nil {
					log.Printf("persist result for %s/%s: %v", req.CompetitionID, outcome.UserID, outcome.Err)
				}
			}
		}
	}

	update := domain.CompletionUpdate{
		CompetitionID:         req.CompetitionID,
		CompletedParticipants: len(ranked),
		TotalParticipants:     len(roster),
		CompetitionCompleted:  competitionCompleted,
		Standings:             standings(ranked),
		UpdatedAt:             now,
	}
	s.feed.Publish(update)

	message := fmt.Sprintf("%d of %d participants completed", len(ranked), len(roster))
	if competitionCompleted {
		message = "competition completed"
	}
	return CompletionResponse{
		Success:               true,
		CompetitionCompleted:  competitionCompleted,
		TotalParticipants:     len(roster),
		CompletedParticipants: len(ranked),
		Message:               message,
	}, nil
}

// persistResults upserts one result row per completed participant. Rows are
// independent: one failed upsert is reported in its outcome and does not
// abort the rest of the batch. A question-set load failure aborts the whole
// batch instead: the set is the denominator for every row's metrics, and
// writing zero-denominator rows would persist wrong values. The competition
// is already durably completed at this point, so a retried completion call
// re-enters this path and persists the results then.
func (s *CompetitionService) persistResults(ctx context.Context, competition domain.Competition, ranked []domain.Participant) ([]ResultOutcome, error) {
	questionSet, err := s.questions.GetQuestionSet(ctx, competition.QuizID)
	if err != nil {
		return nil, fmt.Errorf("load question set %s: %w", competition.QuizID, err)
	}
	totalQuestions := len(questionSet.Questions)

	outcomes := make([]ResultOutcome, 0, len(ranked))
	for _, p := range ranked {
		metrics := computeMetrics(totalQuestions, p.QuestionsAnswered, p.CorrectAnswers, p.Score, p.TimeTakenSeconds, p.FinalRank, len(ranked))
		result := domain.Result{
			CompetitionID:          competition.ID,
			UserID:                 p.UserID,
			Username:               p.Username,
			FinalRank:              p.FinalRank,
			TotalParticipants:      len(ranked),
			Score:                  p.Score,
			CorrectAnswers:         p.CorrectAnswers,
			IncorrectAnswers:       metrics.IncorrectAnswers,
			SkippedAnswers:         metrics.SkippedAnswers,
			TotalQuestions:         totalQuestions,
			TimeTakenSeconds:       p.TimeTakenSeconds,
			AverageTimePerQuestion: metrics.AverageTimePerQuestion,
			PercentageScore:        metrics.PercentageScore,
			AccuracyRate:           metrics.AccuracyRate,
			RankPercentile:         metrics.RankPercentile,
			Answers:                p.Answers,
			Questions:              questionSet.Questions,
			CompetitionDate:        competition.StartTime,
			JoinedAt:               p.JoinedAt,
			StartedAt:              competition.StartTime,
			CompletedAt:            p.CompletedAt,
		}
		outcomes = append(outcomes, ResultOutcome{UserID: p.UserID, Err: s.results.UpsertResult(ctx, result)})
	}
	return outcomes, nil
}

// Standings returns the current ranked view of completed participants.
func (s *CompetitionService) Standings(ctx context.Context, competitionID string) (domain.CompletionUpdate, error) {
	if competitionID == "" {
		return domain.CompletionUpdate{}, fmt.Errorf("%w: competition id is required", domain.ErrInvalidRequest)
	}
	competition, err := s.competitions.GetCompetition(ctx, competitionID)
	if err != nil {
		return domain.CompletionUpdate{}, err
	}
	roster, err := s.participants.ListParticipants(ctx, competitionID)
	if err != nil {
		return domain.CompletionUpdate{}, fmt.Errorf("list participants: %w", err)
	}
	ranked, _ := rankParticipants(roster)
	return domain.CompletionUpdate{
		CompetitionID:         competitionID,
		CompletedParticipants: len(ranked),
		TotalParticipants:     len(roster),
		CompetitionCompleted:  competition.Status == domain.CompetitionCompleted,
		Standings:             standings(ranked),
		UpdatedAt:             s.now(),
	}, nil
}

// Results returns the durable result rows for a finalized competition,
// ordered by final rank.
func (s *CompetitionService) Results(ctx context.Context, competitionID string) ([]domain.Result, error) {
	if competitionID == "" {
		return nil, fmt.Errorf("%w: competition id is required", domain.ErrInvalidRequest)
	}
	if _, err := s.competitions.GetCompetition(ctx, competitionID); err != nil {
		return nil, err
	}
	return s.results.ListResults(ctx, competitionID)
}

// Subscribe returns a channel that receives completion updates for a
// competition. The caller must invoke the returned cancel function.
func (s *CompetitionService) Subscribe(ctx context.Context, competitionID string) (<-chan domain.CompletionUpdate, func(), error) {
	if competitionID == "" {
		return nil, nil, fmt.Errorf("%w: competition id is required", domain.ErrInvalidRequest)
	}
	initial, err := s.Standings(ctx, competitionID)
	if err != nil {
		return nil, nil, err
	}
	ch, cancel := s.feed.Subscribe(competitionID)
	ch <- initial
	return ch, cancel, nil
}

// IsNotFound reports whether err maps to a missing competition or participant.
func IsNotFound(err error) bool {
	return errors.Is(err, domain.ErrCompetitionNotFound) || errors.Is(err, domain.ErrParticipantNotFound)
}
