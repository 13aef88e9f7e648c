package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"quiz-competition-service/internal/app"
	"quiz-competition-service/internal/domain"

	"github.com/uptrace/bun"
)

type competitionRow struct {
	bun.BaseModel `bun:"table:competitions"`

	ID        string    `bun:"id,pk"`
	Title     string    `bun:"title"`
	Type      string    `bun:"type"`
	Status    string    `bun:"status"`
	QuizID    string    `bun:"quiz_id"`
	StartTime time.Time `bun:"start_time,nullzero"`
	EndTime   time.Time `bun:"end_time,nullzero"`
}

type participantRow struct {
	bun.BaseModel `bun:"table:participants"`

	CompetitionID     string            `bun:"competition_id,pk"`
	UserID            string            `bun:"user_id,pk"`
	Username          string            `bun:"username"`
	Status            string            `bun:"status"`
	Score             int               `bun:"score"`
	CorrectAnswers    int               `bun:"correct_answers"`
	QuestionsAnswered int               `bun:"questions_answered"`
	TimeTakenSeconds  int               `bun:"time_taken_seconds"`
	Answers           map[string]string `bun:"answers,type:jsonb"`
	Rank              int               `bun:"rank"`
	FinalRank         int               `bun:"final_rank"`
	JoinedAt          time.Time         `bun:"joined_at"`
	CompletedAt       time.Time         `bun:"completed_at,nullzero"`
}

type resultRow struct {
	bun.BaseModel `bun:"table:results"`

	CompetitionID          string            `bun:"competition_id,pk"`
	UserID                 string            `bun:"user_id,pk"`
	Username               string            `bun:"username"`
	FinalRank              int               `bun:"final_rank"`
	TotalParticipants      int               `bun:"total_participants"`
	Score                  int               `bun:"score"`
	CorrectAnswers         int               `bun:"correct_answers"`
	IncorrectAnswers       int               `bun:"incorrect_answers"`
	SkippedAnswers         int               `bun:"skipped_answers"`
	TotalQuestions         int               `bun:"total_questions"`
	TimeTakenSeconds       int               `bun:"time_taken_seconds"`
	AverageTimePerQuestion float64           `bun:"average_time_per_question"`
	PercentageScore        float64           `bun:"percentage_score"`
	AccuracyRate           float64           `bun:"accuracy_rate"`
	RankPercentile         float64           `bun:"rank_percentile"`
	Answers                map[string]string `bun:"answers,type:jsonb"`
	Questions              []domain.Question `bun:"questions,type:jsonb"`
	CompetitionDate        time.Time         `bun:"competition_date,nullzero"`
	JoinedAt               time.Time         `bun:"joined_at,nullzero"`
	StartedAt              time.Time         `bun:"started_at,nullzero"`
	CompletedAt            time.Time         `bun:"completed_at,nullzero"`
}

// CompetitionStore is the bun-backed implementation of app.CompetitionStore.
type CompetitionStore struct {
	db *bun.DB
}

func NewCompetitionStore(db *bun.DB) *CompetitionStore {
	return &CompetitionStore{db: db}
}

func (s *CompetitionStore) GetCompetition(ctx context.Context, competitionID string) (domain.Competition, error) {
	row := new(competitionRow)
	err := s.db.NewSelect().Model(row).Where("id = ?", competitionID).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Competition{}, domain.ErrCompetitionNotFound
	}
	if err != nil {
		return domain.Competition{}, fmt.Errorf("get competition: %w", err)
	}
	return domain.Competition{
		ID:        row.ID,
		Title:     row.Title,
		Type:      row.Type,
		Status:    row.Status,
		QuizID:    row.QuizID,
		StartTime: row.StartTime,
		EndTime:   row.EndTime,
	}, nil
}

// MarkCompleted performs the guarded terminal transition: the WHERE clause
// excludes already-completed rows, so concurrent finalizers race on rows
// affected and only one sets end_time.
func (s *CompetitionStore) MarkCompleted(ctx context.Context, competitionID string, endTime time.Time) (bool, error) {
	res, err := s.db.NewUpdate().
		Model((*competitionRow)(nil)).
		Set("status = ?", domain.CompetitionCompleted).
		Set("end_time = ?", endTime).
		Where("id = ?", competitionID).
		Where("status <> ?", domain.CompetitionCompleted).
		Exec(ctx)
	if err != nil {
		return false, fmt.Errorf("mark competition completed: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// SeedCompetition inserts or replaces a competition row (tests/demos).
func (s *CompetitionStore) SeedCompetition(ctx context.Context, c domain.Competition) error {
	row := &competitionRow{
		ID:        c.ID,
		Title:     c.Title,
		Type:      c.Type,
		Status:    c.Status,
		QuizID:    c.QuizID,
		StartTime: c.StartTime,
		EndTime:   c.EndTime,
	}
	_, err := s.db.NewInsert().
		Model(row).
		On("CONFLICT (id) DO UPDATE").
		Set("title = EXCLUDED.title").
		Set("type = EXCLUDED.type").
		Set("status = EXCLUDED.status").
		Set("quiz_id = EXCLUDED.quiz_id").
		Set("start_time = EXCLUDED.start_time").
		Exec(ctx)
	return err
}

// ParticipantStore is the bun-backed implementation of app.ParticipantStore.
type ParticipantStore struct {
	db *bun.DB
}

func NewParticipantStore(db *bun.DB) *ParticipantStore {
	return &ParticipantStore{db: db}
}

func (s *ParticipantStore) GetParticipant(ctx context.Context, competitionID, userID string) (domain.Participant, error) {
	row := new(participantRow)
	err := s.db.NewSelect().
		Model(row).
		Where("competition_id = ?", competitionID).
		Where("user_id = ?", userID).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Participant{}, domain.ErrParticipantNotFound
	}
	if err != nil {
		return domain.Participant{}, fmt.Errorf("get participant: %w", err)
	}
	return participantFromRow(row), nil
}

func (s *ParticipantStore) ListParticipants(ctx context.Context, competitionID string) ([]domain.Participant, error) {
	var rows []participantRow
	err := s.db.NewSelect().
		Model(&rows).
		Where("competition_id = ?", competitionID).
		Order("user_id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	roster := make([]domain.Participant, 0, len(rows))
	for i := range rows {
		roster = append(roster, participantFromRow(&rows[i]))
	}
	return roster, nil
}

func (s *ParticipantStore) CreateParticipant(ctx context.Context, p domain.Participant) error {
	row := &participantRow{
		CompetitionID: p.CompetitionID,
		UserID:        p.UserID,
		Username:      p.Username,
		Status:        p.Status,
		JoinedAt:      p.JoinedAt,
	}
	res, err := s.db.NewInsert().
		Model(row).
		On("CONFLICT (competition_id, user_id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("create participant: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrAlreadyJoined
	}
	return nil
}

func (s *ParticipantStore) UpdateCompletion(ctx context.Context, p domain.Participant) error {
	row := &participantRow{
		CompetitionID:     p.CompetitionID,
		UserID:            p.UserID,
		Status:            p.Status,
		Score:             p.Score,
		CorrectAnswers:    p.CorrectAnswers,
		QuestionsAnswered: p.QuestionsAnswered,
		TimeTakenSeconds:  p.TimeTakenSeconds,
		Answers:           p.Answers,
		CompletedAt:       p.CompletedAt,
	}
	res, err := s.db.NewUpdate().
		Model(row).
		Column("status", "score", "correct_answers", "questions_answered", "time_taken_seconds", "answers", "completed_at").
		WherePK().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("update completion: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrParticipantNotFound
	}
	return nil
}

func (s *ParticipantStore) UpdateRank(ctx context.Context, competitionID string, assignment app.RankAssignment) error {
	res, err := s.db.NewUpdate().
		Model((*participantRow)(nil)).
		Set("rank = ?", assignment.Rank).
		Set("final_rank = ?", assignment.Rank).
		Where("competition_id = ?", competitionID).
		Where("user_id = ?", assignment.UserID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("update rank for %s: %w", assignment.UserID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrParticipantNotFound
	}
	return nil
}

func participantFromRow(row *participantRow) domain.Participant {
	return domain.Participant{
		CompetitionID:     row.CompetitionID,
		UserID:            row.UserID,
		Username:          row.Username,
		Status:            row.Status,
		Score:             row.Score,
		CorrectAnswers:    row.CorrectAnswers,
		QuestionsAnswered: row.QuestionsAnswered,
		TimeTakenSeconds:  row.TimeTakenSeconds,
		Answers:           row.Answers,
		Rank:              row.Rank,
		FinalRank:         row.FinalRank,
		JoinedAt:          row.JoinedAt,
		CompletedAt:       row.CompletedAt,
	}
}

// ResultStore is the bun-backed implementation of app.ResultStore.
type ResultStore struct {
	db *bun.DB
}

func NewResultStore(db *bun.DB) *ResultStore {
	return &ResultStore{db: db}
}

// UpsertResult inserts or replaces the result row for one (competition,
// user). Re-running finalization overwrites with recomputed values instead
// of creating duplicates.
func (s *ResultStore) UpsertResult(ctx context.Context, r domain.Result) error {
	row := resultRowFromDomain(r)
	_, err := s.db.NewInsert().
		Model(row).
		On("CONFLICT (competition_id, user_id) DO UPDATE").
		Set("username = EXCLUDED.username").
		Set("final_rank = EXCLUDED.final_rank").
		Set("total_participants = EXCLUDED.total_participants").
		Set("score = EXCLUDED.score").
		Set("correct_answers = EXCLUDED.correct_answers").
		Set("incorrect_answers = EXCLUDED.incorrect_answers").
		Set("skipped_answers = EXCLUDED.skipped_answers").
		Set("total_questions = EXCLUDED.total_questions").
		Set("time_taken_seconds = EXCLUDED.time_taken_seconds").
		Set("average_time_per_question = EXCLUDED.average_time_per_question").
		Set("percentage_score = EXCLUDED.percentage_score").
		Set("accuracy_rate = EXCLUDED.accuracy_rate").
		Set("rank_percentile = EXCLUDED.rank_percentile").
		Set("answers = EXCLUDED.answers").
		Set("questions = EXCLUDED.questions").
		Set("competition_date = EXCLUDED.competition_date").
		Set("joined_at = EXCLUDED.joined_at").
		Set("started_at = EXCLUDED.started_at").
		Set("completed_at = EXCLUDED.completed_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("upsert result: %w", err)
	}
	return nil
}

func (s *ResultStore) ListResults(ctx context.Context, competitionID string) ([]domain.Result, error) {
	var rows []resultRow
	err := s.db.NewSelect().
		Model(&rows).
		Where("competition_id = ?", competitionID).
		Order("final_rank ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	results := make([]domain.Result, 0, len(rows))
	for i := range rows {
		results = append(results, resultFromRow(&rows[i]))
	}
	return results, nil
}

func resultRowFromDomain(r domain.Result) *resultRow {
	return &resultRow{
		CompetitionID:          r.CompetitionID,
		UserID:                 r.UserID,
		Username:               r.Username,
		FinalRank:              r.FinalRank,
		TotalParticipants:      r.TotalParticipants,
		Score:                  r.Score,
		CorrectAnswers:         r.CorrectAnswers,
		IncorrectAnswers:       r.IncorrectAnswers,
		SkippedAnswers:         r.SkippedAnswers,
		TotalQuestions:         r.TotalQuestions,
		TimeTakenSeconds:       r.TimeTakenSeconds,
		AverageTimePerQuestion: r.AverageTimePerQuestion,
		PercentageScore:        r.PercentageScore,
		AccuracyRate:           r.AccuracyRate,
		RankPercentile:         r.RankPercentile,
		Answers:                r.Answers,
		Questions:              r.Questions,
		CompetitionDate:        r.CompetitionDate,
		JoinedAt:               r.JoinedAt,
		StartedAt:              r.StartedAt,
		CompletedAt:            r.CompletedAt,
	}
}

func resultFromRow(row *resultRow) domain.Result {
	return domain.Result{
		CompetitionID:          row.CompetitionID,
		UserID:                 row.UserID,
		Username:               row.Username,
		FinalRank:              row.FinalRank,
		TotalParticipants:      row.TotalParticipants,
		Score:                  row.Score,
		CorrectAnswers:         row.CorrectAnswers,
		IncorrectAnswers:       row.IncorrectAnswers,
		SkippedAnswers:         row.SkippedAnswers,
		TotalQuestions:         row.TotalQuestions,
		TimeTakenSeconds:       row.TimeTakenSeconds,
		AverageTimePerQuestion: row.AverageTimePerQuestion,
		PercentageScore:        row.PercentageScore,
		AccuracyRate:           row.AccuracyRate,
		RankPercentile:         row.RankPercentile,
		Answers:                row.Answers,
		Questions:              row.Questions,
		CompetitionDate:        row.CompetitionDate,
		JoinedAt:               row.JoinedAt,
		StartedAt:              row.StartedAt,
		CompletedAt:            row.CompletedAt,
	}
}
