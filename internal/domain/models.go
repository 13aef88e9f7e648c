package domain

import "time"

// Competition statuses. The status only ever moves forward; a completed
// competition never reverts to waiting or active.
const (
	CompetitionWaiting   = "waiting"
	CompetitionActive    = "active"
	CompetitionCompleted = "completed"
)

// Competition types.
const (
	CompetitionPrivate = "private"
	CompetitionRandom  = "random"
)

// Participant statuses. joined -> completed is the only transition.
const (
	ParticipantJoined    = "joined"
	ParticipantCompleted = "completed"
)

// Competition is a multiplayer quiz session with a fixed question set and a
// participant roster. QuizID points at the question set served by the
// content provider.
type Competition struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Type      string    `json:"type"`
	Status    string    `json:"status"`
	QuizID    string    `json:"quizId"`
	StartTime time.Time `json:"startTime"`
	EndTime   time.Time `json:"endTime,omitempty"`
}

// Participant is one user's enrollment and outcome record within a single
// competition. (CompetitionID, UserID) is unique. Rank and FinalRank are
// assigned only after the participant completes.
type Participant struct {
	CompetitionID     string            `json:"competitionId"`
	UserID            string            `json:"userId"`
	Username          string            `json:"username"`
	Status            string            `json:"status"`
	Score             int               `json:"score"`
	CorrectAnswers    int               `json:"correctAnswers"`
	QuestionsAnswered int               `json:"questionsAnswered"`
	TimeTakenSeconds  int               `json:"timeTakenSeconds"`
	Answers           map[string]string `json:"answers,omitempty"`
	Rank              int               `json:"rank,omitempty"`
	FinalRank         int               `json:"finalRank,omitempty"`
	JoinedAt          time.Time         `json:"joinedAt"`
	CompletedAt       time.Time         `json:"completedAt,omitempty"`
}

// Completed reports whether the participant has submitted their quiz.
func (p Participant) Completed() bool {
	return p.Status == ParticipantCompleted
}

// Result is the durable per-participant summary produced once a competition
// finalizes. One row per (CompetitionID, UserID); later finalization passes
// overwrite it with recomputed values.
type Result struct {
	CompetitionID          string            `json:"competitionId"`
	UserID                 string            `json:"userId"`
	Username               string            `json:"username"`
	FinalRank              int               `json:"finalRank"`
	TotalParticipants      int               `json:"totalParticipants"`
	Score                  int               `json:"score"`
	CorrectAnswers         int               `json:"correctAnswers"`
	IncorrectAnswers       int               `json:"incorrectAnswers"`
	SkippedAnswers         int               `json:"skippedAnswers"`
	TotalQuestions         int               `json:"totalQuestions"`
	TimeTakenSeconds       int               `json:"timeTakenSeconds"`
	AverageTimePerQuestion float64           `json:"averageTimePerQuestion"`
	PercentageScore        float64           `json:"percentageScore"`
	AccuracyRate           float64           `json:"accuracyRate"`
	RankPercentile         float64           `json:"rankPercentile"`
	Answers                map[string]string `json:"answers,omitempty"`
	Questions              []Question        `json:"questions,omitempty"`
	CompetitionDate        time.Time         `json:"competitionDate"`
	JoinedAt               time.Time         `json:"joinedAt"`
	StartedAt              time.Time         `json:"startedAt"`
	CompletedAt            time.Time         `json:"completedAt"`
}

// Option represents a possible answer for a question.
type Option struct {
	ID      string `json:"id"`
	Text    string `json:"text"`
	Correct bool   `json:"correct"`
}

// Question models an MCQ question within a competition's question set.
type Question struct {
	ID      string   `json:"id"`
	Prompt  string   `json:"prompt"`
	Options []Option `json:"options,omitempty"`
}

// QuestionSet is the ordered question list served by the content provider.
// Finalization consumes only its length; the full set is snapshotted onto
// results for viewing clients.
type QuestionSet struct {
	ID        string     `json:"id"`
	Questions []Question `json:"questions"`
}

// StandingsEntry is a snapshot-friendly view of a completed participant.
type StandingsEntry struct {
	UserID           string `json:"userId"`
	Username         string `json:"username"`
	Rank             int    `json:"rank"`
	Score            int    `json:"score"`
	TimeTakenSeconds int    `json:"timeTakenSeconds"`
}

// CompletionUpdate captures competition progress after one participant
// finishes; it is broadcast to standings subscribers.
type CompletionUpdate struct {
	CompetitionID         string           `json:"competitionId"`
	CompletedParticipants int              `json:"completedParticipants"`
	TotalParticipants     int              `json:"totalParticipants"`
	CompetitionCompleted  bool             `json:"competitionCompleted"`
	Standings             []StandingsEntry `json:"standings"`
	UpdatedAt             time.Time        `json:"updatedAt"`
}
