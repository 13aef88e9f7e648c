package domain

import "errors"

var (
	// ErrInvalidRequest is returned when required request fields are missing;
	// nothing has been mutated when it surfaces.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrCompetitionNotFound indicates the competition does not exist.
	ErrCompetitionNotFound = errors.New("competition not found")
	// ErrParticipantNotFound is returned when a user tries to complete a
	// competition they never joined.
	ErrParticipantNotFound = errors.New("participant not found in competition")
	// ErrAlreadyJoined indicates a duplicate (competition, user) enrollment.
	ErrAlreadyJoined = errors.New("participant already joined")
	// ErrQuestionSetNotFound indicates the question content could not be loaded.
	ErrQuestionSetNotFound = errors.New("question set not found")
)
