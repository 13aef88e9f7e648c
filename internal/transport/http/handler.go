package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"quiz-competition-service/internal/app"
	"quiz-competition-service/internal/domain"
)

// Handler exposes the competition use cases over JSON HTTP.
type Handler struct {
	service *app.CompetitionService
}

func NewHandler(service *app.CompetitionService) *Handler {
	return &Handler{service: service}
}

// Register wires routes onto the mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /competitions/{id}/join", h.handleJoin)
	mux.HandleFunc("POST /competitions/{id}/participants/{userID}/complete", h.handleComplete)
	mux.HandleFunc("GET /competitions/{id}/standings", h.handleStandings)
	mux.HandleFunc("GET /competitions/{id}/results", h.handleResults)
}

type joinRequest struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
}

type completeRequest struct {
	Score            int               `json:"score"`
	CorrectAnswers   int               `json:"correctAnswers"`
	TimeTakenSeconds int               `json:"timeTakenSeconds"`
	Answers          map[string]string `json:"answers"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *Handler) handleJoin(w http.ResponseWriter, r *http.Request) {
	var req joinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	participant, err := h.service.JoinCompetition(r.Context(), r.PathValue("id"), req.UserID, req.Username)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, participant)
}

func (h *Handler) handleComplete(w http.ResponseWriter, r *http.Request) {
	var req completeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	resp, err := h.service.CompleteParticipant(r.Context(), app.CompletionRequest{
		CompetitionID:    r.PathValue("id"),
		UserID:           r.PathValue("userID"),
		Score:            req.Score,
		CorrectAnswers:   req.CorrectAnswers,
		TimeTakenSeconds: req.TimeTakenSeconds,
		Answers:          req.Answers,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleStandings(w http.ResponseWriter, r *http.Request) {
	update, err := h.service.Standings(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, update)
}

func (h *Handler) handleResults(w http.ResponseWriter, r *http.Request) {
	results, err := h.service.Results(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}

// writeError maps domain errors onto HTTP statuses: invalid request 400,
// missing competition/participant 404, duplicate join 409, everything else
// 500 with the underlying detail.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrInvalidRequest):
		status = http.StatusBadRequest
	case app.IsNotFound(err):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrAlreadyJoined):
		status = http.StatusConflict
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("write response: %v", err)
	}
}
