package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"quiz-competition-service/internal/app"
	"quiz-competition-service/internal/domain"
	"quiz-competition-service/internal/infra/memory"
)

func TestCompleteEndpointFlow(t *testing.T) {
	server := newTestServer(t)
	defer server.Close()

	postJSON(t, server, "/competitions/comp-1/join", map[string]any{"userId": "u1", "username": "Alice"}, http.StatusCreated)
	postJSON(t, server, "/competitions/comp-1/join", map[string]any{"userId": "u2", "username": "Bob"}, http.StatusCreated)

	body := postJSON(t, server, "/competitions/comp-1/participants/u1/complete", map[string]any{
		"score":            2,
		"correctAnswers":   2,
		"timeTakenSeconds": 45,
		"answers":          map[string]string{"q1": "o2", "q2": "o2"},
	}, http.StatusOK)

	var resp app.CompletionResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if !resp.Success || resp.CompetitionCompleted {
		t.Fatalf("expected open competition, got %+v", resp)
	}
	if resp.CompletedParticipants != 1 || resp.TotalParticipants != 2 {
		t.Fatalf("expected 1/2, got %+v", resp)
	}
}

func TestCompleteEndpointStatusMapping(t *testing.T) {
	server := newTestServer(t)
	defer server.Close()

	// Unknown competition -> 404.
	postJSON(t, server, "/competitions/ghost/participants/u1/complete", map[string]any{}, http.StatusNotFound)

	// Joined user completing an unknown user -> 404 as well.
	postJSON(t, server, "/competitions/comp-1/participants/never-joined/complete", map[string]any{}, http.StatusNotFound)

	// Duplicate join -> 409.
	postJSON(t, server, "/competitions/comp-1/join", map[string]any{"userId": "u1"}, http.StatusCreated)
	postJSON(t, server, "/competitions/comp-1/join", map[string]any{"userId": "u1"}, http.StatusConflict)

	// Join with no user id -> 400.
	postJSON(t, server, "/competitions/comp-1/join", map[string]any{}, http.StatusBadRequest)
}

func TestResultsEndpoint(t *testing.T) {
	server := newTestServer(t)
	defer server.Close()

	postJSON(t, server, "/competitions/comp-1/join", map[string]any{"userId": "u1", "username": "Alice"}, http.StatusCreated)
	postJSON(t, server, "/competitions/comp-1/participants/u1/complete", map[string]any{
		"score":            2,
		"correctAnswers":   2,
		"timeTakenSeconds": 30,
		"answers":          map[string]string{"q1": "o2", "q2": "o2"},
	}, http.StatusOK)

	res, err := http.Get(server.URL + "/competitions/comp-1/results")
	if err != nil {
		t.Fatalf("get results: %v", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.StatusCode)
	}
	var results []domain.Result
	if err := json.NewDecoder(res.Body).Decode(&results); err != nil {
		t.Fatalf("decode results: %v", err)
	}
	if len(results) != 1 || results[0].FinalRank != 1 {
		t.Fatalf("expected one winning result, got %+v", results)
	}
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	service := newTestService(t)
	handler := NewHandler(service)
	wsHandler := NewWSHandler(service)

	mux := http.NewServeMux()
	handler.Register(mux)
	mux.HandleFunc("/ws", wsHandler.ServeWS)
	return httptest.NewServer(mux)
}

func newTestService(t *testing.T) *app.CompetitionService {
	t.Helper()
	store := memory.NewStore()
	store.SeedCompetition(domain.Competition{
		ID:        "comp-1",
		Title:     "Transport Test",
		Type:      domain.CompetitionPrivate,
		Status:    domain.CompetitionActive,
		QuizID:    "quiz-1",
		StartTime: time.Now(),
	})
	cache := memory.NewQuestionSetCache(memory.NewStaticQuestionSetLoader(map[string]domain.QuestionSet{
		"quiz-1": {ID: "quiz-1", Questions: []domain.Question{
			{ID: "q1", Prompt: "First"},
			{ID: "q2", Prompt: "Second"},
		}},
	}), time.Minute)
	return app.NewCompetitionService(store, store, store, cache)
}

func postJSON(t *testing.T, server *httptest.Server, path string, payload any, wantStatus int) []byte {
	t.Helper()
	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	res, err := http.Post(server.URL+path, "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("post %s: %v", path, err)
	}
	defer res.Body.Close()
	var body bytes.Buffer
	_, _ = body.ReadFrom(res.Body)
	if res.StatusCode != wantStatus {
		t.Fatalf("post %s: expected status %d, got %d (%s)", path, wantStatus, res.StatusCode, body.String())
	}
	return body.Bytes()
}
