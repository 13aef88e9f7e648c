package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"quiz-competition-service/internal/app"

	"github.com/gorilla/websocket"
)

func TestWebSocketStandingsFlow(t *testing.T) {
	service := newTestService(t)
	wsHandler := NewWSHandler(service)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", wsHandler.ServeWS)
	server := httptest.NewServer(mux)
	defer server.Close()

	ctx := context.Background()
	if _, err := service.JoinCompetition(ctx, "comp-1", "u1", "Alice"); err != nil {
		t.Fatalf("join: %v", err)
	}

	u := "ws" + server.URL[len("http"):] + "/ws?competitionId=comp-1"
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	// Initial snapshot first.
	typ, payload := readNext(conn, t)
	if typ != "standings" {
		t.Fatalf("expected standings snapshot, got %s", typ)
	}
	if payload["totalParticipants"].(float64) != 1 {
		t.Fatalf("expected 1 participant in snapshot, got %+v", payload)
	}

	if _, err := service.CompleteParticipant(ctx, app.CompletionRequest{
		CompetitionID:    "comp-1",
		UserID:           "u1",
		Score:            2,
		CorrectAnswers:   2,
		TimeTakenSeconds: 30,
		Answers:          map[string]string{"q1": "o2", "q2": "o2"},
	}); err != nil {
		t.Fatalf("complete: %v", err)
	}

	typ, payload = readNext(conn, t)
	if typ != "standings" {
		t.Fatalf("expected standings update, got %s", typ)
	}
	if payload["competitionCompleted"].(bool) != true {
		t.Fatalf("expected completed competition update, got %+v", payload)
	}
}

func TestWebSocketRequiresCompetitionID(t *testing.T) {
	service := newTestService(t)
	wsHandler := NewWSHandler(service)

	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	rec := httptest.NewRecorder()
	wsHandler.ServeWS(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without competitionId, got %d", rec.Code)
	}
}

func readNext(conn *websocket.Conn, t *testing.T) (string, map[string]any) {
	t.Helper()
	var msg struct {
		Type    string         `json:"type"`
		Payload map[string]any `json:"payload"`
	}
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read message: %v", err)
	}
	return msg.Type, msg.Payload
}
