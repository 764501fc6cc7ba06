package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/askumar/violincoach/internal/store"
)

// createSession stores a practice session directly.
func createSession(t *testing.T, s *store.Store, id string) {
	t.Helper()

	if err := s.Sessions().Create(&store.PracticeSession{
		ID:        id,
		PieceName: "Twinkle Twinkle Little Star",
	}); err != nil {
		t.Fatalf("failed to create session: %v", err)
	}
}

func TestSessionsHandler_List(t *testing.T) {
	s := newTestStore(t)
	handler := NewSessionsHandler(s)

	createSession(t, s, "session-1")
	createSession(t, s, "session-2")

	req := httptest.NewRequest(http.MethodGet, "/api/sessions", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}

	var response listSessionsResponse
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(response.Sessions) != 2 {
		t.Errorf("expected 2 sessions, got %d", len(response.Sessions))
	}
}

func TestSessionsHandler_ListLimit(t *testing.T) {
	s := newTestStore(t)
	handler := NewSessionsHandler(s)

	for _, id := range []string{"a", "b", "c"} {
		createSession(t, s, id)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/sessions?limit=2", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	var response listSessionsResponse
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(response.Sessions) != 2 {
		t.Errorf("expected 2 sessions with limit, got %d", len(response.Sessions))
	}
}

func TestSessionsHandler_ListBadLimit(t *testing.T) {
	s := newTestStore(t)
	handler := NewSessionsHandler(s)

	req := httptest.NewRequest(http.MethodGet, "/api/sessions?limit=banana", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected status %d, got %d", http.StatusBadRequest, rec.Code)
	}
}

func TestSessionsHandler_Get(t *testing.T) {
	s := newTestStore(t)
	handler := NewSessionsHandler(s)

	createSession(t, s, "session-1")
	if err := s.Sessions().End("session-1", 90, 75); err != nil {
		t.Fatalf("failed to end session: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/sessions/session-1", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}

	var response sessionResponse
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if response.PieceName != "Twinkle Twinkle Little Star" {
		t.Errorf("unexpected piece name: %q", response.PieceName)
	}
	if response.PostureScore != 90 {
		t.Errorf("posture score = %f, want 90", response.PostureScore)
	}
	if response.EndedAt == "" {
		t.Error("expected an end time for an ended session")
	}
}

func TestSessionsHandler_GetMissing(t *testing.T) {
	s := newTestStore(t)
	handler := NewSessionsHandler(s)

	req := httptest.NewRequest(http.MethodGet, "/api/sessions/nope", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected status %d, got %d", http.StatusNotFound, rec.Code)
	}
}

func TestSessionsHandler_Events(t *testing.T) {
	s := newTestStore(t)
	handler := NewSessionsHandler(s)

	createSession(t, s, "session-1")
	if err := s.Events().Append("session-1", "bow_direction_change", []byte(`{"direction":"down_bow"}`)); err != nil {
		t.Fatalf("failed to append event: %v", err)
	}
	if err := s.Events().Append("session-1", "posture_change", nil); err != nil {
		t.Fatalf("failed to append event: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/sessions/session-1/events", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}

	var response listEventsResponse
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(response.Events) != 2 {
		t.Errorf("expected 2 events, got %d", len(response.Events))
	}
	if response.Counts["bow_direction_change"] != 1 {
		t.Errorf("expected 1 direction event in counts, got %d", response.Counts["bow_direction_change"])
	}
}

func TestSessionsHandler_EventsMissingSession(t *testing.T) {
	s := newTestStore(t)
	handler := NewSessionsHandler(s)

	req := httptest.NewRequest(http.MethodGet, "/api/sessions/nope/events", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected status %d, got %d", http.StatusNotFound, rec.Code)
	}
}

func TestSessionsHandler_Delete(t *testing.T) {
	s := newTestStore(t)
	handler := NewSessionsHandler(s)

	createSession(t, s, "session-1")

	req := httptest.NewRequest(http.MethodDelete, "/api/sessions/session-1", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected status %d, got %d", http.StatusNoContent, rec.Code)
	}
}

func TestSessionsHandler_MethodNotAllowed(t *testing.T) {
	s := newTestStore(t)
	handler := NewSessionsHandler(s)

	req := httptest.NewRequest(http.MethodPost, "/api/sessions", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected status %d, got %d", http.StatusMethodNotAllowed, rec.Code)
	}
}
