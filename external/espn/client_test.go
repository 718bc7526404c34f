package espn

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/gilangnh/matchday/internal/platform/logging"
	"github.com/gilangnh/matchday/internal/platform/resilience"
)

const scoreboardPayload = `{
  "leagues": [{"name": "English Premier League"}],
  "events": [{
    "id": "401",
    "status": {"type": {"name": "STATUS_SCHEDULED", "completed": false}},
    "competitions": [{
      "date": "2026-03-10T19:30Z",
      "competitors": [
        {"homeAway": "home", "score": "0", "team": {"displayName": "Arsenal"}},
        {"homeAway": "away", "score": "0", "team": {"displayName": "Chelsea"}}
      ]
    }]
  }]
}`

func newTestClient(baseURL string, maxRetries int) *Client {
	return NewClient(ClientConfig{
		BaseURL:        baseURL,
		MaxRetries:     maxRetries,
		Logger:         logging.NewNop(),
		CircuitBreaker: resilience.CircuitBreakerConfig{Enabled: false},
	})
}

func TestClient_Scoreboard(t *testing.T) {
	var gotPath, gotQuery atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath.Store(r.URL.Path)
		gotQuery.Store(r.URL.RawQuery)
		_, _ = w.Write([]byte(scoreboardPayload))
	}))
	defer srv.Close()

	client := newTestClient(srv.URL, 0)

	matches, err := client.Scoreboard(t.Context(), "eng.1", "20260310")
	if err != nil {
		t.Fatalf("scoreboard failed: %v", err)
	}
	if len(matches) != 1 || matches[0].ID != "401" {
		t.Fatalf("unexpected matches: %+v", matches)
	}
	if gotPath.Load() != "/eng.1/scoreboard" {
		t.Fatalf("unexpected path: %v", gotPath.Load())
	}
	if gotQuery.Load() != "dates=20260310" {
		t.Fatalf("unexpected query: %v", gotQuery.Load())
	}
}

func TestClient_Scoreboard_RetriesTransientStatus(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(scoreboardPayload))
	}))
	defer srv.Close()

	client := newTestClient(srv.URL, 1)

	matches, err := client.Scoreboard(t.Context(), "eng.1", "")
	if err != nil {
		t.Fatalf("scoreboard failed after retry: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("expected 1 match, got %d", len(matches))
	}
	if calls.Load() != 2 {
		t.Fatalf("expected 2 requests, got %d", calls.Load())
	}
}

func TestClient_Scoreboard_NoRetryOnClientError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	client := newTestClient(srv.URL, 3)

	if _, err := client.Scoreboard(t.Context(), "eng.1", ""); err == nil {
		t.Fatal("expected error for 404 response")
	}
	if calls.Load() != 1 {
		t.Fatalf("expected a single request, got %d", calls.Load())
	}
}

func TestClient_Scoreboard_RequiresLeagueCode(t *testing.T) {
	client := newTestClient("http://127.0.0.1:0", 0)

	if _, err := client.Scoreboard(t.Context(), "  ", ""); err == nil {
		t.Fatal("expected error for empty league code")
	}
}
