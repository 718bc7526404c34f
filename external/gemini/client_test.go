package gemini

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	sonic "github.com/bytedance/sonic"
	"github.com/gilangnh/matchday/internal/domain/team"
	"github.com/gilangnh/matchday/internal/platform/logging"
)

type recordedRequest struct {
	path string
	body string
}

func newModelServer(t *testing.T, answer string, status int) (*httptest.Server, *recordedRequest) {
	t.Helper()

	var mu sync.Mutex
	recorded := &recordedRequest{}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, err := io.ReadAll(r.Body)
		if err != nil {
			t.Errorf("read request body: %v", err)
		}
		mu.Lock()
		recorded.path = r.URL.Path
		recorded.body = string(raw)
		mu.Unlock()

		if status != http.StatusOK {
			w.WriteHeader(status)
			return
		}
		response := map[string]any{
			"candidates": []map[string]any{
				{"content": map[string]any{"parts": []map[string]any{{"text": answer}}}},
			},
		}
		payload, err := sonic.Marshal(response)
		if err != nil {
			t.Errorf("marshal model response: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(payload)
	}))
	t.Cleanup(server.Close)
	return server, recorded
}

func newTestClient(baseURL string) *Client {
	return NewClient(Config{
		BaseURL: baseURL,
		APIKey:  "test-key",
		Model:   "gemini-test",
		Logger:  logging.NewNop(),
	})
}

func TestShorten(t *testing.T) {
	server, recorded := newModelServer(t, `{"short_name": "Man United", "emoji": "🔴"}`, http.StatusOK)
	client := newTestClient(server.URL)

	info, err := client.Shorten(t.Context(), "Manchester United")
	if err != nil {
		t.Fatalf("shorten failed: %v", err)
	}
	if info.ShortName != "Man United" || info.Emoji != "🔴" {
		t.Fatalf("unexpected info: %+v", info)
	}

	if recorded.path != "/v1beta/models/gemini-test:generateContent" {
		t.Fatalf("unexpected request path %q", recorded.path)
	}
	if !strings.Contains(recorded.body, "Manchester United") {
		t.Fatalf("prompt should carry the club name, got %q", recorded.body)
	}
}

func TestShorten_StripsCodeFences(t *testing.T) {
	answer := "```json\n{\"short_name\": \"B-Dortmund\", \"emoji\": \"🟡\"}\n```"
	server, _ := newModelServer(t, answer, http.StatusOK)
	client := newTestClient(server.URL)

	info, err := client.Shorten(t.Context(), "Borussia Dortmund")
	if err != nil {
		t.Fatalf("shorten failed: %v", err)
	}
	if info.ShortName != "B-Dortmund" || info.Emoji != "🟡" {
		t.Fatalf("unexpected info: %+v", info)
	}
}

func TestShorten_FillsBlankFields(t *testing.T) {
	server, _ := newModelServer(t, `{"short_name": "", "emoji": ""}`, http.StatusOK)
	client := newTestClient(server.URL)

	info, err := client.Shorten(t.Context(), "Brentford")
	if err != nil {
		t.Fatalf("shorten failed: %v", err)
	}
	if info.ShortName != "Brentford" || info.Emoji != team.PlaceholderEmoji {
		t.Fatalf("blank fields should fall back, got %+v", info)
	}
}

func TestShorten_UpstreamError(t *testing.T) {
	server, _ := newModelServer(t, "", http.StatusTooManyRequests)
	client := newTestClient(server.URL)

	if _, err := client.Shorten(t.Context(), "Arsenal"); err == nil {
		t.Fatal("expected error on non-200 response")
	}
}

func TestShorten_RejectsMissingInput(t *testing.T) {
	client := newTestClient("http://localhost:0")

	if _, err := client.Shorten(t.Context(), "  "); err == nil {
		t.Fatal("expected error for blank team name")
	}

	unkeyed := NewClient(Config{BaseURL: "http://localhost:0", Logger: logging.NewNop()})
	if _, err := unkeyed.Shorten(t.Context(), "Arsenal"); err == nil {
		t.Fatal("expected error when api key is not configured")
	}
}

func TestParseInfoJSON_NoCandidates(t *testing.T) {
	var decoded generateResponse
	if err := sonic.Unmarshal([]byte(`{"candidates": []}`), &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded.firstText() != "" {
		t.Fatal("empty candidates should yield no text")
	}
}
