package usecase

import (
	"context"
	"sync"
	"testing"

	crerr "github.com/cockroachdb/errors"

	"github.com/gilangnh/matchday/internal/domain/team"
	"github.com/gilangnh/matchday/internal/infrastructure/repository/memory"
	"github.com/gilangnh/matchday/internal/platform/logging"
)

type fakeShortener struct {
	mu    sync.Mutex
	info  team.Info
	err   error
	calls int
}

func (s *fakeShortener) Shorten(context.Context, string) (team.Info, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.info, s.err
}

func (s *fakeShortener) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func TestEnrichment_CacheHitSkipsShortener(t *testing.T) {
	repo := memory.NewTeamRepository()
	if err := repo.Save(t.Context(), "Arsenal", team.Info{ShortName: "ARS", Emoji: "🔴"}); err != nil {
		t.Fatalf("seed repo: %v", err)
	}
	shortener := &fakeShortener{}

	svc := NewTeamEnrichmentService(repo, shortener, logging.NewNop())

	info := svc.Resolve(t.Context(), "Arsenal")
	if info.ShortName != "ARS" || info.Emoji != "🔴" {
		t.Fatalf("unexpected info: %+v", info)
	}
	if shortener.callCount() != 0 {
		t.Fatalf("shortener should not be called on cache hit, got %d calls", shortener.callCount())
	}
}

func TestEnrichment_MissCallsShortenerAndPersists(t *testing.T) {
	repo := memory.NewTeamRepository()
	shortener := &fakeShortener{info: team.Info{ShortName: "CHE", Emoji: "🔵"}}

	svc := NewTeamEnrichmentService(repo, shortener, logging.NewNop())

	info := svc.Resolve(t.Context(), "Chelsea")
	if info.ShortName != "CHE" {
		t.Fatalf("unexpected info: %+v", info)
	}

	saved, found, err := repo.Get(t.Context(), "Chelsea")
	if err != nil || !found {
		t.Fatalf("expected mapping persisted, found=%t err=%v", found, err)
	}
	if saved.Emoji != "🔵" {
		t.Fatalf("unexpected persisted info: %+v", saved)
	}

	// Second resolve comes from the mapping, not the shortener.
	svc.Resolve(t.Context(), "Chelsea")
	if shortener.callCount() != 1 {
		t.Fatalf("expected a single shortener call, got %d", shortener.callCount())
	}
}

func TestEnrichment_ShortenerFailureFallsBack(t *testing.T) {
	repo := memory.NewTeamRepository()
	shortener := &fakeShortener{err: crerr.New("model unavailable")}

	svc := NewTeamEnrichmentService(repo, shortener, logging.NewNop())

	info := svc.Resolve(t.Context(), "Newcastle United")
	if info.ShortName != "Newcastle United" || info.Emoji != team.PlaceholderEmoji {
		t.Fatalf("expected raw-name fallback, got %+v", info)
	}

	if _, found, _ := repo.Get(t.Context(), "Newcastle United"); found {
		t.Fatal("fallback result must not be persisted")
	}
}

func TestEnrichment_NoShortenerConfigured(t *testing.T) {
	repo := memory.NewTeamRepository()
	svc := NewTeamEnrichmentService(repo, nil, logging.NewNop())

	info := svc.Resolve(t.Context(), "Arsenal")
	if info.ShortName != "Arsenal" || info.Emoji != team.PlaceholderEmoji {
		t.Fatalf("expected fallback without a shortener, got %+v", info)
	}
}

func TestEnrichment_BlankFieldsFilled(t *testing.T) {
	repo := memory.NewTeamRepository()
	shortener := &fakeShortener{info: team.Info{ShortName: "", Emoji: ""}}

	svc := NewTeamEnrichmentService(repo, shortener, logging.NewNop())

	info := svc.Resolve(t.Context(), "Brentford")
	if info.ShortName != "Brentford" || info.Emoji != team.PlaceholderEmoji {
		t.Fatalf("blank enrichment fields should be filled with fallbacks: %+v", info)
	}
}
