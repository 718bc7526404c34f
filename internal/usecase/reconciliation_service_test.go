package usecase

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	crerr "github.com/cockroachdb/errors"

	"github.com/gilangnh/matchday/internal/config"
	"github.com/gilangnh/matchday/internal/domain/match"
	"github.com/gilangnh/matchday/internal/domain/team"
	"github.com/gilangnh/matchday/internal/infrastructure/repository/memory"
	"github.com/gilangnh/matchday/internal/platform/logging"
)

type fakeFeed struct {
	mu        sync.Mutex
	responses map[string][]match.Match
	errs      map[string]error
	calls     int
}

func newFakeFeed() *fakeFeed {
	return &fakeFeed{
		responses: make(map[string][]match.Match),
		errs:      make(map[string]error),
	}
}

func feedKey(league, date string) string { return league + "@" + date }

func (f *fakeFeed) set(league, date string, matches ...match.Match) {
	f.responses[feedKey(league, date)] = matches
}

func (f *fakeFeed) fail(league, date string, err error) {
	f.errs[feedKey(league, date)] = err
}

func (f *fakeFeed) Scoreboard(_ context.Context, league, date string) ([]match.Match, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if err := f.errs[feedKey(league, date)]; err != nil {
		return nil, err
	}
	return f.responses[feedKey(league, date)], nil
}

func (f *fakeFeed) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeNotifier struct {
	mu         sync.Mutex
	broadcasts [][]string
	personals  []string
	events     []string
	heartbeats int
	err        error
}

func (n *fakeNotifier) Broadcast(_ context.Context, messages ...string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.broadcasts = append(n.broadcasts, messages)
	n.events = append(n.events, "broadcast")
	return n.err
}

func (n *fakeNotifier) Personal(_ context.Context, message string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.personals = append(n.personals, message)
	n.events = append(n.events, "personal")
	return n.err
}

func (n *fakeNotifier) Heartbeat(context.Context) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.heartbeats++
	return n.err
}

type rawNameResolver struct{}

func (rawNameResolver) Resolve(_ context.Context, name string) team.Info {
	return team.Fallback(name)
}

func testCatalog() *config.LeagueCatalog {
	return &config.LeagueCatalog{
		Leagues: []string{"eng.1"},
		Icons:   map[string]string{"English Premier League": "🏴󠁧󠁢󠁥󠁮󠁧󠁿"},
	}
}

func testFormatter() *Formatter {
	return NewFormatter(testCatalog(), rawNameResolver{})
}

func trackedFixture(id string, kickoff time.Time) match.TrackedMatch {
	return match.TrackedMatch{
		MatchID:    id,
		LeagueCode: "eng.1",
		Home:       "Arsenal",
		Away:       "Chelsea",
		KickoffUTC: kickoff,
	}
}

func freshMatch(id string, kickoff time.Time, status match.Status, completed bool, homeScore, awayScore int) match.Match {
	return match.Match{
		ID:         id,
		LeagueCode: "eng.1",
		LeagueName: "English Premier League",
		Home:       "Arsenal",
		Away:       "Chelsea",
		HomeScore:  homeScore,
		AwayScore:  awayScore,
		KickoffUTC: kickoff,
		Status:     status,
		Completed:  completed,
	}
}

func newReconciler(store match.TrackingRepository, feed FixtureFeed, notifier Notifier, now time.Time) *ReconciliationService {
	svc := NewReconciliationService(store, feed, notifier, testFormatter(), ReconcilerConfig{
		KickoffGrace:        15 * time.Minute,
		CompletionThreshold: 110 * time.Minute,
		PrefetchWorkers:     2,
	}, logging.NewNop())
	svc.now = func() time.Time { return now }
	return svc
}

func TestReconcile_BeforeGraceLeavesMatchAlone(t *testing.T) {
	now := time.Date(2026, 3, 10, 20, 0, 0, 0, time.UTC)
	store := memory.NewTrackingRepository()
	feed := newFakeFeed()
	notifier := &fakeNotifier{}

	if err := store.Put(t.Context(), trackedFixture("401", now.Add(-10*time.Minute))); err != nil {
		t.Fatalf("seed store: %v", err)
	}

	result, err := newReconciler(store, feed, notifier, now).Run(t.Context())
	if err != nil {
		t.Fatalf("reconcile failed: %v", err)
	}

	if result.Pending != 1 || result.Postponed != 0 || result.Finished != 0 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if feed.callCount() != 0 {
		t.Fatalf("expected no re-query inside the grace period, got %d calls", feed.callCount())
	}
	records, _ := store.List(t.Context())
	if len(records) != 1 {
		t.Fatalf("match should remain tracked, store has %d records", len(records))
	}
	if len(notifier.broadcasts) != 0 {
		t.Fatalf("expected no notifications, got %d", len(notifier.broadcasts))
	}
}

func TestReconcile_StillScheduledPastGraceIsPostponedSilently(t *testing.T) {
	now := time.Date(2026, 3, 10, 20, 0, 0, 0, time.UTC)
	kickoff := now.Add(-30 * time.Minute)
	store := memory.NewTrackingRepository()
	feed := newFakeFeed()
	notifier := &fakeNotifier{}

	if err := store.Put(t.Context(), trackedFixture("401", kickoff)); err != nil {
		t.Fatalf("seed store: %v", err)
	}
	feed.set("eng.1", kickoff.UTC().Format("20060102"),
		freshMatch("401", kickoff, match.StatusScheduled, false, 0, 0))

	result, err := newReconciler(store, feed, notifier, now).Run(t.Context())
	if err != nil {
		t.Fatalf("reconcile failed: %v", err)
	}

	if result.Postponed != 1 {
		t.Fatalf("expected 1 postponed, got %+v", result)
	}
	records, _ := store.List(t.Context())
	if len(records) != 0 {
		t.Fatalf("postponed match should be removed, store has %d records", len(records))
	}
	if len(notifier.broadcasts) != 0 {
		t.Fatalf("postponement must be silent, got %d broadcasts", len(notifier.broadcasts))
	}
}

func TestReconcile_MissingFromScoreboardIsPostponed(t *testing.T) {
	now := time.Date(2026, 3, 10, 20, 0, 0, 0, time.UTC)
	kickoff := now.Add(-30 * time.Minute)
	store := memory.NewTrackingRepository()
	feed := newFakeFeed()
	notifier := &fakeNotifier{}

	if err := store.Put(t.Context(), trackedFixture("401", kickoff)); err != nil {
		t.Fatalf("seed store: %v", err)
	}
	feed.set("eng.1", kickoff.UTC().Format("20060102")) // empty scoreboard

	result, err := newReconciler(store, feed, notifier, now).Run(t.Context())
	if err != nil {
		t.Fatalf("reconcile failed: %v", err)
	}

	if result.Postponed != 1 {
		t.Fatalf("expected 1 postponed, got %+v", result)
	}
}

func TestReconcile_FinalPastThresholdNotifiesOnceWithScores(t *testing.T) {
	now := time.Date(2026, 3, 10, 20, 0, 0, 0, time.UTC)
	kickoff := now.Add(-120 * time.Minute)
	store := memory.NewTrackingRepository()
	feed := newFakeFeed()
	notifier := &fakeNotifier{}

	if err := store.Put(t.Context(), trackedFixture("401", kickoff)); err != nil {
		t.Fatalf("seed store: %v", err)
	}
	feed.set("eng.1", kickoff.UTC().Format("20060102"),
		freshMatch("401", kickoff, match.StatusFinal, true, 2, 1))

	result, err := newReconciler(store, feed, notifier, now).Run(t.Context())
	if err != nil {
		t.Fatalf("reconcile failed: %v", err)
	}

	if result.Finished != 1 {
		t.Fatalf("expected 1 finished, got %+v", result)
	}
	records, _ := store.List(t.Context())
	if len(records) != 0 {
		t.Fatalf("finished match should be removed, store has %d records", len(records))
	}
	if len(notifier.broadcasts) != 1 || len(notifier.broadcasts[0]) != 1 {
		t.Fatalf("expected exactly one finish notification, got %#v", notifier.broadcasts)
	}
	msg := notifier.broadcasts[0][0]
	if !strings.Contains(msg, "2️⃣") || !strings.Contains(msg, "1️⃣") {
		t.Fatalf("finish message should carry the 2-1 score: %q", msg)
	}
}

func TestReconcile_StillScheduledPastThresholdStaysTracked(t *testing.T) {
	now := time.Date(2026, 3, 10, 20, 0, 0, 0, time.UTC)
	kickoff := now.Add(-120 * time.Minute)
	store := memory.NewTrackingRepository()
	feed := newFakeFeed()
	notifier := &fakeNotifier{}

	if err := store.Put(t.Context(), trackedFixture("401", kickoff)); err != nil {
		t.Fatalf("seed store: %v", err)
	}
	feed.set("eng.1", kickoff.UTC().Format("20060102"),
		freshMatch("401", kickoff, match.StatusScheduled, false, 0, 0))

	result, err := newReconciler(store, feed, notifier, now).Run(t.Context())
	if err != nil {
		t.Fatalf("reconcile failed: %v", err)
	}

	if result.Pending != 1 || result.Finished != 0 || result.Postponed != 0 {
		t.Fatalf("match past threshold but unresolved should stay pending: %+v", result)
	}
	records, _ := store.List(t.Context())
	if len(records) != 1 {
		t.Fatalf("match should remain tracked for the next tick, store has %d records", len(records))
	}
}

func TestReconcile_FetchErrorLeavesMatchTracked(t *testing.T) {
	now := time.Date(2026, 3, 10, 20, 0, 0, 0, time.UTC)
	kickoff := now.Add(-30 * time.Minute)
	store := memory.NewTrackingRepository()
	feed := newFakeFeed()
	notifier := &fakeNotifier{}

	if err := store.Put(t.Context(), trackedFixture("401", kickoff)); err != nil {
		t.Fatalf("seed store: %v", err)
	}
	feed.fail("eng.1", kickoff.UTC().Format("20060102"), crerr.New("feed down"))

	result, err := newReconciler(store, feed, notifier, now).Run(t.Context())
	if err != nil {
		t.Fatalf("reconcile should isolate the fetch failure: %v", err)
	}

	if result.Failed != 1 || result.Postponed != 0 {
		t.Fatalf("fetch failure must not classify the match: %+v", result)
	}
	records, _ := store.List(t.Context())
	if len(records) != 1 {
		t.Fatalf("match should stay tracked for retry, store has %d records", len(records))
	}
}

func TestReconcile_MalformedRecordDoesNotAbortTheOthers(t *testing.T) {
	now := time.Date(2026, 3, 10, 20, 0, 0, 0, time.UTC)
	kickoff := now.Add(-30 * time.Minute)
	store := memory.NewTrackingRepository()
	feed := newFakeFeed()
	notifier := &fakeNotifier{}

	for _, id := range []string{"401", "402", "403", "404"} {
		if err := store.Put(t.Context(), trackedFixture(id, kickoff)); err != nil {
			t.Fatalf("seed store: %v", err)
		}
	}
	bad := trackedFixture("405", kickoff)
	bad.LeagueCode = ""
	if err := store.Put(t.Context(), bad); err != nil {
		t.Fatalf("seed store: %v", err)
	}

	feed.set("eng.1", kickoff.UTC().Format("20060102"),
		freshMatch("401", kickoff, match.StatusScheduled, false, 0, 0),
		freshMatch("402", kickoff, match.StatusScheduled, false, 0, 0),
		freshMatch("403", kickoff, match.StatusScheduled, false, 0, 0),
		freshMatch("404", kickoff, match.StatusScheduled, false, 0, 0),
	)

	result, err := newReconciler(store, feed, notifier, now).Run(t.Context())
	if err != nil {
		t.Fatalf("reconcile failed: %v", err)
	}

	if result.Failed != 1 {
		t.Fatalf("expected the malformed record to be counted failed: %+v", result)
	}
	if result.Postponed != 4 {
		t.Fatalf("the four valid records should still reconcile: %+v", result)
	}
}

func TestReconcile_BatchesFinishNotificationsIntoOneDispatch(t *testing.T) {
	now := time.Date(2026, 3, 10, 20, 0, 0, 0, time.UTC)
	kickoff := now.Add(-120 * time.Minute)
	store := memory.NewTrackingRepository()
	feed := newFakeFeed()
	notifier := &fakeNotifier{}

	if err := store.Put(t.Context(), trackedFixture("401", kickoff)); err != nil {
		t.Fatalf("seed store: %v", err)
	}
	second := trackedFixture("402", kickoff)
	second.Home, second.Away = "Liverpool", "Everton"
	if err := store.Put(t.Context(), second); err != nil {
		t.Fatalf("seed store: %v", err)
	}

	liverpool := freshMatch("402", kickoff, match.StatusFinal, true, 0, 0)
	liverpool.Home, liverpool.Away = "Liverpool", "Everton"
	feed.set("eng.1", kickoff.UTC().Format("20060102"),
		freshMatch("401", kickoff, match.StatusFinal, true, 2, 1),
		liverpool,
	)

	result, err := newReconciler(store, feed, notifier, now).Run(t.Context())
	if err != nil {
		t.Fatalf("reconcile failed: %v", err)
	}

	if result.Finished != 2 {
		t.Fatalf("expected 2 finished, got %+v", result)
	}
	if len(notifier.broadcasts) != 1 {
		t.Fatalf("finish messages must go out in one dispatch call, got %d", len(notifier.broadcasts))
	}
	if len(notifier.broadcasts[0]) != 2 {
		t.Fatalf("expected 2 messages in the dispatch, got %d", len(notifier.broadcasts[0]))
	}
}

func TestReconcile_EmptyStoreIsNoop(t *testing.T) {
	now := time.Date(2026, 3, 10, 20, 0, 0, 0, time.UTC)
	store := memory.NewTrackingRepository()
	feed := newFakeFeed()
	notifier := &fakeNotifier{}

	result, err := newReconciler(store, feed, notifier, now).Run(t.Context())
	if err != nil {
		t.Fatalf("reconcile failed: %v", err)
	}
	if result.Tracked != 0 || feed.callCount() != 0 {
		t.Fatalf("empty store should do nothing: %+v calls=%d", result, feed.callCount())
	}
}
