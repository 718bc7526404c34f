package usecase

import (
	"context"
	"sync"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/sourcegraph/conc/pool"

	"github.com/gilangnh/matchday/internal/domain/match"
	"github.com/gilangnh/matchday/internal/platform/logging"
)

// ReconcilerConfig tunes the lifecycle state machine. Both thresholds are
// heuristics for a ~90-minute sport; keep CompletionThreshold above
// KickoffGrace or every match would hit the completion band first.
type ReconcilerConfig struct {
	// KickoffGrace is how long after kickoff a match is left alone before
	// the postponement check starts. Absorbs upstream status lag at kickoff.
	KickoffGrace time.Duration
	// CompletionThreshold is elapsed time after kickoff past which the
	// match is checked for a final result instead of postponement.
	CompletionThreshold time.Duration
	// PrefetchWorkers bounds concurrent scoreboard re-queries.
	PrefetchWorkers int
}

// ReconcileResult summarizes one reconciliation pass.
type ReconcileResult struct {
	Tracked   int
	Pending   int
	Postponed int
	Finished  int
	Failed    int
}

// ReconciliationService walks every tracked match on each tick and decides
// its fate from elapsed time since kickoff plus a fresh upstream re-query:
//
//	now < kickoff+grace            leave pending, no re-query
//	grace <= elapsed < completion  still "scheduled" upstream, or gone from
//	                               the scoreboard -> postponed, drop silently
//	elapsed >= completion          final upstream -> drop and announce the
//	                               result; anything else stays pending
//
// A match that never resolves stays tracked indefinitely; there is no expiry.
type ReconciliationService struct {
	store     match.TrackingRepository
	feed      FixtureFeed
	notifier  Notifier
	formatter *Formatter
	cfg       ReconcilerConfig
	logger    *logging.Logger
	now       func() time.Time
}

func NewReconciliationService(
	store match.TrackingRepository,
	feed FixtureFeed,
	notifier Notifier,
	formatter *Formatter,
	cfg ReconcilerConfig,
	logger *logging.Logger,
) *ReconciliationService {
	if cfg.KickoffGrace <= 0 {
		cfg.KickoffGrace = 15 * time.Minute
	}
	if cfg.CompletionThreshold <= cfg.KickoffGrace {
		cfg.CompletionThreshold = 110 * time.Minute
	}
	if cfg.PrefetchWorkers <= 0 {
		cfg.PrefetchWorkers = 4
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &ReconciliationService{
		store:     store,
		feed:      feed,
		notifier:  notifier,
		formatter: formatter,
		cfg:       cfg,
		logger:    logger,
		now:       time.Now,
	}
}

type scoreboardKey struct {
	league string
	date   string
}

type scoreboardResult struct {
	byID map[string]match.Match
	err  error
}

// Run executes one reconciliation pass. Failures are isolated per match: a
// record that cannot be classified this tick stays tracked and is retried on
// the next one. Only a store List failure aborts the pass.
func (s *ReconciliationService) Run(ctx context.Context) (ReconcileResult, error) {
	var result ReconcileResult

	records, err := s.store.List(ctx)
	if err != nil {
		return result, crerr.Wrap(err, "reconcile: list tracked matches")
	}
	result.Tracked = len(records)
	if len(records) == 0 {
		return result, nil
	}

	now := s.now()

	needCheck := make([]match.TrackedMatch, 0, len(records))
	for _, rec := range records {
		switch {
		case rec.MatchID == "" || rec.LeagueCode == "" || rec.KickoffUTC.IsZero():
			s.logger.WarnContext(ctx, "malformed tracked record, skipping", "match_id", rec.MatchID, "league", rec.LeagueCode)
			result.Failed++
		case now.Sub(rec.KickoffUTC) < s.cfg.KickoffGrace:
			result.Pending++
		default:
			needCheck = append(needCheck, rec)
		}
	}
	if len(needCheck) == 0 {
		return result, nil
	}

	scoreboards := s.prefetch(ctx, needCheck)

	var finished []string
	for _, rec := range needCheck {
		board := scoreboards[scoreboardKey{rec.LeagueCode, rec.KickoffUTC.UTC().Format("20060102")}]
		if board.err != nil {
			s.logger.WarnContext(ctx, "re-query failed, match stays tracked",
				"match_id", rec.MatchID, "league", rec.LeagueCode, "error", board.err)
			result.Failed++
			continue
		}

		fresh, found := board.byID[rec.MatchID]
		if now.Sub(rec.KickoffUTC) < s.cfg.CompletionThreshold {
			s.reconcilePostponement(ctx, rec, fresh, found, &result)
			continue
		}
		if msg, ok := s.reconcileCompletion(ctx, rec, fresh, found, &result); ok {
			finished = append(finished, msg)
		}
	}

	// One dispatch call per pass, however many matches finished.
	if len(finished) > 0 {
		if err := s.notifier.Broadcast(ctx, finished...); err != nil {
			s.logger.WarnContext(ctx, "finish notification dispatch failed", "messages", len(finished), "error", err)
		}
	}

	s.logger.InfoContext(ctx, "reconciliation pass finished",
		"tracked", result.Tracked,
		"pending", result.Pending,
		"postponed", result.Postponed,
		"finished", result.Finished,
		"failed", result.Failed,
	)

	return result, nil
}

// prefetch re-queries each distinct (league, kickoff date) scoreboard once,
// fanning out across leagues. Classification order does not depend on fetch
// order, so the fan-out is safe.
func (s *ReconciliationService) prefetch(ctx context.Context, records []match.TrackedMatch) map[scoreboardKey]scoreboardResult {
	keys := make([]scoreboardKey, 0, len(records))
	seen := make(map[scoreboardKey]struct{}, len(records))
	for _, rec := range records {
		key := scoreboardKey{rec.LeagueCode, rec.KickoffUTC.UTC().Format("20060102")}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		keys = append(keys, key)
	}

	var mu sync.Mutex
	out := make(map[scoreboardKey]scoreboardResult, len(keys))

	p := pool.New().WithMaxGoroutines(s.cfg.PrefetchWorkers)
	for _, key := range keys {
		key := key
		p.Go(func() {
			matches, err := s.feed.Scoreboard(ctx, key.league, key.date)
			res := scoreboardResult{err: err}
			if err == nil {
				res.byID = make(map[string]match.Match, len(matches))
				for _, m := range matches {
					res.byID[m.ID] = m
				}
			}
			mu.Lock()
			out[key] = res
			mu.Unlock()
		})
	}
	p.Wait()

	return out
}

// reconcilePostponement handles the band between grace and completion: a
// match still marked scheduled this long after kickoff, or missing from the
// scoreboard entirely, is taken as postponed and dropped without notice.
func (s *ReconciliationService) reconcilePostponement(ctx context.Context, rec match.TrackedMatch, fresh match.Match, found bool, result *ReconcileResult) {
	if found && fresh.Status != match.StatusScheduled {
		result.Pending++
		return
	}

	if err := s.store.Delete(ctx, rec.MatchID); err != nil {
		s.logger.ErrorContext(ctx, "drop postponed match failed", "match_id", rec.MatchID, "error", err)
		result.Failed++
		return
	}
	result.Postponed++
	s.logger.InfoContext(ctx, "match classified postponed",
		"match_id", rec.MatchID, "home", rec.Home, "away", rec.Away, "found_upstream", found)
}

// reconcileCompletion handles the band past the completion threshold. It
// returns the result message when the match finished this tick. The record is
// deleted before the message is queued; if the delete fails the match stays
// tracked and no message is queued, so the next tick retries both.
func (s *ReconciliationService) reconcileCompletion(ctx context.Context, rec match.TrackedMatch, fresh match.Match, found bool, result *ReconcileResult) (string, bool) {
	if !found || (fresh.Status != match.StatusFinal && !fresh.Completed) {
		result.Pending++
		return "", false
	}

	if err := s.store.Delete(ctx, rec.MatchID); err != nil {
		s.logger.ErrorContext(ctx, "drop finished match failed", "match_id", rec.MatchID, "error", err)
		result.Failed++
		return "", false
	}
	result.Finished++
	s.logger.InfoContext(ctx, "match classified final",
		"match_id", rec.MatchID,
		"home", rec.Home, "away", rec.Away,
		"home_score", fresh.HomeScore, "away_score", fresh.AwayScore,
	)

	return s.formatter.MatchResult(ctx, fresh), true
}
