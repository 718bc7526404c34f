package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/panjf2000/ants/v2"

	"github.com/gilangnh/matchday/internal/config"
	"github.com/gilangnh/matchday/internal/domain/match"
	"github.com/gilangnh/matchday/internal/platform/logging"
)

// AcquisitionConfig tunes the daily fixture acquisition pass.
type AcquisitionConfig struct {
	Workers         int
	WindowStartHour int
	WindowLocation  *time.Location
}

// AcquisitionResult summarizes one acquisition pass.
type AcquisitionResult struct {
	Leagues   int
	Fetched   int
	Qualified int
	Tracked   int
}

// AcquisitionService runs the daily pass: fetch every configured league's
// scoreboard, keep the fixtures whose kickoff falls in today's window, send
// the digest, then put each qualified fixture into tracking.
type AcquisitionService struct {
	catalog   *config.LeagueCatalog
	feed      FixtureFeed
	store     match.TrackingRepository
	notifier  Notifier
	formatter *Formatter
	cfg       AcquisitionConfig
	logger    *logging.Logger
	now       func() time.Time
}

func NewAcquisitionService(
	catalog *config.LeagueCatalog,
	feed FixtureFeed,
	store match.TrackingRepository,
	notifier Notifier,
	formatter *Formatter,
	cfg AcquisitionConfig,
	logger *logging.Logger,
) *AcquisitionService {
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.WindowStartHour < 0 || cfg.WindowStartHour > 23 {
		cfg.WindowStartHour = match.DefaultWindowStartHour
	}
	if cfg.WindowLocation == nil {
		cfg.WindowLocation = time.UTC
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &AcquisitionService{
		catalog:   catalog,
		feed:      feed,
		store:     store,
		notifier:  notifier,
		formatter: formatter,
		cfg:       cfg,
		logger:    logger,
		now:       time.Now,
	}
}

// Run executes one acquisition pass. A league whose fetch fails is logged
// and skipped; the pass continues with the remaining leagues. Tracking
// failures are joined into the returned error after the pass completes.
func (s *AcquisitionService) Run(ctx context.Context) (AcquisitionResult, error) {
	leagues := s.catalog.LeagueCodes()
	result := AcquisitionResult{Leagues: len(leagues)}
	if len(leagues) == 0 {
		return result, crerr.New("acquisition: no leagues configured")
	}

	now := s.now()
	windowStart, windowEnd := match.Window(now, s.cfg.WindowLocation, s.cfg.WindowStartHour)
	s.logger.InfoContext(ctx, "acquisition pass started",
		"leagues", len(leagues),
		"window_start", windowStart.Format(time.RFC3339),
		"window_end", windowEnd.Format(time.RFC3339),
	)

	perLeague := make([][]match.Match, len(leagues))

	pool, err := ants.NewPool(min(s.cfg.Workers, len(leagues)))
	if err != nil {
		return result, crerr.Wrap(err, "acquisition: worker pool")
	}
	defer pool.Release()

	var wg sync.WaitGroup
	for i, code := range leagues {
		i, code := i, code
		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()
			matches, err := s.feed.Scoreboard(ctx, code, "")
			if err != nil {
				s.logger.ErrorContext(ctx, "league fetch failed, skipping", "league", code, "error", err)
				return
			}
			perLeague[i] = matches
		})
		if submitErr != nil {
			wg.Done()
			s.logger.ErrorContext(ctx, "league fetch not scheduled", "league", code, "error", submitErr)
		}
	}
	wg.Wait()

	var qualified []match.Match
	for _, matches := range perLeague {
		result.Fetched += len(matches)
		for _, m := range matches {
			if match.InWindow(m.KickoffUTC, windowStart, windowEnd) {
				qualified = append(qualified, m)
			}
		}
	}
	result.Qualified = len(qualified)

	if len(qualified) == 0 {
		s.logger.InfoContext(ctx, "no fixtures in window, nothing to track", "fetched", result.Fetched)
		return result, nil
	}

	// Digest goes out before tracking writes so subscribers see the day's
	// slate even if the store is down.
	digest := s.formatter.FixturesDigest(ctx, qualified)
	if err := s.notifier.Broadcast(ctx, digest); err != nil {
		s.logger.WarnContext(ctx, "digest dispatch failed", "error", err)
	}

	var putErrs []error
	for _, m := range qualified {
		if err := s.store.Put(ctx, m.TrackedRecord()); err != nil {
			s.logger.ErrorContext(ctx, "track fixture failed", "match_id", m.ID, "error", err)
			putErrs = append(putErrs, crerr.Wrapf(err, "track %s", m.ID))
			continue
		}
		result.Tracked++
		if err := s.notifier.Personal(ctx, s.formatter.TrackingNotice(m)); err != nil {
			s.logger.WarnContext(ctx, "tracking notice dispatch failed", "match_id", m.ID, "error", err)
		}
	}

	s.logger.InfoContext(ctx, "acquisition pass finished",
		"fetched", result.Fetched,
		"qualified", result.Qualified,
		"tracked", result.Tracked,
	)

	return result, errors.Join(putErrs...)
}
