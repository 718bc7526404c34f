package usecase

import (
	"context"

	"github.com/gilangnh/matchday/internal/domain/team"
	"github.com/gilangnh/matchday/internal/platform/logging"
	"github.com/gilangnh/matchday/internal/platform/resilience"
)

// TeamEnrichmentService resolves team display info cache-through: check the
// persistent mapping, on miss ask the shortener and persist the answer. Any
// failure degrades to the placeholder form; the caller never sees an error.
type TeamEnrichmentService struct {
	repo      team.Repository
	shortener team.Shortener
	logger    *logging.Logger
	flight    resilience.SingleFlight
}

func NewTeamEnrichmentService(repo team.Repository, shortener team.Shortener, logger *logging.Logger) *TeamEnrichmentService {
	if logger == nil {
		logger = logging.Default()
	}
	return &TeamEnrichmentService{
		repo:      repo,
		shortener: shortener,
		logger:    logger,
	}
}

func (s *TeamEnrichmentService) Resolve(ctx context.Context, name string) team.Info {
	if name == "" {
		return team.Fallback(name)
	}

	out, _, _ := s.flight.Do(name, func() (any, error) {
		return s.resolve(ctx, name), nil
	})
	if info, ok := out.(team.Info); ok {
		return info
	}
	return team.Fallback(name)
}

func (s *TeamEnrichmentService) resolve(ctx context.Context, name string) team.Info {
	if s.repo != nil {
		info, found, err := s.repo.Get(ctx, name)
		if err != nil {
			s.logger.WarnContext(ctx, "team mapping lookup failed", "team", name, "error", err)
		} else if found {
			return fillDefaults(name, info)
		}
	}

	if s.shortener == nil {
		return team.Fallback(name)
	}

	info, err := s.shortener.Shorten(ctx, name)
	if err != nil {
		s.logger.WarnContext(ctx, "team enrichment failed, using fallback", "team", name, "error", err)
		return team.Fallback(name)
	}
	info = fillDefaults(name, info)

	if s.repo != nil {
		if err := s.repo.Save(ctx, name, info); err != nil {
			s.logger.WarnContext(ctx, "persist team mapping failed", "team", name, "error", err)
		}
	}

	return info
}

func fillDefaults(name string, info team.Info) team.Info {
	if info.ShortName == "" {
		info.ShortName = name
	}
	if info.Emoji == "" {
		info.Emoji = team.PlaceholderEmoji
	}
	return info
}
