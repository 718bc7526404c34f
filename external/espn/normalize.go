package espn

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/gilangnh/matchday/internal/domain/match"
	"github.com/gilangnh/matchday/internal/platform/logging"
)

// Kickoff layouts the feed has been seen using. Naive timestamps are taken
// as UTC.
var kickoffLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
}

// normalizeScoreboard maps a scoreboard envelope to canonical matches.
// Malformed events are dropped with a logged reason; the batch never fails.
// Duplicate match ids keep the last-seen record.
func normalizeScoreboard(ctx context.Context, env scoreboardEnvelope, leagueCode string, zones ZoneLookup, logger *logging.Logger) []match.Match {
	if logger == nil {
		logger = logging.Default()
	}

	byID := make(map[string]match.Match, len(env.Events))
	order := make([]string, 0, len(env.Events))

	for _, event := range env.Events {
		if len(event.Competitions) == 0 {
			logger.WarnContext(ctx, "skip event: no competition block", "event_id", event.ID, "league_code", leagueCode)
			continue
		}
		comp := event.Competitions[0]

		if strings.TrimSpace(comp.Date) == "" {
			logger.WarnContext(ctx, "skip event: missing kickoff timestamp", "event_id", event.ID, "league_code", leagueCode)
			continue
		}
		kickoff, err := parseKickoff(comp.Date)
		if err != nil {
			logger.WarnContext(ctx, "skip event: unparseable kickoff timestamp",
				"event_id", event.ID, "league_code", leagueCode, "raw", comp.Date, "error", err)
			continue
		}

		home, away, ok := splitCompetitors(comp.Competitors)
		if !ok {
			logger.WarnContext(ctx, "skip event: missing home/away competitors", "event_id", event.ID, "league_code", leagueCode)
			continue
		}

		leagueName := strings.TrimSpace(event.League.Name)
		if leagueName == "" && len(env.Leagues) > 0 {
			leagueName = strings.TrimSpace(env.Leagues[0].Name)
		}
		if leagueName == "" {
			leagueName = "Unknown League"
		}

		zone := zones(leagueName)
		if zone == nil {
			zone = time.UTC
		}

		rawStatus := strings.ToUpper(strings.TrimSpace(event.Status.Type.Name))

		m := match.Match{
			ID:         event.ID,
			LeagueCode: leagueCode,
			LeagueName: leagueName,
			Home:       home.Team.DisplayName,
			Away:       away.Team.DisplayName,
			HomeScore:  parseScore(home.Score),
			AwayScore:  parseScore(away.Score),
			KickoffUTC: kickoff,
			LocalTime:  kickoff.In(zone).Format("15:04"),
			Status:     match.Classify(rawStatus),
			RawStatus:  rawStatus,
			Completed:  event.Status.Type.Completed,
		}

		if _, seen := byID[m.ID]; !seen {
			order = append(order, m.ID)
		}
		byID[m.ID] = m
	}

	out := make([]match.Match, 0, len(order))
	for _, id := range order {
		out = append(out, byID[id])
	}
	return out
}

func parseKickoff(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)

	var lastErr error
	for _, layout := range kickoffLayouts {
		parsed, err := time.Parse(layout, raw)
		if err != nil {
			lastErr = err
			continue
		}
		return parsed.UTC(), nil
	}
	return time.Time{}, lastErr
}

func splitCompetitors(competitors []eventCompetitor) (home, away eventCompetitor, ok bool) {
	var haveHome, haveAway bool
	for _, c := range competitors {
		switch strings.ToLower(c.HomeAway) {
		case "home":
			home = c
			haveHome = true
		case "away":
			away = c
			haveAway = true
		}
	}
	return home, away, haveHome && haveAway
}

func parseScore(raw string) int {
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || value < 0 {
		return 0
	}
	return value
}
