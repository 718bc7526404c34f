package match

import "time"

// Match is the canonical view of one fixture as reported by the upstream
// scoreboard feed. Score and status fields are only meaningful after a fresh
// re-query; cached copies go stale quickly.
type Match struct {
	ID         string
	LeagueCode string
	LeagueName string
	Home       string
	Away       string
	HomeScore  int
	AwayScore  int
	KickoffUTC time.Time
	LocalTime  string
	Status     Status
	RawStatus  string
	Completed  bool
}

// TrackedMatch is the minimal record persisted for a fixture under tracking.
// Everything else is re-derived from the feed at reconciliation time.
type TrackedMatch struct {
	MatchID    string
	LeagueCode string
	Home       string
	Away       string
	KickoffUTC time.Time
}

func (m Match) TrackedRecord() TrackedMatch {
	return TrackedMatch{
		MatchID:    m.ID,
		LeagueCode: m.LeagueCode,
		Home:       m.Home,
		Away:       m.Away,
		KickoffUTC: m.KickoffUTC,
	}
}
