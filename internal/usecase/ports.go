package usecase

import (
	"context"

	"github.com/gilangnh/matchday/internal/domain/match"
	"github.com/gilangnh/matchday/internal/domain/team"
)

// FixtureFeed queries the upstream scoreboard for one league. date is
// YYYYMMDD, empty for the feed's current day.
type FixtureFeed interface {
	Scoreboard(ctx context.Context, leagueCode, date string) ([]match.Match, error)
}

// Notifier delivers pre-formatted messages. Delivery is best-effort; callers
// log returned errors and move on.
type Notifier interface {
	Broadcast(ctx context.Context, messages ...string) error
	Personal(ctx context.Context, message string) error
	Heartbeat(ctx context.Context) error
}

// TeamResolver returns enriched display info for a team name. It never fails
// the caller; on any problem it falls back to the raw name.
type TeamResolver interface {
	Resolve(ctx context.Context, name string) team.Info
}
