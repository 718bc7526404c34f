package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/gilangnh/matchday/internal/domain/match"
)

type TrackingRepository struct {
	db *sqlx.DB
}

func NewTrackingRepository(db *sqlx.DB) *TrackingRepository {
	return &TrackingRepository{db: db}
}

type trackedMatchRow struct {
	MatchID    string    `db:"match_id"`
	LeagueCode string    `db:"league_code"`
	HomeTeam   string    `db:"home_team"`
	AwayTeam   string    `db:"away_team"`
	KickoffUTC time.Time `db:"kickoff_utc"`
}

// Put inserts the record unless the match id is already tracked.
// First write wins; a conflicting insert is a silent no-op.
func (r *TrackingRepository) Put(ctx context.Context, record match.TrackedMatch) error {
	const query = `
		INSERT INTO tracked_matches (match_id, league_code, home_team, away_team, kickoff_utc)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (match_id) DO NOTHING`

	if _, err := r.db.ExecContext(ctx, query,
		record.MatchID, record.LeagueCode, record.Home, record.Away, record.KickoffUTC.UTC(),
	); err != nil {
		return fmt.Errorf("insert tracked match %s: %w", record.MatchID, err)
	}
	return nil
}

func (r *TrackingRepository) List(ctx context.Context) ([]match.TrackedMatch, error) {
	const query = `
		SELECT match_id, league_code, home_team, away_team, kickoff_utc
		FROM tracked_matches
		ORDER BY kickoff_utc, match_id`

	var rows []trackedMatchRow
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("select tracked matches: %w", err)
	}

	out := make([]match.TrackedMatch, 0, len(rows))
	for _, row := range rows {
		out = append(out, match.TrackedMatch{
			MatchID:    row.MatchID,
			LeagueCode: row.LeagueCode,
			Home:       row.HomeTeam,
			Away:       row.AwayTeam,
			KickoffUTC: row.KickoffUTC.UTC(),
		})
	}
	return out, nil
}

// Delete removes the record; deleting an id that is no longer tracked is
// not an error.
func (r *TrackingRepository) Delete(ctx context.Context, matchID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM tracked_matches WHERE match_id = $1`, matchID); err != nil {
		return fmt.Errorf("delete tracked match %s: %w", matchID, err)
	}
	return nil
}
