package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/gilangnh/matchday/internal/domain/match"
)

// TrackingRepository keeps tracked matches in process memory. Used by tests
// and by deployments that accept losing tracking state on restart.
type TrackingRepository struct {
	mu      sync.RWMutex
	records map[string]match.TrackedMatch
}

func NewTrackingRepository() *TrackingRepository {
	return &TrackingRepository{records: make(map[string]match.TrackedMatch)}
}

func (r *TrackingRepository) Put(_ context.Context, record match.TrackedMatch) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.records[record.MatchID]; exists {
		return nil
	}
	r.records[record.MatchID] = record
	return nil
}

func (r *TrackingRepository) List(_ context.Context) ([]match.TrackedMatch, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]match.TrackedMatch, 0, len(r.records))
	for _, record := range r.records {
		out = append(out, record)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].KickoffUTC.Equal(out[j].KickoffUTC) {
			return out[i].KickoffUTC.Before(out[j].KickoffUTC)
		}
		return out[i].MatchID < out[j].MatchID
	})
	return out, nil
}

func (r *TrackingRepository) Delete(_ context.Context, matchID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.records, matchID)
	return nil
}
