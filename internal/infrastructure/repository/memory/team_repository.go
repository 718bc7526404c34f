package memory

import (
	"context"
	"sync"

	"github.com/gilangnh/matchday/internal/domain/team"
)

// TeamRepository is the in-process fallback for the team mapping cache.
type TeamRepository struct {
	mu      sync.RWMutex
	entries map[string]team.Info
}

func NewTeamRepository() *TeamRepository {
	return &TeamRepository{entries: make(map[string]team.Info)}
}

func (r *TeamRepository) Get(_ context.Context, name string) (team.Info, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	info, ok := r.entries[name]
	return info, ok, nil
}

func (r *TeamRepository) Save(_ context.Context, name string, info team.Info) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries[name] = info
	return nil
}
