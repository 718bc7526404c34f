package match

import "context"

// TrackingRepository persists the set of matches awaiting reconciliation.
//
// Put is idempotent with first-write-wins semantics: a second Put for the
// same match id is a no-op. Delete of an absent id is a no-op. There is no
// update operation; reconciliation only ever deletes.
type TrackingRepository interface {
	Put(ctx context.Context, record TrackedMatch) error
	List(ctx context.Context) ([]TrackedMatch, error)
	Delete(ctx context.Context, matchID string) error
}
