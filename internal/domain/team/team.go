package team

import "context"

// PlaceholderEmoji marks teams the enrichment path could not resolve.
const PlaceholderEmoji = "◽"

// Info is the enriched display form of a team name.
type Info struct {
	ShortName string `json:"short_name"`
	Emoji     string `json:"emoji"`
}

// Fallback returns the placeholder form for a raw team name.
func Fallback(name string) Info {
	return Info{ShortName: name, Emoji: PlaceholderEmoji}
}

// Repository is the persistent team-name mapping cache.
type Repository interface {
	Get(ctx context.Context, name string) (Info, bool, error)
	Save(ctx context.Context, name string, info Info) error
}

// Shortener produces a short display name and emoji for a full club name.
type Shortener interface {
	Shorten(ctx context.Context, name string) (Info, error)
}
