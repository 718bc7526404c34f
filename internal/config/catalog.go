package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/go-playground/validator/v10"
)

// LeagueCatalog is the static league metadata loaded once at startup: which
// leagues to poll, how to render their names, and which timezone to display
// kickoff times in.
type LeagueCatalog struct {
	Leagues          []string          `json:"leagues" validate:"min=1,dive,required"`
	DisplayTimezones map[string]string `json:"display_timezones"`
	Icons            map[string]string `json:"icons"`
	Aliases          map[string]string `json:"aliases"`
	Priority         []string          `json:"priority"`

	zones         map[string]*time.Location
	priorityIndex map[string]int
}

const defaultLeagueIcon = "🔰"

func LoadLeagueCatalog(path string) (*LeagueCatalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read league catalog %s: %w", path, err)
	}

	var catalog LeagueCatalog
	if err := sonic.Unmarshal(raw, &catalog); err != nil {
		return nil, fmt.Errorf("decode league catalog %s: %w", path, err)
	}

	if err := validator.New().Struct(&catalog); err != nil {
		return nil, fmt.Errorf("validate league catalog %s: %w", path, err)
	}

	catalog.zones = make(map[string]*time.Location, len(catalog.DisplayTimezones))
	for league, tz := range catalog.DisplayTimezones {
		loc, err := time.LoadLocation(tz)
		if err != nil {
			return nil, fmt.Errorf("league catalog: timezone %q for %q: %w", tz, league, err)
		}
		catalog.zones[league] = loc
	}

	catalog.priorityIndex = make(map[string]int, len(catalog.Priority))
	for i, name := range catalog.Priority {
		catalog.priorityIndex[name] = i
	}

	return &catalog, nil
}

// LeagueCodes returns the upstream league identifiers to poll daily.
func (c *LeagueCatalog) LeagueCodes() []string {
	out := make([]string, len(c.Leagues))
	copy(out, c.Leagues)
	return out
}

// Zone returns the display timezone for a league name, UTC when unknown.
func (c *LeagueCatalog) Zone(leagueName string) *time.Location {
	if loc, ok := c.zones[leagueName]; ok {
		return loc
	}
	return time.UTC
}

// Alias resolves a raw feed league name to its canonical display name.
func (c *LeagueCatalog) Alias(raw string) string {
	if name, ok := c.Aliases[raw]; ok {
		return name
	}
	return raw
}

// Icon returns the emoji for a (canonical) league name.
func (c *LeagueCatalog) Icon(name string) string {
	if icon, ok := c.Icons[name]; ok && strings.TrimSpace(icon) != "" {
		return icon
	}
	return defaultLeagueIcon
}

// PriorityRank orders leagues for digest output; unknown leagues sort last.
func (c *LeagueCatalog) PriorityRank(name string) int {
	if rank, ok := c.priorityIndex[name]; ok {
		return rank
	}
	return len(c.Priority)
}
