package match

import "time"

// DefaultWindowStartHour anchors the rolling acquisition window. Fixtures are
// grouped into "days" starting at this local hour in the reference zone.
const DefaultWindowStartHour = 14

// Window computes the acquisition window containing now: start is today's
// anchor hour in loc, rolled back one day when now is before the anchor, and
// end is start + 24h - 1min. Both bounds are inclusive.
func Window(now time.Time, loc *time.Location, startHour int) (start, end time.Time) {
	if loc == nil {
		loc = time.UTC
	}
	if startHour < 0 || startHour > 23 {
		startHour = DefaultWindowStartHour
	}

	local := now.In(loc)
	start = time.Date(local.Year(), local.Month(), local.Day(), startHour, 0, 0, 0, loc)
	if local.Hour() < startHour {
		start = start.AddDate(0, 0, -1)
	}
	end = start.Add(24*time.Hour - time.Minute)
	return start, end
}

// InWindow reports whether t falls inside [start, end], bounds included.
func InWindow(t, start, end time.Time) bool {
	return !t.Before(start) && !t.After(end)
}
