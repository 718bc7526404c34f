package match

import "strings"

// Status is the closed classification of the feed's free-text status values.
type Status string

const (
	StatusScheduled    Status = "SCHEDULED"
	StatusFinal        Status = "FINAL"
	StatusUnclassified Status = "UNCLASSIFIED"
)

var scheduledCodes = map[string]struct{}{
	"STATUS_SCHEDULED": {},
	"SCHEDULED":        {},
}

var finalCodes = map[string]struct{}{
	"STATUS_FINAL":     {},
	"FINAL":            {},
	"STATUS_FULL_TIME": {},
	"FULL_TIME":        {},
}

// Classify maps an upstream free-text status to the closed set. Anything not
// recognised as scheduled or final is unclassified, which covers in-progress,
// halftime and every other state the feed may invent.
func Classify(raw string) Status {
	code := strings.ToUpper(strings.TrimSpace(raw))
	if _, ok := scheduledCodes[code]; ok {
		return StatusScheduled
	}
	if _, ok := finalCodes[code]; ok {
		return StatusFinal
	}
	return StatusUnclassified
}

func IsScheduled(raw string) bool { return Classify(raw) == StatusScheduled }

func IsFinal(raw string) bool { return Classify(raw) == StatusFinal }
