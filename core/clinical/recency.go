package clinical

import (
	"math"
	"time"
)

const (
	// freshWindow is the age below which an observation counts as current.
	freshWindow = 30 * 24 * time.Hour

	// decayScaleDays controls how fast weight falls off past the window.
	decayScaleDays = 180.0

	// recencyFloor keeps old but present observations from vanishing.
	recencyFloor = 0.1

	// recencyNeutral is used when the date is missing or unparseable.
	recencyNeutral = 0.5
)

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02",
	"2006-01-02 15:04:05",
}

// Recency maps a date string onto an edge weight in [recencyFloor, 1].
// Dates within the fresh window weigh 1.0, older dates decay exponentially
// toward the floor, and missing or unparseable dates fall back to the
// neutral weight. Never fails.
func Recency(date string, now time.Time) float64 {
	if date == "" {
		return recencyNeutral
	}

	parsed, ok := parseDate(date)
	if !ok {
		return recencyNeutral
	}

	age := now.Sub(parsed)
	if age <= freshWindow {
		return 1.0
	}

	excessDays := (age - freshWindow).Hours() / 24
	w := math.Exp(-excessDays / decayScaleDays)
	if w < recencyFloor {
		return recencyFloor
	}
	return w
}

func parseDate(s string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
