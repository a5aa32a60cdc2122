// Package window maps wall-clock timestamps onto decision indices.  A study
// day starts at 04:00 relative to the user's enrollment anchor and is split
// into a fixed number of equal windows; the n-th window since the anchor has
// decision index n (1-based).
package window

import (
	"errors"
	"time"
)

const (
	// DayOffset shifts the anchor so that the study day begins at 04:00.
	DayOffset = 4 * time.Hour
	// DefaultPerDay is the number of decision windows per study day.
	DefaultPerDay = 2

	// MorningHour and EveningHour are the only hours a decision window may
	// start at.
	MorningHour = 4
	EveningHour = 16
)

// ErrInvalidWindowHour is returned when a decision window start is not at
// MorningHour or EveningHour.
var ErrInvalidWindowHour = errors.New("decision window must start at 04:00 or 16:00")

// Slot identifies which daily window a canonical window start belongs to.
type Slot int

const (
	Morning Slot = iota + 1
	Evening
)

func (s Slot) String() string {
	switch s {
	case Morning:
		return "morning"
	case Evening:
		return "evening"
	}
	return "unknown"
}

// SlotOf returns the slot for a decision window start.  Only the hour is
// inspected.
func SlotOf(start time.Time) (Slot, error) {
	switch start.Hour() {
	case MorningHour:
		return Morning, nil
	case EveningHour:
		return Evening, nil
	}
	return 0, ErrInvalidWindowHour
}

// ValidPerDay reports whether perDay windows a day keep the morning and
// evening starts in distinct windows.  It must divide 24 and be at least 2.
func ValidPerDay(perDay int) bool {
	return perDay >= 2 && 24%perDay == 0
}

// NextStart returns the first canonical window start (04:00 or 16:00)
// strictly after t.
func NextStart(t time.Time) time.Time {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	for _, h := range []int{MorningHour, EveningHour, 24 + MorningHour} {
		if c := day.Add(time.Duration(h) * time.Hour); c.After(t) {
			return c
		}
	}
	return day.Add((24 + EveningHour) * time.Hour)
}

// Index returns the decision index of requested relative to anchor.
//
// The elapsed whole hours between anchor+DayOffset and requested are
// bucketed into windows of 24/perDay hours using floor division, then
// shifted so the first window is 1.  Any requested time at or after the
// anchor yields at least 1; the hours between the anchor and the first
// 04:00 belong to the first window.  Results for requested before anchor
// follow the same arithmetic but carry no meaning.
func Index(anchor, requested time.Time, perDay int) int {
	if perDay <= 0 {
		perDay = DefaultPerDay
	}
	hours := floorDiv(int64(requested.Sub(anchor.Add(DayOffset))), int64(time.Hour))
	idx := int(floorDiv(hours*int64(perDay), 24)) + 1
	if idx < 1 && !requested.Before(anchor) {
		return 1
	}
	return idx
}

// Start returns the start time of the window with the given index.  When
// perDay divides 24 it inverts Index: Index(anchor, Start(anchor, i, w), w) == i.
func Start(anchor time.Time, idx, perDay int) time.Time {
	if perDay <= 0 {
		perDay = DefaultPerDay
	}
	length := 24 * time.Hour / time.Duration(perDay)
	return anchor.Add(DayOffset).Add(time.Duration(idx-1) * length)
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
