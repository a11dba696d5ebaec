package panel

import (
	"math"
	"time"
)

// Recommendation is the suggested next visit.
type Recommendation struct {
	Date time.Time
	// Mileage is nil when the repair order has no usable mileage.
	Mileage *int
}

// Today returns midnight of now's calendar day in loc.
func Today(now time.Time, loc *time.Location) time.Time {
	now = now.In(loc)
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
}

// Recommend computes today + months calendar months and mileage + miles.
//
// Month arithmetic follows [time.Time.AddDate], so Aug 31 + 6 months normalizes to Mar 3 (Mar 2 in
// leap years) rather than clamping to the end of February.
func Recommend(today time.Time, months, miles int, mileage *float64) Recommendation {
	rec := Recommendation{Date: today.AddDate(0, months, 0)}
	if mileage != nil && !math.IsNaN(*mileage) && !math.IsInf(*mileage, 0) {
		m := int(math.Round(*mileage)) + miles
		rec.Mileage = &m
	}
	return rec
}

// WindowSize is the number of weekdays offered.
const WindowSize = 5

// DateWindow returns Monday..Friday of the week containing base. Sunday belongs to the week of the
// preceding Monday.
func DateWindow(base time.Time) []time.Time {
	offset := int(base.Weekday()) - 1
	if base.Weekday() == time.Sunday {
		offset = 6
	}
	monday := time.Date(base.Year(), base.Month(), base.Day()-offset, 0, 0, 0, 0, base.Location())

	window := make([]time.Time, WindowSize)
	for i := range window {
		window[i] = monday.AddDate(0, 0, i)
	}
	return window
}

// DateKey formats t as YYYY-MM-DD in loc.
func DateKey(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(time.DateOnly)
}

// inWindow reports whether t falls on one of the window's calendar days.
func inWindow(window []time.Time, t time.Time, loc *time.Location) bool {
	key := DateKey(t, loc)
	for _, d := range window {
		if DateKey(d, loc) == key {
			return true
		}
	}
	return false
}
