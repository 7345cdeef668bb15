// Package calib holds the calibration rules shared by the API, the workflow
// and the scheduler: due-date arithmetic, form validation and reading
// evaluation.
package calib

import (
	"sort"
	"strings"
	"time"

	"calibration-qa-backend/internal/model"
)

const (
	// DefaultIntervalMonths is the rollover applied when settings carry none.
	DefaultIntervalMonths = 6
	// DefaultDueSoonDays is the dashboard "due soon" window.
	DefaultDueSoonDays = 7
)

// AllowedIntervals are the intervals selectable in settings.
var AllowedIntervals = []int{6, 12, 24}

// Today returns the current calendar date in loc.
func Today(loc *time.Location) model.Date {
	if loc == nil {
		loc = time.UTC
	}
	return model.DateOf(time.Now().In(loc))
}

// NextDue returns the next calibration date after a calibration on date.
func NextDue(date model.Date, months int) model.Date {
	if months <= 0 {
		months = DefaultIntervalMonths
	}
	return date.AddMonths(months)
}

// DaysLeft returns the number of days from today until next. Dates carry no
// time of day, so this equals the ceiling of the fractional difference.
func DaysLeft(today, next model.Date) int {
	return today.DaysUntil(next)
}

// IsDueSoon reports whether today <= next <= today+window.
func IsDueSoon(next, today model.Date, window int) bool {
	if next.IsZero() {
		return false
	}
	return !next.Before(today) && !next.After(today.AddDays(window))
}

// DueSoon is an instrument inside the due-soon window.
type DueSoon struct {
	Instrument model.Instrument `json:"instrument"`
	DaysLeft   int              `json:"daysLeft"`
}

// FilterDueSoon keeps the instruments due within window days, soonest first.
func FilterDueSoon(instruments []model.Instrument, today model.Date, window int) []DueSoon {
	out := make([]DueSoon, 0)
	for _, inst := range instruments {
		if IsDueSoon(inst.NextCalibration, today, window) {
			out = append(out, DueSoon{Instrument: inst, DaysLeft: DaysLeft(today, inst.NextCalibration)})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].DaysLeft < out[j].DaysLeft })
	return out
}

// MatchesSearch is the case-insensitive substring match on code or name.
func MatchesSearch(inst model.Instrument, term string) bool {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return true
	}
	return strings.Contains(strings.ToLower(inst.Code), term) ||
		strings.Contains(strings.ToLower(inst.Name), term)
}

// MatchesSchedule reports whether inst is due in the given month and year
// and matches term. A zero month or year matches any.
func MatchesSchedule(inst model.Instrument, month time.Month, year int, term string) bool {
	next := inst.NextCalibration
	if next.IsZero() {
		return false
	}
	if month != 0 && next.Month() != month {
		return false
	}
	if year != 0 && next.Year() != year {
		return false
	}
	return MatchesSearch(inst, term)
}

// MonthBounds returns [first day of month, first day of next month).
func MonthBounds(year int, month time.Month) (model.Date, model.Date) {
	start := model.NewDate(year, month, 1)
	return start, start.AddMonths(1)
}
