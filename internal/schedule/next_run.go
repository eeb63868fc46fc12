// Package schedule computes report-schedule run times and drives the
// background schedule runner.
package schedule

import (
	"time"

	apperr "github.com/tknelms/carkeeper/backend/internal/errors"
	"github.com/tknelms/carkeeper/backend/internal/models"
)

// Frequency of a report schedule.
type Frequency string

const (
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
)

// Defaults when a weekly schedule omits the weekday or a monthly one the
// day of month.
const (
	defaultDayOfWeek  = time.Monday
	defaultDayOfMonth = 1
)

// NextRun computes the first run time strictly after now: the target
// hour (minutes and seconds zero) is placed on a candidate date for the
// frequency, and if that candidate is not after now the schedule
// advances one period keeping the same time of day. Pure function of its
// arguments; now's location carries through.
//
// dayOfWeek (0=Sunday..6=Saturday) applies to weekly schedules,
// dayOfMonth (1..31) to monthly ones; nil picks the default (Monday, the
// 1st). A monthly day that overflows a short month rolls forward per
// time.Date normalization.
func NextRun(now time.Time, freq Frequency, hour int, dayOfWeek, dayOfMonth *int) (time.Time, error) {
	if hour < 0 || hour > 23 {
		return time.Time{}, apperr.Newf(apperr.ErrScheduleInvalid, "hour %d out of range 0..23", hour)
	}

	year, month, day := now.Date()
	loc := now.Location()

	switch freq {
	case FrequencyDaily:
		candidate := time.Date(year, month, day, hour, 0, 0, 0, loc)
		if !candidate.After(now) {
			candidate = candidate.AddDate(0, 0, 1)
		}
		return candidate, nil

	case FrequencyWeekly:
		target := defaultDayOfWeek
		if dayOfWeek != nil {
			if *dayOfWeek < 0 || *dayOfWeek > 6 {
				return time.Time{}, apperr.Newf(apperr.ErrScheduleInvalid, "dayOfWeek %d out of range 0..6", *dayOfWeek)
			}
			target = time.Weekday(*dayOfWeek)
		}
		ahead := (int(target) - int(now.Weekday()) + 7) % 7
		candidate := time.Date(year, month, day+ahead, hour, 0, 0, 0, loc)
		if !candidate.After(now) {
			candidate = candidate.AddDate(0, 0, 7)
		}
		return candidate, nil

	case FrequencyMonthly:
		target := defaultDayOfMonth
		if dayOfMonth != nil {
			if *dayOfMonth < 1 || *dayOfMonth > 31 {
				return time.Time{}, apperr.Newf(apperr.ErrScheduleInvalid, "dayOfMonth %d out of range 1..31", *dayOfMonth)
			}
			target = *dayOfMonth
		}
		candidate := time.Date(year, month, target, hour, 0, 0, 0, loc)
		if !candidate.After(now) {
			candidate = time.Date(year, month+1, target, hour, 0, 0, 0, loc)
		}
		return candidate, nil
	}

	return time.Time{}, apperr.Newf(apperr.ErrScheduleInvalid, "unknown frequency %q", freq)
}

// NextRunFor computes the next run of a persisted report schedule.
func NextRunFor(now time.Time, s models.ReportSchedule) (time.Time, error) {
	return NextRun(now, Frequency(s.Frequency), s.Hour, s.DayOfWeek, s.DayOfMonth)
}
