/*
Package calendar provides the working-day calendar.

PURPOSE:
  Counts business days per month for a given year and jurisdiction.
  A day is a working day when it is neither a weekend (Saturday/Sunday)
  nor a designated holiday. The rest of the engine never looks at raw
  dates - it consumes the per-month working-day counts produced here.

KEY CONCEPTS:
  - Calendar: immutable (year, holiday set) pair, built once per
    analysis run.
  - Jurisdiction presets: a small fixed table of recurring holidays
    keyed by jurisdiction code, used when the caller does not supply
    an explicit holiday list.

DESIGN PRINCIPLES:
  1. Immutability: a Calendar is never modified after construction.
  2. Degeneracy is fine: an empty holiday set yields a pure weekday
     count - never an error.
  3. Months are statically known: WorkingDaysByMonth returns a fixed
     12-slot array, no runtime-built keys.

USAGE:
  cal := calendar.New(2025, calendar.HolidaysFor("US", 2025))
  days := cal.WorkingDays(time.January)

SEE ALSO:
  - engine/run.go: feeds these counts into the metric pipeline
*/
package calendar

import (
	"time"
)

// civilDate is a calendar day without a time-of-day component.
type civilDate struct {
	year  int
	month time.Month
	day   int
}

func toCivil(t time.Time) civilDate {
	return civilDate{year: t.Year(), month: t.Month(), day: t.Day()}
}

// Calendar yields working-day counts for one year under one holiday set.
type Calendar struct {
	year     int
	holidays map[civilDate]struct{}
}

// New builds a calendar for the given year. Holidays outside the year are
// ignored. A nil or empty holiday slice is valid and degenerates to a pure
// weekday count.
func New(year int, holidays []time.Time) *Calendar {
	set := make(map[civilDate]struct{}, len(holidays))
	for _, h := range holidays {
		if h.Year() == year {
			set[toCivil(h)] = struct{}{}
		}
	}
	return &Calendar{year: year, holidays: set}
}

// Year returns the calendar year.
func (c *Calendar) Year() int { return c.year }

// IsWorkingDay reports whether the date is a business day: not a Saturday,
// not a Sunday, and not in the holiday set.
func (c *Calendar) IsWorkingDay(t time.Time) bool {
	wd := t.Weekday()
	if wd == time.Saturday || wd == time.Sunday {
		return false
	}
	_, holiday := c.holidays[toCivil(t)]
	return !holiday
}

// WorkingDays counts the business days in the given month of the calendar
// year. Months outside 1-12 count as zero.
func (c *Calendar) WorkingDays(month time.Month) int {
	if month < time.January || month > time.December {
		return 0
	}
	count := 0
	day := time.Date(c.year, month, 1, 0, 0, 0, 0, time.UTC)
	for day.Month() == month {
		if c.IsWorkingDay(day) {
			count++
		}
		day = day.AddDate(0, 0, 1)
	}
	return count
}

// WorkingDaysByMonth returns the counts for all twelve months, indexed by
// month-1. Computing the full year up front keeps the hot path of the
// metric calculator a plain array lookup.
func (c *Calendar) WorkingDaysByMonth() [12]int {
	var out [12]int
	for m := time.January; m <= time.December; m++ {
		out[m-1] = c.WorkingDays(m)
	}
	return out
}

// =============================================================================
// JURISDICTION PRESETS
// =============================================================================

// recurring holidays per jurisdiction, as (month, day, name) tuples.
var jurisdictionHolidays = map[string][]struct {
	month time.Month
	day   int
	name  string
}{
	"US": {
		{time.January, 1, "New Year's Day"},
		{time.July, 4, "Independence Day"},
		{time.December, 25, "Christmas Day"},
		{time.December, 31, "New Year's Eve"},
	},
}

// HolidaysFor returns the preset holiday dates for a jurisdiction code in the
// given year. Unknown jurisdictions return nil, which New accepts as an empty
// holiday set.
func HolidaysFor(jurisdiction string, year int) []time.Time {
	presets, ok := jurisdictionHolidays[jurisdiction]
	if !ok {
		return nil
	}
	dates := make([]time.Time, 0, len(presets))
	for _, p := range presets {
		dates = append(dates, time.Date(year, p.month, p.day, 0, 0, 0, 0, time.UTC))
	}
	return dates
}

// Jurisdictions lists the known jurisdiction codes.
func Jurisdictions() []string {
	codes := make([]string, 0, len(jurisdictionHolidays))
	for code := range jurisdictionHolidays {
		codes = append(codes, code)
	}
	return codes
}
