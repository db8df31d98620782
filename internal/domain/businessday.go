package domain

import (
	"fmt"
	"log"
	"strings"
	"time"
)

const dateKeyLayout = "2006-01-02"

// HolidaySet holds holiday dates keyed as YYYY-MM-DD.
type HolidaySet map[string]struct{}

// ParseHolidays normalizes configured holiday entries. Entries may be plain
// dates (2006-01-02 or 2006/01/02) or RFC 3339 timestamps, which are converted
// to loc before taking the date.
func ParseHolidays(entries []string, loc *time.Location) (HolidaySet, error) {
	if loc == nil {
		loc = time.Local
	}
	set := make(HolidaySet, len(entries))
	for _, raw := range entries {
		entry := strings.TrimSpace(raw)
		if entry == "" {
			continue
		}
		key, err := holidayKey(entry, loc)
		if err != nil {
			return nil, err
		}
		set[key] = struct{}{}
	}
	return set, nil
}

func holidayKey(entry string, loc *time.Location) (string, error) {
	for _, layout := range []string{dateKeyLayout, "2006/01/02"} {
		if d, err := time.ParseInLocation(layout, entry, loc); err == nil {
			return d.Format(dateKeyLayout), nil
		}
	}
	if ts, err := time.Parse(time.RFC3339, entry); err == nil {
		return ts.In(loc).Format(dateKeyLayout), nil
	}
	return "", fmt.Errorf("unrecognized holiday date %q (want YYYY-MM-DD)", entry)
}

func (h HolidaySet) Contains(date time.Time) bool {
	_, ok := h[date.Format(dateKeyLayout)]
	return ok
}

func IsWeekend(date time.Time) bool {
	wd := date.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// IsBusinessDay reports whether date is neither a weekend nor a holiday.
func IsBusinessDay(date time.Time, holidays HolidaySet) bool {
	return !IsWeekend(date) && !holidays.Contains(date)
}

// AddBusinessDays steps one calendar day at a time in the direction of n and
// counts only business days, so the result is never a weekend or holiday
// unless n is zero.
func AddBusinessDays(start time.Time, n int, holidays HolidaySet) time.Time {
	step := 1
	remaining := n
	if n < 0 {
		step = -1
		remaining = -n
	}

	date := start
	for remaining > 0 {
		date = date.AddDate(0, 0, step)
		if IsWeekend(date) {
			continue
		}
		if holidays.Contains(date) {
			log.Printf("business days skipping holiday date=%s", date.Format(dateKeyLayout))
			continue
		}
		remaining--
	}
	return date
}
