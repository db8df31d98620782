package domain

import "time"

const (
	issueCutoffMonths            = 2
	inProgressCutoffBusinessDays = 7
)

// ReportWindows are the date boundaries for one standup run.
type ReportWindows struct {
	Now       time.Time
	Today     time.Time
	Yesterday time.Time

	// IssueCutoff excludes issues created before it.
	IssueCutoff time.Time
	// InProgressCutoff excludes in-progress transitions before it.
	InProgressCutoff time.Time

	YesterdayWindow Window
	TodayWindow     Window // start of today through now
	TodayCalendar   Window // the whole of today
}

// BuildWindows derives the reporting windows from now, in now's location.
func BuildWindows(now time.Time, holidays HolidaySet) ReportWindows {
	today := StartOfDay(now)
	yesterday := AddBusinessDays(today, -1, holidays)

	return ReportWindows{
		Now:              now,
		Today:            today,
		Yesterday:        yesterday,
		IssueCutoff:      AddMonthsClamped(today, -issueCutoffMonths),
		InProgressCutoff: AddBusinessDays(today, -inProgressCutoffBusinessDays, holidays),
		YesterdayWindow:  Window{Start: StartOfDay(yesterday), End: EndOfDay(yesterday)},
		TodayWindow:      Window{Start: today, End: now},
		TodayCalendar:    Window{Start: today, End: EndOfDay(today)},
	}
}

func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func EndOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, int(time.Second-time.Nanosecond), t.Location())
}

// AddMonthsClamped moves t by the given number of calendar months, clamping
// the day to the last day of the target month (Apr 30 - 2 months = Feb 28).
func AddMonthsClamped(t time.Time, months int) time.Time {
	first := time.Date(t.Year(), t.Month()+time.Month(months), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	lastDay := first.AddDate(0, 1, -1).Day()
	day := t.Day()
	if day > lastDay {
		day = lastDay
	}
	return time.Date(first.Year(), first.Month(), day, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}
