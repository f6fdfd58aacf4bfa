package types

import (
	"time"
)

// Ledger dates are day-granular: records carry a transaction date, not a
// timestamp. All dates are normalized to UTC midnight so that range
// comparisons behave like plain date comparisons.

// Day truncates t to UTC midnight.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Date builds a day-granular date.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// PreviousDay returns the day before t (UTC midnight).
func PreviousDay(t time.Time) time.Time {
	return Day(t).AddDate(0, 0, -1)
}

// MonthStart returns the first day of the given month.
func MonthStart(year int, month time.Month) time.Time {
	return time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
}

// MonthEnd returns the last day of the given month.
// time.Date normalizes day 0 of the next month to it.
func MonthEnd(year int, month time.Month) time.Time {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC)
}

// ShiftMonth returns the (year, month) pair offset months away,
// rolling over year boundaries in either direction.
func ShiftMonth(year int, month time.Month, offset int) (int, time.Month) {
	t := time.Date(year, month+time.Month(offset), 1, 0, 0, 0, 0, time.UTC)
	return t.Year(), t.Month()
}

// FiscalYearWindow returns the fiscal-year reporting window containing
// sensible defaults for an unspecified period: March 1 of the reference
// year through the end of February of the following year.
func FiscalYearWindow(ref time.Time) (start, end time.Time) {
	year := ref.Year()
	if ref.Month() < time.March {
		year--
	}
	start = time.Date(year, time.March, 1, 0, 0, 0, 0, time.UTC)
	end = MonthEnd(year+1, time.February)
	return start, end
}
