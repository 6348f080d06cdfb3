package dates

import "time"

func IsLeapYear(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

func DaysInMonth(year int, month time.Month) int {
	switch month {
	case time.February:
		if IsLeapYear(year) {
			return 29
		}
		return 28
	case time.April, time.June, time.September, time.November:
		return 30
	default:
		return 31
	}
}

func IsLastDayOfMonth(d Date) bool {
	return d.Day == DaysInMonth(d.Year, d.Month)
}

// LastOfMonth returns the final day of the given month.
func LastOfMonth(year int, month time.Month) Date {
	return Date{Year: year, Month: month, Day: DaysInMonth(year, month)}
}

// AddMonths moves year/month by n months, carrying the year. The day is
// returned separately untouched; callers decide what to do when it does
// not exist in the target month.
func AddMonths(year int, month time.Month, n int) (int, time.Month) {
	total := year*12 + int(month-1) + n
	return total / 12, time.Month(total%12 + 1)
}

// WeekRange returns the Sunday-anchored week containing d.
func WeekRange(d Date) (Date, Date) {
	start := d.AddDays(-int(d.Weekday()))
	return start, start.AddDays(6)
}

func MonthRange(d Date) (Date, Date) {
	return Date{Year: d.Year, Month: d.Month, Day: 1}, LastOfMonth(d.Year, d.Month)
}

// IsWithinRange is inclusive on both ends.
func IsWithinRange(d, start, end Date) bool {
	return !d.Before(start) && !d.After(end)
}
