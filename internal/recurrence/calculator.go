package recurrence

import (
	"github.com/sandeepkv93/calendard/internal/dates"
	"github.com/sandeepkv93/calendard/internal/model"
)

// Step computes the candidate that lies the given number of whole intervals
// after anchor, keeping the anchor's own day number. The boolean is false
// when that period has no matching day (a fixed 31st in a 30-day month, a
// fixed Feb 29 in a common year) or when the anchor itself is not a real
// date; such periods produce no occurrence and are skipped, never clamped.
func Step(anchor dates.Date, rule model.RepeatRule, periods int) (dates.Date, bool) {
	if !anchor.Valid() || periods < 0 || rule.Interval <= 0 {
		return dates.Date{}, false
	}
	n := periods * rule.Interval

	var out dates.Date
	switch rule.Type {
	case model.RepeatDaily:
		out = anchor.AddDays(n)
	case model.RepeatWeekly:
		out = anchor.AddDays(7 * n)
	case model.RepeatMonthly:
		y, m := dates.AddMonths(anchor.Year, anchor.Month, n)
		if rule.Depth == model.DepthLastDayOfMonth {
			out = dates.LastOfMonth(y, m)
			break
		}
		if anchor.Day > dates.DaysInMonth(y, m) {
			return dates.Date{}, false
		}
		out = dates.New(y, m, anchor.Day)
	case model.RepeatYearly:
		y := anchor.Year + n
		if rule.Depth == model.DepthLastDayOfMonth {
			out = dates.LastOfMonth(y, anchor.Month)
			break
		}
		if anchor.Day > dates.DaysInMonth(y, anchor.Month) {
			return dates.Date{}, false
		}
		out = dates.New(y, anchor.Month, anchor.Day)
	default:
		return dates.Date{}, false
	}

	if !out.Valid() {
		return dates.Date{}, false
	}
	return out, true
}

// Next returns the first valid occurrence after anchor. Empty periods are
// skipped; the search gives up after DefaultMaxSkips of them in a row.
func Next(anchor dates.Date, rule model.RepeatRule) (dates.Date, bool) {
	return nextWithin(anchor, rule, DefaultMaxSkips)
}

func nextWithin(anchor dates.Date, rule model.RepeatRule, maxSkips int) (dates.Date, bool) {
	if !rule.IsRecurring() {
		return dates.Date{}, false
	}
	for periods := 1; periods <= maxSkips+1; periods++ {
		if next, ok := Step(anchor, rule, periods); ok {
			return next, true
		}
	}
	return dates.Date{}, false
}
