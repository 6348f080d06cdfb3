package recurrence

import (
	"time"

	"github.com/sandeepkv93/calendard/internal/dates"
	"github.com/sandeepkv93/calendard/internal/model"
)

const (
	// DefaultMaxOccurrences caps a single expansion.
	DefaultMaxOccurrences = 5000
	// DefaultMaxSkips bounds consecutive empty periods. A fixed Feb 29 rule
	// needs at most three in a row for interval 1 and 400/gcd(interval, 400)
	// in the worst case.
	DefaultMaxSkips = 400
)

// DefaultCutoff ends rules that carry no end date.
var DefaultCutoff = dates.New(2099, time.December, 31)

// Limits bound one expansion. Zero fields fall back to the defaults.
type Limits struct {
	Cutoff         dates.Date
	MaxOccurrences int
	MaxSkips       int
}

func DefaultLimits() Limits {
	return Limits{
		Cutoff:         DefaultCutoff,
		MaxOccurrences: DefaultMaxOccurrences,
		MaxSkips:       DefaultMaxSkips,
	}
}

func (l Limits) normalized() Limits {
	if !l.Cutoff.Valid() {
		l.Cutoff = DefaultCutoff
	}
	if l.MaxOccurrences <= 0 {
		l.MaxOccurrences = DefaultMaxOccurrences
	}
	if l.MaxSkips <= 0 {
		l.MaxSkips = DefaultMaxSkips
	}
	return l
}

// Result is an expansion plus whether a safety cap cut it short.
type Result struct {
	Dates     []dates.Date
	Truncated bool
}

// Expand lists every occurrence date of rule starting at base, base first.
// The list stops at the rule's end date (inclusive) or, for open-ended
// rules, at the cutoff. An invalid base or an end date before base yields
// an empty list. A non-repeating rule, or an open-ended rule whose base is
// already past the cutoff, yields just base.
func Expand(base dates.Date, rule model.RepeatRule, limits Limits) Result {
	limits = limits.normalized()
	if !base.Valid() {
		return Result{}
	}
	if !rule.IsRecurring() {
		return Result{Dates: []dates.Date{base}}
	}
	if rule.Interval <= 0 {
		return Result{}
	}

	end := limits.Cutoff
	if rule.EndDate != nil {
		if !rule.EndDate.Valid() {
			return Result{}
		}
		end = *rule.EndDate
		if end.Before(base) {
			return Result{}
		}
	} else if end.Before(base) {
		return Result{Dates: []dates.Date{base}}
	}

	out := []dates.Date{base}
	skips := 0
	for periods := 1; ; periods++ {
		next, ok := Step(base, rule, periods)
		if !ok {
			skips++
			if skips > limits.MaxSkips {
				return Result{Dates: out}
			}
			continue
		}
		skips = 0
		if next.After(end) {
			return Result{Dates: out}
		}
		if len(out) == limits.MaxOccurrences {
			return Result{Dates: out, Truncated: true}
		}
		out = append(out, next)
	}
}

// Dates is Expand without the truncation flag.
func Dates(base dates.Date, rule model.RepeatRule, limits Limits) []dates.Date {
	return Expand(base, rule, limits).Dates
}
