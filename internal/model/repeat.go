package model

import (
	"fmt"
	"strings"

	"github.com/sandeepkv93/calendard/internal/dates"
)

type RepeatType string

const (
	RepeatNone    RepeatType = "none"
	RepeatDaily   RepeatType = "daily"
	RepeatWeekly  RepeatType = "weekly"
	RepeatMonthly RepeatType = "monthly"
	RepeatYearly  RepeatType = "yearly"
)

func (t RepeatType) IsValid() bool {
	switch t {
	case RepeatNone, RepeatDaily, RepeatWeekly, RepeatMonthly, RepeatYearly:
		return true
	default:
		return false
	}
}

// Depth decides where monthly and yearly occurrences land when the anchor
// day is missing from a later month.
type Depth uint8

const (
	// DepthFixed keeps the anchor's day number and skips periods without it.
	DepthFixed Depth = iota
	// DepthLastDayOfMonth always lands on the final day of the target month.
	DepthLastDayOfMonth
)

func ParseDepth(s string) (Depth, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "fixed":
		return DepthFixed, nil
	case "last", "lastdayofmonth", "last_day_of_month", "last-day-of-month":
		return DepthLastDayOfMonth, nil
	default:
		return DepthFixed, fmt.Errorf("%w: %q", ErrInvalidDepth, s)
	}
}

func (d Depth) IsValid() bool {
	return d == DepthFixed || d == DepthLastDayOfMonth
}

func (d Depth) String() string {
	if d == DepthLastDayOfMonth {
		return "lastDayOfMonth"
	}
	return "fixed"
}

func (d Depth) MarshalText() ([]byte, error) {
	if !d.IsValid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidDepth, d)
	}
	return []byte(d.String()), nil
}

func (d *Depth) UnmarshalText(b []byte) error {
	parsed, err := ParseDepth(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

type RepeatRule struct {
	Type     RepeatType
	Interval int
	EndDate  *dates.Date
	Depth    Depth
}

func NoRepeat() RepeatRule {
	return RepeatRule{Type: RepeatNone, Interval: 1}
}

func (r RepeatRule) IsRecurring() bool {
	return r.Type != RepeatNone && r.Type != ""
}

// Validate checks the rule against the date of the event it repeats.
func (r RepeatRule) Validate(start dates.Date) error {
	if !r.Type.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidRepeatType, r.Type)
	}
	if !r.Depth.IsValid() {
		return fmt.Errorf("%w: %d", ErrInvalidDepth, r.Depth)
	}
	if !r.IsRecurring() {
		return nil
	}
	if r.Interval <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidInterval, r.Interval)
	}
	if r.EndDate != nil {
		if !r.EndDate.Valid() {
			return fmt.Errorf("%w: end date %s", ErrInvalidDate, r.EndDate)
		}
		if r.EndDate.Before(start) {
			return fmt.Errorf("%w: %s before %s", ErrEndBeforeStart, r.EndDate, start)
		}
	}
	return nil
}

func (r RepeatRule) clone() RepeatRule {
	out := r
	if r.EndDate != nil {
		end := *r.EndDate
		out.EndDate = &end
	}
	return out
}
