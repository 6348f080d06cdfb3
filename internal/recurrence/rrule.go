package recurrence

import (
	"fmt"

	"github.com/teambition/rrule-go"

	"github.com/sandeepkv93/calendard/internal/dates"
	"github.com/sandeepkv93/calendard/internal/model"
)

// Options maps a repeat rule anchored at base onto an RFC 5545 rule. The
// BYMONTHDAY/BYMONTH parts pin the same skip-not-clamp semantics Expand
// applies, so the two agree for anchors the rule can reproduce.
func Options(base dates.Date, rule model.RepeatRule) (rrule.ROption, error) {
	if !rule.IsRecurring() {
		return rrule.ROption{}, fmt.Errorf("recurrence: %q rule has no rrule form", rule.Type)
	}
	if rule.Interval <= 0 {
		return rrule.ROption{}, fmt.Errorf("%w: %d", model.ErrInvalidInterval, rule.Interval)
	}

	day := base.Day
	if rule.Depth == model.DepthLastDayOfMonth {
		day = -1
	}

	opt := rrule.ROption{Interval: rule.Interval, Dtstart: base.Time()}
	switch rule.Type {
	case model.RepeatDaily:
		opt.Freq = rrule.DAILY
	case model.RepeatWeekly:
		opt.Freq = rrule.WEEKLY
	case model.RepeatMonthly:
		opt.Freq = rrule.MONTHLY
		opt.Bymonthday = []int{day}
	case model.RepeatYearly:
		opt.Freq = rrule.YEARLY
		opt.Bymonth = []int{int(base.Month)}
		opt.Bymonthday = []int{day}
	default:
		return rrule.ROption{}, fmt.Errorf("%w: %q", model.ErrInvalidRepeatType, rule.Type)
	}
	if rule.EndDate != nil {
		opt.Until = rule.EndDate.Time()
	}
	return opt, nil
}

// RRule renders the rule as the value of an RRULE property.
func RRule(base dates.Date, rule model.RepeatRule) (string, error) {
	opt, err := Options(base, rule)
	if err != nil {
		return "", err
	}
	return opt.RRuleString(), nil
}
