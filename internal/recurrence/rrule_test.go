package recurrence

import (
	"strings"
	"testing"

	"github.com/teambition/rrule-go"

	"github.com/sandeepkv93/calendard/internal/dates"
	"github.com/sandeepkv93/calendard/internal/model"
)

// Expand must agree with an independent RFC 5545 engine for anchors the
// RRULE form can express exactly.
func TestExpandMatchesRRuleEngine(t *testing.T) {
	cases := []struct {
		name string
		base string
		rule model.RepeatRule
	}{
		{"daily", "2024-02-20", model.RepeatRule{Type: model.RepeatDaily, Interval: 3, EndDate: until("2024-04-01")}},
		{"weekly", "2024-12-20", model.RepeatRule{Type: model.RepeatWeekly, Interval: 2, EndDate: until("2025-03-01")}},
		{"monthly fixed 31st", "2024-01-31", model.RepeatRule{Type: model.RepeatMonthly, Interval: 1, EndDate: until("2025-12-31")}},
		{"monthly fixed 30th", "2024-01-30", model.RepeatRule{Type: model.RepeatMonthly, Interval: 1, EndDate: until("2024-12-31")}},
		{"monthly every third", "2024-08-31", model.RepeatRule{Type: model.RepeatMonthly, Interval: 3, EndDate: until("2027-01-01")}},
		{"monthly last day", "2024-11-30", model.RepeatRule{Type: model.RepeatMonthly, Interval: 1, Depth: model.DepthLastDayOfMonth, EndDate: until("2025-12-31")}},
		{"yearly leap day", "2024-02-29", model.RepeatRule{Type: model.RepeatYearly, Interval: 1, EndDate: until("2040-12-31")}},
		{"yearly leap day every 3", "2024-02-29", model.RepeatRule{Type: model.RepeatYearly, Interval: 3, EndDate: until("2080-12-31")}},
		{"yearly last day feb", "2024-02-29", model.RepeatRule{Type: model.RepeatYearly, Interval: 1, Depth: model.DepthLastDayOfMonth, EndDate: until("2030-12-31")}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			base := dates.MustParse(tc.base)
			opt, err := Options(base, tc.rule)
			if err != nil {
				t.Fatalf("options: %v", err)
			}
			r, err := rrule.NewRRule(opt)
			if err != nil {
				t.Fatalf("new rrule: %v", err)
			}
			want := make([]string, 0)
			for _, occ := range r.All() {
				want = append(want, dates.FromTime(occ).String())
			}
			got := formatAll(Dates(base, tc.rule, DefaultLimits()))
			if got != strings.Join(want, ",") {
				t.Fatalf("mismatch\n got  %s\n want %s", got, strings.Join(want, ","))
			}
		})
	}
}

func TestRRuleText(t *testing.T) {
	text, err := RRule(dates.MustParse("2024-11-30"), model.RepeatRule{Type: model.RepeatMonthly, Interval: 2, Depth: model.DepthLastDayOfMonth})
	if err != nil {
		t.Fatalf("rrule: %v", err)
	}
	if !strings.Contains(text, "FREQ=MONTHLY") || !strings.Contains(text, "INTERVAL=2") || !strings.Contains(text, "BYMONTHDAY=-1") {
		t.Fatalf("unexpected rrule text: %s", text)
	}

	if _, err := RRule(dates.MustParse("2024-11-30"), model.NoRepeat()); err == nil {
		t.Fatal("expected error for non-repeating rule")
	}
}
