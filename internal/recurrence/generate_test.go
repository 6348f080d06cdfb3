package recurrence

import (
	"strings"
	"testing"

	"github.com/sandeepkv93/calendard/internal/dates"
	"github.com/sandeepkv93/calendard/internal/model"
)

func until(s string) *dates.Date {
	d := dates.MustParse(s)
	return &d
}

func formatAll(list []dates.Date) string {
	parts := make([]string, 0, len(list))
	for _, d := range list {
		parts = append(parts, d.String())
	}
	return strings.Join(parts, ",")
}

func TestDatesDailyPropertyHolds(t *testing.T) {
	starts := []string{"2024-01-01", "2024-02-28", "2023-12-30", "2024-06-15"}
	ends := []string{"2024-03-05", "2024-12-31", "2025-03-01"}
	for _, s := range starts {
		for _, e := range ends {
			for interval := 1; interval <= 10; interval++ {
				base := dates.MustParse(s)
				r := model.RepeatRule{Type: model.RepeatDaily, Interval: interval, EndDate: until(e)}
				list := Dates(base, r, DefaultLimits())
				if r.EndDate.Before(base) {
					if len(list) != 0 {
						t.Fatalf("%s..%s: end before base should yield nothing, got %v", s, e, list)
					}
					continue
				}
				if len(list) == 0 || list[0] != base {
					t.Fatalf("%s/%d: list must start at base, got %v", s, interval, list)
				}
				for i := 1; i < len(list); i++ {
					if list[i-1].AddDays(interval) != list[i] {
						t.Fatalf("%s/%d: gap between %s and %s", s, interval, list[i-1], list[i])
					}
				}
				last := list[len(list)-1]
				if last.After(*r.EndDate) {
					t.Fatalf("%s/%d: last %s after end %s", s, interval, last, e)
				}
				if !last.AddDays(interval).After(*r.EndDate) {
					t.Fatalf("%s/%d: stopped early at %s", s, interval, last)
				}
			}
		}
	}
}

func TestDatesEndDateInclusive(t *testing.T) {
	r := model.RepeatRule{Type: model.RepeatWeekly, Interval: 1, EndDate: until("2024-11-22")}
	got := formatAll(Dates(dates.MustParse("2024-11-01"), r, DefaultLimits()))
	if got != "2024-11-01,2024-11-08,2024-11-15,2024-11-22" {
		t.Fatalf("unexpected weekly list: %s", got)
	}
}

func TestDatesMonthlyFixedSkipsMissingDays(t *testing.T) {
	r := model.RepeatRule{Type: model.RepeatMonthly, Interval: 1, EndDate: until("2024-08-31")}
	got := formatAll(Dates(dates.MustParse("2024-01-31"), r, DefaultLimits()))
	want := "2024-01-31,2024-03-31,2024-05-31,2024-07-31,2024-08-31"
	if got != want {
		t.Fatalf("got %s\nwant %s", got, want)
	}
}

func TestDatesMonthlyLastDay(t *testing.T) {
	r := model.RepeatRule{Type: model.RepeatMonthly, Interval: 1, Depth: model.DepthLastDayOfMonth, EndDate: until("2025-02-28")}
	got := formatAll(Dates(dates.MustParse("2024-11-30"), r, DefaultLimits()))
	if got != "2024-11-30,2024-12-31,2025-01-31,2025-02-28" {
		t.Fatalf("unexpected last-day list: %s", got)
	}
}

func TestDatesYearlyLeapDay(t *testing.T) {
	r := model.RepeatRule{Type: model.RepeatYearly, Interval: 1, EndDate: until("2036-12-31")}
	got := formatAll(Dates(dates.MustParse("2024-02-29"), r, DefaultLimits()))
	if got != "2024-02-29,2028-02-29,2032-02-29,2036-02-29" {
		t.Fatalf("unexpected leap-day list: %s", got)
	}
}

func TestDatesSkippedPeriodDoesNotEndRule(t *testing.T) {
	// Every second month from the 31st: Sep and Nov have 30 days.
	r := model.RepeatRule{Type: model.RepeatMonthly, Interval: 2, EndDate: until("2025-03-31")}
	got := formatAll(Dates(dates.MustParse("2024-07-31"), r, DefaultLimits()))
	if got != "2024-07-31,2025-01-31,2025-03-31" {
		t.Fatalf("unexpected list: %s", got)
	}
}

func TestDatesEdgeCases(t *testing.T) {
	base := dates.MustParse("2024-11-01")

	if got := Dates(base, model.NoRepeat(), DefaultLimits()); formatAll(got) != "2024-11-01" {
		t.Fatalf("non-repeating rule should yield base only, got %v", got)
	}

	r := model.RepeatRule{Type: model.RepeatDaily, Interval: 1, EndDate: until("2024-10-31")}
	if got := Dates(base, r, DefaultLimits()); len(got) != 0 {
		t.Fatalf("end before base should yield nothing, got %v", got)
	}

	r = model.RepeatRule{Type: model.RepeatDaily, Interval: 1, EndDate: until("2024-11-01")}
	if got := Dates(base, r, DefaultLimits()); formatAll(got) != "2024-11-01" {
		t.Fatalf("end on base should yield base, got %v", got)
	}

	if got := Dates(dates.New(2023, 2, 29), model.RepeatRule{Type: model.RepeatDaily, Interval: 1}, DefaultLimits()); len(got) != 0 {
		t.Fatalf("invalid base should yield nothing, got %v", got)
	}

	if got := Dates(base, model.RepeatRule{Type: model.RepeatDaily, Interval: -2}, DefaultLimits()); len(got) != 0 {
		t.Fatalf("non-positive interval should yield nothing, got %v", got)
	}
}

func TestExpandUnboundedUsesCutoff(t *testing.T) {
	limits := Limits{Cutoff: dates.MustParse("2025-01-31")}
	r := model.RepeatRule{Type: model.RepeatMonthly, Interval: 1}
	res := Expand(dates.MustParse("2024-11-15"), r, limits)
	if formatAll(res.Dates) != "2024-11-15,2024-12-15,2025-01-15" || res.Truncated {
		t.Fatalf("unexpected cutoff expansion: %+v", res)
	}
}

func TestExpandBasePastCutoffYieldsBase(t *testing.T) {
	limits := Limits{Cutoff: dates.MustParse("2099-12-31")}
	base := dates.MustParse("2100-01-05")
	res := Expand(base, model.RepeatRule{Type: model.RepeatWeekly, Interval: 1}, limits)
	if formatAll(res.Dates) != "2100-01-05" || res.Truncated {
		t.Fatalf("open rule past the cutoff should keep its base, got %+v", res)
	}

	bounded := model.RepeatRule{Type: model.RepeatWeekly, Interval: 1, EndDate: until("2100-01-19")}
	if got := formatAll(Expand(base, bounded, limits).Dates); got != "2100-01-05,2100-01-12,2100-01-19" {
		t.Fatalf("explicit end date should win over the cutoff, got %s", got)
	}
}

func TestExpandCapsOccurrences(t *testing.T) {
	limits := Limits{MaxOccurrences: 10}
	res := Expand(dates.MustParse("2024-01-01"), model.RepeatRule{Type: model.RepeatDaily, Interval: 1}, limits)
	if len(res.Dates) != 10 || !res.Truncated {
		t.Fatalf("expected 10 truncated occurrences, got %d truncated=%v", len(res.Dates), res.Truncated)
	}
}

func TestExpandDefaultCapTerminatesOpenDailyRule(t *testing.T) {
	res := Expand(dates.MustParse("2024-01-01"), model.RepeatRule{Type: model.RepeatDaily, Interval: 1}, Limits{})
	if len(res.Dates) != DefaultMaxOccurrences || !res.Truncated {
		t.Fatalf("expected default cap, got %d", len(res.Dates))
	}
}
