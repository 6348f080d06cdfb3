package dates

import (
	"errors"
	"testing"
	"time"
)

func TestIsLeapYear(t *testing.T) {
	cases := map[int]bool{
		2024: true,
		2023: false,
		1900: false,
		2000: true,
		2100: false,
		2400: true,
	}
	for year, want := range cases {
		if got := IsLeapYear(year); got != want {
			t.Fatalf("IsLeapYear(%d) = %v, want %v", year, got, want)
		}
	}
}

func TestDaysInMonth(t *testing.T) {
	cases := []struct {
		year  int
		month time.Month
		want  int
	}{
		{2024, time.February, 29},
		{2023, time.February, 28},
		{1900, time.February, 28},
		{2024, time.April, 30},
		{2024, time.November, 30},
		{2024, time.December, 31},
		{2025, time.January, 31},
	}
	for _, tc := range cases {
		if got := DaysInMonth(tc.year, tc.month); got != tc.want {
			t.Fatalf("DaysInMonth(%d, %s) = %d, want %d", tc.year, tc.month, got, tc.want)
		}
	}
}

func TestIsLastDayOfMonth(t *testing.T) {
	if !IsLastDayOfMonth(MustParse("2024-02-29")) {
		t.Fatal("expected 2024-02-29 to be month end")
	}
	if IsLastDayOfMonth(MustParse("2023-02-27")) {
		t.Fatal("did not expect 2023-02-27 to be month end")
	}
	if !IsLastDayOfMonth(MustParse("2023-02-28")) {
		t.Fatal("expected 2023-02-28 to be month end")
	}
}

func TestParseFormatRoundTrip(t *testing.T) {
	start := MustParse("2023-12-25")
	for i := 0; i < 800; i++ {
		d := start.AddDays(i)
		back, err := Parse(Format(d))
		if err != nil {
			t.Fatalf("parse %s: %v", d, err)
		}
		if back != d {
			t.Fatalf("round trip mismatch: %v != %v", back, d)
		}
	}
}

func TestParseRejectsInvalidDates(t *testing.T) {
	bad := []string{"2023-02-29", "2024-02-30", "2024-13-01", "2024-00-10", "2024-1-5", "20240105", "abcd-ef-gh", ""}
	for _, in := range bad {
		if _, err := Parse(in); !errors.Is(err, ErrInvalidDate) {
			t.Fatalf("Parse(%q) expected ErrInvalidDate, got %v", in, err)
		}
	}
}

func TestFormatZeroPads(t *testing.T) {
	if got := New(987, time.March, 4).String(); got != "0987-03-04" {
		t.Fatalf("unexpected format: %s", got)
	}
}

func TestWeekRangeSundayAnchored(t *testing.T) {
	// 2024-11-06 is a Wednesday.
	start, end := WeekRange(MustParse("2024-11-06"))
	if start.String() != "2024-11-03" || end.String() != "2024-11-09" {
		t.Fatalf("unexpected week range: %s..%s", start, end)
	}

	start, end = WeekRange(MustParse("2024-11-03"))
	if start.String() != "2024-11-03" || end.String() != "2024-11-09" {
		t.Fatalf("sunday should start its own week: %s..%s", start, end)
	}

	start, end = WeekRange(MustParse("2024-12-31"))
	if start.String() != "2024-12-29" || end.String() != "2025-01-04" {
		t.Fatalf("unexpected year-crossing week: %s..%s", start, end)
	}
}

func TestMonthRange(t *testing.T) {
	start, end := MonthRange(MustParse("2024-02-14"))
	if start.String() != "2024-02-01" || end.String() != "2024-02-29" {
		t.Fatalf("unexpected month range: %s..%s", start, end)
	}
}

func TestIsWithinRangeInclusive(t *testing.T) {
	start := MustParse("2024-11-01")
	end := MustParse("2024-11-30")
	if !IsWithinRange(start, start, end) || !IsWithinRange(end, start, end) {
		t.Fatal("range bounds must be inclusive")
	}
	if IsWithinRange(MustParse("2024-12-01"), start, end) {
		t.Fatal("date after range matched")
	}
	if IsWithinRange(MustParse("2024-10-31"), start, end) {
		t.Fatal("date before range matched")
	}
}

func TestAddMonthsCarriesYear(t *testing.T) {
	y, m := AddMonths(2024, time.November, 3)
	if y != 2025 || m != time.February {
		t.Fatalf("unexpected carry: %d-%s", y, m)
	}
	y, m = AddMonths(2024, time.January, 12)
	if y != 2025 || m != time.January {
		t.Fatalf("unexpected carry: %d-%s", y, m)
	}
}

func TestParseClock(t *testing.T) {
	c, err := ParseClock("09:05")
	if err != nil {
		t.Fatalf("parse clock: %v", err)
	}
	if c.Hour() != 9 || c.Minute() != 5 || c.String() != "09:05" {
		t.Fatalf("unexpected clock: %v", c)
	}
	for _, in := range []string{"24:00", "12:60", "9:05", "0905", "ab:cd"} {
		if _, err := ParseClock(in); !errors.Is(err, ErrInvalidClock) {
			t.Fatalf("ParseClock(%q) expected ErrInvalidClock, got %v", in, err)
		}
	}
}

func TestDateInPlacesWallClock(t *testing.T) {
	loc := time.FixedZone("KST", 9*60*60)
	got := MustParse("2024-11-01").In(loc, NewClock(10, 30))
	if got.Format("2006-01-02 15:04 MST") != "2024-11-01 10:30 KST" {
		t.Fatalf("unexpected time: %s", got)
	}
}
