package search

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sandeepkv93/calendard/internal/dates"
	"github.com/sandeepkv93/calendard/internal/model"
)

type View string

const (
	ViewWeek  View = "week"
	ViewMonth View = "month"
)

func ParseView(s string) (View, error) {
	switch View(strings.ToLower(strings.TrimSpace(s))) {
	case "", ViewWeek:
		return ViewWeek, nil
	case ViewMonth:
		return ViewMonth, nil
	default:
		return "", fmt.Errorf("search: unknown view %q", s)
	}
}

// Range returns the inclusive date window the view shows around current.
func (v View) Range(current dates.Date) (dates.Date, dates.Date) {
	if v == ViewMonth {
		return dates.MonthRange(current)
	}
	return dates.WeekRange(current)
}

// ByText keeps events whose title, description or location contains term,
// ignoring case. A blank term keeps everything.
func ByText(events []model.Event, term string) []model.Event {
	needle := strings.ToLower(strings.TrimSpace(term))
	if needle == "" {
		return events
	}
	out := make([]model.Event, 0, len(events))
	for _, ev := range events {
		if strings.Contains(strings.ToLower(ev.Title), needle) ||
			strings.Contains(strings.ToLower(ev.Description), needle) ||
			strings.Contains(strings.ToLower(ev.Location), needle) {
			out = append(out, ev)
		}
	}
	return out
}

func ByView(events []model.Event, current dates.Date, view View) []model.Event {
	start, end := view.Range(current)
	return ByRange(events, start, end)
}

func ByRange(events []model.Event, start, end dates.Date) []model.Event {
	out := make([]model.Event, 0, len(events))
	for _, ev := range events {
		if dates.IsWithinRange(ev.Date, start, end) {
			out = append(out, ev)
		}
	}
	return out
}

// Filter narrows by text first, then by the view window, and orders the
// result by date and start time.
func Filter(events []model.Event, term string, current dates.Date, view View) []model.Event {
	out := ByView(ByText(events, term), current, view)
	Sort(out)
	return out
}

func Sort(events []model.Event) {
	sort.SliceStable(events, func(i, j int) bool {
		if c := events[i].Date.Compare(events[j].Date); c != 0 {
			return c < 0
		}
		return events[i].StartTime < events[j].StartTime
	})
}
