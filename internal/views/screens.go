package views

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/sandeepkv93/calendard/internal/model"
	"github.com/sandeepkv93/calendard/internal/notify"
)

type HelpPanelData struct {
	Bindings []string
	HelpView string
}

// RenderEventTable lists events one per row in the order given.
func RenderEventTable(events []model.Event) string {
	if len(events) == 0 {
		return "(no events)"
	}
	t := table.New().
		Headers("ID", "DATE", "TIME", "TITLE", "LOCATION", "REPEAT").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle.Padding(0, 1)
			}
			return cellStyle
		})
	for _, ev := range events {
		t.Row(ev.ID, ev.Date.String(), timeRange(ev), ev.Title, ev.Location, repeatLabel(ev))
	}
	return t.String()
}

// RenderEvent shows every field of one event.
func RenderEvent(ev model.Event) string {
	var b strings.Builder
	fmt.Fprintf(&b, "id: %s\n", ev.ID)
	fmt.Fprintf(&b, "title: %s\n", ev.Title)
	fmt.Fprintf(&b, "when: %s %s\n", ev.Date, timeRange(ev))
	if ev.Location != "" {
		fmt.Fprintf(&b, "location: %s\n", ev.Location)
	}
	if ev.Category != "" {
		fmt.Fprintf(&b, "category: %s\n", ev.Category)
	}
	if ev.Description != "" {
		fmt.Fprintf(&b, "description: %s\n", ev.Description)
	}
	fmt.Fprintf(&b, "notify: %d min before\n", ev.NotificationTime)
	fmt.Fprintf(&b, "repeat: %s\n", repeatLabel(ev))
	if ev.RecurrenceGroupID != "" {
		fmt.Fprintf(&b, "group: %s\n", ev.RecurrenceGroupID)
	}
	return strings.TrimSpace(b.String())
}

// RenderConflicts is the overlap warning shown after a write. Empty input
// renders nothing.
func RenderConflicts(conflicts []model.Event) string {
	if len(conflicts) == 0 {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "warning: overlaps %d event(s)\n", len(conflicts))
	for _, ev := range conflicts {
		fmt.Fprintf(&b, "  %s %s %s\n", ev.Date, timeRange(ev), ev.Title)
	}
	return warningStyle.Render(strings.TrimRight(b.String(), "\n"))
}

// RenderAgendaLines is the narrow one-line-per-event listing used in side
// panels.
func RenderAgendaLines(events []model.Event) string {
	if len(events) == 0 {
		return "(no events)"
	}
	lines := make([]string, 0, len(events))
	for _, ev := range events {
		lines = append(lines, fmt.Sprintf("%s %s %s", ev.Date, ev.StartTime, ev.Title))
	}
	return strings.Join(lines, "\n")
}

// AgendaMarkdown groups events by date under one heading per day.
func AgendaMarkdown(title string, events []model.Event) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n", title)
	if len(events) == 0 {
		b.WriteString("\n_No events._\n")
		return b.String()
	}
	day := ""
	for _, ev := range events {
		if d := ev.Date.String(); d != day {
			day = d
			fmt.Fprintf(&b, "\n## %s %s\n\n", ev.Date.Weekday().String()[:3], d)
		}
		fmt.Fprintf(&b, "- **%s** %s", timeRange(ev), ev.Title)
		if ev.Location != "" {
			fmt.Fprintf(&b, " _@ %s_", ev.Location)
		}
		if ev.RecurrenceGroupID != "" {
			b.WriteString(" (repeats)")
		}
		b.WriteString("\n")
	}
	return b.String()
}

func RenderNotifications(active []notify.Notification, cursor int) string {
	if len(active) == 0 {
		return "(no active notifications)"
	}
	var b strings.Builder
	for i, n := range active {
		line := fmt.Sprintf("%s %s", n.At.Format("15:04:05"), n.Message)
		if i == cursor {
			b.WriteString(selectStyle.Render("> " + line))
		} else {
			b.WriteString("  " + line)
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func RenderHelpPanel(data HelpPanelData) string {
	var b strings.Builder
	b.WriteString("help:\n")
	for _, line := range data.Bindings {
		b.WriteString(line + "\n")
	}
	if data.HelpView != "" {
		b.WriteString("\n" + data.HelpView)
	}
	return strings.TrimSpace(b.String())
}

func timeRange(ev model.Event) string {
	return ev.StartTime.String() + "-" + ev.EndTime.String()
}

func repeatLabel(ev model.Event) string {
	r := ev.Repeat
	if !r.IsRecurring() {
		return "-"
	}
	label := string(r.Type)
	if r.Interval > 1 {
		label = fmt.Sprintf("every %d %s", r.Interval, r.Type)
	}
	if r.Type == model.RepeatMonthly || r.Type == model.RepeatYearly {
		label += " (" + r.Depth.String() + ")"
	}
	if r.EndDate != nil {
		label += " until " + r.EndDate.String()
	}
	return label
}
