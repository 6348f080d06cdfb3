// Package export converts events to and from iCalendar (RFC 5545) text.
package export

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	"github.com/sandeepkv93/calendard/internal/dates"
	"github.com/sandeepkv93/calendard/internal/model"
	"github.com/sandeepkv93/calendard/internal/recurrence"
)

const ProductID = "-//calendard//calendard//EN"

const (
	propertyRelatedTo = ical.ComponentProperty("RELATED-TO")
	propertyRule      = ical.ComponentProperty("X-CALENDARD-RRULE")
)

var ErrNoEvents = errors.New("export: calendar has no usable events")

type Options struct {
	Location *time.Location
	Now      time.Time
	Name     string
}

// ICS renders one VEVENT per stored occurrence. Occurrences are already
// materialized, so the rule travels in an X- property instead of RRULE to
// keep other clients from expanding it a second time.
func ICS(events []model.Event, opts Options) string {
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}
	stamp := opts.Now
	if stamp.IsZero() {
		stamp = time.Now()
	}

	cal := ical.NewCalendar()
	cal.SetProductId(ProductID)
	cal.SetMethod(ical.MethodPublish)
	if opts.Name != "" {
		cal.SetXWRCalName(opts.Name)
	}

	for _, ev := range events {
		ve := cal.AddEvent(ev.ID + "@calendard")
		ve.SetDtStampTime(stamp)
		ve.SetStartAt(ev.StartAt(loc))
		ve.SetEndAt(ev.EndAt(loc))
		ve.SetSummary(ev.Title)
		if ev.Description != "" {
			ve.SetDescription(ev.Description)
		}
		if ev.Location != "" {
			ve.SetLocation(ev.Location)
		}
		if ev.Category != "" {
			ve.SetProperty(ical.ComponentPropertyCategories, ev.Category)
		}
		if ev.RecurrenceGroupID != "" {
			ve.SetProperty(propertyRelatedTo, ev.RecurrenceGroupID+"@calendard")
			if rule, err := recurrence.RRule(ev.Date, ev.Repeat); err == nil {
				ve.SetProperty(propertyRule, rule)
			}
		}
		if ev.NotificationTime > 0 {
			alarm := ve.AddAlarm()
			alarm.SetAction(ical.ActionDisplay)
			alarm.SetTrigger(fmt.Sprintf("-PT%dM", ev.NotificationTime))
			alarm.SetProperty(ical.ComponentPropertyDescription, ev.Title)
		}
	}
	return cal.Serialize()
}

// Decode reads VEVENTs back into event forms. Events spanning midnight or
// lacking a start are skipped; the count of skipped entries is returned.
func Decode(r io.Reader, loc *time.Location) ([]model.EventForm, int, error) {
	if loc == nil {
		loc = time.Local
	}
	cal, err := ical.ParseCalendar(r)
	if err != nil {
		return nil, 0, fmt.Errorf("export: parse calendar: %w", err)
	}

	forms := make([]model.EventForm, 0)
	skipped := 0
	for _, ve := range cal.Events() {
		form, ok := decodeEvent(ve, loc)
		if !ok {
			skipped++
			continue
		}
		forms = append(forms, form)
	}
	if len(forms) == 0 && skipped > 0 {
		return nil, skipped, ErrNoEvents
	}
	return forms, skipped, nil
}

func decodeEvent(ve *ical.VEvent, loc *time.Location) (model.EventForm, bool) {
	start, err := ve.GetStartAt()
	if err != nil {
		return model.EventForm{}, false
	}
	end, err := ve.GetEndAt()
	if err != nil {
		end = start.Add(time.Hour)
	}
	start, end = start.In(loc), end.In(loc)
	if dates.FromTime(start) != dates.FromTime(end) {
		return model.EventForm{}, false
	}

	form := model.EventForm{
		Title:     propertyValue(ve, ical.ComponentPropertySummary),
		Date:      dates.FromTime(start).String(),
		StartTime: dates.NewClock(start.Hour(), start.Minute()).String(),
		EndTime:   dates.NewClock(end.Hour(), end.Minute()).String(),
		// golang-ical escapes commas and newlines on the way out; undo it here.
		Description: unescape(propertyValue(ve, ical.ComponentPropertyDescription)),
		Location:    unescape(propertyValue(ve, ical.ComponentPropertyLocation)),
		Category:    unescape(propertyValue(ve, ical.ComponentPropertyCategories)),
	}
	form.Title = unescape(form.Title)
	for _, alarm := range ve.Alarms() {
		if p := alarm.GetProperty(ical.ComponentPropertyTrigger); p != nil {
			if d, ok := parseLead(p.Value); ok {
				form.NotificationTime = d
				break
			}
		}
	}
	return form, true
}

func propertyValue(ve *ical.VEvent, prop ical.ComponentProperty) string {
	if p := ve.GetProperty(prop); p != nil {
		return p.Value
	}
	return ""
}

func unescape(s string) string {
	r := strings.NewReplacer(`\n`, "\n", `\N`, "\n", `\,`, ",", `\;`, ";", `\\`, `\`)
	return r.Replace(s)
}

// parseLead understands the -PT<n>M and -PT<n>H triggers ICS writes.
func parseLead(trigger string) (int, bool) {
	t := strings.ToUpper(strings.TrimSpace(trigger))
	if !strings.HasPrefix(t, "-PT") {
		return 0, false
	}
	body := strings.TrimPrefix(t, "-PT")
	var n int
	var unit string
	if _, err := fmt.Sscanf(body, "%d%s", &n, &unit); err != nil || n < 0 {
		return 0, false
	}
	switch unit {
	case "M":
		return n, true
	case "H":
		return n * 60, true
	default:
		return 0, false
	}
}
