package calendar

import (
	"fmt"

	"github.com/sandeepkv93/calendard/internal/dates"
	"github.com/sandeepkv93/calendard/internal/model"
	"github.com/sandeepkv93/calendard/internal/storage"
)

func toRow(ev model.Event) storage.Event {
	row := storage.Event{
		ID:                ev.ID,
		Title:             ev.Title,
		Description:       ev.Description,
		Location:          ev.Location,
		Category:          ev.Category,
		Date:              ev.Date.String(),
		StartTime:         ev.StartTime.String(),
		EndTime:           ev.EndTime.String(),
		NotificationTime:  ev.NotificationTime,
		RepeatType:        string(ev.Repeat.Type),
		RepeatInterval:    ev.Repeat.Interval,
		RepeatDepth:       ev.Repeat.Depth.String(),
		RecurrenceGroupID: ev.RecurrenceGroupID,
	}
	if ev.Repeat.EndDate != nil {
		until := ev.Repeat.EndDate.String()
		row.RepeatEndDate = &until
	}
	return row
}

func toRows(events []model.Event) []storage.Event {
	out := make([]storage.Event, 0, len(events))
	for _, ev := range events {
		out = append(out, toRow(ev))
	}
	return out
}

func fromRow(row storage.Event) (model.Event, error) {
	date, err := dates.Parse(row.Date)
	if err != nil {
		return model.Event{}, fmt.Errorf("calendar: event %s date: %w", row.ID, err)
	}
	start, err := dates.ParseClock(row.StartTime)
	if err != nil {
		return model.Event{}, fmt.Errorf("calendar: event %s start: %w", row.ID, err)
	}
	end, err := dates.ParseClock(row.EndTime)
	if err != nil {
		return model.Event{}, fmt.Errorf("calendar: event %s end: %w", row.ID, err)
	}
	depth, err := model.ParseDepth(row.RepeatDepth)
	if err != nil {
		return model.Event{}, fmt.Errorf("calendar: event %s: %w", row.ID, err)
	}
	ev := model.Event{
		ID:               row.ID,
		Title:            row.Title,
		Description:      row.Description,
		Location:         row.Location,
		Category:         row.Category,
		Date:             date,
		StartTime:        start,
		EndTime:          end,
		NotificationTime: row.NotificationTime,
		Repeat: model.RepeatRule{
			Type:     model.RepeatType(row.RepeatType),
			Interval: row.RepeatInterval,
			Depth:    depth,
		},
		RecurrenceGroupID: row.RecurrenceGroupID,
	}
	if row.RepeatEndDate != nil {
		until, err := dates.Parse(*row.RepeatEndDate)
		if err != nil {
			return model.Event{}, fmt.Errorf("calendar: event %s repeat end: %w", row.ID, err)
		}
		ev.Repeat.EndDate = &until
	}
	if err := ev.Validate(); err != nil {
		return model.Event{}, fmt.Errorf("calendar: stored event %s: %w", row.ID, err)
	}
	return ev, nil
}

func fromRows(rows []storage.Event) ([]model.Event, error) {
	out := make([]model.Event, 0, len(rows))
	for _, row := range rows {
		ev, err := fromRow(row)
		if err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	return out, nil
}
