package model

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sandeepkv93/calendard/internal/dates"
)

var (
	ErrValidation              = errors.New("model: validation failed")
	ErrTitleRequired           = errors.New("model: event title is required")
	ErrInvalidDate             = errors.New("model: invalid event date")
	ErrInvalidTime             = errors.New("model: invalid event time")
	ErrTimeOrder               = errors.New("model: start time must be before end time")
	ErrInvalidNotificationTime = errors.New("model: invalid notification time")
	ErrInvalidRepeatType       = errors.New("model: invalid repeat type")
	ErrInvalidInterval         = errors.New("model: invalid repeat interval")
	ErrInvalidDepth            = errors.New("model: invalid repeat depth")
	ErrEndBeforeStart          = errors.New("model: repeat end date is before event date")
)

type Event struct {
	ID                string
	Title             string
	Description       string
	Location          string
	Category          string
	Date              dates.Date
	StartTime         dates.Clock
	EndTime           dates.Clock
	NotificationTime  int
	Repeat            RepeatRule
	RecurrenceGroupID string
}

func (e Event) Validate() error {
	if strings.TrimSpace(e.Title) == "" {
		return ErrTitleRequired
	}
	if !e.Date.Valid() {
		return fmt.Errorf("%w: %s", ErrInvalidDate, e.Date)
	}
	if !e.StartTime.Valid() || !e.EndTime.Valid() {
		return fmt.Errorf("%w: %s-%s", ErrInvalidTime, e.StartTime, e.EndTime)
	}
	if e.StartTime >= e.EndTime {
		return fmt.Errorf("%w: %s-%s", ErrTimeOrder, e.StartTime, e.EndTime)
	}
	if e.NotificationTime < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidNotificationTime, e.NotificationTime)
	}
	if err := e.Repeat.Validate(e.Date); err != nil {
		return err
	}
	return nil
}

// StartAt places the event start on the wall clock of loc.
func (e Event) StartAt(loc *time.Location) time.Time {
	return e.Date.In(loc, e.StartTime)
}

func (e Event) EndAt(loc *time.Location) time.Time {
	return e.Date.In(loc, e.EndTime)
}

// Clone returns a copy that shares no pointers with e.
func (e Event) Clone() Event {
	out := e
	out.Repeat = e.Repeat.clone()
	return out
}

// Detach turns the event into a standalone one outside any recurrence group.
func (e Event) Detach() Event {
	out := e.Clone()
	out.Repeat = NoRepeat()
	out.RecurrenceGroupID = ""
	return out
}
