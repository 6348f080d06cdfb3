package recurrence

import (
	"github.com/google/uuid"

	"github.com/sandeepkv93/calendard/internal/dates"
	"github.com/sandeepkv93/calendard/internal/model"
)

// IDSource hands out fresh identifiers for events and recurrence groups.
type IDSource func() string

func NewUUID() string {
	return uuid.NewString()
}

// Materialize turns an occurrence list into concrete events. Every
// occurrence copies base except for its date and a fresh ID, and all of
// them share one new recurrence group id. A non-repeating base or an empty
// list returns base itself, untouched.
func Materialize(base model.Event, occurrences []dates.Date, newID IDSource) []model.Event {
	if !base.Repeat.IsRecurring() || len(occurrences) == 0 {
		return []model.Event{base}
	}
	if newID == nil {
		newID = NewUUID
	}

	group := newID()
	out := make([]model.Event, 0, len(occurrences))
	for _, d := range occurrences {
		ev := base.Clone()
		ev.ID = newID()
		ev.Date = d
		ev.RecurrenceGroupID = group
		out = append(out, ev)
	}
	return out
}
