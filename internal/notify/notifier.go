// Package notify decides which events are inside their reminder lead time.
package notify

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/sandeepkv93/calendard/internal/model"
)

type Notification struct {
	ID      string
	EventID string
	Message string
	At      time.Time
}

// Upcoming returns events that start within their lead time of now and
// whose id is not in notified. The window is 0 < minutesUntilStart <= lead.
func Upcoming(events []model.Event, now time.Time, notified map[string]struct{}, loc *time.Location) []model.Event {
	out := make([]model.Event, 0)
	for _, ev := range events {
		if ev.ID == "" {
			continue
		}
		if _, done := notified[ev.ID]; done {
			continue
		}
		if due(ev, now, loc) {
			out = append(out, ev)
		}
	}
	return out
}

func due(ev model.Event, now time.Time, loc *time.Location) bool {
	minutes := ev.StartAt(loc).Sub(now).Minutes()
	return minutes > 0 && minutes <= float64(ev.NotificationTime)
}

func Message(ev model.Event, now time.Time, loc *time.Location) string {
	left := int(ev.StartAt(loc).Sub(now).Round(time.Minute) / time.Minute)
	if left < 1 {
		left = 1
	}
	unit := "minutes"
	if left == 1 {
		unit = "minute"
	}
	return fmt.Sprintf("%s starts in %d %s (%s %s)", ev.Title, left, unit, ev.Date, ev.StartTime)
}

// Notifier owns the set of already-announced event ids. Ids enter the set
// through Mark and leave it only on Reset.
type Notifier struct {
	mu       sync.Mutex
	loc      *time.Location
	notified map[string]struct{}
}

func New(loc *time.Location) *Notifier {
	if loc == nil {
		loc = time.Local
	}
	return &Notifier{loc: loc, notified: make(map[string]struct{})}
}

// Due lists the reminders owed at now, soonest start first, without
// recording them. Callers that cannot always deliver pair it with Mark.
func (n *Notifier) Due(now time.Time, events []model.Event) []Notification {
	n.mu.Lock()
	defer n.mu.Unlock()

	hits := Upcoming(events, now, n.notified, n.loc)
	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].StartAt(n.loc).Before(hits[j].StartAt(n.loc))
	})
	out := make([]Notification, 0, len(hits))
	for _, ev := range hits {
		out = append(out, Notification{
			ID:      "notify-" + ev.ID,
			EventID: ev.ID,
			Message: Message(ev, now, n.loc),
			At:      now,
		})
	}
	return out
}

// Mark records ids as announced so later scans skip them.
func (n *Notifier) Mark(ids ...string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, id := range ids {
		n.notified[id] = struct{}{}
	}
}

func (n *Notifier) Notified(id string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	_, ok := n.notified[id]
	return ok
}

func (n *Notifier) Len() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.notified)
}

// Reset forgets every emitted id. Call it when the event list is replaced
// wholesale.
func (n *Notifier) Reset() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notified = make(map[string]struct{})
}
