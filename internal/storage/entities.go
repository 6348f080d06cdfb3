package storage

import "time"

// Event is the persisted row. Dates and clocks keep their textual form
// (YYYY-MM-DD, HH:MM) so lexical order matches calendar order.
type Event struct {
	ID                string
	Title             string
	Description       string
	Location          string
	Category          string
	Date              string
	StartTime         string
	EndTime           string
	NotificationTime  int
	RepeatType        string
	RepeatInterval    int
	RepeatEndDate     *string
	RepeatDepth       string
	RecurrenceGroupID string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// EventListFilter bounds ListEvents. From and To are inclusive dates; empty
// values leave that side open.
type EventListFilter struct {
	GroupID string
	From    string
	To      string
	Limit   int
	Offset  int
}
