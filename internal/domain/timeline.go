package domain

import "time"

// TimelineEntryType differentiates human notes, contact logs, and automatic records.
type TimelineEntryType string

const (
	TimelineNote         TimelineEntryType = "NOTE"
	TimelinePhone        TimelineEntryType = "PHONE"
	TimelineEmail        TimelineEntryType = "EMAIL"
	TimelineStatusChange TimelineEntryType = "STATUS_CHANGE"
)

// TimelineEntry is an append-only operational narrative record on a ticket. When it
// carries a next-action date, appending it also overwrites the ticket's next-action
// fields.
type TimelineEntry struct {
	ID             string
	TicketID       string
	EntryType      TimelineEntryType
	Body           string
	NextActionAt   string // date-only, YYYY-MM-DD; empty when not set
	NextActionNote string
	ActorID        string
	ActorName      string
	CreatedAt      time.Time
}
