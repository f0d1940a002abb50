package events

import (
	"time"

	"github.com/felipe2640/garantias-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated       EventType = "ticket_created"
	EventTicketStatusChanged EventType = "ticket_status_changed"
	EventTicketReverted      EventType = "ticket_reverted"
	EventTimelineAdded       EventType = "ticket_timeline_added"
	EventAttachmentAdded     EventType = "ticket_attachment_added"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string       `json:"id"`
	Type      EventType    `json:"type"`
	TenantID  string       `json:"tenant_id"`
	TicketID  string       `json:"ticket_id"`
	Actor     domain.Actor `json:"actor"`
	Timestamp time.Time    `json:"timestamp"`
	Payload   interface{}  `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	StoreID      string `json:"store_id"`
	CustomerName string `json:"customer_name"`
	SaleNumber   string `json:"sale_number,omitempty"`
}

// TicketStatusChangedPayload payload.
type TicketStatusChangedPayload struct {
	FromStatus domain.TicketStatus `json:"from_status"`
	ToStatus   domain.TicketStatus `json:"to_status"`
	DueDate    string              `json:"due_date,omitempty"`
}

// TicketRevertedPayload payload.
type TicketRevertedPayload struct {
	FromStatus domain.TicketStatus `json:"from_status"`
	ToStatus   domain.TicketStatus `json:"to_status"`
	Reason     string              `json:"reason"`
}

// TimelineAddedPayload payload.
type TimelineAddedPayload struct {
	EntryID      string                   `json:"entry_id"`
	EntryType    domain.TimelineEntryType `json:"entry_type"`
	NextActionAt string                   `json:"next_action_at,omitempty"`
}

// AttachmentAddedPayload payload.
type AttachmentAddedPayload struct {
	AttachmentID string                    `json:"attachment_id"`
	Category     domain.AttachmentCategory `json:"category"`
	FileName     string                    `json:"file_name"`
}
