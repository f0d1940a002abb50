package domain

import "time"

// AuditAction captures what a compliance-trail entry records.
type AuditAction string

const (
	AuditStatusChange AuditAction = "STATUS_CHANGE"
	AuditAdminRevert  AuditAction = "ADMIN_REVERT"
	AuditUpload       AuditAction = "UPLOAD"
)

// AuditEntry is the append-only compliance trail: who moved a ticket, when, from
// where to where, and why. Distinct from the timeline, which is the operational
// narrative shown to staff.
type AuditEntry struct {
	ID         string
	TicketID   string
	Action     AuditAction
	FromStatus *TicketStatus
	ToStatus   *TicketStatus
	Reason     string
	ActorID    string
	ActorName  string
	CreatedAt  time.Time
}
