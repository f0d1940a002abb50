package dto

import (
	"time"

	"github.com/felipe2640/garantias-service/internal/domain"
)

// CreateTicketRequest is the intake payload.
type CreateTicketRequest struct {
	StoreID           string `json:"store_id" validate:"required"`
	CustomerName      string `json:"customer_name" validate:"required"`
	CustomerPhone     string `json:"customer_phone"`
	CustomerDocument  string `json:"customer_document"`
	SaleNumber        string `json:"sale_number"`
	PartDescription   string `json:"part_description" validate:"required"`
	DefectDescription string `json:"defect_description" validate:"required"`
}

// EditTicketRequest updates descriptive fields. Absent fields stay unchanged.
type EditTicketRequest struct {
	CustomerName          *string `json:"customer_name"`
	CustomerPhone         *string `json:"customer_phone"`
	CustomerDocument      *string `json:"customer_document"`
	SaleNumber            *string `json:"sale_number"`
	PartDescription       *string `json:"part_description"`
	DefectDescription     *string `json:"defect_description"`
	OutboundInvoiceNumber *string `json:"outbound_invoice_number"`
	SentToSupplierAt      *string `json:"sent_to_supplier_at" validate:"omitempty,datetime=2006-01-02"`
}

// AdvanceTicketRequest carries stage-specific values for a forward transition.
type AdvanceTicketRequest struct {
	SupplierID       string                  `json:"supplier_id"`
	SupplierResponse string                  `json:"supplier_response"`
	ResolutionResult domain.ResolutionResult `json:"resolution_result" validate:"omitempty,oneof=CREDITO TROCA NEGADO"`
	ResolutionNotes  string                  `json:"resolution_notes"`
}

// RevertTicketRequest moves a ticket back to an earlier stage. Admin only.
type RevertTicketRequest struct {
	TargetStatus domain.TicketStatus `json:"target_status" validate:"required"`
	Reason       string              `json:"reason" validate:"required"`
}

// TimelineEntryRequest appends a manual timeline entry.
type TimelineEntryRequest struct {
	EntryType      domain.TimelineEntryType `json:"entry_type" validate:"required,oneof=NOTE PHONE EMAIL"`
	Body           string                   `json:"body" validate:"required"`
	NextActionAt   string                   `json:"next_action_at" validate:"omitempty,datetime=2006-01-02"`
	NextActionNote string                   `json:"next_action_note"`
}

// AttachmentRequest registers a file already placed with the storage provider.
type AttachmentRequest struct {
	Category   domain.AttachmentCategory `json:"category" validate:"required,oneof=NOTA_FISCAL CANHOTO FOTO OUTROS"`
	StorageKey string                    `json:"storage_key" validate:"required"`
	FileName   string                    `json:"file_name" validate:"required"`
}

// TicketSummary is the listing projection.
type TicketSummary struct {
	ID              string              `json:"id"`
	StoreID         string              `json:"store_id"`
	Status          domain.TicketStatus `json:"status"`
	CustomerName    string              `json:"customer_name"`
	PartDescription string              `json:"part_description"`
	SupplierID      *string             `json:"supplier_id"`
	SupplierName    *string             `json:"supplier_name"`
	DueDate         string              `json:"due_date,omitempty"`
	NextActionAt    string              `json:"next_action_at,omitempty"`
	NextActionNote  string              `json:"next_action_note,omitempty"`
	IsClosed        bool                `json:"is_closed"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
}

// TicketDetailResponse provides full ticket state plus stage history.
type TicketDetailResponse struct {
	ID      string              `json:"id"`
	StoreID string              `json:"store_id"`
	Status  domain.TicketStatus `json:"status"`
	Version int64               `json:"version"`

	CustomerName      string `json:"customer_name"`
	CustomerPhone     string `json:"customer_phone"`
	CustomerDocument  string `json:"customer_document"`
	SaleNumber        string `json:"sale_number"`
	PartDescription   string `json:"part_description"`
	DefectDescription string `json:"defect_description"`

	SupplierID   *string `json:"supplier_id"`
	SupplierName *string `json:"supplier_name"`
	SLADays      *int    `json:"sla_days"`

	OutboundInvoiceNumber string     `json:"outbound_invoice_number,omitempty"`
	SentToSupplierAt      string     `json:"sent_to_supplier_at,omitempty"`
	DeliveredToSupplierAt *time.Time `json:"delivered_to_supplier_at"`
	DueDate               string     `json:"due_date,omitempty"`

	NextActionAt   string `json:"next_action_at,omitempty"`
	NextActionNote string `json:"next_action_note,omitempty"`

	SupplierResponse string                   `json:"supplier_response,omitempty"`
	ResolutionResult *domain.ResolutionResult `json:"resolution_result"`
	ResolutionNotes  string                   `json:"resolution_notes,omitempty"`

	IsClosed bool       `json:"is_closed"`
	ClosedAt *time.Time `json:"closed_at"`

	StageHistory []StageRecordResponse `json:"stage_history"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// StageRecordResponse is one stage-history entry.
type StageRecordResponse struct {
	ID          string              `json:"id"`
	Status      domain.TicketStatus `json:"status"`
	CompletedAt time.Time           `json:"completed_at"`
	ActorID     string              `json:"actor_id"`
	ActorName   string              `json:"actor_name"`
}

// TimelineEntryResponse is one timeline record.
type TimelineEntryResponse struct {
	ID             string                   `json:"id"`
	EntryType      domain.TimelineEntryType `json:"entry_type"`
	Body           string                   `json:"body"`
	NextActionAt   string                   `json:"next_action_at,omitempty"`
	NextActionNote string                   `json:"next_action_note,omitempty"`
	ActorID        string                   `json:"actor_id"`
	ActorName      string                   `json:"actor_name"`
	CreatedAt      time.Time                `json:"created_at"`
}

// AuditEntryResponse is one compliance-trail record.
type AuditEntryResponse struct {
	ID         string               `json:"id"`
	Action     domain.AuditAction   `json:"action"`
	FromStatus *domain.TicketStatus `json:"from_status"`
	ToStatus   *domain.TicketStatus `json:"to_status"`
	Reason     string               `json:"reason,omitempty"`
	ActorID    string               `json:"actor_id"`
	ActorName  string               `json:"actor_name"`
	CreatedAt  time.Time            `json:"created_at"`
}

// AttachmentResponse is attachment metadata.
type AttachmentResponse struct {
	ID         string                    `json:"id"`
	Category   domain.AttachmentCategory `json:"category"`
	StorageKey string                    `json:"storage_key"`
	FileName   string                    `json:"file_name"`
	UploadedBy string                    `json:"uploaded_by"`
	CreatedAt  time.Time                 `json:"created_at"`
}

// ChecklistItemResponse is one advancement gate and its state.
type ChecklistItemResponse struct {
	Key             string `json:"key"`
	Label           string `json:"label"`
	Satisfied       bool   `json:"satisfied"`
	SuggestedAction string `json:"suggested_action,omitempty"`
}

// ChecklistResponse reports what blocks the next transition.
type ChecklistResponse struct {
	NextStatus domain.TicketStatus     `json:"next_status,omitempty"`
	Items      []ChecklistItemResponse `json:"items"`
	CanAdvance bool                    `json:"can_advance"`
}

// StageSummaryResponse is the per-stage rollup shown on the ticket page.
type StageSummaryResponse struct {
	Status       domain.TicketStatus    `json:"status"`
	ActorName    string                 `json:"actor_name"`
	CompletedAt  time.Time              `json:"completed_at"`
	LastTimeline *TimelineEntryResponse `json:"last_timeline"`
	Attachments  []AttachmentResponse   `json:"attachments"`
}

// TicketPageResponse is one cursor page of listings.
type TicketPageResponse struct {
	Tickets    []TicketSummary `json:"tickets"`
	NextCursor string          `json:"next_cursor,omitempty"`
}

// NextActionsResponse groups open tickets by follow-up urgency.
type NextActionsResponse struct {
	Overdue  []TicketSummary `json:"overdue"`
	Today    []TicketSummary `json:"today"`
	NextWeek []TicketSummary `json:"next_week"`
}
