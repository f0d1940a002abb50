package domain

import "time"

// AttachmentCategory tags what an uploaded file documents.
type AttachmentCategory string

const (
	CategoryNotaFiscal AttachmentCategory = "NOTA_FISCAL"
	CategoryCanhoto    AttachmentCategory = "CANHOTO"
	CategoryFoto       AttachmentCategory = "FOTO"
	CategoryOutros     AttachmentCategory = "OUTROS"
)

// Attachment references a file held by the storage provider. Immutable once created.
// A CANHOTO attachment is required before a ticket may leave ENTREGA_LOGISTICA.
type Attachment struct {
	ID         string
	TicketID   string
	Category   AttachmentCategory
	StorageKey string
	FileName   string
	UploadedBy string
	CreatedAt  time.Time
}
