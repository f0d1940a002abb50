package repository

import (
	"context"

	"github.com/felipe2640/garantias-service/internal/domain"
)

// AttachmentRepository stores file references. Attachments are immutable once
// created; the binary itself lives with the storage provider.
type AttachmentRepository interface {
	Create(ctx context.Context, attachment *domain.Attachment) error
	ListByTicket(ctx context.Context, ticketID string) ([]domain.Attachment, error)
	Exists(ctx context.Context, ticketID string, category domain.AttachmentCategory) (bool, error)
}

type attachmentRepository struct {
	db DBTX
}

// NewAttachmentRepository builds the repository.
func NewAttachmentRepository(db DBTX) AttachmentRepository {
	return &attachmentRepository{db: db}
}

func (r *attachmentRepository) Create(ctx context.Context, attachment *domain.Attachment) error {
	const query = `
        INSERT INTO ticket_attachments (ticket_id, category, storage_key, file_name, uploaded_by)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at`
	return r.db.QueryRow(ctx, query,
		attachment.TicketID,
		attachment.Category,
		attachment.StorageKey,
		attachment.FileName,
		attachment.UploadedBy,
	).Scan(&attachment.ID, &attachment.CreatedAt)
}

func (r *attachmentRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.Attachment, error) {
	const query = `
        SELECT id, ticket_id, category, storage_key, file_name, uploaded_by, created_at
        FROM ticket_attachments WHERE ticket_id=$1 ORDER BY created_at ASC, id ASC`
	rows, err := r.db.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Attachment
	for rows.Next() {
		var attachment domain.Attachment
		if err := rows.Scan(
			&attachment.ID,
			&attachment.TicketID,
			&attachment.Category,
			&attachment.StorageKey,
			&attachment.FileName,
			&attachment.UploadedBy,
			&attachment.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, attachment)
	}
	return result, rows.Err()
}

func (r *attachmentRepository) Exists(ctx context.Context, ticketID string, category domain.AttachmentCategory) (bool, error) {
	const query = `
        SELECT EXISTS (SELECT 1 FROM ticket_attachments WHERE ticket_id=$1 AND category=$2)`
	var exists bool
	if err := r.db.QueryRow(ctx, query, ticketID, category).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}
