package repository

import (
	"context"

	"github.com/felipe2640/garantias-service/internal/domain"
)

// TimelineRepository stores the append-only operational narrative of a ticket.
type TimelineRepository interface {
	Append(ctx context.Context, entry *domain.TimelineEntry) error
	ListByTicket(ctx context.Context, ticketID string) ([]domain.TimelineEntry, error)
}

type timelineRepository struct {
	db DBTX
}

// NewTimelineRepository builds the repository.
func NewTimelineRepository(db DBTX) TimelineRepository {
	return &timelineRepository{db: db}
}

func (r *timelineRepository) Append(ctx context.Context, entry *domain.TimelineEntry) error {
	const query = `
        INSERT INTO ticket_timeline (ticket_id, entry_type, body, next_action_at, next_action_note, actor_id, actor_name)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING id, created_at`
	return r.db.QueryRow(ctx, query,
		entry.TicketID,
		entry.EntryType,
		entry.Body,
		entry.NextActionAt,
		entry.NextActionNote,
		entry.ActorID,
		entry.ActorName,
	).Scan(&entry.ID, &entry.CreatedAt)
}

func (r *timelineRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.TimelineEntry, error) {
	const query = `
        SELECT id, ticket_id, entry_type, body, next_action_at, next_action_note, actor_id, actor_name, created_at
        FROM ticket_timeline WHERE ticket_id=$1 ORDER BY created_at ASC, id ASC`
	rows, err := r.db.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.TimelineEntry
	for rows.Next() {
		var entry domain.TimelineEntry
		if err := rows.Scan(
			&entry.ID,
			&entry.TicketID,
			&entry.EntryType,
			&entry.Body,
			&entry.NextActionAt,
			&entry.NextActionNote,
			&entry.ActorID,
			&entry.ActorName,
			&entry.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}
