package repository

import (
	"context"

	"github.com/felipe2640/garantias-service/internal/domain"
)

// StageHistoryRepository stores the append-only log of stages a ticket reached.
// Rows are never updated or deleted; a revert leaves the log intact.
type StageHistoryRepository interface {
	Append(ctx context.Context, record *domain.StageRecord) error
	ListByTicket(ctx context.Context, ticketID string) ([]domain.StageRecord, error)
}

type stageHistoryRepository struct {
	db DBTX
}

// NewStageHistoryRepository builds the repository.
func NewStageHistoryRepository(db DBTX) StageHistoryRepository {
	return &stageHistoryRepository{db: db}
}

func (r *stageHistoryRepository) Append(ctx context.Context, record *domain.StageRecord) error {
	const query = `
        INSERT INTO ticket_stage_history (ticket_id, status, completed_at, actor_id, actor_name)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id`
	return r.db.QueryRow(ctx, query,
		record.TicketID,
		record.Status,
		record.CompletedAt,
		record.ActorID,
		record.ActorName,
	).Scan(&record.ID)
}

func (r *stageHistoryRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.StageRecord, error) {
	const query = `
        SELECT id, ticket_id, status, completed_at, actor_id, actor_name
        FROM ticket_stage_history WHERE ticket_id=$1 ORDER BY completed_at ASC, id ASC`
	rows, err := r.db.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.StageRecord
	for rows.Next() {
		var record domain.StageRecord
		if err := rows.Scan(
			&record.ID,
			&record.TicketID,
			&record.Status,
			&record.CompletedAt,
			&record.ActorID,
			&record.ActorName,
		); err != nil {
			return nil, err
		}
		result = append(result, record)
	}
	return result, rows.Err()
}
