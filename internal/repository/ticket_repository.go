package repository

import (
	"context"
	"errors"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/felipe2640/garantias-service/internal/domain"
)

// ErrVersionConflict signals that a concurrent transition committed first and the
// caller's snapshot is stale.
var ErrVersionConflict = errors.New("ticket version conflict")

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// TicketOrder selects the sort key for paginated listings.
type TicketOrder string

const (
	OrderCreatedDesc   TicketOrder = "created_desc"
	OrderDueDateAsc    TicketOrder = "due_date_asc"
	OrderNextActionAsc TicketOrder = "next_action_asc"
)

// TicketQuery captures tenant-scoped listing parameters. Date values are
// date-only YYYY-MM-DD strings.
type TicketQuery struct {
	TenantID   string
	Status     *domain.TicketStatus
	StoreID    *string
	SupplierID *string
	// SearchTokens are pre-normalized candidates; a ticket matches when its token
	// set overlaps any of them.
	SearchTokens []string

	OverdueOnly    bool
	ActionToday    bool
	NextActionFrom string
	NextActionTo   string
	OpenOnly       bool
	Today          string

	Order    TicketOrder
	Limit    int
	CursorID string
}

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	// GetForUpdate locks the ticket row for the duration of the surrounding
	// transaction. Only meaningful inside a unit of work.
	GetForUpdate(ctx context.Context, id string) (*domain.Ticket, error)
	// UpdateWorkflow persists status and workflow fields guarded by the version
	// column; returns ErrVersionConflict when the snapshot lost the race.
	UpdateWorkflow(ctx context.Context, ticket *domain.Ticket) error
	UpdateDetails(ctx context.Context, ticket *domain.Ticket) error
	UpdateNextAction(ctx context.Context, id, nextActionAt, note string) error
	QueryPage(ctx context.Context, q TicketQuery) ([]domain.Ticket, error)
	ListByTenant(ctx context.Context, tenantID string) ([]domain.Ticket, error)
}

type ticketRepository struct {
	db DBTX
}

// NewTicketRepository instantiates the repository.
func NewTicketRepository(db DBTX) TicketRepository {
	return &ticketRepository{db: db}
}

const ticketColumns = `id, tenant_id, store_id, status, version,
       customer_name, customer_phone, customer_document, sale_number,
       part_description, defect_description,
       supplier_id, supplier_name, sla_days,
       outbound_invoice_number, sent_to_supplier_at, delivered_to_supplier_at, due_date,
       next_action_at, next_action_note,
       supplier_response, resolution_result, resolution_notes,
       search_tokens, is_closed, closed_at, created_at, updated_at`

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (tenant_id, store_id, status,
            customer_name, customer_phone, customer_document, sale_number,
            part_description, defect_description, search_tokens)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
        RETURNING id, version, created_at, updated_at`
	return r.db.QueryRow(ctx, query,
		ticket.TenantID,
		ticket.StoreID,
		ticket.Status,
		ticket.CustomerName,
		ticket.CustomerPhone,
		ticket.CustomerDocument,
		ticket.SaleNumber,
		ticket.PartDescription,
		ticket.DefectDescription,
		ticket.SearchTokens,
	).Scan(&ticket.ID, &ticket.Version, &ticket.CreatedAt, &ticket.UpdatedAt)
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	return r.fetchSingle(ctx, `SELECT `+ticketColumns+` FROM tickets WHERE id=$1`, id)
}

func (r *ticketRepository) GetForUpdate(ctx context.Context, id string) (*domain.Ticket, error) {
	return r.fetchSingle(ctx, `SELECT `+ticketColumns+` FROM tickets WHERE id=$1 FOR UPDATE`, id)
}

func (r *ticketRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Ticket, error) {
	var ticket domain.Ticket
	if err := scanTicket(r.db.QueryRow(ctx, query, arg), &ticket); err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (r *ticketRepository) UpdateWorkflow(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        UPDATE tickets SET status=$1,
            supplier_id=$2, supplier_name=$3, sla_days=$4,
            delivered_to_supplier_at=$5, due_date=$6,
            supplier_response=$7, resolution_result=$8, resolution_notes=$9,
            is_closed=$10, closed_at=$11,
            version=version+1, updated_at=NOW()
        WHERE id=$12 AND version=$13`
	cmd, err := r.db.Exec(ctx, query,
		ticket.Status,
		ticket.SupplierID,
		ticket.SupplierName,
		ticket.SLADays,
		ticket.DeliveredToSupplierAt,
		ticket.DueDate,
		ticket.SupplierResponse,
		ticket.ResolutionResult,
		ticket.ResolutionNotes,
		ticket.IsClosed,
		ticket.ClosedAt,
		ticket.ID,
		ticket.Version,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrVersionConflict
	}
	ticket.Version++
	return nil
}

func (r *ticketRepository) UpdateDetails(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        UPDATE tickets SET customer_name=$1, customer_phone=$2, customer_document=$3,
            sale_number=$4, part_description=$5, defect_description=$6,
            outbound_invoice_number=$7, sent_to_supplier_at=$8,
            search_tokens=$9, updated_at=NOW()
        WHERE id=$10`
	cmd, err := r.db.Exec(ctx, query,
		ticket.CustomerName,
		ticket.CustomerPhone,
		ticket.CustomerDocument,
		ticket.SaleNumber,
		ticket.PartDescription,
		ticket.DefectDescription,
		ticket.OutboundInvoiceNumber,
		ticket.SentToSupplierAt,
		ticket.SearchTokens,
		ticket.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ticketRepository) UpdateNextAction(ctx context.Context, id, nextActionAt, note string) error {
	const query = `
        UPDATE tickets SET next_action_at=$1, next_action_note=$2, updated_at=NOW()
        WHERE id=$3`
	cmd, err := r.db.Exec(ctx, query, nextActionAt, note, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ticketRepository) QueryPage(ctx context.Context, q TicketQuery) ([]domain.Ticket, error) {
	builder := psql.Select(ticketColumns).
		From("tickets").
		Where(sq.Eq{"tenant_id": q.TenantID})

	if q.Status != nil {
		builder = builder.Where(sq.Eq{"status": *q.Status})
	}
	if q.StoreID != nil {
		builder = builder.Where(sq.Eq{"store_id": *q.StoreID})
	}
	if q.SupplierID != nil {
		builder = builder.Where(sq.Eq{"supplier_id": *q.SupplierID})
	}
	if len(q.SearchTokens) > 0 {
		builder = builder.Where(sq.Expr("search_tokens && ?", q.SearchTokens))
	}
	if q.OpenOnly {
		builder = builder.Where(sq.Eq{"is_closed": false})
	}
	if q.OverdueOnly {
		builder = builder.
			Where(sq.Eq{"is_closed": false}).
			Where(sq.NotEq{"due_date": ""}).
			Where(sq.Lt{"due_date": q.Today})
	}
	if q.ActionToday {
		builder = builder.Where(sq.Eq{"next_action_at": q.Today})
	}
	if q.NextActionFrom != "" {
		builder = builder.
			Where(sq.NotEq{"next_action_at": ""}).
			Where(sq.GtOrEq{"next_action_at": q.NextActionFrom})
	}
	if q.NextActionTo != "" {
		builder = builder.
			Where(sq.NotEq{"next_action_at": ""}).
			Where(sq.LtOrEq{"next_action_at": q.NextActionTo})
	}

	switch q.Order {
	case OrderDueDateAsc:
		if q.CursorID != "" {
			builder = builder.Where(sq.Expr("(due_date, id) > (SELECT due_date, id FROM tickets WHERE id = ?)", q.CursorID))
		}
		builder = builder.OrderBy("due_date ASC", "id ASC")
	case OrderNextActionAsc:
		if q.CursorID != "" {
			builder = builder.Where(sq.Expr("(next_action_at, id) > (SELECT next_action_at, id FROM tickets WHERE id = ?)", q.CursorID))
		}
		builder = builder.OrderBy("next_action_at ASC", "id ASC")
	default:
		if q.CursorID != "" {
			builder = builder.Where(sq.Expr("(created_at, id) < (SELECT created_at, id FROM tickets WHERE id = ?)", q.CursorID))
		}
		builder = builder.OrderBy("created_at DESC", "id DESC")
	}

	if q.Limit > 0 {
		builder = builder.Limit(uint64(q.Limit))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (r *ticketRepository) ListByTenant(ctx context.Context, tenantID string) ([]domain.Ticket, error) {
	rows, err := r.db.Query(ctx, `SELECT `+ticketColumns+` FROM tickets WHERE tenant_id=$1`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func scanTicket(row pgx.Row, ticket *domain.Ticket) error {
	return row.Scan(
		&ticket.ID,
		&ticket.TenantID,
		&ticket.StoreID,
		&ticket.Status,
		&ticket.Version,
		&ticket.CustomerName,
		&ticket.CustomerPhone,
		&ticket.CustomerDocument,
		&ticket.SaleNumber,
		&ticket.PartDescription,
		&ticket.DefectDescription,
		&ticket.SupplierID,
		&ticket.SupplierName,
		&ticket.SLADays,
		&ticket.OutboundInvoiceNumber,
		&ticket.SentToSupplierAt,
		&ticket.DeliveredToSupplierAt,
		&ticket.DueDate,
		&ticket.NextActionAt,
		&ticket.NextActionNote,
		&ticket.SupplierResponse,
		&ticket.ResolutionResult,
		&ticket.ResolutionNotes,
		&ticket.SearchTokens,
		&ticket.IsClosed,
		&ticket.ClosedAt,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
	)
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for rows.Next() {
		var ticket domain.Ticket
		if err := scanTicket(rows, &ticket); err != nil {
			return nil, err
		}
		result = append(result, ticket)
	}
	return result, rows.Err()
}
