package repository

import (
	"context"

	"github.com/felipe2640/garantias-service/internal/domain"
)

// SupplierRepository handles persistence for the supplier directory.
type SupplierRepository interface {
	Create(ctx context.Context, supplier *domain.Supplier) error
	// GetByID is tenant-scoped: a supplier belonging to another tenant behaves
	// exactly like a missing one.
	GetByID(ctx context.Context, id, tenantID string) (*domain.Supplier, error)
	ListByTenant(ctx context.Context, tenantID string) ([]domain.Supplier, error)
}

type supplierRepository struct {
	db DBTX
}

// NewSupplierRepository instantiates the repository.
func NewSupplierRepository(db DBTX) SupplierRepository {
	return &supplierRepository{db: db}
}

func (r *supplierRepository) Create(ctx context.Context, supplier *domain.Supplier) error {
	const query = `
        INSERT INTO suppliers (tenant_id, name, sla_days, active_flag)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at, updated_at`
	return r.db.QueryRow(ctx, query,
		supplier.TenantID,
		supplier.Name,
		supplier.SLADays,
		supplier.Active,
	).Scan(&supplier.ID, &supplier.CreatedAt, &supplier.UpdatedAt)
}

func (r *supplierRepository) GetByID(ctx context.Context, id, tenantID string) (*domain.Supplier, error) {
	const query = `
        SELECT id, tenant_id, name, sla_days, active_flag, created_at, updated_at
        FROM suppliers WHERE id=$1 AND tenant_id=$2`
	var supplier domain.Supplier
	if err := r.db.QueryRow(ctx, query, id, tenantID).Scan(
		&supplier.ID,
		&supplier.TenantID,
		&supplier.Name,
		&supplier.SLADays,
		&supplier.Active,
		&supplier.CreatedAt,
		&supplier.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &supplier, nil
}

func (r *supplierRepository) ListByTenant(ctx context.Context, tenantID string) ([]domain.Supplier, error) {
	const query = `
        SELECT id, tenant_id, name, sla_days, active_flag, created_at, updated_at
        FROM suppliers WHERE tenant_id=$1 ORDER BY name ASC`
	rows, err := r.db.Query(ctx, query, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Supplier
	for rows.Next() {
		var supplier domain.Supplier
		if err := rows.Scan(
			&supplier.ID,
			&supplier.TenantID,
			&supplier.Name,
			&supplier.SLADays,
			&supplier.Active,
			&supplier.CreatedAt,
			&supplier.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, supplier)
	}
	return result, rows.Err()
}
