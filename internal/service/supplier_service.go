package service

import (
	"context"
	"strings"

	"github.com/felipe2640/garantias-service/internal/domain"
	"github.com/felipe2640/garantias-service/internal/repository"
	apperrors "github.com/felipe2640/garantias-service/pkg/util"
)

// SupplierService manages the supplier registry a tenant assigns tickets to.
type SupplierService struct {
	suppliers repository.SupplierRepository
}

// NewSupplierService constructs the service.
func NewSupplierService(suppliers repository.SupplierRepository) *SupplierService {
	return &SupplierService{suppliers: suppliers}
}

// Create registers a supplier. SLADays must be positive: it feeds due-date
// computation for every ticket later assigned to this supplier.
func (s *SupplierService) Create(ctx context.Context, tenantID, name string, slaDays int) (*domain.Supplier, error) {
	if strings.TrimSpace(name) == "" {
		return nil, apperrors.NewValidationError("name required", nil)
	}
	if slaDays <= 0 {
		return nil, apperrors.NewValidationError("sla_days must be positive", map[string]any{"sla_days": slaDays})
	}
	supplier := &domain.Supplier{
		TenantID: tenantID,
		Name:     name,
		SLADays:  slaDays,
		Active:   true,
	}
	if err := s.suppliers.Create(ctx, supplier); err != nil {
		return nil, apperrors.MapError(err)
	}
	return supplier, nil
}

// Get fetches a supplier within the tenant.
func (s *SupplierService) Get(ctx context.Context, id, tenantID string) (*domain.Supplier, error) {
	supplier, err := s.suppliers.GetByID(ctx, id, tenantID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return supplier, nil
}

// List returns all suppliers of the tenant.
func (s *SupplierService) List(ctx context.Context, tenantID string) ([]domain.Supplier, error) {
	return s.suppliers.ListByTenant(ctx, tenantID)
}
