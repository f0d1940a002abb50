package service

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/felipe2640/garantias-service/internal/auth"
	"github.com/felipe2640/garantias-service/internal/config"
	"github.com/felipe2640/garantias-service/internal/domain"
	"github.com/felipe2640/garantias-service/internal/repository"
	apperrors "github.com/felipe2640/garantias-service/pkg/util"
)

// StaffService manages operator accounts within a tenant. All operations are
// admin-only; the tenant always comes from the acting principal, never the payload.
type StaffService struct {
	staff      repository.StaffRepository
	bcryptCost int
}

// StaffListFilters define listing parameters.
type StaffListFilters struct {
	Role    *domain.StaffRole
	StoreID *string
	Active  *bool
	Limit   int
	Offset  int
}

// NewStaffService constructs the service.
func NewStaffService(cfg config.Config, staffRepo repository.StaffRepository) *StaffService {
	return &StaffService{
		staff:      staffRepo,
		bcryptCost: cfg.Auth.BcryptCost,
	}
}

func requireAdmin(actor *domain.StaffMember) error {
	if actor == nil || actor.Role != domain.RoleAdmin {
		return apperrors.NewForbidden("admin role required")
	}
	return nil
}

func validStaffRole(role domain.StaffRole) bool {
	switch role {
	case domain.RoleAdmin, domain.RoleRecebimento, domain.RoleTriagem, domain.RoleLogistica, domain.RoleCobranca:
		return true
	}
	return false
}

// CreateStaffMember adds an operator account in the admin's tenant.
func (s *StaffService) CreateStaffMember(ctx context.Context, actor *domain.StaffMember, name, email, password string, role domain.StaffRole, storeID *string) (*domain.StaffMember, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if !validStaffRole(role) {
		return nil, apperrors.NewValidationError("unknown role", map[string]any{"role": role})
	}
	if existing, err := s.staff.GetByEmail(ctx, email); err == nil && existing != nil {
		return nil, apperrors.NewConflict("staff email already exists", map[string]any{"email": email})
	} else if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.MapError(err)
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	staff := &domain.StaffMember{
		TenantID:     actor.TenantID,
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		StoreID:      storeID,
		Active:       true,
	}
	if err := s.staff.Create(ctx, staff); err != nil {
		return nil, apperrors.MapError(err)
	}
	return staff, nil
}

// ListStaffMembers lists operators in the admin's tenant.
func (s *StaffService) ListStaffMembers(ctx context.Context, actor *domain.StaffMember, filters StaffListFilters) ([]domain.StaffMember, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	repoFilter := repository.StaffFilter{
		TenantID: &actor.TenantID,
		Role:     filters.Role,
		StoreID:  filters.StoreID,
		Active:   filters.Active,
		Limit:    filters.Limit,
		Offset:   filters.Offset,
	}
	return s.staff.List(ctx, repoFilter)
}

// GetStaffMemberByID fetches one operator; cross-tenant lookups come back as not found.
func (s *StaffService) GetStaffMemberByID(ctx context.Context, actor *domain.StaffMember, id string) (*domain.StaffMember, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	staff, err := s.staff.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if staff.TenantID != actor.TenantID {
		return nil, apperrors.NewNotFound("staff member", map[string]any{"id": id})
	}
	return staff, nil
}

// UpdateStaffMember updates operator details, including deactivation.
func (s *StaffService) UpdateStaffMember(ctx context.Context, actor *domain.StaffMember, staffID, name, email string, role domain.StaffRole, storeID *string, active bool) (*domain.StaffMember, error) {
	staff, err := s.GetStaffMemberByID(ctx, actor, staffID)
	if err != nil {
		return nil, err
	}
	if !validStaffRole(role) {
		return nil, apperrors.NewValidationError("unknown role", map[string]any{"role": role})
	}
	if email != "" && email != staff.Email {
		if existing, err := s.staff.GetByEmail(ctx, email); err == nil && existing != nil && existing.ID != staff.ID {
			return nil, apperrors.NewConflict("staff email already exists", map[string]any{"email": email})
		} else if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.MapError(err)
		}
		staff.Email = email
	}

	staff.Name = name
	staff.Role = role
	staff.StoreID = storeID
	staff.Active = active

	if err := s.staff.Update(ctx, staff); err != nil {
		return nil, apperrors.MapError(err)
	}
	return staff, nil
}
