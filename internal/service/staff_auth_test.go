package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felipe2640/garantias-service/internal/auth"
	"github.com/felipe2640/garantias-service/internal/config"
	"github.com/felipe2640/garantias-service/internal/domain"
	"github.com/felipe2640/garantias-service/internal/repository"
)

const testBcryptCost = 4

func testConfig() config.Config {
	return config.Config{
		Auth: config.AuthConfig{
			JWTSecret:             "test-secret",
			AccessTokenTTLMinutes: 60,
			BcryptCost:            testBcryptCost,
		},
	}
}

type memStaffRepo struct {
	mu    sync.Mutex
	seq   int
	staff map[string]*domain.StaffMember
}

func newMemStaffRepo() *memStaffRepo {
	return &memStaffRepo{staff: make(map[string]*domain.StaffMember)}
}

func (r *memStaffRepo) Create(_ context.Context, s *domain.StaffMember) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	s.ID = fmt.Sprintf("staff-%04d", r.seq)
	s.CreatedAt = time.Now()
	s.UpdatedAt = s.CreatedAt
	clone := *s
	r.staff[s.ID] = &clone
	return nil
}

func (r *memStaffRepo) Update(_ context.Context, s *domain.StaffMember) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.staff[s.ID]; !ok {
		return pgx.ErrNoRows
	}
	clone := *s
	clone.UpdatedAt = time.Now()
	r.staff[s.ID] = &clone
	return nil
}

func (r *memStaffRepo) GetByID(_ context.Context, id string) (*domain.StaffMember, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.staff[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *stored
	return &clone, nil
}

func (r *memStaffRepo) GetByEmail(_ context.Context, email string) (*domain.StaffMember, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, stored := range r.staff {
		if stored.Email == email {
			clone := *stored
			return &clone, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *memStaffRepo) List(_ context.Context, filter repository.StaffFilter) ([]domain.StaffMember, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.StaffMember, 0)
	for _, stored := range r.staff {
		if filter.TenantID != nil && stored.TenantID != *filter.TenantID {
			continue
		}
		if filter.Role != nil && stored.Role != *filter.Role {
			continue
		}
		if filter.Active != nil && stored.Active != *filter.Active {
			continue
		}
		out = append(out, *stored)
	}
	return out, nil
}

func seedStaff(t *testing.T, repo *memStaffRepo, email, password string, role domain.StaffRole, active bool) *domain.StaffMember {
	t.Helper()
	hash, err := auth.HashPassword(password, testBcryptCost)
	require.NoError(t, err)
	staff := &domain.StaffMember{
		TenantID:     testTenant,
		Name:         "Operador",
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		Active:       active,
	}
	require.NoError(t, repo.Create(context.Background(), staff))
	return staff
}

func TestLogin(t *testing.T) {
	ctx := context.Background()
	repo := newMemStaffRepo()
	seedStaff(t, repo, "rita@example.com", "segredo123", domain.RoleRecebimento, true)
	svc := NewAuthService(testConfig(), repo)

	staff, token, exp, err := svc.Login(ctx, "rita@example.com", "segredo123")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.True(t, exp.After(time.Now()))

	claims, err := svc.TokenManager().ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, staff.ID, claims.SubjectID)
	assert.Equal(t, testTenant, claims.TenantID)
	assert.Equal(t, domain.RoleRecebimento, claims.Role)
}

func TestLoginRejections(t *testing.T) {
	ctx := context.Background()
	repo := newMemStaffRepo()
	seedStaff(t, repo, "rita@example.com", "segredo123", domain.RoleRecebimento, true)
	seedStaff(t, repo, "inativo@example.com", "segredo123", domain.RoleCobranca, false)
	svc := NewAuthService(testConfig(), repo)

	_, _, _, err := svc.Login(ctx, "rita@example.com", "errada")
	assert.Equal(t, "UNAUTHORIZED", errCode(t, err))

	_, _, _, err = svc.Login(ctx, "ninguem@example.com", "segredo123")
	assert.Equal(t, "UNAUTHORIZED", errCode(t, err))

	_, _, _, err = svc.Login(ctx, "inativo@example.com", "segredo123")
	assert.Equal(t, "UNAUTHORIZED", errCode(t, err))
}

func TestChangePassword(t *testing.T) {
	ctx := context.Background()
	repo := newMemStaffRepo()
	staff := seedStaff(t, repo, "rita@example.com", "segredo123", domain.RoleRecebimento, true)
	svc := NewAuthService(testConfig(), repo)

	err := svc.ChangePassword(ctx, staff.ID, "errada", "nova-senha")
	assert.Equal(t, "UNAUTHORIZED", errCode(t, err))

	require.NoError(t, svc.ChangePassword(ctx, staff.ID, "segredo123", "nova-senha"))

	_, _, _, err = svc.Login(ctx, "rita@example.com", "segredo123")
	assert.Equal(t, "UNAUTHORIZED", errCode(t, err))
	_, _, _, err = svc.Login(ctx, "rita@example.com", "nova-senha")
	assert.NoError(t, err)
}

func TestCreateStaffMember(t *testing.T) {
	ctx := context.Background()
	repo := newMemStaffRepo()
	admin := seedStaff(t, repo, "admin@example.com", "segredo123", domain.RoleAdmin, true)
	svc := NewStaffService(testConfig(), repo)

	created, err := svc.CreateStaffMember(ctx, admin, "Lucas", "lucas@example.com", "segredo123", domain.RoleLogistica, nil)
	require.NoError(t, err)
	assert.Equal(t, testTenant, created.TenantID)
	assert.True(t, created.Active)

	// Duplicate email.
	_, err = svc.CreateStaffMember(ctx, admin, "Outro", "lucas@example.com", "segredo123", domain.RoleLogistica, nil)
	assert.Equal(t, "CONFLICT", errCode(t, err))

	// Unknown role.
	_, err = svc.CreateStaffMember(ctx, admin, "X", "x@example.com", "segredo123", "GERENTE", nil)
	assert.Equal(t, "VALIDATION_FAILED", errCode(t, err))

	// Non-admin actor.
	operator, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	_, err = svc.CreateStaffMember(ctx, operator, "Y", "y@example.com", "segredo123", domain.RoleTriagem, nil)
	assert.Equal(t, "FORBIDDEN", errCode(t, err))
}

func TestStaffTenantIsolation(t *testing.T) {
	ctx := context.Background()
	repo := newMemStaffRepo()
	admin := seedStaff(t, repo, "admin@example.com", "segredo123", domain.RoleAdmin, true)
	outsider := seedStaff(t, repo, "fora@example.com", "segredo123", domain.RoleAdmin, true)
	outsider.TenantID = "tenant-2"
	require.NoError(t, repo.Update(ctx, outsider))
	svc := NewStaffService(testConfig(), repo)

	_, err := svc.GetStaffMemberByID(ctx, admin, outsider.ID)
	assert.Equal(t, "NOT_FOUND", errCode(t, err))

	listed, err := svc.ListStaffMembers(ctx, admin, StaffListFilters{})
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, admin.ID, listed[0].ID)
}

func TestSupplierService(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	svc := NewSupplierService(env.suppliers)

	supplier, err := svc.Create(ctx, testTenant, "Compressores Norte", 15)
	require.NoError(t, err)
	assert.Equal(t, 15, supplier.SLADays)
	assert.True(t, supplier.Active)

	_, err = svc.Create(ctx, testTenant, "  ", 15)
	assert.Equal(t, "VALIDATION_FAILED", errCode(t, err))
	_, err = svc.Create(ctx, testTenant, "Sem SLA", 0)
	assert.Equal(t, "VALIDATION_FAILED", errCode(t, err))

	_, err = svc.Get(ctx, supplier.ID, "tenant-2")
	assert.Equal(t, "NOT_FOUND", errCode(t, err))

	listed, err := svc.List(ctx, testTenant)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, supplier.ID, listed[0].ID)
}
