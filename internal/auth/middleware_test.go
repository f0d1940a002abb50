package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felipe2640/garantias-service/internal/domain"
	"github.com/felipe2640/garantias-service/internal/repository"
	apperrors "github.com/felipe2640/garantias-service/pkg/util"
)

type stubStaffRepo struct {
	staff map[string]*domain.StaffMember
}

func (r *stubStaffRepo) Create(context.Context, *domain.StaffMember) error { return nil }
func (r *stubStaffRepo) Update(context.Context, *domain.StaffMember) error { return nil }

func (r *stubStaffRepo) GetByID(_ context.Context, id string) (*domain.StaffMember, error) {
	if staff, ok := r.staff[id]; ok {
		clone := *staff
		return &clone, nil
	}
	return nil, pgx.ErrNoRows
}

func (r *stubStaffRepo) GetByEmail(context.Context, string) (*domain.StaffMember, error) {
	return nil, pgx.ErrNoRows
}

func (r *stubStaffRepo) List(context.Context, repository.StaffFilter) ([]domain.StaffMember, error) {
	return nil, nil
}

func testApp(mw *AuthMiddleware, guards ...fiber.Handler) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			var fiberErr *fiber.Error
			if errors.As(err, &fiberErr) {
				return c.Status(fiberErr.Code).JSON(fiber.Map{"error": fiberErr.Message})
			}
			de := apperrors.ToDomainError(err)
			return c.Status(de.HTTPStatus).JSON(fiber.Map{"error": de.Code})
		},
	})
	chain := append([]fiber.Handler{mw.Handle}, guards...)
	chain = append(chain, func(c *fiber.Ctx) error {
		principal, _ := PrincipalFromContext(c)
		return c.JSON(fiber.Map{"tenant": principal.TenantID()})
	})
	app.Get("/protected", chain...)
	return app
}

func newTestMiddleware(active bool) (*AuthMiddleware, string) {
	staff := testStaff()
	staff.Active = active
	repo := &stubStaffRepo{staff: map[string]*domain.StaffMember{staff.ID: staff}}
	tm := NewTokenManager("test-secret", 60)
	token, _, _ := tm.GenerateToken(staff)
	return NewAuthMiddleware(tm, repo), token
}

func TestMiddlewareAcceptsValidToken(t *testing.T) {
	mw, token := newTestMiddleware(true)
	app := testApp(mw)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestMiddlewareRejections(t *testing.T) {
	mw, _ := newTestMiddleware(true)
	app := testApp(mw)

	cases := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"not bearer", "Basic abc"},
		{"garbage token", "Bearer not.a.token"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		})
	}
}

func TestMiddlewareRejectsInactiveStaff(t *testing.T) {
	mw, token := newTestMiddleware(false)
	app := testApp(mw)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestRequireRole(t *testing.T) {
	mw, token := newTestMiddleware(true)

	// testStaff carries RECEBIMENTO; an admin-only guard must refuse it.
	app := testApp(mw, RequireRole(domain.RoleAdmin))
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	app = testApp(mw, RequireRole(domain.RoleRecebimento, domain.RoleAdmin))
	req = httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
