package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/felipe2640/garantias-service/internal/api/dto"
	"github.com/felipe2640/garantias-service/internal/auth"
	"github.com/felipe2640/garantias-service/internal/domain"
	"github.com/felipe2640/garantias-service/internal/service"
	apperrors "github.com/felipe2640/garantias-service/pkg/util"
)

// SuppliersHandler exposes the supplier registry.
type SuppliersHandler struct {
	service *service.SupplierService
}

// NewSuppliersHandler constructs handler.
func NewSuppliersHandler(supplierService *service.SupplierService) *SuppliersHandler {
	return &SuppliersHandler{service: supplierService}
}

// CreateSupplier POST /suppliers.
func (h *SuppliersHandler) CreateSupplier(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.CreateSupplierRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := validateStruct(req); err != nil {
		return err
	}
	supplier, err := h.service.Create(c.Context(), principal.TenantID(), req.Name, req.SLADays)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": supplierResponse(supplier)})
}

// ListSuppliers GET /suppliers.
func (h *SuppliersHandler) ListSuppliers(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	suppliers, err := h.service.List(c.Context(), principal.TenantID())
	if err != nil {
		return err
	}
	items := make([]dto.SupplierResponse, 0, len(suppliers))
	for i := range suppliers {
		items = append(items, supplierResponse(&suppliers[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetSupplier GET /suppliers/:id.
func (h *SuppliersHandler) GetSupplier(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	supplier, err := h.service.Get(c.Context(), c.Params("id"), principal.TenantID())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": supplierResponse(supplier)})
}

func supplierResponse(supplier *domain.Supplier) dto.SupplierResponse {
	return dto.SupplierResponse{
		ID:        supplier.ID,
		Name:      supplier.Name,
		SLADays:   supplier.SLADays,
		Active:    supplier.Active,
		CreatedAt: supplier.CreatedAt,
	}
}
