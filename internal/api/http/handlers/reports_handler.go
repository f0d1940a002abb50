package handlers

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/felipe2640/garantias-service/internal/auth"
	"github.com/felipe2640/garantias-service/internal/service"
	apperrors "github.com/felipe2640/garantias-service/pkg/util"
)

// ReportsHandler streams spreadsheet exports.
type ReportsHandler struct {
	reports *service.ReportService
}

// NewReportsHandler constructs handler.
func NewReportsHandler(reports *service.ReportService) *ReportsHandler {
	return &ReportsHandler{reports: reports}
}

// OverdueReport GET /reports/overdue.
func (h *ReportsHandler) OverdueReport(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	file, err := h.reports.OverdueReport(c.Context(), principal.TenantID())
	if err != nil {
		return err
	}
	defer file.Close()

	buf, err := file.WriteToBuffer()
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", h.reports.OverdueReportFileName()))
	return c.Send(buf.Bytes())
}
