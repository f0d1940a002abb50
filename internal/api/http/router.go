package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/felipe2640/garantias-service/internal/api/http/handlers"
	"github.com/felipe2640/garantias-service/internal/auth"
	"github.com/felipe2640/garantias-service/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Staff          *handlers.StaffHandler
	Suppliers      *handlers.SuppliersHandler
	Tickets        *handlers.TicketsHandler
	Reports        *handlers.ReportsHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes. Role guards here cover whole endpoints;
// per-transition role rules live in the workflow table and are enforced again
// inside the service.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/health/metrics", cfg.Health.Metrics)

	authGroup := app.Group("/auth")
	authGroup.Post("/staff/login", cfg.Staff.Login)
	authGroup.Post("/password/change", cfg.AuthMiddleware.Handle, auth.RequireRole(), cfg.Staff.ChangePassword)

	staff := app.Group("/staff", cfg.AuthMiddleware.Handle, auth.RequireRole(domain.RoleAdmin))
	staff.Post("/", cfg.Staff.CreateStaff)
	staff.Get("/", cfg.Staff.ListStaff)
	staff.Get("/:id", cfg.Staff.GetStaff)
	staff.Put("/:id", cfg.Staff.UpdateStaff)

	suppliers := app.Group("/suppliers", cfg.AuthMiddleware.Handle, auth.RequireRole())
	suppliers.Post("/", auth.RequireRole(domain.RoleAdmin, domain.RoleTriagem), cfg.Suppliers.CreateSupplier)
	suppliers.Get("/", cfg.Suppliers.ListSuppliers)
	suppliers.Get("/:id", cfg.Suppliers.GetSupplier)

	tickets := app.Group("/tickets", cfg.AuthMiddleware.Handle, auth.RequireRole())
	tickets.Post("/", cfg.Tickets.CreateTicket)
	tickets.Get("/", cfg.Tickets.ListTickets)
	tickets.Get("/next-actions", cfg.Tickets.NextActions)
	tickets.Get("/:id", cfg.Tickets.GetTicket)
	tickets.Patch("/:id", cfg.Tickets.EditTicket)
	tickets.Post("/:id/advance", cfg.Tickets.AdvanceTicket)
	tickets.Post("/:id/revert", auth.RequireRole(domain.RoleAdmin), cfg.Tickets.RevertTicket)
	tickets.Get("/:id/checklist", cfg.Tickets.GetChecklist)
	tickets.Get("/:id/summary", cfg.Tickets.GetSummary)
	tickets.Post("/:id/timeline", cfg.Tickets.AddTimelineEntry)
	tickets.Get("/:id/timeline", cfg.Tickets.ListTimeline)
	tickets.Get("/:id/audit", cfg.Tickets.ListAudit)
	tickets.Post("/:id/attachments", cfg.Tickets.AddAttachment)
	tickets.Get("/:id/attachments", cfg.Tickets.ListAttachments)

	reports := app.Group("/reports", cfg.AuthMiddleware.Handle, auth.RequireRole())
	reports.Get("/overdue", cfg.Reports.OverdueReport)
}
