package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/felipe2640/garantias-service/internal/api/dto"
	"github.com/felipe2640/garantias-service/internal/auth"
	"github.com/felipe2640/garantias-service/internal/domain"
	"github.com/felipe2640/garantias-service/internal/service"
	"github.com/felipe2640/garantias-service/internal/workflow"
	apperrors "github.com/felipe2640/garantias-service/pkg/util"
)

// TicketsHandler exposes the warranty-ticket endpoints.
type TicketsHandler struct {
	tickets   *service.TicketService
	workflow  *service.WorkflowService
	queries   *service.QueryService
	summaries *service.SummaryService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(tickets *service.TicketService, wf *service.WorkflowService, queries *service.QueryService, summaries *service.SummaryService) *TicketsHandler {
	return &TicketsHandler{tickets: tickets, workflow: wf, queries: queries, summaries: summaries}
}

// CreateTicket POST /tickets.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := validateStruct(req); err != nil {
		return err
	}
	input := service.TicketCreateInput{
		StoreID:           req.StoreID,
		CustomerName:      req.CustomerName,
		CustomerPhone:     req.CustomerPhone,
		CustomerDocument:  req.CustomerDocument,
		SaleNumber:        req.SaleNumber,
		PartDescription:   req.PartDescription,
		DefectDescription: req.DefectDescription,
	}
	ticket, err := h.tickets.Create(c.Context(), principal.TenantID(), principal.Actor(), input)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": ticketDetail(ticket)})
}

// ListTickets GET /tickets.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	filter := service.TicketListFilter{
		Search:      c.Query("search"),
		OverdueOnly: queryBool(c, "overdue"),
		ActionToday: queryBool(c, "action_today"),
	}
	if status := c.Query("status"); status != "" {
		s := domain.TicketStatus(status)
		if domain.ChainIndex(s) < 0 {
			return apperrors.NewValidationError("unknown status", map[string]any{"status": status})
		}
		filter.Status = &s
	}
	if storeID := c.Query("store_id"); storeID != "" {
		filter.StoreID = &storeID
	}
	if supplierID := c.Query("supplier_id"); supplierID != "" {
		filter.SupplierID = &supplierID
	}
	limit := parseInt(c.Query("limit"), 20)
	page, err := h.queries.List(c.Context(), principal.TenantID(), filter, limit, c.Query("cursor"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketPage(page)})
}

// NextActions GET /tickets/next-actions.
func (h *TicketsHandler) NextActions(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	buckets, err := h.queries.NextActions(c.Context(), principal.TenantID())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NextActionsResponse{
		Overdue:  ticketSummaries(buckets.Overdue),
		Today:    ticketSummaries(buckets.Today),
		NextWeek: ticketSummaries(buckets.NextWeek),
	}})
}

// GetTicket GET /tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	ticket, err := h.tickets.Get(c.Context(), c.Params("id"), principal.TenantID())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketDetail(ticket)})
}

// EditTicket PATCH /tickets/:id.
func (h *TicketsHandler) EditTicket(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.EditTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := validateStruct(req); err != nil {
		return err
	}
	input := service.TicketEditInput{
		CustomerName:          req.CustomerName,
		CustomerPhone:         req.CustomerPhone,
		CustomerDocument:      req.CustomerDocument,
		SaleNumber:            req.SaleNumber,
		PartDescription:       req.PartDescription,
		DefectDescription:     req.DefectDescription,
		OutboundInvoiceNumber: req.OutboundInvoiceNumber,
		SentToSupplierAt:      req.SentToSupplierAt,
	}
	ticket, err := h.tickets.Edit(c.Context(), c.Params("id"), principal.TenantID(), principal.Actor(), input)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketDetail(ticket)})
}

// AdvanceTicket POST /tickets/:id/advance.
func (h *TicketsHandler) AdvanceTicket(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.AdvanceTicketRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return apperrors.NewValidationError("invalid payload", nil)
		}
		if err := validateStruct(req); err != nil {
			return err
		}
	}
	input := service.AdvanceInput{
		SupplierID:       req.SupplierID,
		SupplierResponse: req.SupplierResponse,
		ResolutionResult: req.ResolutionResult,
		ResolutionNotes:  req.ResolutionNotes,
	}
	status, err := h.workflow.Advance(c.Context(), c.Params("id"), principal.TenantID(), principal.Actor(), input)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"status": status}})
}

// RevertTicket POST /tickets/:id/revert.
func (h *TicketsHandler) RevertTicket(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.RevertTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := validateStruct(req); err != nil {
		return err
	}
	if strings.TrimSpace(req.Reason) == "" {
		return apperrors.NewValidationError("reason required", nil)
	}
	status, err := h.workflow.Revert(c.Context(), c.Params("id"), principal.TenantID(), principal.Actor(), req.TargetStatus, req.Reason)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"status": status}})
}

// GetChecklist GET /tickets/:id/checklist.
func (h *TicketsHandler) GetChecklist(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	checklist, err := h.workflow.Checklist(c.Context(), c.Params("id"), principal.TenantID())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": checklistResponse(checklist)})
}

// GetSummary GET /tickets/:id/summary.
func (h *TicketsHandler) GetSummary(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	summaries, err := h.summaries.StageSummaries(c.Context(), c.Params("id"), principal.TenantID())
	if err != nil {
		return err
	}
	items := make([]dto.StageSummaryResponse, 0, len(summaries))
	for i := range summaries {
		items = append(items, stageSummaryResponse(&summaries[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// AddTimelineEntry POST /tickets/:id/timeline.
func (h *TicketsHandler) AddTimelineEntry(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.TimelineEntryRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := validateStruct(req); err != nil {
		return err
	}
	input := service.TimelineInput{
		EntryType:      req.EntryType,
		Body:           req.Body,
		NextActionAt:   req.NextActionAt,
		NextActionNote: req.NextActionNote,
	}
	entry, err := h.tickets.AddTimelineEntry(c.Context(), c.Params("id"), principal.TenantID(), principal.Actor(), input)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": timelineEntryResponse(entry)})
}

// ListTimeline GET /tickets/:id/timeline.
func (h *TicketsHandler) ListTimeline(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	entries, err := h.tickets.ListTimeline(c.Context(), c.Params("id"), principal.TenantID())
	if err != nil {
		return err
	}
	items := make([]dto.TimelineEntryResponse, 0, len(entries))
	for i := range entries {
		items = append(items, *timelineEntryResponse(&entries[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// ListAudit GET /tickets/:id/audit.
func (h *TicketsHandler) ListAudit(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	entries, err := h.tickets.ListAudit(c.Context(), c.Params("id"), principal.TenantID())
	if err != nil {
		return err
	}
	items := make([]dto.AuditEntryResponse, 0, len(entries))
	for _, entry := range entries {
		items = append(items, dto.AuditEntryResponse{
			ID:         entry.ID,
			Action:     entry.Action,
			FromStatus: entry.FromStatus,
			ToStatus:   entry.ToStatus,
			Reason:     entry.Reason,
			ActorID:    entry.ActorID,
			ActorName:  entry.ActorName,
			CreatedAt:  entry.CreatedAt,
		})
	}
	return c.JSON(fiber.Map{"data": items})
}

// AddAttachment POST /tickets/:id/attachments.
func (h *TicketsHandler) AddAttachment(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.AttachmentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := validateStruct(req); err != nil {
		return err
	}
	input := service.AttachmentInput{
		Category:   req.Category,
		StorageKey: req.StorageKey,
		FileName:   req.FileName,
	}
	attachment, err := h.tickets.AddAttachment(c.Context(), c.Params("id"), principal.TenantID(), principal.Actor(), input)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": attachmentResponse(attachment)})
}

// ListAttachments GET /tickets/:id/attachments.
func (h *TicketsHandler) ListAttachments(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	attachments, err := h.tickets.ListAttachments(c.Context(), c.Params("id"), principal.TenantID())
	if err != nil {
		return err
	}
	items := make([]dto.AttachmentResponse, 0, len(attachments))
	for i := range attachments {
		items = append(items, attachmentResponse(&attachments[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

func queryBool(c *fiber.Ctx, key string) bool {
	val, err := strconv.ParseBool(c.Query(key))
	return err == nil && val
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

func ticketSummary(ticket *domain.Ticket) dto.TicketSummary {
	return dto.TicketSummary{
		ID:              ticket.ID,
		StoreID:         ticket.StoreID,
		Status:          ticket.Status,
		CustomerName:    ticket.CustomerName,
		PartDescription: ticket.PartDescription,
		SupplierID:      ticket.SupplierID,
		SupplierName:    ticket.SupplierName,
		DueDate:         ticket.DueDate,
		NextActionAt:    ticket.NextActionAt,
		NextActionNote:  ticket.NextActionNote,
		IsClosed:        ticket.IsClosed,
		CreatedAt:       ticket.CreatedAt,
		UpdatedAt:       ticket.UpdatedAt,
	}
}

func ticketSummaries(tickets []domain.Ticket) []dto.TicketSummary {
	items := make([]dto.TicketSummary, 0, len(tickets))
	for i := range tickets {
		items = append(items, ticketSummary(&tickets[i]))
	}
	return items
}

func ticketPage(page service.TicketPage) dto.TicketPageResponse {
	return dto.TicketPageResponse{
		Tickets:    ticketSummaries(page.Tickets),
		NextCursor: page.NextCursor,
	}
}

func ticketDetail(ticket *domain.Ticket) dto.TicketDetailResponse {
	history := make([]dto.StageRecordResponse, 0, len(ticket.StageHistory))
	for _, record := range ticket.StageHistory {
		history = append(history, dto.StageRecordResponse{
			ID:          record.ID,
			Status:      record.Status,
			CompletedAt: record.CompletedAt,
			ActorID:     record.ActorID,
			ActorName:   record.ActorName,
		})
	}
	return dto.TicketDetailResponse{
		ID:                    ticket.ID,
		StoreID:               ticket.StoreID,
		Status:                ticket.Status,
		Version:               ticket.Version,
		CustomerName:          ticket.CustomerName,
		CustomerPhone:         ticket.CustomerPhone,
		CustomerDocument:      ticket.CustomerDocument,
		SaleNumber:            ticket.SaleNumber,
		PartDescription:       ticket.PartDescription,
		DefectDescription:     ticket.DefectDescription,
		SupplierID:            ticket.SupplierID,
		SupplierName:          ticket.SupplierName,
		SLADays:               ticket.SLADays,
		OutboundInvoiceNumber: ticket.OutboundInvoiceNumber,
		SentToSupplierAt:      ticket.SentToSupplierAt,
		DeliveredToSupplierAt: ticket.DeliveredToSupplierAt,
		DueDate:               ticket.DueDate,
		NextActionAt:          ticket.NextActionAt,
		NextActionNote:        ticket.NextActionNote,
		SupplierResponse:      ticket.SupplierResponse,
		ResolutionResult:      ticket.ResolutionResult,
		ResolutionNotes:       ticket.ResolutionNotes,
		IsClosed:              ticket.IsClosed,
		ClosedAt:              ticket.ClosedAt,
		StageHistory:          history,
		CreatedAt:             ticket.CreatedAt,
		UpdatedAt:             ticket.UpdatedAt,
	}
}

func timelineEntryResponse(entry *domain.TimelineEntry) *dto.TimelineEntryResponse {
	return &dto.TimelineEntryResponse{
		ID:             entry.ID,
		EntryType:      entry.EntryType,
		Body:           entry.Body,
		NextActionAt:   entry.NextActionAt,
		NextActionNote: entry.NextActionNote,
		ActorID:        entry.ActorID,
		ActorName:      entry.ActorName,
		CreatedAt:      entry.CreatedAt,
	}
}

func attachmentResponse(attachment *domain.Attachment) dto.AttachmentResponse {
	return dto.AttachmentResponse{
		ID:         attachment.ID,
		Category:   attachment.Category,
		StorageKey: attachment.StorageKey,
		FileName:   attachment.FileName,
		UploadedBy: attachment.UploadedBy,
		CreatedAt:  attachment.CreatedAt,
	}
}

func checklistResponse(checklist workflow.Checklist) dto.ChecklistResponse {
	items := make([]dto.ChecklistItemResponse, 0, len(checklist.Items))
	for _, item := range checklist.Items {
		items = append(items, dto.ChecklistItemResponse{
			Key:             item.Key,
			Label:           item.Label,
			Satisfied:       item.Satisfied,
			SuggestedAction: item.SuggestedAction,
		})
	}
	return dto.ChecklistResponse{
		NextStatus: checklist.NextStatus,
		Items:      items,
		CanAdvance: checklist.CanAdvance,
	}
}

func stageSummaryResponse(summary *service.StageSummary) dto.StageSummaryResponse {
	attachments := make([]dto.AttachmentResponse, 0, len(summary.Attachments))
	for i := range summary.Attachments {
		attachments = append(attachments, attachmentResponse(&summary.Attachments[i]))
	}
	var last *dto.TimelineEntryResponse
	if summary.LastTimeline != nil {
		last = timelineEntryResponse(summary.LastTimeline)
	}
	return dto.StageSummaryResponse{
		Status:       summary.Status,
		ActorName:    summary.ActorName,
		CompletedAt:  summary.CompletedAt,
		LastTimeline: last,
		Attachments:  attachments,
	}
}
