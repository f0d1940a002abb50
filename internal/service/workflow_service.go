package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/felipe2640/garantias-service/internal/dates"
	"github.com/felipe2640/garantias-service/internal/domain"
	"github.com/felipe2640/garantias-service/internal/events"
	"github.com/felipe2640/garantias-service/internal/repository"
	"github.com/felipe2640/garantias-service/internal/workflow"
	apperrors "github.com/felipe2640/garantias-service/pkg/util"
)

// WorkflowService owns every status mutation of a ticket. All other services
// treat status and its derived fields as read-only.
type WorkflowService struct {
	uow         repository.UnitOfWork
	tickets     repository.TicketRepository
	suppliers   repository.SupplierRepository
	attachments repository.AttachmentRepository
	dispatcher  events.Dispatcher
	logger      *zap.Logger
	loc         *time.Location
}

// WorkflowDependencies bundles collaborators for the workflow service.
type WorkflowDependencies struct {
	UnitOfWork     repository.UnitOfWork
	TicketRepo     repository.TicketRepository
	SupplierRepo   repository.SupplierRepository
	AttachmentRepo repository.AttachmentRepository
	Dispatcher     events.Dispatcher
	Logger         *zap.Logger
	Timezone       *time.Location
}

// AdvanceInput carries the stage-specific values a caller may supply when
// advancing a ticket.
type AdvanceInput struct {
	SupplierID       string
	SupplierResponse string
	ResolutionResult domain.ResolutionResult
	ResolutionNotes  string
}

// NewWorkflowService constructs the service.
func NewWorkflowService(deps WorkflowDependencies) *WorkflowService {
	loc := deps.Timezone
	if loc == nil {
		loc = dates.LoadLocation("")
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WorkflowService{
		uow:         deps.UnitOfWork,
		tickets:     deps.TicketRepo,
		suppliers:   deps.SupplierRepo,
		attachments: deps.AttachmentRepo,
		dispatcher:  deps.Dispatcher,
		logger:      logger,
		loc:         loc,
	}
}

// Advance moves a ticket exactly one step forward along the pipeline. The status
// update and its stage-history, audit and timeline rows commit in a single
// transaction over the locked ticket row, so a failed advance leaves the ticket
// untouched and concurrent advances cannot both commit.
func (s *WorkflowService) Advance(ctx context.Context, ticketID, tenantID string, actor domain.Actor, input AdvanceInput) (domain.TicketStatus, error) {
	hasCanhoto, err := s.attachments.Exists(ctx, ticketID, domain.CategoryCanhoto)
	if err != nil {
		return "", err
	}

	var fromStatus, toStatus domain.TicketStatus
	var dueDate string

	err = s.uow.Do(ctx, func(tx repository.RepositorySet) error {
		ticket, err := loadTenantTicketForUpdate(ctx, tx, ticketID, tenantID)
		if err != nil {
			return err
		}

		in := workflow.TransitionInput{
			SupplierID:       input.SupplierID,
			SupplierResponse: input.SupplierResponse,
			ResolutionResult: input.ResolutionResult,
			ResolutionNotes:  input.ResolutionNotes,
		}
		checks := workflow.DerivedChecks{HasCanhoto: hasCanhoto}
		if err := workflow.Validate(ticket, actor.Role, in, checks); err != nil {
			return mapWorkflowError(err)
		}

		next, _ := workflow.NextStatus(ticket.Status)
		from := ticket.Status
		now := time.Now()

		switch ticket.Status {
		case domain.StatusInterno:
			if err := s.freezeSupplier(ctx, ticket, tenantID, input.SupplierID, now); err != nil {
				return err
			}
		case domain.StatusCobranca:
			if response := strings.TrimSpace(input.SupplierResponse); response != "" {
				ticket.SupplierResponse = response
			}
		case domain.StatusResolucao:
			result := input.ResolutionResult
			if result == "" {
				result = *ticket.ResolutionResult
			}
			ticket.ResolutionResult = &result
			if notes := strings.TrimSpace(input.ResolutionNotes); notes != "" {
				ticket.ResolutionNotes = notes
			}
			ticket.ClosedAt = &now
		}

		ticket.Status = next
		ticket.IsClosed = next == domain.StatusEncerrado

		if err := tx.Tickets().UpdateWorkflow(ctx, ticket); err != nil {
			if errors.Is(err, repository.ErrVersionConflict) {
				return apperrors.NewConflict("ticket was modified concurrently", nil)
			}
			return err
		}

		if err := tx.Stages().Append(ctx, &domain.StageRecord{
			TicketID:    ticket.ID,
			Status:      next,
			CompletedAt: now,
			ActorID:     actor.ID,
			ActorName:   actor.Name,
		}); err != nil {
			return err
		}
		if err := tx.Audit().Append(ctx, &domain.AuditEntry{
			TicketID:   ticket.ID,
			Action:     domain.AuditStatusChange,
			FromStatus: &from,
			ToStatus:   &next,
			ActorID:    actor.ID,
			ActorName:  actor.Name,
		}); err != nil {
			return err
		}
		if err := tx.Timeline().Append(ctx, &domain.TimelineEntry{
			TicketID:  ticket.ID,
			EntryType: domain.TimelineStatusChange,
			Body:      fmt.Sprintf("Status alterado de %s para %s", from, next),
			ActorID:   actor.ID,
			ActorName: actor.Name,
		}); err != nil {
			return err
		}

		fromStatus, toStatus, dueDate = from, next, ticket.DueDate
		return nil
	})
	if err != nil {
		return "", err
	}

	s.publish(ctx, events.Event{
		Type:     events.EventTicketStatusChanged,
		TenantID: tenantID,
		TicketID: ticketID,
		Actor:    actor,
		Payload: events.TicketStatusChangedPayload{
			FromStatus: fromStatus,
			ToStatus:   toStatus,
			DueDate:    dueDate,
		},
	})
	return toStatus, nil
}

// Revert moves a ticket backward to a strictly earlier stage. Admin only, reason
// mandatory. Downstream fields that belong to stages past the target are cleared
// so stale data cannot survive the rollback; the stage history is left intact.
func (s *WorkflowService) Revert(ctx context.Context, ticketID, tenantID string, actor domain.Actor, target domain.TicketStatus, reason string) (domain.TicketStatus, error) {
	if actor.Role != domain.RoleAdmin {
		return "", apperrors.NewForbidden("only administrators can revert a ticket")
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return "", apperrors.NewValidationError("revert reason is required", nil)
	}
	targetIdx := domain.ChainIndex(target)
	if targetIdx < 0 {
		return "", apperrors.NewValidationError(fmt.Sprintf("unknown status %q", target), nil)
	}

	var fromStatus domain.TicketStatus

	err := s.uow.Do(ctx, func(tx repository.RepositorySet) error {
		ticket, err := loadTenantTicketForUpdate(ctx, tx, ticketID, tenantID)
		if err != nil {
			return err
		}
		if targetIdx >= domain.ChainIndex(ticket.Status) {
			return apperrors.NewInvalidTransition(
				fmt.Sprintf("cannot revert from %s to %s", ticket.Status, target))
		}

		from := ticket.Status
		if targetIdx <= domain.ChainIndex(domain.StatusResolucao) {
			ticket.ResolutionResult = nil
			ticket.ResolutionNotes = ""
			ticket.ClosedAt = nil
		}
		if targetIdx <= domain.ChainIndex(domain.StatusCobranca) {
			ticket.SupplierResponse = ""
		}
		if targetIdx <= domain.ChainIndex(domain.StatusInterno) {
			ticket.SupplierID = nil
			ticket.SupplierName = nil
			ticket.SLADays = nil
			ticket.DeliveredToSupplierAt = nil
			ticket.DueDate = ""
		}
		ticket.Status = target
		ticket.IsClosed = false

		if err := tx.Tickets().UpdateWorkflow(ctx, ticket); err != nil {
			if errors.Is(err, repository.ErrVersionConflict) {
				return apperrors.NewConflict("ticket was modified concurrently", nil)
			}
			return err
		}

		if err := tx.Audit().Append(ctx, &domain.AuditEntry{
			TicketID:   ticket.ID,
			Action:     domain.AuditAdminRevert,
			FromStatus: &from,
			ToStatus:   &target,
			Reason:     reason,
			ActorID:    actor.ID,
			ActorName:  actor.Name,
		}); err != nil {
			return err
		}
		if err := tx.Timeline().Append(ctx, &domain.TimelineEntry{
			TicketID:  ticket.ID,
			EntryType: domain.TimelineStatusChange,
			Body:      fmt.Sprintf("Status revertido de %s para %s: %s", from, target, reason),
			ActorID:   actor.ID,
			ActorName: actor.Name,
		}); err != nil {
			return err
		}

		fromStatus = from
		return nil
	})
	if err != nil {
		return "", err
	}

	s.publish(ctx, events.Event{
		Type:     events.EventTicketReverted,
		TenantID: tenantID,
		TicketID: ticketID,
		Actor:    actor,
		Payload: events.TicketRevertedPayload{
			FromStatus: fromStatus,
			ToStatus:   target,
			Reason:     reason,
		},
	})
	return target, nil
}

// Checklist reports what the ticket still needs to advance. Advisory only: the
// next Advance call re-validates against the then-current snapshot.
func (s *WorkflowService) Checklist(ctx context.Context, ticketID, tenantID string) (workflow.Checklist, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return workflow.Checklist{}, apperrors.NewNotFound("ticket", nil)
		}
		return workflow.Checklist{}, err
	}
	if ticket.TenantID != tenantID {
		return workflow.Checklist{}, apperrors.NewNotFound("ticket", nil)
	}
	hasCanhoto, err := s.attachments.Exists(ctx, ticketID, domain.CategoryCanhoto)
	if err != nil {
		return workflow.Checklist{}, err
	}
	return workflow.BuildChecklist(ticket, workflow.DerivedChecks{HasCanhoto: hasCanhoto}), nil
}

// freezeSupplier resolves the supplier leaving INTERNO and copies its SLA onto the
// ticket. The copied fields stay immutable until an admin revert clears them.
func (s *WorkflowService) freezeSupplier(ctx context.Context, ticket *domain.Ticket, tenantID, supplierID string, now time.Time) error {
	id := strings.TrimSpace(supplierID)
	if id == "" && ticket.SupplierID != nil {
		id = *ticket.SupplierID
	}
	supplier, err := s.suppliers.GetByID(ctx, id, tenantID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("supplier", map[string]any{"supplier_id": id})
		}
		return err
	}
	sla := supplier.SLADays
	ticket.SupplierID = &supplier.ID
	ticket.SupplierName = &supplier.Name
	ticket.SLADays = &sla
	ticket.DeliveredToSupplierAt = &now
	ticket.DueDate = dates.ComputeDueDate(now, sla, s.loc)
	return nil
}

func (s *WorkflowService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("event dispatch",
			zap.String("event_type", string(event.Type)),
			zap.String("ticket_id", event.TicketID),
			zap.Error(err))
	}
}

// loadTenantTicketForUpdate locks the ticket row and enforces tenant isolation.
// A ticket from another tenant is indistinguishable from a missing one.
func loadTenantTicketForUpdate(ctx context.Context, tx repository.RepositorySet, ticketID, tenantID string) (*domain.Ticket, error) {
	ticket, err := tx.Tickets().GetForUpdate(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", nil)
		}
		return nil, err
	}
	if ticket.TenantID != tenantID {
		return nil, apperrors.NewNotFound("ticket", nil)
	}
	return ticket, nil
}

func mapWorkflowError(err error) error {
	var wErr *workflow.Error
	if !errors.As(err, &wErr) {
		return err
	}
	switch wErr.Kind {
	case workflow.KindInvalidTransition:
		return apperrors.NewInvalidTransition(wErr.Message)
	case workflow.KindForbidden:
		return apperrors.NewForbidden(wErr.Message)
	case workflow.KindMissingRequirement:
		return apperrors.NewMissingRequirement(wErr.Message, wErr.Missing)
	case workflow.KindValidation:
		return apperrors.NewValidationError(wErr.Message, nil)
	}
	return err
}
