package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/felipe2640/garantias-service/internal/dates"
	"github.com/felipe2640/garantias-service/internal/domain"
	"github.com/felipe2640/garantias-service/internal/events"
	"github.com/felipe2640/garantias-service/internal/repository"
	"github.com/felipe2640/garantias-service/internal/search"
	apperrors "github.com/felipe2640/garantias-service/pkg/util"
)

// TicketService handles intake, descriptive-field edits, timeline entries, and
// attachment registration. Status fields belong to the WorkflowService.
type TicketService struct {
	uow         repository.UnitOfWork
	tickets     repository.TicketRepository
	stages      repository.StageHistoryRepository
	timeline    repository.TimelineRepository
	audit       repository.AuditRepository
	attachments repository.AttachmentRepository
	dispatcher  events.Dispatcher
	logger      *zap.Logger
}

// TicketDependencies bundles repositories for the ticket service.
type TicketDependencies struct {
	UnitOfWork     repository.UnitOfWork
	TicketRepo     repository.TicketRepository
	StageRepo      repository.StageHistoryRepository
	TimelineRepo   repository.TimelineRepository
	AuditRepo      repository.AuditRepository
	AttachmentRepo repository.AttachmentRepository
	Dispatcher     events.Dispatcher
	Logger         *zap.Logger
}

// TicketCreateInput describes an intake payload.
type TicketCreateInput struct {
	StoreID           string
	CustomerName      string
	CustomerPhone     string
	CustomerDocument  string
	SaleNumber        string
	PartDescription   string
	DefectDescription string
}

// TicketEditInput describes a descriptive-field edit. Nil pointers leave the
// field unchanged.
type TicketEditInput struct {
	CustomerName          *string
	CustomerPhone         *string
	CustomerDocument      *string
	SaleNumber            *string
	PartDescription       *string
	DefectDescription     *string
	OutboundInvoiceNumber *string
	SentToSupplierAt      *string
}

// TimelineInput describes a manual timeline entry.
type TimelineInput struct {
	EntryType      domain.TimelineEntryType
	Body           string
	NextActionAt   string
	NextActionNote string
}

// AttachmentInput describes a file already stored with the provider.
type AttachmentInput struct {
	Category   domain.AttachmentCategory
	StorageKey string
	FileName   string
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TicketService{
		uow:         deps.UnitOfWork,
		tickets:     deps.TicketRepo,
		stages:      deps.StageRepo,
		timeline:    deps.TimelineRepo,
		audit:       deps.AuditRepo,
		attachments: deps.AttachmentRepo,
		dispatcher:  deps.Dispatcher,
		logger:      logger,
	}
}

// Create registers a new ticket in RECEBIMENTO with its first stage-history
// record and an automatic timeline entry, all in one transaction.
func (s *TicketService) Create(ctx context.Context, tenantID string, actor domain.Actor, input TicketCreateInput) (*domain.Ticket, error) {
	ticket := &domain.Ticket{
		TenantID:          tenantID,
		StoreID:           strings.TrimSpace(input.StoreID),
		Status:            domain.StatusRecebimento,
		CustomerName:      strings.TrimSpace(input.CustomerName),
		CustomerPhone:     strings.TrimSpace(input.CustomerPhone),
		CustomerDocument:  strings.TrimSpace(input.CustomerDocument),
		SaleNumber:        strings.TrimSpace(input.SaleNumber),
		PartDescription:   strings.TrimSpace(input.PartDescription),
		DefectDescription: strings.TrimSpace(input.DefectDescription),
	}
	ticket.SearchTokens = search.BuildTokens(search.TokenFields{
		CustomerName:     ticket.CustomerName,
		CustomerPhone:    ticket.CustomerPhone,
		CustomerDocument: ticket.CustomerDocument,
		SaleNumber:       ticket.SaleNumber,
	})

	err := s.uow.Do(ctx, func(tx repository.RepositorySet) error {
		if err := tx.Tickets().Create(ctx, ticket); err != nil {
			return err
		}
		if err := tx.Stages().Append(ctx, &domain.StageRecord{
			TicketID:    ticket.ID,
			Status:      domain.StatusRecebimento,
			CompletedAt: ticket.CreatedAt,
			ActorID:     actor.ID,
			ActorName:   actor.Name,
		}); err != nil {
			return err
		}
		return tx.Timeline().Append(ctx, &domain.TimelineEntry{
			TicketID:  ticket.ID,
			EntryType: domain.TimelineStatusChange,
			Body:      "Chamado registrado em RECEBIMENTO",
			ActorID:   actor.ID,
			ActorName: actor.Name,
		})
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.Event{
		Type:     events.EventTicketCreated,
		TenantID: tenantID,
		TicketID: ticket.ID,
		Actor:    actor,
		Payload: events.TicketCreatedPayload{
			StoreID:      ticket.StoreID,
			CustomerName: ticket.CustomerName,
			SaleNumber:   ticket.SaleNumber,
		},
	})
	return ticket, nil
}

// Get fetches a ticket with its stage history, enforcing tenant isolation.
func (s *TicketService) Get(ctx context.Context, ticketID, tenantID string) (*domain.Ticket, error) {
	ticket, err := s.loadTenantTicket(ctx, ticketID, tenantID)
	if err != nil {
		return nil, err
	}
	history, err := s.stages.ListByTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	ticket.StageHistory = history
	return ticket, nil
}

// Edit updates descriptive fields and rebuilds the search tokens whenever an
// indexed field changed, so free-text lookup never goes stale after an edit.
func (s *TicketService) Edit(ctx context.Context, ticketID, tenantID string, actor domain.Actor, input TicketEditInput) (*domain.Ticket, error) {
	ticket, err := s.loadTenantTicket(ctx, ticketID, tenantID)
	if err != nil {
		return nil, err
	}

	apply := func(dst *string, src *string) {
		if src != nil {
			*dst = strings.TrimSpace(*src)
		}
	}
	apply(&ticket.CustomerName, input.CustomerName)
	apply(&ticket.CustomerPhone, input.CustomerPhone)
	apply(&ticket.CustomerDocument, input.CustomerDocument)
	apply(&ticket.SaleNumber, input.SaleNumber)
	apply(&ticket.PartDescription, input.PartDescription)
	apply(&ticket.DefectDescription, input.DefectDescription)
	apply(&ticket.OutboundInvoiceNumber, input.OutboundInvoiceNumber)
	if input.SentToSupplierAt != nil {
		sent := strings.TrimSpace(*input.SentToSupplierAt)
		if sent != "" && !dates.IsValid(sent) {
			return nil, apperrors.NewValidationError("sent_to_supplier_at must be YYYY-MM-DD", nil)
		}
		ticket.SentToSupplierAt = sent
	}

	ticket.SearchTokens = search.BuildTokens(search.TokenFields{
		CustomerName:     ticket.CustomerName,
		CustomerPhone:    ticket.CustomerPhone,
		CustomerDocument: ticket.CustomerDocument,
		SaleNumber:       ticket.SaleNumber,
	})

	if err := s.tickets.UpdateDetails(ctx, ticket); err != nil {
		return nil, err
	}
	return ticket, nil
}

// AddTimelineEntry appends a note or contact log. A next-action date on the entry
// overwrites the ticket's next-action fields as a side effect.
func (s *TicketService) AddTimelineEntry(ctx context.Context, ticketID, tenantID string, actor domain.Actor, input TimelineInput) (*domain.TimelineEntry, error) {
	switch input.EntryType {
	case domain.TimelineNote, domain.TimelinePhone, domain.TimelineEmail:
	default:
		return nil, apperrors.NewValidationError("entry_type must be NOTE, PHONE or EMAIL", nil)
	}
	if strings.TrimSpace(input.Body) == "" {
		return nil, apperrors.NewValidationError("body is required", nil)
	}
	nextAction := strings.TrimSpace(input.NextActionAt)
	if nextAction != "" && !dates.IsValid(nextAction) {
		return nil, apperrors.NewValidationError("next_action_at must be YYYY-MM-DD", nil)
	}

	if _, err := s.loadTenantTicket(ctx, ticketID, tenantID); err != nil {
		return nil, err
	}

	entry := &domain.TimelineEntry{
		TicketID:       ticketID,
		EntryType:      input.EntryType,
		Body:           strings.TrimSpace(input.Body),
		NextActionAt:   nextAction,
		NextActionNote: strings.TrimSpace(input.NextActionNote),
		ActorID:        actor.ID,
		ActorName:      actor.Name,
	}

	err := s.uow.Do(ctx, func(tx repository.RepositorySet) error {
		if err := tx.Timeline().Append(ctx, entry); err != nil {
			return err
		}
		if entry.NextActionAt != "" {
			return tx.Tickets().UpdateNextAction(ctx, ticketID, entry.NextActionAt, entry.NextActionNote)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.Event{
		Type:     events.EventTimelineAdded,
		TenantID: tenantID,
		TicketID: ticketID,
		Actor:    actor,
		Payload: events.TimelineAddedPayload{
			EntryID:      entry.ID,
			EntryType:    entry.EntryType,
			NextActionAt: entry.NextActionAt,
		},
	})
	return entry, nil
}

// ListTimeline returns the ticket's operational narrative.
func (s *TicketService) ListTimeline(ctx context.Context, ticketID, tenantID string) ([]domain.TimelineEntry, error) {
	if _, err := s.loadTenantTicket(ctx, ticketID, tenantID); err != nil {
		return nil, err
	}
	return s.timeline.ListByTicket(ctx, ticketID)
}

// ListAudit returns the ticket's compliance trail.
func (s *TicketService) ListAudit(ctx context.Context, ticketID, tenantID string) ([]domain.AuditEntry, error) {
	if _, err := s.loadTenantTicket(ctx, ticketID, tenantID); err != nil {
		return nil, err
	}
	return s.audit.ListByTicket(ctx, ticketID)
}

// AddAttachment records a file reference already held by the storage provider
// and logs the upload on the audit trail.
func (s *TicketService) AddAttachment(ctx context.Context, ticketID, tenantID string, actor domain.Actor, input AttachmentInput) (*domain.Attachment, error) {
	switch input.Category {
	case domain.CategoryNotaFiscal, domain.CategoryCanhoto, domain.CategoryFoto, domain.CategoryOutros:
	default:
		return nil, apperrors.NewValidationError("unknown attachment category", nil)
	}
	if strings.TrimSpace(input.StorageKey) == "" {
		return nil, apperrors.NewValidationError("storage_key is required", nil)
	}

	ticket, err := s.loadTenantTicket(ctx, ticketID, tenantID)
	if err != nil {
		return nil, err
	}

	attachment := &domain.Attachment{
		TicketID:   ticket.ID,
		Category:   input.Category,
		StorageKey: strings.TrimSpace(input.StorageKey),
		FileName:   strings.TrimSpace(input.FileName),
		UploadedBy: actor.ID,
	}
	if err := s.attachments.Create(ctx, attachment); err != nil {
		return nil, err
	}
	if err := s.audit.Append(ctx, &domain.AuditEntry{
		TicketID:  ticket.ID,
		Action:    domain.AuditUpload,
		Reason:    string(input.Category),
		ActorID:   actor.ID,
		ActorName: actor.Name,
	}); err != nil {
		return nil, err
	}

	s.publish(ctx, events.Event{
		Type:     events.EventAttachmentAdded,
		TenantID: tenantID,
		TicketID: ticketID,
		Actor:    actor,
		Payload: events.AttachmentAddedPayload{
			AttachmentID: attachment.ID,
			Category:     attachment.Category,
			FileName:     attachment.FileName,
		},
	})
	return attachment, nil
}

// ListAttachments returns the ticket's file references.
func (s *TicketService) ListAttachments(ctx context.Context, ticketID, tenantID string) ([]domain.Attachment, error) {
	if _, err := s.loadTenantTicket(ctx, ticketID, tenantID); err != nil {
		return nil, err
	}
	return s.attachments.ListByTicket(ctx, ticketID)
}

func (s *TicketService) loadTenantTicket(ctx context.Context, ticketID, tenantID string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
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

func (s *TicketService) publish(ctx context.Context, event events.Event) {
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
