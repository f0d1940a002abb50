package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/felipe2640/garantias-service/internal/domain"
	"github.com/felipe2640/garantias-service/internal/events"
)

func TestCreateTicketIntake(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	ts := env.ticketService()
	ticket := seedTicket(t, env)

	assert.Equal(t, domain.StatusRecebimento, ticket.Status)
	assert.NotEmpty(t, ticket.ID)
	assert.False(t, ticket.IsClosed)

	// Tokens cover normalized name words, digit-only phone/document, sale number.
	assert.Contains(t, ticket.SearchTokens, "jose")
	assert.Contains(t, ticket.SearchTokens, "silva")
	assert.Contains(t, ticket.SearchTokens, "11988887777")
	assert.Contains(t, ticket.SearchTokens, "12345678900")
	assert.Contains(t, ticket.SearchTokens, "v-1001")

	got, err := ts.Get(ctx, ticket.ID, testTenant)
	require.NoError(t, err)
	require.Len(t, got.StageHistory, 1)
	assert.Equal(t, domain.StatusRecebimento, got.StageHistory[0].Status)

	timeline, err := ts.ListTimeline(ctx, ticket.ID, testTenant)
	require.NoError(t, err)
	require.Len(t, timeline, 1)
	assert.Equal(t, domain.TimelineStatusChange, timeline[0].EntryType)
	assert.Equal(t, "Chamado registrado em RECEBIMENTO", timeline[0].Body)
}

func TestGetTenantIsolation(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	ticket := seedTicket(t, env)

	_, err := env.ticketService().Get(ctx, ticket.ID, "tenant-2")
	assert.Equal(t, "NOT_FOUND", errCode(t, err))
	_, err = env.ticketService().Get(ctx, "missing", testTenant)
	assert.Equal(t, "NOT_FOUND", errCode(t, err))
}

func TestEditRebuildsSearchTokens(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	ts := env.ticketService()
	ticket := seedTicket(t, env)

	newName := "Maria Conceição"
	updated, err := ts.Edit(ctx, ticket.ID, testTenant, adminActor, TicketEditInput{CustomerName: &newName})
	require.NoError(t, err)

	assert.Contains(t, updated.SearchTokens, "maria")
	assert.Contains(t, updated.SearchTokens, "conceicao")
	assert.NotContains(t, updated.SearchTokens, "jose")
}

func TestEditRejectsMalformedDate(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	ticket := seedTicket(t, env)

	bad := "20/08/2026"
	_, err := env.ticketService().Edit(ctx, ticket.ID, testTenant, adminActor, TicketEditInput{SentToSupplierAt: &bad})
	assert.Equal(t, "VALIDATION_FAILED", errCode(t, err))
}

func TestTimelineEntryUpdatesNextAction(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	ts := env.ticketService()
	ticket := seedTicket(t, env)

	entry, err := ts.AddTimelineEntry(ctx, ticket.ID, testTenant, cobrancaActor, TimelineInput{
		EntryType:      domain.TimelinePhone,
		Body:           "Liguei para o fornecedor, sem resposta",
		NextActionAt:   "2026-09-05",
		NextActionNote: "Ligar novamente",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.TimelinePhone, entry.EntryType)

	got, err := ts.Get(ctx, ticket.ID, testTenant)
	require.NoError(t, err)
	assert.Equal(t, "2026-09-05", got.NextActionAt)
	assert.Equal(t, "Ligar novamente", got.NextActionNote)
}

func TestTimelineEntryValidation(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	ts := env.ticketService()
	ticket := seedTicket(t, env)

	// STATUS_CHANGE entries are system-generated only.
	_, err := ts.AddTimelineEntry(ctx, ticket.ID, testTenant, adminActor, TimelineInput{
		EntryType: domain.TimelineStatusChange,
		Body:      "forjado",
	})
	assert.Equal(t, "VALIDATION_FAILED", errCode(t, err))

	_, err = ts.AddTimelineEntry(ctx, ticket.ID, testTenant, adminActor, TimelineInput{
		EntryType: domain.TimelineNote,
		Body:      "  ",
	})
	assert.Equal(t, "VALIDATION_FAILED", errCode(t, err))

	_, err = ts.AddTimelineEntry(ctx, ticket.ID, testTenant, adminActor, TimelineInput{
		EntryType:    domain.TimelineNote,
		Body:         "nota",
		NextActionAt: "amanhã",
	})
	assert.Equal(t, "VALIDATION_FAILED", errCode(t, err))
}

func TestAddAttachmentWritesAuditTrail(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	ts := env.ticketService()
	ticket := seedTicket(t, env)

	attachment, err := ts.AddAttachment(ctx, ticket.ID, testTenant, logisticaActor, AttachmentInput{
		Category:   domain.CategoryNotaFiscal,
		StorageKey: "s3://bucket/nf.pdf",
		FileName:   "nf.pdf",
	})
	require.NoError(t, err)
	assert.Equal(t, logisticaActor.ID, attachment.UploadedBy)

	audit, err := ts.ListAudit(ctx, ticket.ID, testTenant)
	require.NoError(t, err)
	require.NotEmpty(t, audit)
	last := audit[len(audit)-1]
	assert.Equal(t, domain.AuditUpload, last.Action)
	assert.Equal(t, string(domain.CategoryNotaFiscal), last.Reason)

	_, err = ts.AddAttachment(ctx, ticket.ID, testTenant, adminActor, AttachmentInput{
		Category:   "VIDEO",
		StorageKey: "s3://bucket/v.mp4",
	})
	assert.Equal(t, "VALIDATION_FAILED", errCode(t, err))
}

func TestCreateLogsDispatchFailure(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	core, logs := observer.New(zap.WarnLevel)

	dispatcher := events.NewInMemoryDispatcher()
	dispatcher.Subscribe(events.EventTicketCreated, func(context.Context, events.Event) error {
		return errors.New("webhook down")
	})
	ts := NewTicketService(TicketDependencies{
		UnitOfWork:     env.uow,
		TicketRepo:     env.tickets,
		StageRepo:      env.stages,
		TimelineRepo:   env.timeline,
		AuditRepo:      env.audit,
		AttachmentRepo: env.attachments,
		Dispatcher:     dispatcher,
		Logger:         zap.New(core),
	})

	// A failing subscriber never fails the request, but it must be surfaced.
	ticket, err := ts.Create(ctx, testTenant, recebimentoActor, TicketCreateInput{
		StoreID:      "loja-01",
		CustomerName: "Ana Souza",
	})
	require.NoError(t, err)

	entries := logs.FilterMessage("event dispatch").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, string(events.EventTicketCreated), fields["event_type"])
	assert.Equal(t, ticket.ID, fields["ticket_id"])
	assert.Equal(t, "webhook down", fields["error"])
}
