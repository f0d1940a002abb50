package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/felipe2640/garantias-service/internal/domain"
	"github.com/felipe2640/garantias-service/internal/repository"
)

// memStore is the in-memory backing shared by the fake repositories. Repositories
// return copies, mirroring how row scanning detaches results from storage.
type memStore struct {
	mu          sync.Mutex
	seq         int
	tickets     map[string]*domain.Ticket
	stages      []domain.StageRecord
	timeline    []domain.TimelineEntry
	audit       []domain.AuditEntry
	attachments []domain.Attachment
	suppliers   map[string]*domain.Supplier

	failNextWorkflowUpdate bool
}

func newMemStore() *memStore {
	return &memStore{
		tickets:   make(map[string]*domain.Ticket),
		suppliers: make(map[string]*domain.Supplier),
	}
}

func (s *memStore) nextID(prefix string) string {
	s.seq++
	return fmt.Sprintf("%s-%04d", prefix, s.seq)
}

func copyTicket(t *domain.Ticket) *domain.Ticket {
	clone := *t
	clone.SearchTokens = append([]string(nil), t.SearchTokens...)
	clone.StageHistory = append([]domain.StageRecord(nil), t.StageHistory...)
	return &clone
}

type memTicketRepo struct{ store *memStore }

func (r *memTicketRepo) Create(_ context.Context, ticket *domain.Ticket) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	ticket.ID = r.store.nextID("tkt")
	ticket.Version = 1
	ticket.CreatedAt = time.Now()
	ticket.UpdatedAt = ticket.CreatedAt
	r.store.tickets[ticket.ID] = copyTicket(ticket)
	return nil
}

func (r *memTicketRepo) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	stored, ok := r.store.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return copyTicket(stored), nil
}

func (r *memTicketRepo) GetForUpdate(ctx context.Context, id string) (*domain.Ticket, error) {
	return r.GetByID(ctx, id)
}

func (r *memTicketRepo) UpdateWorkflow(_ context.Context, ticket *domain.Ticket) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if r.store.failNextWorkflowUpdate {
		r.store.failNextWorkflowUpdate = false
		return repository.ErrVersionConflict
	}
	stored, ok := r.store.tickets[ticket.ID]
	if !ok || stored.Version != ticket.Version {
		return repository.ErrVersionConflict
	}
	clone := copyTicket(ticket)
	clone.Version = ticket.Version + 1
	clone.UpdatedAt = time.Now()
	r.store.tickets[ticket.ID] = clone
	return nil
}

func (r *memTicketRepo) UpdateDetails(_ context.Context, ticket *domain.Ticket) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	stored, ok := r.store.tickets[ticket.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	clone := copyTicket(ticket)
	clone.Version = stored.Version
	clone.UpdatedAt = time.Now()
	r.store.tickets[ticket.ID] = clone
	return nil
}

func (r *memTicketRepo) UpdateNextAction(_ context.Context, id, nextActionAt, note string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	stored, ok := r.store.tickets[id]
	if !ok {
		return pgx.ErrNoRows
	}
	stored.NextActionAt = nextActionAt
	stored.NextActionNote = note
	return nil
}

// QueryPage reproduces the SQL contract end to end: WHERE filters, a keyset
// tuple comparison against the cursor row resolved by ID, ORDER BY on the sort
// key with an ID tiebreak, then LIMIT. Written against the SQL semantics rather
// than the scan strategy's helpers so the two paths stay independently testable.
func (r *memTicketRepo) QueryPage(_ context.Context, q repository.TicketQuery) ([]domain.Ticket, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var cursor *domain.Ticket
	if q.CursorID != "" {
		stored, ok := r.store.tickets[q.CursorID]
		if !ok {
			return []domain.Ticket{}, nil
		}
		cursor = copyTicket(stored)
	}

	out := make([]domain.Ticket, 0)
	for _, t := range r.store.tickets {
		if !sqlRowMatches(t, q) {
			continue
		}
		if cursor != nil && !sqlSortsBefore(cursor, t, q.Order) {
			continue
		}
		out = append(out, *copyTicket(t))
	}
	sort.Slice(out, func(i, j int) bool { return sqlSortsBefore(&out[i], &out[j], q.Order) })
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func sqlRowMatches(t *domain.Ticket, q repository.TicketQuery) bool {
	if t.TenantID != q.TenantID {
		return false
	}
	if q.Status != nil && t.Status != *q.Status {
		return false
	}
	if q.StoreID != nil && t.StoreID != *q.StoreID {
		return false
	}
	if q.SupplierID != nil && (t.SupplierID == nil || *t.SupplierID != *q.SupplierID) {
		return false
	}
	if len(q.SearchTokens) > 0 {
		hit := false
		for _, c := range q.SearchTokens {
			for _, tok := range t.SearchTokens {
				if tok == c {
					hit = true
				}
			}
		}
		if !hit {
			return false
		}
	}
	if q.OpenOnly && t.IsClosed {
		return false
	}
	if q.OverdueOnly && (t.IsClosed || t.DueDate == "" || t.DueDate >= q.Today) {
		return false
	}
	if q.ActionToday && t.NextActionAt != q.Today {
		return false
	}
	if q.NextActionFrom != "" && (t.NextActionAt == "" || t.NextActionAt < q.NextActionFrom) {
		return false
	}
	if q.NextActionTo != "" && (t.NextActionAt == "" || t.NextActionAt > q.NextActionTo) {
		return false
	}
	return true
}

// sqlSortsBefore is the ORDER BY comparison for the given order, ID tiebreak
// included, so the same function serves both sorting and the keyset check.
func sqlSortsBefore(a, b *domain.Ticket, order repository.TicketOrder) bool {
	switch order {
	case repository.OrderDueDateAsc:
		if a.DueDate != b.DueDate {
			return a.DueDate < b.DueDate
		}
		return a.ID < b.ID
	case repository.OrderNextActionAsc:
		if a.NextActionAt != b.NextActionAt {
			return a.NextActionAt < b.NextActionAt
		}
		return a.ID < b.ID
	default:
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID > b.ID
	}
}

func (r *memTicketRepo) ListByTenant(_ context.Context, tenantID string) ([]domain.Ticket, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	out := make([]domain.Ticket, 0)
	for _, t := range r.store.tickets {
		if t.TenantID == tenantID {
			out = append(out, *copyTicket(t))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type memStageRepo struct{ store *memStore }

func (r *memStageRepo) Append(_ context.Context, record *domain.StageRecord) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	record.ID = r.store.nextID("stg")
	if record.CompletedAt.IsZero() {
		record.CompletedAt = time.Now()
	}
	r.store.stages = append(r.store.stages, *record)
	return nil
}

func (r *memStageRepo) ListByTicket(_ context.Context, ticketID string) ([]domain.StageRecord, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	out := make([]domain.StageRecord, 0)
	for _, rec := range r.store.stages {
		if rec.TicketID == ticketID {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CompletedAt.Before(out[j].CompletedAt) })
	return out, nil
}

type memTimelineRepo struct{ store *memStore }

func (r *memTimelineRepo) Append(_ context.Context, entry *domain.TimelineEntry) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	entry.ID = r.store.nextID("tml")
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	r.store.timeline = append(r.store.timeline, *entry)
	return nil
}

func (r *memTimelineRepo) ListByTicket(_ context.Context, ticketID string) ([]domain.TimelineEntry, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	out := make([]domain.TimelineEntry, 0)
	for _, entry := range r.store.timeline {
		if entry.TicketID == ticketID {
			out = append(out, entry)
		}
	}
	return out, nil
}

type memAuditRepo struct{ store *memStore }

func (r *memAuditRepo) Append(_ context.Context, entry *domain.AuditEntry) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	entry.ID = r.store.nextID("aud")
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	r.store.audit = append(r.store.audit, *entry)
	return nil
}

func (r *memAuditRepo) ListByTicket(_ context.Context, ticketID string) ([]domain.AuditEntry, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	out := make([]domain.AuditEntry, 0)
	for _, entry := range r.store.audit {
		if entry.TicketID == ticketID {
			out = append(out, entry)
		}
	}
	return out, nil
}

type memAttachmentRepo struct{ store *memStore }

func (r *memAttachmentRepo) Create(_ context.Context, attachment *domain.Attachment) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	attachment.ID = r.store.nextID("att")
	if attachment.CreatedAt.IsZero() {
		attachment.CreatedAt = time.Now()
	}
	r.store.attachments = append(r.store.attachments, *attachment)
	return nil
}

func (r *memAttachmentRepo) ListByTicket(_ context.Context, ticketID string) ([]domain.Attachment, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	out := make([]domain.Attachment, 0)
	for _, attachment := range r.store.attachments {
		if attachment.TicketID == ticketID {
			out = append(out, attachment)
		}
	}
	return out, nil
}

func (r *memAttachmentRepo) Exists(_ context.Context, ticketID string, category domain.AttachmentCategory) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, attachment := range r.store.attachments {
		if attachment.TicketID == ticketID && attachment.Category == category {
			return true, nil
		}
	}
	return false, nil
}

type memSupplierRepo struct{ store *memStore }

func (r *memSupplierRepo) Create(_ context.Context, supplier *domain.Supplier) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	supplier.ID = r.store.nextID("sup")
	supplier.CreatedAt = time.Now()
	supplier.UpdatedAt = supplier.CreatedAt
	clone := *supplier
	r.store.suppliers[supplier.ID] = &clone
	return nil
}

func (r *memSupplierRepo) GetByID(_ context.Context, id, tenantID string) (*domain.Supplier, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	supplier, ok := r.store.suppliers[id]
	if !ok || supplier.TenantID != tenantID {
		return nil, pgx.ErrNoRows
	}
	clone := *supplier
	return &clone, nil
}

func (r *memSupplierRepo) ListByTenant(_ context.Context, tenantID string) ([]domain.Supplier, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	out := make([]domain.Supplier, 0)
	for _, supplier := range r.store.suppliers {
		if supplier.TenantID == tenantID {
			out = append(out, *supplier)
		}
	}
	return out, nil
}

type memRepositorySet struct {
	tickets  *memTicketRepo
	stages   *memStageRepo
	timeline *memTimelineRepo
	audit    *memAuditRepo
}

func (s *memRepositorySet) Tickets() repository.TicketRepository { return s.tickets }
func (s *memRepositorySet) Stages() repository.StageHistoryRepository { return s.stages }
func (s *memRepositorySet) Timeline() repository.TimelineRepository { return s.timeline }
func (s *memRepositorySet) Audit() repository.AuditRepository { return s.audit }

// memUnitOfWork runs the function against the shared store without transactional
// rollback; tests that need a failed mutation set failNextWorkflowUpdate instead.
type memUnitOfWork struct{ set *memRepositorySet }

func (u *memUnitOfWork) Do(_ context.Context, fn func(repository.RepositorySet) error) error {
	return fn(u.set)
}

// testEnv bundles a fully wired in-memory service stack.
type testEnv struct {
	store       *memStore
	tickets     *memTicketRepo
	stages      *memStageRepo
	timeline    *memTimelineRepo
	audit       *memAuditRepo
	attachments *memAttachmentRepo
	suppliers   *memSupplierRepo
	uow         repository.UnitOfWork
}

func newTestEnv() *testEnv {
	store := newMemStore()
	env := &testEnv{
		store:       store,
		tickets:     &memTicketRepo{store: store},
		stages:      &memStageRepo{store: store},
		timeline:    &memTimelineRepo{store: store},
		audit:       &memAuditRepo{store: store},
		attachments: &memAttachmentRepo{store: store},
		suppliers:   &memSupplierRepo{store: store},
	}
	env.uow = &memUnitOfWork{set: &memRepositorySet{
		tickets:  env.tickets,
		stages:   env.stages,
		timeline: env.timeline,
		audit:    env.audit,
	}}
	return env
}

func (e *testEnv) ticketService() *TicketService {
	return NewTicketService(TicketDependencies{
		UnitOfWork:     e.uow,
		TicketRepo:     e.tickets,
		StageRepo:      e.stages,
		TimelineRepo:   e.timeline,
		AuditRepo:      e.audit,
		AttachmentRepo: e.attachments,
	})
}

func (e *testEnv) workflowService() *WorkflowService {
	return NewWorkflowService(WorkflowDependencies{
		UnitOfWork:     e.uow,
		TicketRepo:     e.tickets,
		SupplierRepo:   e.suppliers,
		AttachmentRepo: e.attachments,
	})
}
