package service

import (
	"context"
	"sort"
	"time"

	"github.com/felipe2640/garantias-service/internal/dates"
	"github.com/felipe2640/garantias-service/internal/domain"
	"github.com/felipe2640/garantias-service/internal/repository"
	"github.com/felipe2640/garantias-service/internal/search"
)

const defaultPageSize = 20

// TicketListFilter captures the optional listing filters exposed to callers.
type TicketListFilter struct {
	Status      *domain.TicketStatus
	StoreID     *string
	SupplierID  *string
	Search      string
	OverdueOnly bool
	ActionToday bool
}

// TicketPage is one page of a cursor-paginated listing. NextCursor is empty on
// the last page.
type TicketPage struct {
	Tickets    []domain.Ticket
	NextCursor string
}

// NextActionBuckets groups open tickets by their next-action date for the
// follow-up dashboard.
type NextActionBuckets struct {
	Overdue  []domain.Ticket
	Today    []domain.Ticket
	NextWeek []domain.Ticket
}

// queryStrategy abstracts how a page is produced. Selected once at construction
// time instead of sniffing provider errors at runtime.
type queryStrategy interface {
	fetch(ctx context.Context, q repository.TicketQuery) ([]domain.Ticket, error)
}

// QueryService is the tenant-scoped read path over tickets.
type QueryService struct {
	strategy queryStrategy
	loc      *time.Location
}

// QueryDependencies bundles collaborators for the query service. UseIndexes
// selects the indexed strategy; disable it for deployments without the
// composite indexes, at the cost of full tenant scans.
type QueryDependencies struct {
	TicketRepo repository.TicketRepository
	UseIndexes bool
	Timezone   *time.Location
}

// NewQueryService constructs the service with the configured strategy.
func NewQueryService(deps QueryDependencies) *QueryService {
	loc := deps.Timezone
	if loc == nil {
		loc = dates.LoadLocation("")
	}
	var strategy queryStrategy
	if deps.UseIndexes {
		strategy = &indexedQueryStrategy{tickets: deps.TicketRepo}
	} else {
		strategy = &scanAndFilterStrategy{tickets: deps.TicketRepo}
	}
	return &QueryService{strategy: strategy, loc: loc}
}

// List returns one page of tickets matching the filter, newest first. Overdue
// listings sort ascending by due date so the most delinquent tickets lead.
func (s *QueryService) List(ctx context.Context, tenantID string, filter TicketListFilter, limit int, cursor string) (TicketPage, error) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	q := repository.TicketQuery{
		TenantID:    tenantID,
		Status:      filter.Status,
		StoreID:     filter.StoreID,
		SupplierID:  filter.SupplierID,
		OverdueOnly: filter.OverdueOnly,
		ActionToday: filter.ActionToday,
		Today:       dates.Today(s.loc),
		Order:       repository.OrderCreatedDesc,
		Limit:       limit + 1,
		CursorID:    cursor,
	}
	if filter.OverdueOnly {
		q.Order = repository.OrderDueDateAsc
	}
	if filter.Search != "" {
		q.SearchTokens = searchCandidates(filter.Search)
	}
	tickets, err := s.strategy.fetch(ctx, q)
	if err != nil {
		return TicketPage{}, err
	}
	return paginate(tickets, limit), nil
}

// NextActions buckets the tenant's open tickets by next-action date: already
// overdue, due today, and due within the coming seven days.
func (s *QueryService) NextActions(ctx context.Context, tenantID string) (NextActionBuckets, error) {
	today := dates.Today(s.loc)
	base := repository.TicketQuery{
		TenantID: tenantID,
		OpenOnly: true,
		Today:    today,
		Order:    repository.OrderNextActionAsc,
	}

	overdueQ := base
	overdueQ.NextActionTo = dates.AddDays(today, -1)

	todayQ := base
	todayQ.ActionToday = true

	weekQ := base
	weekQ.NextActionFrom = dates.AddDays(today, 1)
	weekQ.NextActionTo = dates.AddDays(today, 7)

	var buckets NextActionBuckets
	var err error
	if buckets.Overdue, err = s.strategy.fetch(ctx, overdueQ); err != nil {
		return NextActionBuckets{}, err
	}
	if buckets.Today, err = s.strategy.fetch(ctx, todayQ); err != nil {
		return NextActionBuckets{}, err
	}
	if buckets.NextWeek, err = s.strategy.fetch(ctx, weekQ); err != nil {
		return NextActionBuckets{}, err
	}
	return buckets, nil
}

func paginate(tickets []domain.Ticket, limit int) TicketPage {
	page := TicketPage{Tickets: tickets}
	if len(tickets) > limit {
		page.Tickets = tickets[:limit]
		page.NextCursor = tickets[limit-1].ID
	}
	return page
}

// searchCandidates produces the token forms a raw term may match under: the
// normalized text and, for phone/document style input, its digits.
func searchCandidates(term string) []string {
	candidates := []string{}
	if tok := search.Normalize(term); tok != "" {
		candidates = append(candidates, tok)
	}
	if digits := search.DigitsOnly(term); digits != "" && (len(candidates) == 0 || digits != candidates[0]) {
		candidates = append(candidates, digits)
	}
	return candidates
}

// indexedQueryStrategy delegates filtering, ordering, and keyset pagination to
// SQL backed by the composite indexes.
type indexedQueryStrategy struct {
	tickets repository.TicketRepository
}

func (s *indexedQueryStrategy) fetch(ctx context.Context, q repository.TicketQuery) ([]domain.Ticket, error) {
	return s.tickets.QueryPage(ctx, q)
}

// scanAndFilterStrategy fetches the tenant's whole ticket set and reproduces the
// indexed semantics in memory. Same results, higher latency; meant for
// deployments where the composite indexes are unavailable.
type scanAndFilterStrategy struct {
	tickets repository.TicketRepository
}

func (s *scanAndFilterStrategy) fetch(ctx context.Context, q repository.TicketQuery) ([]domain.Ticket, error) {
	all, err := s.tickets.ListByTenant(ctx, q.TenantID)
	if err != nil {
		return nil, err
	}

	filtered := make([]domain.Ticket, 0, len(all))
	for _, t := range all {
		if !matches(&t, q) {
			continue
		}
		filtered = append(filtered, t)
	}

	sortTickets(filtered, q.Order)

	if q.CursorID != "" {
		// Resolve the cursor row from the unfiltered set, so a cursor ticket
		// that stopped matching the filter between pages still anchors the
		// keyset instead of re-serving rows already returned.
		cursor := findTicket(all, q.CursorID)
		if cursor == nil {
			return []domain.Ticket{}, nil
		}
		kept := filtered[:0]
		for i := range filtered {
			if afterCursor(&filtered[i], cursor, q.Order) {
				kept = append(kept, filtered[i])
			}
		}
		filtered = kept
	}
	if q.Limit > 0 && len(filtered) > q.Limit {
		filtered = filtered[:q.Limit]
	}
	return filtered, nil
}

func findTicket(tickets []domain.Ticket, id string) *domain.Ticket {
	for i := range tickets {
		if tickets[i].ID == id {
			return &tickets[i]
		}
	}
	return nil
}

// afterCursor reports whether t sorts strictly after the cursor row, matching
// the tuple comparison the SQL keyset performs for each order.
func afterCursor(t, cursor *domain.Ticket, order repository.TicketOrder) bool {
	switch order {
	case repository.OrderDueDateAsc:
		if t.DueDate != cursor.DueDate {
			return t.DueDate > cursor.DueDate
		}
		return t.ID > cursor.ID
	case repository.OrderNextActionAsc:
		if t.NextActionAt != cursor.NextActionAt {
			return t.NextActionAt > cursor.NextActionAt
		}
		return t.ID > cursor.ID
	default:
		if !t.CreatedAt.Equal(cursor.CreatedAt) {
			return t.CreatedAt.Before(cursor.CreatedAt)
		}
		return t.ID < cursor.ID
	}
}

func matches(t *domain.Ticket, q repository.TicketQuery) bool {
	if q.Status != nil && t.Status != *q.Status {
		return false
	}
	if q.StoreID != nil && t.StoreID != *q.StoreID {
		return false
	}
	if q.SupplierID != nil && (t.SupplierID == nil || *t.SupplierID != *q.SupplierID) {
		return false
	}
	if len(q.SearchTokens) > 0 && !overlaps(t.SearchTokens, q.SearchTokens) {
		return false
	}
	if q.OpenOnly && t.IsClosed {
		return false
	}
	if q.OverdueOnly {
		if t.IsClosed || !dates.IsOverdue(t.DueDate, q.Today) {
			return false
		}
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

func overlaps(tokens, candidates []string) bool {
	for _, c := range candidates {
		for _, tok := range tokens {
			if tok == c {
				return true
			}
		}
	}
	return false
}

func sortTickets(tickets []domain.Ticket, order repository.TicketOrder) {
	switch order {
	case repository.OrderDueDateAsc:
		sort.SliceStable(tickets, func(i, j int) bool {
			if tickets[i].DueDate != tickets[j].DueDate {
				return tickets[i].DueDate < tickets[j].DueDate
			}
			return tickets[i].ID < tickets[j].ID
		})
	case repository.OrderNextActionAsc:
		sort.SliceStable(tickets, func(i, j int) bool {
			if tickets[i].NextActionAt != tickets[j].NextActionAt {
				return tickets[i].NextActionAt < tickets[j].NextActionAt
			}
			return tickets[i].ID < tickets[j].ID
		})
	default:
		sort.SliceStable(tickets, func(i, j int) bool {
			if !tickets[i].CreatedAt.Equal(tickets[j].CreatedAt) {
				return tickets[i].CreatedAt.After(tickets[j].CreatedAt)
			}
			return tickets[i].ID > tickets[j].ID
		})
	}
}
