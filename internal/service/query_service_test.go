package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felipe2640/garantias-service/internal/dates"
	"github.com/felipe2640/garantias-service/internal/domain"
)

func (e *testEnv) queryService() *QueryService {
	return NewQueryService(QueryDependencies{
		TicketRepo: e.tickets,
		UseIndexes: false,
		Timezone:   dates.LoadLocation(""),
	})
}

func (e *testEnv) indexedQueryService() *QueryService {
	return NewQueryService(QueryDependencies{
		TicketRepo: e.tickets,
		UseIndexes: true,
		Timezone:   dates.LoadLocation(""),
	})
}

// queryStrategies lets a test run the same scenario against both listing paths.
var queryStrategies = map[string]func(*testEnv) *QueryService{
	"scan":    (*testEnv).queryService,
	"indexed": (*testEnv).indexedQueryService,
}

// mutateTicket edits stored state directly, bypassing service validation, to
// stage listing scenarios such as pre-set due dates.
func (e *testEnv) mutateTicket(t *testing.T, id string, fn func(*domain.Ticket)) {
	t.Helper()
	e.store.mu.Lock()
	defer e.store.mu.Unlock()
	ticket, ok := e.store.tickets[id]
	require.True(t, ok)
	fn(ticket)
}

func seedTickets(t *testing.T, env *testEnv, n int) []*domain.Ticket {
	t.Helper()
	ts := env.ticketService()
	out := make([]*domain.Ticket, 0, n)
	for i := 0; i < n; i++ {
		ticket, err := ts.Create(context.Background(), testTenant, recebimentoActor, TicketCreateInput{
			StoreID:         "loja-01",
			CustomerName:    fmt.Sprintf("Cliente %02d", i),
			CustomerPhone:   fmt.Sprintf("1198888%04d", i),
			SaleNumber:      fmt.Sprintf("V-%04d", 2000+i),
			PartDescription: "Compressor",
		})
		require.NoError(t, err)
		out = append(out, ticket)
	}
	return out
}

func ticketIDs(page TicketPage) []string {
	ids := make([]string, 0, len(page.Tickets))
	for _, t := range page.Tickets {
		ids = append(ids, t.ID)
	}
	return ids
}

func TestListNewestFirstWithCursor(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	seeded := seedTickets(t, env, 5)
	qs := env.queryService()

	page, err := qs.List(ctx, testTenant, TicketListFilter{}, 2, "")
	require.NoError(t, err)
	assert.Equal(t, []string{seeded[4].ID, seeded[3].ID}, ticketIDs(page))
	require.Equal(t, seeded[3].ID, page.NextCursor)

	page, err = qs.List(ctx, testTenant, TicketListFilter{}, 2, page.NextCursor)
	require.NoError(t, err)
	assert.Equal(t, []string{seeded[2].ID, seeded[1].ID}, ticketIDs(page))
	require.Equal(t, seeded[1].ID, page.NextCursor)

	page, err = qs.List(ctx, testTenant, TicketListFilter{}, 2, page.NextCursor)
	require.NoError(t, err)
	assert.Equal(t, []string{seeded[0].ID}, ticketIDs(page))
	assert.Empty(t, page.NextCursor)
}

func TestListOverdueSortedByDueDate(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	seeded := seedTickets(t, env, 4)
	loc := dates.LoadLocation("")
	today := dates.Today(loc)

	env.mutateTicket(t, seeded[0].ID, func(tk *domain.Ticket) { tk.DueDate = dates.AddDays(today, -3) })
	env.mutateTicket(t, seeded[1].ID, func(tk *domain.Ticket) { tk.DueDate = dates.AddDays(today, -10) })
	env.mutateTicket(t, seeded[2].ID, func(tk *domain.Ticket) { tk.DueDate = dates.AddDays(today, 2) })
	// A closed ticket never counts as overdue, no matter the due date.
	env.mutateTicket(t, seeded[3].ID, func(tk *domain.Ticket) {
		tk.DueDate = dates.AddDays(today, -30)
		tk.IsClosed = true
	})

	page, err := env.queryService().List(ctx, testTenant, TicketListFilter{OverdueOnly: true}, 10, "")
	require.NoError(t, err)
	assert.Equal(t, []string{seeded[1].ID, seeded[0].ID}, ticketIDs(page))
}

func TestListOverdueCursorSurvivesFilterChanges(t *testing.T) {
	for name, newService := range queryStrategies {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			env := newTestEnv()
			seeded := seedTickets(t, env, 3)
			loc := dates.LoadLocation("")
			today := dates.Today(loc)

			env.mutateTicket(t, seeded[0].ID, func(tk *domain.Ticket) { tk.DueDate = dates.AddDays(today, -30) })
			env.mutateTicket(t, seeded[1].ID, func(tk *domain.Ticket) { tk.DueDate = dates.AddDays(today, -20) })
			env.mutateTicket(t, seeded[2].ID, func(tk *domain.Ticket) { tk.DueDate = dates.AddDays(today, -10) })
			qs := newService(env)

			page, err := qs.List(ctx, testTenant, TicketListFilter{OverdueOnly: true}, 2, "")
			require.NoError(t, err)
			assert.Equal(t, []string{seeded[0].ID, seeded[1].ID}, ticketIDs(page))
			require.Equal(t, seeded[1].ID, page.NextCursor)

			// The cursor ticket getting closed between pages must not re-serve
			// rows already returned; only the remainder follows.
			env.mutateTicket(t, seeded[1].ID, func(tk *domain.Ticket) { tk.IsClosed = true })

			page, err = qs.List(ctx, testTenant, TicketListFilter{OverdueOnly: true}, 2, page.NextCursor)
			require.NoError(t, err)
			assert.Equal(t, []string{seeded[2].ID}, ticketIDs(page))
			assert.Empty(t, page.NextCursor)
		})
	}
}

// collectPages drains a listing through its cursor, recording each page's IDs.
func collectPages(t *testing.T, qs *QueryService, filter TicketListFilter, limit int) [][]string {
	t.Helper()
	var pages [][]string
	cursor := ""
	for {
		page, err := qs.List(context.Background(), testTenant, filter, limit, cursor)
		require.NoError(t, err)
		pages = append(pages, ticketIDs(page))
		if page.NextCursor == "" {
			return pages
		}
		cursor = page.NextCursor
	}
}

func TestStrategiesPaginateIdentically(t *testing.T) {
	env := newTestEnv()
	seeded := seedTickets(t, env, 7)
	loc := dates.LoadLocation("")
	today := dates.Today(loc)
	supplierID := "sup-42"

	env.mutateTicket(t, seeded[0].ID, func(tk *domain.Ticket) { tk.DueDate = dates.AddDays(today, -12) })
	env.mutateTicket(t, seeded[1].ID, func(tk *domain.Ticket) {
		tk.DueDate = dates.AddDays(today, -4)
		tk.SupplierID = &supplierID
	})
	env.mutateTicket(t, seeded[2].ID, func(tk *domain.Ticket) { tk.DueDate = dates.AddDays(today, -4) })
	env.mutateTicket(t, seeded[3].ID, func(tk *domain.Ticket) {
		tk.DueDate = dates.AddDays(today, -1)
		tk.IsClosed = true
	})
	env.mutateTicket(t, seeded[4].ID, func(tk *domain.Ticket) { tk.StoreID = "loja-02" })

	scan := env.queryService()
	indexed := env.indexedQueryService()

	status := domain.StatusRecebimento
	store := "loja-02"
	cases := []struct {
		name   string
		filter TicketListFilter
		limit  int
	}{
		{"newest first", TicketListFilter{}, 3},
		{"overdue by due date", TicketListFilter{OverdueOnly: true}, 2},
		{"status", TicketListFilter{Status: &status}, 2},
		{"store", TicketListFilter{StoreID: &store}, 2},
		{"supplier", TicketListFilter{SupplierID: &supplierID}, 2},
		{"search", TicketListFilter{Search: "Cliente"}, 2},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t,
				collectPages(t, indexed, tc.filter, tc.limit),
				collectPages(t, scan, tc.filter, tc.limit))
		})
	}
}

func TestListSearchMatchesNormalizedAndDigits(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	seedTickets(t, env, 2)
	target := seedTicket(t, env)
	qs := env.queryService()

	// Accented query against the accent-stripped token.
	page, err := qs.List(ctx, testTenant, TicketListFilter{Search: "José"}, 10, "")
	require.NoError(t, err)
	assert.Equal(t, []string{target.ID}, ticketIDs(page))

	// Formatted phone against the digit-only token.
	page, err = qs.List(ctx, testTenant, TicketListFilter{Search: "(11) 98888-7777"}, 10, "")
	require.NoError(t, err)
	assert.Equal(t, []string{target.ID}, ticketIDs(page))

	page, err = qs.List(ctx, testTenant, TicketListFilter{Search: "inexistente"}, 10, "")
	require.NoError(t, err)
	assert.Empty(t, page.Tickets)
}

func TestListFiltersByStatusStoreAndSupplier(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	seeded := seedTickets(t, env, 3)
	supplierID := "sup-99"
	env.mutateTicket(t, seeded[0].ID, func(tk *domain.Ticket) {
		tk.Status = domain.StatusInterno
		tk.SupplierID = &supplierID
	})
	env.mutateTicket(t, seeded[1].ID, func(tk *domain.Ticket) { tk.StoreID = "loja-02" })
	qs := env.queryService()

	status := domain.StatusInterno
	page, err := qs.List(ctx, testTenant, TicketListFilter{Status: &status}, 10, "")
	require.NoError(t, err)
	assert.Equal(t, []string{seeded[0].ID}, ticketIDs(page))

	store := "loja-02"
	page, err = qs.List(ctx, testTenant, TicketListFilter{StoreID: &store}, 10, "")
	require.NoError(t, err)
	assert.Equal(t, []string{seeded[1].ID}, ticketIDs(page))

	page, err = qs.List(ctx, testTenant, TicketListFilter{SupplierID: &supplierID}, 10, "")
	require.NoError(t, err)
	assert.Equal(t, []string{seeded[0].ID}, ticketIDs(page))
}

func TestListTenantScoped(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	seedTickets(t, env, 2)
	other, err := env.ticketService().Create(ctx, "tenant-2", recebimentoActor, TicketCreateInput{
		StoreID:      "loja-09",
		CustomerName: "Outro Cliente",
	})
	require.NoError(t, err)

	page, err := env.queryService().List(ctx, "tenant-2", TicketListFilter{}, 10, "")
	require.NoError(t, err)
	assert.Equal(t, []string{other.ID}, ticketIDs(page))
}

func TestNextActionBuckets(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	seeded := seedTickets(t, env, 5)
	loc := dates.LoadLocation("")
	today := dates.Today(loc)

	env.mutateTicket(t, seeded[0].ID, func(tk *domain.Ticket) { tk.NextActionAt = dates.AddDays(today, -2) })
	env.mutateTicket(t, seeded[1].ID, func(tk *domain.Ticket) { tk.NextActionAt = today })
	env.mutateTicket(t, seeded[2].ID, func(tk *domain.Ticket) { tk.NextActionAt = dates.AddDays(today, 3) })
	// Beyond the seven-day window and a closed ticket both stay out.
	env.mutateTicket(t, seeded[3].ID, func(tk *domain.Ticket) { tk.NextActionAt = dates.AddDays(today, 9) })
	env.mutateTicket(t, seeded[4].ID, func(tk *domain.Ticket) {
		tk.NextActionAt = today
		tk.IsClosed = true
	})

	buckets, err := env.queryService().NextActions(ctx, testTenant)
	require.NoError(t, err)

	require.Len(t, buckets.Overdue, 1)
	assert.Equal(t, seeded[0].ID, buckets.Overdue[0].ID)
	require.Len(t, buckets.Today, 1)
	assert.Equal(t, seeded[1].ID, buckets.Today[0].ID)
	require.Len(t, buckets.NextWeek, 1)
	assert.Equal(t, seeded[2].ID, buckets.NextWeek[0].ID)
}
