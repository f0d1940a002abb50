package service

import (
	"context"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/felipe2640/garantias-service/internal/dates"
	"github.com/felipe2640/garantias-service/internal/domain"
)

const overdueReportPageSize = 200

var overdueReportHeaders = []any{
	"Chamado", "Loja", "Cliente", "Peça", "Fornecedor", "SLA (dias)",
	"Enviado em", "Vencimento", "Dias em atraso", "Status",
}

// ReportService renders dashboards exports. It sits on the query engine so a
// report sees exactly what the listing endpoints see.
type ReportService struct {
	queries *QueryService
	loc     *time.Location
}

// NewReportService constructs the service.
func NewReportService(queries *QueryService, loc *time.Location) *ReportService {
	if loc == nil {
		loc = dates.LoadLocation("")
	}
	return &ReportService{queries: queries, loc: loc}
}

// OverdueReport builds an XLSX workbook of the tenant's overdue tickets, sorted
// by due date ascending, one row per ticket.
func (s *ReportService) OverdueReport(ctx context.Context, tenantID string) (*excelize.File, error) {
	today := dates.Today(s.loc)

	f := excelize.NewFile()
	const sheet = "Garantias em atraso"
	f.SetSheetName("Sheet1", sheet)
	if err := f.SetSheetRow(sheet, "A1", &overdueReportHeaders); err != nil {
		return nil, err
	}
	if style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		f.SetCellStyle(sheet, "A1", "J1", style)
	}

	rowIdx := 2
	cursor := ""
	for {
		page, err := s.queries.List(ctx, tenantID, TicketListFilter{OverdueOnly: true}, overdueReportPageSize, cursor)
		if err != nil {
			return nil, err
		}
		for i := range page.Tickets {
			cell, err := excelize.CoordinatesToCellName(1, rowIdx)
			if err != nil {
				return nil, err
			}
			row := overdueRow(&page.Tickets[i], today)
			if err := f.SetSheetRow(sheet, cell, &row); err != nil {
				return nil, err
			}
			rowIdx++
		}
		if page.NextCursor == "" {
			break
		}
		cursor = page.NextCursor
	}

	f.SetColWidth(sheet, "A", "A", 38)
	f.SetColWidth(sheet, "C", "E", 25)
	return f, nil
}

// OverdueReportFileName names the download after the report date.
func (s *ReportService) OverdueReportFileName() string {
	return fmt.Sprintf("garantias_atrasadas_%s.xlsx", dates.Today(s.loc))
}

func overdueRow(t *domain.Ticket, today string) []any {
	supplier := ""
	if t.SupplierName != nil {
		supplier = *t.SupplierName
	}
	sla := 0
	if t.SLADays != nil {
		sla = *t.SLADays
	}
	return []any{
		t.ID,
		t.StoreID,
		t.CustomerName,
		t.PartDescription,
		supplier,
		sla,
		t.SentToSupplierAt,
		t.DueDate,
		dates.DiffDays(t.DueDate, today),
		string(t.Status),
	}
}
