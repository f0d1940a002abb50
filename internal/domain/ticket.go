package domain

import "time"

// TicketStatus enumerates the fixed pipeline stages a warranty ticket moves through.
type TicketStatus string

const (
	StatusRecebimento TicketStatus = "RECEBIMENTO"
	StatusInterno     TicketStatus = "INTERNO"
	StatusEntrega     TicketStatus = "ENTREGA_LOGISTICA"
	StatusCobranca    TicketStatus = "COBRANCA_ACOMPANHAMENTO"
	StatusResolucao   TicketStatus = "RESOLUCAO"
	StatusEncerrado   TicketStatus = "ENCERRADO"
)

// StatusChain is the only legal forward ordering of ticket statuses.
var StatusChain = []TicketStatus{
	StatusRecebimento,
	StatusInterno,
	StatusEntrega,
	StatusCobranca,
	StatusResolucao,
	StatusEncerrado,
}

// ChainIndex returns the position of a status in the pipeline, or -1 when unknown.
func ChainIndex(status TicketStatus) int {
	for i, s := range StatusChain {
		if s == status {
			return i
		}
	}
	return -1
}

// ResolutionResult enumerates how a claim is settled against the supplier.
type ResolutionResult string

const (
	ResolutionCredito ResolutionResult = "CREDITO"
	ResolutionTroca   ResolutionResult = "TROCA"
	ResolutionNegado  ResolutionResult = "NEGADO"
)

// ValidResolution reports whether the value belongs to the closed resolution enum.
func ValidResolution(r ResolutionResult) bool {
	switch r {
	case ResolutionCredito, ResolutionTroca, ResolutionNegado:
		return true
	}
	return false
}

// StageRecord is one append-only stage-history entry: a status the ticket reached,
// when, and by whom. A revert never removes records; a re-entered stage appends again.
type StageRecord struct {
	ID          string
	TicketID    string
	Status      TicketStatus
	CompletedAt time.Time
	ActorID     string
	ActorName   string
}

// Ticket is the aggregate for warranty/return claims. Status fields are mutated only
// through the workflow service; descriptive fields through the edit endpoints.
type Ticket struct {
	ID       string
	TenantID string
	StoreID  string
	Status   TicketStatus
	Version  int64

	CustomerName      string
	CustomerPhone     string
	CustomerDocument  string
	SaleNumber        string
	PartDescription   string
	DefectDescription string

	SupplierID   *string
	SupplierName *string
	SLADays      *int

	OutboundInvoiceNumber string
	SentToSupplierAt      string // date-only, YYYY-MM-DD
	DeliveredToSupplierAt *time.Time
	DueDate               string // date-only, YYYY-MM-DD; empty until computed

	NextActionAt   string // date-only, YYYY-MM-DD
	NextActionNote string

	SupplierResponse string
	ResolutionResult *ResolutionResult
	ResolutionNotes  string

	SearchTokens []string
	IsClosed     bool
	ClosedAt     *time.Time

	StageHistory []StageRecord

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Actor identifies the authenticated staff member performing an operation.
type Actor struct {
	ID   string
	Name string
	Role StaffRole
}
