package workflow

import (
	"strings"

	"github.com/felipe2640/garantias-service/internal/domain"
)

// TransitionInput carries the values a caller supplies with an advance request.
// Fields are only consulted by the stages that need them.
type TransitionInput struct {
	SupplierID       string
	SupplierResponse string
	ResolutionResult domain.ResolutionResult
	ResolutionNotes  string
}

// DerivedChecks holds facts that require collaborator I/O and are therefore
// resolved by the caller before validation runs. Validation itself stays pure.
type DerivedChecks struct {
	HasCanhoto bool
}

// Requirement is a single stage gate: a pure predicate over the ticket snapshot,
// the request input, and the pre-derived checks.
type Requirement struct {
	Key             string
	Label           string
	SuggestedAction string
	Satisfied       func(t *domain.Ticket, in TransitionInput, checks DerivedChecks) bool
}

// Transition is one row of the pipeline table. The same rows drive both the
// validator and the checklist builder, so the two can never disagree about what a
// stage requires.
type Transition struct {
	From         domain.TicketStatus
	To           domain.TicketStatus
	AllowedRoles []domain.StaffRole
	Requirements []Requirement
}

// Table declares the whole pipeline. Each non-terminal status has exactly one exit;
// ENCERRADO has none.
var Table = []Transition{
	{
		From:         domain.StatusRecebimento,
		To:           domain.StatusInterno,
		AllowedRoles: []domain.StaffRole{domain.RoleRecebimento, domain.RoleAdmin},
	},
	{
		From:         domain.StatusInterno,
		To:           domain.StatusEntrega,
		AllowedRoles: []domain.StaffRole{domain.RoleTriagem, domain.RoleAdmin},
		Requirements: []Requirement{
			{
				Key:             "supplier",
				Label:           "Fornecedor definido",
				SuggestedAction: "Selecione o fornecedor responsável pela peça",
				Satisfied: func(t *domain.Ticket, in TransitionInput, _ DerivedChecks) bool {
					return (t.SupplierID != nil && *t.SupplierID != "") || strings.TrimSpace(in.SupplierID) != ""
				},
			},
			{
				Key:             "invoice_number",
				Label:           "Nota fiscal de saída informada",
				SuggestedAction: "Preencha o número da nota fiscal de envio ao fornecedor",
				Satisfied: func(t *domain.Ticket, _ TransitionInput, _ DerivedChecks) bool {
					return strings.TrimSpace(t.OutboundInvoiceNumber) != ""
				},
			},
			{
				Key:             "sent_date",
				Label:           "Data de envio ao fornecedor informada",
				SuggestedAction: "Preencha a data de envio ao fornecedor",
				Satisfied: func(t *domain.Ticket, _ TransitionInput, _ DerivedChecks) bool {
					return strings.TrimSpace(t.SentToSupplierAt) != ""
				},
			},
		},
	},
	{
		From:         domain.StatusEntrega,
		To:           domain.StatusCobranca,
		AllowedRoles: []domain.StaffRole{domain.RoleLogistica, domain.RoleAdmin},
		Requirements: []Requirement{
			{
				Key:             "canhoto",
				Label:           "Canhoto de entrega anexado",
				SuggestedAction: "Anexe o canhoto assinado da transportadora",
				Satisfied: func(_ *domain.Ticket, _ TransitionInput, checks DerivedChecks) bool {
					return checks.HasCanhoto
				},
			},
		},
	},
	{
		From:         domain.StatusCobranca,
		To:           domain.StatusResolucao,
		AllowedRoles: []domain.StaffRole{domain.RoleCobranca, domain.RoleAdmin},
		Requirements: []Requirement{
			{
				Key:             "supplier_response",
				Label:           "Retorno do fornecedor registrado",
				SuggestedAction: "Registre a resposta do fornecedor sobre a cobrança",
				Satisfied: func(t *domain.Ticket, in TransitionInput, _ DerivedChecks) bool {
					return strings.TrimSpace(t.SupplierResponse) != "" || strings.TrimSpace(in.SupplierResponse) != ""
				},
			},
		},
	},
	{
		From:         domain.StatusResolucao,
		To:           domain.StatusEncerrado,
		AllowedRoles: []domain.StaffRole{domain.RoleCobranca, domain.RoleAdmin},
		Requirements: []Requirement{
			{
				Key:             "resolution_result",
				Label:           "Resultado da garantia definido",
				SuggestedAction: "Informe o resultado: crédito, troca ou negado",
				Satisfied: func(t *domain.Ticket, in TransitionInput, _ DerivedChecks) bool {
					if in.ResolutionResult != "" {
						return domain.ValidResolution(in.ResolutionResult)
					}
					return t.ResolutionResult != nil && domain.ValidResolution(*t.ResolutionResult)
				},
			},
		},
	},
}

// Find returns the table row whose From matches the given status.
func Find(from domain.TicketStatus) (*Transition, bool) {
	for i := range Table {
		if Table[i].From == from {
			return &Table[i], true
		}
	}
	return nil, false
}

// NextStatus resolves the single allowed successor of a status.
func NextStatus(from domain.TicketStatus) (domain.TicketStatus, bool) {
	tr, ok := Find(from)
	if !ok {
		return "", false
	}
	return tr.To, true
}

func (tr *Transition) roleAllowed(role domain.StaffRole) bool {
	for _, allowed := range tr.AllowedRoles {
		if allowed == role {
			return true
		}
	}
	return false
}
