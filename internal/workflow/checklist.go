package workflow

import "github.com/felipe2640/garantias-service/internal/domain"

// ChecklistItem describes one requirement of the ticket's next transition for UI
// guidance.
type ChecklistItem struct {
	Key             string
	Label           string
	Satisfied       bool
	SuggestedAction string
}

// Checklist is advisory data only. The workflow service re-validates at execution
// time, so a stale checklist can never authorize a transition.
type Checklist struct {
	NextStatus domain.TicketStatus
	Items      []ChecklistItem
	CanAdvance bool
}

// BuildChecklist reports what is still missing to move the ticket one step forward.
// CanAdvance mirrors Validate on the same snapshot: it runs the validator with an
// admin role so only requirement gates, not the caller's role, decide the outcome.
func BuildChecklist(t *domain.Ticket, checks DerivedChecks) Checklist {
	tr, ok := Find(t.Status)
	if !ok {
		return Checklist{}
	}
	cl := Checklist{
		NextStatus: tr.To,
		Items:      make([]ChecklistItem, 0, len(tr.Requirements)),
	}
	for _, req := range tr.Requirements {
		cl.Items = append(cl.Items, ChecklistItem{
			Key:             req.Key,
			Label:           req.Label,
			Satisfied:       req.Satisfied(t, TransitionInput{}, checks),
			SuggestedAction: req.SuggestedAction,
		})
	}
	cl.CanAdvance = Validate(t, domain.RoleAdmin, TransitionInput{}, checks) == nil
	return cl
}
