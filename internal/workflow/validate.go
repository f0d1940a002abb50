package workflow

import (
	"fmt"

	"github.com/felipe2640/garantias-service/internal/domain"
)

// ErrorKind classifies why a transition was refused.
type ErrorKind string

const (
	KindInvalidTransition  ErrorKind = "INVALID_TRANSITION"
	KindForbidden          ErrorKind = "FORBIDDEN"
	KindMissingRequirement ErrorKind = "MISSING_REQUIREMENT"
	KindValidation         ErrorKind = "VALIDATION"
)

// Error is the typed refusal returned by Validate. Missing carries the machine key
// of the unmet gate when Kind is KindMissingRequirement.
type Error struct {
	Kind    ErrorKind
	Message string
	Missing string
}

func (e *Error) Error() string {
	if e.Missing != "" {
		return fmt.Sprintf("%s: %s (missing %s)", e.Kind, e.Message, e.Missing)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Validate decides whether the actor may advance the ticket one step along the
// pipeline. It is pure: no I/O, no mutation. Checks run in a fixed order so the
// caller always sees the most fundamental failure first.
func Validate(t *domain.Ticket, role domain.StaffRole, in TransitionInput, checks DerivedChecks) error {
	tr, ok := Find(t.Status)
	if !ok {
		return &Error{
			Kind:    KindInvalidTransition,
			Message: fmt.Sprintf("status %s has no next stage", t.Status),
		}
	}
	if !tr.roleAllowed(role) {
		return &Error{
			Kind:    KindForbidden,
			Message: fmt.Sprintf("role %s cannot advance a ticket in %s", role, t.Status),
		}
	}
	if t.Status == domain.StatusResolucao && in.ResolutionResult != "" && !domain.ValidResolution(in.ResolutionResult) {
		return &Error{
			Kind:    KindValidation,
			Message: fmt.Sprintf("unknown resolution result %q", in.ResolutionResult),
		}
	}
	for _, req := range tr.Requirements {
		if !req.Satisfied(t, in, checks) {
			return &Error{
				Kind:    KindMissingRequirement,
				Message: req.Label,
				Missing: req.Key,
			}
		}
	}
	return nil
}
