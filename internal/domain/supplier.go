package domain

import "time"

// Supplier is a parts vendor tracked for SLA compliance. SLADays is copied onto a
// ticket when the supplier is assigned and is immutable on the ticket afterward.
type Supplier struct {
	ID        string
	TenantID  string
	Name      string
	SLADays   int
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
