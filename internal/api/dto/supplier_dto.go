package dto

import "time"

// CreateSupplierRequest registers a supplier for the tenant.
type CreateSupplierRequest struct {
	Name    string `json:"name" validate:"required"`
	SLADays int    `json:"sla_days" validate:"required,gt=0"`
}

// SupplierResponse is the public projection of a supplier.
type SupplierResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	SLADays   int       `json:"sla_days"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}
