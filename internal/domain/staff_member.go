package domain

import "time"

// StaffRole enumerates operator roles. Each pipeline step is gated to the role that
// owns that stage, with ADMIN allowed everywhere.
type StaffRole string

const (
	RoleAdmin       StaffRole = "ADMIN"
	RoleRecebimento StaffRole = "RECEBIMENTO"
	RoleTriagem     StaffRole = "TRIAGEM"
	RoleLogistica   StaffRole = "LOGISTICA"
	RoleCobranca    StaffRole = "COBRANCA"
)

// StaffMember models a store or back-office operator within a tenant.
type StaffMember struct {
	ID           string
	TenantID     string
	Name         string
	Email        string
	PasswordHash string
	Role         StaffRole
	StoreID      *string
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
