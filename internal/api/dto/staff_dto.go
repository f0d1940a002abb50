package dto

import (
	"time"

	"github.com/felipe2640/garantias-service/internal/domain"
)

// StaffLoginRequest payload.
type StaffLoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// StaffLoginResponse carries the issued token.
type StaffLoginResponse struct {
	Token     string        `json:"token"`
	ExpiresAt time.Time     `json:"expires_at"`
	Staff     StaffResponse `json:"staff"`
}

// PasswordChangeRequest payload for authenticated password changes.
type PasswordChangeRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8"`
}

// CreateStaffRequest registers an operator account.
type CreateStaffRequest struct {
	Name     string           `json:"name" validate:"required"`
	Email    string           `json:"email" validate:"required,email"`
	Password string           `json:"password" validate:"required,min=8"`
	Role     domain.StaffRole `json:"role" validate:"required,oneof=ADMIN RECEBIMENTO TRIAGEM LOGISTICA COBRANCA"`
	StoreID  *string          `json:"store_id"`
}

// UpdateStaffRequest modifies an operator account.
type UpdateStaffRequest struct {
	Name    string           `json:"name" validate:"required"`
	Email   string           `json:"email" validate:"omitempty,email"`
	Role    domain.StaffRole `json:"role" validate:"required,oneof=ADMIN RECEBIMENTO TRIAGEM LOGISTICA COBRANCA"`
	StoreID *string          `json:"store_id"`
	Active  bool             `json:"active"`
}

// StaffResponse is the public projection of an operator.
type StaffResponse struct {
	ID        string           `json:"id"`
	Name      string           `json:"name"`
	Email     string           `json:"email"`
	Role      domain.StaffRole `json:"role"`
	StoreID   *string          `json:"store_id"`
	Active    bool             `json:"active"`
	CreatedAt time.Time        `json:"created_at"`
}
