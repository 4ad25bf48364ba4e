package models

import "time"

// OperatorStatus represents the account state of an operator
type OperatorStatus string

const (
	OperatorStatusActive    OperatorStatus = "ACTIVE"
	OperatorStatusInactive  OperatorStatus = "INACTIVE"
	OperatorStatusSuspended OperatorStatus = "SUSPENDED"
)

// Operator represents a bus operator account, created administratively
type Operator struct {
	OperatorID   string         `json:"operator_id" db:"operator_id"`
	EmployeeID   string         `json:"employee_id" db:"employee_id"`
	DisplayName  string         `json:"display_name" db:"display_name"`
	PasswordHash string         `json:"-" db:"password_hash"`
	Phone        *string        `json:"phone,omitempty" db:"phone"`
	Email        *string        `json:"email,omitempty" db:"email"`
	Status       OperatorStatus `json:"status" db:"status"`
	CreatedAt    time.Time      `json:"created_at" db:"created_at"`
	LastLoginAt  *time.Time     `json:"last_login_at,omitempty" db:"last_login_at"`
}

// IsActive reports whether the operator may log in.
func (o *Operator) IsActive() bool {
	return o.Status == OperatorStatusActive
}
