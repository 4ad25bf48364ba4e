package database

import (
	"database/sql"
	"errors"
	"time"

	"github.com/campustransit/bus-reservation-backend/internal/models"
)

// OperatorRepository handles database operations for the operators table.
// Find/Get methods return (nil, nil) when no row matches.
type OperatorRepository struct {
	q Queryer
}

// NewOperatorRepository creates a new OperatorRepository
func NewOperatorRepository(q Queryer) *OperatorRepository {
	return &OperatorRepository{q: q}
}

const operatorColumns = `operator_id, employee_id, display_name, password_hash,
	phone, email, status, created_at, last_login_at`

// GetByID retrieves an operator by ID
func (r *OperatorRepository) GetByID(operatorID string) (*models.Operator, error) {
	var o models.Operator
	err := r.q.Get(&o, `SELECT `+operatorColumns+` FROM operators WHERE operator_id = $1`, operatorID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// GetByEmployeeID retrieves an operator by their unique employee ID
func (r *OperatorRepository) GetByEmployeeID(employeeID string) (*models.Operator, error) {
	var o models.Operator
	err := r.q.Get(&o, `SELECT `+operatorColumns+` FROM operators WHERE employee_id = $1`, employeeID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// UpdateLastLogin stamps a successful login
func (r *OperatorRepository) UpdateLastLogin(operatorID string, at time.Time) error {
	_, err := r.q.Exec(`UPDATE operators SET last_login_at = $2 WHERE operator_id = $1`, operatorID, at)
	return err
}
