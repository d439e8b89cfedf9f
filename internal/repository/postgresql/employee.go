package postgresql

import (
	"context"
	"fmt"

	"github.com/cmlabs-hris/site-attendance-go/internal/domain/employee"
	"github.com/cmlabs-hris/site-attendance-go/internal/pkg/database"
)

type employeeRepository struct {
	db *database.DB
}

func NewEmployeeRepository(db *database.DB) employee.Directory {
	return &employeeRepository{db: db}
}

func (r *employeeRepository) queryEmployees(ctx context.Context, query string, args ...interface{}) ([]employee.Employee, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query employees: %w", err)
	}
	defer rows.Close()

	var employees []employee.Employee
	for rows.Next() {
		var e employee.Employee
		if err := rows.Scan(
			&e.ID, &e.CompanyID, &e.EmployeeCode, &e.FullName, &e.ExternalPersonID,
			&e.CreatedAt, &e.UpdatedAt, &e.DeletedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan employee: %w", err)
		}
		employees = append(employees, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate employees: %w", err)
	}

	return employees, nil
}

// GetByIDs implements employee.Directory.
func (r *employeeRepository) GetByIDs(ctx context.Context, ids []string, companyID string) ([]employee.Employee, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := `
		SELECT id, company_id, employee_code, full_name, external_person_id,
			   created_at, updated_at, deleted_at
		FROM employees
		WHERE company_id = $1 AND id = ANY($2::uuid[]) AND deleted_at IS NULL
		ORDER BY full_name, id
	`

	return r.queryEmployees(ctx, query, companyID, ids)
}

// GetMapped implements employee.Directory.
func (r *employeeRepository) GetMapped(ctx context.Context, companyID string) ([]employee.Employee, error) {
	query := `
		SELECT id, company_id, employee_code, full_name, external_person_id,
			   created_at, updated_at, deleted_at
		FROM employees
		WHERE company_id = $1 AND external_person_id IS NOT NULL AND deleted_at IS NULL
		ORDER BY full_name, id
	`

	return r.queryEmployees(ctx, query, companyID)
}
