package employee

import "time"

type Employee struct {
	ID               string
	CompanyID        string
	EmployeeCode     string
	FullName         string
	ExternalPersonID *int64 // Float people id
	CreatedAt        time.Time
	UpdatedAt        time.Time
	DeletedAt        *time.Time
}
