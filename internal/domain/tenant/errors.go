package tenant

import "errors"

var (
	ErrCompanyIDRequired = errors.New("company_id is required")
	ErrInvalidTimezone   = errors.New("invalid timezone")
)
