package employee

import "context"

// Directory is the read-only view of the employee register. Every method is tenant scoped
// and skips soft-deleted rows.
type Directory interface {
	GetByIDs(ctx context.Context, ids []string, companyID string) ([]Employee, error)

	// GetMapped lists employees that carry an external person id.
	GetMapped(ctx context.Context, companyID string) ([]Employee, error)
}
