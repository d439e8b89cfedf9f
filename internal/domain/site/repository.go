package site

import "context"

// Directory is the read-only view of the site register. Every method is tenant scoped and
// skips soft-deleted rows.
type Directory interface {
	GetByID(ctx context.Context, id string, companyID string) (Site, error)
	GetByIDs(ctx context.Context, ids []string, companyID string) ([]Site, error)

	// GetActiveByCompanyID lists active sites, used for nearest-site lookups.
	GetActiveByCompanyID(ctx context.Context, companyID string) ([]Site, error)

	// GetMapped lists sites that carry an external project id.
	GetMapped(ctx context.Context, companyID string) ([]Site, error)
}
