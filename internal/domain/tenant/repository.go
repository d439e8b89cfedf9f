package tenant

import "context"

type SettingsRepository interface {
	// GetConfig returns the tenant configuration including its holiday calendar.
	// Tenants without stored settings get the repository defaults.
	GetConfig(ctx context.Context, companyID string) (Config, error)

	// ListCompanyIDs returns every tenant that has settings or presence events.
	ListCompanyIDs(ctx context.Context) ([]string, error)
}
