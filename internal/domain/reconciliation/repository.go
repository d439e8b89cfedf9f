package reconciliation

import (
	"context"
	"time"
)

type SpaStore interface {
	// GetForDate returns SPA records of a civil date ordered by created_at, id.
	GetForDate(ctx context.Context, companyID string, date time.Time) ([]SpaRecord, error)
}
