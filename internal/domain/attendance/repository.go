package attendance

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// EventRepository is the append-only presence event store.
// All methods include companyID to prevent cross-tenant reads.
type EventRepository interface {
	// GetByDateRange returns events with from <= occurred_at < to, ordered by occurred_at, id.
	GetByDateRange(ctx context.Context, companyID string, from, to time.Time) ([]PresenceEvent, error)

	GetByID(ctx context.Context, id string, companyID string) (PresenceEvent, error)

	// GetFirstEnterOfDay returns the employee's earliest non-noise Enter in [from, to),
	// or nil when there is none.
	GetFirstEnterOfDay(ctx context.Context, employeeID string, from, to time.Time, companyID string) (*PresenceEvent, error)

	// MarkNoise flags an event as noise with its distance to the day's first entry and clears
	// its summarized marker so the next processing run refolds the pair without it.
	MarkNoise(ctx context.Context, id string, distanceMeters decimal.Decimal, companyID string) error

	// LockDay serialises processing and reclassification of one tenant-local date. It must
	// run inside a transaction and is held until that transaction ends.
	LockDay(ctx context.Context, companyID string, date time.Time) error

	// MarkSummarized stamps events as folded into a daily summary.
	MarkSummarized(ctx context.Context, ids []string, at time.Time, companyID string) error
}

type DailySummaryRepository interface {
	// Upsert creates or replaces the summary for (company, employee, site, date) and
	// reports whether a new row was inserted.
	Upsert(ctx context.Context, summary DailySummary) (DailySummary, bool, error)

	GetByDate(ctx context.Context, companyID string, date time.Time) ([]DailySummary, error)
}
