package schedule

import (
	"context"
	"time"
)

// Provider is the read-only workforce-schedule feed. Results reflect the feed as of the
// call; two calls may legitimately disagree.
type Provider interface {
	// GetTasksForDate returns the tasks overlapping date, in feed order.
	GetTasksForDate(ctx context.Context, date time.Time) ([]ExternalTask, error)
}
