package attendance

import (
	"context"
)

// AttendanceService folds presence events into daily summaries and answers working-day
// questions against the tenant calendar.
type AttendanceService interface {
	// ProcessDailyAttendance creates or updates one summary per (employee, site) touched on
	// the date. Safe to run repeatedly and concurrently for the same date.
	ProcessDailyAttendance(ctx context.Context, req ProcessDailyRequest) (ProcessResult, error)

	// ListDailySummaries returns the stored summaries of a date
	ListDailySummaries(ctx context.Context, req ListDailySummaryRequest) ([]DailySummaryResponse, error)

	// WorkingDays counts working days in an inclusive date range
	WorkingDays(ctx context.Context, req WorkingDaysRequest) (WorkingDaysResponse, error)
}
