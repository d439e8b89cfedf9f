package reconciliation

import "context"

// ReconciliationService cross-references the schedule feed with geofence arrivals.
type ReconciliationService interface {
	// Reconcile builds the attendance report of one tenant-day. A schedule feed failure is
	// returned as schedule.ErrUpstreamUnavailable unless req.AllowPartial is set, in which
	// case a degraded actual-only report is returned.
	Reconcile(ctx context.Context, req ReconcileRequest) (Report, error)
}
