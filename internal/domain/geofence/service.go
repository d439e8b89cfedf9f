package geofence

import (
	"context"

	"github.com/cmlabs-hris/site-attendance-go/internal/domain/attendance"
	"github.com/cmlabs-hris/site-attendance-go/internal/pkg/geo"
)

// GeofenceService answers geospatial questions about a tenant's sites. Lookups are
// advisory: an unknown site, employee or empty site list yields an empty result rather than
// an error.
type GeofenceService interface {
	// FindNearestSite returns nil when the tenant has no active sites.
	FindNearestSite(ctx context.Context, companyID string, point geo.Coordinate) (*NearestSite, error)

	IsWithinGeofence(ctx context.Context, companyID string, siteID string, point geo.Coordinate) (bool, error)

	// CheckForNoise compares event with the employee's first Enter of the same local day.
	CheckForNoise(ctx context.Context, companyID string, event attendance.PresenceEvent) (NoiseResult, error)

	// ClassifyEvent runs CheckForNoise on a stored event and persists the noise flag.
	ClassifyEvent(ctx context.Context, companyID string, eventID string) (NoiseResult, error)
}
