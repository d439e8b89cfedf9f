package geofence

import (
	"github.com/cmlabs-hris/site-attendance-go/internal/domain/site"
	"github.com/shopspring/decimal"
)

// NearestSite is the closest active site to a point.
type NearestSite struct {
	Site           site.Site
	DistanceMeters decimal.Decimal
}

// NoiseResult is the outcome of comparing an event with the day's first entry.
type NoiseResult struct {
	IsNoise bool
	// DistanceMeters is the distance to the first entry; nil when it could not be computed.
	DistanceMeters *decimal.Decimal
	FirstEntryID   *string
}
