package site

import (
	"time"

	"github.com/cmlabs-hris/site-attendance-go/internal/pkg/geo"
	"github.com/shopspring/decimal"
)

type Site struct {
	ID                string
	CompanyID         string
	Name              string
	Code              string
	Latitude          decimal.Decimal
	Longitude         decimal.Decimal
	RadiusMeters      *decimal.Decimal // nil means the tenant default applies
	ExternalProjectID *int64           // Float project id
	IsActive          bool
	CreatedAt         time.Time
	UpdatedAt         time.Time
	DeletedAt         *time.Time
}

// Center returns the geofence center of the site.
func (s Site) Center() geo.Coordinate {
	return geo.NewCoordinate(s.Latitude, s.Longitude)
}

// Radius returns the site override when present, otherwise the tenant default.
func (s Site) Radius(tenantDefault decimal.Decimal) decimal.Decimal {
	if s.RadiusMeters != nil && s.RadiusMeters.IsPositive() {
		return *s.RadiusMeters
	}
	return tenantDefault
}
