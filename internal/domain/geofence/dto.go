package geofence

import (
	"fmt"

	"github.com/cmlabs-hris/site-attendance-go/internal/pkg/geo"
	"github.com/cmlabs-hris/site-attendance-go/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

// PointRequest carries coordinates as received, in decimal degrees.
type PointRequest struct {
	CompanyID string `json:"-" validate:"required"`
	Latitude  string `json:"latitude" validate:"required,latitude"`
	Longitude string `json:"longitude" validate:"required,longitude"`
}

func (r *PointRequest) Validate() error {
	return validator.Struct(r)
}

// Coordinate parses the request without passing through float64.
func (r *PointRequest) Coordinate() (geo.Coordinate, error) {
	lat, err := decimal.NewFromString(r.Latitude)
	if err != nil {
		return geo.Coordinate{}, fmt.Errorf("%w: latitude %q", ErrInvalidCoordinate, r.Latitude)
	}
	lon, err := decimal.NewFromString(r.Longitude)
	if err != nil {
		return geo.Coordinate{}, fmt.Errorf("%w: longitude %q", ErrInvalidCoordinate, r.Longitude)
	}
	return geo.NewCoordinate(lat, lon), nil
}

type NearestSiteResponse struct {
	Found          bool    `json:"found"`
	SiteID         *string `json:"site_id,omitempty"`
	SiteName       *string `json:"site_name,omitempty"`
	SiteCode       *string `json:"site_code,omitempty"`
	DistanceMeters *string `json:"distance_meters,omitempty"`
}

type ContainsResponse struct {
	SiteID    string `json:"site_id"`
	Latitude  string `json:"latitude"`
	Longitude string `json:"longitude"`
	Within    bool   `json:"within"`
}

type ClassifyEventResponse struct {
	EventID        string  `json:"event_id"`
	IsNoise        bool    `json:"is_noise"`
	DistanceMeters *string `json:"distance_meters,omitempty"`
	FirstEntryID   *string `json:"first_entry_id,omitempty"`
}
