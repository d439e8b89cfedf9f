package geo

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

const (
	// EarthRadiusMeters is the mean Earth radius used by the Haversine formula.
	EarthRadiusMeters = 6371000

	// CoordinatePlaces is the fixed-point precision of stored coordinates (~0.11 m).
	CoordinatePlaces = 6

	// DistancePlaces rounds distances to millimetres.
	DistancePlaces = 3
)

// Coordinate is a point in decimal degrees. Values are kept as fixed-point decimals so the
// same input produces the same distance regardless of how it was transported.
type Coordinate struct {
	Latitude  decimal.Decimal
	Longitude decimal.Decimal
}

func NewCoordinate(lat, lon decimal.Decimal) Coordinate {
	return Coordinate{
		Latitude:  lat.Round(CoordinatePlaces),
		Longitude: lon.Round(CoordinatePlaces),
	}
}

// FromFloat is a convenience for callers holding float64 degrees (tests, query params).
func FromFloat(lat, lon float64) Coordinate {
	return NewCoordinate(decimal.NewFromFloat(lat), decimal.NewFromFloat(lon))
}

func (c Coordinate) Validate() error {
	if c.Latitude.LessThan(decimal.NewFromInt(-90)) || c.Latitude.GreaterThan(decimal.NewFromInt(90)) {
		return fmt.Errorf("latitude %s out of range", c.Latitude)
	}
	if c.Longitude.LessThan(decimal.NewFromInt(-180)) || c.Longitude.GreaterThan(decimal.NewFromInt(180)) {
		return fmt.Errorf("longitude %s out of range", c.Longitude)
	}
	return nil
}

func (c Coordinate) String() string {
	return c.Latitude.String() + "," + c.Longitude.String()
}

// Distance returns the great-circle distance between a and b in meters.
func Distance(a, b Coordinate) decimal.Decimal {
	a = NewCoordinate(a.Latitude, a.Longitude)
	b = NewCoordinate(b.Latitude, b.Longitude)
	if a.Latitude.Equal(b.Latitude) && a.Longitude.Equal(b.Longitude) {
		return decimal.Zero
	}

	lat1 := toRadians(a.Latitude)
	lat2 := toRadians(b.Latitude)

	// Differences are taken on the exact decimals, and their sign does not matter
	// because both terms are squared.
	dLat := toRadians(b.Latitude.Sub(a.Latitude).Abs())
	dLon := toRadians(b.Longitude.Sub(a.Longitude).Abs())

	sinLat := math.Sin(dLat / 2)
	sinLon := math.Sin(dLon / 2)
	h := sinLat*sinLat + math.Cos(lat1)*math.Cos(lat2)*sinLon*sinLon
	if h > 1 {
		h = 1
	}

	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return decimal.NewFromFloat(EarthRadiusMeters * c).Round(DistancePlaces)
}

// DistanceFloat is Distance for float64 callers.
func DistanceFloat(lat1, lon1, lat2, lon2 float64) float64 {
	return Distance(FromFloat(lat1, lon1), FromFloat(lat2, lon2)).InexactFloat64()
}

func toRadians(deg decimal.Decimal) float64 {
	return deg.InexactFloat64() * (math.Pi / 180.0)
}
