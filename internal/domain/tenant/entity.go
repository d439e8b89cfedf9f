package tenant

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

const DateLayout = "2006-01-02"

// OpenSessionPolicy decides where an Enter without a matching Exit is cut off.
type OpenSessionPolicy string

const (
	// OpenSessionLastEvent closes the session at the employee's last recorded event of the day.
	OpenSessionLastEvent OpenSessionPolicy = "last_event"
	// OpenSessionDayEnd closes the session at the end of the tenant-local day
	// (or at processing time while the day is still running).
	OpenSessionDayEnd OpenSessionPolicy = "day_end"
)

var OpenSessionPolicyValues = []string{
	string(OpenSessionLastEvent),
	string(OpenSessionDayEnd),
}

// Config is the per-tenant attendance configuration. It is loaded once per call and passed
// explicitly to every computation.
type Config struct {
	CompanyID                 string
	Timezone                  string
	GeofenceRadiusMeters      decimal.Decimal
	NoiseThresholdMeters      decimal.Decimal
	ExpectedHoursPerDay       decimal.Decimal
	IncludeWeekends           bool
	OpenSessionPolicy         OpenSessionPolicy
	ExcellentThresholdPercent decimal.Decimal
	GoodThresholdPercent      decimal.Decimal

	// Holidays is keyed by civil date (YYYY-MM-DD) and holds the holiday name.
	Holidays map[string]string

	loc *time.Location
}

// SetTimezone resolves name and makes it the tenant zone. An unknown name leaves the
// current zone in place.
func (c *Config) SetTimezone(name string) error {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidTimezone, name)
	}
	c.Timezone = name
	c.loc = loc
	return nil
}

// Location returns the zone resolved by SetTimezone, or UTC when none was set.
func (c Config) Location() *time.Location {
	if c.loc == nil {
		return time.UTC
	}
	return c.loc
}

// LocalDate returns the tenant-local civil date of an instant, as midnight UTC.
func (c Config) LocalDate(t time.Time) time.Time {
	local := t.In(c.Location())
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)
}

// DayBounds returns the [start, end) instants of a civil date in the tenant zone.
func (c Config) DayBounds(date time.Time) (time.Time, time.Time) {
	loc := c.Location()
	start := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 0, 1)
}

func (c Config) IsHoliday(date time.Time) bool {
	_, ok := c.Holidays[date.Format(DateLayout)]
	return ok
}

// Defaults are the values used for tenants without stored settings.
type Defaults struct {
	Timezone             string
	GeofenceRadiusMeters decimal.Decimal
	NoiseThresholdMeters decimal.Decimal
	ExpectedHoursPerDay  decimal.Decimal
}

// DefaultConfig builds the fallback configuration. An unknown default zone resolves to UTC.
func DefaultConfig(companyID string, d Defaults) Config {
	cfg := Config{
		CompanyID:                 companyID,
		Timezone:                  "UTC",
		loc:                       time.UTC,
		GeofenceRadiusMeters:      d.GeofenceRadiusMeters,
		NoiseThresholdMeters:      d.NoiseThresholdMeters,
		ExpectedHoursPerDay:       d.ExpectedHoursPerDay,
		IncludeWeekends:           false,
		OpenSessionPolicy:         OpenSessionLastEvent,
		ExcellentThresholdPercent: decimal.NewFromInt(100),
		GoodThresholdPercent:      decimal.NewFromInt(80),
		Holidays:                  map[string]string{},
	}
	if d.Timezone != "" {
		_ = cfg.SetTimezone(d.Timezone)
	}
	return cfg
}
