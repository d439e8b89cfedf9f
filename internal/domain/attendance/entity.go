package attendance

import (
	"time"

	"github.com/cmlabs-hris/site-attendance-go/internal/pkg/geo"
	"github.com/shopspring/decimal"
)

type EventKind string

const (
	EventKindEnter EventKind = "Enter"
	EventKindExit  EventKind = "Exit"
)

type TriggerMethod string

const (
	TriggerMethodAutomatic TriggerMethod = "Automatic"
	TriggerMethodManual    TriggerMethod = "Manual"
)

// PresenceEvent is a geofence Enter/Exit record. It is written by the ingestion path and is
// the attendance system of record; only the noise flag and the summarized marker change
// after insert.
type PresenceEvent struct {
	ID                  string
	CompanyID           string
	EmployeeID          string
	SiteID              string
	Kind                EventKind
	OccurredAt          time.Time
	Latitude            *decimal.Decimal
	Longitude           *decimal.Decimal
	TriggerMethod       TriggerMethod
	IsNoise             bool
	NoiseDistanceMeters *decimal.Decimal
	SummarizedAt        *time.Time
	CreatedAt           time.Time
}

// Coordinate returns the event position, or false when the event carries none.
func (e PresenceEvent) Coordinate() (geo.Coordinate, bool) {
	if e.Latitude == nil || e.Longitude == nil {
		return geo.Coordinate{}, false
	}
	return geo.NewCoordinate(*e.Latitude, *e.Longitude), true
}

type SummaryStatus string

const (
	SummaryStatusExcellent   SummaryStatus = "Excellent"
	SummaryStatusGood        SummaryStatus = "Good"
	SummaryStatusBelowTarget SummaryStatus = "BelowTarget"
	SummaryStatusAbsent      SummaryStatus = "Absent"
	SummaryStatusIncomplete  SummaryStatus = "Incomplete"
)

// DailySummary is unique per (company, employee, site, date).
type DailySummary struct {
	ID                 string
	CompanyID          string
	EmployeeID         string
	SiteID             string
	Date               time.Time
	FirstEntryAt       *time.Time
	LastExitAt         *time.Time
	TimeOnSiteMinutes  int
	ActualHours        decimal.Decimal
	ExpectedHours      decimal.Decimal
	UtilizationPercent decimal.Decimal
	VarianceHours      decimal.Decimal
	Status             SummaryStatus
	EventCount         int
	CreatedAt          time.Time
	UpdatedAt          time.Time

	// DTO
	EmployeeName *string
	SiteName     *string
}

// Session is the result of pairing one employee's events at one site for one day.
type Session struct {
	TimeOnSite   time.Duration
	FirstEntryAt *time.Time
	LastExitAt   *time.Time
	EnterCount   int
	Open         bool // an Enter without Exit was truncated
}

// PairKey identifies an (employee, site) pair within one tenant-day.
type PairKey struct {
	EmployeeID string
	SiteID     string
}
