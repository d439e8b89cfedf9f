package reconciliation

import "time"

type Status string

const (
	StatusArrived   Status = "Arrived"
	StatusPlanned   Status = "Planned"
	StatusUnplanned Status = "Unplanned"
)

// Rank orders statuses in report output: Arrived, Planned, Unplanned.
func (s Status) Rank() int {
	switch s {
	case StatusArrived:
		return 0
	case StatusPlanned:
		return 1
	case StatusUnplanned:
		return 2
	}
	return 3
}

// Key identifies an (employee, site) pair within one tenant-day.
type Key struct {
	EmployeeID string
	SiteID     string
}

// PlannedAssignment is derived from the schedule feed for the reconciled date only.
type PlannedAssignment struct {
	Key
	PlannedArrival time.Time
	TaskID         int64
}

// SpaRecord is a site photo attendance confirmation.
type SpaRecord struct {
	ID         string
	CompanyID  string
	EmployeeID string
	SiteID     string
	Date       time.Time
	Completed  bool
	ImageURL   *string
	CreatedAt  time.Time
}

type Entry struct {
	Status         Status
	EmployeeID     string
	EmployeeName   string
	SiteID         string
	SiteName       string
	SiteCode       string
	PlannedArrival *time.Time
	ActualArrival  *time.Time
	SpaCompleted   bool
	SpaID          *string
	SpaImageURL    *string
}

type Totals struct {
	PlannedCount   int
	ArrivedCount   int
	UnplannedCount int
}

type Report struct {
	CompanyID string
	Date      time.Time
	// Degraded is set when the schedule feed failed and only actual arrivals are reported.
	Degraded bool
	Entries  []Entry
	Totals   Totals
}
