package reconciliation

import (
	"time"

	"github.com/cmlabs-hris/site-attendance-go/internal/pkg/validator"
)

type ReconcileRequest struct {
	CompanyID string `json:"-" validate:"required"`
	Date      string `json:"date" validate:"required,civildate"`
	// AllowPartial degrades to actual-only reporting when the schedule feed fails.
	AllowPartial bool `json:"partial"`
}

func (r *ReconcileRequest) Validate() error {
	return validator.Struct(r)
}

type EntryResponse struct {
	Status         string  `json:"status"`
	EmployeeID     string  `json:"employee_id"`
	EmployeeName   string  `json:"employee_name"`
	SiteID         string  `json:"site_id"`
	SiteName       string  `json:"site_name"`
	SiteCode       string  `json:"site_code"`
	PlannedArrival *string `json:"planned_arrival,omitempty"`
	ActualArrival  *string `json:"actual_arrival,omitempty"`
	SpaCompleted   bool    `json:"spa_completed"`
	SpaID          *string `json:"spa_id,omitempty"`
	SpaImageURL    *string `json:"spa_image_url,omitempty"`
}

type TotalsResponse struct {
	PlannedCount   int `json:"planned_count"`
	ArrivedCount   int `json:"arrived_count"`
	UnplannedCount int `json:"unplanned_count"`
}

type ReportResponse struct {
	Date     string          `json:"date"`
	Degraded bool            `json:"degraded"`
	Entries  []EntryResponse `json:"entries"`
	Totals   TotalsResponse  `json:"totals"`
}

func timePtrToString(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.UTC().Format(time.RFC3339)
	return &s
}

// ToResponse maps a report to its JSON shape.
func (r Report) ToResponse() ReportResponse {
	entries := make([]EntryResponse, 0, len(r.Entries))
	for _, e := range r.Entries {
		entries = append(entries, EntryResponse{
			Status:         string(e.Status),
			EmployeeID:     e.EmployeeID,
			EmployeeName:   e.EmployeeName,
			SiteID:         e.SiteID,
			SiteName:       e.SiteName,
			SiteCode:       e.SiteCode,
			PlannedArrival: timePtrToString(e.PlannedArrival),
			ActualArrival:  timePtrToString(e.ActualArrival),
			SpaCompleted:   e.SpaCompleted,
			SpaID:          e.SpaID,
			SpaImageURL:    e.SpaImageURL,
		})
	}

	return ReportResponse{
		Date:     r.Date.Format("2006-01-02"),
		Degraded: r.Degraded,
		Entries:  entries,
		Totals: TotalsResponse{
			PlannedCount:   r.Totals.PlannedCount,
			ArrivedCount:   r.Totals.ArrivedCount,
			UnplannedCount: r.Totals.UnplannedCount,
		},
	}
}
