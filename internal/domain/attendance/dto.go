package attendance

import (
	"time"

	"github.com/cmlabs-hris/site-attendance-go/internal/pkg/validator"
)

// ========================================
// DAILY PROCESSING DTOs
// ========================================

type ProcessDailyRequest struct {
	CompanyID string `json:"-" validate:"required"`
	Date      string `json:"date" validate:"required,civildate"`
	// Reprocess recomputes every pair of the day, not only pairs with new events.
	Reprocess bool `json:"reprocess"`
}

func (r *ProcessDailyRequest) Validate() error {
	return validator.Struct(r)
}

type ProcessResult struct {
	Date             string `json:"date"`
	EventsProcessed  int    `json:"events_processed"`
	SummariesCreated int    `json:"summaries_created"`
	SummariesUpdated int    `json:"summaries_updated"`
}

type ListDailySummaryRequest struct {
	CompanyID string `json:"-" validate:"required"`
	Date      string `json:"date" validate:"required,civildate"`
}

func (r *ListDailySummaryRequest) Validate() error {
	return validator.Struct(r)
}

type DailySummaryResponse struct {
	ID                 string  `json:"id"`
	EmployeeID         string  `json:"employee_id"`
	EmployeeName       string  `json:"employee_name"`
	SiteID             string  `json:"site_id"`
	SiteName           string  `json:"site_name"`
	Date               string  `json:"date"`
	FirstEntryAt       *string `json:"first_entry_at,omitempty"`
	LastExitAt         *string `json:"last_exit_at,omitempty"`
	TimeOnSiteMinutes  int     `json:"time_on_site_minutes"`
	ActualHours        string  `json:"actual_hours"`
	ExpectedHours      string  `json:"expected_hours"`
	UtilizationPercent string  `json:"utilization_percent"`
	VarianceHours      string  `json:"variance_hours"`
	Status             string  `json:"status"`
	EventCount         int     `json:"event_count"`
	UpdatedAt          string  `json:"updated_at"`
}

// ========================================
// WORKING DAYS DTOs
// ========================================

type WorkingDaysRequest struct {
	CompanyID string `json:"-"`
	From      string `json:"from"`
	To        string `json:"to"`
}

func (r *WorkingDaysRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.CompanyID) {
		errs = append(errs, validator.ValidationError{
			Field:   "company_id",
			Message: "company_id is required",
		})
	}

	from, fromOK := validator.IsValidDate(r.From)
	if !fromOK {
		errs = append(errs, validator.ValidationError{
			Field:   "from",
			Message: "from must be a date in YYYY-MM-DD format",
		})
	}

	to, toOK := validator.IsValidDate(r.To)
	if !toOK {
		errs = append(errs, validator.ValidationError{
			Field:   "to",
			Message: "to must be a date in YYYY-MM-DD format",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	if from.After(to) {
		return ErrInvalidDateRange
	}
	if to.Sub(from) > 366*24*time.Hour {
		return ErrDateRangeTooLong
	}

	return nil
}

type WorkingDaysResponse struct {
	From          string `json:"from"`
	To            string `json:"to"`
	WorkingDays   int    `json:"working_days"`
	ExpectedHours string `json:"expected_hours"`
}
