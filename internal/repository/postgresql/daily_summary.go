package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/site-attendance-go/internal/domain/attendance"
	"github.com/cmlabs-hris/site-attendance-go/internal/pkg/database"
	"github.com/google/uuid"
)

type dailySummaryRepository struct {
	db *database.DB
}

func NewDailySummaryRepository(db *database.DB) attendance.DailySummaryRepository {
	return &dailySummaryRepository{db: db}
}

// Upsert implements attendance.DailySummaryRepository.
func (r *dailySummaryRepository) Upsert(ctx context.Context, summary attendance.DailySummary) (attendance.DailySummary, bool, error) {
	q := GetQuerier(ctx, r.db)

	id, err := uuid.NewV7()
	if err != nil {
		return attendance.DailySummary{}, false, fmt.Errorf("failed to generate summary id: %w", err)
	}

	query := `
		INSERT INTO daily_summaries (
			id, company_id, employee_id, site_id, date,
			first_entry_at, last_exit_at, time_on_site_minutes,
			actual_hours, expected_hours, utilization_percent, variance_hours,
			status, event_count
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (company_id, employee_id, site_id, date) DO UPDATE SET
			first_entry_at = EXCLUDED.first_entry_at,
			last_exit_at = EXCLUDED.last_exit_at,
			time_on_site_minutes = EXCLUDED.time_on_site_minutes,
			actual_hours = EXCLUDED.actual_hours,
			expected_hours = EXCLUDED.expected_hours,
			utilization_percent = EXCLUDED.utilization_percent,
			variance_hours = EXCLUDED.variance_hours,
			status = EXCLUDED.status,
			event_count = EXCLUDED.event_count,
			updated_at = NOW()
		RETURNING id, created_at, updated_at, (xmax = 0) AS inserted
	`

	var inserted bool
	err = q.QueryRow(ctx, query,
		id.String(), summary.CompanyID, summary.EmployeeID, summary.SiteID, summary.Date,
		summary.FirstEntryAt, summary.LastExitAt, summary.TimeOnSiteMinutes,
		summary.ActualHours, summary.ExpectedHours, summary.UtilizationPercent, summary.VarianceHours,
		summary.Status, summary.EventCount,
	).Scan(&summary.ID, &summary.CreatedAt, &summary.UpdatedAt, &inserted)
	if err != nil {
		return attendance.DailySummary{}, false, fmt.Errorf("failed to upsert daily summary: %w", err)
	}

	return summary, inserted, nil
}

// GetByDate implements attendance.DailySummaryRepository.
func (r *dailySummaryRepository) GetByDate(ctx context.Context, companyID string, date time.Time) ([]attendance.DailySummary, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ds.id, ds.company_id, ds.employee_id, ds.site_id, ds.date,
			   ds.first_entry_at, ds.last_exit_at, ds.time_on_site_minutes,
			   ds.actual_hours, ds.expected_hours, ds.utilization_percent, ds.variance_hours,
			   ds.status, ds.event_count, ds.created_at, ds.updated_at,
			   e.full_name, s.name
		FROM daily_summaries ds
		LEFT JOIN employees e ON e.id = ds.employee_id AND e.company_id = ds.company_id
		LEFT JOIN sites s ON s.id = ds.site_id AND s.company_id = ds.company_id
		WHERE ds.company_id = $1 AND ds.date = $2
		ORDER BY s.name, e.full_name, ds.site_id, ds.employee_id
	`

	rows, err := q.Query(ctx, query, companyID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to query daily summaries: %w", err)
	}
	defer rows.Close()

	var summaries []attendance.DailySummary
	for rows.Next() {
		var s attendance.DailySummary
		if err := rows.Scan(
			&s.ID, &s.CompanyID, &s.EmployeeID, &s.SiteID, &s.Date,
			&s.FirstEntryAt, &s.LastExitAt, &s.TimeOnSiteMinutes,
			&s.ActualHours, &s.ExpectedHours, &s.UtilizationPercent, &s.VarianceHours,
			&s.Status, &s.EventCount, &s.CreatedAt, &s.UpdatedAt,
			&s.EmployeeName, &s.SiteName,
		); err != nil {
			return nil, fmt.Errorf("failed to scan daily summary: %w", err)
		}
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate daily summaries: %w", err)
	}

	return summaries, nil
}
