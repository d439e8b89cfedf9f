package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/site-attendance-go/internal/domain/reconciliation"
	"github.com/cmlabs-hris/site-attendance-go/internal/pkg/database"
)

type spaRepository struct {
	db *database.DB
}

func NewSpaRepository(db *database.DB) reconciliation.SpaStore {
	return &spaRepository{db: db}
}

// GetForDate implements reconciliation.SpaStore.
func (r *spaRepository) GetForDate(ctx context.Context, companyID string, date time.Time) ([]reconciliation.SpaRecord, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, company_id, employee_id, site_id, date, completed, image_url, created_at
		FROM spa_records
		WHERE company_id = $1 AND date = $2
		ORDER BY created_at, id
	`

	rows, err := q.Query(ctx, query, companyID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to query spa records: %w", err)
	}
	defer rows.Close()

	var records []reconciliation.SpaRecord
	for rows.Next() {
		var s reconciliation.SpaRecord
		if err := rows.Scan(
			&s.ID, &s.CompanyID, &s.EmployeeID, &s.SiteID, &s.Date, &s.Completed, &s.ImageURL, &s.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan spa record: %w", err)
		}
		records = append(records, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate spa records: %w", err)
	}

	return records, nil
}
