package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/site-attendance-go/internal/domain/site"
	"github.com/cmlabs-hris/site-attendance-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

const siteColumns = `
	id, company_id, name, code, latitude, longitude, radius_meters, external_project_id,
	is_active, created_at, updated_at, deleted_at
`

type siteRepository struct {
	db *database.DB
}

func NewSiteRepository(db *database.DB) site.Directory {
	return &siteRepository{db: db}
}

func scanSite(row pgx.Row) (site.Site, error) {
	var s site.Site
	err := row.Scan(
		&s.ID, &s.CompanyID, &s.Name, &s.Code, &s.Latitude, &s.Longitude, &s.RadiusMeters, &s.ExternalProjectID,
		&s.IsActive, &s.CreatedAt, &s.UpdatedAt, &s.DeletedAt,
	)
	return s, err
}

func (r *siteRepository) querySites(ctx context.Context, query string, args ...interface{}) ([]site.Site, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query sites: %w", err)
	}
	defer rows.Close()

	var sites []site.Site
	for rows.Next() {
		s, err := scanSite(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan site: %w", err)
		}
		sites = append(sites, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sites: %w", err)
	}

	return sites, nil
}

// GetByID implements site.Directory.
func (r *siteRepository) GetByID(ctx context.Context, id string, companyID string) (site.Site, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + siteColumns + `
		FROM sites
		WHERE id = $1 AND company_id = $2 AND deleted_at IS NULL
	`

	s, err := scanSite(q.QueryRow(ctx, query, id, companyID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return site.Site{}, site.ErrSiteNotFound
		}
		return site.Site{}, fmt.Errorf("failed to get site by id: %w", err)
	}

	return s, nil
}

// GetByIDs implements site.Directory.
func (r *siteRepository) GetByIDs(ctx context.Context, ids []string, companyID string) ([]site.Site, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := `
		SELECT ` + siteColumns + `
		FROM sites
		WHERE company_id = $1 AND id = ANY($2::uuid[]) AND deleted_at IS NULL
		ORDER BY name, id
	`

	return r.querySites(ctx, query, companyID, ids)
}

// GetActiveByCompanyID implements site.Directory.
func (r *siteRepository) GetActiveByCompanyID(ctx context.Context, companyID string) ([]site.Site, error) {
	query := `
		SELECT ` + siteColumns + `
		FROM sites
		WHERE company_id = $1 AND is_active = TRUE AND deleted_at IS NULL
		ORDER BY name, id
	`

	return r.querySites(ctx, query, companyID)
}

// GetMapped implements site.Directory.
func (r *siteRepository) GetMapped(ctx context.Context, companyID string) ([]site.Site, error) {
	query := `
		SELECT ` + siteColumns + `
		FROM sites
		WHERE company_id = $1 AND external_project_id IS NOT NULL AND deleted_at IS NULL
		ORDER BY name, id
	`

	return r.querySites(ctx, query, companyID)
}
