package postgresql

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/site-attendance-go/internal/domain/tenant"
	"github.com/cmlabs-hris/site-attendance-go/internal/pkg/database"
	"github.com/cmlabs-hris/site-attendance-go/internal/pkg/validator"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

type tenantSettingsRepository struct {
	db       *database.DB
	defaults tenant.Defaults
}

// NewTenantSettingsRepository returns a settings repository that falls back to defaults for
// tenants without a tenant_settings row.
func NewTenantSettingsRepository(db *database.DB, defaults tenant.Defaults) tenant.SettingsRepository {
	return &tenantSettingsRepository{db: db, defaults: defaults}
}

// GetConfig implements tenant.SettingsRepository.
func (r *tenantSettingsRepository) GetConfig(ctx context.Context, companyID string) (tenant.Config, error) {
	if companyID == "" {
		return tenant.Config{}, tenant.ErrCompanyIDRequired
	}
	q := GetQuerier(ctx, r.db)

	cfg := tenant.DefaultConfig(companyID, r.defaults)

	query := `
		SELECT timezone, geofence_radius_meters, noise_threshold_meters, expected_hours_per_day,
			   include_weekends, open_session_policy, excellent_threshold_percent, good_threshold_percent
		FROM tenant_settings
		WHERE company_id = $1
	`

	var (
		timezone          *string
		radius, noise     *decimal.Decimal
		expected          *decimal.Decimal
		includeWeekends   *bool
		openSessionPolicy *string
		excellent, good   *decimal.Decimal
	)
	err := q.QueryRow(ctx, query, companyID).Scan(
		&timezone, &radius, &noise, &expected,
		&includeWeekends, &openSessionPolicy, &excellent, &good,
	)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return tenant.Config{}, fmt.Errorf("failed to get tenant settings: %w", err)
	}

	if timezone != nil && *timezone != "" {
		if err := cfg.SetTimezone(*timezone); err != nil {
			slog.Warn("invalid tenant timezone, using default",
				"company_id", companyID, "timezone", *timezone, "default", cfg.Timezone)
		}
	}
	if radius != nil {
		cfg.GeofenceRadiusMeters = *radius
	}
	if noise != nil {
		cfg.NoiseThresholdMeters = *noise
	}
	if expected != nil {
		cfg.ExpectedHoursPerDay = *expected
	}
	if includeWeekends != nil {
		cfg.IncludeWeekends = *includeWeekends
	}
	if openSessionPolicy != nil && *openSessionPolicy != "" {
		if validator.IsInSlice(*openSessionPolicy, tenant.OpenSessionPolicyValues) {
			cfg.OpenSessionPolicy = tenant.OpenSessionPolicy(*openSessionPolicy)
		} else {
			slog.Warn("unknown open session policy, using default",
				"company_id", companyID, "policy", *openSessionPolicy)
		}
	}
	if excellent != nil {
		cfg.ExcellentThresholdPercent = *excellent
	}
	if good != nil {
		cfg.GoodThresholdPercent = *good
	}

	holidays, err := r.getHolidays(ctx, companyID)
	if err != nil {
		return tenant.Config{}, err
	}
	cfg.Holidays = holidays

	return cfg, nil
}

func (r *tenantSettingsRepository) getHolidays(ctx context.Context, companyID string) (map[string]string, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT date, name
		FROM bank_holidays
		WHERE company_id = $1
		ORDER BY date
	`

	rows, err := q.Query(ctx, query, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to query bank holidays: %w", err)
	}
	defer rows.Close()

	holidays := make(map[string]string)
	for rows.Next() {
		var (
			date time.Time
			name string
		)
		if err := rows.Scan(&date, &name); err != nil {
			return nil, fmt.Errorf("failed to scan bank holiday: %w", err)
		}
		holidays[date.Format(tenant.DateLayout)] = name
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate bank holidays: %w", err)
	}

	return holidays, nil
}

// ListCompanyIDs implements tenant.SettingsRepository.
func (r *tenantSettingsRepository) ListCompanyIDs(ctx context.Context) ([]string, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT company_id::text FROM tenant_settings
		UNION
		SELECT DISTINCT company_id::text FROM presence_events
		WHERE occurred_at >= NOW() - INTERVAL '2 days'
		ORDER BY 1
	`

	rows, err := q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query company ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan company id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate company ids: %w", err)
	}

	return ids, nil
}
