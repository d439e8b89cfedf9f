package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/site-attendance-go/internal/domain/attendance"
	"github.com/cmlabs-hris/site-attendance-go/internal/domain/tenant"
	"github.com/cmlabs-hris/site-attendance-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const presenceEventColumns = `
	id, company_id, employee_id, site_id, kind, occurred_at,
	latitude, longitude, trigger_method, is_noise, noise_distance_meters,
	summarized_at, created_at
`

var errDayLockOutsideTransaction = errors.New("attendance day lock requires a transaction")

type presenceEventRepository struct {
	db *database.DB
}

func NewPresenceEventRepository(db *database.DB) attendance.EventRepository {
	return &presenceEventRepository{db: db}
}

func scanPresenceEvent(row pgx.Row) (attendance.PresenceEvent, error) {
	var e attendance.PresenceEvent
	err := row.Scan(
		&e.ID, &e.CompanyID, &e.EmployeeID, &e.SiteID, &e.Kind, &e.OccurredAt,
		&e.Latitude, &e.Longitude, &e.TriggerMethod, &e.IsNoise, &e.NoiseDistanceMeters,
		&e.SummarizedAt, &e.CreatedAt,
	)
	return e, err
}

// GetByDateRange implements attendance.EventRepository.
func (r *presenceEventRepository) GetByDateRange(ctx context.Context, companyID string, from, to time.Time) ([]attendance.PresenceEvent, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + presenceEventColumns + `
		FROM presence_events
		WHERE company_id = $1
		  AND occurred_at >= $2
		  AND occurred_at < $3
		ORDER BY occurred_at, id
	`

	rows, err := q.Query(ctx, query, companyID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query presence events: %w", err)
	}
	defer rows.Close()

	var events []attendance.PresenceEvent
	for rows.Next() {
		e, err := scanPresenceEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan presence event: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate presence events: %w", err)
	}

	return events, nil
}

// GetByID implements attendance.EventRepository.
func (r *presenceEventRepository) GetByID(ctx context.Context, id string, companyID string) (attendance.PresenceEvent, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + presenceEventColumns + `
		FROM presence_events
		WHERE id = $1 AND company_id = $2
	`

	e, err := scanPresenceEvent(q.QueryRow(ctx, query, id, companyID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return attendance.PresenceEvent{}, attendance.ErrEventNotFound
		}
		return attendance.PresenceEvent{}, fmt.Errorf("failed to get presence event: %w", err)
	}

	return e, nil
}

// GetFirstEnterOfDay implements attendance.EventRepository.
func (r *presenceEventRepository) GetFirstEnterOfDay(ctx context.Context, employeeID string, from, to time.Time, companyID string) (*attendance.PresenceEvent, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + presenceEventColumns + `
		FROM presence_events
		WHERE company_id = $1
		  AND employee_id = $2
		  AND kind = $3
		  AND is_noise = FALSE
		  AND occurred_at >= $4
		  AND occurred_at < $5
		ORDER BY occurred_at, id
		LIMIT 1
	`

	e, err := scanPresenceEvent(q.QueryRow(ctx, query, companyID, employeeID, attendance.EventKindEnter, from, to))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get first enter of day: %w", err)
	}

	return &e, nil
}

// MarkNoise implements attendance.EventRepository.
func (r *presenceEventRepository) MarkNoise(ctx context.Context, id string, distanceMeters decimal.Decimal, companyID string) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE presence_events
		SET is_noise = TRUE, noise_distance_meters = $1, summarized_at = NULL
		WHERE id = $2 AND company_id = $3
	`

	tag, err := q.Exec(ctx, query, distanceMeters, id, companyID)
	if err != nil {
		return fmt.Errorf("failed to mark presence event as noise: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return attendance.ErrEventNotFound
	}

	return nil
}

// LockDay implements attendance.EventRepository.
func (r *presenceEventRepository) LockDay(ctx context.Context, companyID string, date time.Time) error {
	tx, ok := ctx.Value(txKey{}).(pgx.Tx)
	if !ok {
		return errDayLockOutsideTransaction
	}

	query := `SELECT pg_advisory_xact_lock(hashtextextended($1 || '/' || $2, 0))`

	if _, err := tx.Exec(ctx, query, companyID, date.Format(tenant.DateLayout)); err != nil {
		return fmt.Errorf("failed to lock attendance day: %w", err)
	}

	return nil
}

// MarkSummarized implements attendance.EventRepository.
func (r *presenceEventRepository) MarkSummarized(ctx context.Context, ids []string, at time.Time, companyID string) error {
	if len(ids) == 0 {
		return nil
	}
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE presence_events
		SET summarized_at = $1
		WHERE company_id = $2
		  AND id = ANY($3::uuid[])
		  AND summarized_at IS NULL
	`

	if _, err := q.Exec(ctx, query, at, companyID, ids); err != nil {
		return fmt.Errorf("failed to mark presence events summarized: %w", err)
	}

	return nil
}
